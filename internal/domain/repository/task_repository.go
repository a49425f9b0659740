package repository

import (
	"context"
	"time"

	"github.com/oksasatya/tasko/internal/domain/entity"
)

// AvailableQuery selects open tasks that are remote or within RadiusKm of a point.
type AvailableQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

// TaskRepository stores tasks and their reviews.
//
// The transition methods are conditional writes: they apply only when the
// stored row still satisfies the precondition and report whether it did.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)

	// Accept: open -> assigned, sets worker.
	Accept(ctx context.Context, id, workerID string) (bool, error)
	// Deposit: escrow false -> true while assigned.
	Deposit(ctx context.Context, id string, amount float64, ref string) (bool, error)
	// Start: assigned with escrow deposited -> in-progress.
	Start(ctx context.Context, id string) (bool, error)
	// Complete: in-progress with the given worker -> completed.
	Complete(ctx context.Context, id, workerID string, at time.Time) (bool, error)

	AddReview(ctx context.Context, taskID string, r *entity.Review) error
	// WorkerRatings returns every rating on completed tasks where workerID is the worker.
	WorkerRatings(ctx context.Context, workerID string) ([]int, error)

	ListByClient(ctx context.Context, clientID string) ([]entity.Task, error)
	// ListForWorker returns tasks assigned to workerID plus all open tasks.
	ListForWorker(ctx context.Context, workerID string) ([]entity.Task, error)
	ListAvailable(ctx context.Context, q AvailableQuery) ([]entity.Task, error)
	ListByStatus(ctx context.Context, status entity.TaskStatus) ([]entity.Task, error)
	ListAll(ctx context.Context) ([]entity.Task, error)
}

// Store runs fn inside one transaction; both repositories share it.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tasks TaskRepository, users UserRepository) error) error
}
