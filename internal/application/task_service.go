package application

import (
	"context"
	"expvar"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/config"
	"github.com/oksasatya/tasko/internal/domain/entity"
	repo "github.com/oksasatya/tasko/internal/domain/repository"
	tpl "github.com/oksasatya/tasko/pkg/mailer/templates"
)

// taskEvents counts lifecycle transitions, served on /api/debug/vars.
var taskEvents = expvar.NewMap("task_events")

// PaymentGateway collects the escrow amount and returns a transaction reference.
type PaymentGateway interface {
	Charge(ctx context.Context, taskID string, amount float64) (string, error)
}

type TaskService struct {
	Tasks    repo.TaskRepository
	Users    repo.UserRepository
	Store    repo.Store
	Payments PaymentGateway
	Notifier *Notifier
	Index    *TaskIndex
	Logger   *logrus.Logger

	CommissionRate float64
	RadiusKm       float64
	Limit          int

	Now func() time.Time
}

func NewTaskService(tasks repo.TaskRepository, users repo.UserRepository, store repo.Store, payments PaymentGateway, notifier *Notifier, index *TaskIndex, logger *logrus.Logger, cfg *config.Config) *TaskService {
	s := &TaskService{
		Tasks:          tasks,
		Users:          users,
		Store:          store,
		Payments:       payments,
		Notifier:       notifier,
		Index:          index,
		Logger:         logger,
		CommissionRate: entity.DefaultCommissionRate,
		RadiusKm:       10,
		Limit:          50,
		Now:            time.Now,
	}
	if cfg != nil {
		if cfg.CommissionRate > 0 {
			s.CommissionRate = cfg.CommissionRate
		}
		if cfg.DefaultRadiusKm > 0 {
			s.RadiusKm = cfg.DefaultRadiusKm
		}
		if cfg.AvailableTaskLimit > 0 {
			s.Limit = cfg.AvailableTaskLimit
		}
	}
	return s
}

// Completion is the result of CompleteTask.
type Completion struct {
	Task       *entity.Task
	Commission float64
	Payout     float64
}

// AvailableFilter is the query of ListAvailable. Nil fields were not supplied.
type AvailableFilter struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
}

// errLostRace signals a conditional write that matched no row.
var errLostRace = errors.New("conditional update matched no row")

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *TaskService) load(ctx context.Context, id string) (*entity.Task, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: task not found", entity.ErrNotFound)
	}
	t, err := s.Tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: task not found", entity.ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

// explain re-reads a task after a lost conditional write and reports why the
// guard no longer holds. fallback is used when the guard passes again.
func (s *TaskService) explain(ctx context.Context, id string, guard func(*entity.Task) error, fallback error) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := guard(t); err != nil {
		return err
	}
	return fallback
}

func (s *TaskService) Create(ctx context.Context, actor entity.Actor, in entity.NewTaskInput) (*entity.Task, error) {
	t, err := entity.NewTask(actor, in)
	if err != nil {
		return nil, err
	}
	if err := s.Tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	created, err := s.Tasks.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	s.Index.Put(ctx, created)
	taskEvents.Add("created", 1)
	return created, nil
}

// Accept assigns an open task to the calling worker. Concurrent accepts are
// settled by the store: exactly one conditional update succeeds.
func (s *TaskService) Accept(ctx context.Context, actor entity.Actor, id string) (*entity.Task, error) {
	if err := entity.CheckAccept(actor); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, entity.ErrNotAvailable
	}
	ok, err := s.Tasks.Accept(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrNotAvailable
	}
	t, err := s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Index.Put(ctx, t)
	s.Notifier.Notify(ctx, tpl.TaskAccepted, t.Client,
		tpl.WithTask(t.ID, t.Title, string(t.Status), t.Price),
		tpl.WithActor(partyName(t.Worker)),
	)
	taskEvents.Add("accepted", 1)
	return t, nil
}

func (s *TaskService) Deposit(ctx context.Context, actor entity.Actor, id string) (*entity.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	guard := func(t *entity.Task) error { return entity.CheckDeposit(actor, t) }
	if err := guard(t); err != nil {
		return nil, err
	}

	ref, err := s.Payments.Charge(ctx, t.ID, t.Price)
	if err != nil {
		return nil, fmt.Errorf("charge escrow: %w", err)
	}
	ok, err := s.Tasks.Deposit(ctx, t.ID, t.Price, ref)
	if err != nil || !ok {
		// the gateway took the money but the escrow was not recorded
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"task_id": id, "transaction_ref": ref}).
				Warn("escrow charge not recorded, refund required")
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.explain(ctx, id, guard, entity.ErrAlreadyDeposited)
	}

	t, err = s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Notifier.Notify(ctx, tpl.EscrowDeposited, t.Worker,
		tpl.WithTask(t.ID, t.Title, string(t.Status), t.Price),
		tpl.WithActor(partyName(t.Client)),
		tpl.WithEscrow(t.Escrow.Amount, ref),
	)
	taskEvents.Add("deposited", 1)
	return t, nil
}

func (s *TaskService) Start(ctx context.Context, actor entity.Actor, id string) (*entity.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	guard := func(t *entity.Task) error { return entity.CheckStart(actor, t) }
	if err := guard(t); err != nil {
		return nil, err
	}
	ok, err := s.Tasks.Start(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.explain(ctx, id, guard, fmt.Errorf("%w: cannot start task", entity.ErrInvalidTransition))
	}

	t, err = s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Index.Put(ctx, t)
	actorName, to := partyName(t.Client), t.Worker
	if t.IsWorker(actor.ID) {
		actorName, to = partyName(t.Worker), t.Client
	}
	s.Notifier.Notify(ctx, tpl.TaskStarted, to,
		tpl.WithTask(t.ID, t.Title, string(t.Status), t.Price),
		tpl.WithActor(actorName),
	)
	taskEvents.Add("started", 1)
	return t, nil
}

// Complete finishes an in-progress task and credits the worker. The task
// transition and the worker counters commit together or not at all.
func (s *TaskService) Complete(ctx context.Context, actor entity.Actor, id string) (*Completion, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	guard := func(t *entity.Task) error { return entity.CheckComplete(actor, t) }
	if err := guard(t); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	badge := false
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tasks repo.TaskRepository, users repo.UserRepository) error {
		ok, err := tasks.Complete(ctx, id, actor.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return errLostRace
		}
		w, err := users.GetByIDForUpdate(ctx, actor.ID)
		if err != nil {
			// worker failures are internal whatever their kind
			return fmt.Errorf("load worker %s: %v", actor.ID, err)
		}
		badge = entity.RecordCompletion(w)
		if err := users.UpdateReputation(ctx, w); err != nil {
			return fmt.Errorf("update worker %s: %v", actor.ID, err)
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return nil, s.explain(ctx, id, guard, fmt.Errorf("%w: task not in progress", entity.ErrInvalidTransition))
	}
	if err != nil {
		return nil, err
	}
	if badge && s.Logger != nil {
		s.Logger.WithField("user_id", actor.ID).Info("worker earned the 50-tasks badge")
	}

	t, err = s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	commission, payout := entity.Settle(t.Price, s.CommissionRate)
	s.Index.Put(ctx, t)
	s.Notifier.Notify(ctx, tpl.TaskCompleted, t.Client,
		tpl.WithTask(t.ID, t.Title, string(t.Status), t.Price),
		tpl.WithActor(partyName(t.Worker)),
		tpl.WithSettlement(commission, payout),
	)
	taskEvents.Add("completed", 1)
	return &Completion{Task: t, Commission: commission, Payout: payout}, nil
}

// Review appends a client review to a completed task and recomputes the
// worker's reliability score from every rating they hold.
func (s *TaskService) Review(ctx context.Context, actor entity.Actor, id string, rating int, comment string) (*entity.Task, error) {
	if err := entity.ValidateRating(rating); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.CheckReview(actor, t); err != nil {
		return nil, err
	}
	workerID := *t.WorkerID

	var score float64
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tasks repo.TaskRepository, users repo.UserRepository) error {
		// lock the worker first so concurrent reviews recompute in turn
		w, err := users.GetByIDForUpdate(ctx, workerID)
		if err != nil {
			return fmt.Errorf("load worker %s: %v", workerID, err)
		}
		if err := tasks.AddReview(ctx, id, &entity.Review{ReviewerID: actor.ID, Rating: rating, Comment: comment}); err != nil {
			return err
		}
		ratings, err := tasks.WorkerRatings(ctx, workerID)
		if err != nil {
			return err
		}
		w.ReliabilityScore = entity.RecomputeReliability(ratings)
		score = w.ReliabilityScore
		if err := users.UpdateReputation(ctx, w); err != nil {
			return fmt.Errorf("update worker %s: %v", workerID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t, err = s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Notifier.Notify(ctx, tpl.TaskReviewed, t.Worker,
		tpl.WithTask(t.ID, t.Title, string(t.Status), t.Price),
		tpl.WithActor(partyName(t.Client)),
		tpl.WithReview(rating, comment, score),
	)
	taskEvents.Add("reviewed", 1)
	return t, nil
}

func (s *TaskService) ListClient(ctx context.Context, actor entity.Actor) ([]entity.Task, error) {
	if actor.Role != entity.RoleClient {
		return nil, fmt.Errorf("%w: clients only", entity.ErrForbidden)
	}
	return s.Tasks.ListByClient(ctx, actor.ID)
}

func (s *TaskService) ListWorker(ctx context.Context, actor entity.Actor) ([]entity.Task, error) {
	if actor.Role != entity.RoleWorker {
		return nil, fmt.Errorf("%w: workers only", entity.ErrForbidden)
	}
	return s.Tasks.ListForWorker(ctx, actor.ID)
}

// ListAvailable returns open tasks near a point plus every remote task.
func (s *TaskService) ListAvailable(ctx context.Context, actor entity.Actor, f AvailableFilter) ([]entity.Task, error) {
	if actor.Role != entity.RoleWorker {
		return nil, fmt.Errorf("%w: workers only", entity.ErrForbidden)
	}
	if f.Latitude == nil || f.Longitude == nil {
		return nil, fmt.Errorf("%w: lat and lng are required", entity.ErrValidation)
	}
	if err := entity.ValidateCoordinates(*f.Latitude, *f.Longitude); err != nil {
		return nil, err
	}
	radius := s.RadiusKm
	if f.RadiusKm != nil {
		if *f.RadiusKm <= 0 {
			return nil, fmt.Errorf("%w: radius must be positive", entity.ErrValidation)
		}
		radius = *f.RadiusKm
	}
	return s.Tasks.ListAvailable(ctx, repo.AvailableQuery{
		Latitude:  *f.Latitude,
		Longitude: *f.Longitude,
		RadiusKm:  radius,
		Limit:     s.Limit,
	})
}

func (s *TaskService) Search(ctx context.Context, actor entity.Actor, q string, size int) ([]map[string]any, error) {
	if actor.Role != entity.RoleWorker {
		return nil, fmt.Errorf("%w: workers only", entity.ErrForbidden)
	}
	return s.Index.Search(ctx, q, size)
}

func partyName(p *entity.Party) string {
	if p == nil {
		return ""
	}
	return p.Name
}
