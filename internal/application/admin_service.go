package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/domain/entity"
	repo "github.com/oksasatya/tasko/internal/domain/repository"
)

// PayoutPending is the only payout status until a real provider exists.
const PayoutPending = "pending"

type AdminService struct {
	Users          repo.UserRepository
	Tasks          repo.TaskRepository
	CommissionRate float64
	Logger         *logrus.Logger
}

func NewAdminService(users repo.UserRepository, tasks repo.TaskRepository, commissionRate float64, logger *logrus.Logger) *AdminService {
	if commissionRate <= 0 {
		commissionRate = entity.DefaultCommissionRate
	}
	return &AdminService{Users: users, Tasks: tasks, CommissionRate: commissionRate, Logger: logger}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.Users.List(ctx)
}

// VerifyUser marks a user verified and grants the verified badge once.
// The write touches only the verification columns, so completions and
// reviews committing at the same time keep their counters.
func (s *AdminService) VerifyUser(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: user not found", entity.ErrNotFound)
	}
	if err := s.Users.MarkVerified(ctx, id); err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("user verified")
	}
	return u, nil
}

func (s *AdminService) ListAllTasks(ctx context.Context) ([]entity.Task, error) {
	return s.Tasks.ListAll(ctx)
}

// ListPayouts reports the worker share of every completed task.
func (s *AdminService) ListPayouts(ctx context.Context) ([]entity.Payout, error) {
	tasks, err := s.Tasks.ListByStatus(ctx, entity.StatusCompleted)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Payout, 0, len(tasks))
	for _, t := range tasks {
		_, payout := entity.Settle(t.Price, s.CommissionRate)
		out = append(out, entity.Payout{
			TaskID: t.ID,
			Worker: partyName(t.Worker),
			Amount: payout,
			Status: PayoutPending,
		})
	}
	return out, nil
}
