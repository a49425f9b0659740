package repository

import (
	"context"

	"github.com/oksasatya/tasko/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	// UpdateProfile persists the self-service fields (name, phone, worker profile, location, avatar).
	UpdateProfile(ctx context.Context, u *entity.User) error
	// UpdateReputation persists is_verified, badges, completed_tasks and reliability_score.
	UpdateReputation(ctx context.Context, u *entity.User) error
	// MarkVerified sets is_verified and adds the verified badge once,
	// leaving the counters untouched. ErrNotFound for an unknown id.
	MarkVerified(ctx context.Context, id string) error
}
