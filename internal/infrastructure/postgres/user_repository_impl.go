package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/domain/repository"
)

const userColumns = `id::text, name, email, password_hash, phone, role, skills, availability, bio,
	is_verified, badges, reliability_score, completed_tasks, longitude, latitude, address,
	avatar_url, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var (
		role     string
		lng, lat *float64
		addr     *string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &role, &u.Skills,
		&u.Availability, &u.Bio, &u.IsVerified, &u.Badges, &u.ReliabilityScore, &u.CompletedTasks,
		&lng, &lat, &addr, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.Role = entity.Role(role)
	if lng != nil && lat != nil {
		u.Location = &entity.GeoPoint{Longitude: *lng, Latitude: *lat}
		if addr != nil {
			u.Location.Address = *addr
		}
	}
	return u, nil
}

func locationArgs(loc *entity.GeoPoint) (lng, lat *float64, addr *string) {
	if loc == nil {
		return nil, nil, nil
	}
	return &loc.Longitude, &loc.Latitude, &loc.Address
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Skills == nil {
		u.Skills = []string{}
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}
	if u.Availability == "" {
		u.Availability = entity.DefaultAvailability
	}
	lng, lat, addr := locationArgs(u.Location)
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, phone, role, skills, availability, bio,
			is_verified, badges, longitude, latitude, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id::text, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.Phone, string(u.Role), u.Skills, u.Availability, u.Bio,
		u.IsVerified, u.Badges, lng, lat, addr)

	return mapErr(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	lng, lat, addr := locationArgs(u.Location)

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, phone = $2, skills = $3, availability = $4, bio = $5,
			longitude = $6, latitude = $7, address = $8, avatar_url = $9, updated_at = $10
		WHERE id = $11
	`, u.Name, u.Phone, u.Skills, u.Availability, u.Bio, lng, lat, addr, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}

	if res.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (r *UserRepository) UpdateReputation(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	if u.Badges == nil {
		u.Badges = []string{}
	}

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_verified = $1, badges = $2, completed_tasks = $3, reliability_score = $4, updated_at = $5
		WHERE id = $6
	`, u.IsVerified, u.Badges, u.CompletedTasks, u.ReliabilityScore, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}

	if res.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_verified = TRUE,
			badges = CASE WHEN $2::text = ANY(badges) THEN badges ELSE array_append(badges, $2::text) END,
			updated_at = now()
		WHERE id = $1
	`, id, entity.BadgeVerified)
	if err != nil {
		return mapErr(err)
	}

	if res.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
