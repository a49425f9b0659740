package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/domain/repository"
)

const taskSelect = `
	SELECT t.id::text, t.client_id::text, t.worker_id::text, t.title, t.description, t.category,
		t.price, t.deadline, t.is_remote, t.longitude, t.latitude, t.address, t.status,
		t.escrow_deposited, t.escrow_amount, t.escrow_transaction_ref, t.completed_at,
		t.created_at, t.updated_at,
		c.name, c.email, c.phone,
		w.name, w.email, w.phone
	FROM tasks t
	JOIN users c ON c.id = t.client_id
	LEFT JOIN users w ON w.id = t.worker_id`

// great-circle distance in km from ($1 lat, $2 lng); LEAST guards asin against rounding above 1
const distanceKm = `
	CROSS JOIN LATERAL (
		SELECT 6371 * 2 * asin(LEAST(1, sqrt(
			power(sin(radians(t.latitude - $1) / 2), 2) +
			cos(radians($1)) * cos(radians(t.latitude)) * power(sin(radians(t.longitude - $2) / 2), 2)
		))) AS km
	) d`

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	t := &entity.Task{}
	var (
		category, status      string
		wName, wEmail, wPhone *string
		cName, cEmail, cPhone string
	)
	if err := row.Scan(&t.ID, &t.ClientID, &t.WorkerID, &t.Title, &t.Description, &category,
		&t.Price, &t.Deadline, &t.Location.IsRemote, &t.Location.Point.Longitude, &t.Location.Point.Latitude,
		&t.Location.Point.Address, &status,
		&t.Escrow.Deposited, &t.Escrow.Amount, &t.Escrow.TransactionRef, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt,
		&cName, &cEmail, &cPhone,
		&wName, &wEmail, &wPhone); err != nil {
		return nil, mapErr(err)
	}
	t.Category = entity.Category(category)
	t.Status = entity.TaskStatus(status)
	t.Client = &entity.Party{ID: t.ClientID, Name: cName, Email: cEmail, Phone: cPhone}
	if t.WorkerID != nil && wName != nil {
		t.Worker = &entity.Party{ID: *t.WorkerID, Name: *wName, Email: deref(wEmail), Phone: deref(wPhone)}
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	p := t.Location.Point
	row := r.db.QueryRow(ctx, `
		INSERT INTO tasks (client_id, title, description, category, price, deadline,
			is_remote, longitude, latitude, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id::text, created_at, updated_at
	`, t.ClientID, t.Title, t.Description, string(t.Category), t.Price, t.Deadline,
		t.Location.IsRemote, p.Longitude, p.Latitude, p.Address, string(t.Status))

	return mapErr(row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt))
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, err
	}
	tasks := []entity.Task{*t}
	if err := r.loadReviews(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (r *TaskRepository) exec(ctx context.Context, sql string, args ...any) (bool, error) {
	res, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, mapErr(err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *TaskRepository) Accept(ctx context.Context, id, workerID string) (bool, error) {
	return r.exec(ctx, `
		UPDATE tasks SET worker_id = $2, status = 'assigned', updated_at = now()
		WHERE id = $1 AND status = 'open'
	`, id, workerID)
}

func (r *TaskRepository) Deposit(ctx context.Context, id string, amount float64, ref string) (bool, error) {
	return r.exec(ctx, `
		UPDATE tasks
		SET escrow_deposited = TRUE, escrow_amount = $2, escrow_transaction_ref = $3, updated_at = now()
		WHERE id = $1 AND status = 'assigned' AND NOT escrow_deposited
	`, id, amount, ref)
}

func (r *TaskRepository) Start(ctx context.Context, id string) (bool, error) {
	return r.exec(ctx, `
		UPDATE tasks SET status = 'in-progress', updated_at = now()
		WHERE id = $1 AND status = 'assigned' AND escrow_deposited
	`, id)
}

func (r *TaskRepository) Complete(ctx context.Context, id, workerID string, at time.Time) (bool, error) {
	return r.exec(ctx, `
		UPDATE tasks SET status = 'completed', completed_at = $3, updated_at = now()
		WHERE id = $1 AND worker_id = $2 AND status = 'in-progress'
	`, id, workerID, at)
}

func (r *TaskRepository) AddReview(ctx context.Context, taskID string, rv *entity.Review) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO task_reviews (task_id, reviewer_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`, taskID, rv.ReviewerID, rv.Rating, rv.Comment)
	return mapErr(row.Scan(&rv.ID, &rv.CreatedAt))
}

func (r *TaskRepository) WorkerRatings(ctx context.Context, workerID string) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT rv.rating
		FROM task_reviews rv
		JOIN tasks t ON t.id = rv.task_id
		WHERE t.worker_id = $1 AND t.status = 'completed'
	`, workerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *TaskRepository) ListByClient(ctx context.Context, clientID string) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+` WHERE t.client_id = $1 ORDER BY t.created_at DESC`, clientID)
}

func (r *TaskRepository) ListForWorker(ctx context.Context, workerID string) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+` WHERE t.worker_id = $1 OR t.status = 'open' ORDER BY t.created_at DESC`, workerID)
}

// ListAvailable returns nearby tasks nearest first, then remote ones.
func (r *TaskRepository) ListAvailable(ctx context.Context, q repository.AvailableQuery) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+distanceKm+`
		WHERE t.status = 'open' AND (t.is_remote OR d.km <= $3)
		ORDER BY t.is_remote, d.km, t.created_at DESC
		LIMIT $4`, q.Latitude, q.Longitude, q.RadiusKm, q.Limit)
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status entity.TaskStatus) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+` WHERE t.status = $1 ORDER BY t.completed_at DESC NULLS LAST, t.created_at DESC`, string(status))
}

func (r *TaskRepository) ListAll(ctx context.Context) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+` ORDER BY t.created_at DESC`)
}

func (r *TaskRepository) list(ctx context.Context, sql string, args ...any) ([]entity.Task, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []entity.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	// release the connection before loading reviews; a tx has only one
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadReviews(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadReviews attaches reviews to tasks with a single query.
func (r *TaskRepository) loadReviews(ctx context.Context, tasks []entity.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	byID := make(map[string]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		byID[tasks[i].ID] = i
		tasks[i].Reviews = []entity.Review{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT task_id::text, id::text, reviewer_id::text, rating, comment, created_at
		FROM task_reviews
		WHERE task_id::text = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID string
		var rv entity.Review
		if err := rows.Scan(&taskID, &rv.ID, &rv.ReviewerID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return err
		}
		if i, ok := byID[taskID]; ok {
			tasks[i].Reviews = append(tasks[i].Reviews, rv)
		}
	}
	return rows.Err()
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
