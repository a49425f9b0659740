// Package testutil provides in-memory stand-ins for the Postgres store and
// the outbound collaborators, for service and handler tests.
package testutil

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/domain/repository"
)

// MemStore keeps users and tasks in maps. Conditional writes are applied
// under one mutex, so they race the same way the SQL versions do.
type MemStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	users map[string]*entity.User
	tasks map[string]*entity.Task
	seq   int

	// FailReputation, when set, is returned by UpdateReputation.
	FailReputation error
}

func NewMemStore() *MemStore {
	return &MemStore{users: map[string]*entity.User{}, tasks: map[string]*entity.Task{}}
}

func (s *MemStore) Users() repository.UserRepository { return memUsers{s: s} }
func (s *MemStore) Tasks() repository.TaskRepository { return memTasks{s: s} }

// WithinTx serialises transactions. When fn fails, only the rows fn wrote are
// put back; writes made outside the transaction meanwhile survive.
func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tasks repository.TaskRepository, users repository.UserRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{users: map[string]*entity.User{}, tasks: map[string]*entity.Task{}}
	if err := fn(ctx, memTasks{s: s, log: log}, memUsers{s: s, log: log}); err != nil {
		s.mu.Lock()
		log.rollback(s)
		s.mu.Unlock()
		return err
	}
	return nil
}

// undoLog holds the pre-transaction copy of every row a transaction wrote.
// A nil copy means the row did not exist. Methods need mu held.
type undoLog struct {
	users map[string]*entity.User
	tasks map[string]*entity.Task
}

func (l *undoLog) user(s *MemStore, id string) {
	if l == nil {
		return
	}
	if _, seen := l.users[id]; seen {
		return
	}
	var prev *entity.User
	if u, ok := s.users[id]; ok {
		prev = cloneUser(u)
	}
	l.users[id] = prev
}

func (l *undoLog) task(s *MemStore, id string) {
	if l == nil {
		return
	}
	if _, seen := l.tasks[id]; seen {
		return
	}
	var prev *entity.Task
	if t, ok := s.tasks[id]; ok {
		prev = cloneTask(t)
	}
	l.tasks[id] = prev
}

func (l *undoLog) rollback(s *MemStore) {
	for id, u := range l.users {
		if u == nil {
			delete(s.users, id)
			continue
		}
		s.users[id] = u
	}
	for id, t := range l.tasks {
		if t == nil {
			delete(s.tasks, id)
			continue
		}
		s.tasks[id] = t
	}
}

// next returns a monotonically increasing timestamp so orderings are stable.
func (s *MemStore) next() time.Time {
	s.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Skills = slices.Clone(u.Skills)
	c.Badges = slices.Clone(u.Badges)
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	return &c
}

func cloneTask(t *entity.Task) *entity.Task {
	c := *t
	if t.WorkerID != nil {
		w := *t.WorkerID
		c.WorkerID = &w
	}
	if t.Escrow.TransactionRef != nil {
		ref := *t.Escrow.TransactionRef
		c.Escrow.TransactionRef = &ref
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.Reviews = slices.Clone(t.Reviews)
	if c.Reviews == nil {
		c.Reviews = []entity.Review{}
	}
	c.Client, c.Worker = nil, nil
	return &c
}

type memUsers struct {
	s   *MemStore
	log *undoLog
}

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return entity.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}
	if u.Availability == "" {
		u.Availability = entity.DefaultAvailability
	}
	u.CreatedAt = r.s.next()
	u.UpdatedAt = u.CreatedAt
	r.log.user(r.s, u.ID)
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return r.GetByID(ctx, id)
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r memUsers) List(_ context.Context) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memUsers) UpdateProfile(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return entity.ErrNotFound
	}
	u.UpdatedAt = r.s.next()
	next := cloneUser(cur)
	next.Name, next.Phone, next.Bio = u.Name, u.Phone, u.Bio
	next.Skills, next.Availability = slices.Clone(u.Skills), u.Availability
	next.Location, next.AvatarURL = u.Location, u.AvatarURL
	next.UpdatedAt = u.UpdatedAt
	r.log.user(r.s, u.ID)
	r.s.users[u.ID] = cloneUser(next)
	return nil
}

func (r memUsers) UpdateReputation(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailReputation != nil {
		return r.s.FailReputation
	}
	cur, ok := r.s.users[u.ID]
	if !ok {
		return entity.ErrNotFound
	}
	u.UpdatedAt = r.s.next()
	next := cloneUser(cur)
	next.IsVerified, next.Badges = u.IsVerified, slices.Clone(u.Badges)
	next.CompletedTasks, next.ReliabilityScore = u.CompletedTasks, u.ReliabilityScore
	next.UpdatedAt = u.UpdatedAt
	r.log.user(r.s, u.ID)
	r.s.users[u.ID] = next
	return nil
}

func (r memUsers) MarkVerified(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[id]
	if !ok {
		return entity.ErrNotFound
	}
	r.log.user(r.s, id)
	next := cloneUser(cur)
	next.IsVerified = true
	next.AddBadge(entity.BadgeVerified)
	next.UpdatedAt = r.s.next()
	r.s.users[id] = next
	return nil
}

type memTasks struct {
	s   *MemStore
	log *undoLog
}

func (r memTasks) party(id string) *entity.Party {
	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	return &entity.Party{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// view must be called with mu held.
func (r memTasks) view(t *entity.Task) entity.Task {
	c := cloneTask(t)
	c.Client = r.party(t.ClientID)
	if t.WorkerID != nil {
		c.Worker = r.party(*t.WorkerID)
	}
	return *c
}

func (r memTasks) Create(_ context.Context, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[t.ClientID]; !ok {
		return entity.ErrNotFound
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.s.next()
	t.UpdatedAt = t.CreatedAt
	r.log.task(r.s, t.ID)
	r.s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r memTasks) GetByID(_ context.Context, id string) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	v := r.view(t)
	return &v, nil
}

// cas applies mutate when pred holds on the stored task.
func (r memTasks) cas(id string, pred func(*entity.Task) bool, mutate func(*entity.Task)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !pred(t) {
		return false, nil
	}
	r.log.task(r.s, id)
	mutate(t)
	t.UpdatedAt = r.s.next()
	return true, nil
}

func (r memTasks) Accept(_ context.Context, id, workerID string) (bool, error) {
	return r.cas(id,
		func(t *entity.Task) bool { return t.Status == entity.StatusOpen },
		func(t *entity.Task) {
			w := workerID
			t.WorkerID = &w
			t.Status = entity.StatusAssigned
		})
}

func (r memTasks) Deposit(_ context.Context, id string, amount float64, ref string) (bool, error) {
	return r.cas(id,
		func(t *entity.Task) bool { return t.Status == entity.StatusAssigned && !t.Escrow.Deposited },
		func(t *entity.Task) {
			t.Escrow = entity.Escrow{Deposited: true, Amount: amount, TransactionRef: &ref}
		})
}

func (r memTasks) Start(_ context.Context, id string) (bool, error) {
	return r.cas(id,
		func(t *entity.Task) bool { return t.Status == entity.StatusAssigned && t.Escrow.Deposited },
		func(t *entity.Task) { t.Status = entity.StatusInProgress })
}

func (r memTasks) Complete(_ context.Context, id, workerID string, at time.Time) (bool, error) {
	return r.cas(id,
		func(t *entity.Task) bool { return t.Status == entity.StatusInProgress && t.IsWorker(workerID) },
		func(t *entity.Task) {
			t.Status = entity.StatusCompleted
			t.CompletedAt = &at
		})
}

func (r memTasks) AddReview(_ context.Context, taskID string, rv *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[taskID]
	if !ok {
		return entity.ErrNotFound
	}
	r.log.task(r.s, taskID)
	rv.ID = uuid.NewString()
	rv.CreatedAt = r.s.next()
	t.Reviews = append(t.Reviews, *rv)
	return nil
}

func (r memTasks) WorkerRatings(_ context.Context, workerID string) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []int
	for _, t := range r.s.tasks {
		if t.Status != entity.StatusCompleted || !t.IsWorker(workerID) {
			continue
		}
		for _, rv := range t.Reviews {
			out = append(out, rv.Rating)
		}
	}
	return out, nil
}

func (r memTasks) filter(keep func(*entity.Task) bool) []entity.Task {
	out := []entity.Task{}
	for _, t := range r.s.tasks {
		if keep(t) {
			out = append(out, r.view(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memTasks) ListByClient(_ context.Context, clientID string) ([]entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(t *entity.Task) bool { return t.ClientID == clientID }), nil
}

func (r memTasks) ListForWorker(_ context.Context, workerID string) ([]entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(t *entity.Task) bool { return t.IsWorker(workerID) || t.Status == entity.StatusOpen }), nil
}

func (r memTasks) ListAvailable(_ context.Context, q repository.AvailableQuery) ([]entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dist := func(t *entity.Task) float64 {
		return HaversineKm(q.Latitude, q.Longitude, t.Location.Point.Latitude, t.Location.Point.Longitude)
	}
	out := r.filter(func(t *entity.Task) bool {
		return t.Status == entity.StatusOpen && (t.Location.IsRemote || dist(t) <= q.RadiusKm)
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Location.IsRemote != b.Location.IsRemote {
			return !a.Location.IsRemote
		}
		if a.Location.IsRemote {
			return false
		}
		return dist(&a) < dist(&b)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r memTasks) ListByStatus(_ context.Context, status entity.TaskStatus) ([]entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(t *entity.Task) bool { return t.Status == status }), nil
}

func (r memTasks) ListAll(_ context.Context) ([]entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(*entity.Task) bool { return true }), nil
}

// HaversineKm is the great-circle distance used by the SQL query.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat, dLng := rad(lat2-lat1), rad(lng2-lng1)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusKm * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

var (
	_ repository.Store          = (*MemStore)(nil)
	_ repository.UserRepository = memUsers{}
	_ repository.TaskRepository = memTasks{}
)
