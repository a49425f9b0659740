package entity

import "time"

type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// rank orders the forward path; cancelled sits outside it.
func (s TaskStatus) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusAssigned:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	}
	return -1
}

// CanMoveTo reports whether next is a legal successor of s.
func (s TaskStatus) CanMoveTo(next TaskStatus) bool {
	if next == StatusCancelled {
		return s != StatusCompleted && s != StatusCancelled
	}
	cur, nxt := s.rank(), next.rank()
	return cur >= 0 && nxt == cur+1
}

// HasWorker reports whether a task in status s must carry a worker.
func (s TaskStatus) HasWorker() bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusCompleted
}

type Category string

const (
	CategoryDelivery    Category = "delivery"
	CategoryPickup      Category = "pickup"
	CategoryDataEntry   Category = "data-entry"
	CategoryLaundry     Category = "laundry"
	CategoryTutoring    Category = "tutoring"
	CategoryBabysitting Category = "babysitting"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryDelivery, CategoryPickup, CategoryDataEntry, CategoryLaundry,
	CategoryTutoring, CategoryBabysitting, CategoryOther,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// RemoteAddress is stored as the address of every remote task.
const RemoteAddress = "Remote"

// TaskLocation is either a physical point or the remote marker.
type TaskLocation struct {
	IsRemote bool
	Point    GeoPoint
}

type Escrow struct {
	Deposited      bool
	Amount         float64
	TransactionRef *string
}

type Review struct {
	ID         string
	ReviewerID string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

type Task struct {
	ID          string
	ClientID    string
	WorkerID    *string
	Title       string
	Description string
	Category    Category
	Price       float64
	Deadline    time.Time
	Location    TaskLocation
	Status      TaskStatus
	Escrow      Escrow
	CompletedAt *time.Time
	Reviews     []Review

	// populated by read queries only
	Client *Party
	Worker *Party

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Task) IsClient(userID string) bool {
	return userID != "" && t.ClientID == userID
}

func (t *Task) IsWorker(userID string) bool {
	return userID != "" && t.WorkerID != nil && *t.WorkerID == userID
}

// Payout is the mock settlement line shown to admins.
type Payout struct {
	TaskID string  `json:"taskId"`
	Worker string  `json:"worker"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}
