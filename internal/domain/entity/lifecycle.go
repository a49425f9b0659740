package entity

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5

	DefaultCommissionRate = 0.1
)

// NewTaskInput carries the client-supplied fields of a task.
// Coordinates are pointers so a missing value can be told apart from zero.
type NewTaskInput struct {
	Title       string
	Description string
	Category    Category
	Price       float64
	Deadline    time.Time
	IsRemote    bool
	Longitude   *float64
	Latitude    *float64
	Address     string
}

// NewTask validates in and builds an open task owned by actor.
func NewTask(actor Actor, in NewTaskInput) (*Task, error) {
	if actor.Role != RoleClient {
		return nil, fmt.Errorf("%w: only clients can post tasks", ErrForbidden)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return nil, fmt.Errorf("%w: price must be a non-negative amount", ErrValidation)
	}
	if in.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", ErrValidation)
	}

	loc := TaskLocation{IsRemote: true, Point: GeoPoint{Address: RemoteAddress}}
	if !in.IsRemote {
		if in.Longitude == nil || in.Latitude == nil {
			return nil, fmt.Errorf("%w: location coordinates are required for on-site tasks", ErrValidation)
		}
		if err := ValidateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return nil, err
		}
		addr := strings.TrimSpace(in.Address)
		if addr == "" {
			return nil, fmt.Errorf("%w: location address is required for on-site tasks", ErrValidation)
		}
		loc = TaskLocation{Point: GeoPoint{Longitude: *in.Longitude, Latitude: *in.Latitude, Address: addr}}
	}

	return &Task{
		ClientID:    actor.ID,
		Title:       title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Deadline:    in.Deadline,
		Location:    loc,
		Status:      StatusOpen,
	}, nil
}

func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrValidation)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrValidation)
	}
	return nil
}

func CheckAccept(actor Actor) error {
	if actor.Role != RoleWorker {
		return fmt.Errorf("%w: only workers can accept tasks", ErrForbidden)
	}
	return nil
}

// CheckDeposit guards escrow deposit. A caller that does not own the task
// sees it as missing.
func CheckDeposit(actor Actor, t *Task) error {
	if actor.Role != RoleClient || !t.IsClient(actor.ID) {
		return fmt.Errorf("%w: task not found", ErrNotFound)
	}
	if t.Escrow.Deposited {
		return ErrAlreadyDeposited
	}
	if t.Status != StatusAssigned {
		return fmt.Errorf("%w: escrow can only be deposited on an assigned task", ErrInvalidTransition)
	}
	return nil
}

func CheckStart(actor Actor, t *Task) error {
	if !t.IsClient(actor.ID) && !t.IsWorker(actor.ID) {
		return fmt.Errorf("%w: not a party to this task", ErrForbidden)
	}
	if t.Status != StatusAssigned || !t.Escrow.Deposited {
		return fmt.Errorf("%w: cannot start task", ErrInvalidTransition)
	}
	return nil
}

func CheckComplete(actor Actor, t *Task) error {
	if actor.Role != RoleWorker || !t.IsWorker(actor.ID) {
		return fmt.Errorf("%w: task not found", ErrNotFound)
	}
	if t.Status != StatusInProgress {
		return fmt.Errorf("%w: task not in progress", ErrInvalidTransition)
	}
	return nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	return nil
}

func CheckReview(actor Actor, t *Task) error {
	if actor.Role != RoleClient || !t.IsClient(actor.ID) || t.Status != StatusCompleted {
		return fmt.Errorf("%w: task not found or not completed", ErrNotFound)
	}
	return nil
}

// RecordCompletion bumps the worker counter and grants the milestone badge.
// Reports whether the badge was newly granted.
func RecordCompletion(u *User) bool {
	u.CompletedTasks++
	if u.CompletedTasks >= FiftyTasksThreshold {
		return u.AddBadge(Badge50Tasks)
	}
	return false
}

// RecomputeReliability is the mean of every rating, or 0 without ratings.
func RecomputeReliability(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	score := float64(sum) / float64(len(ratings))
	return math.Max(0, math.Min(MaxRating, score))
}

// Settle splits price into platform commission and worker payout, in cents.
func Settle(price, rate float64) (commission, payout float64) {
	commission = roundCents(price * rate)
	payout = roundCents(price - commission)
	return commission, payout
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
