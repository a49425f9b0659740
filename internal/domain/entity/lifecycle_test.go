package entity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var (
	client = Actor{ID: "client-1", Role: RoleClient}
	worker = Actor{ID: "worker-1", Role: RoleWorker}
)

func onsiteInput() NewTaskInput {
	return NewTaskInput{
		Title:       "  Deliver groceries ",
		Description: "Two bags from the market",
		Category:    CategoryDelivery,
		Price:       500,
		Deadline:    time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC),
		Longitude:   ptr(36.8219),
		Latitude:    ptr(-1.2921),
		Address:     "Moi Avenue, Nairobi",
	}
}

func TestNewTask_OnSite(t *testing.T) {
	task, err := NewTask(client, onsiteInput())

	require.NoError(t, err)
	assert.Equal(t, "Deliver groceries", task.Title)
	assert.Equal(t, StatusOpen, task.Status)
	assert.Equal(t, "client-1", task.ClientID)
	assert.Nil(t, task.WorkerID)
	assert.False(t, task.Escrow.Deposited)
	assert.Zero(t, task.Escrow.Amount)
	assert.False(t, task.Location.IsRemote)
	assert.Equal(t, "Moi Avenue, Nairobi", task.Location.Point.Address)
}

func TestNewTask_Remote(t *testing.T) {
	in := onsiteInput()
	in.IsRemote = true
	in.Longitude, in.Latitude, in.Address = nil, nil, ""

	task, err := NewTask(client, in)

	require.NoError(t, err)
	assert.True(t, task.Location.IsRemote)
	assert.Equal(t, RemoteAddress, task.Location.Point.Address)
	assert.Zero(t, task.Location.Point.Latitude)
}

func TestNewTask_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		mutate func(*NewTaskInput)
		want   error
	}{
		{"worker cannot post", worker, func(*NewTaskInput) {}, ErrForbidden},
		{"negative price", client, func(in *NewTaskInput) { in.Price = -1 }, ErrValidation},
		{"unknown category", client, func(in *NewTaskInput) { in.Category = "gardening" }, ErrValidation},
		{"missing title", client, func(in *NewTaskInput) { in.Title = "   " }, ErrValidation},
		{"missing description", client, func(in *NewTaskInput) { in.Description = "" }, ErrValidation},
		{"missing deadline", client, func(in *NewTaskInput) { in.Deadline = time.Time{} }, ErrValidation},
		{"missing coordinates", client, func(in *NewTaskInput) { in.Latitude = nil }, ErrValidation},
		{"missing address", client, func(in *NewTaskInput) { in.Address = "" }, ErrValidation},
		{"latitude out of range", client, func(in *NewTaskInput) { in.Latitude = ptr(91.0) }, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := onsiteInput()
			tt.mutate(&in)
			_, err := NewTask(tt.actor, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewTask_ZeroPriceAllowed(t *testing.T) {
	in := onsiteInput()
	in.Price = 0
	_, err := NewTask(client, in)
	assert.NoError(t, err)
}

func TestTaskStatus_CanMoveTo(t *testing.T) {
	assert.True(t, StatusOpen.CanMoveTo(StatusAssigned))
	assert.True(t, StatusAssigned.CanMoveTo(StatusInProgress))
	assert.True(t, StatusInProgress.CanMoveTo(StatusCompleted))
	assert.True(t, StatusAssigned.CanMoveTo(StatusCancelled))

	assert.False(t, StatusOpen.CanMoveTo(StatusInProgress))
	assert.False(t, StatusAssigned.CanMoveTo(StatusOpen))
	assert.False(t, StatusCompleted.CanMoveTo(StatusInProgress))
	assert.False(t, StatusCompleted.CanMoveTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanMoveTo(StatusOpen))
}

func assignedTask() *Task {
	return &Task{ID: "t1", ClientID: client.ID, WorkerID: ptr(worker.ID), Status: StatusAssigned, Price: 500}
}

func TestCheckDeposit(t *testing.T) {
	task := assignedTask()
	assert.NoError(t, CheckDeposit(client, task))

	assert.ErrorIs(t, CheckDeposit(Actor{ID: "someone", Role: RoleClient}, task), ErrNotFound)
	assert.ErrorIs(t, CheckDeposit(worker, task), ErrNotFound)

	task.Escrow.Deposited = true
	assert.ErrorIs(t, CheckDeposit(client, task), ErrAlreadyDeposited)

	open := &Task{ClientID: client.ID, Status: StatusOpen}
	assert.ErrorIs(t, CheckDeposit(client, open), ErrInvalidTransition)
}

func TestCheckStart(t *testing.T) {
	task := assignedTask()
	assert.ErrorIs(t, CheckStart(client, task), ErrInvalidTransition, "start before deposit")

	task.Escrow.Deposited = true
	assert.NoError(t, CheckStart(client, task))
	assert.NoError(t, CheckStart(worker, task))
	assert.ErrorIs(t, CheckStart(Actor{ID: "stranger", Role: RoleWorker}, task), ErrForbidden)

	task.Status = StatusInProgress
	assert.ErrorIs(t, CheckStart(worker, task), ErrInvalidTransition)
}

func TestCheckComplete(t *testing.T) {
	task := assignedTask()
	task.Status = StatusInProgress
	assert.NoError(t, CheckComplete(worker, task))
	assert.ErrorIs(t, CheckComplete(Actor{ID: "other", Role: RoleWorker}, task), ErrNotFound)
	assert.ErrorIs(t, CheckComplete(client, task), ErrNotFound)

	task.Status = StatusAssigned
	assert.ErrorIs(t, CheckComplete(worker, task), ErrInvalidTransition)
}

func TestCheckReview(t *testing.T) {
	task := assignedTask()
	assert.ErrorIs(t, CheckReview(client, task), ErrNotFound, "review before completion")

	task.Status = StatusCompleted
	assert.NoError(t, CheckReview(client, task))
	assert.ErrorIs(t, CheckReview(Actor{ID: "other", Role: RoleClient}, task), ErrNotFound)
}

func TestValidateRating(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		assert.NoError(t, ValidateRating(r))
	}
	assert.ErrorIs(t, ValidateRating(0), ErrValidation)
	assert.ErrorIs(t, ValidateRating(6), ErrValidation)
}

func TestRecordCompletion_BadgeAtFifty(t *testing.T) {
	u := &User{CompletedTasks: 48}

	assert.False(t, RecordCompletion(u))
	assert.Equal(t, 49, u.CompletedTasks)
	assert.False(t, u.HasBadge(Badge50Tasks))

	assert.True(t, RecordCompletion(u))
	assert.Equal(t, 50, u.CompletedTasks)
	assert.True(t, u.HasBadge(Badge50Tasks))

	assert.False(t, RecordCompletion(u), "badge is granted once")
	assert.Equal(t, []string{Badge50Tasks}, u.Badges)
}

func TestRecordCompletion_RepairsMissingBadge(t *testing.T) {
	u := &User{CompletedTasks: 70, Badges: []string{BadgeVerified}}
	assert.True(t, RecordCompletion(u))
	assert.Equal(t, []string{BadgeVerified, Badge50Tasks}, u.Badges)
}

func TestRecomputeReliability(t *testing.T) {
	tests := []struct {
		ratings []int
		want    float64
	}{
		{nil, 0},
		{[]int{5, 3, 4}, 4.0},
		{[]int{5}, 5.0},
		{[]int{1, 2}, 1.5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.ratings), func(t *testing.T) {
			assert.InDelta(t, tt.want, RecomputeReliability(tt.ratings), 1e-9)
		})
	}
}

func TestSettle(t *testing.T) {
	commission, payout := Settle(1000, DefaultCommissionRate)
	assert.Equal(t, 100.0, commission)
	assert.Equal(t, 900.0, payout)

	commission, payout = Settle(333.33, DefaultCommissionRate)
	assert.Equal(t, 33.33, commission)
	assert.Equal(t, 300.0, payout)
}
