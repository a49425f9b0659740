package handlers

import (
	"time"

	"github.com/oksasatya/tasko/internal/domain/entity"
)

type LocationView struct {
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
	Address     string     `json:"address"`
}

type UserView struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Phone            string        `json:"phone"`
	Role             entity.Role   `json:"role"`
	Skills           []string      `json:"skills"`
	Availability     string        `json:"availability"`
	Bio              string        `json:"bio"`
	IsVerified       bool          `json:"isVerified"`
	Badges           []string      `json:"badges"`
	ReliabilityScore float64       `json:"reliabilityScore"`
	CompletedTasks   int           `json:"completedTasks"`
	Location         *LocationView `json:"location,omitempty"`
	AvatarURL        string        `json:"avatarUrl,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func NewUserView(u *entity.User) UserView {
	v := UserView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             u.Role,
		Skills:           nonNil(u.Skills),
		Availability:     u.Availability,
		Bio:              u.Bio,
		IsVerified:       u.IsVerified,
		Badges:           nonNil(u.Badges),
		ReliabilityScore: u.ReliabilityScore,
		CompletedTasks:   u.CompletedTasks,
		AvatarURL:        u.AvatarURL,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if u.Location != nil {
		v.Location = &LocationView{
			Coordinates: [2]float64{u.Location.Longitude, u.Location.Latitude},
			Address:     u.Location.Address,
		}
	}
	return v
}

func NewUserViews(users []entity.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out
}

type TaskLocationView struct {
	IsRemote bool `json:"isRemote"`
	LocationView
}

type EscrowView struct {
	Deposited      bool    `json:"deposited"`
	Amount         float64 `json:"amount"`
	TransactionRef *string `json:"transactionRef"`
}

type ReviewView struct {
	ID        string    `json:"id"`
	Reviewer  string    `json:"reviewer"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type TaskView struct {
	ID          string            `json:"id"`
	ClientID    string            `json:"clientId"`
	WorkerID    *string           `json:"workerId"`
	Client      *entity.Party     `json:"client,omitempty"`
	Worker      *entity.Party     `json:"worker,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    entity.Category   `json:"category"`
	Price       float64           `json:"price"`
	Deadline    time.Time         `json:"deadline"`
	Location    TaskLocationView  `json:"location"`
	Status      entity.TaskStatus `json:"status"`
	Escrow      EscrowView        `json:"escrow"`
	CompletedAt *time.Time        `json:"completedAt"`
	Reviews     []ReviewView      `json:"reviews"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func NewTaskView(t *entity.Task) TaskView {
	reviews := make([]ReviewView, 0, len(t.Reviews))
	for _, r := range t.Reviews {
		reviews = append(reviews, ReviewView{ID: r.ID, Reviewer: r.ReviewerID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt})
	}
	p := t.Location.Point
	return TaskView{
		ID:          t.ID,
		ClientID:    t.ClientID,
		WorkerID:    t.WorkerID,
		Client:      t.Client,
		Worker:      t.Worker,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Price:       t.Price,
		Deadline:    t.Deadline,
		Location: TaskLocationView{
			IsRemote:     t.Location.IsRemote,
			LocationView: LocationView{Coordinates: [2]float64{p.Longitude, p.Latitude}, Address: p.Address},
		},
		Status:      t.Status,
		Escrow:      EscrowView{Deposited: t.Escrow.Deposited, Amount: t.Escrow.Amount, TransactionRef: t.Escrow.TransactionRef},
		CompletedAt: t.CompletedAt,
		Reviews:     reviews,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTaskViews(tasks []entity.Task) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskView(&tasks[i]))
	}
	return out
}
