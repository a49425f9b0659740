package entity

import (
	"slices"
	"time"
)

const (
	BadgeVerified = "verified"
	Badge50Tasks  = "50-tasks"

	// FiftyTasksThreshold is the completed-task count that earns Badge50Tasks.
	FiftyTasksThreshold = 50

	DefaultAvailability = "anytime"
)

// GeoPoint is a WGS84 coordinate with a human readable address.
type GeoPoint struct {
	Longitude float64
	Latitude  float64
	Address   string
}

// User is the aggregate root for marketplace members.
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID       string
	Name     string
	Email    string
	Password string
	Phone    string
	Role     Role

	// worker profile
	Skills       []string
	Availability string
	Bio          string

	IsVerified       bool
	Badges           []string
	ReliabilityScore float64
	CompletedTasks   int

	Location  *GeoPoint
	AvatarURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) HasBadge(b string) bool {
	return slices.Contains(u.Badges, b)
}

// AddBadge appends b unless already present. Reports whether it was added.
func (u *User) AddBadge(b string) bool {
	if u.HasBadge(b) {
		return false
	}
	u.Badges = append(u.Badges, b)
	return true
}

// Party is the public summary of a user embedded in task views.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
