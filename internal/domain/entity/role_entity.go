package entity

// Role is the marketplace role carried in access tokens.
type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
	// RoleAdmin is never self-assigned; see cmd/seed.
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// Actor is the caller identity resolved by the auth middleware.
type Actor struct {
	ID   string
	Role Role
}
