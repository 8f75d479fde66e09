package shared

import "github.com/google/uuid"

// Role identifies the kind of user performing a request.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleBusinessOwner Role = "business_owner"
	RoleWorker        Role = "worker"
	RoleClient        Role = "client"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleBusinessOwner, RoleWorker, RoleClient:
		return true
	}
	return false
}

// Actor is the explicit identity passed into every service call. Authorization
// decisions are made from this value, never from ambient request state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
