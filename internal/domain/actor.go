package domain

// Role is the platform role an authenticated actor holds.
type Role string

const (
	RoleTenant  Role = "tenant"
	RoleOwner   Role = "owner"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	// RoleSystem is used for transitions triggered by the platform itself.
	RoleSystem Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleOwner, RoleStudent, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is the actor for platform-initiated transitions.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsPrivileged reports whether the actor is an administrator or the platform.
func (a Actor) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

func (a Actor) forbid(action string) *ForbiddenError {
	return &ForbiddenError{ActorID: a.ID, Action: action}
}
