package identity

import "github.com/google/uuid"

// Actor identifies the authenticated principal an operation runs as.
// Application services use it for ownership and admin-override checks;
// handlers build it from the verified token claims.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin returns true for platform administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Is returns true when the actor is the given user
func (a Actor) Is(userID uuid.UUID) bool {
	return a.ID == userID
}
