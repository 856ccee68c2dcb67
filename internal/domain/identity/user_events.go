package identity

import (
	"time"

	"github.com/localcooks/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserSuspended       = "UserSuspended"
	EventTypeUserReactivated     = "UserReactivated"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserRoleChanged     = "UserRoleChanged"
)

// UserRegisteredEvent is published when a user account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Role:            user.Role,
	}
}

// UserSuspendedEvent is published when an admin suspends an account
type UserSuspendedEvent struct {
	shared.BaseDomainEvent
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// NewUserSuspendedEvent creates a new UserSuspendedEvent
func NewUserSuspendedEvent(user *User, reason string) *UserSuspendedEvent {
	return &UserSuspendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserSuspended, AggregateTypeUser, user.ID),
		Email:           user.Email,
		Reason:          reason,
	}
}

// UserReactivatedEvent is published when a suspended account is restored
type UserReactivatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewUserReactivatedEvent creates a new UserReactivatedEvent
func NewUserReactivatedEvent(user *User) *UserReactivatedEvent {
	return &UserReactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserReactivated, AggregateTypeUser, user.ID),
		Email:           user.Email,
	}
}

// UserPasswordChangedEvent is published when a user's password is changed
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID),
		Email:           user.Email,
		ChangedAt:       user.UpdatedAt,
	}
}

// UserRoleChangedEvent is published when an admin changes a user's role
type UserRoleChangedEvent struct {
	shared.BaseDomainEvent
	Email   string `json:"email"`
	OldRole Role   `json:"old_role"`
	NewRole Role   `json:"new_role"`
}

// NewUserRoleChangedEvent creates a new UserRoleChangedEvent
func NewUserRoleChangedEvent(user *User, oldRole, newRole Role) *UserRoleChangedEvent {
	return &UserRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRoleChanged, AggregateTypeUser, user.ID),
		Email:           user.Email,
		OldRole:         oldRole,
		NewRole:         newRole,
	}
}
