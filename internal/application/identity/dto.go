package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/localcooks/backend/internal/domain/identity"
)

// RegisterInput contains the input for self-serve registration
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string // CHEF, MANAGER or PARTNER
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult contains tokens and the user profile after login or registration
type AuthResult struct {
	AccessToken           string      `json:"access_token"`
	RefreshToken          string      `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time   `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time   `json:"refresh_token_expires_at"`
	TokenType             string      `json:"token_type"`
	User                  UserProfile `json:"user"`
}

// UserProfile contains user information exposed to the API
type UserProfile struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LogoutInput contains the input for user logout.
// The JTI and TTL come from the access token presented with the request.
type LogoutInput struct {
	UserID         uuid.UUID
	AccessTokenJTI string
	AccessTokenTTL time.Duration
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// UpdateProfileInput contains the input for profile updates
type UpdateProfileInput struct {
	UserID    uuid.UUID
	FirstName *string
	LastName  *string
	Phone     *string
}

// SuspendUserInput contains the input for an admin suspension
type SuspendUserInput struct {
	UserID  uuid.UUID
	ActorID uuid.UUID // Admin performing the suspension
	Reason  string
}

// UserListResult represents a paginated user list
type UserListResult struct {
	Users      []UserProfile `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// toUserProfile converts a domain user to its API profile
func toUserProfile(user *identity.User) UserProfile {
	return UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		Phone:       user.Phone,
		Role:        user.Role.String(),
		Status:      user.Status.String(),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
