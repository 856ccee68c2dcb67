package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/localcooks/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role determines what a user can do on the platform.
type Role string

const (
	RoleChef    Role = "CHEF"    // Books kitchen space, files applications
	RoleManager Role = "MANAGER" // Owns locations, decides bookings, files claims
	RolePartner Role = "PARTNER" // Delivery partner, reads the booking feed
	RoleAdmin   Role = "ADMIN"   // Platform operator
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleChef, RoleManager, RolePartner, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// SelfServe reports whether the role can be chosen at registration.
// Admin accounts are seeded or promoted, never self-registered.
func (r Role) SelfServe() bool {
	return r == RoleChef || r == RoleManager || r == RolePartner
}

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// IsValid checks if the status is valid
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusSuspended
}

// String returns the string representation of the status
func (s UserStatus) String() string {
	return string(s)
}

// User represents a platform account.
// It is the aggregate root for identity operations; email is the login key.
type User struct {
	shared.BaseAggregateRoot
	Email        string     `gorm:"uniqueIndex;size:200;not null"`
	PasswordHash string     `gorm:"size:100;not null"`
	FirstName    string     `gorm:"size:100;not null"`
	LastName     string     `gorm:"size:100;not null"`
	Phone        string     `gorm:"size:50"`
	Role         Role       `gorm:"size:20;not null;index"`
	Status       UserStatus `gorm:"size:20;not null;default:'ACTIVE'"`

	// Payment identity, set lazily the first time the user pays.
	StripeCustomerID       string `gorm:"size:100;index"`
	DefaultPaymentMethodID string `gorm:"size:100"`

	// Tokens issued before this instant are rejected by the auth
	// middleware. Set on logout and on password change.
	TokensInvalidatedAt *time.Time

	LastLoginAt *time.Time
}

// NewUser creates a new user with required fields
func NewUser(email, password, firstName, lastName string, role Role) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateName(firstName, "First name"); err != nil {
		return nil, err
	}
	if err := validateName(lastName, "Last name"); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be one of CHEF, MANAGER, PARTNER, ADMIN")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      passwordHash,
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		Role:              role,
		Status:            UserStatusActive,
	}

	user.AddDomainEvent(NewUserRegisteredEvent(user))

	return user, nil
}

// SetPhone sets the user's phone number
func (u *User) SetPhone(phone string) error {
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	u.Phone = strings.TrimSpace(phone)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// SetName updates the user's first and last name
func (u *User) SetName(firstName, lastName string) error {
	if err := validateName(firstName, "First name"); err != nil {
		return err
	}
	if err := validateName(lastName, "Last name"); err != nil {
		return err
	}

	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// ChangePassword changes the user's password after verifying the current one.
// All previously issued tokens are invalidated.
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}

	return u.SetPassword(newPassword)
}

// SetPassword sets a new password (admin reset, no old password check)
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	now := time.Now()
	u.TokensInvalidatedAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()

	u.AddDomainEvent(NewUserPasswordChangedEvent(u))

	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// InvalidateTokens revokes every token issued before now. Used on logout.
func (u *User) InvalidateTokens() {
	now := time.Now()
	u.TokensInvalidatedAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()
}

// TokenIssuedAtValid reports whether a token issued at the given time is
// still acceptable for this user.
func (u *User) TokenIssuedAtValid(issuedAt time.Time) bool {
	if u.TokensInvalidatedAt == nil {
		return true
	}
	return !issuedAt.Before(*u.TokensInvalidatedAt)
}

// PromoteRole changes the user's role. Only the application layer's admin
// paths call this; self-serve role changes are not offered.
func (u *User) PromoteRole(newRole Role) error {
	if !newRole.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be one of CHEF, MANAGER, PARTNER, ADMIN")
	}
	if u.Role == newRole {
		return shared.NewDomainError("ROLE_UNCHANGED", "User already has this role")
	}

	oldRole := u.Role
	u.Role = newRole
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserRoleChangedEvent(u, oldRole, newRole))

	return nil
}

// Suspend suspends the user account. Suspended users cannot authenticate
// and their in-flight tokens are invalidated.
func (u *User) Suspend(reason string) error {
	if u.Status == UserStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "User is already suspended")
	}

	u.Status = UserStatusSuspended
	now := time.Now()
	u.TokensInvalidatedAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()

	u.AddDomainEvent(NewUserSuspendedEvent(u, reason))

	return nil
}

// Reactivate restores a suspended account
func (u *User) Reactivate() error {
	if u.Status != UserStatusSuspended {
		return shared.NewDomainError("NOT_SUSPENDED", "User is not suspended")
	}

	u.Status = UserStatusActive
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserReactivatedEvent(u))

	return nil
}

// AttachStripeCustomer records the gateway customer created for this user.
// The ID is written once; later calls with a different ID are rejected.
func (u *User) AttachStripeCustomer(customerID string) error {
	if customerID == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_ID", "Customer ID cannot be empty")
	}
	if u.StripeCustomerID != "" && u.StripeCustomerID != customerID {
		return shared.NewDomainError("CUSTOMER_ALREADY_ATTACHED", "User already has a different payment customer")
	}

	u.StripeCustomerID = customerID
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// SetDefaultPaymentMethod records the card used for off-session charges
func (u *User) SetDefaultPaymentMethod(paymentMethodID string) {
	u.DefaultPaymentMethodID = paymentMethodID
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// RecordLogin records a successful authentication
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()
}

// IsActive returns true if the account is active
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsSuspended returns true if the account is suspended
func (u *User) IsSuspended() bool {
	return u.Status == UserStatusSuspended
}

// CanAuthenticate returns true if the user may obtain or use tokens
func (u *User) CanAuthenticate() bool {
	return u.Status == UserStatusActive
}

// IsAdmin returns true for platform operator accounts
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validation functions

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return "", shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return "", shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}

	return nil
}

func validateName(name, label string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", label+" cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", label+" cannot exceed 100 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
