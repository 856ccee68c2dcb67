package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/infrastructure/auth"
)

// UserAdminService handles platform-admin user management
type UserAdminService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewUserAdminService creates a new user admin service
func NewUserAdminService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *UserAdminService {
	return &UserAdminService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// List returns a page of users matching the filter
func (s *UserAdminService) List(ctx context.Context, filter identity.UserFilter) (*UserListResult, error) {
	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	profiles := make([]UserProfile, len(users))
	for i, user := range users {
		profiles[i] = toUserProfile(user)
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return &UserListResult{
		Users:      profiles,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByID returns a single user by ID
func (s *UserAdminService) GetByID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	profile := toUserProfile(user)
	return &profile, nil
}

// Suspend blocks a user from authenticating and revokes their tokens
func (s *UserAdminService) Suspend(ctx context.Context, input SuspendUserInput) (*UserProfile, error) {
	if input.ActorID == input.UserID {
		return nil, shared.NewDomainError("CANNOT_SUSPEND_SELF", "Administrators cannot suspend their own account")
	}

	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.Suspend(input.Reason); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to suspend user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to suspend user")
	}

	// Suspension takes effect immediately for live access tokens too
	if err := s.blacklist.RevokeUserTokens(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke tokens for suspended user", zap.Error(err))
	}

	s.logger.Info("User suspended",
		zap.String("user_id", user.ID.String()),
		zap.String("actor_id", input.ActorID.String()),
		zap.String("reason", input.Reason))

	profile := toUserProfile(user)
	return &profile, nil
}

// Reactivate restores a suspended user
func (s *UserAdminService) Reactivate(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.Reactivate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to reactivate user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to reactivate user")
	}

	s.logger.Info("User reactivated", zap.String("user_id", user.ID.String()))

	profile := toUserProfile(user)
	return &profile, nil
}

// Count returns the number of users matching the filter
func (s *UserAdminService) Count(ctx context.Context, filter identity.UserFilter) (int64, error) {
	count, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count users", zap.Error(err))
		return 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to count users")
	}
	return count, nil
}
