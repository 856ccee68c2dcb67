package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/localcooks/backend/internal/application/identity"
	"github.com/localcooks/backend/internal/domain/identity"
)

// UserHandler handles admin user management endpoints
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserAdminService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserAdminService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UserListFilter represents user list query parameters
// @Description Query parameters for listing users
type UserListFilter struct {
	Keyword  string `form:"keyword"`
	Role     string `form:"role" binding:"omitempty,oneof=CHEF MANAGER PARTNER ADMIN"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE SUSPENDED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SuspendUserRequest represents a suspension request
// @Description Request body for suspending a user
type SuspendUserRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Repeated no-shows"`
}

// List godoc
// @Summary      List users
// @Description  Retrieve a paginated user list with optional filtering
// @Tags         users
// @Produce      json
// @Param        keyword query string false "Search by email or name"
// @Param        role query string false "Filter by role" Enums(CHEF, MANAGER, PARTNER, ADMIN)
// @Param        status query string false "Filter by status" Enums(ACTIVE, SUSPENDED)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]identityapp.UserProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var req UserListFilter
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := identity.UserFilter{
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Role != "" {
		role := identity.Role(req.Role)
		filter.Role = &role
	}
	if req.Status != "" {
		status := identity.UserStatus(req.Status)
		filter.Status = &status
	}

	result, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Users, result.Total, result.Page, result.PageSize)
}

// GetByID godoc
// @Summary      Get user by ID
// @Description  Retrieve a user profile by ID
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.UserProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	profile, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, profile)
}

// Suspend godoc
// @Summary      Suspend a user
// @Description  Suspend a user account; suspended users cannot log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body SuspendUserRequest true "Suspension reason"
// @Success      200 {object} dto.Response{data=identityapp.UserProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/suspend [post]
func (h *UserHandler) Suspend(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req SuspendUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	profile, err := h.userService.Suspend(c.Request.Context(), identityapp.SuspendUserInput{
		UserID:  userID,
		ActorID: actorID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, profile)
}

// Reactivate godoc
// @Summary      Reactivate a user
// @Description  Lift a suspension and restore account access
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.UserProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/reactivate [post]
func (h *UserHandler) Reactivate(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	profile, err := h.userService.Reactivate(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, profile)
}
