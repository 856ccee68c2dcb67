package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localcooks/backend/internal/application/kitchenapp"
	"github.com/localcooks/backend/internal/domain/identity"
)

// ApplicationHandler handles kitchen application endpoints
type ApplicationHandler struct {
	BaseHandler
	applicationService *kitchenapp.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(applicationService *kitchenapp.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// Apply godoc
// @Summary      Apply to a kitchen
// @Description  File an application to cook at a published location
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        request body kitchenapp.ApplyRequest true "Application data"
// @Success      201 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req kitchenapp.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	app, err := h.applicationService.Apply(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, app)
}

// List godoc
// @Summary      List own applications
// @Description  Retrieve the authenticated chef's applications
// @Tags         applications
// @Produce      json
// @Success      200 {object} dto.Response{data=[]kitchenapp.ApplicationResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	apps, err := h.applicationService.ListByChef(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, apps)
}

// GetByID godoc
// @Summary      Get application by ID
// @Description  Retrieve one of the chef's applications
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id} [get]
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	app, err := h.applicationService.GetForChef(c.Request.Context(), actor, applicationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, app)
}

// Withdraw godoc
// @Summary      Withdraw an application
// @Description  Withdraw an undecided application
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id}/withdraw [post]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	app, err := h.applicationService.Withdraw(c.Request.Context(), actor, applicationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, app)
}

// PresignDocument godoc
// @Summary      Presign a document upload
// @Description  Get a presigned upload URL for a requirement document
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Param        request body kitchenapp.PresignDocumentRequest true "Document metadata"
// @Success      200 {object} dto.Response{data=kitchenapp.PresignDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id}/documents/presign [post]
func (h *ApplicationHandler) PresignDocument(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	var req kitchenapp.PresignDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.applicationService.PresignDocument(c.Request.Context(), actor, applicationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ConfirmDocument godoc
// @Summary      Confirm a document upload
// @Description  Mark a presigned document as uploaded after the client PUT completes
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Param        document_id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=kitchenapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id}/documents/{document_id}/confirm [post]
func (h *ApplicationHandler) ConfirmDocument(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	documentID, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.applicationService.ConfirmDocument(c.Request.Context(), actor, applicationID, documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}

// ListForReview godoc
// @Summary      List applications for review
// @Description  Retrieve the application queue; managers see their own locations, admins see all
// @Tags         applications
// @Produce      json
// @Param        status query string false "Filter by status" Enums(SUBMITTED, IN_REVIEW, APPROVED, REJECTED, WITHDRAWN)
// @Param        location_id query string false "Filter by location" format(uuid)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]kitchenapp.ApplicationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/review [get]
func (h *ApplicationHandler) ListForReview(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req kitchenapp.ReviewListFilter
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var result *kitchenapp.ApplicationListResult
	if actor.Role == identity.RoleAdmin {
		result, err = h.applicationService.ListAll(c.Request.Context(), req)
	} else {
		result, err = h.applicationService.ListForManager(c.Request.Context(), actor, req)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Applications, result.Total, result.Page, result.PageSize)
}

// GetForReview godoc
// @Summary      Get an application for review
// @Description  Retrieve a single application from the review queue
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/review/{id} [get]
func (h *ApplicationHandler) GetForReview(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	app, err := h.applicationService.GetForReviewer(c.Request.Context(), actor, applicationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, app)
}

// StartReview godoc
// @Summary      Start reviewing an application
// @Description  Move a submitted application into review and claim it
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/review/{id}/start [post]
func (h *ApplicationHandler) StartReview(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	app, err := h.applicationService.StartReview(c.Request.Context(), actor, applicationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, app)
}

// Approve godoc
// @Summary      Approve an application
// @Description  Approve an application; the chef can then book the location
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/review/{id}/approve [post]
func (h *ApplicationHandler) Approve(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	app, err := h.applicationService.Approve(c.Request.Context(), actor, applicationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, app)
}

// Reject godoc
// @Summary      Reject an application
// @Description  Reject an application with a mandatory note
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Param        request body kitchenapp.RejectRequest true "Rejection note"
// @Success      200 {object} dto.Response{data=kitchenapp.ApplicationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/review/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	var req kitchenapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	app, err := h.applicationService.Reject(c.Request.Context(), actor, applicationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, app)
}
