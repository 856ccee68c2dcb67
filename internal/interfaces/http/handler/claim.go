package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	claimsapp "github.com/localcooks/backend/internal/application/claims"
	"github.com/localcooks/backend/internal/domain/identity"
)

// ClaimHandler handles damage claim endpoints
type ClaimHandler struct {
	BaseHandler
	claimService     *claimsapp.ClaimService
	statementService *claimsapp.StatementService
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(claimService *claimsapp.ClaimService, statementService *claimsapp.StatementService) *ClaimHandler {
	return &ClaimHandler{
		claimService:     claimService,
		statementService: statementService,
	}
}

// File godoc
// @Summary      File a damage claim
// @Description  File a claim against a completed booking within the claim window
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        request body claimsapp.FileClaimRequest true "Claim data"
// @Success      201 {object} dto.Response{data=claimsapp.ClaimResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims [post]
func (h *ClaimHandler) File(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req claimsapp.FileClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	claim, err := h.claimService.File(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, claim)
}

// GetByID godoc
// @Summary      Get claim by ID
// @Description  Retrieve a claim the caller is party to
// @Tags         claims
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Success      200 {object} dto.Response{data=claimsapp.ClaimResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims/{id} [get]
func (h *ClaimHandler) GetByID(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	var claim *claimsapp.ClaimResponse
	if actor.Role == identity.RoleChef {
		claim, err = h.claimService.GetForChef(c.Request.Context(), actor, claimID)
	} else {
		claim, err = h.claimService.GetForManager(c.Request.Context(), actor, claimID)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, claim)
}

// List godoc
// @Summary      List claims
// @Description  Retrieve claims; chefs see claims against them, managers their own, admins all
// @Tags         claims
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]claimsapp.ClaimResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims [get]
func (h *ClaimHandler) List(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter claimsapp.ClaimListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var result *claimsapp.ClaimListResult
	switch actor.Role {
	case identity.RoleChef:
		result, err = h.claimService.ListForChef(c.Request.Context(), actor, &filter)
	case identity.RoleAdmin:
		result, err = h.claimService.ListAll(c.Request.Context(), actor, &filter)
	default:
		result, err = h.claimService.ListForManager(c.Request.Context(), actor, &filter)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Claims, result.Total, result.Page, result.PageSize)
}

// Respond godoc
// @Summary      Respond to a claim
// @Description  Accept or dispute a claim as the accused chef
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Param        request body claimsapp.RespondClaimRequest true "Response data"
// @Success      200 {object} dto.Response{data=claimsapp.ClaimResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims/{id}/respond [post]
func (h *ClaimHandler) Respond(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	var req claimsapp.RespondClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	claim, err := h.claimService.Respond(c.Request.Context(), actor, claimID, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, claim)
}

// Adjudicate godoc
// @Summary      Adjudicate a claim
// @Description  Uphold or dismiss a claim as an admin; upheld claims charge the chef off-session
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Param        request body claimsapp.AdjudicateClaimRequest true "Ruling data"
// @Success      200 {object} dto.Response{data=claimsapp.ClaimResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims/{id}/adjudicate [post]
func (h *ClaimHandler) Adjudicate(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	var req claimsapp.AdjudicateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	claim, err := h.claimService.Adjudicate(c.Request.Context(), actor, claimID, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, claim)
}

// Withdraw godoc
// @Summary      Withdraw a claim
// @Description  Withdraw an open claim as the filing manager
// @Tags         claims
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Success      200 {object} dto.Response{data=claimsapp.ClaimResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims/{id}/withdraw [post]
func (h *ClaimHandler) Withdraw(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	claim, err := h.claimService.Withdraw(c.Request.Context(), actor, claimID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, claim)
}

// PresignEvidence godoc
// @Summary      Presign an evidence upload
// @Description  Get a presigned upload URL for claim evidence
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Param        request body claimsapp.PresignEvidenceRequest true "Evidence metadata"
// @Success      200 {object} dto.Response{data=claimsapp.PresignEvidenceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims/{id}/evidence/presign [post]
func (h *ClaimHandler) PresignEvidence(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	var req claimsapp.PresignEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.claimService.PresignEvidence(c.Request.Context(), actor, claimID, &req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Statement godoc
// @Summary      Download a claim statement
// @Description  Render the claim statement as a PDF
// @Tags         claims
// @Produce      application/pdf
// @Param        id path string true "Claim ID" format(uuid)
// @Success      200 {file} binary
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /claims/{id}/statement [get]
func (h *ClaimHandler) Statement(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	pdf, filename, err := h.statementService.Render(c.Request.Context(), actor, claimID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
