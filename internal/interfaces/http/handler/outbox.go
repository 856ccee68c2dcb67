package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	eventapp "github.com/localcooks/backend/internal/application/event"
)

// OutboxHandler handles admin endpoints for event outbox management
type OutboxHandler struct {
	BaseHandler
	outboxService *eventapp.OutboxService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outboxService *eventapp.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// ListDeadLetters godoc
// @Summary      List dead letter entries
// @Description  Retrieve outbox entries that exhausted their retries
// @Tags         outbox
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]eventapp.OutboxEntryDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /outbox/dead-letters [get]
func (h *OutboxHandler) ListDeadLetters(c *gin.Context) {
	var filter eventapp.OutboxFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Entries, result.Total, result.Page, result.PageSize)
}

// GetEntry godoc
// @Summary      Get outbox entry
// @Description  Retrieve a single outbox entry by ID
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=eventapp.OutboxEntryDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /outbox/entries/{id} [get]
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return
	}

	entry, err := h.outboxService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// RetryEntry godoc
// @Summary      Retry a dead letter entry
// @Description  Requeue a dead outbox entry for delivery
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=eventapp.OutboxEntryDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /outbox/dead-letters/{id}/retry [post]
func (h *OutboxHandler) RetryEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// RetryAll godoc
// @Summary      Retry all dead letter entries
// @Description  Requeue every dead outbox entry for delivery
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=CountData}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /outbox/dead-letters/retry-all [post]
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}

// Stats godoc
// @Summary      Get outbox statistics
// @Description  Retrieve entry counts per outbox status
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=eventapp.OutboxStatsDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}
