package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/localcooks/backend/internal/infrastructure/ws"
)

// FeedHandler upgrades authenticated clients onto the live notification feed
type FeedHandler struct {
	BaseHandler
	hub *ws.FeedHub
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(hub *ws.FeedHub) *FeedHandler {
	return &FeedHandler{
		hub: hub,
	}
}

// Connect godoc
// @Summary      Connect to the notification feed
// @Description  Upgrade to a websocket that pushes booking and claim events to the caller
// @Tags         feed
// @Success      101
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /feed [get]
func (h *FeedHandler) Connect(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	// Serve blocks until the client disconnects
	if err := h.hub.Serve(c.Writer, c.Request, actor.ID, actor.IsAdmin()); err != nil {
		// The upgrade failed before any websocket traffic; a plain error
		// response is still possible
		h.BadRequest(c, "Websocket upgrade failed")
	}
}
