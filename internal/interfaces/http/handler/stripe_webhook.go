package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	paymentapp "github.com/localcooks/backend/internal/application/payment"
)

// maxWebhookBody caps the webhook payload size. Stripe events are small;
// anything larger is not ours.
const maxWebhookBody = 1 << 20

// StripeWebhookHandler handles payment gateway webhook notifications
type StripeWebhookHandler struct {
	BaseHandler
	webhookService *paymentapp.WebhookService
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(webhookService *paymentapp.WebhookService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		webhookService: webhookService,
	}
}

// Handle godoc
// @Summary      Receive a payment webhook
// @Description  Verify and apply a signed payment gateway notification
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200 {object} dto.Response{data=paymentapp.WebhookResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/stripe [post]
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.BadRequest(c, "Unable to read webhook payload")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.Unauthorized(c, "Missing webhook signature")
		return
	}

	result, err := h.webhookService.Process(c.Request.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, paymentapp.ErrWebhookInvalidSignature) {
			h.Unauthorized(c, "Invalid webhook signature")
			return
		}
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
