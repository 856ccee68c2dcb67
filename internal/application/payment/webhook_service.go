package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

var (
	// ErrWebhookInvalidSignature is returned when the notification signature does not verify
	ErrWebhookInvalidSignature = errors.New("payment webhook: signature verification failed")
	// ErrWebhookInvalidPayload is returned when the notification payload is unusable
	ErrWebhookInvalidPayload = errors.New("payment webhook: invalid payload")
)

// IdempotencyStore deduplicates webhook deliveries by event ID. The Redis
// implementation lives in the infrastructure layer.
type IdempotencyStore interface {
	// MarkProcessed records the key if unseen and reports whether this
	// call was the first to see it
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Forget drops the key so a redelivery can be processed again
	Forget(ctx context.Context, key string) error
}

// WebhookServiceConfig holds configuration for webhook processing
type WebhookServiceConfig struct {
	// EventKeyTTL is how long processed event IDs are remembered.
	// Stripe redelivers for up to three days, so the default covers that.
	EventKeyTTL time.Duration
}

// DefaultWebhookServiceConfig returns the default webhook configuration
func DefaultWebhookServiceConfig() WebhookServiceConfig {
	return WebhookServiceConfig{
		EventKeyTTL: 72 * time.Hour,
	}
}

// WebhookService applies verified gateway notifications to platform state.
// It implements the payment.WebhookHandler interface defined in the domain layer.
type WebhookService struct {
	gateway        payment.Gateway
	bookingRepo    booking.BookingRepository
	claimRepo      claims.ClaimRepository
	store          IdempotencyStore
	txManager      shared.TxManager
	config         WebhookServiceConfig
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	gateway payment.Gateway,
	bookingRepo booking.BookingRepository,
	claimRepo claims.ClaimRepository,
	store IdempotencyStore,
	txManager shared.TxManager,
	logger *zap.Logger,
) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		gateway:     gateway,
		bookingRepo: bookingRepo,
		claimRepo:   claimRepo,
		store:       store,
		txManager:   txManager,
		config:      DefaultWebhookServiceConfig(),
		logger:      logger,
	}
}

// SetConfig sets the service configuration
func (s *WebhookService) SetConfig(config WebhookServiceConfig) {
	if config.EventKeyTTL <= 0 {
		config.EventKeyTTL = DefaultWebhookServiceConfig().EventKeyTTL
	}
	s.config = config
}

// SetEventPublisher sets the publisher that fans out domain events to
// notification handlers and the live feed
func (s *WebhookService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents drains the aggregate's pending events onto the bus. Event
// delivery is asynchronous; a publish failure never fails the operation.
func (s *WebhookService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}

// WebhookResult reports what Process did with a delivery
type WebhookResult struct {
	EventID          string `json:"event_id"`
	Type             string `json:"type"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

// Process verifies a raw gateway notification, deduplicates it by event ID,
// and applies it. Signature failures surface as ErrWebhookInvalidSignature;
// everything after a verified signature is handled here so the HTTP layer can
// acknowledge the delivery either way.
func (s *WebhookService) Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrWebhookInvalidSignature, err)
	}
	if event == nil {
		return nil, ErrWebhookInvalidPayload
	}

	s.logger.Info("Webhook received",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.String("intent_id", event.IntentID),
		zap.String("charge_id", event.ChargeID))

	idempotencyKey := fmt.Sprintf("webhook:stripe:%s", event.EventID)
	first, err := s.store.MarkProcessed(ctx, idempotencyKey, s.config.EventKeyTTL)
	if err != nil {
		// The handlers are state-guarded no-ops on replay, so a dedupe
		// outage downgrades to at-least-once instead of dropping events.
		s.logger.Warn("Webhook dedupe store unavailable, processing anyway",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	} else if !first {
		s.logger.Info("Webhook already processed",
			zap.String("event_id", event.EventID))
		return &WebhookResult{
			EventID:          event.EventID,
			Type:             string(event.Type),
			AlreadyProcessed: true,
		}, nil
	}

	if err := s.HandleWebhook(ctx, event); err != nil {
		// Drop the dedupe key so a dashboard resend can try again.
		if ferr := s.store.Forget(ctx, idempotencyKey); ferr != nil {
			s.logger.Warn("Failed to release webhook dedupe key",
				zap.String("event_id", event.EventID),
				zap.Error(ferr))
		}
		s.logger.Error("Failed to handle webhook",
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return nil, err
	}

	return &WebhookResult{
		EventID: event.EventID,
		Type:    string(event.Type),
	}, nil
}

// HandleWebhook applies a verified gateway event to platform state.
// This implements the payment.WebhookHandler interface.
func (s *WebhookService) HandleWebhook(ctx context.Context, event *payment.WebhookEvent) error {
	switch event.Type {
	case payment.WebhookIntentCaptured:
		return s.handleIntentCaptured(ctx, event)
	case payment.WebhookIntentReleased:
		return s.handleIntentReleased(ctx, event)
	case payment.WebhookChargeRefunded:
		return s.handleChargeRefunded(ctx, event)
	case payment.WebhookChargeSucceeded, payment.WebhookChargeFailed:
		return s.handleClaimChargeOutcome(ctx, event)
	default:
		s.logger.Debug("Ignoring unhandled webhook type",
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)))
		return nil
	}
}

// handleIntentCaptured cross-checks a capture notification against the
// booking's books. The decision flow captures synchronously, so this is
// normally a no-op; a booking still pending here means the platform crashed
// between the gateway call and the commit, which needs a human.
func (s *WebhookService) handleIntentCaptured(ctx context.Context, event *payment.WebhookEvent) error {
	b, err := s.bookingRepo.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil || b == nil {
		s.logger.Warn("Capture event for unknown payment intent",
			zap.String("event_id", event.EventID),
			zap.String("intent_id", event.IntentID))
		return nil
	}

	switch b.PaymentStatus {
	case booking.PaymentStatusCaptured, booking.PaymentStatusPartiallyCaptured,
		booking.PaymentStatusRefunded, booking.PaymentStatusPartiallyRefunded:
		if event.Amount.IsPositive() && !b.CapturedAmount.Equal(event.Amount.Amount()) {
			s.logger.Error("Captured amount disagrees with the gateway",
				zap.String("booking_number", b.BookingNumber),
				zap.String("recorded", b.CapturedAmount.StringFixed(2)),
				zap.String("gateway", event.Amount.StringFixed(2)))
		}
		return nil
	default:
		s.logger.Error("Gateway reports a capture on an undecided booking",
			zap.String("booking_number", b.BookingNumber),
			zap.String("intent_id", event.IntentID),
			zap.String("payment_status", string(b.PaymentStatus)))
		return nil
	}
}

// handleIntentReleased expires a booking whose hold was cancelled at the
// gateway. Stripe drops uncaptured manual-capture holds after seven days, and
// this event is how the platform learns about it.
func (s *WebhookService) handleIntentReleased(ctx context.Context, event *payment.WebhookEvent) error {
	b, err := s.bookingRepo.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil || b == nil {
		s.logger.Warn("Release event for unknown payment intent",
			zap.String("event_id", event.EventID),
			zap.String("intent_id", event.IntentID))
		return nil
	}
	if b.Status != booking.BookingStatusPending {
		return nil
	}

	var expired *booking.Booking
	err = s.txManager.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.bookingRepo.FindByIDForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if locked.Status != booking.BookingStatusPending {
			return nil
		}
		if err := locked.Expire(time.Now()); err != nil {
			s.logger.Warn("Could not expire booking on gateway release",
				zap.String("booking_number", locked.BookingNumber),
				zap.Error(err))
			return nil
		}
		if err := s.bookingRepo.Update(ctx, locked); err != nil {
			return err
		}
		s.logger.Info("Booking expired after the gateway released its hold",
			zap.String("booking_number", locked.BookingNumber),
			zap.String("intent_id", event.IntentID))
		expired = locked
		return nil
	})
	if err != nil {
		return err
	}
	if expired != nil {
		s.publishEvents(ctx, expired)
	}
	return nil
}

// handleChargeRefunded records refunds the platform did not initiate, such as
// one issued from the processor dashboard. Refunds issued through the API are
// already in the ledger under their gateway refund ID and are skipped.
func (s *WebhookService) handleChargeRefunded(ctx context.Context, event *payment.WebhookEvent) error {
	b, err := s.bookingRepo.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil || b == nil {
		s.logger.Warn("Refund event for unknown payment intent",
			zap.String("event_id", event.EventID),
			zap.String("intent_id", event.IntentID))
		return nil
	}

	var refunded *booking.Booking
	err = s.txManager.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.bookingRepo.FindByIDForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		for i := range locked.Refunds {
			if locked.Refunds[i].GatewayRefundID == event.RefundID {
				return nil
			}
		}
		if err := locked.RecordRefund(nil, event.Amount, valueobject.ZeroUSD(), "Refund issued at the gateway", event.RefundID); err != nil {
			// The money already moved; a ledger that cannot absorb it
			// is an ops problem, not a retry problem.
			s.logger.Error("Could not record gateway-initiated refund",
				zap.String("booking_number", locked.BookingNumber),
				zap.String("refund_id", event.RefundID),
				zap.String("amount", event.Amount.StringFixed(2)),
				zap.Error(err))
			return nil
		}
		if err := s.bookingRepo.Update(ctx, locked); err != nil {
			return err
		}
		s.logger.Info("Recorded gateway-initiated refund",
			zap.String("booking_number", locked.BookingNumber),
			zap.String("refund_id", event.RefundID),
			zap.String("amount", event.Amount.StringFixed(2)))
		refunded = locked
		return nil
	})
	if err != nil {
		return err
	}
	if refunded != nil {
		s.publishEvents(ctx, refunded)
	}
	return nil
}

// handleClaimChargeOutcome settles a claim charge that was left pending at
// the gateway. Charges resolved synchronously are already SUCCEEDED or FAILED
// and replay as no-ops.
func (s *WebhookService) handleClaimChargeOutcome(ctx context.Context, event *payment.WebhookEvent) error {
	raw, ok := event.Metadata["claim_id"]
	if !ok {
		// Charge events without claim metadata belong to booking
		// captures, which handleIntentCaptured covers.
		return nil
	}
	claimID, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("Charge event carries a malformed claim ID",
			zap.String("event_id", event.EventID),
			zap.String("claim_id", raw))
		return nil
	}

	var settled *claims.DamageClaim
	err = s.txManager.InTx(ctx, func(ctx context.Context) error {
		claim, err := s.claimRepo.FindByIDForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if claim.ChargeStatus != claims.ChargeStatusPending {
			return nil
		}

		now := time.Now()
		if event.Type == payment.WebhookChargeSucceeded {
			if err := claim.RecordChargeSuccess(event.ChargeID, now); err != nil {
				return err
			}
			s.logger.Info("Claim charge settled via webhook",
				zap.String("claim_number", claim.ClaimNumber),
				zap.String("charge_id", event.ChargeID))
		} else {
			reason := event.FailureMessage
			if reason == "" {
				reason = event.FailureCode
			}
			if err := claim.RecordChargeFailure(reason, now); err != nil {
				return err
			}
			s.logger.Info("Claim charge failed via webhook",
				zap.String("claim_number", claim.ClaimNumber),
				zap.String("reason", reason))
		}
		if err := s.claimRepo.Update(ctx, claim); err != nil {
			return err
		}
		settled = claim
		return nil
	})
	if err != nil {
		return err
	}
	if settled != nil {
		s.publishEvents(ctx, settled)
	}
	return nil
}

// Ensure WebhookService implements the domain interface
var _ payment.WebhookHandler = (*WebhookService)(nil)
