package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
)

// BookingNotificationHandler emails chefs and managers about booking
// lifecycle changes. Sends are best effort: a failed lookup or a bounced
// SMTP connection is logged and skipped rather than returned, so the
// outbox never redelivers an event just to resend mail.
type BookingNotificationHandler struct {
	userRepo     identity.UserRepository
	locationRepo location.LocationRepository
	notifier     Notifier
	logger       *zap.Logger
}

// NewBookingNotificationHandler creates a new handler for booking lifecycle events
func NewBookingNotificationHandler(
	userRepo identity.UserRepository,
	locationRepo location.LocationRepository,
	notifier Notifier,
	logger *zap.Logger,
) *BookingNotificationHandler {
	return &BookingNotificationHandler{
		userRepo:     userRepo,
		locationRepo: locationRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *BookingNotificationHandler) EventTypes() []string {
	return []string{
		booking.EventTypeBookingCreated,
		booking.EventTypeBookingDecided,
		booking.EventTypeBookingCancelled,
		booking.EventTypeBookingRefunded,
		booking.EventTypeBookingCompleted,
		booking.EventTypeBookingExpired,
	}
}

// Handle routes a booking event to the matching mail composer
func (h *BookingNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *booking.BookingCreatedEvent:
		h.notifyCreated(ctx, e)
	case *booking.BookingDecidedEvent:
		h.notifyDecided(ctx, e)
	case *booking.BookingCancelledEvent:
		h.notifyCancelled(ctx, e)
	case *booking.BookingRefundedEvent:
		h.notifyRefunded(ctx, e)
	case *booking.BookingCompletedEvent:
		h.notifyCompleted(ctx, e)
	case *booking.BookingExpiredEvent:
		h.notifyExpired(ctx, e)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type for booking notifications: %s", event.EventType())
	}
	return nil
}

// notifyCreated tells the location manager a request is waiting on them
func (h *BookingNotificationHandler) notifyCreated(ctx context.Context, e *booking.BookingCreatedEvent) {
	managerID, ok := h.resolveManager(ctx, e.LocationID)
	if !ok {
		return
	}

	subject := fmt.Sprintf("New booking request %s", e.BookingNumber)
	body := fmt.Sprintf(
		"A chef requested kitchen time at %s.\n\n"+
			"Booking: %s\n"+
			"Windows requested: %d\n"+
			"Total: %s\n\n"+
			"Approve or decline each window from your dashboard before %s. "+
			"Requests left unanswered expire and the chef's card hold is released.",
		e.LocationName,
		e.BookingNumber,
		len(e.Items),
		dollars(e.TotalAmount),
		e.DecisionDeadline.Format(deadlineFormat),
	)
	h.email(ctx, managerID, subject, body)
}

// notifyDecided tells the chef how the manager ruled
func (h *BookingNotificationHandler) notifyDecided(ctx context.Context, e *booking.BookingDecidedEvent) {
	var subject string
	switch e.Status {
	case string(booking.BookingStatusApproved):
		subject = fmt.Sprintf("Your booking %s was approved", e.BookingNumber)
	case string(booking.BookingStatusDeclined):
		subject = fmt.Sprintf("Your booking %s was declined", e.BookingNumber)
	default:
		subject = fmt.Sprintf("Your booking %s was partially approved", e.BookingNumber)
	}

	body := fmt.Sprintf(
		"The manager responded to booking %s.\n\n"+
			"Approved windows: %d\n"+
			"Declined windows: %d\n"+
			"Charged to your card: %s\n"+
			"Released back to your card: %s\n\n"+
			"Released holds usually show up within a few business days, depending on your bank.",
		e.BookingNumber,
		e.ApprovedCount,
		e.DeclinedCount,
		dollars(e.CapturedAmount),
		dollars(e.ReleasedAmount),
	)
	h.email(ctx, e.ChefID, subject, body)
}

// notifyCancelled tells the manager the slot was given back
func (h *BookingNotificationHandler) notifyCancelled(ctx context.Context, e *booking.BookingCancelledEvent) {
	managerID, ok := h.resolveManager(ctx, e.LocationID)
	if !ok {
		return
	}

	subject := fmt.Sprintf("Booking %s was cancelled", e.BookingNumber)
	var body string
	switch {
	case e.WasPending:
		body = fmt.Sprintf(
			"The chef cancelled booking %s before you responded. "+
				"No action is needed; the card hold was released.",
			e.BookingNumber,
		)
	case e.FreeCancellation:
		body = fmt.Sprintf(
			"The chef cancelled booking %s inside the free-cancellation window. "+
				"The full %s was refunded and the time is available again.",
			e.BookingNumber,
			dollars(e.RefundAmount),
		)
	default:
		body = fmt.Sprintf(
			"The chef cancelled booking %s after the free-cancellation window. "+
				"%s was refunded and %s was kept as the late-cancellation charge.",
			e.BookingNumber,
			dollars(e.RefundAmount),
			dollars(e.KeptAmount),
		)
	}
	if e.CancelReason != "" {
		body += fmt.Sprintf("\n\nReason given: %s", e.CancelReason)
	}
	h.email(ctx, managerID, subject, body)
}

// notifyRefunded confirms money moving back to the chef
func (h *BookingNotificationHandler) notifyRefunded(ctx context.Context, e *booking.BookingRefundedEvent) {
	subject := fmt.Sprintf("Refund issued on booking %s", e.BookingNumber)
	body := fmt.Sprintf(
		"A refund of %s was issued on booking %s.\n\nReason: %s\n\n"+
			"It usually takes a few business days to appear on your statement.",
		dollars(e.Amount),
		e.BookingNumber,
		e.Reason,
	)
	h.email(ctx, e.ChefID, subject, body)
}

// notifyCompleted tells the manager the damage-claim window is open
func (h *BookingNotificationHandler) notifyCompleted(ctx context.Context, e *booking.BookingCompletedEvent) {
	managerID, ok := h.resolveManager(ctx, e.LocationID)
	if !ok {
		return
	}

	subject := fmt.Sprintf("Booking %s completed", e.BookingNumber)
	body := fmt.Sprintf(
		"Booking %s finished on %s.\n\n"+
			"If equipment was damaged during this booking, file a damage claim from "+
			"your dashboard. Claims are only accepted for a limited time after completion.",
		e.BookingNumber,
		e.CompletedAt.Format(deadlineFormat),
	)
	h.email(ctx, managerID, subject, body)
}

// notifyExpired tells both sides the request died unanswered
func (h *BookingNotificationHandler) notifyExpired(ctx context.Context, e *booking.BookingExpiredEvent) {
	chefSubject := fmt.Sprintf("Your booking request %s expired", e.BookingNumber)
	chefBody := fmt.Sprintf(
		"The manager did not respond to booking %s before %s, so the request "+
			"expired. The hold of %s on your card was released; nothing was charged.",
		e.BookingNumber,
		e.DecisionDeadline.Format(deadlineFormat),
		dollars(e.ReleasedAmount),
	)
	h.email(ctx, e.ChefID, chefSubject, chefBody)

	managerID, ok := h.resolveManager(ctx, e.LocationID)
	if !ok {
		return
	}
	managerSubject := fmt.Sprintf("Booking request %s expired unanswered", e.BookingNumber)
	managerBody := fmt.Sprintf(
		"Booking %s expired because it was not approved or declined before %s. "+
			"The chef's card hold was released. Responding faster keeps your "+
			"location's acceptance rate up.",
		e.BookingNumber,
		e.DecisionDeadline.Format(deadlineFormat),
	)
	h.email(ctx, managerID, managerSubject, managerBody)
}

// resolveManager maps a location to the manager who owns it. Booking
// events carry the location, not the owner.
func (h *BookingNotificationHandler) resolveManager(ctx context.Context, locationID uuid.UUID) (uuid.UUID, bool) {
	loc, err := h.locationRepo.FindByID(ctx, locationID)
	if err != nil {
		h.logger.Warn("skipping manager notification, location lookup failed",
			zap.String("location_id", locationID.String()),
			zap.Error(err),
		)
		return uuid.Nil, false
	}
	return loc.ManagerID, true
}

func (h *BookingNotificationHandler) email(ctx context.Context, userID uuid.UUID, subject, body string) {
	user, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		h.logger.Warn("skipping notification, recipient lookup failed",
			zap.String("user_id", userID.String()),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return
	}

	if err := h.notifier.Send(ctx, user.Email, subject, body); err != nil {
		h.logger.Warn("failed to send notification email",
			zap.String("user_id", userID.String()),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return
	}

	h.logger.Info("notification email sent",
		zap.String("user_id", userID.String()),
		zap.String("subject", subject),
	)
}

// Ensure BookingNotificationHandler implements shared.EventHandler
var _ shared.EventHandler = (*BookingNotificationHandler)(nil)
