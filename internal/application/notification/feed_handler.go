package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
)

// Feed frame kinds. Clients switch on these to pick icons and routes.
const (
	FeedKindBookingCreated = "booking.created"
	FeedKindBookingDecided = "booking.decided"
	FeedKindClaimFiled     = "claim.filed"
	FeedKindClaimAccepted  = "claim.accepted"
	FeedKindClaimDisputed  = "claim.disputed"
	FeedKindClaimUpheld    = "claim.upheld"
	FeedKindClaimDismissed = "claim.dismissed"
)

// FeedHandler turns the events a signed-in user actually waits on into
// live feed frames: new bookings for managers, decisions for chefs, and
// every claim move for whichever side has to react. Admins see all of it.
type FeedHandler struct {
	locationRepo location.LocationRepository
	pusher       FeedPusher
	logger       *zap.Logger
}

// NewFeedHandler creates a new handler that feeds the websocket hub
func NewFeedHandler(
	locationRepo location.LocationRepository,
	pusher FeedPusher,
	logger *zap.Logger,
) *FeedHandler {
	return &FeedHandler{
		locationRepo: locationRepo,
		pusher:       pusher,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *FeedHandler) EventTypes() []string {
	return []string{
		booking.EventTypeBookingCreated,
		booking.EventTypeBookingDecided,
		claims.EventTypeClaimFiled,
		claims.EventTypeClaimAccepted,
		claims.EventTypeClaimDisputed,
		claims.EventTypeClaimUpheld,
		claims.EventTypeClaimDismissed,
	}
}

// Handle converts an event into a frame and pushes it to its audiences
func (h *FeedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *booking.BookingCreatedEvent:
		h.pushBookingCreated(ctx, e)
	case *booking.BookingDecidedEvent:
		frame := FeedFrame{
			Kind:  FeedKindBookingDecided,
			Title: "Booking decided",
			Message: fmt.Sprintf("%s: %d approved, %d declined, %s captured",
				e.BookingNumber, e.ApprovedCount, e.DeclinedCount, dollars(e.CapturedAmount)),
			BookingID:  &e.BookingID,
			OccurredAt: e.OccurredAt(),
		}
		h.pusher.PushToUser(e.ChefID, frame)
		h.pusher.PushToAdmins(frame)
	case *claims.ClaimFiledEvent:
		frame := FeedFrame{
			Kind:  FeedKindClaimFiled,
			Title: "Damage claim filed",
			Message: fmt.Sprintf("%s on %s for %s",
				e.ClaimNumber, e.BookingNumber, dollars(e.Amount)),
			ClaimID:    &e.ClaimID,
			OccurredAt: e.OccurredAt(),
		}
		h.pusher.PushToUser(e.ChefID, frame)
		h.pusher.PushToAdmins(frame)
	case *claims.ClaimAcceptedEvent:
		frame := FeedFrame{
			Kind:  FeedKindClaimAccepted,
			Title: "Claim accepted",
			Message: fmt.Sprintf("%s accepted by the chef for %s",
				e.ClaimNumber, dollars(e.FinalAmount)),
			ClaimID:    &e.ClaimID,
			OccurredAt: e.OccurredAt(),
		}
		h.pusher.PushToUser(e.ManagerID, frame)
		h.pusher.PushToAdmins(frame)
	case *claims.ClaimDisputedEvent:
		frame := FeedFrame{
			Kind:       FeedKindClaimDisputed,
			Title:      "Claim disputed",
			Message:    fmt.Sprintf("%s disputed by the chef, awaiting adjudication", e.ClaimNumber),
			ClaimID:    &e.ClaimID,
			OccurredAt: e.OccurredAt(),
		}
		h.pusher.PushToUser(e.ManagerID, frame)
		h.pusher.PushToAdmins(frame)
	case *claims.ClaimUpheldEvent:
		frame := FeedFrame{
			Kind:  FeedKindClaimUpheld,
			Title: "Claim upheld",
			Message: fmt.Sprintf("%s upheld for %s",
				e.ClaimNumber, dollars(e.FinalAmount)),
			ClaimID:    &e.ClaimID,
			OccurredAt: e.OccurredAt(),
		}
		h.pusher.PushToUser(e.ChefID, frame)
		h.pusher.PushToUser(e.ManagerID, frame)
		h.pusher.PushToAdmins(frame)
	case *claims.ClaimDismissedEvent:
		frame := FeedFrame{
			Kind:       FeedKindClaimDismissed,
			Title:      "Claim dismissed",
			Message:    fmt.Sprintf("%s dismissed, no charge", e.ClaimNumber),
			ClaimID:    &e.ClaimID,
			OccurredAt: e.OccurredAt(),
		}
		h.pusher.PushToUser(e.ChefID, frame)
		h.pusher.PushToUser(e.ManagerID, frame)
		h.pusher.PushToAdmins(frame)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type for feed: %s", event.EventType())
	}
	return nil
}

// pushBookingCreated needs the location owner; booking events carry the
// location, not the manager
func (h *FeedHandler) pushBookingCreated(ctx context.Context, e *booking.BookingCreatedEvent) {
	frame := FeedFrame{
		Kind:  FeedKindBookingCreated,
		Title: "New booking request",
		Message: fmt.Sprintf("%s at %s for %s",
			e.BookingNumber, e.LocationName, dollars(e.TotalAmount)),
		BookingID:  &e.BookingID,
		OccurredAt: e.OccurredAt(),
	}

	loc, err := h.locationRepo.FindByID(ctx, e.LocationID)
	if err != nil {
		h.logger.Warn("pushing booking frame to admins only, location lookup failed",
			zap.String("location_id", e.LocationID.String()),
			zap.Error(err),
		)
	} else {
		h.pusher.PushToUser(loc.ManagerID, frame)
	}
	h.pusher.PushToAdmins(frame)
}

// Ensure FeedHandler implements shared.EventHandler
var _ shared.EventHandler = (*FeedHandler)(nil)
