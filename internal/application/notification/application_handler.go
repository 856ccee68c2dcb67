package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/kitchenapp"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
)

// ApplicationNotificationHandler emails the parties of a kitchen
// application: the manager when someone applies, the chef when a decision
// lands. Review starts, withdrawals and document uploads stay quiet.
type ApplicationNotificationHandler struct {
	userRepo     identity.UserRepository
	locationRepo location.LocationRepository
	notifier     Notifier
	logger       *zap.Logger
}

// NewApplicationNotificationHandler creates a new handler for kitchen application events
func NewApplicationNotificationHandler(
	userRepo identity.UserRepository,
	locationRepo location.LocationRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ApplicationNotificationHandler {
	return &ApplicationNotificationHandler{
		userRepo:     userRepo,
		locationRepo: locationRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ApplicationNotificationHandler) EventTypes() []string {
	return []string{
		kitchenapp.EventTypeApplicationSubmitted,
		kitchenapp.EventTypeApplicationApproved,
		kitchenapp.EventTypeApplicationRejected,
	}
}

// Handle routes an application event to the matching mail composer
func (h *ApplicationNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *kitchenapp.ApplicationSubmittedEvent:
		h.notifySubmitted(ctx, e)
	case *kitchenapp.ApplicationApprovedEvent:
		h.notifyApproved(ctx, e)
	case *kitchenapp.ApplicationRejectedEvent:
		h.notifyRejected(ctx, e)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type for application notifications: %s", event.EventType())
	}
	return nil
}

// notifySubmitted tells the manager a chef wants in
func (h *ApplicationNotificationHandler) notifySubmitted(ctx context.Context, e *kitchenapp.ApplicationSubmittedEvent) {
	loc, err := h.locationRepo.FindByID(ctx, e.LocationID)
	if err != nil {
		h.logger.Warn("skipping manager notification, location lookup failed",
			zap.String("location_id", e.LocationID.String()),
			zap.Error(err),
		)
		return
	}

	chefName := "A chef"
	if chef, err := h.userRepo.FindByID(ctx, e.ChefID); err == nil {
		chefName = chef.FullName()
	}

	subject := fmt.Sprintf("New kitchen application for %s", loc.Name)
	body := fmt.Sprintf(
		"%s applied to cook at %s.\n\n"+
			"Review the application and its documents from your dashboard. "+
			"The chef cannot book until you approve.",
		chefName,
		loc.Name,
	)
	h.email(ctx, loc.ManagerID, subject, body)
}

// notifyApproved tells the chef booking is unlocked
func (h *ApplicationNotificationHandler) notifyApproved(ctx context.Context, e *kitchenapp.ApplicationApprovedEvent) {
	locationName := "the kitchen"
	if loc, err := h.locationRepo.FindByID(ctx, e.LocationID); err == nil {
		locationName = loc.Name
	}

	subject := fmt.Sprintf("You're approved to cook at %s", locationName)
	body := fmt.Sprintf(
		"Your application to %s was approved. "+
			"You can now book kitchen time there from your dashboard.",
		locationName,
	)
	h.email(ctx, e.ChefID, subject, body)
}

// notifyRejected tells the chef, with the reviewer's note when there is one
func (h *ApplicationNotificationHandler) notifyRejected(ctx context.Context, e *kitchenapp.ApplicationRejectedEvent) {
	locationName := "the kitchen"
	if loc, err := h.locationRepo.FindByID(ctx, e.LocationID); err == nil {
		locationName = loc.Name
	}

	subject := fmt.Sprintf("Your application to %s was not approved", locationName)
	body := fmt.Sprintf("Your application to %s was not approved this time.", locationName)
	if e.ReviewNote != "" {
		body += fmt.Sprintf("\n\nThe manager's note: %s", e.ReviewNote)
	}
	body += "\n\nYou can apply again once you have addressed the manager's concerns."
	h.email(ctx, e.ChefID, subject, body)
}

func (h *ApplicationNotificationHandler) email(ctx context.Context, userID uuid.UUID, subject, body string) {
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

// Ensure ApplicationNotificationHandler implements shared.EventHandler
var _ shared.EventHandler = (*ApplicationNotificationHandler)(nil)
