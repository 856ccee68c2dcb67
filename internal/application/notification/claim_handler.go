package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/shared"
)

// ClaimNotificationHandler emails chefs and managers about damage-claim
// lifecycle changes. Claim events carry both party IDs, so no location
// lookup is needed. Sends are best effort, same as booking notifications.
type ClaimNotificationHandler struct {
	userRepo identity.UserRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewClaimNotificationHandler creates a new handler for damage-claim events
func NewClaimNotificationHandler(
	userRepo identity.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ClaimNotificationHandler {
	return &ClaimNotificationHandler{
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in.
// Evidence uploads are deliberately absent; nobody wants mail about them.
func (h *ClaimNotificationHandler) EventTypes() []string {
	return []string{
		claims.EventTypeClaimFiled,
		claims.EventTypeClaimAccepted,
		claims.EventTypeClaimDisputed,
		claims.EventTypeClaimUncontested,
		claims.EventTypeClaimUpheld,
		claims.EventTypeClaimDismissed,
		claims.EventTypeClaimWithdrawn,
		claims.EventTypeClaimSettled,
		claims.EventTypeClaimChargeFailed,
	}
}

// Handle routes a claim event to the matching mail composer
func (h *ClaimNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *claims.ClaimFiledEvent:
		h.notifyFiled(ctx, e)
	case *claims.ClaimAcceptedEvent:
		h.notifyAccepted(ctx, e)
	case *claims.ClaimDisputedEvent:
		h.notifyDisputed(ctx, e)
	case *claims.ClaimUncontestedEvent:
		h.notifyUncontested(ctx, e)
	case *claims.ClaimUpheldEvent:
		h.notifyUpheld(ctx, e)
	case *claims.ClaimDismissedEvent:
		h.notifyDismissed(ctx, e)
	case *claims.ClaimWithdrawnEvent:
		h.notifyWithdrawn(ctx, e)
	case *claims.ClaimSettledEvent:
		h.notifySettled(ctx, e)
	case *claims.ClaimChargeFailedEvent:
		h.notifyChargeFailed(ctx, e)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type for claim notifications: %s", event.EventType())
	}
	return nil
}

// notifyFiled puts the chef on the clock
func (h *ClaimNotificationHandler) notifyFiled(ctx context.Context, e *claims.ClaimFiledEvent) {
	subject := fmt.Sprintf("Damage claim %s filed against booking %s", e.ClaimNumber, e.BookingNumber)
	body := fmt.Sprintf(
		"The manager filed a damage claim for your booking %s.\n\n"+
			"Claim: %s\n"+
			"What happened: %s\n"+
			"Amount claimed: %s\n\n"+
			"You can accept the claim or dispute it from your dashboard. If you do "+
			"not respond before %s, the claim stands and the amount is charged to "+
			"your card on file.",
		e.BookingNumber,
		e.ClaimNumber,
		e.Title,
		dollars(e.Amount),
		e.ResponseDeadline.Format(deadlineFormat),
	)
	h.email(ctx, e.ChefID, subject, body)
}

// notifyAccepted tells the manager the chef took responsibility
func (h *ClaimNotificationHandler) notifyAccepted(ctx context.Context, e *claims.ClaimAcceptedEvent) {
	subject := fmt.Sprintf("Claim %s accepted by the chef", e.ClaimNumber)
	body := fmt.Sprintf(
		"The chef accepted damage claim %s (%s) for %s. "+
			"The charge is being processed; you will get a confirmation once it settles.",
		e.ClaimNumber,
		e.Title,
		dollars(e.FinalAmount),
	)
	h.email(ctx, e.ManagerID, subject, body)
}

// notifyDisputed tells the manager the claim goes to adjudication
func (h *ClaimNotificationHandler) notifyDisputed(ctx context.Context, e *claims.ClaimDisputedEvent) {
	subject := fmt.Sprintf("Claim %s disputed by the chef", e.ClaimNumber)
	body := fmt.Sprintf(
		"The chef disputed damage claim %s (%s).\n\n"+
			"Their response: %s\n\n"+
			"A platform admin will review the claim and the evidence from both "+
			"sides. You can add more evidence from your dashboard until it is decided.",
		e.ClaimNumber,
		e.Title,
		e.ResponseNote,
	)
	h.email(ctx, e.ManagerID, subject, body)
}

// notifyUncontested tells the chef the deadline ran out
func (h *ClaimNotificationHandler) notifyUncontested(ctx context.Context, e *claims.ClaimUncontestedEvent) {
	subject := fmt.Sprintf("Claim %s stands, no response received", e.ClaimNumber)
	body := fmt.Sprintf(
		"You did not respond to damage claim %s (%s) before %s. "+
			"The claim stands as filed and %s is being charged to your card on file.",
		e.ClaimNumber,
		e.Title,
		e.ResponseDeadline.Format(deadlineFormat),
		dollars(e.FinalAmount),
	)
	h.email(ctx, e.ChefID, subject, body)
}

// notifyUpheld tells both sides how the admin ruled
func (h *ClaimNotificationHandler) notifyUpheld(ctx context.Context, e *claims.ClaimUpheldEvent) {
	chefSubject := fmt.Sprintf("Claim %s upheld", e.ClaimNumber)
	chefBody := fmt.Sprintf(
		"A platform admin reviewed damage claim %s (%s) and upheld it for %s. "+
			"That amount is being charged to your card on file.",
		e.ClaimNumber,
		e.Title,
		dollars(e.FinalAmount),
	)
	if e.AdjudicationNote != "" {
		chefBody += fmt.Sprintf("\n\nAdmin's note: %s", e.AdjudicationNote)
	}
	h.email(ctx, e.ChefID, chefSubject, chefBody)

	managerSubject := fmt.Sprintf("Claim %s upheld for %s", e.ClaimNumber, dollars(e.FinalAmount))
	managerBody := fmt.Sprintf(
		"A platform admin upheld damage claim %s (%s) for %s of the %s you filed. "+
			"The charge is being processed.",
		e.ClaimNumber,
		e.Title,
		dollars(e.FinalAmount),
		dollars(e.FiledAmount),
	)
	h.email(ctx, e.ManagerID, managerSubject, managerBody)
}

// notifyDismissed tells both sides the claim is dead
func (h *ClaimNotificationHandler) notifyDismissed(ctx context.Context, e *claims.ClaimDismissedEvent) {
	chefSubject := fmt.Sprintf("Claim %s dismissed", e.ClaimNumber)
	chefBody := fmt.Sprintf(
		"A platform admin reviewed damage claim %s (%s) and dismissed it. "+
			"Nothing will be charged to your card.",
		e.ClaimNumber,
		e.Title,
	)
	if e.AdjudicationNote != "" {
		chefBody += fmt.Sprintf("\n\nAdmin's note: %s", e.AdjudicationNote)
	}
	h.email(ctx, e.ChefID, chefSubject, chefBody)

	managerSubject := fmt.Sprintf("Claim %s dismissed", e.ClaimNumber)
	managerBody := fmt.Sprintf(
		"A platform admin reviewed damage claim %s (%s) and dismissed it. "+
			"No charge will be made.",
		e.ClaimNumber,
		e.Title,
	)
	if e.AdjudicationNote != "" {
		managerBody += fmt.Sprintf("\n\nAdmin's note: %s", e.AdjudicationNote)
	}
	h.email(ctx, e.ManagerID, managerSubject, managerBody)
}

// notifyWithdrawn tells the chef they are off the hook
func (h *ClaimNotificationHandler) notifyWithdrawn(ctx context.Context, e *claims.ClaimWithdrawnEvent) {
	subject := fmt.Sprintf("Claim %s withdrawn", e.ClaimNumber)
	body := fmt.Sprintf(
		"The manager withdrew damage claim %s (%s). Nothing will be charged.",
		e.ClaimNumber,
		e.Title,
	)
	h.email(ctx, e.ChefID, subject, body)
}

// notifySettled confirms the money moved
func (h *ClaimNotificationHandler) notifySettled(ctx context.Context, e *claims.ClaimSettledEvent) {
	chefSubject := fmt.Sprintf("Your card was charged for claim %s", e.ClaimNumber)
	chefBody := fmt.Sprintf(
		"Your card on file was charged %s for damage claim %s (%s) on %s.",
		dollars(e.FinalAmount),
		e.ClaimNumber,
		e.Title,
		e.ChargedAt.Format(deadlineFormat),
	)
	h.email(ctx, e.ChefID, chefSubject, chefBody)

	managerSubject := fmt.Sprintf("Claim %s settled", e.ClaimNumber)
	managerBody := fmt.Sprintf(
		"Damage claim %s (%s) settled. %s was collected from the chef.",
		e.ClaimNumber,
		e.Title,
		dollars(e.FinalAmount),
	)
	h.email(ctx, e.ManagerID, managerSubject, managerBody)
}

// notifyChargeFailed nudges the chef to fix their card
func (h *ClaimNotificationHandler) notifyChargeFailed(ctx context.Context, e *claims.ClaimChargeFailedEvent) {
	subject := fmt.Sprintf("Payment failed for claim %s", e.ClaimNumber)
	body := fmt.Sprintf(
		"We could not charge %s to your card on file for damage claim %s.\n\n"+
			"Your bank said: %s\n\n"+
			"Please update your payment method from your dashboard. We will retry "+
			"the charge automatically.",
		dollars(e.FinalAmount),
		e.ClaimNumber,
		e.LastChargeError,
	)
	h.email(ctx, e.ChefID, subject, body)
}

func (h *ClaimNotificationHandler) email(ctx context.Context, userID uuid.UUID, subject, body string) {
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

// Ensure ClaimNotificationHandler implements shared.EventHandler
var _ shared.EventHandler = (*ClaimNotificationHandler)(nil)
