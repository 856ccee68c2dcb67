package event

import (
	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/kitchenapp"
	"github.com/localcooks/backend/internal/domain/location"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Booking events
	serializer.Register("BookingCreated", &booking.BookingCreatedEvent{})
	serializer.Register("BookingDecided", &booking.BookingDecidedEvent{})
	serializer.Register("BookingCancelled", &booking.BookingCancelledEvent{})
	serializer.Register("BookingRefunded", &booking.BookingRefundedEvent{})
	serializer.Register("BookingCompleted", &booking.BookingCompletedEvent{})
	serializer.Register("BookingExpired", &booking.BookingExpiredEvent{})

	// Damage claim events
	serializer.Register("ClaimFiled", &claims.ClaimFiledEvent{})
	serializer.Register("ClaimAccepted", &claims.ClaimAcceptedEvent{})
	serializer.Register("ClaimDisputed", &claims.ClaimDisputedEvent{})
	serializer.Register("ClaimUncontested", &claims.ClaimUncontestedEvent{})
	serializer.Register("ClaimUpheld", &claims.ClaimUpheldEvent{})
	serializer.Register("ClaimDismissed", &claims.ClaimDismissedEvent{})
	serializer.Register("ClaimWithdrawn", &claims.ClaimWithdrawnEvent{})
	serializer.Register("ClaimSettled", &claims.ClaimSettledEvent{})
	serializer.Register("ClaimChargeFailed", &claims.ClaimChargeFailedEvent{})
	serializer.Register("ClaimEvidenceAttached", &claims.ClaimEvidenceAttachedEvent{})

	// Kitchen application events
	serializer.Register("ApplicationSubmitted", &kitchenapp.ApplicationSubmittedEvent{})
	serializer.Register("ApplicationReviewStarted", &kitchenapp.ApplicationReviewStartedEvent{})
	serializer.Register("ApplicationApproved", &kitchenapp.ApplicationApprovedEvent{})
	serializer.Register("ApplicationRejected", &kitchenapp.ApplicationRejectedEvent{})
	serializer.Register("ApplicationWithdrawn", &kitchenapp.ApplicationWithdrawnEvent{})
	serializer.Register("ApplicationDocumentAttached", &kitchenapp.ApplicationDocumentAttachedEvent{})

	// Location events
	serializer.Register("LocationCreated", &location.LocationCreatedEvent{})
	serializer.Register("LocationUpdated", &location.LocationUpdatedEvent{})
	serializer.Register("LocationRatesChanged", &location.LocationRatesChangedEvent{})
	serializer.Register("LocationPublished", &location.LocationPublishedEvent{})
	serializer.Register("LocationUnpublished", &location.LocationUnpublishedEvent{})
	serializer.Register("LocationRequirementsReplaced", &location.LocationRequirementsReplacedEvent{})

	// Identity events
	serializer.Register("UserRegistered", &identity.UserRegisteredEvent{})
	serializer.Register("UserSuspended", &identity.UserSuspendedEvent{})
	serializer.Register("UserReactivated", &identity.UserReactivatedEvent{})
	serializer.Register("UserPasswordChanged", &identity.UserPasswordChangedEvent{})
	serializer.Register("UserRoleChanged", &identity.UserRoleChangedEvent{})
}
