package kitchenapp

import (
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
)

// Aggregate type constant for KitchenApplication
const AggregateTypeKitchenApplication = "KitchenApplication"

// Kitchen application domain event types
const (
	EventTypeApplicationSubmitted        = "ApplicationSubmitted"
	EventTypeApplicationReviewStarted    = "ApplicationReviewStarted"
	EventTypeApplicationApproved         = "ApplicationApproved"
	EventTypeApplicationRejected         = "ApplicationRejected"
	EventTypeApplicationWithdrawn        = "ApplicationWithdrawn"
	EventTypeApplicationDocumentAttached = "ApplicationDocumentAttached"
)

// ApplicationSubmittedEvent is published when a chef applies to a location
type ApplicationSubmittedEvent struct {
	shared.BaseDomainEvent
	ChefID     uuid.UUID `json:"chef_id"`
	LocationID uuid.UUID `json:"location_id"`
}

// NewApplicationSubmittedEvent creates a new ApplicationSubmittedEvent
func NewApplicationSubmittedEvent(app *KitchenApplication) *ApplicationSubmittedEvent {
	return &ApplicationSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationSubmitted, AggregateTypeKitchenApplication, app.ID),
		ChefID:          app.ChefID,
		LocationID:      app.LocationID,
	}
}

// ApplicationReviewStartedEvent is published when review begins
type ApplicationReviewStartedEvent struct {
	shared.BaseDomainEvent
	ChefID     uuid.UUID `json:"chef_id"`
	LocationID uuid.UUID `json:"location_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
}

// NewApplicationReviewStartedEvent creates a new ApplicationReviewStartedEvent
func NewApplicationReviewStartedEvent(app *KitchenApplication) *ApplicationReviewStartedEvent {
	evt := &ApplicationReviewStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationReviewStarted, AggregateTypeKitchenApplication, app.ID),
		ChefID:          app.ChefID,
		LocationID:      app.LocationID,
	}
	if app.ReviewerID != nil {
		evt.ReviewerID = *app.ReviewerID
	}
	return evt
}

// ApplicationApprovedEvent is published when an application is approved.
// Approval unlocks booking the location for this chef.
type ApplicationApprovedEvent struct {
	shared.BaseDomainEvent
	ChefID     uuid.UUID `json:"chef_id"`
	LocationID uuid.UUID `json:"location_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	DecidedAt  time.Time `json:"decided_at"`
}

// NewApplicationApprovedEvent creates a new ApplicationApprovedEvent
func NewApplicationApprovedEvent(app *KitchenApplication) *ApplicationApprovedEvent {
	evt := &ApplicationApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationApproved, AggregateTypeKitchenApplication, app.ID),
		ChefID:          app.ChefID,
		LocationID:      app.LocationID,
	}
	if app.ReviewerID != nil {
		evt.ReviewerID = *app.ReviewerID
	}
	if app.DecidedAt != nil {
		evt.DecidedAt = *app.DecidedAt
	}
	return evt
}

// ApplicationRejectedEvent is published when an application is rejected
type ApplicationRejectedEvent struct {
	shared.BaseDomainEvent
	ChefID     uuid.UUID `json:"chef_id"`
	LocationID uuid.UUID `json:"location_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	ReviewNote string    `json:"review_note"`
}

// NewApplicationRejectedEvent creates a new ApplicationRejectedEvent
func NewApplicationRejectedEvent(app *KitchenApplication) *ApplicationRejectedEvent {
	evt := &ApplicationRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationRejected, AggregateTypeKitchenApplication, app.ID),
		ChefID:          app.ChefID,
		LocationID:      app.LocationID,
		ReviewNote:      app.ReviewNote,
	}
	if app.ReviewerID != nil {
		evt.ReviewerID = *app.ReviewerID
	}
	return evt
}

// ApplicationWithdrawnEvent is published when the chef withdraws
type ApplicationWithdrawnEvent struct {
	shared.BaseDomainEvent
	ChefID     uuid.UUID `json:"chef_id"`
	LocationID uuid.UUID `json:"location_id"`
}

// NewApplicationWithdrawnEvent creates a new ApplicationWithdrawnEvent
func NewApplicationWithdrawnEvent(app *KitchenApplication) *ApplicationWithdrawnEvent {
	return &ApplicationWithdrawnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationWithdrawn, AggregateTypeKitchenApplication, app.ID),
		ChefID:          app.ChefID,
		LocationID:      app.LocationID,
	}
}

// ApplicationDocumentAttachedEvent is published when a document is uploaded
type ApplicationDocumentAttachedEvent struct {
	shared.BaseDomainEvent
	RequirementID uuid.UUID `json:"requirement_id"`
	FileName      string    `json:"file_name"`
	Size          int64     `json:"size"`
}

// NewApplicationDocumentAttachedEvent creates a new ApplicationDocumentAttachedEvent
func NewApplicationDocumentAttachedEvent(app *KitchenApplication, doc *ApplicationDocument) *ApplicationDocumentAttachedEvent {
	return &ApplicationDocumentAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationDocumentAttached, AggregateTypeKitchenApplication, app.ID),
		RequirementID:   doc.RequirementID,
		FileName:        doc.FileName,
		Size:            doc.Size,
	}
}
