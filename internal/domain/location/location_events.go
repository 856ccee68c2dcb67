package location

import (
	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
)

// Aggregate type constant for Location
const AggregateTypeLocation = "Location"

// Location domain event types
const (
	EventTypeLocationCreated              = "LocationCreated"
	EventTypeLocationUpdated              = "LocationUpdated"
	EventTypeLocationRatesChanged         = "LocationRatesChanged"
	EventTypeLocationPublished            = "LocationPublished"
	EventTypeLocationUnpublished          = "LocationUnpublished"
	EventTypeLocationRequirementsReplaced = "LocationRequirementsReplaced"
)

// LocationCreatedEvent is published when a listing is created
type LocationCreatedEvent struct {
	shared.BaseDomainEvent
	ManagerID uuid.UUID `json:"manager_id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	State     string    `json:"state"`
}

// NewLocationCreatedEvent creates a new LocationCreatedEvent
func NewLocationCreatedEvent(loc *Location) *LocationCreatedEvent {
	return &LocationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLocationCreated, AggregateTypeLocation, loc.ID),
		ManagerID:       loc.ManagerID,
		Name:            loc.Name,
		City:            loc.Address.City(),
		State:           loc.Address.State(),
	}
}

// LocationUpdatedEvent is published when listing details change
type LocationUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewLocationUpdatedEvent creates a new LocationUpdatedEvent
func NewLocationUpdatedEvent(loc *Location) *LocationUpdatedEvent {
	return &LocationUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLocationUpdated, AggregateTypeLocation, loc.ID),
		Name:            loc.Name,
	}
}

// LocationRatesChangedEvent is published when rates change.
// Existing bookings are unaffected because rates are snapshotted.
type LocationRatesChangedEvent struct {
	shared.BaseDomainEvent
	KitchenHourlyRate string `json:"kitchen_hourly_rate"`
	StorageDailyRate  string `json:"storage_daily_rate"`
}

// NewLocationRatesChangedEvent creates a new LocationRatesChangedEvent
func NewLocationRatesChangedEvent(loc *Location) *LocationRatesChangedEvent {
	return &LocationRatesChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeLocationRatesChanged, AggregateTypeLocation, loc.ID),
		KitchenHourlyRate: loc.KitchenHourlyRate.StringFixed(2),
		StorageDailyRate:  loc.StorageDailyRate.StringFixed(2),
	}
}

// LocationPublishedEvent is published when a listing goes live
type LocationPublishedEvent struct {
	shared.BaseDomainEvent
	ManagerID uuid.UUID      `json:"manager_id"`
	Name      string         `json:"name"`
	OldStatus LocationStatus `json:"old_status"`
}

// NewLocationPublishedEvent creates a new LocationPublishedEvent
func NewLocationPublishedEvent(loc *Location, oldStatus LocationStatus) *LocationPublishedEvent {
	return &LocationPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLocationPublished, AggregateTypeLocation, loc.ID),
		ManagerID:       loc.ManagerID,
		Name:            loc.Name,
		OldStatus:       oldStatus,
	}
}

// LocationUnpublishedEvent is published when a listing stops taking bookings
type LocationUnpublishedEvent struct {
	shared.BaseDomainEvent
	ManagerID uuid.UUID `json:"manager_id"`
	Name      string    `json:"name"`
}

// NewLocationUnpublishedEvent creates a new LocationUnpublishedEvent
func NewLocationUnpublishedEvent(loc *Location) *LocationUnpublishedEvent {
	return &LocationUnpublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLocationUnpublished, AggregateTypeLocation, loc.ID),
		ManagerID:       loc.ManagerID,
		Name:            loc.Name,
	}
}

// LocationRequirementsReplacedEvent is published when the requirement set changes
type LocationRequirementsReplacedEvent struct {
	shared.BaseDomainEvent
	RequirementCount int `json:"requirement_count"`
	RequiredCount    int `json:"required_count"`
}

// NewLocationRequirementsReplacedEvent creates a new LocationRequirementsReplacedEvent
func NewLocationRequirementsReplacedEvent(loc *Location) *LocationRequirementsReplacedEvent {
	return &LocationRequirementsReplacedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeLocationRequirementsReplaced, AggregateTypeLocation, loc.ID),
		RequirementCount: len(loc.Requirements),
		RequiredCount:    len(loc.RequiredRequirements()),
	}
}
