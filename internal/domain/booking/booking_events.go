package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeBooking = "Booking"

// Event type constants
const (
	EventTypeBookingCreated   = "BookingCreated"
	EventTypeBookingDecided   = "BookingDecided"
	EventTypeBookingCancelled = "BookingCancelled"
	EventTypeBookingRefunded  = "BookingRefunded"
	EventTypeBookingCompleted = "BookingCompleted"
	EventTypeBookingExpired   = "BookingExpired"
)

// BookingItemInfo represents item information for events
type BookingItemInfo struct {
	ItemID      uuid.UUID       `json:"item_id"`
	ItemType    string          `json:"item_type"`
	Description string          `json:"description"`
	StartAt     time.Time       `json:"start_at"`
	EndAt       time.Time       `json:"end_at"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxShare    decimal.Decimal `json:"tax_share"`
	FeeShare    decimal.Decimal `json:"fee_share"`
	Status      string          `json:"status"`
}

func itemInfos(items []BookingItem) []BookingItemInfo {
	infos := make([]BookingItemInfo, len(items))
	for i, item := range items {
		infos[i] = BookingItemInfo{
			ItemID:      item.ID,
			ItemType:    item.ItemType.String(),
			Description: item.Description,
			StartAt:     item.StartAt,
			EndAt:       item.EndAt,
			Subtotal:    item.Subtotal,
			TaxShare:    item.TaxShare,
			FeeShare:    item.FeeShare,
			Status:      item.Status.String(),
		}
	}
	return infos
}

// BookingCreatedEvent is raised when a booking is authorized and enters the
// manager's pending queue
type BookingCreatedEvent struct {
	shared.BaseDomainEvent
	BookingID        uuid.UUID         `json:"booking_id"`
	BookingNumber    string            `json:"booking_number"`
	ChefID           uuid.UUID         `json:"chef_id"`
	LocationID       uuid.UUID         `json:"location_id"`
	LocationName     string            `json:"location_name"`
	Items            []BookingItemInfo `json:"items"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	DecisionDeadline time.Time         `json:"decision_deadline"`
}

// NewBookingCreatedEvent creates a new BookingCreatedEvent
func NewBookingCreatedEvent(b *Booking) *BookingCreatedEvent {
	return &BookingCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBookingCreated, AggregateTypeBooking, b.ID),
		BookingID:        b.ID,
		BookingNumber:    b.BookingNumber,
		ChefID:           b.ChefID,
		LocationID:       b.LocationID,
		LocationName:     b.LocationName,
		Items:            itemInfos(b.Items),
		TotalAmount:      b.TotalAmount,
		DecisionDeadline: b.DecisionDeadline,
	}
}

// EventType returns the event type name
func (e *BookingCreatedEvent) EventType() string {
	return EventTypeBookingCreated
}

// BookingDecidedEvent is raised when the manager rules on a booking.
// Capture and release amounts are final; notification and feed consumers
// read the per-item statuses from Items.
type BookingDecidedEvent struct {
	shared.BaseDomainEvent
	BookingID        uuid.UUID         `json:"booking_id"`
	BookingNumber    string            `json:"booking_number"`
	ChefID           uuid.UUID         `json:"chef_id"`
	LocationID       uuid.UUID         `json:"location_id"`
	Status           string            `json:"status"`
	Items            []BookingItemInfo `json:"items"`
	AuthorizedAmount decimal.Decimal   `json:"authorized_amount"`
	CapturedAmount   decimal.Decimal   `json:"captured_amount"`
	ReleasedAmount   decimal.Decimal   `json:"released_amount"`
	ApprovedCount    int               `json:"approved_count"`
	DeclinedCount    int               `json:"declined_count"`
}

// NewBookingDecidedEvent creates a new BookingDecidedEvent
func NewBookingDecidedEvent(b *Booking, outcome *DecisionOutcome) *BookingDecidedEvent {
	return &BookingDecidedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBookingDecided, AggregateTypeBooking, b.ID),
		BookingID:        b.ID,
		BookingNumber:    b.BookingNumber,
		ChefID:           b.ChefID,
		LocationID:       b.LocationID,
		Status:           b.Status.String(),
		Items:            itemInfos(b.Items),
		AuthorizedAmount: b.AuthorizedAmount,
		CapturedAmount:   b.CapturedAmount,
		ReleasedAmount:   b.ReleasedAmount,
		ApprovedCount:    outcome.ApprovedCount,
		DeclinedCount:    outcome.DeclinedCount,
	}
}

// EventType returns the event type name
func (e *BookingDecidedEvent) EventType() string {
	return EventTypeBookingDecided
}

// BookingCancelledEvent is raised when the chef cancels a booking
type BookingCancelledEvent struct {
	shared.BaseDomainEvent
	BookingID        uuid.UUID       `json:"booking_id"`
	BookingNumber    string          `json:"booking_number"`
	ChefID           uuid.UUID       `json:"chef_id"`
	LocationID       uuid.UUID       `json:"location_id"`
	CancelReason     string          `json:"cancel_reason"`
	WasPending       bool            `json:"was_pending"`
	FreeCancellation bool            `json:"free_cancellation"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	KeptAmount       decimal.Decimal `json:"kept_amount"`
}

// NewBookingCancelledEvent creates a new BookingCancelledEvent
func NewBookingCancelledEvent(b *Booking, outcome *CancelOutcome) *BookingCancelledEvent {
	return &BookingCancelledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBookingCancelled, AggregateTypeBooking, b.ID),
		BookingID:        b.ID,
		BookingNumber:    b.BookingNumber,
		ChefID:           b.ChefID,
		LocationID:       b.LocationID,
		CancelReason:     b.CancelReason,
		WasPending:       outcome.ReleaseAuthorization,
		FreeCancellation: outcome.FreeCancellation,
		RefundAmount:     outcome.RefundAmount.Amount(),
		KeptAmount:       outcome.KeptAmount.Amount(),
	}
}

// EventType returns the event type name
func (e *BookingCancelledEvent) EventType() string {
	return EventTypeBookingCancelled
}

// BookingRefundedEvent is raised when a refund is recorded against the
// captured payment
type BookingRefundedEvent struct {
	shared.BaseDomainEvent
	BookingID       uuid.UUID       `json:"booking_id"`
	BookingNumber   string          `json:"booking_number"`
	ChefID          uuid.UUID       `json:"chef_id"`
	ItemID          *uuid.UUID      `json:"item_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	ProcessorShare  decimal.Decimal `json:"processor_share"`
	Reason          string          `json:"reason"`
	GatewayRefundID string          `json:"gateway_refund_id"`
	PaymentStatus   string          `json:"payment_status"`
}

// NewBookingRefundedEvent creates a new BookingRefundedEvent
func NewBookingRefundedEvent(b *Booking, entry *BookingRefund) *BookingRefundedEvent {
	return &BookingRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingRefunded, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		BookingNumber:   b.BookingNumber,
		ChefID:          b.ChefID,
		ItemID:          entry.ItemID,
		Amount:          entry.Amount,
		ProcessorShare:  entry.ProcessorShare,
		Reason:          entry.Reason,
		GatewayRefundID: entry.GatewayRefundID,
		PaymentStatus:   b.PaymentStatus.String(),
	}
}

// EventType returns the event type name
func (e *BookingRefundedEvent) EventType() string {
	return EventTypeBookingRefunded
}

// BookingCompletedEvent is raised when a booking completes. It opens the
// damage-claim window for the location manager.
type BookingCompletedEvent struct {
	shared.BaseDomainEvent
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ChefID        uuid.UUID `json:"chef_id"`
	LocationID    uuid.UUID `json:"location_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

// NewBookingCompletedEvent creates a new BookingCompletedEvent
func NewBookingCompletedEvent(b *Booking) *BookingCompletedEvent {
	completedAt := b.UpdatedAt
	if b.CompletedAt != nil {
		completedAt = *b.CompletedAt
	}
	return &BookingCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingCompleted, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		BookingNumber:   b.BookingNumber,
		ChefID:          b.ChefID,
		LocationID:      b.LocationID,
		CompletedAt:     completedAt,
	}
}

// EventType returns the event type name
func (e *BookingCompletedEvent) EventType() string {
	return EventTypeBookingCompleted
}

// BookingExpiredEvent is raised when a pending booking outlives its
// decision deadline and the sweep releases the authorization
type BookingExpiredEvent struct {
	shared.BaseDomainEvent
	BookingID        uuid.UUID       `json:"booking_id"`
	BookingNumber    string          `json:"booking_number"`
	ChefID           uuid.UUID       `json:"chef_id"`
	LocationID       uuid.UUID       `json:"location_id"`
	DecisionDeadline time.Time       `json:"decision_deadline"`
	ReleasedAmount   decimal.Decimal `json:"released_amount"`
}

// NewBookingExpiredEvent creates a new BookingExpiredEvent
func NewBookingExpiredEvent(b *Booking) *BookingExpiredEvent {
	return &BookingExpiredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBookingExpired, AggregateTypeBooking, b.ID),
		BookingID:        b.ID,
		BookingNumber:    b.BookingNumber,
		ChefID:           b.ChefID,
		LocationID:       b.LocationID,
		DecisionDeadline: b.DecisionDeadline,
		ReleasedAmount:   b.ReleasedAmount,
	}
}

// EventType returns the event type name
func (e *BookingExpiredEvent) EventType() string {
	return EventTypeBookingExpired
}
