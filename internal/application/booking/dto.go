package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localcooks/backend/internal/domain/booking"
)

// CreateBookingRequest prices and creates a booking in one call. The card
// is authorized for the full total; no money moves until the manager decides.
type CreateBookingRequest struct {
	LocationID uuid.UUID `json:"location_id" binding:"required"`

	// PaymentMethodID is the card to authorize. Empty falls back to the
	// chef's saved default.
	PaymentMethodID string `json:"payment_method_id"`

	Items []BookingItemRequest `json:"items" binding:"required,min=1,dive"`
}

// BookingItemRequest is one requested line: kitchen hours, storage days,
// or an equipment rental
type BookingItemRequest struct {
	ItemType    string     `json:"item_type" binding:"required,oneof=KITCHEN STORAGE EQUIPMENT"`
	EquipmentID *uuid.UUID `json:"equipment_id"`
	Description string     `json:"description" binding:"max=255"`
	StartAt     time.Time  `json:"start_at" binding:"required"`
	EndAt       time.Time  `json:"end_at" binding:"required"`
}

// DecideBookingRequest carries the manager's per-item verdicts
type DecideBookingRequest struct {
	Verdicts []ItemVerdictRequest `json:"verdicts" binding:"required,min=1,dive"`
}

// ItemVerdictRequest approves or declines one booking line. Approve is a
// pointer so an explicit false still binds.
type ItemVerdictRequest struct {
	ItemID  uuid.UUID `json:"item_id" binding:"required"`
	Approve *bool     `json:"approve" binding:"required"`
}

// CancelBookingRequest is the chef's self-serve cancellation
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// RefundBookingRequest refunds one approved item or an arbitrary amount,
// never both in one call
type RefundBookingRequest struct {
	ItemID *uuid.UUID       `json:"item_id"`
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"required,min=1,max=255"`
}

// BookingListFilter narrows booking list queries
type BookingListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING APPROVED PARTIALLY_APPROVED DECLINED CANCELLED EXPIRED COMPLETED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// BookingItemResponse represents one booking line in API responses
type BookingItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ItemType       string          `json:"item_type"`
	EquipmentID    *uuid.UUID      `json:"equipment_id,omitempty"`
	Description    string          `json:"description"`
	StartAt        time.Time       `json:"start_at"`
	EndAt          time.Time       `json:"end_at"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Status         string          `json:"status"`
	TaxShare       decimal.Decimal `json:"tax_share"`
	FeeShare       decimal.Decimal `json:"fee_share"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

// RefundEntryResponse is one entry of the booking's refund ledger
type RefundEntryResponse struct {
	ID             uuid.UUID       `json:"id"`
	ItemID         *uuid.UUID      `json:"item_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	ProcessorShare decimal.Decimal `json:"processor_share"`
	Reason         string          `json:"reason"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            uuid.UUID `json:"id"`
	BookingNumber string    `json:"booking_number"`
	ChefID        uuid.UUID `json:"chef_id"`
	LocationID    uuid.UUID `json:"location_id"`
	LocationName  string    `json:"location_name"`

	Items   []BookingItemResponse `json:"items"`
	Refunds []RefundEntryResponse `json:"refunds,omitempty"`

	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	ServiceFee    decimal.Decimal `json:"service_fee"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxRateBps    int64           `json:"tax_rate_bps"`
	ServiceFeeBps int64           `json:"service_fee_bps"`

	PaymentStatus    string          `json:"payment_status"`
	AuthorizedAmount decimal.Decimal `json:"authorized_amount"`
	CapturedAmount   decimal.Decimal `json:"captured_amount"`
	ReleasedAmount   decimal.Decimal `json:"released_amount"`
	RefundedAmount   decimal.Decimal `json:"refunded_amount"`

	Status           string     `json:"status"`
	DecisionDeadline time.Time  `json:"decision_deadline"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CancelReason     string     `json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingListResult is a paginated booking list
type BookingListResult struct {
	Bookings   []BookingResponse `json:"bookings"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ToBookingItemResponse converts a domain item to its response shape
func ToBookingItemResponse(item *booking.BookingItem) BookingItemResponse {
	return BookingItemResponse{
		ID:             item.ID,
		ItemType:       item.ItemType.String(),
		EquipmentID:    item.EquipmentID,
		Description:    item.Description,
		StartAt:        item.StartAt,
		EndAt:          item.EndAt,
		Quantity:       item.Quantity,
		UnitPrice:      item.UnitPrice,
		Subtotal:       item.Subtotal,
		Status:         item.Status.String(),
		TaxShare:       item.TaxShare,
		FeeShare:       item.FeeShare,
		RefundedAmount: item.RefundedAmount,
	}
}

// ToRefundEntryResponse converts a refund ledger entry to its response shape
func ToRefundEntryResponse(entry *booking.BookingRefund) RefundEntryResponse {
	return RefundEntryResponse{
		ID:             entry.ID,
		ItemID:         entry.ItemID,
		Amount:         entry.Amount,
		ProcessorShare: entry.ProcessorShare,
		Reason:         entry.Reason,
		CreatedAt:      entry.CreatedAt,
	}
}

// ToBookingResponse converts a domain booking to its response shape
func ToBookingResponse(b *booking.Booking) BookingResponse {
	items := make([]BookingItemResponse, len(b.Items))
	for i := range b.Items {
		items[i] = ToBookingItemResponse(&b.Items[i])
	}

	var refunds []RefundEntryResponse
	if len(b.Refunds) > 0 {
		refunds = make([]RefundEntryResponse, len(b.Refunds))
		for i := range b.Refunds {
			refunds[i] = ToRefundEntryResponse(&b.Refunds[i])
		}
	}

	return BookingResponse{
		ID:               b.ID,
		BookingNumber:    b.BookingNumber,
		ChefID:           b.ChefID,
		LocationID:       b.LocationID,
		LocationName:     b.LocationName,
		Items:            items,
		Refunds:          refunds,
		Subtotal:         b.Subtotal,
		TaxAmount:        b.TaxAmount,
		ServiceFee:       b.ServiceFee,
		TotalAmount:      b.TotalAmount,
		TaxRateBps:       b.TaxRateBps,
		ServiceFeeBps:    b.ServiceFeeBps,
		PaymentStatus:    b.PaymentStatus.String(),
		AuthorizedAmount: b.AuthorizedAmount,
		CapturedAmount:   b.CapturedAmount,
		ReleasedAmount:   b.ReleasedAmount,
		RefundedAmount:   b.RefundedAmount,
		Status:           b.Status.String(),
		DecisionDeadline: b.DecisionDeadline,
		DecidedAt:        b.DecidedAt,
		CompletedAt:      b.CompletedAt,
		CancelledAt:      b.CancelledAt,
		CancelReason:     b.CancelReason,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}
