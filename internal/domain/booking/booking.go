package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending           BookingStatus = "PENDING"
	BookingStatusApproved          BookingStatus = "APPROVED"
	BookingStatusPartiallyApproved BookingStatus = "PARTIALLY_APPROVED"
	BookingStatusDeclined          BookingStatus = "DECLINED"
	BookingStatusCancelled         BookingStatus = "CANCELLED"
	BookingStatusExpired           BookingStatus = "EXPIRED"
	BookingStatusCompleted         BookingStatus = "COMPLETED"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusPartiallyApproved,
		BookingStatusDeclined, BookingStatusCancelled, BookingStatusExpired, BookingStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return target == BookingStatusApproved || target == BookingStatusPartiallyApproved ||
			target == BookingStatusDeclined || target == BookingStatusCancelled ||
			target == BookingStatusExpired
	case BookingStatusApproved, BookingStatusPartiallyApproved:
		return target == BookingStatusCancelled || target == BookingStatusCompleted
	case BookingStatusDeclined, BookingStatusCancelled, BookingStatusExpired, BookingStatusCompleted:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states that allow no further transitions
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusDeclined, BookingStatusCancelled, BookingStatusExpired, BookingStatusCompleted:
		return true
	}
	return false
}

// PaymentStatus tracks the card authorization through capture and refunds
type PaymentStatus string

const (
	PaymentStatusRequiresCapture   PaymentStatus = "REQUIRES_CAPTURE"
	PaymentStatusCaptured          PaymentStatus = "CAPTURED"
	PaymentStatusPartiallyCaptured PaymentStatus = "PARTIALLY_CAPTURED"
	PaymentStatusReleased          PaymentStatus = "RELEASED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusRequiresCapture, PaymentStatusCaptured, PaymentStatusPartiallyCaptured,
		PaymentStatusReleased, PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// HoldsFunds returns true while captured money can still be refunded
func (s PaymentStatus) HoldsFunds() bool {
	switch s {
	case PaymentStatusCaptured, PaymentStatusPartiallyCaptured, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// ItemType classifies what a booking line reserves
type ItemType string

const (
	ItemTypeKitchen   ItemType = "KITCHEN"   // Billed per started hour
	ItemTypeStorage   ItemType = "STORAGE"   // Billed per started day
	ItemTypeEquipment ItemType = "EQUIPMENT" // Billed per started day
)

// IsValid checks if the item type is valid
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeKitchen, ItemTypeStorage, ItemTypeEquipment:
		return true
	}
	return false
}

// String returns the string representation of ItemType
func (t ItemType) String() string {
	return string(t)
}

// BookingItemStatus represents the status of a single booking line
type BookingItemStatus string

const (
	ItemStatusPending   BookingItemStatus = "PENDING"
	ItemStatusApproved  BookingItemStatus = "APPROVED"
	ItemStatusDeclined  BookingItemStatus = "DECLINED"
	ItemStatusCancelled BookingItemStatus = "CANCELLED"
	ItemStatusRefunded  BookingItemStatus = "REFUNDED"
)

// IsValid checks if the status is a valid BookingItemStatus
func (s BookingItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusDeclined, ItemStatusCancelled, ItemStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of BookingItemStatus
func (s BookingItemStatus) String() string {
	return string(s)
}

// BookingItem is one reserved resource inside a booking: kitchen hours,
// storage days, or an equipment rental. Rates are snapshots taken from the
// location at creation; later rate edits never touch existing bookings.
type BookingItem struct {
	shared.BaseEntity
	BookingID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemType    ItemType   `gorm:"type:varchar(20);not null"`
	EquipmentID *uuid.UUID `gorm:"type:uuid"`
	Description string     `gorm:"type:varchar(255);not null"`
	StartAt     time.Time  `gorm:"not null"`
	EndAt       time.Time  `gorm:"not null"`

	// Quantity is billed hours for kitchen items and billed days for
	// storage and equipment items, derived from the window.
	Quantity  int64             `gorm:"not null"`
	UnitPrice decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Subtotal  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Status    BookingItemStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`

	// Allocation results, written once at decision time. Every cent of the
	// booking's tax and service fee lands on exactly one item.
	TaxShare       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FeeShare       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RefundedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (BookingItem) TableName() string {
	return "booking_items"
}

func newBookingItem(bookingID uuid.UUID, itemType ItemType, equipmentID *uuid.UUID, description string, window valueobject.TimeRange, unitPrice valueobject.Money) (*BookingItem, error) {
	if !itemType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ITEM_TYPE", "Unknown booking item type")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item description cannot be empty")
	}
	if window.IsZero() {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Item window cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	var quantity int64
	if itemType == ItemTypeKitchen {
		quantity = window.BillableHours()
	} else {
		quantity = window.BillableDays()
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}

	subtotal := unitPrice.Amount().Mul(decimal.NewFromInt(quantity))

	return &BookingItem{
		BaseEntity:     shared.NewBaseEntity(),
		BookingID:      bookingID,
		ItemType:       itemType,
		EquipmentID:    equipmentID,
		Description:    description,
		StartAt:        window.Start(),
		EndAt:          window.End(),
		Quantity:       quantity,
		UnitPrice:      unitPrice.Amount(),
		Subtotal:       subtotal,
		Status:         ItemStatusPending,
		TaxShare:       decimal.Zero,
		FeeShare:       decimal.Zero,
		RefundedAmount: decimal.Zero,
	}, nil
}

// Window returns the item's reservation window
func (i *BookingItem) Window() valueobject.TimeRange {
	return valueobject.MustNewTimeRange(i.StartAt, i.EndAt)
}

// GetSubtotalMoney returns the line subtotal as Money value object
func (i *BookingItem) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Subtotal)
}

// GetUnitPriceMoney returns the unit price as Money value object
func (i *BookingItem) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitPrice)
}

// RefundBase returns what the item is worth on the captured payment:
// its subtotal plus the tax and fee shares allocated to it.
func (i *BookingItem) RefundBase() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Subtotal.Add(i.TaxShare).Add(i.FeeShare))
}

// IsApproved returns true if the manager approved this line
func (i *BookingItem) IsApproved() bool {
	return i.Status == ItemStatusApproved
}

// BookingRefund is one entry in the booking's refund ledger
type BookingRefund struct {
	shared.BaseEntity
	BookingID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID          *uuid.UUID      `gorm:"type:uuid"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ProcessorShare  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reason          string          `gorm:"type:varchar(255);not null"`
	GatewayRefundID string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (BookingRefund) TableName() string {
	return "booking_refunds"
}

// ItemVerdict is one manager decision on one booking line
type ItemVerdict struct {
	ItemID  uuid.UUID
	Approve bool
}

// DecisionOutcome tells the application layer what to do at the payment
// gateway after a decision: capture CaptureAmount, or release everything.
type DecisionOutcome struct {
	CaptureAmount valueobject.Money
	ReleaseAmount valueobject.Money
	AllApproved   bool
	AllDeclined   bool
	ApprovedCount int
	DeclinedCount int
}

// RequiresCapture returns true when money must be captured at the gateway
func (o *DecisionOutcome) RequiresCapture() bool {
	return o.CaptureAmount.IsPositive()
}

// CancelOutcome tells the application layer what to do at the payment
// gateway after a cancellation.
type CancelOutcome struct {
	// ReleaseAuthorization is set when the booking was still pending and
	// the uncaptured authorization should be cancelled at the gateway.
	ReleaseAuthorization bool

	// RefundAmount is the captured money to send back; zero means no
	// gateway refund call is needed.
	RefundAmount valueobject.Money

	// KeptAmount is what the cancellation policy lets the platform keep.
	KeptAmount valueobject.Money

	FreeCancellation bool
}

// Booking is the aggregate root for a chef's reservation at a location.
// It owns the pricing snapshot, the card authorization lifecycle, the
// manager's per-item decision with proportional tax and fee allocation,
// cancellation policy math, and the refund ledger.
type Booking struct {
	shared.BaseAggregateRoot
	BookingNumber string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	ChefID        uuid.UUID `gorm:"type:uuid;not null;index"`
	LocationID    uuid.UUID `gorm:"type:uuid;not null;index"`
	LocationName  string    `gorm:"type:varchar(200);not null"`

	Items   []BookingItem   `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	Refunds []BookingRefund `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`

	// Pricing snapshot, fixed at creation.
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ServiceFee    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRateBps    int64           `gorm:"not null;default:0"`
	ServiceFeeBps int64           `gorm:"not null;default:0"`

	// Cancellation policy snapshot from the location.
	FreeCancelHours          int `gorm:"not null;default:0"`
	LateCancelCapturePercent int `gorm:"not null;default:0"`

	// Payment block. AuthorizedAmount is fixed when the card hold is
	// attached; afterwards CapturedAmount + ReleasedAmount always equals
	// AuthorizedAmount once a decision or expiry has run.
	PaymentIntentID  string          `gorm:"type:varchar(100);index"`
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(30)"`
	AuthorizedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CapturedAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReleasedAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RefundedAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProcessorFee     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Status           BookingStatus `gorm:"type:varchar(30);not null;default:'PENDING'"`
	DecisionDeadline time.Time
	DecidedAt        *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a new booking shell in PENDING status. Items are added
// next, then AttachAuthorization freezes the pricing and opens the decision
// window. The number comes from the booking number generator.
func NewBooking(bookingNumber string, chefID, locationID uuid.UUID, locationName string, taxRateBps, serviceFeeBps int64, freeCancelHours, lateCancelCapturePercent int) (*Booking, error) {
	if bookingNumber == "" {
		return nil, shared.NewDomainError("INVALID_BOOKING_NUMBER", "Booking number cannot be empty")
	}
	if len(bookingNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_BOOKING_NUMBER", "Booking number cannot exceed 50 characters")
	}
	if chefID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHEF", "Chef ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if locationName == "" {
		return nil, shared.NewDomainError("INVALID_LOCATION_NAME", "Location name cannot be empty")
	}
	if taxRateBps < 0 || taxRateBps > 10000 {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 10000 basis points")
	}
	if serviceFeeBps < 0 || serviceFeeBps > 10000 {
		return nil, shared.NewDomainError("INVALID_SERVICE_FEE", "Service fee must be between 0 and 10000 basis points")
	}
	if freeCancelHours < 0 {
		return nil, shared.NewDomainError("INVALID_POLICY", "Free cancel hours cannot be negative")
	}
	if lateCancelCapturePercent < 0 || lateCancelCapturePercent > 100 {
		return nil, shared.NewDomainError("INVALID_POLICY", "Late cancel capture percent must be between 0 and 100")
	}

	return &Booking{
		BaseAggregateRoot:        shared.NewBaseAggregateRoot(),
		BookingNumber:            bookingNumber,
		ChefID:                   chefID,
		LocationID:               locationID,
		LocationName:             locationName,
		Items:                    make([]BookingItem, 0),
		Refunds:                  make([]BookingRefund, 0),
		Subtotal:                 decimal.Zero,
		TaxAmount:                decimal.Zero,
		ServiceFee:               decimal.Zero,
		TotalAmount:              decimal.Zero,
		TaxRateBps:               taxRateBps,
		ServiceFeeBps:            serviceFeeBps,
		FreeCancelHours:          freeCancelHours,
		LateCancelCapturePercent: lateCancelCapturePercent,
		AuthorizedAmount:         decimal.Zero,
		CapturedAmount:           decimal.Zero,
		ReleasedAmount:           decimal.Zero,
		RefundedAmount:           decimal.Zero,
		ProcessorFee:             decimal.Zero,
		Status:                   BookingStatusPending,
	}, nil
}

// AddKitchenItem reserves kitchen time, billed per started hour. Kitchen
// windows inside one booking must not overlap each other.
func (b *Booking) AddKitchenItem(description string, window valueobject.TimeRange, hourlyRate valueobject.Money) (*BookingItem, error) {
	for i := range b.Items {
		if b.Items[i].ItemType == ItemTypeKitchen && b.Items[i].Window().Overlaps(window) {
			return nil, shared.NewDomainError("OVERLAPPING_WINDOW", "Kitchen windows in a booking cannot overlap")
		}
	}
	return b.addItem(ItemTypeKitchen, nil, description, window, hourlyRate)
}

// AddStorageItem reserves cold or dry storage, billed per started day
func (b *Booking) AddStorageItem(description string, window valueobject.TimeRange, dailyRate valueobject.Money) (*BookingItem, error) {
	return b.addItem(ItemTypeStorage, nil, description, window, dailyRate)
}

// AddEquipmentItem rents a piece of the location's equipment, billed per
// started day at the rate snapshotted from the equipment list.
func (b *Booking) AddEquipmentItem(equipmentID uuid.UUID, name string, window valueobject.TimeRange, dailyRate valueobject.Money) (*BookingItem, error) {
	if equipmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EQUIPMENT", "Equipment ID cannot be empty")
	}
	return b.addItem(ItemTypeEquipment, &equipmentID, name, window, dailyRate)
}

func (b *Booking) addItem(itemType ItemType, equipmentID *uuid.UUID, description string, window valueobject.TimeRange, unitPrice valueobject.Money) (*BookingItem, error) {
	if b.Status != BookingStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a decided booking")
	}
	if b.PaymentIntentID != "" {
		return nil, shared.NewDomainError("PRICING_FROZEN", "Cannot add items after the card has been authorized")
	}

	item, err := newBookingItem(b.ID, itemType, equipmentID, description, window, unitPrice)
	if err != nil {
		return nil, err
	}

	b.Items = append(b.Items, *item)
	b.recalculateTotals()
	b.UpdatedAt = time.Now()

	return item, nil
}

// recalculateTotals rebuilds the pricing block from the items
func (b *Booking) recalculateTotals() {
	subtotal := decimal.Zero
	for i := range b.Items {
		subtotal = subtotal.Add(b.Items[i].Subtotal)
	}

	subtotalMoney := valueobject.NewMoneyUSD(subtotal)
	tax := subtotalMoney.CalculateBasisPoints(b.TaxRateBps)
	fee := subtotalMoney.CalculateBasisPoints(b.ServiceFeeBps)

	b.Subtotal = subtotal
	b.TaxAmount = tax.Amount()
	b.ServiceFee = fee.Amount()
	b.TotalAmount = subtotal.Add(tax.Amount()).Add(fee.Amount())
}

// AttachAuthorization records the card hold placed for the full total and
// opens the decision window. The deadline is the earliest item start or
// CreatedAt plus the pending window, whichever comes first.
func (b *Booking) AttachAuthorization(paymentIntentID string, pendingWindow time.Duration) error {
	if b.Status != BookingStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot authorize a decided booking")
	}
	if b.PaymentIntentID != "" {
		return shared.NewDomainError("ALREADY_AUTHORIZED", "Booking already has a payment authorization")
	}
	if paymentIntentID == "" {
		return shared.NewDomainError("INVALID_INTENT", "Payment intent ID cannot be empty")
	}
	if len(b.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot authorize a booking without items")
	}
	if !b.TotalAmount.IsPositive() {
		return shared.NewDomainError("ZERO_AMOUNT", "Cannot authorize a zero-amount booking")
	}
	if pendingWindow <= 0 {
		return shared.NewDomainError("INVALID_WINDOW", "Pending decision window must be positive")
	}

	deadline := b.CreatedAt.Add(pendingWindow)
	if earliest := b.EarliestStartAt(); earliest != nil && earliest.Before(deadline) {
		deadline = *earliest
	}

	b.PaymentIntentID = paymentIntentID
	b.PaymentStatus = PaymentStatusRequiresCapture
	b.AuthorizedAmount = b.TotalAmount
	b.DecisionDeadline = deadline
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBookingCreatedEvent(b))

	return nil
}

// Decide applies the manager's per-item verdicts, at most once, while the
// booking is PENDING and before the decision deadline.
//
// Tax and service fee are allocated across all items proportional to item
// subtotals; leftover cents go to the earliest items. The capture amount is
// the approved subtotals plus their allocated shares, so captured plus
// released always equals the authorized total to the cent.
func (b *Booking) Decide(verdicts []ItemVerdict, now time.Time) (*DecisionOutcome, error) {
	if b.Status != BookingStatusPending || b.DecidedAt != nil {
		return nil, shared.NewDomainError("ALREADY_DECIDED", "Booking has already been decided")
	}
	if b.PaymentIntentID == "" {
		return nil, shared.NewDomainError("NOT_AUTHORIZED", "Booking has no payment authorization")
	}
	if !now.Before(b.DecisionDeadline) {
		return nil, shared.NewDomainError("DECISION_DEADLINE_PASSED", "The decision window for this booking has closed")
	}
	if len(verdicts) != len(b.Items) {
		return nil, shared.NewDomainError("INCOMPLETE_DECISION", "Every item needs exactly one verdict")
	}

	verdictByItem := make(map[uuid.UUID]bool, len(verdicts))
	for _, v := range verdicts {
		if _, dup := verdictByItem[v.ItemID]; dup {
			return nil, shared.NewDomainError("DUPLICATE_VERDICT", "Item has more than one verdict")
		}
		verdictByItem[v.ItemID] = v.Approve
	}
	for i := range b.Items {
		if _, ok := verdictByItem[b.Items[i].ID]; !ok {
			return nil, shared.NewDomainError("INCOMPLETE_DECISION", "Every item needs exactly one verdict")
		}
	}

	// Spread tax and fee across all items by subtotal weight. Declined
	// items keep their shares too; those cents ride in the released amount.
	weights := make([]decimal.Decimal, len(b.Items))
	for i := range b.Items {
		weights[i] = b.Items[i].Subtotal
	}
	taxShares, err := valueobject.NewMoneyUSD(b.TaxAmount).AllocateByWeights(weights)
	if err != nil {
		return nil, shared.NewDomainError("ALLOCATION_FAILED", fmt.Sprintf("Cannot allocate tax: %v", err))
	}
	feeShares, err := valueobject.NewMoneyUSD(b.ServiceFee).AllocateByWeights(weights)
	if err != nil {
		return nil, shared.NewDomainError("ALLOCATION_FAILED", fmt.Sprintf("Cannot allocate service fee: %v", err))
	}

	capture := valueobject.ZeroUSD()
	approvedCount := 0
	for i := range b.Items {
		b.Items[i].TaxShare = taxShares[i].Amount()
		b.Items[i].FeeShare = feeShares[i].Amount()
		b.Items[i].UpdatedAt = now

		if verdictByItem[b.Items[i].ID] {
			b.Items[i].Status = ItemStatusApproved
			approvedCount++
			capture = capture.MustAdd(b.Items[i].GetSubtotalMoney()).
				MustAdd(taxShares[i]).
				MustAdd(feeShares[i])
		} else {
			b.Items[i].Status = ItemStatusDeclined
		}
	}

	total := valueobject.NewMoneyUSD(b.TotalAmount)
	release := total.MustSubtract(capture)

	outcome := &DecisionOutcome{
		CaptureAmount: capture,
		ReleaseAmount: release,
		AllApproved:   approvedCount == len(b.Items),
		AllDeclined:   approvedCount == 0,
		ApprovedCount: approvedCount,
		DeclinedCount: len(b.Items) - approvedCount,
	}

	switch {
	case outcome.AllApproved:
		b.Status = BookingStatusApproved
		b.PaymentStatus = PaymentStatusCaptured
	case outcome.AllDeclined:
		b.Status = BookingStatusDeclined
		b.PaymentStatus = PaymentStatusReleased
	default:
		b.Status = BookingStatusPartiallyApproved
		b.PaymentStatus = PaymentStatusPartiallyCaptured
	}

	b.CapturedAmount = capture.Amount()
	b.ReleasedAmount = release.Amount()
	b.DecidedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBookingDecidedEvent(b, outcome))

	return outcome, nil
}

// RecordProcessorFee stores the fee the gateway reported for the capture
func (b *Booking) RecordProcessorFee(fee valueobject.Money) error {
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Processor fee cannot be negative")
	}
	if !b.PaymentStatus.HoldsFunds() {
		return shared.NewDomainError("INVALID_STATE", "No captured payment to attach a fee to")
	}

	b.ProcessorFee = fee.Amount()
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// Cancel is the chef's self-serve cancellation.
//
// A pending booking cancels free: the authorization is released in full.
// After approval the location's policy applies: a cancellation at least
// FreeCancelHours before the earliest approved start refunds the whole
// capture; inside that window the platform keeps LateCancelCapturePercent
// of it. Once the earliest approved item has started, self-serve
// cancellation is closed and only a manager refund can move money.
func (b *Booking) Cancel(reason string, now time.Time) (*CancelOutcome, error) {
	reason = strings.TrimSpace(reason)

	switch b.Status {
	case BookingStatusPending:
		for i := range b.Items {
			b.Items[i].Status = ItemStatusCancelled
			b.Items[i].UpdatedAt = now
		}
		if b.PaymentIntentID != "" {
			b.PaymentStatus = PaymentStatusReleased
			b.ReleasedAmount = b.AuthorizedAmount
		}
		b.Status = BookingStatusCancelled
		b.CancelledAt = &now
		b.CancelReason = reason
		b.UpdatedAt = now
		b.IncrementVersion()

		outcome := &CancelOutcome{
			ReleaseAuthorization: b.PaymentIntentID != "",
			RefundAmount:         valueobject.ZeroUSD(),
			KeptAmount:           valueobject.ZeroUSD(),
			FreeCancellation:     true,
		}
		b.AddDomainEvent(NewBookingCancelledEvent(b, outcome))
		return outcome, nil

	case BookingStatusApproved, BookingStatusPartiallyApproved:
		start := b.EarliestApprovedStartAt()
		if start == nil {
			return nil, shared.NewDomainError("INVALID_STATE", "Approved booking has no approved items")
		}
		if !now.Before(*start) {
			return nil, shared.NewDomainError("CANCEL_WINDOW_CLOSED", "Booking has started; ask the manager for a refund")
		}

		captured := valueobject.NewMoneyUSD(b.CapturedAmount)
		refundable := valueobject.NewMoneyUSD(b.CapturedAmount.Sub(b.RefundedAmount))
		kept := valueobject.ZeroUSD()
		refund := refundable
		free := start.Sub(now) >= time.Duration(b.FreeCancelHours)*time.Hour

		if !free {
			kept = captured.CalculatePercentage(decimal.NewFromInt(int64(b.LateCancelCapturePercent))).Round(2)
			refund = captured.MustSubtract(kept)
			if over, _ := refund.GreaterThan(refundable); over {
				refund = refundable
			}
		}
		if refund.IsNegative() {
			refund = valueobject.ZeroUSD()
		}

		for i := range b.Items {
			if b.Items[i].Status == ItemStatusApproved {
				b.Items[i].Status = ItemStatusCancelled
				b.Items[i].UpdatedAt = now
			}
		}
		b.Status = BookingStatusCancelled
		b.CancelledAt = &now
		b.CancelReason = reason
		b.UpdatedAt = now
		b.IncrementVersion()

		outcome := &CancelOutcome{
			RefundAmount:     refund,
			KeptAmount:       kept,
			FreeCancellation: free,
		}
		b.AddDomainEvent(NewBookingCancelledEvent(b, outcome))
		return outcome, nil

	default:
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel a booking in %s status", b.Status))
	}
}

// ItemRefundBase validates that the item can be refunded and returns its
// worth on the captured payment: subtotal plus allocated tax and fee shares.
func (b *Booking) ItemRefundBase(itemID uuid.UUID) (valueobject.Money, error) {
	if !b.PaymentStatus.HoldsFunds() {
		return valueobject.Money{}, shared.NewDomainError("REFUND_NOT_AVAILABLE", "Booking has no captured payment to refund")
	}

	item, err := b.GetItem(itemID)
	if err != nil {
		return valueobject.Money{}, err
	}
	if item.Status != ItemStatusApproved {
		return valueobject.Money{}, shared.NewDomainError("ITEM_NOT_REFUNDABLE", "Only an approved item can be refunded")
	}

	return item.RefundBase(), nil
}

// RefundableAmount returns how much captured money has not been refunded yet
func (b *Booking) RefundableAmount() valueobject.Money {
	remaining := b.CapturedAmount.Sub(b.RefundedAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return valueobject.NewMoneyUSD(remaining)
}

// RecordRefund books a refund that the gateway accepted: it appends to the
// refund ledger, rolls the refunded total forward, and, for item refunds,
// closes the item. Exceeding the refundable remainder is a precondition
// violation; the caller checks before hitting the gateway and this guard
// is the last line of defense.
func (b *Booking) RecordRefund(itemID *uuid.UUID, amount, processorShare valueobject.Money, reason, gatewayRefundID string) error {
	if !b.PaymentStatus.HoldsFunds() {
		return shared.NewDomainError("REFUND_NOT_AVAILABLE", "Booking has no captured payment to refund")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_REFUND", "Refund amount must be positive")
	}
	if processorShare.IsNegative() {
		return shared.NewDomainError("INVALID_REFUND", "Processor share cannot be negative")
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		return shared.NewDomainError("INVALID_REFUND", "Refund reason cannot be empty")
	}
	if over, _ := amount.GreaterThan(b.RefundableAmount()); over {
		return shared.NewDomainError("REFUND_EXCEEDS_REFUNDABLE", "Refund exceeds the remaining captured amount")
	}

	now := time.Now()
	if itemID != nil {
		item, err := b.GetItem(*itemID)
		if err != nil {
			return err
		}
		if item.Status != ItemStatusApproved {
			return shared.NewDomainError("ITEM_NOT_REFUNDABLE", "Only an approved item can be refunded")
		}
		item.Status = ItemStatusRefunded
		item.RefundedAmount = amount.Amount()
		item.UpdatedAt = now
	}

	entry := BookingRefund{
		BaseEntity:      shared.NewBaseEntity(),
		BookingID:       b.ID,
		ItemID:          itemID,
		Amount:          amount.Amount(),
		ProcessorShare:  processorShare.Amount(),
		Reason:          reason,
		GatewayRefundID: gatewayRefundID,
	}
	b.Refunds = append(b.Refunds, entry)

	b.RefundedAmount = b.RefundedAmount.Add(amount.Amount())
	if b.RefundedAmount.GreaterThanOrEqual(b.CapturedAmount) {
		b.PaymentStatus = PaymentStatusRefunded
	} else {
		b.PaymentStatus = PaymentStatusPartiallyRefunded
	}
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBookingRefundedEvent(b, &entry))

	return nil
}

// Complete closes an approved booking after its last approved item has
// ended. Completion is what opens the damage-claim window for the manager.
func (b *Booking) Complete(now time.Time) error {
	if !b.Status.CanTransitionTo(BookingStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete a booking in %s status", b.Status))
	}
	end := b.LatestApprovedEndAt()
	if end == nil {
		return shared.NewDomainError("INVALID_STATE", "Booking has no approved items")
	}
	if now.Before(*end) {
		return shared.NewDomainError("BOOKING_STILL_ACTIVE", "Cannot complete before the last approved item ends")
	}

	b.Status = BookingStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBookingCompletedEvent(b))

	return nil
}

// Expire closes a pending booking whose decision window ran out. The sweep
// releases the authorization at the gateway after this succeeds.
func (b *Booking) Expire(now time.Time) error {
	if b.Status != BookingStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only a pending booking can expire")
	}
	if now.Before(b.DecisionDeadline) {
		return shared.NewDomainError("NOT_EXPIRED", "Decision deadline has not passed")
	}

	for i := range b.Items {
		b.Items[i].Status = ItemStatusCancelled
		b.Items[i].UpdatedAt = now
	}

	b.Status = BookingStatusExpired
	if b.PaymentIntentID != "" {
		b.PaymentStatus = PaymentStatusReleased
		b.ReleasedAmount = b.AuthorizedAmount
	}
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBookingExpiredEvent(b))

	return nil
}

// GetItem returns an item by ID
func (b *Booking) GetItem(itemID uuid.UUID) (*BookingItem, error) {
	for i := range b.Items {
		if b.Items[i].ID == itemID {
			return &b.Items[i], nil
		}
	}
	return nil, shared.NewDomainError("ITEM_NOT_FOUND", "Booking item not found")
}

// ApprovedItems returns the items the manager approved
func (b *Booking) ApprovedItems() []*BookingItem {
	approved := make([]*BookingItem, 0, len(b.Items))
	for i := range b.Items {
		if b.Items[i].Status == ItemStatusApproved {
			approved = append(approved, &b.Items[i])
		}
	}
	return approved
}

// EarliestStartAt returns the earliest item start across all items
func (b *Booking) EarliestStartAt() *time.Time {
	var earliest *time.Time
	for i := range b.Items {
		start := b.Items[i].StartAt
		if earliest == nil || start.Before(*earliest) {
			earliest = &start
		}
	}
	return earliest
}

// EarliestApprovedStartAt returns the earliest start among approved items.
// Refunded items count: they were approved when the window was granted.
func (b *Booking) EarliestApprovedStartAt() *time.Time {
	var earliest *time.Time
	for i := range b.Items {
		if b.Items[i].Status != ItemStatusApproved && b.Items[i].Status != ItemStatusRefunded {
			continue
		}
		start := b.Items[i].StartAt
		if earliest == nil || start.Before(*earliest) {
			earliest = &start
		}
	}
	return earliest
}

// LatestApprovedEndAt returns the latest end among approved items
func (b *Booking) LatestApprovedEndAt() *time.Time {
	var latest *time.Time
	for i := range b.Items {
		if b.Items[i].Status != ItemStatusApproved && b.Items[i].Status != ItemStatusRefunded {
			continue
		}
		end := b.Items[i].EndAt
		if latest == nil || end.After(*latest) {
			latest = &end
		}
	}
	return latest
}

// CanDecide returns true while the manager can still rule on the booking
func (b *Booking) CanDecide(now time.Time) bool {
	return b.Status == BookingStatusPending && b.DecidedAt == nil &&
		b.PaymentIntentID != "" && now.Before(b.DecisionDeadline)
}

// GetSubtotalMoney returns the subtotal as Money value object
func (b *Booking) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(b.Subtotal)
}

// GetTaxAmountMoney returns the tax amount as Money value object
func (b *Booking) GetTaxAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(b.TaxAmount)
}

// GetServiceFeeMoney returns the service fee as Money value object
func (b *Booking) GetServiceFeeMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(b.ServiceFee)
}

// GetTotalAmountMoney returns the total as Money value object
func (b *Booking) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(b.TotalAmount)
}

// GetCapturedAmountMoney returns the captured amount as Money value object
func (b *Booking) GetCapturedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(b.CapturedAmount)
}

// GetProcessorFeeMoney returns the processor fee as Money value object
func (b *Booking) GetProcessorFeeMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(b.ProcessorFee)
}
