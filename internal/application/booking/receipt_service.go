package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/shared"
)

// ReceiptLine is one booking item on the receipt, with its verdict and its
// slice of the tax and service fee.
type ReceiptLine struct {
	Description string
	ItemType    string
	StartAt     time.Time
	EndAt       time.Time
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	TaxShare    decimal.Decimal
	FeeShare    decimal.Decimal
	Status      string
}

// ReceiptRefundLine is one refund ledger entry on the receipt
type ReceiptRefundLine struct {
	Amount         decimal.Decimal
	ProcessorShare decimal.Decimal
	Reason         string
	CreatedAt      time.Time
}

// ReceiptData is everything the receipt PDF shows
type ReceiptData struct {
	BookingNumber string
	LocationName  string
	ChefName      string
	Status        string
	PaymentStatus string
	IssuedAt      time.Time
	DecidedAt     time.Time

	Lines   []ReceiptLine
	Refunds []ReceiptRefundLine

	Subtotal         decimal.Decimal
	TaxAmount        decimal.Decimal
	ServiceFee       decimal.Decimal
	TotalAmount      decimal.Decimal
	AuthorizedAmount decimal.Decimal
	CapturedAmount   decimal.Decimal
	ReleasedAmount   decimal.Decimal
	RefundedAmount   decimal.Decimal
}

// ReceiptBuilder renders receipt data to a PDF document
type ReceiptBuilder interface {
	BuildReceipt(data *ReceiptData) ([]byte, error)
}

// ReceiptService produces PDF receipts for decided bookings
type ReceiptService struct {
	bookingRepo booking.BookingRepository
	userRepo    identity.UserRepository
	builder     ReceiptBuilder
	logger      *zap.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	bookingRepo booking.BookingRepository,
	userRepo identity.UserRepository,
	builder ReceiptBuilder,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		builder:     builder,
		logger:      logger,
	}
}

// Render builds the receipt PDF for one of the chef's bookings and returns
// the document bytes with a download filename. A receipt exists once the
// manager has decided; it covers the full money trail including captures,
// releases, and any refunds made since.
func (s *ReceiptService) Render(ctx context.Context, actor identity.Actor, bookingID uuid.UUID) ([]byte, string, error) {
	b, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
	}
	if b.ChefID != actor.ID && !actor.IsAdmin() {
		return nil, "", shared.NewDomainError("FORBIDDEN", "You can only view your own receipts")
	}
	if b.DecidedAt == nil {
		return nil, "", shared.NewDomainError("RECEIPT_NOT_AVAILABLE", "Receipt is available once the manager has decided")
	}

	chefName := ""
	if chef, err := s.userRepo.FindByID(ctx, b.ChefID); err == nil {
		chefName = chef.FullName()
	}

	pdf, err := s.builder.BuildReceipt(buildReceiptData(b, chefName))
	if err != nil {
		s.logger.Error("receipt build failed",
			zap.String("booking_number", b.BookingNumber),
			zap.Error(err))
		return nil, "", shared.NewDomainError("RECEIPT_FAILED", "Failed to build the receipt")
	}

	filename := fmt.Sprintf("receipt-%s.pdf", b.BookingNumber)
	return pdf, filename, nil
}

func buildReceiptData(b *booking.Booking, chefName string) *ReceiptData {
	lines := make([]ReceiptLine, len(b.Items))
	for i := range b.Items {
		item := &b.Items[i]
		lines[i] = ReceiptLine{
			Description: item.Description,
			ItemType:    item.ItemType.String(),
			StartAt:     item.StartAt,
			EndAt:       item.EndAt,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			TaxShare:    item.TaxShare,
			FeeShare:    item.FeeShare,
			Status:      item.Status.String(),
		}
	}

	refunds := make([]ReceiptRefundLine, len(b.Refunds))
	for i := range b.Refunds {
		entry := &b.Refunds[i]
		refunds[i] = ReceiptRefundLine{
			Amount:         entry.Amount,
			ProcessorShare: entry.ProcessorShare,
			Reason:         entry.Reason,
			CreatedAt:      entry.CreatedAt,
		}
	}

	return &ReceiptData{
		BookingNumber:    b.BookingNumber,
		LocationName:     b.LocationName,
		ChefName:         chefName,
		Status:           b.Status.String(),
		PaymentStatus:    b.PaymentStatus.String(),
		IssuedAt:         time.Now(),
		DecidedAt:        *b.DecidedAt,
		Lines:            lines,
		Refunds:          refunds,
		Subtotal:         b.Subtotal,
		TaxAmount:        b.TaxAmount,
		ServiceFee:       b.ServiceFee,
		TotalAmount:      b.TotalAmount,
		AuthorizedAmount: b.AuthorizedAmount,
		CapturedAmount:   b.CapturedAmount,
		ReleasedAmount:   b.ReleasedAmount,
		RefundedAmount:   b.RefundedAmount,
	}
}
