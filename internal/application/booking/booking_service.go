package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/kitchenapp"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

const defaultSweepBatch = 50

// BookingServiceConfig carries the tunables of the booking lifecycle
type BookingServiceConfig struct {
	// PendingDecisionWindow caps how long a booking may wait for the
	// manager's decision before the card hold is released.
	PendingDecisionWindow time.Duration

	// AbsorbProcessorFee makes item refunds send back the full item worth
	// instead of deducting the processor's non-returnable share.
	AbsorbProcessorFee bool
}

// DefaultBookingServiceConfig returns the default booking tunables
func DefaultBookingServiceConfig() BookingServiceConfig {
	return BookingServiceConfig{
		PendingDecisionWindow: 48 * time.Hour,
		AbsorbProcessorFee:    false,
	}
}

// BookingService handles booking lifecycle use cases: pricing and creating
// bookings, the manager's per-item decision, cancellations, refunds, and the
// expiry and completion sweeps. Every path that moves money at the gateway
// runs inside a transaction with the booking row locked.
type BookingService struct {
	bookingRepo     booking.BookingRepository
	locationRepo    location.LocationRepository
	applicationRepo kitchenapp.ApplicationRepository
	userRepo        identity.UserRepository
	gateway         payment.Gateway
	txManager       shared.TxManager
	config          BookingServiceConfig
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo booking.BookingRepository,
	locationRepo location.LocationRepository,
	applicationRepo kitchenapp.ApplicationRepository,
	userRepo identity.UserRepository,
	gateway payment.Gateway,
	txManager shared.TxManager,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:     bookingRepo,
		locationRepo:    locationRepo,
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		gateway:         gateway,
		txManager:       txManager,
		config:          DefaultBookingServiceConfig(),
		logger:          logger,
	}
}

// SetConfig overrides the default tunables
func (s *BookingService) SetConfig(config BookingServiceConfig) {
	if config.PendingDecisionWindow <= 0 {
		config.PendingDecisionWindow = DefaultBookingServiceConfig().PendingDecisionWindow
	}
	s.config = config
}

// SetEventPublisher sets the publisher that fans out domain events to
// notification handlers and the live feed
func (s *BookingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents drains the aggregate's pending events onto the bus. Event
// delivery is asynchronous; a publish failure never fails the operation.
func (s *BookingService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}

// Create prices the requested items against the location's current rates,
// authorizes the chef's card for the total, and files the booking for the
// manager's decision. No money is captured here; the hold either converts
// at decision time or is released.
func (s *BookingService) Create(ctx context.Context, actor identity.Actor, req *CreateBookingRequest) (*BookingResponse, error) {
	loc, err := s.locationRepo.FindByID(ctx, req.LocationID)
	if err != nil {
		return nil, shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}
	if !loc.AcceptsBookings() {
		return nil, shared.NewDomainError("LOCATION_NOT_AVAILABLE", "Location is not accepting bookings")
	}

	hasApproval, err := s.applicationRepo.HasApprovedApplication(ctx, actor.ID, loc.ID)
	if err != nil {
		s.logger.Error("failed to check application approval",
			zap.String("chef_id", actor.ID.String()),
			zap.String("location_id", loc.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to verify kitchen access")
	}
	if !hasApproval {
		return nil, shared.NewDomainError("APPLICATION_REQUIRED", "An approved application is required to book this kitchen")
	}

	bookingNumber, err := s.bookingRepo.GenerateBookingNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking number: %w", err)
	}

	b, err := booking.NewBooking(bookingNumber, actor.ID, loc.ID, loc.Name,
		loc.TaxRateBps, loc.ServiceFeeBps,
		loc.Policy.FreeCancelHours, loc.Policy.LateCancelCapturePercent)
	if err != nil {
		return nil, err
	}

	for i := range req.Items {
		if err := s.addRequestedItem(ctx, b, loc, &req.Items[i]); err != nil {
			return nil, err
		}
	}

	if !b.GetTotalAmountMoney().IsPositive() {
		return nil, shared.NewDomainError("ZERO_AMOUNT", "Booking total must be positive")
	}

	chef, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if chef.StripeCustomerID == "" {
		customerID, err := s.gateway.EnsureCustomer(ctx, payment.CustomerParams{
			UserID: chef.ID,
			Email:  chef.Email,
			Name:   chef.FullName(),
		})
		if err != nil {
			s.logger.Error("failed to create gateway customer",
				zap.String("user_id", chef.ID.String()),
				zap.Error(err))
			return nil, shared.NewDomainError("PAYMENT_FAILED", "Failed to set up the payment profile")
		}
		if err := chef.AttachStripeCustomer(customerID); err != nil {
			return nil, err
		}
		if err := s.userRepo.Update(ctx, chef); err != nil {
			return nil, fmt.Errorf("failed to save payment profile: %w", err)
		}
	}

	paymentMethodID := req.PaymentMethodID
	if paymentMethodID == "" {
		paymentMethodID = chef.DefaultPaymentMethodID
	}
	if paymentMethodID == "" {
		return nil, shared.NewDomainError("NO_PAYMENT_METHOD", "A payment method is required to book")
	}

	auth, err := s.gateway.Authorize(ctx, payment.AuthorizeRequest{
		CustomerID:      chef.StripeCustomerID,
		PaymentMethodID: paymentMethodID,
		Amount:          b.GetTotalAmountMoney(),
		Description:     fmt.Sprintf("Booking %s at %s", b.BookingNumber, b.LocationName),
		IdempotencyKey:  b.BookingNumber,
		Metadata: map[string]string{
			"booking_id":     b.ID.String(),
			"booking_number": b.BookingNumber,
		},
	})
	if err != nil {
		if errors.Is(err, payment.ErrAuthorizationDeclined) {
			return nil, shared.NewDomainError("CARD_DECLINED", "The card was declined")
		}
		s.logger.Error("card authorization failed",
			zap.String("booking_number", b.BookingNumber),
			zap.Error(err))
		return nil, shared.NewDomainError("PAYMENT_FAILED", "Failed to authorize the payment")
	}

	if err := b.AttachAuthorization(auth.IntentID, s.config.PendingDecisionWindow); err != nil {
		s.releaseOrphanedHold(ctx, auth.IntentID, b.BookingNumber)
		return nil, err
	}

	if err := s.bookingRepo.Create(ctx, b); err != nil {
		s.releaseOrphanedHold(ctx, auth.IntentID, b.BookingNumber)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	// Remember the card for next time; claim charges also rely on it.
	if req.PaymentMethodID != "" && chef.DefaultPaymentMethodID != req.PaymentMethodID {
		chef.SetDefaultPaymentMethod(req.PaymentMethodID)
		if err := s.userRepo.Update(ctx, chef); err != nil {
			s.logger.Warn("failed to save default payment method",
				zap.String("user_id", chef.ID.String()),
				zap.Error(err))
		}
	}

	s.publishEvents(ctx, b)

	s.logger.Info("booking created",
		zap.String("booking_number", b.BookingNumber),
		zap.String("chef_id", b.ChefID.String()),
		zap.String("location_id", b.LocationID.String()),
		zap.String("total_amount", b.TotalAmount.String()))

	response := ToBookingResponse(b)
	return &response, nil
}

// GetForChef returns one of the chef's own bookings
func (s *BookingService) GetForChef(ctx context.Context, actor identity.Actor, bookingID uuid.UUID) (*BookingResponse, error) {
	b, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
	}
	if b.ChefID != actor.ID && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only view your own bookings")
	}

	response := ToBookingResponse(b)
	return &response, nil
}

// ListForChef returns the chef's bookings, filtered and paginated
func (s *BookingService) ListForChef(ctx context.Context, actor identity.Actor, filter *BookingListFilter) (*BookingListResult, error) {
	f := buildBookingFilter(filter)

	bookings, total, err := s.bookingRepo.FindByChefID(ctx, actor.ID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return buildBookingListResult(bookings, total, f), nil
}

// GetForManager returns a booking at one of the manager's locations
func (s *BookingService) GetForManager(ctx context.Context, actor identity.Actor, bookingID uuid.UUID) (*BookingResponse, error) {
	b, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
	}
	if err := s.authorizeManager(ctx, actor, b); err != nil {
		return nil, err
	}

	response := ToBookingResponse(b)
	return &response, nil
}

// ListForManager returns bookings across every location the manager owns
func (s *BookingService) ListForManager(ctx context.Context, actor identity.Actor, filter *BookingListFilter) (*BookingListResult, error) {
	f := buildBookingFilter(filter)

	bookings, total, err := s.bookingRepo.FindByManagerID(ctx, actor.ID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return buildBookingListResult(bookings, total, f), nil
}

// Decide records the manager's per-item verdicts, captures the approved
// part of the hold, and lets the gateway release the rest. The booking row
// stays locked for the duration so a concurrent decision or the expiry
// sweep cannot interleave; a failed capture rolls everything back and the
// booking stays pending.
func (s *BookingService) Decide(ctx context.Context, actor identity.Actor, bookingID uuid.UUID, req *DecideBookingRequest) (*BookingResponse, error) {
	verdicts := make([]booking.ItemVerdict, 0, len(req.Verdicts))
	for _, v := range req.Verdicts {
		if v.Approve == nil {
			return nil, shared.NewDomainError("INVALID_VERDICT", "Each verdict needs an approve value")
		}
		verdicts = append(verdicts, booking.ItemVerdict{ItemID: v.ItemID, Approve: *v.Approve})
	}

	var response *BookingResponse
	var decided *booking.Booking
	err := s.txManager.InTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.FindByIDForUpdate(txCtx, bookingID)
		if err != nil {
			return shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
		}
		if err := s.authorizeManager(txCtx, actor, b); err != nil {
			return err
		}

		outcome, err := b.Decide(verdicts, time.Now())
		if err != nil {
			return err
		}

		if outcome.RequiresCapture() {
			result, err := s.gateway.Capture(txCtx, b.PaymentIntentID, outcome.CaptureAmount)
			if err != nil {
				s.logger.Error("capture failed",
					zap.String("booking_number", b.BookingNumber),
					zap.String("capture_amount", outcome.CaptureAmount.String()),
					zap.Error(err))
				return shared.NewDomainError("CAPTURE_FAILED", "Failed to capture the payment")
			}
			if result.ProcessorFee.IsPositive() {
				if err := b.RecordProcessorFee(result.ProcessorFee); err != nil {
					return err
				}
			}
		} else {
			if err := s.gateway.Release(txCtx, b.PaymentIntentID); err != nil {
				s.logger.Error("release failed",
					zap.String("booking_number", b.BookingNumber),
					zap.Error(err))
				return shared.NewDomainError("RELEASE_FAILED", "Failed to release the payment hold")
			}
		}

		if err := s.bookingRepo.Update(txCtx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		s.logger.Info("booking decided",
			zap.String("booking_number", b.BookingNumber),
			zap.Int("approved", outcome.ApprovedCount),
			zap.Int("declined", outcome.DeclinedCount),
			zap.String("captured", outcome.CaptureAmount.String()))

		r := ToBookingResponse(b)
		response = &r
		decided = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, decided)
	return response, nil
}

// Cancel is the chef's self-serve cancellation. Pending bookings cancel
// free; approved ones follow the location's cancellation policy snapshot.
func (s *BookingService) Cancel(ctx context.Context, actor identity.Actor, bookingID uuid.UUID, req *CancelBookingRequest) (*BookingResponse, error) {
	var response *BookingResponse
	var cancelled *booking.Booking
	err := s.txManager.InTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.FindByIDForUpdate(txCtx, bookingID)
		if err != nil {
			return shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
		}
		if b.ChefID != actor.ID && !actor.IsAdmin() {
			return shared.NewDomainError("FORBIDDEN", "You can only cancel your own bookings")
		}

		outcome, err := b.Cancel(req.Reason, time.Now())
		if err != nil {
			return err
		}

		if outcome.ReleaseAuthorization {
			if err := s.gateway.Release(txCtx, b.PaymentIntentID); err != nil {
				s.logger.Error("release failed",
					zap.String("booking_number", b.BookingNumber),
					zap.Error(err))
				return shared.NewDomainError("RELEASE_FAILED", "Failed to release the payment hold")
			}
		}

		if outcome.RefundAmount.IsPositive() {
			result, err := s.gateway.Refund(txCtx, payment.RefundRequest{
				IntentID:       b.PaymentIntentID,
				Amount:         outcome.RefundAmount,
				Reason:         "requested_by_customer",
				IdempotencyKey: b.BookingNumber + "-cancel",
			})
			if err != nil {
				s.logger.Error("cancellation refund failed",
					zap.String("booking_number", b.BookingNumber),
					zap.String("refund_amount", outcome.RefundAmount.String()),
					zap.Error(err))
				return shared.NewDomainError("REFUND_FAILED", "Failed to refund the payment")
			}
			if err := b.RecordRefund(nil, outcome.RefundAmount, valueobject.ZeroUSD(), "Cancellation refund", result.RefundID); err != nil {
				return err
			}
		}

		if err := s.bookingRepo.Update(txCtx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		s.logger.Info("booking cancelled",
			zap.String("booking_number", b.BookingNumber),
			zap.Bool("free", outcome.FreeCancellation),
			zap.String("refunded", outcome.RefundAmount.String()),
			zap.String("kept", outcome.KeptAmount.String()))

		r := ToBookingResponse(b)
		response = &r
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, cancelled)
	return response, nil
}

// Complete closes an approved booking after its last approved item has
// ended, which opens the damage-claim window.
func (s *BookingService) Complete(ctx context.Context, actor identity.Actor, bookingID uuid.UUID) (*BookingResponse, error) {
	b, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
	}
	if err := s.authorizeManager(ctx, actor, b); err != nil {
		return nil, err
	}

	if err := b.Complete(time.Now()); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.publishEvents(ctx, b)

	response := ToBookingResponse(b)
	return &response, nil
}

// Refund sends captured money back to the chef. An item refund returns the
// item's subtotal plus its tax and fee shares, minus a proportional cut of
// the processor fee unless the platform absorbs it; an amount refund sends
// back exactly what the manager asked for. Both are capped at the captured
// amount not yet refunded.
func (s *BookingService) Refund(ctx context.Context, actor identity.Actor, bookingID uuid.UUID, req *RefundBookingRequest) (*BookingResponse, error) {
	if (req.ItemID == nil) == (req.Amount == nil) {
		return nil, shared.NewDomainError("INVALID_REFUND", "Provide exactly one of item_id or amount")
	}

	var response *BookingResponse
	var refunded *booking.Booking
	err := s.txManager.InTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.FindByIDForUpdate(txCtx, bookingID)
		if err != nil {
			return shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
		}
		if err := s.authorizeManager(txCtx, actor, b); err != nil {
			return err
		}

		refundAmount := valueobject.ZeroUSD()
		processorShare := valueobject.ZeroUSD()

		if req.ItemID != nil {
			base, err := b.ItemRefundBase(*req.ItemID)
			if err != nil {
				return err
			}
			if !s.config.AbsorbProcessorFee && b.GetProcessorFeeMoney().IsPositive() {
				processorShare, err = b.GetProcessorFeeMoney().ProportionOf(base, b.GetCapturedAmountMoney())
				if err != nil {
					return fmt.Errorf("failed to compute processor share: %w", err)
				}
			}
			refundAmount = base.MustSubtract(processorShare)
		} else {
			if !b.PaymentStatus.HoldsFunds() {
				return shared.NewDomainError("REFUND_NOT_AVAILABLE", "Booking has no captured payment to refund")
			}
			refundAmount = valueobject.NewMoneyUSD(*req.Amount)
		}

		if !refundAmount.IsPositive() {
			return shared.NewDomainError("INVALID_REFUND", "Refund amount must be positive")
		}
		if over, _ := refundAmount.GreaterThan(b.RefundableAmount()); over {
			return shared.NewDomainError("REFUND_EXCEEDS_REFUNDABLE", "Refund exceeds the remaining captured amount")
		}

		result, err := s.gateway.Refund(txCtx, payment.RefundRequest{
			IntentID:       b.PaymentIntentID,
			Amount:         refundAmount,
			Reason:         req.Reason,
			IdempotencyKey: fmt.Sprintf("%s-refund-%d", b.BookingNumber, len(b.Refunds)+1),
		})
		if err != nil {
			s.logger.Error("refund failed",
				zap.String("booking_number", b.BookingNumber),
				zap.String("refund_amount", refundAmount.String()),
				zap.Error(err))
			return shared.NewDomainError("REFUND_FAILED", "Failed to refund the payment")
		}

		if err := b.RecordRefund(req.ItemID, refundAmount, processorShare, req.Reason, result.RefundID); err != nil {
			return err
		}

		if err := s.bookingRepo.Update(txCtx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		s.logger.Info("booking refunded",
			zap.String("booking_number", b.BookingNumber),
			zap.String("refund_amount", refundAmount.String()),
			zap.String("processor_share", processorShare.String()))

		r := ToBookingResponse(b)
		response = &r
		refunded = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, refunded)
	return response, nil
}

// ExpireOverdue releases the holds of pending bookings whose decision
// deadline has passed. The scheduler calls it on an interval; it returns
// how many bookings it expired.
func (s *BookingService) ExpireOverdue(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}

	overdue, err := s.bookingRepo.FindPendingPastDeadline(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue bookings: %w", err)
	}

	expired := 0
	for _, candidate := range overdue {
		id := candidate.ID
		var swept *booking.Booking
		err := s.txManager.InTx(ctx, func(txCtx context.Context) error {
			b, err := s.bookingRepo.FindByIDForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			// Decided or cancelled between the scan and the lock.
			if b.Status != booking.BookingStatusPending {
				return nil
			}
			if err := b.Expire(time.Now()); err != nil {
				return err
			}
			if b.PaymentIntentID != "" {
				if err := s.gateway.Release(txCtx, b.PaymentIntentID); err != nil {
					return fmt.Errorf("failed to release authorization: %w", err)
				}
			}
			if err := s.bookingRepo.Update(txCtx, b); err != nil {
				return err
			}
			swept = b
			return nil
		})
		if err != nil {
			s.logger.Error("failed to expire booking",
				zap.String("booking_id", id.String()),
				zap.Error(err))
			continue
		}
		if swept != nil {
			s.publishEvents(ctx, swept)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info("expired overdue bookings", zap.Int("count", expired))
	}
	return expired, nil
}

// CompleteElapsed closes approved bookings whose last approved item has
// ended, so damage-claim windows open without waiting for the manager.
func (s *BookingService) CompleteElapsed(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}

	ended, err := s.bookingRepo.FindApprovedEndedBefore(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load elapsed bookings: %w", err)
	}

	completed := 0
	for _, candidate := range ended {
		id := candidate.ID
		var swept *booking.Booking
		err := s.txManager.InTx(ctx, func(txCtx context.Context) error {
			b, err := s.bookingRepo.FindByIDForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			if b.Status != booking.BookingStatusApproved && b.Status != booking.BookingStatusPartiallyApproved {
				return nil
			}
			if err := b.Complete(time.Now()); err != nil {
				return err
			}
			if err := s.bookingRepo.Update(txCtx, b); err != nil {
				return err
			}
			swept = b
			return nil
		})
		if err != nil {
			s.logger.Error("failed to complete booking",
				zap.String("booking_id", id.String()),
				zap.Error(err))
			continue
		}
		if swept != nil {
			s.publishEvents(ctx, swept)
			completed++
		}
	}

	if completed > 0 {
		s.logger.Info("completed elapsed bookings", zap.Int("count", completed))
	}
	return completed, nil
}

// addRequestedItem prices one requested line against the location and adds
// it to the booking.
func (s *BookingService) addRequestedItem(ctx context.Context, b *booking.Booking, loc *location.Location, item *BookingItemRequest) error {
	window, err := valueobject.NewTimeRange(item.StartAt, item.EndAt)
	if err != nil {
		return shared.NewDomainError("INVALID_WINDOW", "Item window must end after it starts")
	}
	description := strings.TrimSpace(item.Description)

	switch booking.ItemType(item.ItemType) {
	case booking.ItemTypeKitchen:
		taken, err := s.bookingRepo.HasOverlappingKitchenBooking(ctx, loc.ID, window.Start(), window.End(), nil)
		if err != nil {
			return fmt.Errorf("failed to check kitchen availability: %w", err)
		}
		if taken {
			return shared.NewDomainError("KITCHEN_UNAVAILABLE", "The kitchen is already booked for part of the requested window")
		}
		if description == "" {
			description = "Kitchen time"
		}
		_, err = b.AddKitchenItem(description, window, loc.GetKitchenHourlyRateMoney())
		return err

	case booking.ItemTypeStorage:
		if description == "" {
			description = "Storage space"
		}
		_, err := b.AddStorageItem(description, window, loc.GetStorageDailyRateMoney())
		return err

	case booking.ItemTypeEquipment:
		if item.EquipmentID == nil {
			return shared.NewDomainError("EQUIPMENT_REQUIRED", "Equipment items need an equipment_id")
		}
		equipment, err := loc.GetEquipmentItem(*item.EquipmentID)
		if err != nil {
			return err
		}
		if description == "" {
			description = equipment.Name
		}
		_, err = b.AddEquipmentItem(*item.EquipmentID, description, window, equipment.GetDailyRateMoney())
		return err

	default:
		return shared.NewDomainError("INVALID_ITEM_TYPE", "Unknown booking item type")
	}
}

// authorizeManager checks that the actor manages the booking's location
func (s *BookingService) authorizeManager(ctx context.Context, actor identity.Actor, b *booking.Booking) error {
	loc, err := s.locationRepo.FindByID(ctx, b.LocationID)
	if err != nil {
		return shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}
	if !loc.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "You do not manage this location")
	}
	return nil
}

// releaseOrphanedHold cancels an authorization that never made it onto a
// saved booking. Best effort; the hold expires at the gateway regardless.
func (s *BookingService) releaseOrphanedHold(ctx context.Context, intentID, bookingNumber string) {
	if err := s.gateway.Release(ctx, intentID); err != nil {
		s.logger.Error("failed to release orphaned authorization",
			zap.String("booking_number", bookingNumber),
			zap.String("payment_intent_id", intentID),
			zap.Error(err))
	}
}

func buildBookingFilter(filter *BookingListFilter) booking.BookingFilter {
	f := booking.NewBookingFilter()
	if filter == nil {
		return f
	}
	if filter.Status != "" {
		f = f.WithStatus(booking.BookingStatus(filter.Status))
	}
	if filter.Page > 0 || filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pageSize := filter.PageSize
		if pageSize < 1 {
			pageSize = 20
		}
		f = f.WithPagination(page, pageSize)
	}
	return f
}

func buildBookingListResult(bookings []*booking.Booking, total int64, f booking.BookingFilter) *BookingListResult {
	responses := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		responses[i] = ToBookingResponse(b)
	}

	totalPages := int(total) / f.PageSize
	if int(total)%f.PageSize > 0 {
		totalPages++
	}

	return &BookingListResult{
		Bookings:   responses,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}
}
