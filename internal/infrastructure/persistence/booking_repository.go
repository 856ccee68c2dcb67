package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBookingRepository implements BookingRepository using GORM
type GormBookingRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormBookingRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// saveEventsToOutbox writes the aggregate's pending events to the outbox
// inside the surrounding transaction, so delivery survives a crash between
// commit and the in-process publish
func (r *GormBookingRepository) saveEventsToOutbox(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// Create persists a new booking with its items
func (r *GormBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		return r.saveEventsToOutbox(ctx, tx, b.GetDomainEvents())
	})
}

// Update persists changes to an existing booking, its items, and its refund
// ledger. The version check rejects writes against a stale read; items and
// refund rows are never removed once priced, so they are upserted in place.
func (r *GormBookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		currentVersion := b.Version
		nextVersion := currentVersion + 1
		now := time.Now()

		result := tx.Model(&booking.Booking{}).
			Where("id = ? AND version = ?", b.ID, currentVersion).
			Updates(map[string]interface{}{
				"subtotal":          b.Subtotal,
				"tax_amount":        b.TaxAmount,
				"service_fee":       b.ServiceFee,
				"total_amount":      b.TotalAmount,
				"payment_intent_id": b.PaymentIntentID,
				"payment_status":    b.PaymentStatus,
				"authorized_amount": b.AuthorizedAmount,
				"captured_amount":   b.CapturedAmount,
				"released_amount":   b.ReleasedAmount,
				"refunded_amount":   b.RefundedAmount,
				"processor_fee":     b.ProcessorFee,
				"status":            b.Status,
				"decision_deadline": b.DecisionDeadline,
				"decided_at":        b.DecidedAt,
				"completed_at":      b.CompletedAt,
				"cancelled_at":      b.CancelledAt,
				"cancel_reason":     b.CancelReason,
				"version":           nextVersion,
				"updated_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&booking.Booking{}).
				Where("id = ?", b.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The booking was modified by another request")
		}

		for i := range b.Items {
			b.Items[i].BookingID = b.ID
			if err := tx.Save(&b.Items[i]).Error; err != nil {
				return err
			}
		}
		for i := range b.Refunds {
			b.Refunds[i].BookingID = b.ID
			if err := tx.Save(&b.Refunds[i]).Error; err != nil {
				return err
			}
		}

		if err := r.saveEventsToOutbox(ctx, tx, b.GetDomainEvents()); err != nil {
			return err
		}

		b.Version = nextVersion
		b.UpdatedAt = now
		return nil
	})
}

// FindByID returns a booking with items and refunds loaded
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	if err := dbFor(ctx, r.db).
		Preload("Items").
		Preload("Refunds").
		First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindByIDForUpdate returns a booking with a row lock held for the rest of
// the surrounding transaction. Only the bookings row is locked; items and
// refunds are reached through it, so writers serialize on the root.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	if err := dbFor(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Preload("Refunds").
		First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindByNumber returns a booking by its human-facing number
func (r *GormBookingRepository) FindByNumber(ctx context.Context, bookingNumber string) (*booking.Booking, error) {
	var b booking.Booking
	if err := dbFor(ctx, r.db).
		Preload("Items").
		Preload("Refunds").
		Where("booking_number = ?", bookingNumber).
		First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindByPaymentIntentID returns the booking holding the given gateway
// authorization. Bookings without an authorization have an empty column, so
// an empty argument is rejected before it can match one of those rows.
func (r *GormBookingRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*booking.Booking, error) {
	if paymentIntentID == "" {
		return nil, shared.ErrNotFound
	}
	var b booking.Booking
	if err := dbFor(ctx, r.db).
		Preload("Items").
		Preload("Refunds").
		Where("payment_intent_id = ?", paymentIntentID).
		First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindByChefID returns the chef's bookings with pagination
func (r *GormBookingRepository) FindByChefID(ctx context.Context, chefID uuid.UUID, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&booking.Booking{}).
		Where("bookings.chef_id = ?", chefID)
	return r.findPage(query, filter)
}

// FindByLocationID returns a location's bookings with pagination
func (r *GormBookingRepository) FindByLocationID(ctx context.Context, locationID uuid.UUID, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&booking.Booking{}).
		Where("bookings.location_id = ?", locationID)
	return r.findPage(query, filter)
}

// FindByManagerID returns bookings across every location the manager owns
func (r *GormBookingRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&booking.Booking{}).
		Joins("JOIN locations ON locations.id = bookings.location_id").
		Where("locations.manager_id = ?", managerID)
	return r.findPage(query, filter)
}

// FindPendingPastDeadline returns pending bookings whose decision deadline
// has passed, oldest deadline first, for the expiry sweep
func (r *GormBookingRepository) FindPendingPastDeadline(ctx context.Context, now time.Time, limit int) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	if err := dbFor(ctx, r.db).
		Preload("Items").
		Where("status = ? AND decision_deadline <= ?", booking.BookingStatusPending, now).
		Order("decision_deadline ASC").
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindApprovedEndedBefore returns approved bookings whose last approved item
// ended before the cutoff, for the completion sweep
func (r *GormBookingRepository) FindApprovedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	if err := dbFor(ctx, r.db).
		Preload("Items").
		Where("status IN ?", []booking.BookingStatus{
			booking.BookingStatusApproved,
			booking.BookingStatusPartiallyApproved,
		}).
		Where("NOT EXISTS (SELECT 1 FROM booking_items WHERE booking_items.booking_id = bookings.id AND booking_items.status = ? AND booking_items.end_at > ?)",
			booking.ItemStatusApproved, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// HasOverlappingKitchenBooking reports whether another booking already holds
// kitchen time at the location overlapping [startAt, endAt). A hold is a
// pending or approved kitchen line on a booking that is still live.
func (r *GormBookingRepository) HasOverlappingKitchenBooking(ctx context.Context, locationID uuid.UUID, startAt, endAt time.Time, exclude *uuid.UUID) (bool, error) {
	query := dbFor(ctx, r.db).
		Model(&booking.BookingItem{}).
		Joins("JOIN bookings ON bookings.id = booking_items.booking_id").
		Where("bookings.location_id = ?", locationID).
		Where("booking_items.item_type = ?", booking.ItemTypeKitchen).
		Where("booking_items.status IN ?", []booking.BookingItemStatus{
			booking.ItemStatusPending,
			booking.ItemStatusApproved,
		}).
		Where("bookings.status IN ?", []booking.BookingStatus{
			booking.BookingStatusPending,
			booking.BookingStatusApproved,
			booking.BookingStatusPartiallyApproved,
		}).
		Where("booking_items.start_at < ? AND booking_items.end_at > ?", endAt, startAt)

	if exclude != nil {
		query = query.Where("bookings.id <> ?", *exclude)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByLocationAndStatus counts a location's bookings in the given statuses
func (r *GormBookingRepository) CountByLocationAndStatus(ctx context.Context, locationID uuid.UUID, statuses []booking.BookingStatus) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&booking.Booking{}).
		Where("location_id = ? AND status IN ?", locationID, statuses).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of bookings
func (r *GormBookingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).Model(&booking.Booking{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateBookingNumber generates a unique booking number.
// Format: BK-YYYY-NNNN (e.g., BK-2026-0001)
func (r *GormBookingRepository) GenerateBookingNumber(ctx context.Context) (string, error) {
	db := dbFor(ctx, r.db)
	year := time.Now().Year()
	prefix := fmt.Sprintf("BK-%d-", year)

	var lastNumbers []string
	err := db.Model(&booking.Booking{}).
		Where("booking_number LIKE ?", prefix+"%").
		Order("booking_number DESC").
		Limit(1).
		Pluck("booking_number", &lastNumbers).Error
	if err != nil {
		return "", err
	}

	var nextNum int64 = 1
	if len(lastNumbers) > 0 {
		parts := strings.Split(lastNumbers[0], "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	bookingNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	// The zero-padded scan covers the common case; the uniqueness check
	// catches concurrent generators racing on the same sequence value.
	for i := 0; i < 100; i++ {
		var count int64
		if err := db.Model(&booking.Booking{}).
			Where("booking_number = ?", bookingNumber).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			break
		}
		nextNum++
		bookingNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
	}

	return bookingNumber, nil
}

// findPage applies the shared filter, counts, sorts, and pages
func (r *GormBookingRepository) findPage(query *gorm.DB, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	var bookings []*booking.Booking
	var total int64

	query = r.applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := ValidateSortField(filter.SortBy, BookingSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)
	query = query.Order("bookings." + sortBy + " " + sortOrder)

	if err := query.
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Preload("Items").
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// applyFilter applies filter options to the query. The window filter keeps
// bookings holding at least one item that starts inside [from, to).
func (r *GormBookingRepository) applyFilter(query *gorm.DB, filter booking.BookingFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("bookings.status = ?", *filter.Status)
	}

	if filter.From != nil && filter.To != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM booking_items WHERE booking_items.booking_id = bookings.id AND booking_items.start_at >= ? AND booking_items.start_at < ?)",
			*filter.From, *filter.To,
		)
	} else if filter.From != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM booking_items WHERE booking_items.booking_id = bookings.id AND booking_items.start_at >= ?)",
			*filter.From,
		)
	} else if filter.To != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM booking_items WHERE booking_items.booking_id = bookings.id AND booking_items.start_at < ?)",
			*filter.To,
		)
	}

	return query
}

// Ensure GormBookingRepository implements BookingRepository
var _ booking.BookingRepository = (*GormBookingRepository)(nil)
