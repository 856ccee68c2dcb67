package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence port for bookings
type BookingRepository interface {
	// Create persists a new booking with its items
	Create(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking, its items, and its
	// refund ledger, guarded by the aggregate version
	Update(ctx context.Context, b *Booking) error

	// FindByID returns a booking with items and refunds loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate returns a booking with a row lock held for the
	// rest of the surrounding transaction; decision and refund paths use
	// this to serialize money movements per booking
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber returns a booking by its human-facing number
	FindByNumber(ctx context.Context, bookingNumber string) (*Booking, error)

	// FindByPaymentIntentID returns the booking holding the given gateway
	// authorization; webhook handlers correlate events through this
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Booking, error)

	// FindByChefID returns the chef's bookings with pagination
	FindByChefID(ctx context.Context, chefID uuid.UUID, filter BookingFilter) ([]*Booking, int64, error)

	// FindByLocationID returns a location's bookings with pagination
	FindByLocationID(ctx context.Context, locationID uuid.UUID, filter BookingFilter) ([]*Booking, int64, error)

	// FindByManagerID returns bookings across every location the manager
	// owns; backs the manager's booking queue
	FindByManagerID(ctx context.Context, managerID uuid.UUID, filter BookingFilter) ([]*Booking, int64, error)

	// FindPendingPastDeadline returns pending bookings whose decision
	// deadline has passed, oldest first, for the expiry sweep
	FindPendingPastDeadline(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	// FindApprovedEndedBefore returns approved bookings whose last item
	// ended before the cutoff, for the completion sweep
	FindApprovedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Booking, error)

	// HasOverlappingKitchenBooking reports whether another booking already
	// holds kitchen time at the location overlapping [startAt, endAt).
	// Only pending and approved holds block; exclude skips the booking
	// being built when it is already persisted.
	HasOverlappingKitchenBooking(ctx context.Context, locationID uuid.UUID, startAt, endAt time.Time, exclude *uuid.UUID) (bool, error)

	// CountByLocationAndStatus counts a location's bookings in the given
	// statuses; the location delete guard uses this
	CountByLocationAndStatus(ctx context.Context, locationID uuid.UUID, statuses []BookingStatus) (int64, error)

	// Count returns the total number of bookings
	Count(ctx context.Context) (int64, error)

	// GenerateBookingNumber returns the next BK-<year>-<seq> number,
	// retrying on unique-index collisions
	GenerateBookingNumber(ctx context.Context) (string, error)
}

// BookingFilter defines filtering options for booking queries
type BookingFilter struct {
	Status    *BookingStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NewBookingFilter creates a filter with sensible defaults
func NewBookingFilter() BookingFilter {
	return BookingFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithStatus filters by booking status
func (f BookingFilter) WithStatus(status BookingStatus) BookingFilter {
	f.Status = &status
	return f
}

// WithWindow keeps bookings whose items start inside [from, to)
func (f BookingFilter) WithWindow(from, to time.Time) BookingFilter {
	f.From = &from
	f.To = &to
	return f
}

// WithPagination sets the page and page size
func (f BookingFilter) WithPagination(page, pageSize int) BookingFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the query offset
func (f BookingFilter) Offset() int {
	if f.Page < 1 {
		f.Page = 1
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the query limit
func (f BookingFilter) Limit() int {
	if f.PageSize < 1 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
