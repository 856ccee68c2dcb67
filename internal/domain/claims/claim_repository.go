package claims

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClaimRepository defines the persistence port for damage claims
type ClaimRepository interface {
	// Create persists a new claim with its evidence
	Create(ctx context.Context, claim *DamageClaim) error

	// Update persists changes to an existing claim, guarded by the
	// aggregate version
	Update(ctx context.Context, claim *DamageClaim) error

	// FindByID returns a claim with evidence loaded
	FindByID(ctx context.Context, id uuid.UUID) (*DamageClaim, error)

	// FindByIDForUpdate returns a claim with a row lock held for the rest
	// of the surrounding transaction; the charge path uses this to keep
	// attempts serialized
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*DamageClaim, error)

	// FindByNumber returns a claim by its human-facing number
	FindByNumber(ctx context.Context, claimNumber string) (*DamageClaim, error)

	// FindByBookingID returns every claim filed against a booking
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*DamageClaim, error)

	// FindActiveByBookingID returns the open or disputed claim on a
	// booking, if any; filing is blocked while one exists
	FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*DamageClaim, error)

	// FindByChefID returns claims against the chef with pagination
	FindByChefID(ctx context.Context, chefID uuid.UUID, filter ClaimFilter) ([]*DamageClaim, int64, error)

	// FindByLocationID returns a location's claims with pagination
	FindByLocationID(ctx context.Context, locationID uuid.UUID, filter ClaimFilter) ([]*DamageClaim, int64, error)

	// FindByManagerID returns claims the manager filed with pagination
	FindByManagerID(ctx context.Context, managerID uuid.UUID, filter ClaimFilter) ([]*DamageClaim, int64, error)

	// FindAll returns claims across the platform for the admin queue
	FindAll(ctx context.Context, filter ClaimFilter) ([]*DamageClaim, int64, error)

	// FindOpenPastDeadline returns open claims whose response deadline has
	// passed, oldest first, for the uncontested sweep
	FindOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]*DamageClaim, error)

	// FindRetryableCharges returns chargeable claims whose last charge
	// attempt failed and that still have attempts left
	FindRetryableCharges(ctx context.Context, maxAttempts int, limit int) ([]*DamageClaim, error)

	// Count returns the total number of claims
	Count(ctx context.Context) (int64, error)

	// GenerateClaimNumber produces the next claim number (DC-<year>-<seq>)
	GenerateClaimNumber(ctx context.Context) (string, error)
}

// ClaimFilter defines filtering options for claim queries
type ClaimFilter struct {
	Status       *ClaimStatus
	ChargeStatus *ChargeStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// NewClaimFilter creates a filter with sensible defaults
func NewClaimFilter() ClaimFilter {
	return ClaimFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithStatus filters by claim status
func (f ClaimFilter) WithStatus(status ClaimStatus) ClaimFilter {
	f.Status = &status
	return f
}

// WithChargeStatus filters by charge status
func (f ClaimFilter) WithChargeStatus(status ChargeStatus) ClaimFilter {
	f.ChargeStatus = &status
	return f
}

// WithPagination sets the page and page size
func (f ClaimFilter) WithPagination(page, pageSize int) ClaimFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the query offset
func (f ClaimFilter) Offset() int {
	if f.Page < 1 {
		f.Page = 1
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the query limit
func (f ClaimFilter) Limit() int {
	if f.PageSize < 1 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
