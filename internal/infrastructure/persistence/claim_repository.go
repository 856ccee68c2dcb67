package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClaimRepository implements ClaimRepository using GORM
type GormClaimRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormClaimRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// saveEventsToOutbox writes the aggregate's pending events to the outbox
// inside the surrounding transaction, so delivery survives a crash between
// commit and the in-process publish
func (r *GormClaimRepository) saveEventsToOutbox(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// Create persists a new claim with its evidence
func (r *GormClaimRepository) Create(ctx context.Context, claim *claims.DamageClaim) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(claim).Error; err != nil {
			return err
		}
		return r.saveEventsToOutbox(ctx, tx, claim.GetDomainEvents())
	})
}

// Update persists changes to an existing claim. The version check rejects
// writes against a stale read; evidence rows are append-only and upserted.
func (r *GormClaimRepository) Update(ctx context.Context, claim *claims.DamageClaim) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		currentVersion := claim.Version
		nextVersion := currentVersion + 1
		now := time.Now()

		result := tx.Model(&claims.DamageClaim{}).
			Where("id = ? AND version = ?", claim.ID, currentVersion).
			Updates(map[string]interface{}{
				"final_amount":      claim.FinalAmount,
				"status":            claim.Status,
				"response_note":     claim.ResponseNote,
				"responded_at":      claim.RespondedAt,
				"adjudicator_id":    claim.AdjudicatorID,
				"adjudication_note": claim.AdjudicationNote,
				"adjudicated_at":    claim.AdjudicatedAt,
				"charge_status":     claim.ChargeStatus,
				"charge_id":         claim.ChargeID,
				"charge_attempts":   claim.ChargeAttempts,
				"last_charge_error": claim.LastChargeError,
				"charged_at":        claim.ChargedAt,
				"version":           nextVersion,
				"updated_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&claims.DamageClaim{}).
				Where("id = ?", claim.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The claim was modified by another request")
		}

		for i := range claim.Evidence {
			claim.Evidence[i].ClaimID = claim.ID
			if err := tx.Save(&claim.Evidence[i]).Error; err != nil {
				return err
			}
		}

		if err := r.saveEventsToOutbox(ctx, tx, claim.GetDomainEvents()); err != nil {
			return err
		}

		claim.Version = nextVersion
		claim.UpdatedAt = now
		return nil
	})
}

// FindByID returns a claim with evidence loaded
func (r *GormClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*claims.DamageClaim, error) {
	var claim claims.DamageClaim
	if err := dbFor(ctx, r.db).
		Preload("Evidence").
		First(&claim, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// FindByIDForUpdate returns a claim with a row lock held for the rest of the
// surrounding transaction; the charge path uses this to serialize attempts
func (r *GormClaimRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*claims.DamageClaim, error) {
	var claim claims.DamageClaim
	if err := dbFor(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Evidence").
		First(&claim, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// FindByNumber returns a claim by its human-facing number
func (r *GormClaimRepository) FindByNumber(ctx context.Context, claimNumber string) (*claims.DamageClaim, error) {
	var claim claims.DamageClaim
	if err := dbFor(ctx, r.db).
		Preload("Evidence").
		Where("claim_number = ?", claimNumber).
		First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// FindByBookingID returns every claim filed against a booking, oldest first
func (r *GormClaimRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*claims.DamageClaim, error) {
	var results []*claims.DamageClaim
	if err := dbFor(ctx, r.db).
		Preload("Evidence").
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindActiveByBookingID returns the open or disputed claim on a booking.
// Returns nil without an error when the booking has no active claim.
func (r *GormClaimRepository) FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*claims.DamageClaim, error) {
	var claim claims.DamageClaim
	err := dbFor(ctx, r.db).
		Preload("Evidence").
		Where("booking_id = ?", bookingID).
		Where("status IN ?", []claims.ClaimStatus{
			claims.ClaimStatusOpen,
			claims.ClaimStatusDisputed,
		}).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// FindByChefID returns claims against the chef with pagination
func (r *GormClaimRepository) FindByChefID(ctx context.Context, chefID uuid.UUID, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&claims.DamageClaim{}).
		Where("chef_id = ?", chefID)
	return r.findPage(query, filter)
}

// FindByLocationID returns a location's claims with pagination
func (r *GormClaimRepository) FindByLocationID(ctx context.Context, locationID uuid.UUID, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&claims.DamageClaim{}).
		Where("location_id = ?", locationID)
	return r.findPage(query, filter)
}

// FindByManagerID returns claims the manager filed with pagination
func (r *GormClaimRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&claims.DamageClaim{}).
		Where("manager_id = ?", managerID)
	return r.findPage(query, filter)
}

// FindAll returns claims across the platform for the admin queue
func (r *GormClaimRepository) FindAll(ctx context.Context, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	query := dbFor(ctx, r.db).Model(&claims.DamageClaim{})
	return r.findPage(query, filter)
}

// FindOpenPastDeadline returns open claims whose response deadline has
// passed, oldest deadline first, for the uncontested sweep
func (r *GormClaimRepository) FindOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]*claims.DamageClaim, error) {
	var results []*claims.DamageClaim
	if err := dbFor(ctx, r.db).
		Where("status = ? AND response_deadline <= ?", claims.ClaimStatusOpen, now).
		Order("response_deadline ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindRetryableCharges returns chargeable claims whose last charge attempt
// failed and that still have attempts left
func (r *GormClaimRepository) FindRetryableCharges(ctx context.Context, maxAttempts int, limit int) ([]*claims.DamageClaim, error) {
	var results []*claims.DamageClaim
	if err := dbFor(ctx, r.db).
		Where("status IN ?", []claims.ClaimStatus{
			claims.ClaimStatusAccepted,
			claims.ClaimStatusUncontested,
			claims.ClaimStatusUpheld,
		}).
		Where("charge_status = ? AND charge_attempts < ?", claims.ChargeStatusFailed, maxAttempts).
		Order("updated_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the total number of claims
func (r *GormClaimRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).Model(&claims.DamageClaim{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateClaimNumber generates a unique claim number.
// Format: DC-YYYY-NNNN (e.g., DC-2026-0001)
func (r *GormClaimRepository) GenerateClaimNumber(ctx context.Context) (string, error) {
	db := dbFor(ctx, r.db)
	year := time.Now().Year()
	prefix := fmt.Sprintf("DC-%d-", year)

	var lastNumbers []string
	err := db.Model(&claims.DamageClaim{}).
		Where("claim_number LIKE ?", prefix+"%").
		Order("claim_number DESC").
		Limit(1).
		Pluck("claim_number", &lastNumbers).Error
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

	claimNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	for i := 0; i < 100; i++ {
		var count int64
		if err := db.Model(&claims.DamageClaim{}).
			Where("claim_number = ?", claimNumber).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			break
		}
		nextNum++
		claimNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
	}

	return claimNumber, nil
}

// findPage applies the shared filter, counts, sorts, and pages
func (r *GormClaimRepository) findPage(query *gorm.DB, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	var results []*claims.DamageClaim
	var total int64

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ChargeStatus != nil {
		query = query.Where("charge_status = ?", *filter.ChargeStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := ValidateSortField(filter.SortBy, ClaimSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)
	query = query.Order(sortBy + " " + sortOrder)

	if err := query.
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// Ensure GormClaimRepository implements ClaimRepository
var _ claims.ClaimRepository = (*GormClaimRepository)(nil)
