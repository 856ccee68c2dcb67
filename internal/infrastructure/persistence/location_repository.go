package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Create creates a new location with its requirements and equipment
func (r *GormLocationRepository) Create(ctx context.Context, loc *location.Location) error {
	return dbFor(ctx, r.db).Create(loc).Error
}

// Update updates the location's own columns and syncs its equipment list.
// Requirements have their own replace operation and are left untouched here.
func (r *GormLocationRepository) Update(ctx context.Context, loc *location.Location) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		loc.UpdatedAt = time.Now()

		result := tx.Model(&location.Location{}).
			Where("id = ?", loc.ID).
			Updates(map[string]interface{}{
				"name":                               loc.Name,
				"description":                        loc.Description,
				"address":                            loc.Address,
				"kitchen_hourly_rate":                loc.KitchenHourlyRate,
				"storage_daily_rate":                 loc.StorageDailyRate,
				"tax_rate_bps":                       loc.TaxRateBps,
				"service_fee_bps":                    loc.ServiceFeeBps,
				"cancel_free_cancel_hours":           loc.Policy.FreeCancelHours,
				"cancel_late_cancel_capture_percent": loc.Policy.LateCancelCapturePercent,
				"status":                             loc.Status,
				"updated_at":                         loc.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		return r.syncEquipment(tx, loc)
	})
}

// syncEquipment deletes equipment rows removed from the aggregate and
// upserts the rest
func (r *GormLocationRepository) syncEquipment(tx *gorm.DB, loc *location.Location) error {
	currentIDs := make([]uuid.UUID, len(loc.Equipment))
	for i, item := range loc.Equipment {
		currentIDs[i] = item.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("location_id = ? AND id NOT IN ?", loc.ID, currentIDs).
			Delete(&location.EquipmentItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("location_id = ?", loc.ID).
			Delete(&location.EquipmentItem{}).Error; err != nil {
			return err
		}
	}

	for i := range loc.Equipment {
		loc.Equipment[i].LocationID = loc.ID
		if err := tx.Save(&loc.Equipment[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceRequirements persists a full requirement-set swap
func (r *GormLocationRepository) ReplaceRequirements(ctx context.Context, loc *location.Location) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		currentIDs := make([]uuid.UUID, len(loc.Requirements))
		for i, req := range loc.Requirements {
			currentIDs[i] = req.ID
		}

		if len(currentIDs) > 0 {
			if err := tx.Where("location_id = ? AND id NOT IN ?", loc.ID, currentIDs).
				Delete(&location.Requirement{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("location_id = ?", loc.ID).
				Delete(&location.Requirement{}).Error; err != nil {
				return err
			}
		}

		for i := range loc.Requirements {
			loc.Requirements[i].LocationID = loc.ID
			if err := tx.Save(&loc.Requirements[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes a location with its requirements and equipment
func (r *GormLocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("location_id = ?", id).
			Delete(&location.Requirement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("location_id = ?", id).
			Delete(&location.EquipmentItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&location.Location{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a location by ID with requirements and equipment loaded
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*location.Location, error) {
	var loc location.Location
	if err := dbFor(ctx, r.db).
		Preload("Requirements").
		Preload("Equipment").
		First(&loc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

// FindByManagerID returns all locations owned by a manager
func (r *GormLocationRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID) ([]*location.Location, error) {
	var locations []*location.Location
	if err := dbFor(ctx, r.db).
		Preload("Requirements").
		Preload("Equipment").
		Where("manager_id = ?", managerID).
		Order("created_at DESC").
		Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// FindPublished returns published locations matching the filter. The city
// and state filters reach into the address jsonb column.
func (r *GormLocationRepository) FindPublished(ctx context.Context, filter location.LocationFilter) ([]*location.Location, int64, error) {
	var locations []*location.Location
	var total int64

	query := dbFor(ctx, r.db).
		Model(&location.Location{}).
		Where("status = ?", location.LocationStatusPublished)
	query = r.applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := ValidateSortField(filter.SortBy, LocationSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)
	query = query.Order(sortBy + " " + sortOrder)

	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.
		Preload("Requirements").
		Preload("Equipment").
		Find(&locations).Error; err != nil {
		return nil, 0, err
	}

	return locations, total, nil
}

// Count returns the total number of locations
func (r *GormLocationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).Model(&location.Location{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormLocationRepository) applyFilter(query *gorm.DB, filter location.LocationFilter) *gorm.DB {
	if filter.Keyword != "" {
		searchPattern := "%" + filter.Keyword + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", searchPattern, searchPattern)
	}

	if filter.City != "" {
		query = query.Where("address->>'city' ILIKE ?", filter.City)
	}

	if filter.State != "" {
		query = query.Where("address->>'state' ILIKE ?", filter.State)
	}

	return query
}

// Ensure GormLocationRepository implements LocationRepository
var _ location.LocationRepository = (*GormLocationRepository)(nil)
