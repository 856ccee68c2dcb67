package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/kitchenapp"
	"github.com/localcooks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormApplicationRepository implements ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Create creates a new application with its documents
func (r *GormApplicationRepository) Create(ctx context.Context, app *kitchenapp.KitchenApplication) error {
	return dbFor(ctx, r.db).Create(app).Error
}

// Update updates the application's own columns and syncs its documents.
// Re-uploading a requirement's document replaces the old row, so removed
// documents are deleted before the rest are upserted.
func (r *GormApplicationRepository) Update(ctx context.Context, app *kitchenapp.KitchenApplication) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		app.UpdatedAt = time.Now()

		result := tx.Model(&kitchenapp.KitchenApplication{}).
			Where("id = ?", app.ID).
			Updates(map[string]interface{}{
				"message":     app.Message,
				"status":      app.Status,
				"reviewer_id": app.ReviewerID,
				"review_note": app.ReviewNote,
				"decided_at":  app.DecidedAt,
				"updated_at":  app.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		currentIDs := make([]uuid.UUID, len(app.Documents))
		for i, doc := range app.Documents {
			currentIDs[i] = doc.ID
		}

		if len(currentIDs) > 0 {
			if err := tx.Where("application_id = ? AND id NOT IN ?", app.ID, currentIDs).
				Delete(&kitchenapp.ApplicationDocument{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("application_id = ?", app.ID).
				Delete(&kitchenapp.ApplicationDocument{}).Error; err != nil {
				return err
			}
		}

		for i := range app.Documents {
			app.Documents[i].ApplicationID = app.ID
			if err := tx.Save(&app.Documents[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an application by ID with documents loaded
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*kitchenapp.KitchenApplication, error) {
	var app kitchenapp.KitchenApplication
	if err := dbFor(ctx, r.db).
		Preload("Documents").
		First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// FindByChefID returns all applications filed by a chef
func (r *GormApplicationRepository) FindByChefID(ctx context.Context, chefID uuid.UUID) ([]*kitchenapp.KitchenApplication, error) {
	var apps []*kitchenapp.KitchenApplication
	if err := dbFor(ctx, r.db).
		Preload("Documents").
		Where("chef_id = ?", chefID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// FindByLocationID returns applications for a location, filtered
func (r *GormApplicationRepository) FindByLocationID(ctx context.Context, locationID uuid.UUID, filter kitchenapp.ApplicationFilter) ([]*kitchenapp.KitchenApplication, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&kitchenapp.KitchenApplication{}).
		Where("location_id = ?", locationID)
	return r.findPage(query, filter)
}

// FindByManagerID returns applications across every location the manager owns
func (r *GormApplicationRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID, filter kitchenapp.ApplicationFilter) ([]*kitchenapp.KitchenApplication, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&kitchenapp.KitchenApplication{}).
		Joins("JOIN locations ON locations.id = kitchen_applications.location_id").
		Where("locations.manager_id = ?", managerID)
	return r.findPage(query, filter)
}

// FindAll returns applications across the platform, filtered
func (r *GormApplicationRepository) FindAll(ctx context.Context, filter kitchenapp.ApplicationFilter) ([]*kitchenapp.KitchenApplication, int64, error) {
	query := dbFor(ctx, r.db).Model(&kitchenapp.KitchenApplication{})
	return r.findPage(query, filter)
}

// FindOpenByChefAndLocation returns the chef's open application for a
// location, or nil when none exists
func (r *GormApplicationRepository) FindOpenByChefAndLocation(ctx context.Context, chefID, locationID uuid.UUID) (*kitchenapp.KitchenApplication, error) {
	var app kitchenapp.KitchenApplication
	err := dbFor(ctx, r.db).
		Preload("Documents").
		Where("chef_id = ? AND location_id = ?", chefID, locationID).
		Where("status IN ?", []kitchenapp.ApplicationStatus{
			kitchenapp.ApplicationStatusSubmitted,
			kitchenapp.ApplicationStatusInReview,
		}).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

// HasApprovedApplication reports whether the chef holds an approved
// application for the location
func (r *GormApplicationRepository) HasApprovedApplication(ctx context.Context, chefID, locationID uuid.UUID) (bool, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&kitchenapp.KitchenApplication{}).
		Where("chef_id = ? AND location_id = ? AND status = ?",
			chefID, locationID, kitchenapp.ApplicationStatusApproved).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// findPage applies the status filter, counts, and pages in submission order
func (r *GormApplicationRepository) findPage(query *gorm.DB, filter kitchenapp.ApplicationFilter) ([]*kitchenapp.KitchenApplication, int64, error) {
	var apps []*kitchenapp.KitchenApplication
	var total int64

	if filter.Status != nil {
		query = query.Where("kitchen_applications.status = ?", *filter.Status)
	}
	if filter.LocationID != nil {
		query = query.Where("kitchen_applications.location_id = ?", *filter.LocationID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("kitchen_applications.created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Preload("Documents").
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

// Ensure GormApplicationRepository implements ApplicationRepository
var _ kitchenapp.ApplicationRepository = (*GormApplicationRepository)(nil)
