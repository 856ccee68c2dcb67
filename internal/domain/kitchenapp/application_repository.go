package kitchenapp

import (
	"context"

	"github.com/google/uuid"
)

// ApplicationRepository defines the interface for application persistence
type ApplicationRepository interface {
	// Create creates a new application
	Create(ctx context.Context, app *KitchenApplication) error

	// Update updates an existing application with its documents
	Update(ctx context.Context, app *KitchenApplication) error

	// FindByID finds an application by ID with documents loaded
	FindByID(ctx context.Context, id uuid.UUID) (*KitchenApplication, error)

	// FindByChefID returns all applications filed by a chef
	FindByChefID(ctx context.Context, chefID uuid.UUID) ([]*KitchenApplication, error)

	// FindByLocationID returns applications for a location, filtered
	FindByLocationID(ctx context.Context, locationID uuid.UUID, filter ApplicationFilter) ([]*KitchenApplication, int64, error)

	// FindByManagerID returns applications across every location the
	// manager owns; backs the manager review queue
	FindByManagerID(ctx context.Context, managerID uuid.UUID, filter ApplicationFilter) ([]*KitchenApplication, int64, error)

	// FindAll returns applications across the platform, filtered; backs
	// the admin surface
	FindAll(ctx context.Context, filter ApplicationFilter) ([]*KitchenApplication, int64, error)

	// FindOpenByChefAndLocation returns the chef's open application for a
	// location, or nil when none exists. Backs the one-open-application rule.
	FindOpenByChefAndLocation(ctx context.Context, chefID, locationID uuid.UUID) (*KitchenApplication, error)

	// HasApprovedApplication reports whether the chef holds an approved
	// application for the location. Backs the booking gate.
	HasApprovedApplication(ctx context.Context, chefID, locationID uuid.UUID) (bool, error)
}

// ApplicationFilter contains filter options for querying applications
type ApplicationFilter struct {
	Status     *ApplicationStatus
	LocationID *uuid.UUID

	// Pagination
	Page     int
	PageSize int
}

// NewApplicationFilter creates a new ApplicationFilter with default values
func NewApplicationFilter() ApplicationFilter {
	return ApplicationFilter{
		Page:     1,
		PageSize: 20,
	}
}

// WithStatus sets the status filter
func (f ApplicationFilter) WithStatus(status ApplicationStatus) ApplicationFilter {
	f.Status = &status
	return f
}

// WithLocation narrows results to one location
func (f ApplicationFilter) WithLocation(locationID uuid.UUID) ApplicationFilter {
	f.LocationID = &locationID
	return f
}

// WithPagination sets pagination parameters
func (f ApplicationFilter) WithPagination(page, pageSize int) ApplicationFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f ApplicationFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f ApplicationFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
