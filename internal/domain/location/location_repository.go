package location

import (
	"context"

	"github.com/google/uuid"
)

// LocationRepository defines the interface for location persistence
type LocationRepository interface {
	// Create creates a new location with its children
	Create(ctx context.Context, loc *Location) error

	// Update updates an existing location
	Update(ctx context.Context, loc *Location) error

	// Delete deletes a location. The application layer guards against
	// deleting locations with pending bookings.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a location by ID with requirements and equipment loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)

	// FindByManagerID returns all locations owned by a manager
	FindByManagerID(ctx context.Context, managerID uuid.UUID) ([]*Location, error)

	// FindPublished returns published locations matching the filter
	FindPublished(ctx context.Context, filter LocationFilter) ([]*Location, int64, error)

	// ReplaceRequirements persists a full requirement-set swap
	ReplaceRequirements(ctx context.Context, loc *Location) error

	// Count returns the total number of locations
	Count(ctx context.Context) (int64, error)
}

// LocationFilter contains filter options for browsing locations
type LocationFilter struct {
	// Search keyword against the location name
	Keyword string

	// Filter by address city/state
	City  string
	State string

	// Pagination
	Page     int
	PageSize int

	// Sorting
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// NewLocationFilter creates a new LocationFilter with default values
func NewLocationFilter() LocationFilter {
	return LocationFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithKeyword sets the search keyword
func (f LocationFilter) WithKeyword(keyword string) LocationFilter {
	f.Keyword = keyword
	return f
}

// WithCity sets the city filter
func (f LocationFilter) WithCity(city string) LocationFilter {
	f.City = city
	return f
}

// WithState sets the state filter
func (f LocationFilter) WithState(state string) LocationFilter {
	f.State = state
	return f
}

// WithPagination sets pagination parameters
func (f LocationFilter) WithPagination(page, pageSize int) LocationFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f LocationFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f LocationFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
