package location

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// blockingStatuses are booking states that pin a location in place
var blockingStatuses = []booking.BookingStatus{
	booking.BookingStatusPending,
	booking.BookingStatusApproved,
	booking.BookingStatusPartiallyApproved,
}

// LocationService handles kitchen listing operations
type LocationService struct {
	locationRepo   location.LocationRepository
	bookingRepo    booking.BookingRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLocationService creates a new location service
func NewLocationService(
	locationRepo location.LocationRepository,
	bookingRepo booking.BookingRepository,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		locationRepo: locationRepo,
		bookingRepo:  bookingRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher that fans out domain events to
// notification handlers and the live feed
func (s *LocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents drains the aggregate's pending events onto the bus. Event
// delivery is asynchronous; a publish failure never fails the operation.
func (s *LocationService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}

// Create creates a draft listing owned by the acting manager
func (s *LocationService) Create(ctx context.Context, actor identity.Actor, req CreateLocationRequest) (*LocationResponse, error) {
	addr, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}

	loc, err := location.NewLocation(actor.ID, req.Name, addr)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := loc.UpdateDetails(req.Name, req.Description); err != nil {
			return nil, err
		}
	}

	if req.KitchenHourlyRate != nil || req.StorageDailyRate != nil {
		kitchen := loc.GetKitchenHourlyRateMoney()
		storage := loc.GetStorageDailyRateMoney()
		if req.KitchenHourlyRate != nil {
			kitchen = valueobject.NewMoneyUSD(*req.KitchenHourlyRate)
		}
		if req.StorageDailyRate != nil {
			storage = valueobject.NewMoneyUSD(*req.StorageDailyRate)
		}
		if err := loc.SetRates(kitchen, storage); err != nil {
			return nil, err
		}
	}

	if req.TaxRateBps != nil {
		if err := loc.SetTaxRate(*req.TaxRateBps); err != nil {
			return nil, err
		}
	}
	if req.ServiceFeeBps != nil {
		if err := loc.SetServiceFee(*req.ServiceFeeBps); err != nil {
			return nil, err
		}
	}
	if req.Policy != nil {
		if err := loc.SetCancellationPolicy(location.CancellationPolicy{
			FreeCancelHours:          req.Policy.FreeCancelHours,
			LateCancelCapturePercent: req.Policy.LateCancelCapturePercent,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.locationRepo.Create(ctx, loc); err != nil {
		s.logger.Error("Failed to create location", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create location")
	}

	s.publishEvents(ctx, loc)

	s.logger.Info("Location created",
		zap.String("location_id", loc.ID.String()),
		zap.String("manager_id", actor.ID.String()))

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// Get returns a listing the actor may manage
func (s *LocationService) Get(ctx context.Context, actor identity.Actor, locationID uuid.UUID) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// ListByManager returns all listings owned by the acting manager
func (s *LocationService) ListByManager(ctx context.Context, managerID uuid.UUID) ([]LocationResponse, error) {
	locs, err := s.locationRepo.FindByManagerID(ctx, managerID)
	if err != nil {
		s.logger.Error("Failed to list locations", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list locations")
	}

	responses := make([]LocationResponse, len(locs))
	for i, loc := range locs {
		responses[i] = ToLocationResponse(loc)
	}
	return responses, nil
}

// Update applies a partial update to a listing
func (s *LocationService) Update(ctx context.Context, actor identity.Actor, locationID uuid.UUID, req UpdateLocationRequest) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := loc.Name
		description := loc.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := loc.UpdateDetails(name, description); err != nil {
			return nil, err
		}
	}

	if req.Address != nil {
		addr, err := req.Address.toAddress()
		if err != nil {
			return nil, err
		}
		if err := loc.SetAddress(addr); err != nil {
			return nil, err
		}
	}

	if req.KitchenHourlyRate != nil || req.StorageDailyRate != nil {
		kitchen := loc.GetKitchenHourlyRateMoney()
		storage := loc.GetStorageDailyRateMoney()
		if req.KitchenHourlyRate != nil {
			kitchen = valueobject.NewMoneyUSD(*req.KitchenHourlyRate)
		}
		if req.StorageDailyRate != nil {
			storage = valueobject.NewMoneyUSD(*req.StorageDailyRate)
		}
		if err := loc.SetRates(kitchen, storage); err != nil {
			return nil, err
		}
	}

	if req.TaxRateBps != nil {
		if err := loc.SetTaxRate(*req.TaxRateBps); err != nil {
			return nil, err
		}
	}
	if req.ServiceFeeBps != nil {
		if err := loc.SetServiceFee(*req.ServiceFeeBps); err != nil {
			return nil, err
		}
	}
	if req.Policy != nil {
		if err := loc.SetCancellationPolicy(location.CancellationPolicy{
			FreeCancelHours:          req.Policy.FreeCancelHours,
			LateCancelCapturePercent: req.Policy.LateCancelCapturePercent,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		s.logger.Error("Failed to update location", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update location")
	}

	s.logger.Info("Location updated", zap.String("location_id", loc.ID.String()))

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// Delete removes a listing. Listings holding pending or approved bookings
// cannot be deleted, only unpublished.
func (s *LocationService) Delete(ctx context.Context, actor identity.Actor, locationID uuid.UUID) error {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return err
	}

	active, err := s.bookingRepo.CountByLocationAndStatus(ctx, loc.ID, blockingStatuses)
	if err != nil {
		s.logger.Error("Failed to count location bookings", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to check location bookings")
	}
	if active > 0 {
		return shared.NewDomainError("LOCATION_HAS_BOOKINGS", "Location has pending or approved bookings and cannot be deleted. Unpublish it instead")
	}

	if err := s.locationRepo.Delete(ctx, loc.ID); err != nil {
		s.logger.Error("Failed to delete location", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete location")
	}

	s.logger.Info("Location deleted", zap.String("location_id", loc.ID.String()))

	return nil
}

// Publish makes a listing bookable
func (s *LocationService) Publish(ctx context.Context, actor identity.Actor, locationID uuid.UUID) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	if err := loc.Publish(); err != nil {
		return nil, err
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		s.logger.Error("Failed to publish location", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to publish location")
	}

	s.publishEvents(ctx, loc)

	s.logger.Info("Location published", zap.String("location_id", loc.ID.String()))

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// Unpublish blocks new bookings for a listing
func (s *LocationService) Unpublish(ctx context.Context, actor identity.Actor, locationID uuid.UUID) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	if err := loc.Unpublish(); err != nil {
		return nil, err
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		s.logger.Error("Failed to unpublish location", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to unpublish location")
	}

	s.publishEvents(ctx, loc)

	s.logger.Info("Location unpublished", zap.String("location_id", loc.ID.String()))

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// GetRequirements returns a listing's requirement set
func (s *LocationService) GetRequirements(ctx context.Context, actor identity.Actor, locationID uuid.UUID) ([]RequirementResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	responses := make([]RequirementResponse, len(loc.Requirements))
	for i, req := range loc.Requirements {
		responses[i] = RequirementResponse{
			ID:           req.ID,
			Name:         req.Name,
			Description:  req.Description,
			DocumentKind: string(req.DocumentKind),
			Required:     req.Required,
		}
	}
	return responses, nil
}

// ReplaceRequirements swaps a listing's whole requirement set
func (s *LocationService) ReplaceRequirements(ctx context.Context, actor identity.Actor, locationID uuid.UUID, req ReplaceRequirementsRequest) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	specs := make([]location.RequirementSpec, len(req.Requirements))
	for i, r := range req.Requirements {
		specs[i] = location.RequirementSpec{
			Name:         r.Name,
			Description:  r.Description,
			DocumentKind: location.DocumentKind(r.DocumentKind),
			Required:     r.Required,
		}
	}

	if err := loc.ReplaceRequirements(specs); err != nil {
		return nil, err
	}

	if err := s.locationRepo.ReplaceRequirements(ctx, loc); err != nil {
		s.logger.Error("Failed to replace requirements", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to replace requirements")
	}

	s.logger.Info("Location requirements replaced",
		zap.String("location_id", loc.ID.String()),
		zap.Int("count", len(specs)))

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// AddEquipment attaches a rentable equipment item to a listing
func (s *LocationService) AddEquipment(ctx context.Context, actor identity.Actor, locationID uuid.UUID, req EquipmentRequest) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	if _, err := loc.AddEquipment(req.Name, valueobject.NewMoneyUSD(req.DailyRate), req.Notes); err != nil {
		return nil, err
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		s.logger.Error("Failed to add equipment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to add equipment")
	}

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// UpdateEquipment edits a rentable equipment item
func (s *LocationService) UpdateEquipment(ctx context.Context, actor identity.Actor, locationID, itemID uuid.UUID, req EquipmentRequest) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	if err := loc.UpdateEquipment(itemID, req.Name, valueobject.NewMoneyUSD(req.DailyRate), req.Notes); err != nil {
		return nil, err
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		s.logger.Error("Failed to update equipment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update equipment")
	}

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// RemoveEquipment detaches a rentable equipment item. Bookings keep their
// snapshotted rates, so removal never rewrites history.
func (s *LocationService) RemoveEquipment(ctx context.Context, actor identity.Actor, locationID, itemID uuid.UUID) (*LocationResponse, error) {
	loc, err := s.findOwned(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}

	if err := loc.RemoveEquipment(itemID); err != nil {
		return nil, err
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		s.logger.Error("Failed to remove equipment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to remove equipment")
	}

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// BrowsePublished returns published listings for the public surface
func (s *LocationService) BrowsePublished(ctx context.Context, req LocationListFilter) (*LocationListResult, error) {
	filter := location.NewLocationFilter().
		WithKeyword(req.Search).
		WithCity(req.City).
		WithState(req.State)
	if req.Page > 0 || req.PageSize > 0 {
		page := req.Page
		if page < 1 {
			page = 1
		}
		pageSize := req.PageSize
		if pageSize < 1 {
			pageSize = 20
		}
		filter = filter.WithPagination(page, pageSize)
	}

	locs, total, err := s.locationRepo.FindPublished(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to browse locations", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to browse locations")
	}

	items := make([]LocationListItem, len(locs))
	for i, loc := range locs {
		items[i] = ToLocationListItem(loc)
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return &LocationListResult{
		Locations:  items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetPublished returns one published listing for the public surface
func (s *LocationService) GetPublished(ctx context.Context, locationID uuid.UUID) (*LocationResponse, error) {
	loc, err := s.locationRepo.FindByID(ctx, locationID)
	if err != nil {
		return nil, shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}

	if !loc.IsPublished() {
		return nil, shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}

	resp := ToLocationResponse(loc)
	return &resp, nil
}

// findOwned loads a listing and checks the actor may manage it
func (s *LocationService) findOwned(ctx context.Context, actor identity.Actor, locationID uuid.UUID) (*location.Location, error) {
	loc, err := s.locationRepo.FindByID(ctx, locationID)
	if err != nil {
		return nil, shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}

	if !loc.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the owning manager can modify this location")
	}

	return loc, nil
}
