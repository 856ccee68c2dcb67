package location

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// AddressRequest carries a street address in requests
type AddressRequest struct {
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=100"`
}

// toAddress converts the request into the Address value object
func (r AddressRequest) toAddress() (valueobject.Address, error) {
	addr, err := valueobject.NewAddressFull(r.Line1, r.Line2, r.City, r.State, r.PostalCode, r.Country)
	if err != nil {
		return valueobject.Address{}, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	return addr, nil
}

// CancellationPolicyRequest carries the cancellation policy in requests
type CancellationPolicyRequest struct {
	FreeCancelHours          int `json:"free_cancel_hours" binding:"min=0"`
	LateCancelCapturePercent int `json:"late_cancel_capture_percent" binding:"min=0,max=100"`
}

// CreateLocationRequest represents a request to create a listing
type CreateLocationRequest struct {
	Name              string                     `json:"name" binding:"required,min=1,max=200"`
	Description       string                     `json:"description" binding:"max=5000"`
	Address           AddressRequest             `json:"address" binding:"required"`
	KitchenHourlyRate *decimal.Decimal           `json:"kitchen_hourly_rate"`
	StorageDailyRate  *decimal.Decimal           `json:"storage_daily_rate"`
	TaxRateBps        *int64                     `json:"tax_rate_bps"`
	ServiceFeeBps     *int64                     `json:"service_fee_bps"`
	Policy            *CancellationPolicyRequest `json:"cancellation_policy"`
}

// UpdateLocationRequest represents a partial update to a listing
type UpdateLocationRequest struct {
	Name              *string                    `json:"name" binding:"omitempty,min=1,max=200"`
	Description       *string                    `json:"description" binding:"omitempty,max=5000"`
	Address           *AddressRequest            `json:"address"`
	KitchenHourlyRate *decimal.Decimal           `json:"kitchen_hourly_rate"`
	StorageDailyRate  *decimal.Decimal           `json:"storage_daily_rate"`
	TaxRateBps        *int64                     `json:"tax_rate_bps"`
	ServiceFeeBps     *int64                     `json:"service_fee_bps"`
	Policy            *CancellationPolicyRequest `json:"cancellation_policy"`
}

// RequirementRequest is one entry of a full requirement-set replace
type RequirementRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	DocumentKind string `json:"document_kind" binding:"omitempty,oneof=LICENSE INSURANCE CERTIFICATE OTHER"`
	Required     bool   `json:"required"`
}

// ReplaceRequirementsRequest replaces the whole requirement set
type ReplaceRequirementsRequest struct {
	Requirements []RequirementRequest `json:"requirements" binding:"required,dive"`
}

// EquipmentRequest creates or updates a rentable equipment item
type EquipmentRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	Notes     string          `json:"notes" binding:"max=2000"`
}

// LocationListFilter represents browse options for published listings
type LocationListFilter struct {
	Search   string `form:"search"`
	City     string `form:"city"`
	State    string `form:"state"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RequirementResponse represents a requirement in API responses
type RequirementResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DocumentKind string    `json:"document_kind"`
	Required     bool      `json:"required"`
}

// EquipmentResponse represents an equipment item in API responses
type EquipmentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	Notes     string          `json:"notes"`
}

// CancellationPolicyResponse represents the policy in API responses
type CancellationPolicyResponse struct {
	FreeCancelHours          int `json:"free_cancel_hours"`
	LateCancelCapturePercent int `json:"late_cancel_capture_percent"`
}

// LocationResponse represents a listing in API responses
type LocationResponse struct {
	ID                uuid.UUID                  `json:"id"`
	ManagerID         uuid.UUID                  `json:"manager_id"`
	Name              string                     `json:"name"`
	Description       string                     `json:"description"`
	Address           valueobject.Address        `json:"address"`
	KitchenHourlyRate decimal.Decimal            `json:"kitchen_hourly_rate"`
	StorageDailyRate  decimal.Decimal            `json:"storage_daily_rate"`
	TaxRateBps        int64                      `json:"tax_rate_bps"`
	ServiceFeeBps     int64                      `json:"service_fee_bps"`
	Policy            CancellationPolicyResponse `json:"cancellation_policy"`
	Status            string                     `json:"status"`
	Requirements      []RequirementResponse      `json:"requirements"`
	Equipment         []EquipmentResponse        `json:"equipment"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
	Version           int                        `json:"version"`
}

// LocationListItem is the compact browse shape for public listings
type LocationListItem struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	City              string          `json:"city"`
	State             string          `json:"state"`
	KitchenHourlyRate decimal.Decimal `json:"kitchen_hourly_rate"`
	StorageDailyRate  decimal.Decimal `json:"storage_daily_rate"`
	EquipmentCount    int             `json:"equipment_count"`
}

// LocationListResult is a paginated browse result
type LocationListResult struct {
	Locations  []LocationListItem `json:"locations"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ToLocationResponse converts a domain Location to LocationResponse
func ToLocationResponse(loc *location.Location) LocationResponse {
	requirements := make([]RequirementResponse, len(loc.Requirements))
	for i, req := range loc.Requirements {
		requirements[i] = RequirementResponse{
			ID:           req.ID,
			Name:         req.Name,
			Description:  req.Description,
			DocumentKind: string(req.DocumentKind),
			Required:     req.Required,
		}
	}

	equipment := make([]EquipmentResponse, len(loc.Equipment))
	for i, item := range loc.Equipment {
		equipment[i] = EquipmentResponse{
			ID:        item.ID,
			Name:      item.Name,
			DailyRate: item.DailyRate,
			Notes:     item.Notes,
		}
	}

	return LocationResponse{
		ID:                loc.ID,
		ManagerID:         loc.ManagerID,
		Name:              loc.Name,
		Description:       loc.Description,
		Address:           loc.Address,
		KitchenHourlyRate: loc.KitchenHourlyRate,
		StorageDailyRate:  loc.StorageDailyRate,
		TaxRateBps:        loc.TaxRateBps,
		ServiceFeeBps:     loc.ServiceFeeBps,
		Policy: CancellationPolicyResponse{
			FreeCancelHours:          loc.Policy.FreeCancelHours,
			LateCancelCapturePercent: loc.Policy.LateCancelCapturePercent,
		},
		Status:       loc.Status.String(),
		Requirements: requirements,
		Equipment:    equipment,
		CreatedAt:    loc.CreatedAt,
		UpdatedAt:    loc.UpdatedAt,
		Version:      loc.Version,
	}
}

// ToLocationListItem converts a domain Location to the browse shape
func ToLocationListItem(loc *location.Location) LocationListItem {
	return LocationListItem{
		ID:                loc.ID,
		Name:              loc.Name,
		Description:       loc.Description,
		City:              loc.Address.City(),
		State:             loc.Address.State(),
		KitchenHourlyRate: loc.KitchenHourlyRate,
		StorageDailyRate:  loc.StorageDailyRate,
		EquipmentCount:    len(loc.Equipment),
	}
}
