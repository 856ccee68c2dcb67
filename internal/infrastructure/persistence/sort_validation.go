package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"first_name":    true,
	"last_name":     true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}

// LocationSortFields contains allowed sort fields for kitchen locations
var LocationSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"name":                true,
	"status":              true,
	"kitchen_hourly_rate": true,
	"storage_daily_rate":  true,
}

// ApplicationSortFields contains allowed sort fields for kitchen applications
var ApplicationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"status":     true,
	"decided_at": true,
}

// BookingSortFields contains allowed sort fields for bookings
var BookingSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"booking_number":    true,
	"status":            true,
	"total_amount":      true,
	"decision_deadline": true,
	"decided_at":        true,
	"completed_at":      true,
	"cancelled_at":      true,
}

// ClaimSortFields contains allowed sort fields for damage claims
var ClaimSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"claim_number":      true,
	"status":            true,
	"charge_status":     true,
	"amount":            true,
	"final_amount":      true,
	"response_deadline": true,
	"adjudicated_at":    true,
}
