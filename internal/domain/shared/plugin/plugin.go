package plugin

// RequirementDefinition defines a compliance requirement for kitchen locations
type RequirementDefinition struct {
	// Key is the requirement key, e.g., "health_permit_number"
	Key string
	// Label is the display name, e.g., "Health Permit Number"
	Label string
	// Required indicates if this requirement is mandatory
	Required bool
	// Regex is an optional validation pattern
	Regex string
	// KitchenCategories specifies which kitchen categories this requirement applies to
	// If empty, applies to all locations in the jurisdiction
	KitchenCategories []string
}

// JurisdictionPlugin defines the interface for jurisdiction-specific plugins
// Plugins extend the system to support state or city specific compliance rules
type JurisdictionPlugin interface {
	// Name returns the unique identifier for the plugin
	Name() string
	// DisplayName returns the human-readable name for the plugin
	DisplayName() string
	// RegisterPolicies registers jurisdiction-specific strategies with the registry
	RegisterPolicies(registry PolicyRegistrar)
	// LocationRequirements returns the requirement definitions for this jurisdiction
	LocationRequirements() []RequirementDefinition
}

// PolicyRegistrar is the interface for registering strategies
// This is implemented by the infrastructure StrategyRegistry
type PolicyRegistrar interface {
	// RegisterFeeStrategy registers a platform fee strategy
	RegisterFeeStrategy(s any) error
	// RegisterTaxStrategy registers a sales tax strategy
	RegisterTaxStrategy(s any) error
	// RegisterRefundStrategy registers a refund fee strategy
	RegisterRefundStrategy(s any) error
}
