package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FeeContext provides context for platform fee calculation
type FeeContext struct {
	ChefID      string
	ManagerID   string
	LocationID  string
	Subtotal    decimal.Decimal
	BilledHours decimal.Decimal
	Currency    string
	BookingDate time.Time
}

// FeeResult contains the result of platform fee calculation
type FeeResult struct {
	FeeAmount    decimal.Decimal
	RateBps      int64
	Currency     string
	AppliedRules []string
}

// FeeStrategy defines the interface for platform service fee calculation
type FeeStrategy interface {
	Strategy
	// CalculateFee calculates the platform fee for a given fee context
	CalculateFee(ctx context.Context, feeCtx FeeContext) (FeeResult, error)
	// SupportsTieredRates returns true if the strategy applies subtotal-based rate tiers
	SupportsTieredRates() bool
}
