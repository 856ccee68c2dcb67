package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxContext provides context for sales tax calculation
type TaxContext struct {
	State    string // Two-letter state code of the kitchen location
	City     string
	Subtotal decimal.Decimal
	Currency string
}

// TaxResult contains the result of tax calculation
type TaxResult struct {
	TaxAmount    decimal.Decimal
	RateBps      int64
	Jurisdiction string
	Currency     string
}

// TaxStrategy defines the interface for sales tax calculation
type TaxStrategy interface {
	Strategy
	// CalculateTax calculates the sales tax for a given tax context
	CalculateTax(ctx context.Context, taxCtx TaxContext) (TaxResult, error)
}

// FlatRateTaxStrategy applies a single tax rate to every booking
type FlatRateTaxStrategy struct {
	BaseStrategy
	RateBps int64
}

// NewFlatRateTaxStrategy creates a new flat rate tax strategy
func NewFlatRateTaxStrategy(rateBps int64) (*FlatRateTaxStrategy, error) {
	if rateBps < 0 || rateBps > 10000 {
		return nil, fmt.Errorf("tax rate must be between 0 and 10000 basis points, got %d", rateBps)
	}
	return &FlatRateTaxStrategy{
		BaseStrategy: NewBaseStrategy(
			"flat_rate",
			StrategyTypeTax,
			"Flat rate tax applies a single rate regardless of location",
		),
		RateBps: rateBps,
	}, nil
}

// CalculateTax calculates tax at the flat rate
func (s *FlatRateTaxStrategy) CalculateTax(ctx context.Context, taxCtx TaxContext) (TaxResult, error) {
	return TaxResult{
		TaxAmount:    feeFromBps(taxCtx.Subtotal, s.RateBps),
		RateBps:      s.RateBps,
		Jurisdiction: "default",
		Currency:     taxCtx.Currency,
	}, nil
}

// StateTableTaxStrategy looks up the tax rate by the location's state code
type StateTableTaxStrategy struct {
	BaseStrategy
	Rates          map[string]int64 // State code (upper case) to rate in basis points
	DefaultRateBps int64            // Rate applied when the state is not in the table
}

// NewStateTableTaxStrategy creates a new state table tax strategy
func NewStateTableTaxStrategy(rates map[string]int64, defaultRateBps int64) (*StateTableTaxStrategy, error) {
	if defaultRateBps < 0 || defaultRateBps > 10000 {
		return nil, fmt.Errorf("tax rate must be between 0 and 10000 basis points, got %d", defaultRateBps)
	}

	normalized := make(map[string]int64, len(rates))
	for state, bps := range rates {
		if bps < 0 || bps > 10000 {
			return nil, fmt.Errorf("tax rate for %s must be between 0 and 10000 basis points, got %d", state, bps)
		}
		normalized[strings.ToUpper(strings.TrimSpace(state))] = bps
	}

	return &StateTableTaxStrategy{
		BaseStrategy: NewBaseStrategy(
			"state_table",
			StrategyTypeTax,
			"State table tax looks up the rate by the kitchen's state",
		),
		Rates:          normalized,
		DefaultRateBps: defaultRateBps,
	}, nil
}

// CalculateTax calculates tax using the state's rate, falling back to the default rate
func (s *StateTableTaxStrategy) CalculateTax(ctx context.Context, taxCtx TaxContext) (TaxResult, error) {
	state := strings.ToUpper(strings.TrimSpace(taxCtx.State))

	rateBps, found := s.Rates[state]
	jurisdiction := state
	if !found {
		rateBps = s.DefaultRateBps
		jurisdiction = "default"
	}

	return TaxResult{
		TaxAmount:    feeFromBps(taxCtx.Subtotal, rateBps),
		RateBps:      rateBps,
		Jurisdiction: jurisdiction,
		Currency:     taxCtx.Currency,
	}, nil
}
