package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// FeeMethodType represents the type of fee method
type FeeMethodType string

const (
	FeeMethodPercentage  FeeMethodType = "percentage"
	FeeMethodFlat        FeeMethodType = "flat"
	FeeMethodTiered      FeeMethodType = "tiered"
	FeeMethodPartnerRate FeeMethodType = "partner_rate"
)

// String returns the string representation of the fee method
func (m FeeMethodType) String() string {
	return string(m)
}

// bpsDenominator converts basis points to a rate (10000 bps = 100%)
var bpsDenominator = decimal.NewFromInt(10000)

// feeFromBps computes amount * bps / 10000 rounded to cents
func feeFromBps(amount decimal.Decimal, bps int64) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(bps)).Div(bpsDenominator).Round(2)
}

// FeeTier represents a rate tier for subtotal-based tiered fees
type FeeTier struct {
	MinSubtotal decimal.Decimal // Minimum subtotal for this tier (inclusive)
	MaxSubtotal decimal.Decimal // Maximum subtotal for this tier (exclusive), zero means no limit
	RateBps     int64           // Fee rate in basis points for this tier
}

// PartnerRate represents a negotiated fee rate for a specific partner
type PartnerRate struct {
	ManagerID     string
	LocationID    string // Empty LocationID means the rate applies to all of the manager's locations
	RateBps       int64
	MinSubtotal   decimal.Decimal // Minimum subtotal required for this rate
	PriorityOrder int             // Lower number = higher priority
}

// PercentageFeeStrategy charges a fixed percentage of the booking subtotal
type PercentageFeeStrategy struct {
	BaseStrategy
	RateBps int64
}

// NewPercentageFeeStrategy creates a new percentage fee strategy
func NewPercentageFeeStrategy(rateBps int64) (*PercentageFeeStrategy, error) {
	if rateBps < 0 || rateBps > 10000 {
		return nil, fmt.Errorf("fee rate must be between 0 and 10000 basis points, got %d", rateBps)
	}
	return &PercentageFeeStrategy{
		BaseStrategy: NewBaseStrategy(
			"percentage",
			StrategyTypeFee,
			"Percentage fee charges a fixed share of the booking subtotal",
		),
		RateBps: rateBps,
	}, nil
}

// CalculateFee calculates the platform fee as a percentage of the subtotal
func (s *PercentageFeeStrategy) CalculateFee(ctx context.Context, feeCtx FeeContext) (FeeResult, error) {
	return FeeResult{
		FeeAmount:    feeFromBps(feeCtx.Subtotal, s.RateBps),
		RateBps:      s.RateBps,
		Currency:     feeCtx.Currency,
		AppliedRules: []string{"percentage_fee"},
	}, nil
}

// SupportsTieredRates returns false for percentage fees
func (s *PercentageFeeStrategy) SupportsTieredRates() bool {
	return false
}

// FlatFeeStrategy charges a fixed amount per booking regardless of subtotal
type FlatFeeStrategy struct {
	BaseStrategy
	Amount decimal.Decimal
}

// NewFlatFeeStrategy creates a new flat fee strategy
func NewFlatFeeStrategy(amount decimal.Decimal) (*FlatFeeStrategy, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("flat fee amount cannot be negative, got %s", amount.String())
	}
	return &FlatFeeStrategy{
		BaseStrategy: NewBaseStrategy(
			"flat",
			StrategyTypeFee,
			"Flat fee charges a fixed amount per booking",
		),
		Amount: amount,
	}, nil
}

// CalculateFee returns the flat fee, capped at the subtotal so the fee never exceeds the booking
func (s *FlatFeeStrategy) CalculateFee(ctx context.Context, feeCtx FeeContext) (FeeResult, error) {
	fee := s.Amount
	appliedRules := []string{"flat_fee"}
	if fee.GreaterThan(feeCtx.Subtotal) {
		fee = feeCtx.Subtotal
		appliedRules = append(appliedRules, "fee_capped_at_subtotal")
	}
	return FeeResult{
		FeeAmount:    fee.Round(2),
		RateBps:      0,
		Currency:     feeCtx.Currency,
		AppliedRules: appliedRules,
	}, nil
}

// SupportsTieredRates returns false for flat fees
func (s *FlatFeeStrategy) SupportsTieredRates() bool {
	return false
}

// TieredFeeStrategy applies fee rates based on subtotal tiers, rewarding larger bookings
type TieredFeeStrategy struct {
	BaseStrategy
	DefaultRateBps int64
	Tiers          []FeeTier // Tiers sorted by MinSubtotal ascending
}

// NewTieredFeeStrategy creates a new tiered fee strategy
func NewTieredFeeStrategy(defaultRateBps int64, tiers []FeeTier) (*TieredFeeStrategy, error) {
	if defaultRateBps < 0 || defaultRateBps > 10000 {
		return nil, fmt.Errorf("fee rate must be between 0 and 10000 basis points, got %d", defaultRateBps)
	}
	for _, tier := range tiers {
		if tier.RateBps < 0 || tier.RateBps > 10000 {
			return nil, fmt.Errorf("tier rate must be between 0 and 10000 basis points, got %d", tier.RateBps)
		}
	}

	sortedTiers := make([]FeeTier, len(tiers))
	copy(sortedTiers, tiers)
	sort.Slice(sortedTiers, func(i, j int) bool {
		return sortedTiers[i].MinSubtotal.LessThan(sortedTiers[j].MinSubtotal)
	})

	return &TieredFeeStrategy{
		BaseStrategy: NewBaseStrategy(
			"tiered",
			StrategyTypeFee,
			"Tiered fee applies different rates based on subtotal ranges",
		),
		DefaultRateBps: defaultRateBps,
		Tiers:          sortedTiers,
	}, nil
}

// CalculateFee calculates the platform fee using the applicable tier rate
func (s *TieredFeeStrategy) CalculateFee(ctx context.Context, feeCtx FeeContext) (FeeResult, error) {
	rateBps := s.findApplicableRate(feeCtx.Subtotal)

	appliedRules := []string{"tiered_fee"}
	if rateBps != s.DefaultRateBps {
		appliedRules = append(appliedRules, "volume_rate")
	}

	return FeeResult{
		FeeAmount:    feeFromBps(feeCtx.Subtotal, rateBps),
		RateBps:      rateBps,
		Currency:     feeCtx.Currency,
		AppliedRules: appliedRules,
	}, nil
}

// findApplicableRate finds the applicable tier rate for the given subtotal
func (s *TieredFeeStrategy) findApplicableRate(subtotal decimal.Decimal) int64 {
	rateBps := s.DefaultRateBps
	for _, tier := range s.Tiers {
		if subtotal.GreaterThanOrEqual(tier.MinSubtotal) {
			if tier.MaxSubtotal.IsZero() || subtotal.LessThan(tier.MaxSubtotal) {
				rateBps = tier.RateBps
			}
		}
	}
	return rateBps
}

// SupportsTieredRates returns true for tiered fees
func (s *TieredFeeStrategy) SupportsTieredRates() bool {
	return true
}

// PartnerRateFeeStrategy applies negotiated partner rates with a fallback strategy
type PartnerRateFeeStrategy struct {
	BaseStrategy
	PartnerRates     []PartnerRate // Negotiated rates sorted by priority
	FallbackStrategy FeeStrategy   // Fallback strategy if no partner rate matches
}

// NewPartnerRateFeeStrategy creates a new partner rate fee strategy
func NewPartnerRateFeeStrategy(partnerRates []PartnerRate, fallback FeeStrategy) *PartnerRateFeeStrategy {
	// Sort by priority (lower priority number = higher priority)
	sortedRates := make([]PartnerRate, len(partnerRates))
	copy(sortedRates, partnerRates)
	sort.Slice(sortedRates, func(i, j int) bool {
		return sortedRates[i].PriorityOrder < sortedRates[j].PriorityOrder
	})

	if fallback == nil {
		fallback, _ = NewPercentageFeeStrategy(0)
	}

	return &PartnerRateFeeStrategy{
		BaseStrategy: NewBaseStrategy(
			"partner_rate",
			StrategyTypeFee,
			"Partner rate fee applies negotiated rates for specific kitchen partners",
		),
		PartnerRates:     sortedRates,
		FallbackStrategy: fallback,
	}
}

// CalculateFee calculates the platform fee using partner rates when available
func (s *PartnerRateFeeStrategy) CalculateFee(ctx context.Context, feeCtx FeeContext) (FeeResult, error) {
	rate := s.findPartnerRate(feeCtx)
	if rate == nil {
		return s.FallbackStrategy.CalculateFee(ctx, feeCtx)
	}

	return FeeResult{
		FeeAmount:    feeFromBps(feeCtx.Subtotal, rate.RateBps),
		RateBps:      rate.RateBps,
		Currency:     feeCtx.Currency,
		AppliedRules: []string{"partner_rate_fee"},
	}, nil
}

// findPartnerRate finds the applicable partner rate for the fee context
func (s *PartnerRateFeeStrategy) findPartnerRate(feeCtx FeeContext) *PartnerRate {
	for _, pr := range s.PartnerRates {
		if pr.ManagerID != feeCtx.ManagerID {
			continue
		}

		// Empty LocationID means the rate covers all of the manager's locations
		if pr.LocationID != "" && pr.LocationID != feeCtx.LocationID {
			continue
		}

		if !pr.MinSubtotal.IsZero() && feeCtx.Subtotal.LessThan(pr.MinSubtotal) {
			continue
		}

		return &pr
	}

	return nil
}

// SupportsTieredRates returns true if the fallback strategy supports them
func (s *PartnerRateFeeStrategy) SupportsTieredRates() bool {
	return s.FallbackStrategy.SupportsTieredRates()
}
