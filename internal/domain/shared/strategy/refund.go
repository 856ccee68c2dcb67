package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RefundContext provides context for refund amount calculation
type RefundContext struct {
	CapturedAmount decimal.Decimal // Total captured on the payment
	RefundedAmount decimal.Decimal // Already refunded so far
	ProcessorFee   decimal.Decimal // Processor fee paid on the capture
	RefundBase     decimal.Decimal // Pre-deduction amount the items being refunded are worth
	Currency       string
}

// RefundResult contains the result of refund amount calculation
type RefundResult struct {
	RefundAmount decimal.Decimal // Amount to send back to the chef
	FeeDeduction decimal.Decimal // Processor fee share withheld from the refund
	Capped       bool            // True if the refund was capped at the remaining refundable amount
	AppliedRules []string
}

// RefundFeeStrategy defines how processor fees are treated when refunding
type RefundFeeStrategy interface {
	Strategy
	// CalculateRefund determines the refund amount for a given refund context
	CalculateRefund(ctx context.Context, refundCtx RefundContext) (RefundResult, error)
}

// validateRefundContext checks the invariants every refund calculation relies on
func validateRefundContext(refundCtx RefundContext) error {
	if refundCtx.RefundBase.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("refund base must be positive, got %s", refundCtx.RefundBase.String())
	}
	if refundCtx.CapturedAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("captured amount must be positive, got %s", refundCtx.CapturedAmount.String())
	}
	if refundCtx.RefundedAmount.IsNegative() {
		return fmt.Errorf("refunded amount cannot be negative, got %s", refundCtx.RefundedAmount.String())
	}
	if refundCtx.ProcessorFee.IsNegative() {
		return fmt.Errorf("processor fee cannot be negative, got %s", refundCtx.ProcessorFee.String())
	}
	return nil
}

// capRefund limits the refund to what is still refundable on the payment
func capRefund(amount decimal.Decimal, refundCtx RefundContext) (decimal.Decimal, bool) {
	remaining := refundCtx.CapturedAmount.Sub(refundCtx.RefundedAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if amount.GreaterThan(remaining) {
		return remaining, true
	}
	return amount, false
}

// DeductProcessorFeeStrategy withholds the refund's proportional share of the processor fee
type DeductProcessorFeeStrategy struct {
	BaseStrategy
}

// NewDeductProcessorFeeStrategy creates a new deducting refund strategy
func NewDeductProcessorFeeStrategy() *DeductProcessorFeeStrategy {
	return &DeductProcessorFeeStrategy{
		BaseStrategy: NewBaseStrategy(
			"deduct_processor_fee",
			StrategyTypeRefund,
			"Deducts the refund's proportional share of the processor fee",
		),
	}
}

// CalculateRefund computes base minus the fee share proportional to base over captured
func (s *DeductProcessorFeeStrategy) CalculateRefund(ctx context.Context, refundCtx RefundContext) (RefundResult, error) {
	if err := validateRefundContext(refundCtx); err != nil {
		return RefundResult{}, err
	}

	// Fee share scales with the slice of the capture being refunded
	feeDeduction := refundCtx.ProcessorFee.
		Mul(refundCtx.RefundBase).
		Div(refundCtx.CapturedAmount).
		Round(2)

	refund := refundCtx.RefundBase.Sub(feeDeduction)
	if refund.IsNegative() {
		refund = decimal.Zero
	}

	refund, capped := capRefund(refund, refundCtx)

	appliedRules := []string{"processor_fee_deducted"}
	if capped {
		appliedRules = append(appliedRules, "capped_at_refundable")
	}

	return RefundResult{
		RefundAmount: refund,
		FeeDeduction: feeDeduction,
		Capped:       capped,
		AppliedRules: appliedRules,
	}, nil
}

// AbsorbProcessorFeeStrategy refunds the full base and lets the platform absorb the fee
type AbsorbProcessorFeeStrategy struct {
	BaseStrategy
}

// NewAbsorbProcessorFeeStrategy creates a new absorbing refund strategy
func NewAbsorbProcessorFeeStrategy() *AbsorbProcessorFeeStrategy {
	return &AbsorbProcessorFeeStrategy{
		BaseStrategy: NewBaseStrategy(
			"absorb_processor_fee",
			StrategyTypeRefund,
			"Refunds the full base amount and absorbs the processor fee",
		),
	}
}

// CalculateRefund returns the full refund base, capped at the remaining refundable amount
func (s *AbsorbProcessorFeeStrategy) CalculateRefund(ctx context.Context, refundCtx RefundContext) (RefundResult, error) {
	if err := validateRefundContext(refundCtx); err != nil {
		return RefundResult{}, err
	}

	refund, capped := capRefund(refundCtx.RefundBase.Round(2), refundCtx)

	appliedRules := []string{"processor_fee_absorbed"}
	if capped {
		appliedRules = append(appliedRules, "capped_at_refundable")
	}

	return RefundResult{
		RefundAmount: refund,
		FeeDeduction: decimal.Zero,
		Capped:       capped,
		AppliedRules: appliedRules,
	}, nil
}
