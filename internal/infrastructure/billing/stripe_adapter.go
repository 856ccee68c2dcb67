package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// StripeGateway implements the payment.Gateway port on the Stripe API.
// Holds are manual-capture PaymentIntents; claim charges are off-session
// PaymentIntents against a saved card.
type StripeGateway struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway adapter
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Initialize Stripe client
	config.InitStripeClient()

	return &StripeGateway{
		config: config,
		logger: logger,
	}, nil
}

// EnsureCustomer returns the Stripe customer for a platform user, creating
// one on first use. Lookup goes through customer search on the user_id
// metadata so a retried signup never mints a second customer.
func (g *StripeGateway) EnsureCustomer(ctx context.Context, params payment.CustomerParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	g.logger.Debug("Ensuring Stripe customer",
		zap.String("user_id", params.UserID.String()),
		zap.String("email", params.Email))

	searchParams := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['user_id']:'%s'", params.UserID),
			Context: ctx,
		},
	}

	iter := customer.Search(searchParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		g.logger.Error("Failed to search Stripe customers",
			zap.String("user_id", params.UserID.String()),
			zap.Error(err))
		return "", mapStripeError(err, payment.ErrGatewayRequestFailed)
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
		Metadata: map[string]string{
			"user_id": params.UserID.String(),
		},
	}
	createParams.Context = ctx
	if params.Name != "" {
		createParams.Name = stripe.String(params.Name)
	}

	cust, err := customer.New(createParams)
	if err != nil {
		g.logger.Error("Failed to create Stripe customer",
			zap.String("user_id", params.UserID.String()),
			zap.Error(err))
		return "", mapStripeError(err, payment.ErrGatewayRequestFailed)
	}

	g.logger.Info("Created Stripe customer",
		zap.String("user_id", params.UserID.String()),
		zap.String("customer_id", cust.ID))

	return cust.ID, nil
}

// Authorize places a manual-capture hold on the chef's card. The intent is
// confirmed in the same call; a decline surfaces as ErrAuthorizationDeclined.
func (g *StripeGateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Authorization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.logger.Debug("Authorizing Stripe hold",
		zap.String("customer_id", req.CustomerID),
		zap.String("amount", req.Amount.StringFixed(2)))

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount.Cents()),
		Currency:           stripe.String(stripeCurrency(req.Amount)),
		Customer:           stripe.String(req.CustomerID),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		if isCardError(err) {
			g.logger.Warn("Stripe authorization declined",
				zap.String("customer_id", req.CustomerID),
				zap.String("decline_code", declineCode(err)))
			return nil, fmt.Errorf("%w: %s", payment.ErrAuthorizationDeclined, declineMessage(err))
		}
		g.logger.Error("Failed to authorize Stripe hold",
			zap.String("customer_id", req.CustomerID),
			zap.Error(err))
		return nil, mapStripeError(err, payment.ErrGatewayRequestFailed)
	}

	status := mapIntentStatus(pi.Status)
	if status == payment.AuthorizationStatusFailed {
		g.logger.Warn("Stripe hold did not reach requires_capture",
			zap.String("intent_id", pi.ID),
			zap.String("stripe_status", string(pi.Status)))
		return nil, fmt.Errorf("%w: intent status %s", payment.ErrAuthorizationDeclined, pi.Status)
	}

	g.logger.Info("Placed Stripe hold",
		zap.String("intent_id", pi.ID),
		zap.String("amount", req.Amount.StringFixed(2)))

	return &payment.Authorization{
		IntentID: pi.ID,
		Status:   status,
	}, nil
}

// Capture captures up to the authorized amount. Stripe releases the
// uncaptured remainder of a partial capture automatically. The processor fee
// is read from the expanded balance transaction on the latest charge.
func (g *StripeGateway) Capture(ctx context.Context, intentID string, amount valueobject.Money) (*payment.CaptureResult, error) {
	if intentID == "" {
		return nil, payment.ErrPaymentInvalidIntent
	}
	if !amount.IsPositive() {
		return nil, payment.ErrPaymentInvalidAmount
	}

	g.logger.Debug("Capturing Stripe hold",
		zap.String("intent_id", intentID),
		zap.String("amount", amount.StringFixed(2)))

	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(amount.Cents()),
	}
	params.Context = ctx
	params.AddExpand("latest_charge.balance_transaction")

	pi, err := paymentintent.Capture(intentID, params)
	if err != nil {
		g.logger.Error("Failed to capture Stripe hold",
			zap.String("intent_id", intentID),
			zap.Error(err))
		switch {
		case hasErrorCode(err, stripe.ErrorCodeAmountTooLarge):
			return nil, payment.ErrCaptureExceedsAuthorized
		case hasErrorCode(err, stripe.ErrorCodePaymentIntentUnexpectedState):
			return nil, payment.ErrIntentNotCapturable
		default:
			return nil, mapStripeError(err, payment.ErrGatewayRequestFailed)
		}
	}

	result := &payment.CaptureResult{
		CapturedAmount: moneyFromStripe(pi.AmountReceived, pi.Currency),
		ProcessorFee:   valueobject.Zero(amount.Currency()),
	}
	if pi.LatestCharge != nil && pi.LatestCharge.BalanceTransaction != nil {
		bt := pi.LatestCharge.BalanceTransaction
		result.ProcessorFee = moneyFromStripe(bt.Fee, stripe.Currency(bt.Currency))
		result.TransactionID = bt.ID
	}

	g.logger.Info("Captured Stripe hold",
		zap.String("intent_id", intentID),
		zap.String("captured", result.CapturedAmount.StringFixed(2)),
		zap.String("fee", result.ProcessorFee.StringFixed(2)))

	return result, nil
}

// Release cancels an uncaptured hold, freeing the funds on the card
func (g *StripeGateway) Release(ctx context.Context, intentID string) error {
	if intentID == "" {
		return payment.ErrPaymentInvalidIntent
	}

	g.logger.Debug("Releasing Stripe hold", zap.String("intent_id", intentID))

	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String("requested_by_customer"),
	}
	params.Context = ctx

	if _, err := paymentintent.Cancel(intentID, params); err != nil {
		g.logger.Error("Failed to release Stripe hold",
			zap.String("intent_id", intentID),
			zap.Error(err))
		if hasErrorCode(err, stripe.ErrorCodePaymentIntentUnexpectedState) {
			return payment.ErrIntentNotReleasable
		}
		return mapStripeError(err, payment.ErrGatewayRequestFailed)
	}

	g.logger.Info("Released Stripe hold", zap.String("intent_id", intentID))
	return nil
}

// Refund sends money back against a captured intent. The free-form reason
// travels as metadata since Stripe only accepts its own reason enum.
func (g *StripeGateway) Refund(ctx context.Context, req payment.RefundRequest) (*payment.RefundResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.logger.Debug("Refunding Stripe payment",
		zap.String("intent_id", req.IntentID),
		zap.String("amount", req.Amount.StringFixed(2)))

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.IntentID),
		Amount:        stripe.Int64(req.Amount.Cents()),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	if req.Reason != "" {
		params.Metadata = map[string]string{"reason": req.Reason}
	}

	r, err := refund.New(params)
	if err != nil {
		g.logger.Error("Failed to refund Stripe payment",
			zap.String("intent_id", req.IntentID),
			zap.Error(err))
		switch {
		case hasErrorCode(err, stripe.ErrorCodeAmountTooLarge),
			hasErrorCode(err, stripe.ErrorCodeChargeAlreadyRefunded):
			return nil, payment.ErrRefundExceedsCaptured
		default:
			return nil, mapStripeError(err, payment.ErrGatewayRequestFailed)
		}
	}

	g.logger.Info("Refunded Stripe payment",
		zap.String("intent_id", req.IntentID),
		zap.String("refund_id", r.ID),
		zap.String("amount", req.Amount.StringFixed(2)))

	return &payment.RefundResult{RefundID: r.ID}, nil
}

// ChargeOffSession charges a saved card with the chef absent. A card decline
// comes back as a FAILED ChargeResult rather than an error so the caller can
// record the decline code against the claim.
func (g *StripeGateway) ChargeOffSession(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.logger.Debug("Charging Stripe card off-session",
		zap.String("customer_id", req.CustomerID),
		zap.String("amount", req.Amount.StringFixed(2)))

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount.Cents()),
		Currency:           stripe.String(stripeCurrency(req.Amount)),
		Customer:           stripe.String(req.CustomerID),
		Confirm:            stripe.Bool(true),
		OffSession:         stripe.Bool(true),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		if isCardError(err) {
			g.logger.Warn("Stripe off-session charge declined",
				zap.String("customer_id", req.CustomerID),
				zap.String("decline_code", declineCode(err)))
			return &payment.ChargeResult{
				ChargeID:       declinedIntentID(err),
				Outcome:        payment.ChargeOutcomeFailed,
				FailureCode:    declineCode(err),
				FailureMessage: declineMessage(err),
			}, nil
		}
		g.logger.Error("Failed to charge Stripe card off-session",
			zap.String("customer_id", req.CustomerID),
			zap.Error(err))
		return nil, mapStripeError(err, payment.ErrGatewayRequestFailed)
	}

	result := &payment.ChargeResult{ChargeID: pi.ID}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Outcome = payment.ChargeOutcomeSucceeded
	case stripe.PaymentIntentStatusProcessing:
		result.Outcome = payment.ChargeOutcomePending
	default:
		result.Outcome = payment.ChargeOutcomeFailed
		if pi.LastPaymentError != nil {
			result.FailureCode = string(pi.LastPaymentError.DeclineCode)
			if result.FailureCode == "" {
				result.FailureCode = string(pi.LastPaymentError.Code)
			}
			result.FailureMessage = pi.LastPaymentError.Msg
		}
	}

	g.logger.Info("Stripe off-session charge finished",
		zap.String("intent_id", pi.ID),
		zap.String("outcome", string(result.Outcome)))

	return result, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret and normalizes the event for the application layer
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidWebhook, err)
	}

	normalized, err := normalizeStripeEvent(&event, payload)
	if err != nil {
		g.logger.Error("Failed to normalize Stripe event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}

	return normalized, nil
}

// Ensure StripeGateway implements the domain port
var _ payment.Gateway = (*StripeGateway)(nil)
