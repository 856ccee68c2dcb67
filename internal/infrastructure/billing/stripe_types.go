package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v81"

	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// stripeCurrency returns the lowercase ISO code Stripe expects
func stripeCurrency(m valueobject.Money) string {
	return strings.ToLower(string(m.Currency()))
}

// moneyFromStripe converts a Stripe minor-unit amount into Money.
// Stripe reports currencies lowercase; an empty currency falls back to USD.
func moneyFromStripe(amount int64, currency stripe.Currency) valueobject.Money {
	code := valueobject.Currency(strings.ToUpper(string(currency)))
	if code == "" {
		code = valueobject.DefaultCurrency
	}
	m, err := valueobject.NewMoneyFromCents(amount, code)
	if err != nil {
		return valueobject.ZeroUSD()
	}
	return m
}

// mapIntentStatus maps a Stripe PaymentIntent status to the domain status
func mapIntentStatus(status stripe.PaymentIntentStatus) payment.AuthorizationStatus {
	switch status {
	case stripe.PaymentIntentStatusRequiresCapture:
		return payment.AuthorizationStatusRequiresCapture
	case stripe.PaymentIntentStatusSucceeded:
		return payment.AuthorizationStatusCaptured
	case stripe.PaymentIntentStatusCanceled:
		return payment.AuthorizationStatusReleased
	default:
		return payment.AuthorizationStatusFailed
	}
}

// asStripeError unwraps err into a *stripe.Error if it is one
func asStripeError(err error) (*stripe.Error, bool) {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}

// isCardError reports whether err is a card-level decline
func isCardError(err error) bool {
	sErr, ok := asStripeError(err)
	return ok && sErr.Type == stripe.ErrorTypeCard
}

// hasErrorCode reports whether err carries the given Stripe error code
func hasErrorCode(err error, code stripe.ErrorCode) bool {
	sErr, ok := asStripeError(err)
	return ok && sErr.Code == code
}

// declineCode extracts the most specific decline code from a card error
func declineCode(err error) string {
	sErr, ok := asStripeError(err)
	if !ok {
		return ""
	}
	if sErr.DeclineCode != "" {
		return string(sErr.DeclineCode)
	}
	return string(sErr.Code)
}

// declineMessage extracts the human-readable decline reason
func declineMessage(err error) string {
	if sErr, ok := asStripeError(err); ok && sErr.Msg != "" {
		return sErr.Msg
	}
	return "card was declined"
}

// declinedIntentID returns the intent Stripe created before declining, so a
// failed charge can still be tied back to the gateway
func declinedIntentID(err error) string {
	if sErr, ok := asStripeError(err); ok && sErr.PaymentIntent != nil {
		return sErr.PaymentIntent.ID
	}
	return ""
}

// mapStripeError maps a gateway failure onto the domain error vocabulary.
// Non-Stripe errors and Stripe outages become retryable gateway errors;
// everything else wraps fallback.
func mapStripeError(err error, fallback error) error {
	sErr, ok := asStripeError(err)
	if !ok {
		return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}

	switch {
	case sErr.HTTPStatusCode == http.StatusTooManyRequests,
		sErr.HTTPStatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", payment.ErrGatewayUnavailable, sErr.Msg)
	case sErr.Type == stripe.ErrorTypeAPI:
		return fmt.Errorf("%w: %s", payment.ErrGatewayUnavailable, sErr.Msg)
	default:
		return fmt.Errorf("%w: %s", fallback, sErr.Msg)
	}
}

// normalizeStripeEvent maps a verified Stripe event onto the domain webhook
// vocabulary. PaymentIntent events carrying claim metadata are claim charge
// outcomes; the rest are booking hold lifecycle events. Kinds the platform
// does not consume come back as UNHANDLED so the delivery can be acknowledged.
func normalizeStripeEvent(event *stripe.Event, payload []byte) (*payment.WebhookEvent, error) {
	out := &payment.WebhookEvent{
		EventID:    event.ID,
		Type:       payment.WebhookUnhandled,
		RawPayload: payload,
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("unmarshal payment_intent: %w", err)
		}
		out.IntentID = pi.ID
		out.Amount = moneyFromStripe(pi.AmountReceived, pi.Currency)
		out.Metadata = pi.Metadata
		if _, isClaim := pi.Metadata["claim_id"]; isClaim {
			out.Type = payment.WebhookChargeSucceeded
			out.ChargeID = pi.ID
		} else {
			out.Type = payment.WebhookIntentCaptured
		}

	case stripe.EventTypePaymentIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("unmarshal payment_intent: %w", err)
		}
		out.Type = payment.WebhookIntentReleased
		out.IntentID = pi.ID
		out.Amount = moneyFromStripe(pi.Amount, pi.Currency)
		out.Metadata = pi.Metadata

	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("unmarshal payment_intent: %w", err)
		}
		// On-session authorization failures surface synchronously, so
		// only claim charges are interesting here.
		if _, isClaim := pi.Metadata["claim_id"]; !isClaim {
			return out, nil
		}
		out.Type = payment.WebhookChargeFailed
		out.IntentID = pi.ID
		out.ChargeID = pi.ID
		out.Amount = moneyFromStripe(pi.Amount, pi.Currency)
		out.Metadata = pi.Metadata
		if pi.LastPaymentError != nil {
			out.FailureCode = string(pi.LastPaymentError.DeclineCode)
			if out.FailureCode == "" {
				out.FailureCode = string(pi.LastPaymentError.Code)
			}
			out.FailureMessage = pi.LastPaymentError.Msg
		}

	case stripe.EventTypeChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("unmarshal charge: %w", err)
		}
		out.Type = payment.WebhookChargeRefunded
		out.ChargeID = ch.ID
		out.Metadata = ch.Metadata
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
		// Stripe lists refunds newest first
		if ch.Refunds != nil && len(ch.Refunds.Data) > 0 {
			newest := ch.Refunds.Data[0]
			out.RefundID = newest.ID
			out.Amount = moneyFromStripe(newest.Amount, newest.Currency)
		} else {
			out.Amount = moneyFromStripe(ch.AmountRefunded, ch.Currency)
		}
	}

	return out, nil
}
