package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

func testStripeConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:       "sk_test_abc123",
		WebhookSecret:   "whsec_test_secret",
		IsTestMode:      true,
		DefaultCurrency: "usd",
	}
}

func newTestGateway(t *testing.T) *StripeGateway {
	t.Helper()
	gw, err := NewStripeGateway(testStripeConfig(), zap.NewNop())
	require.NoError(t, err)
	return gw
}

func mustMoney(t *testing.T, cents int64) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromCents(cents, valueobject.USD)
	require.NoError(t, err)
	return m
}

func TestStripeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StripeConfig)
		wantErr bool
	}{
		{name: "valid test config", mutate: func(c *StripeConfig) {}, wantErr: false},
		{name: "missing secret key", mutate: func(c *StripeConfig) { c.SecretKey = "" }, wantErr: true},
		{name: "missing webhook secret", mutate: func(c *StripeConfig) { c.WebhookSecret = "" }, wantErr: true},
		{name: "missing currency", mutate: func(c *StripeConfig) { c.DefaultCurrency = "" }, wantErr: true},
		{name: "test mode with live key", mutate: func(c *StripeConfig) { c.SecretKey = "sk_live_abc123" }, wantErr: true},
		{name: "live mode with test key", mutate: func(c *StripeConfig) { c.IsTestMode = false }, wantErr: true},
		{name: "live mode with live key", mutate: func(c *StripeConfig) {
			c.IsTestMode = false
			c.SecretKey = "sk_live_abc123"
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStripeConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewStripeGateway_InvalidConfig(t *testing.T) {
	_, err := NewStripeGateway(&StripeConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestStripeGateway_RequestValidation(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	amount := mustMoney(t, 15000)

	t.Run("authorize without idempotency key", func(t *testing.T) {
		_, err := gw.Authorize(ctx, payment.AuthorizeRequest{
			CustomerID:      "cus_1",
			PaymentMethodID: "pm_1",
			Amount:          amount,
		})
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidIdempotency)
	})

	t.Run("authorize without customer", func(t *testing.T) {
		_, err := gw.Authorize(ctx, payment.AuthorizeRequest{
			PaymentMethodID: "pm_1",
			Amount:          amount,
			IdempotencyKey:  "bk-1",
		})
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidCustomer)
	})

	t.Run("capture with empty intent", func(t *testing.T) {
		_, err := gw.Capture(ctx, "", amount)
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidIntent)
	})

	t.Run("capture with zero amount", func(t *testing.T) {
		_, err := gw.Capture(ctx, "pi_1", valueobject.ZeroUSD())
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidAmount)
	})

	t.Run("release with empty intent", func(t *testing.T) {
		err := gw.Release(ctx, "")
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidIntent)
	})

	t.Run("refund with zero amount", func(t *testing.T) {
		_, err := gw.Refund(ctx, payment.RefundRequest{
			IntentID:       "pi_1",
			Amount:         valueobject.ZeroUSD(),
			IdempotencyKey: "rf-1",
		})
		assert.ErrorIs(t, err, payment.ErrRefundInvalidAmount)
	})

	t.Run("charge without idempotency key", func(t *testing.T) {
		_, err := gw.ChargeOffSession(ctx, payment.ChargeRequest{
			CustomerID: "cus_1",
			Amount:     amount,
		})
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidIdempotency)
	})

	t.Run("ensure customer without email", func(t *testing.T) {
		_, err := gw.EnsureCustomer(ctx, payment.CustomerParams{})
		assert.ErrorIs(t, err, payment.ErrPaymentInvalidCustomer)
	})
}

func TestMapIntentStatus(t *testing.T) {
	assert.Equal(t, payment.AuthorizationStatusRequiresCapture, mapIntentStatus(stripe.PaymentIntentStatusRequiresCapture))
	assert.Equal(t, payment.AuthorizationStatusCaptured, mapIntentStatus(stripe.PaymentIntentStatusSucceeded))
	assert.Equal(t, payment.AuthorizationStatusReleased, mapIntentStatus(stripe.PaymentIntentStatusCanceled))
	assert.Equal(t, payment.AuthorizationStatusFailed, mapIntentStatus(stripe.PaymentIntentStatusRequiresPaymentMethod))
	assert.Equal(t, payment.AuthorizationStatusFailed, mapIntentStatus(stripe.PaymentIntentStatusProcessing))
}

func TestMoneyFromStripe(t *testing.T) {
	m := moneyFromStripe(15050, stripe.CurrencyUSD)
	assert.Equal(t, int64(15050), m.Cents())
	assert.Equal(t, valueobject.USD, m.Currency())

	// Empty currency falls back to the platform default
	m = moneyFromStripe(100, "")
	assert.Equal(t, valueobject.DefaultCurrency, m.Currency())
}

func TestStripeCurrency(t *testing.T) {
	assert.Equal(t, "usd", stripeCurrency(mustMoney(t, 100)))
}

func TestMapStripeError(t *testing.T) {
	t.Run("non stripe error is retryable", func(t *testing.T) {
		err := mapStripeError(errors.New("dial tcp: timeout"), payment.ErrGatewayRequestFailed)
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("rate limited is retryable", func(t *testing.T) {
		sErr := &stripe.Error{HTTPStatusCode: 429, Msg: "slow down"}
		err := mapStripeError(sErr, payment.ErrGatewayRequestFailed)
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("server error is retryable", func(t *testing.T) {
		sErr := &stripe.Error{HTTPStatusCode: 500, Type: stripe.ErrorTypeAPI}
		err := mapStripeError(sErr, payment.ErrGatewayRequestFailed)
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("request error wraps fallback", func(t *testing.T) {
		sErr := &stripe.Error{HTTPStatusCode: 400, Type: stripe.ErrorTypeInvalidRequest, Msg: "no such customer"}
		err := mapStripeError(sErr, payment.ErrGatewayRequestFailed)
		assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
		assert.Contains(t, err.Error(), "no such customer")
	})
}

func TestCardErrorHelpers(t *testing.T) {
	cardErr := &stripe.Error{
		Type:        stripe.ErrorTypeCard,
		Code:        stripe.ErrorCodeCardDeclined,
		DeclineCode: stripe.DeclineCodeInsufficientFunds,
		Msg:         "Your card has insufficient funds.",
		PaymentIntent: &stripe.PaymentIntent{
			ID: "pi_declined",
		},
	}

	assert.True(t, isCardError(cardErr))
	assert.False(t, isCardError(errors.New("boom")))

	assert.Equal(t, "insufficient_funds", declineCode(cardErr))
	assert.Equal(t, "Your card has insufficient funds.", declineMessage(cardErr))
	assert.Equal(t, "pi_declined", declinedIntentID(cardErr))

	// Without a decline code the error code stands in
	bare := &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeExpiredCard}
	assert.Equal(t, "expired_card", declineCode(bare))
	assert.Equal(t, "card was declined", declineMessage(bare))
	assert.Equal(t, "", declinedIntentID(bare))

	assert.True(t, hasErrorCode(bare, stripe.ErrorCodeExpiredCard))
	assert.False(t, hasErrorCode(bare, stripe.ErrorCodeAmountTooLarge))
}

func rawEvent(t *testing.T, eventType stripe.EventType, object any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestNormalizeStripeEvent_IntentCaptured(t *testing.T) {
	event := rawEvent(t, stripe.EventTypePaymentIntentSucceeded, map[string]any{
		"id":              "pi_1",
		"amount_received": 12500,
		"currency":        "usd",
		"metadata":        map[string]string{"booking_id": "b-1"},
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", out.EventID)
	assert.Equal(t, payment.WebhookIntentCaptured, out.Type)
	assert.Equal(t, "pi_1", out.IntentID)
	assert.Equal(t, int64(12500), out.Amount.Cents())
	assert.Equal(t, "b-1", out.Metadata["booking_id"])
}

func TestNormalizeStripeEvent_ClaimChargeSucceeded(t *testing.T) {
	event := rawEvent(t, stripe.EventTypePaymentIntentSucceeded, map[string]any{
		"id":              "pi_2",
		"amount_received": 8000,
		"currency":        "usd",
		"metadata":        map[string]string{"claim_id": "c-1"},
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, payment.WebhookChargeSucceeded, out.Type)
	assert.Equal(t, "pi_2", out.ChargeID)
	assert.Equal(t, "c-1", out.Metadata["claim_id"])
}

func TestNormalizeStripeEvent_IntentReleased(t *testing.T) {
	event := rawEvent(t, stripe.EventTypePaymentIntentCanceled, map[string]any{
		"id":       "pi_3",
		"amount":   5000,
		"currency": "usd",
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, payment.WebhookIntentReleased, out.Type)
	assert.Equal(t, "pi_3", out.IntentID)
	assert.Equal(t, int64(5000), out.Amount.Cents())
}

func TestNormalizeStripeEvent_ClaimChargeFailed(t *testing.T) {
	event := rawEvent(t, stripe.EventTypePaymentIntentPaymentFailed, map[string]any{
		"id":       "pi_4",
		"amount":   8000,
		"currency": "usd",
		"metadata": map[string]string{"claim_id": "c-2"},
		"last_payment_error": map[string]any{
			"code":         "card_declined",
			"decline_code": "insufficient_funds",
			"message":      "Your card has insufficient funds.",
		},
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, payment.WebhookChargeFailed, out.Type)
	assert.Equal(t, "insufficient_funds", out.FailureCode)
	assert.Equal(t, "Your card has insufficient funds.", out.FailureMessage)
}

func TestNormalizeStripeEvent_PaymentFailedWithoutClaim(t *testing.T) {
	event := rawEvent(t, stripe.EventTypePaymentIntentPaymentFailed, map[string]any{
		"id":       "pi_5",
		"amount":   5000,
		"currency": "usd",
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookUnhandled, out.Type)
}

func TestNormalizeStripeEvent_ChargeRefunded(t *testing.T) {
	event := rawEvent(t, stripe.EventTypeChargeRefunded, map[string]any{
		"id":              "ch_1",
		"payment_intent":  "pi_6",
		"amount_refunded": 3000,
		"currency":        "usd",
		"refunds": map[string]any{
			"data": []map[string]any{
				{"id": "re_1", "amount": 3000, "currency": "usd"},
			},
		},
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, payment.WebhookChargeRefunded, out.Type)
	assert.Equal(t, "ch_1", out.ChargeID)
	assert.Equal(t, "pi_6", out.IntentID)
	assert.Equal(t, "re_1", out.RefundID)
	assert.Equal(t, int64(3000), out.Amount.Cents())
}

func TestNormalizeStripeEvent_ChargeRefundedWithoutRefundList(t *testing.T) {
	event := rawEvent(t, stripe.EventTypeChargeRefunded, map[string]any{
		"id":              "ch_2",
		"payment_intent":  "pi_7",
		"amount_refunded": 4500,
		"currency":        "usd",
	})

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, payment.WebhookChargeRefunded, out.Type)
	assert.Equal(t, "", out.RefundID)
	assert.Equal(t, int64(4500), out.Amount.Cents())
}

func TestNormalizeStripeEvent_Unhandled(t *testing.T) {
	event := &stripe.Event{
		ID:   "evt_9",
		Type: stripe.EventTypeCustomerCreated,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}

	out, err := normalizeStripeEvent(event, []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookUnhandled, out.Type)
}

func signStripePayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhook(t *testing.T) {
	gw := newTestGateway(t)
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_sig","api_version":%q,"type":"payment_intent.canceled","data":{"object":{"id":"pi_sig","amount":1000,"currency":"usd"}}}`,
		stripe.APIVersion))

	t.Run("valid signature", func(t *testing.T) {
		sig := signStripePayload(payload, gw.config.WebhookSecret, time.Now())
		event, err := gw.VerifyWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, "evt_sig", event.EventID)
		assert.Equal(t, payment.WebhookIntentReleased, event.Type)
		assert.Equal(t, "pi_sig", event.IntentID)
	})

	t.Run("bad signature", func(t *testing.T) {
		_, err := gw.VerifyWebhook(payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidWebhook)
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := signStripePayload(payload, "whsec_other", time.Now())
		_, err := gw.VerifyWebhook(payload, sig)
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidWebhook)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		sig := signStripePayload(payload, gw.config.WebhookSecret, time.Now().Add(-time.Hour))
		_, err := gw.VerifyWebhook(payload, sig)
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidWebhook)
	})
}
