package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// ---------------------------------------------------------------------------
// Payment Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Authorization errors
	ErrPaymentInvalidCustomer      = errors.New("payment: invalid customer ID")
	ErrPaymentInvalidPaymentMethod = errors.New("payment: invalid payment method ID")
	ErrPaymentInvalidAmount        = errors.New("payment: invalid amount")
	ErrPaymentInvalidIntent        = errors.New("payment: invalid payment intent ID")
	ErrPaymentInvalidIdempotency   = errors.New("payment: idempotency key is required")
	ErrAuthorizationDeclined       = errors.New("payment: authorization was declined")

	// Capture and release errors
	ErrCaptureExceedsAuthorized = errors.New("payment: capture amount exceeds authorized amount")
	ErrIntentNotCapturable      = errors.New("payment: intent is not in a capturable state")
	ErrIntentNotReleasable      = errors.New("payment: intent is not in a releasable state")

	// Refund errors
	ErrRefundInvalidAmount   = errors.New("payment: invalid refund amount")
	ErrRefundExceedsCaptured = errors.New("payment: refund amount exceeds captured amount")

	// Off-session charge errors
	ErrChargeDeclined      = errors.New("payment: off-session charge was declined")
	ErrNoUsablePaymentCard = errors.New("payment: customer has no usable payment method")

	// Gateway errors
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrGatewayInvalidWebhook  = errors.New("payment: invalid webhook signature")
)

// ---------------------------------------------------------------------------
// AuthorizationStatus represents the status of a payment authorization
type AuthorizationStatus string

const (
	// AuthorizationStatusRequiresCapture indicates the hold is placed and awaiting capture
	AuthorizationStatusRequiresCapture AuthorizationStatus = "REQUIRES_CAPTURE"
	// AuthorizationStatusCaptured indicates the authorization was captured
	AuthorizationStatusCaptured AuthorizationStatus = "CAPTURED"
	// AuthorizationStatusReleased indicates the authorization was cancelled without capture
	AuthorizationStatusReleased AuthorizationStatus = "RELEASED"
	// AuthorizationStatusFailed indicates the authorization failed
	AuthorizationStatusFailed AuthorizationStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s AuthorizationStatus) IsValid() bool {
	switch s {
	case AuthorizationStatusRequiresCapture, AuthorizationStatusCaptured,
		AuthorizationStatusReleased, AuthorizationStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of AuthorizationStatus
func (s AuthorizationStatus) String() string {
	return string(s)
}

// IsHeld returns true if the authorization is holding funds awaiting a decision
func (s AuthorizationStatus) IsHeld() bool {
	return s == AuthorizationStatusRequiresCapture
}

// ChargeOutcome represents the outcome of an off-session charge
type ChargeOutcome string

const (
	// ChargeOutcomeSucceeded indicates the charge settled
	ChargeOutcomeSucceeded ChargeOutcome = "SUCCEEDED"
	// ChargeOutcomePending indicates the charge is still processing
	ChargeOutcomePending ChargeOutcome = "PENDING"
	// ChargeOutcomeFailed indicates the charge was declined or errored
	ChargeOutcomeFailed ChargeOutcome = "FAILED"
)

// IsValid returns true if the outcome is valid
func (o ChargeOutcome) IsValid() bool {
	switch o {
	case ChargeOutcomeSucceeded, ChargeOutcomePending, ChargeOutcomeFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of ChargeOutcome
func (o ChargeOutcome) String() string {
	return string(o)
}

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// AuthorizeRequest represents a request to place a manual-capture hold
type AuthorizeRequest struct {
	// CustomerID is the gateway customer the card belongs to
	CustomerID string
	// PaymentMethodID is the card to authorize against
	PaymentMethodID string
	// Amount is the amount to hold
	Amount valueobject.Money
	// Description is shown on the customer's statement/dashboard
	Description string
	// IdempotencyKey guards against duplicate holds for the same booking
	IdempotencyKey string
	// Metadata is additional key-value data to associate with the intent
	Metadata map[string]string
}

// Validate validates the authorize request
func (r *AuthorizeRequest) Validate() error {
	if r.CustomerID == "" {
		return ErrPaymentInvalidCustomer
	}
	if r.PaymentMethodID == "" {
		return ErrPaymentInvalidPaymentMethod
	}
	if !r.Amount.IsPositive() {
		return ErrPaymentInvalidAmount
	}
	if r.IdempotencyKey == "" {
		return ErrPaymentInvalidIdempotency
	}
	return nil
}

// Authorization represents a placed hold
type Authorization struct {
	// IntentID is the gateway's identifier for the hold
	IntentID string
	// Status is the authorization status
	Status AuthorizationStatus
}

// CaptureResult represents the outcome of capturing an authorization
type CaptureResult struct {
	// CapturedAmount is the amount actually captured
	CapturedAmount valueobject.Money
	// ProcessorFee is the gateway's fee on the capture, read from the
	// balance transaction; zero when the gateway does not report it
	ProcessorFee valueobject.Money
	// TransactionID is the gateway's balance transaction identifier
	TransactionID string
}

// RefundRequest represents a request to refund part of a captured payment
type RefundRequest struct {
	// IntentID is the captured intent to refund against
	IntentID string
	// Amount is the amount to send back
	Amount valueobject.Money
	// Reason is a free-form reason recorded with the gateway
	Reason string
	// IdempotencyKey guards against duplicate refunds
	IdempotencyKey string
}

// Validate validates the refund request
func (r *RefundRequest) Validate() error {
	if r.IntentID == "" {
		return ErrPaymentInvalidIntent
	}
	if !r.Amount.IsPositive() {
		return ErrRefundInvalidAmount
	}
	if r.IdempotencyKey == "" {
		return ErrPaymentInvalidIdempotency
	}
	return nil
}

// RefundResult represents the outcome of a refund request
type RefundResult struct {
	// RefundID is the gateway's identifier for the refund
	RefundID string
}

// ChargeRequest represents a request to charge a saved card off-session
type ChargeRequest struct {
	// CustomerID is the gateway customer to charge
	CustomerID string
	// PaymentMethodID is the saved card; empty means the customer's default
	PaymentMethodID string
	// Amount is the amount to charge
	Amount valueobject.Money
	// Description is shown on the customer's statement/dashboard
	Description string
	// IdempotencyKey guards against duplicate charges for the same claim
	IdempotencyKey string
	// Metadata is additional key-value data to associate with the charge
	Metadata map[string]string
}

// Validate validates the charge request
func (r *ChargeRequest) Validate() error {
	if r.CustomerID == "" {
		return ErrPaymentInvalidCustomer
	}
	if !r.Amount.IsPositive() {
		return ErrPaymentInvalidAmount
	}
	if r.IdempotencyKey == "" {
		return ErrPaymentInvalidIdempotency
	}
	return nil
}

// ChargeResult represents the outcome of an off-session charge
type ChargeResult struct {
	// ChargeID is the gateway's identifier for the charge
	ChargeID string
	// Outcome is the charge outcome
	Outcome ChargeOutcome
	// FailureCode is the gateway's decline code when Outcome is FAILED
	FailureCode string
	// FailureMessage is the human-readable decline reason
	FailureMessage string
}

// CustomerParams carries what the gateway needs to create or look up a customer
type CustomerParams struct {
	// UserID is our internal user ID, stored as gateway metadata
	UserID uuid.UUID
	// Email is the customer's email
	Email string
	// Name is the customer's display name
	Name string
}

// Validate validates the customer params
func (p *CustomerParams) Validate() error {
	if p.UserID == uuid.Nil || p.Email == "" {
		return ErrPaymentInvalidCustomer
	}
	return nil
}

// ---------------------------------------------------------------------------
// Webhook Types
// ---------------------------------------------------------------------------

// WebhookEventType identifies the gateway notification kind
type WebhookEventType string

const (
	// WebhookIntentCaptured fires when a hold is captured
	WebhookIntentCaptured WebhookEventType = "INTENT_CAPTURED"
	// WebhookIntentReleased fires when a hold is cancelled
	WebhookIntentReleased WebhookEventType = "INTENT_RELEASED"
	// WebhookChargeRefunded fires when a refund lands
	WebhookChargeRefunded WebhookEventType = "CHARGE_REFUNDED"
	// WebhookChargeSucceeded fires when an off-session charge settles
	WebhookChargeSucceeded WebhookEventType = "CHARGE_SUCCEEDED"
	// WebhookChargeFailed fires when an off-session charge fails
	WebhookChargeFailed WebhookEventType = "CHARGE_FAILED"
	// WebhookUnhandled covers event kinds the platform does not consume
	WebhookUnhandled WebhookEventType = "UNHANDLED"
)

// WebhookEvent represents a verified gateway notification
type WebhookEvent struct {
	// EventID is the gateway's unique event identifier, used for idempotency
	EventID string
	// Type is the normalized event kind
	Type WebhookEventType
	// IntentID is set for intent-scoped events
	IntentID string
	// ChargeID is set for charge-scoped events
	ChargeID string
	// RefundID is set for refund events
	RefundID string
	// Amount is the money amount the event refers to, when present
	Amount valueobject.Money
	// FailureCode is the processor's decline code on failed charges
	FailureCode string
	// FailureMessage is the human-readable decline reason on failed charges
	FailureMessage string
	// Metadata echoes the key/value pairs attached when the intent or
	// charge was created
	Metadata map[string]string
	// RawPayload is the original event payload
	RawPayload []byte
}

// ---------------------------------------------------------------------------
// Gateway Port Interface
// ---------------------------------------------------------------------------

// Gateway defines the port interface for the card payment processor
// This interface follows the Ports & Adapters pattern - it's defined in the domain
// layer, and the concrete implementation (Stripe) lives in the infrastructure layer.
type Gateway interface {
	// EnsureCustomer returns the gateway customer ID for a user, creating
	// the customer on first use
	EnsureCustomer(ctx context.Context, params CustomerParams) (string, error)

	// Authorize places a manual-capture hold on the customer's card
	Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error)

	// Capture captures up to the authorized amount; partial capture is
	// allowed once, the gateway releases the remainder automatically
	Capture(ctx context.Context, intentID string, amount valueobject.Money) (*CaptureResult, error)

	// Release cancels an uncaptured authorization, freeing the hold
	Release(ctx context.Context, intentID string) error

	// Refund sends money back against a captured intent
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)

	// ChargeOffSession charges a saved card without the customer present
	ChargeOffSession(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// VerifyWebhook checks the notification signature and normalizes the event
	// Returns ErrGatewayInvalidWebhook when the signature does not verify
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// WebhookHandler defines the interface for processing verified gateway events
// This is implemented by the application layer
type WebhookHandler interface {
	// HandleWebhook applies a verified gateway event to platform state
	// Implementations must be idempotent on EventID
	HandleWebhook(ctx context.Context, event *WebhookEvent) error
}
