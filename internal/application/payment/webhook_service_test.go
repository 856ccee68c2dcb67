package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) EnsureCustomer(ctx context.Context, params payment.CustomerParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Authorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Authorization), args.Error(1)
}

func (m *MockGateway) Capture(ctx context.Context, intentID string, amount valueobject.Money) (*payment.CaptureResult, error) {
	args := m.Called(ctx, intentID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CaptureResult), args.Error(1)
}

func (m *MockGateway) Release(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

func (m *MockGateway) Refund(ctx context.Context, req payment.RefundRequest) (*payment.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

func (m *MockGateway) ChargeOffSession(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// MockBookingRepository is a mock implementation of booking.BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByNumber(ctx context.Context, bookingNumber string) (*booking.Booking, error) {
	args := m.Called(ctx, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*booking.Booking, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByChefID(ctx context.Context, chefID uuid.UUID, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	args := m.Called(ctx, chefID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*booking.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingRepository) FindByLocationID(ctx context.Context, locationID uuid.UUID, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	args := m.Called(ctx, locationID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*booking.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID, filter booking.BookingFilter) ([]*booking.Booking, int64, error) {
	args := m.Called(ctx, managerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*booking.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingRepository) FindPendingPastDeadline(ctx context.Context, now time.Time, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindApprovedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) HasOverlappingKitchenBooking(ctx context.Context, locationID uuid.UUID, startAt, endAt time.Time, exclude *uuid.UUID) (bool, error) {
	args := m.Called(ctx, locationID, startAt, endAt, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) CountByLocationAndStatus(ctx context.Context, locationID uuid.UUID, statuses []booking.BookingStatus) (int64, error) {
	args := m.Called(ctx, locationID, statuses)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) GenerateBookingNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockClaimRepository is a mock implementation of claims.ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *claims.DamageClaim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) Update(ctx context.Context, claim *claims.DamageClaim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*claims.DamageClaim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*claims.DamageClaim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) FindByNumber(ctx context.Context, claimNumber string) (*claims.DamageClaim, error) {
	args := m.Called(ctx, claimNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*claims.DamageClaim, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*claims.DamageClaim, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) FindByChefID(ctx context.Context, chefID uuid.UUID, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	args := m.Called(ctx, chefID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) FindByLocationID(ctx context.Context, locationID uuid.UUID, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	args := m.Called(ctx, locationID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	args := m.Called(ctx, managerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) FindAll(ctx context.Context, filter claims.ClaimFilter) ([]*claims.DamageClaim, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) FindOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]*claims.DamageClaim, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) FindRetryableCharges(ctx context.Context, maxAttempts int, limit int) ([]*claims.DamageClaim, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*claims.DamageClaim), args.Error(1)
}

func (m *MockClaimRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClaimRepository) GenerateClaimNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// passthroughTxManager runs the callback without a real transaction
type passthroughTxManager struct{}

func (passthroughTxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func createWebhookService(
	gateway payment.Gateway,
	bookingRepo booking.BookingRepository,
	claimRepo claims.ClaimRepository,
	store IdempotencyStore,
) *WebhookService {
	return NewWebhookService(gateway, bookingRepo, claimRepo, store, passthroughTxManager{}, zap.NewNop())
}

func usd(amount string) valueobject.Money {
	return valueobject.NewMoneyUSD(decimal.RequireFromString(amount))
}

// pendingBooking builds an undecided booking whose decision deadline already
// passed, matching the state after Stripe auto-cancels a stale hold
func pendingBooking(t *testing.T) *booking.Booking {
	b, err := booking.NewBooking("BK-2026-0042", uuid.New(), uuid.New(), "Cannery Shared Kitchen", 1000, 500, 48, 50)
	require.NoError(t, err)

	start := time.Now().Add(-24 * time.Hour)
	window, err := valueobject.NewTimeRange(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = b.AddKitchenItem("Kitchen time", window, usd("50"))
	require.NoError(t, err)

	require.NoError(t, b.AttachAuthorization("pi_test_42", 48*time.Hour))
	b.ClearDomainEvents()
	return b
}

// capturedBooking builds a decided, fully captured booking
func capturedBooking(t *testing.T) *booking.Booking {
	b, err := booking.NewBooking("BK-2026-0042", uuid.New(), uuid.New(), "Cannery Shared Kitchen", 1000, 500, 48, 50)
	require.NoError(t, err)

	start := time.Now().Add(-24 * time.Hour)
	window, err := valueobject.NewTimeRange(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = b.AddKitchenItem("Kitchen time", window, usd("50"))
	require.NoError(t, err)

	require.NoError(t, b.AttachAuthorization("pi_test_42", 48*time.Hour))

	verdicts := []booking.ItemVerdict{{ItemID: b.Items[0].ID, Approve: true}}
	_, err = b.Decide(verdicts, b.DecisionDeadline.Add(-time.Hour))
	require.NoError(t, err)
	b.ClearDomainEvents()
	return b
}

// pendingChargeClaim builds an accepted claim whose charge is awaiting the
// gateway's verdict
func pendingChargeClaim(t *testing.T) *claims.DamageClaim {
	claim, err := claims.NewDamageClaim(
		"DC-2026-0017",
		uuid.New(),
		"BK-2026-0042",
		uuid.New(),
		uuid.New(),
		uuid.New(),
		"Cracked prep table",
		"Left side split during the Friday shift",
		usd("350"),
		usd("5000"),
		7*24*time.Hour,
	)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, claim.Accept("", now))
	require.NoError(t, claim.BeginCharge(3, now))
	claim.ClearDomainEvents()
	return claim
}

func claimChargeEvent(eventType payment.WebhookEventType, claimID uuid.UUID) *payment.WebhookEvent {
	return &payment.WebhookEvent{
		EventID:  "evt_1",
		Type:     eventType,
		ChargeID: "ch_77",
		Amount:   usd("350"),
		Metadata: map[string]string{"claim_id": claimID.String()},
	}
}

func TestWebhookService_Process(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	t.Run("settles a pending claim charge", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		claim := pendingChargeClaim(t)
		event := claimChargeEvent(payment.WebhookChargeSucceeded, claim.ID)

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, "webhook:stripe:evt_1", 72*time.Hour).Return(true, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)

		result, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, "evt_1", result.EventID)
		assert.False(t, result.AlreadyProcessed)
		assert.Equal(t, claims.ClaimStatusSettled, claim.Status)
		assert.Equal(t, "ch_77", claim.ChargeID)
		claimRepo.AssertExpectations(t)
	})

	t.Run("records a failed claim charge with its reason", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		claim := pendingChargeClaim(t)
		event := claimChargeEvent(payment.WebhookChargeFailed, claim.ID)
		event.FailureCode = "insufficient_funds"
		event.FailureMessage = "Your card has insufficient funds."

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, claims.ChargeStatusFailed, claim.ChargeStatus)
		assert.Equal(t, claims.ClaimStatusAccepted, claim.Status)
		assert.Equal(t, "Your card has insufficient funds.", claim.LastChargeError)
	})

	t.Run("replays charge outcomes as no-ops", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		claim := pendingChargeClaim(t)
		require.NoError(t, claim.RecordChargeSuccess("ch_77", time.Now()))
		event := claimChargeEvent(payment.WebhookChargeSucceeded, claim.ID)

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		claimRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("deduplicates deliveries by event ID", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		event := claimChargeEvent(payment.WebhookChargeSucceeded, uuid.New())

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, "webhook:stripe:evt_1", mock.Anything).Return(false, nil)

		result, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		claimRepo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("rejects bad signatures", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		gateway.On("VerifyWebhook", payload, "bad").Return(nil, payment.ErrGatewayInvalidWebhook)

		_, err := service.Process(context.Background(), payload, "bad")

		require.ErrorIs(t, err, ErrWebhookInvalidSignature)
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("releases the dedupe key when handling fails", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		event := claimChargeEvent(payment.WebhookChargeSucceeded, uuid.New())

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		store.On("Forget", mock.Anything, "webhook:stripe:evt_1").Return(nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := service.Process(context.Background(), payload, "sig")

		require.Error(t, err)
		store.AssertCalled(t, "Forget", mock.Anything, "webhook:stripe:evt_1")
	})
}

func TestWebhookService_IntentEvents(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)

	t.Run("expires a pending booking when the gateway releases its hold", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		b := pendingBooking(t)
		event := &payment.WebhookEvent{
			EventID:  "evt_2",
			Type:     payment.WebhookIntentReleased,
			IntentID: "pi_test_42",
		}

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		bookingRepo.On("FindByPaymentIntentID", mock.Anything, "pi_test_42").Return(b, nil)
		bookingRepo.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)
		bookingRepo.On("Update", mock.Anything, b).Return(nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, booking.BookingStatusExpired, b.Status)
		assert.Equal(t, booking.PaymentStatusReleased, b.PaymentStatus)
		bookingRepo.AssertExpectations(t)
	})

	t.Run("ignores releases on decided bookings", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		b := capturedBooking(t)
		event := &payment.WebhookEvent{
			EventID:  "evt_2",
			Type:     payment.WebhookIntentReleased,
			IntentID: "pi_test_42",
		}

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		bookingRepo.On("FindByPaymentIntentID", mock.Anything, "pi_test_42").Return(b, nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, booking.BookingStatusApproved, b.Status)
		bookingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("books a refund issued at the gateway", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		b := capturedBooking(t)
		event := &payment.WebhookEvent{
			EventID:  "evt_2",
			Type:     payment.WebhookChargeRefunded,
			IntentID: "pi_test_42",
			RefundID: "re_99",
			Amount:   usd("25"),
		}

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		bookingRepo.On("FindByPaymentIntentID", mock.Anything, "pi_test_42").Return(b, nil)
		bookingRepo.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)
		bookingRepo.On("Update", mock.Anything, b).Return(nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		require.Len(t, b.Refunds, 1)
		assert.Equal(t, "re_99", b.Refunds[0].GatewayRefundID)
		assert.Equal(t, "Refund issued at the gateway", b.Refunds[0].Reason)
		assert.Equal(t, booking.PaymentStatusPartiallyRefunded, b.PaymentStatus)
	})

	t.Run("skips refunds already in the ledger", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		b := capturedBooking(t)
		require.NoError(t, b.RecordRefund(nil, usd("25"), valueobject.ZeroUSD(), "Damaged equipment", "re_99"))
		b.ClearDomainEvents()
		event := &payment.WebhookEvent{
			EventID:  "evt_2",
			Type:     payment.WebhookChargeRefunded,
			IntentID: "pi_test_42",
			RefundID: "re_99",
			Amount:   usd("25"),
		}

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		bookingRepo.On("FindByPaymentIntentID", mock.Anything, "pi_test_42").Return(b, nil)
		bookingRepo.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		require.Len(t, b.Refunds, 1)
		bookingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("capture notifications on reconciled bookings are no-ops", func(t *testing.T) {
		gateway := new(MockGateway)
		bookingRepo := new(MockBookingRepository)
		claimRepo := new(MockClaimRepository)
		store := new(MockIdempotencyStore)
		service := createWebhookService(gateway, bookingRepo, claimRepo, store)

		b := capturedBooking(t)
		event := &payment.WebhookEvent{
			EventID:  "evt_2",
			Type:     payment.WebhookIntentCaptured,
			IntentID: "pi_test_42",
			Amount:   usd(b.CapturedAmount.String()),
		}

		gateway.On("VerifyWebhook", payload, "sig").Return(event, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		bookingRepo.On("FindByPaymentIntentID", mock.Anything, "pi_test_42").Return(b, nil)

		_, err := service.Process(context.Background(), payload, "sig")

		require.NoError(t, err)
		bookingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
