package claims

import (
	"context"
	"strings"
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
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

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

// MockLocationRepository is a mock implementation of location.LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) Create(ctx context.Context, loc *location.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockLocationRepository) Update(ctx context.Context, loc *location.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockLocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*location.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*location.Location), args.Error(1)
}

func (m *MockLocationRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID) ([]*location.Location, error) {
	args := m.Called(ctx, managerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*location.Location), args.Error(1)
}

func (m *MockLocationRepository) FindPublished(ctx context.Context, filter location.LocationFilter) ([]*location.Location, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*location.Location), args.Get(1).(int64), args.Error(2)
}

func (m *MockLocationRepository) ReplaceRequirements(ctx context.Context, loc *location.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockLocationRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

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

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockStatementRenderer is a mock implementation of StatementRenderer
type MockStatementRenderer struct {
	mock.Mock
}

func (m *MockStatementRenderer) RenderStatement(ctx context.Context, data *StatementData) ([]byte, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// passthroughTxManager runs the callback without a real transaction
type passthroughTxManager struct{}

func (passthroughTxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func createClaimService(
	claimRepo claims.ClaimRepository,
	bookingRepo booking.BookingRepository,
	locationRepo location.LocationRepository,
	userRepo identity.UserRepository,
	gateway payment.Gateway,
	storage ObjectStorage,
) *ClaimService {
	return NewClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage, passthroughTxManager{}, zap.NewNop())
}

func chefActor(id uuid.UUID) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleChef}
}

func managerActor(id uuid.UUID) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleManager}
}

func adminActor(id uuid.UUID) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleAdmin}
}

func usd(amount string) valueobject.Money {
	return valueobject.NewMoneyUSD(decimal.RequireFromString(amount))
}

func claimLocation(t *testing.T, managerID uuid.UUID) *location.Location {
	addr, err := valueobject.NewAddress("12 Cannery Row", "Portland", "OR")
	require.NoError(t, err)
	loc, err := location.NewLocation(managerID, "Cannery Shared Kitchen", addr)
	require.NoError(t, err)
	loc.ClearDomainEvents()
	return loc
}

func testChef(t *testing.T, customerID, paymentMethodID string) *identity.User {
	user, err := identity.NewUser("avery@example.com", "Secret123!", "Avery", "Nguyen", identity.RoleChef)
	require.NoError(t, err)
	if customerID != "" {
		require.NoError(t, user.AttachStripeCustomer(customerID))
	}
	if paymentMethodID != "" {
		user.SetDefaultPaymentMethod(paymentMethodID)
	}
	user.ClearDomainEvents()
	return user
}

// approvedBookingStartingAt builds a fully approved one-item booking whose
// kitchen window opens at start
func approvedBookingStartingAt(t *testing.T, chefID, locationID uuid.UUID, start time.Time) *booking.Booking {
	b, err := booking.NewBooking("BK-2026-0042", chefID, locationID, "Cannery Shared Kitchen", 1000, 500, 48, 50)
	require.NoError(t, err)

	window, err := valueobject.NewTimeRange(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = b.AddKitchenItem("Kitchen time", window, usd("50"))
	require.NoError(t, err)

	require.NoError(t, b.AttachAuthorization("pi_test_42", 48*time.Hour))

	verdicts := []booking.ItemVerdict{{ItemID: b.Items[0].ID, Approve: true}}
	decidedAt := time.Now()
	if !decidedAt.Before(b.DecisionDeadline) {
		decidedAt = b.DecisionDeadline.Add(-time.Hour)
	}
	_, err = b.Decide(verdicts, decidedAt)
	require.NoError(t, err)
	b.ClearDomainEvents()
	return b
}

func completedBooking(t *testing.T, chefID, locationID uuid.UUID) *booking.Booking {
	b := approvedBookingStartingAt(t, chefID, locationID, time.Now().Add(-10*24*time.Hour))
	require.NoError(t, b.Complete(time.Now()))
	b.ClearDomainEvents()
	return b
}

func staleCompletedBooking(t *testing.T, chefID, locationID uuid.UUID) *booking.Booking {
	b := approvedBookingStartingAt(t, chefID, locationID, time.Now().Add(-60*24*time.Hour))
	require.NoError(t, b.Complete(time.Now().Add(-30*24*time.Hour)))
	b.ClearDomainEvents()
	return b
}

func filedClaim(t *testing.T, bookingID, locationID, managerID, chefID uuid.UUID) *claims.DamageClaim {
	claim, err := claims.NewDamageClaim(
		"DC-2026-0017",
		bookingID,
		"BK-2026-0042",
		locationID,
		managerID,
		chefID,
		"Cracked prep table",
		"Left side split during the Friday shift",
		usd("350"),
		usd("5000"),
		7*24*time.Hour,
	)
	require.NoError(t, err)
	claim.ClearDomainEvents()
	return claim
}

func acceptedClaim(t *testing.T, bookingID, locationID, managerID, chefID uuid.UUID) *claims.DamageClaim {
	claim := filedClaim(t, bookingID, locationID, managerID, chefID)
	require.NoError(t, claim.Accept("", time.Now()))
	claim.ClearDomainEvents()
	return claim
}

func disputedClaim(t *testing.T, bookingID, locationID, managerID, chefID uuid.UUID) *claims.DamageClaim {
	claim := filedClaim(t, bookingID, locationID, managerID, chefID)
	require.NoError(t, claim.Dispute("The table was already cracked when I arrived", time.Now()))
	claim.ClearDomainEvents()
	return claim
}

func settledClaim(t *testing.T, bookingID, locationID, managerID, chefID uuid.UUID) *claims.DamageClaim {
	claim := acceptedClaim(t, bookingID, locationID, managerID, chefID)
	now := time.Now()
	require.NoError(t, claim.BeginCharge(3, now))
	require.NoError(t, claim.RecordChargeSuccess("ch_1", now))
	claim.ClearDomainEvents()
	return claim
}

func failedChargeClaim(t *testing.T, bookingID, locationID, managerID, chefID uuid.UUID) *claims.DamageClaim {
	claim := acceptedClaim(t, bookingID, locationID, managerID, chefID)
	now := time.Now()
	require.NoError(t, claim.BeginCharge(3, now))
	require.NoError(t, claim.RecordChargeFailure("Your card was declined.", now))
	claim.ClearDomainEvents()
	return claim
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestClaimService_File(t *testing.T) {
	managerID := uuid.New()
	chefID := uuid.New()

	t.Run("files a claim against a completed booking", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := completedBooking(t, chefID, loc.ID)

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)
		claimRepo.On("FindActiveByBookingID", mock.Anything, b.ID).Return(nil, nil)
		claimRepo.On("GenerateClaimNumber", mock.Anything).Return("DC-2026-0018", nil)
		claimRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.File(context.Background(), managerActor(managerID), &FileClaimRequest{
			BookingID:   b.ID,
			Title:       "Cracked prep table",
			Description: "Left side split during the Friday shift",
			Amount:      decimal.RequireFromString("350"),
		})

		require.NoError(t, err)
		assert.Equal(t, "DC-2026-0018", resp.ClaimNumber)
		assert.Equal(t, "OPEN", resp.Status)
		assert.Equal(t, chefID, resp.ChefID)
		assert.Equal(t, managerID, resp.ManagerID)
		assert.True(t, resp.Amount.Equal(decimal.RequireFromString("350")))
		assert.True(t, resp.FinalAmount.IsZero())
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), resp.ResponseDeadline, time.Minute)
		claimRepo.AssertExpectations(t)
	})

	t.Run("allows filing once the booking has started", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := approvedBookingStartingAt(t, chefID, loc.ID, time.Now().Add(-3*time.Hour))

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)
		claimRepo.On("FindActiveByBookingID", mock.Anything, b.ID).Return(nil, nil)
		claimRepo.On("GenerateClaimNumber", mock.Anything).Return("DC-2026-0019", nil)
		claimRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.File(context.Background(), managerActor(managerID), &FileClaimRequest{
			BookingID: b.ID,
			Title:     "Scorched counter top",
			Amount:    decimal.RequireFromString("120"),
		})

		require.NoError(t, err)
		assert.Equal(t, "OPEN", resp.Status)
	})

	t.Run("rejects a booking that has not started", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := approvedBookingStartingAt(t, chefID, loc.ID, time.Now().Add(30*24*time.Hour))

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)

		_, err := service.File(context.Background(), managerActor(managerID), &FileClaimRequest{
			BookingID: b.ID,
			Title:     "Too eager",
			Amount:    decimal.RequireFromString("50"),
		})

		assertDomainErrorCode(t, err, "BOOKING_NOT_CLAIMABLE")
		claimRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("closes the filing window after completion", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := staleCompletedBooking(t, chefID, loc.ID)

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)

		_, err := service.File(context.Background(), managerActor(managerID), &FileClaimRequest{
			BookingID: b.ID,
			Title:     "A month late",
			Amount:    decimal.RequireFromString("75"),
		})

		assertDomainErrorCode(t, err, "CLAIM_WINDOW_CLOSED")
	})

	t.Run("rejects managers of other locations", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := completedBooking(t, chefID, loc.ID)

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)

		_, err := service.File(context.Background(), managerActor(uuid.New()), &FileClaimRequest{
			BookingID: b.ID,
			Title:     "Not my kitchen",
			Amount:    decimal.RequireFromString("75"),
		})

		assertDomainErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("blocks a second live claim on the same booking", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := completedBooking(t, chefID, loc.ID)
		existing := filedClaim(t, b.ID, loc.ID, managerID, chefID)

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)
		claimRepo.On("FindActiveByBookingID", mock.Anything, b.ID).Return(existing, nil)

		_, err := service.File(context.Background(), managerActor(managerID), &FileClaimRequest{
			BookingID: b.ID,
			Title:     "Second claim",
			Amount:    decimal.RequireFromString("75"),
		})

		assertDomainErrorCode(t, err, "CLAIM_ALREADY_OPEN")
	})

	t.Run("caps the filed amount", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		loc := claimLocation(t, managerID)
		b := completedBooking(t, chefID, loc.ID)

		bookingRepo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		locationRepo.On("FindByID", mock.Anything, loc.ID).Return(loc, nil)
		claimRepo.On("FindActiveByBookingID", mock.Anything, b.ID).Return(nil, nil)
		claimRepo.On("GenerateClaimNumber", mock.Anything).Return("DC-2026-0020", nil)

		_, err := service.File(context.Background(), managerActor(managerID), &FileClaimRequest{
			BookingID: b.ID,
			Title:     "Burned the place down",
			Amount:    decimal.RequireFromString("9000"),
		})

		assertDomainErrorCode(t, err, "AMOUNT_EXCEEDS_CAP")
	})
}

func TestClaimService_Respond(t *testing.T) {
	managerID := uuid.New()
	bookingID := uuid.New()
	locationID := uuid.New()

	t.Run("accepting locks the amount in and charges the card", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chef := testChef(t, "cus_1", "pm_1")
		claim := filedClaim(t, bookingID, locationID, managerID, chef.ID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		gateway.On("ChargeOffSession", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
			return req.CustomerID == "cus_1" &&
				req.PaymentMethodID == "pm_1" &&
				req.IdempotencyKey == "DC-2026-0017-1" &&
				req.Amount.Amount().Equal(decimal.RequireFromString("350"))
		})).Return(&payment.ChargeResult{ChargeID: "ch_9", Outcome: payment.ChargeOutcomeSucceeded}, nil)

		resp, err := service.Respond(context.Background(), chefActor(chef.ID), claim.ID, &RespondClaimRequest{
			Action: "accept",
		})

		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.Status)
		assert.Equal(t, "SUCCEEDED", resp.ChargeStatus)
		assert.True(t, resp.FinalAmount.Equal(decimal.RequireFromString("350")))
		assert.NotNil(t, resp.ChargedAt)
		claimRepo.AssertNumberOfCalls(t, "Update", 2)
		gateway.AssertExpectations(t)
	})

	t.Run("a failed charge keeps the acceptance", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chef := testChef(t, "cus_1", "pm_1")
		claim := filedClaim(t, bookingID, locationID, managerID, chef.ID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		gateway.On("ChargeOffSession", mock.Anything, mock.Anything).Return(&payment.ChargeResult{
			Outcome:        payment.ChargeOutcomeFailed,
			FailureCode:    "card_declined",
			FailureMessage: "Your card was declined.",
		}, nil)

		resp, err := service.Respond(context.Background(), chefActor(chef.ID), claim.ID, &RespondClaimRequest{
			Action: "accept",
		})

		require.NoError(t, err)
		assert.Equal(t, "ACCEPTED", resp.Status)
		assert.Equal(t, "FAILED", resp.ChargeStatus)
		assert.Equal(t, 1, resp.ChargeAttempts)
		assert.Equal(t, "Your card was declined.", resp.LastChargeError)
	})

	t.Run("disputing sends the claim to the admin queue", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chefID := uuid.New()
		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)

		resp, err := service.Respond(context.Background(), chefActor(chefID), claim.ID, &RespondClaimRequest{
			Action: "dispute",
			Note:   "The table was already cracked when I arrived",
		})

		require.NoError(t, err)
		assert.Equal(t, "DISPUTED", resp.Status)
		assert.Equal(t, "The table was already cracked when I arrived", resp.ResponseNote)
		gateway.AssertNotCalled(t, "ChargeOffSession", mock.Anything, mock.Anything)
	})

	t.Run("disputing needs a note", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chefID := uuid.New()
		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Respond(context.Background(), chefActor(chefID), claim.ID, &RespondClaimRequest{
			Action: "dispute",
		})

		assertDomainErrorCode(t, err, "NOTE_REQUIRED")
	})

	t.Run("rejects responses after the deadline", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chefID := uuid.New()
		claim := filedClaim(t, bookingID, locationID, managerID, chefID)
		claim.ResponseDeadline = time.Now().Add(-time.Hour)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Respond(context.Background(), chefActor(chefID), claim.ID, &RespondClaimRequest{
			Action: "accept",
		})

		assertDomainErrorCode(t, err, "RESPONSE_DEADLINE_PASSED")
		claimRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("rejects other chefs", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, uuid.New())

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Respond(context.Background(), chefActor(uuid.New()), claim.ID, &RespondClaimRequest{
			Action: "accept",
		})

		assertDomainErrorCode(t, err, "FORBIDDEN")
	})
}

func TestClaimService_Adjudicate(t *testing.T) {
	managerID := uuid.New()
	chefID := uuid.New()
	bookingID := uuid.New()
	locationID := uuid.New()

	t.Run("upholds with a reduced amount and charges it", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chef := testChef(t, "cus_1", "pm_1")
		claim := disputedClaim(t, bookingID, locationID, managerID, chef.ID)
		finalAmount := decimal.RequireFromString("200")

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		gateway.On("ChargeOffSession", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
			return req.Amount.Amount().Equal(finalAmount)
		})).Return(&payment.ChargeResult{ChargeID: "ch_10", Outcome: payment.ChargeOutcomeSucceeded}, nil)

		resp, err := service.Adjudicate(context.Background(), adminActor(uuid.New()), claim.ID, &AdjudicateClaimRequest{
			Ruling:      "uphold",
			FinalAmount: &finalAmount,
			Note:        "Photos show fresh damage; amount adjusted to the repair quote",
		})

		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.Status)
		assert.True(t, resp.FinalAmount.Equal(finalAmount))
		assert.NotNil(t, resp.AdjudicatedAt)
		gateway.AssertExpectations(t)
	})

	t.Run("upholding without an amount charges as filed", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chef := testChef(t, "cus_1", "pm_1")
		claim := disputedClaim(t, bookingID, locationID, managerID, chef.ID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		gateway.On("ChargeOffSession", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
			return req.Amount.Amount().Equal(decimal.RequireFromString("350"))
		})).Return(&payment.ChargeResult{ChargeID: "ch_11", Outcome: payment.ChargeOutcomeSucceeded}, nil)

		resp, err := service.Adjudicate(context.Background(), adminActor(uuid.New()), claim.ID, &AdjudicateClaimRequest{
			Ruling: "uphold",
			Note:   "The dispute does not hold up against the photos",
		})

		require.NoError(t, err)
		assert.True(t, resp.FinalAmount.Equal(decimal.RequireFromString("350")))
	})

	t.Run("dismisses the claim without charging", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := disputedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)

		resp, err := service.Adjudicate(context.Background(), adminActor(uuid.New()), claim.ID, &AdjudicateClaimRequest{
			Ruling: "dismiss",
			Note:   "Pre-existing damage",
		})

		require.NoError(t, err)
		assert.Equal(t, "DISMISSED", resp.Status)
		assert.True(t, resp.FinalAmount.IsZero())
		gateway.AssertNotCalled(t, "ChargeOffSession", mock.Anything, mock.Anything)
	})

	t.Run("rejects raising the amount above the filing", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := disputedClaim(t, bookingID, locationID, managerID, chefID)
		raised := decimal.RequireFromString("500")

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Adjudicate(context.Background(), adminActor(uuid.New()), claim.ID, &AdjudicateClaimRequest{
			Ruling:      "uphold",
			FinalAmount: &raised,
			Note:        "Raising it",
		})

		assertDomainErrorCode(t, err, "AMOUNT_EXCEEDS_FILED")
	})

	t.Run("only admins adjudicate", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		_, err := service.Adjudicate(context.Background(), managerActor(managerID), uuid.New(), &AdjudicateClaimRequest{
			Ruling: "dismiss",
		})

		assertDomainErrorCode(t, err, "FORBIDDEN")
		claimRepo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("only disputed claims can be adjudicated", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Adjudicate(context.Background(), adminActor(uuid.New()), claim.ID, &AdjudicateClaimRequest{
			Ruling: "dismiss",
		})

		assertDomainErrorCode(t, err, "INVALID_STATE")
	})
}

func TestClaimService_Withdraw(t *testing.T) {
	managerID := uuid.New()
	chefID := uuid.New()
	bookingID := uuid.New()
	locationID := uuid.New()

	t.Run("withdraws an open claim", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)

		resp, err := service.Withdraw(context.Background(), managerActor(managerID), claim.ID)

		require.NoError(t, err)
		assert.Equal(t, "WITHDRAWN", resp.Status)
	})

	t.Run("withdraws a disputed claim before the ruling", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := disputedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)

		resp, err := service.Withdraw(context.Background(), managerActor(managerID), claim.ID)

		require.NoError(t, err)
		assert.Equal(t, "WITHDRAWN", resp.Status)
	})

	t.Run("cannot withdraw a settled claim", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := settledClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Withdraw(context.Background(), managerActor(managerID), claim.ID)

		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("rejects other managers", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.Withdraw(context.Background(), managerActor(uuid.New()), claim.ID)

		assertDomainErrorCode(t, err, "FORBIDDEN")
	})
}

func TestClaimService_PresignEvidence(t *testing.T) {
	managerID := uuid.New()
	chefID := uuid.New()
	bookingID := uuid.New()
	locationID := uuid.New()

	t.Run("presigns an upload for the manager", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, chefID)
		keyPrefix := "claims/" + claim.ID.String() + "/evidence/"

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		storage.On("GenerateUploadURL", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, keyPrefix) && strings.HasSuffix(key, "-table.jpg")
		}), "image/jpeg", 15*time.Minute).Return("https://uploads.example.com/evidence", time.Now().Add(15*time.Minute), nil)

		resp, err := service.PresignEvidence(context.Background(), managerActor(managerID), claim.ID, &PresignEvidenceRequest{
			FileName:    "table.jpg",
			ContentType: "image/jpeg",
			Size:        2 << 20,
		})

		require.NoError(t, err)
		assert.Equal(t, "https://uploads.example.com/evidence", resp.UploadURL)
		assert.True(t, strings.HasPrefix(resp.StorageKey, keyPrefix))
		require.Len(t, claim.Evidence, 1)
		assert.Equal(t, managerID, claim.Evidence[0].UploadedBy)
	})

	t.Run("lets the chef attach dispute evidence", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := disputedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		storage.On("GenerateUploadURL", mock.Anything, mock.Anything, "application/pdf", mock.Anything).
			Return("https://uploads.example.com/evidence", time.Now().Add(15*time.Minute), nil)

		resp, err := service.PresignEvidence(context.Background(), chefActor(chefID), claim.ID, &PresignEvidenceRequest{
			FileName:    "arrival-inspection.pdf",
			ContentType: "application/pdf",
			Size:        1 << 20,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.UploadURL)
		require.Len(t, claim.Evidence, 1)
		assert.Equal(t, chefID, claim.Evidence[0].UploadedBy)
	})

	t.Run("rejects disallowed content types", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.PresignEvidence(context.Background(), managerActor(managerID), claim.ID, &PresignEvidenceRequest{
			FileName:    "damage.svg",
			ContentType: "image/svg+xml",
			Size:        1024,
		})

		assertDomainErrorCode(t, err, "DISALLOWED_CONTENT_TYPE")
		storage.AssertNotCalled(t, "GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects bystanders", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := filedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.PresignEvidence(context.Background(), chefActor(uuid.New()), claim.ID, &PresignEvidenceRequest{
			FileName:    "photo.jpg",
			ContentType: "image/jpeg",
			Size:        1024,
		})

		assertDomainErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("rejects evidence on a closed claim", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		claim := settledClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)

		_, err := service.PresignEvidence(context.Background(), managerActor(managerID), claim.ID, &PresignEvidenceRequest{
			FileName:    "photo.jpg",
			ContentType: "image/jpeg",
			Size:        1024,
		})

		assertDomainErrorCode(t, err, "CLAIM_CLOSED")
	})
}

func TestClaimService_Sweeps(t *testing.T) {
	managerID := uuid.New()
	bookingID := uuid.New()
	locationID := uuid.New()

	t.Run("marks silent claims uncontested and charges them", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chef := testChef(t, "cus_1", "pm_1")
		claim := filedClaim(t, bookingID, locationID, managerID, chef.ID)
		claim.ResponseDeadline = time.Now().Add(-time.Hour)

		claimRepo.On("FindOpenPastDeadline", mock.Anything, mock.Anything, 50).Return([]*claims.DamageClaim{claim}, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		gateway.On("ChargeOffSession", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
			return req.Amount.Amount().Equal(decimal.RequireFromString("350"))
		})).Return(&payment.ChargeResult{ChargeID: "ch_12", Outcome: payment.ChargeOutcomeSucceeded}, nil)

		count, err := service.SweepResponseDeadlines(context.Background(), 0)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, claims.ClaimStatusSettled, claim.Status)
		assert.True(t, claim.FinalAmount.Equal(decimal.RequireFromString("350")))
		gateway.AssertExpectations(t)
	})

	t.Run("skips claims answered while queued", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chefID := uuid.New()
		stale := filedClaim(t, bookingID, locationID, managerID, chefID)
		stale.ResponseDeadline = time.Now().Add(-time.Hour)
		fresh := disputedClaim(t, bookingID, locationID, managerID, chefID)

		claimRepo.On("FindOpenPastDeadline", mock.Anything, mock.Anything, 50).Return([]*claims.DamageClaim{stale}, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, stale.ID).Return(fresh, nil)

		count, err := service.SweepResponseDeadlines(context.Background(), 50)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		claimRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		gateway.AssertNotCalled(t, "ChargeOffSession", mock.Anything, mock.Anything)
	})

	t.Run("retries failed charges until they settle", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chef := testChef(t, "cus_1", "pm_1")
		claim := failedChargeClaim(t, bookingID, locationID, managerID, chef.ID)

		claimRepo.On("FindRetryableCharges", mock.Anything, 3, 50).Return([]*claims.DamageClaim{claim}, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)
		claimRepo.On("Update", mock.Anything, claim).Return(nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		// The second attempt carries a new idempotency key so the gateway
		// does not replay the declined first attempt.
		gateway.On("ChargeOffSession", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
			return req.IdempotencyKey == "DC-2026-0017-2"
		})).Return(&payment.ChargeResult{ChargeID: "ch_13", Outcome: payment.ChargeOutcomeSucceeded}, nil)

		count, err := service.RetryFailedCharges(context.Background(), 0)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, claims.ClaimStatusSettled, claim.Status)
		assert.Equal(t, 2, claim.ChargeAttempts)
	})

	t.Run("stops at the attempt budget", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		bookingRepo := new(MockBookingRepository)
		locationRepo := new(MockLocationRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		storage := new(MockObjectStorage)
		service := createClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, storage)

		chefID := uuid.New()
		claim := acceptedClaim(t, bookingID, locationID, managerID, chefID)
		for i := 0; i < 3; i++ {
			require.NoError(t, claim.BeginCharge(3, time.Now()))
			require.NoError(t, claim.RecordChargeFailure("Your card was declined.", time.Now()))
		}

		claimRepo.On("FindRetryableCharges", mock.Anything, 3, 50).Return([]*claims.DamageClaim{claim}, nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, claim.ID).Return(claim, nil)

		count, err := service.RetryFailedCharges(context.Background(), 50)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Equal(t, 3, claim.ChargeAttempts)
		gateway.AssertNotCalled(t, "ChargeOffSession", mock.Anything, mock.Anything)
	})
}

func TestStatementService_Render(t *testing.T) {
	managerID := uuid.New()
	bookingID := uuid.New()
	locationID := uuid.New()

	t.Run("renders the statement for the chef", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockStatementRenderer)
		service := NewStatementService(claimRepo, userRepo, renderer, zap.NewNop())

		chef := testChef(t, "", "")
		claim := filedClaim(t, bookingID, locationID, managerID, chef.ID)
		_, err := claim.AttachEvidence("claims/x/evidence/a-table.jpg", "table.jpg", "image/jpeg", 1024, managerID)
		require.NoError(t, err)
		now := time.Now()
		require.NoError(t, claim.Accept("", now))
		require.NoError(t, claim.BeginCharge(3, now))
		require.NoError(t, claim.RecordChargeSuccess("ch_1", now))
		claim.ClearDomainEvents()

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)
		userRepo.On("FindByID", mock.Anything, chef.ID).Return(chef, nil)
		userRepo.On("FindByID", mock.Anything, managerID).Return(nil, shared.ErrNotFound)
		renderer.On("RenderStatement", mock.Anything, mock.MatchedBy(func(data *StatementData) bool {
			return data.ClaimNumber == "DC-2026-0017" &&
				data.ChefName == "Avery Nguyen" &&
				data.Status == "SETTLED" &&
				len(data.Timeline) == 3 &&
				len(data.Evidence) == 1 &&
				data.Evidence[0].UploadedBy == "Manager"
		})).Return([]byte("%PDF-1.7 statement"), nil)

		pdf, filename, err := service.Render(context.Background(), chefActor(chef.ID), claim.ID)

		require.NoError(t, err)
		assert.Equal(t, "statement-DC-2026-0017.pdf", filename)
		assert.NotEmpty(t, pdf)
		renderer.AssertExpectations(t)
	})

	t.Run("rejects bystanders", func(t *testing.T) {
		claimRepo := new(MockClaimRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockStatementRenderer)
		service := NewStatementService(claimRepo, userRepo, renderer, zap.NewNop())

		claim := filedClaim(t, bookingID, locationID, managerID, uuid.New())

		claimRepo.On("FindByID", mock.Anything, claim.ID).Return(claim, nil)

		_, _, err := service.Render(context.Background(), chefActor(uuid.New()), claim.ID)

		assertDomainErrorCode(t, err, "FORBIDDEN")
		renderer.AssertNotCalled(t, "RenderStatement", mock.Anything, mock.Anything)
	})
}
