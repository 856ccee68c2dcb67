package location

import (
	"testing"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T) valueobject.Address {
	t.Helper()
	addr, err := valueobject.NewAddress("450 SE Stark St", "Portland", "OR",
		valueobject.WithPostalCode("97214"))
	require.NoError(t, err)
	return addr
}

func publishableLocation(t *testing.T) *Location {
	t.Helper()
	loc, err := NewLocation(uuid.New(), "Stark Street Commissary", testAddress(t))
	require.NoError(t, err)
	require.NoError(t, loc.SetRates(valueobject.NewMoneyUSDFromFloat(45), valueobject.NewMoneyUSDFromFloat(20)))
	require.NoError(t, loc.SetTaxRate(850))
	require.NoError(t, loc.SetServiceFee(1000))
	loc.ClearDomainEvents()
	return loc
}

func TestNewLocation(t *testing.T) {
	managerID := uuid.New()

	t.Run("creates draft listing with default policy", func(t *testing.T) {
		loc, err := NewLocation(managerID, "Stark Street Commissary", testAddress(t))

		require.NoError(t, err)
		assert.Equal(t, managerID, loc.ManagerID)
		assert.Equal(t, LocationStatusDraft, loc.Status)
		assert.Equal(t, 48, loc.Policy.FreeCancelHours)
		assert.Equal(t, 50, loc.Policy.LateCancelCapturePercent)
		assert.True(t, loc.KitchenHourlyRate.IsZero())
		assert.Empty(t, loc.Requirements)
		assert.Empty(t, loc.Equipment)

		events := loc.GetDomainEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(*LocationCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, "Portland", created.City)
		assert.Equal(t, "OR", created.State)
	})

	t.Run("fails with nil manager", func(t *testing.T) {
		_, err := NewLocation(uuid.Nil, "Stark Street Commissary", testAddress(t))

		assert.Error(t, err)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewLocation(managerID, "  ", testAddress(t))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})
}

func TestLocation_SetRates(t *testing.T) {
	loc, err := NewLocation(uuid.New(), "Stark Street Commissary", testAddress(t))
	require.NoError(t, err)

	t.Run("sets both rates", func(t *testing.T) {
		err := loc.SetRates(valueobject.NewMoneyUSDFromFloat(45), valueobject.NewMoneyUSDFromFloat(20))

		require.NoError(t, err)
		assert.Equal(t, "45.00", loc.GetKitchenHourlyRateMoney().StringFixed(2))
		assert.Equal(t, "20.00", loc.GetStorageDailyRateMoney().StringFixed(2))
	})

	t.Run("rejects negative kitchen rate", func(t *testing.T) {
		err := loc.SetRates(valueobject.NewMoneyUSDFromFloat(-1), valueobject.NewMoneyUSDFromFloat(20))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})
}

func TestLocation_SetTaxRate(t *testing.T) {
	loc, err := NewLocation(uuid.New(), "Stark Street Commissary", testAddress(t))
	require.NoError(t, err)

	t.Run("accepts rate in range", func(t *testing.T) {
		require.NoError(t, loc.SetTaxRate(0))
		require.NoError(t, loc.SetTaxRate(10000))
		require.NoError(t, loc.SetTaxRate(850))
		assert.Equal(t, int64(850), loc.TaxRateBps)
	})

	t.Run("rejects rate out of range", func(t *testing.T) {
		assert.Error(t, loc.SetTaxRate(-1))
		assert.Error(t, loc.SetTaxRate(10001))
	})
}

func TestLocation_SetCancellationPolicy(t *testing.T) {
	loc, err := NewLocation(uuid.New(), "Stark Street Commissary", testAddress(t))
	require.NoError(t, err)

	t.Run("replaces policy", func(t *testing.T) {
		err := loc.SetCancellationPolicy(CancellationPolicy{FreeCancelHours: 24, LateCancelCapturePercent: 25})

		require.NoError(t, err)
		assert.Equal(t, 24, loc.Policy.FreeCancelHours)
		assert.Equal(t, 25, loc.Policy.LateCancelCapturePercent)
	})

	t.Run("rejects negative hours", func(t *testing.T) {
		err := loc.SetCancellationPolicy(CancellationPolicy{FreeCancelHours: -1, LateCancelCapturePercent: 25})

		assert.Error(t, err)
	})

	t.Run("rejects capture percent above 100", func(t *testing.T) {
		err := loc.SetCancellationPolicy(CancellationPolicy{FreeCancelHours: 24, LateCancelCapturePercent: 101})

		assert.Error(t, err)
	})
}

func TestLocation_Publish(t *testing.T) {
	t.Run("publishes a complete listing", func(t *testing.T) {
		loc := publishableLocation(t)

		err := loc.Publish()

		require.NoError(t, err)
		assert.Equal(t, LocationStatusPublished, loc.Status)
		assert.True(t, loc.IsPublished())
		assert.True(t, loc.AcceptsBookings())

		events := loc.GetDomainEvents()
		require.Len(t, events, 1)
		published, ok := events[0].(*LocationPublishedEvent)
		require.True(t, ok)
		assert.Equal(t, LocationStatusDraft, published.OldStatus)
	})

	t.Run("fails without any positive rate", func(t *testing.T) {
		loc, err := NewLocation(uuid.New(), "Stark Street Commissary", testAddress(t))
		require.NoError(t, err)

		err = loc.Publish()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least one rate")
	})

	t.Run("fails without address", func(t *testing.T) {
		loc, err := NewLocation(uuid.New(), "Stark Street Commissary", valueobject.EmptyAddress())
		require.NoError(t, err)
		require.NoError(t, loc.SetRates(valueobject.NewMoneyUSDFromFloat(45), valueobject.ZeroUSD()))

		err = loc.Publish()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "address")
	})

	t.Run("fails when already published", func(t *testing.T) {
		loc := publishableLocation(t)
		require.NoError(t, loc.Publish())

		err := loc.Publish()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already published")
	})

	t.Run("republishes an unpublished listing", func(t *testing.T) {
		loc := publishableLocation(t)
		require.NoError(t, loc.Publish())
		require.NoError(t, loc.Unpublish())

		err := loc.Publish()

		require.NoError(t, err)
		assert.True(t, loc.IsPublished())
	})
}

func TestLocation_Unpublish(t *testing.T) {
	t.Run("unpublishes a live listing", func(t *testing.T) {
		loc := publishableLocation(t)
		require.NoError(t, loc.Publish())
		loc.ClearDomainEvents()

		err := loc.Unpublish()

		require.NoError(t, err)
		assert.Equal(t, LocationStatusUnpublished, loc.Status)
		assert.False(t, loc.AcceptsBookings())

		events := loc.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*LocationUnpublishedEvent)
		assert.True(t, ok)
	})

	t.Run("fails on a draft listing", func(t *testing.T) {
		loc := publishableLocation(t)

		err := loc.Unpublish()

		assert.Error(t, err)
	})
}

func TestLocation_ReplaceRequirements(t *testing.T) {
	t.Run("replaces the full set", func(t *testing.T) {
		loc := publishableLocation(t)
		require.NoError(t, loc.ReplaceRequirements([]RequirementSpec{
			{Name: "Food handler card", DocumentKind: DocumentKindCertificate, Required: true},
		}))

		err := loc.ReplaceRequirements([]RequirementSpec{
			{Name: "Health permit", DocumentKind: DocumentKindLicense, Required: true},
			{Name: "Liability insurance", DocumentKind: DocumentKindInsurance, Required: true},
			{Name: "Menu sample", DocumentKind: DocumentKindOther, Required: false},
		})

		require.NoError(t, err)
		require.Len(t, loc.Requirements, 3)
		assert.Equal(t, "Health permit", loc.Requirements[0].Name)
		assert.Len(t, loc.RequiredRequirements(), 2)
		for _, req := range loc.Requirements {
			assert.Equal(t, loc.ID, req.LocationID)
		}
	})

	t.Run("clears the set with an empty list", func(t *testing.T) {
		loc := publishableLocation(t)
		require.NoError(t, loc.ReplaceRequirements([]RequirementSpec{
			{Name: "Health permit", DocumentKind: DocumentKindLicense, Required: true},
		}))

		err := loc.ReplaceRequirements([]RequirementSpec{})

		require.NoError(t, err)
		assert.Empty(t, loc.Requirements)
	})

	t.Run("rejects a requirement without a name", func(t *testing.T) {
		loc := publishableLocation(t)

		err := loc.ReplaceRequirements([]RequirementSpec{
			{Name: "  ", DocumentKind: DocumentKindLicense, Required: true},
		})

		assert.Error(t, err)
	})

	t.Run("defaults document kind to other", func(t *testing.T) {
		loc := publishableLocation(t)

		err := loc.ReplaceRequirements([]RequirementSpec{
			{Name: "Photo of setup", Required: false},
		})

		require.NoError(t, err)
		assert.Equal(t, DocumentKindOther, loc.Requirements[0].DocumentKind)
	})
}

func TestLocation_Equipment(t *testing.T) {
	t.Run("adds equipment", func(t *testing.T) {
		loc := publishableLocation(t)

		item, err := loc.AddEquipment("60qt mixer", valueobject.NewMoneyUSDFromFloat(35), "floor model")

		require.NoError(t, err)
		assert.Equal(t, loc.ID, item.LocationID)
		assert.Equal(t, "35.00", item.GetDailyRateMoney().StringFixed(2))
		assert.Len(t, loc.Equipment, 1)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		loc := publishableLocation(t)

		_, err := loc.AddEquipment("60qt mixer", valueobject.NewMoneyUSDFromFloat(-5), "")

		assert.Error(t, err)
	})

	t.Run("updates equipment", func(t *testing.T) {
		loc := publishableLocation(t)
		item, err := loc.AddEquipment("60qt mixer", valueobject.NewMoneyUSDFromFloat(35), "")
		require.NoError(t, err)

		err = loc.UpdateEquipment(item.ID, "60qt planetary mixer", valueobject.NewMoneyUSDFromFloat(40), "belt replaced")

		require.NoError(t, err)
		updated, err := loc.GetEquipmentItem(item.ID)
		require.NoError(t, err)
		assert.Equal(t, "60qt planetary mixer", updated.Name)
		assert.Equal(t, "40.00", updated.GetDailyRateMoney().StringFixed(2))
	})

	t.Run("removes equipment", func(t *testing.T) {
		loc := publishableLocation(t)
		item, err := loc.AddEquipment("60qt mixer", valueobject.NewMoneyUSDFromFloat(35), "")
		require.NoError(t, err)

		err = loc.RemoveEquipment(item.ID)

		require.NoError(t, err)
		assert.Empty(t, loc.Equipment)
		_, err = loc.GetEquipmentItem(item.ID)
		assert.Error(t, err)
	})

	t.Run("fails to update unknown item", func(t *testing.T) {
		loc := publishableLocation(t)

		err := loc.UpdateEquipment(uuid.New(), "mixer", valueobject.NewMoneyUSDFromFloat(40), "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestLocation_IsOwnedBy(t *testing.T) {
	managerID := uuid.New()
	loc, err := NewLocation(managerID, "Stark Street Commissary", testAddress(t))
	require.NoError(t, err)

	assert.True(t, loc.IsOwnedBy(managerID))
	assert.False(t, loc.IsOwnedBy(uuid.New()))
}
