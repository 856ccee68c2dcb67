package service

import (
	"testing"
	"time"

	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindow(t *testing.T, start, end time.Time) valueobject.TimeRange {
	t.Helper()
	window, err := valueobject.NewTimeRange(start, end)
	require.NoError(t, err)
	return window
}

func usd(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	return m
}

func TestQuoteService_Quote_HourlyOnly(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(3*time.Hour+30*time.Minute))

	card := RateCard{HourlyRate: usd(t, "25.00")}

	result, err := svc.Quote(window, card)
	require.NoError(t, err)

	// 3.5 hours bills as 4 started hours
	assert.Equal(t, int64(4), result.BilledHours)
	assert.Equal(t, QuoteBasisHourly, result.Basis)
	assert.Equal(t, "100.00", result.Subtotal.StringFixed(2))
	assert.True(t, result.CleaningFee.IsZero())
	assert.Equal(t, "100.00", result.Total.StringFixed(2))
}

func TestQuoteService_Quote_DailyRateWinsWhenCheaper(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(24*time.Hour))

	daily := usd(t, "150.00")
	card := RateCard{
		HourlyRate: usd(t, "25.00"),
		DailyRate:  &daily,
	}

	result, err := svc.Quote(window, card)
	require.NoError(t, err)

	assert.Equal(t, int64(24), result.BilledHours)
	assert.Equal(t, int64(1), result.BilledDays)
	assert.Equal(t, QuoteBasisDaily, result.Basis)
	assert.Equal(t, "150.00", result.Subtotal.StringFixed(2))
}

func TestQuoteService_Quote_HourlyWinsForShortWindows(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(2*time.Hour))

	daily := usd(t, "150.00")
	card := RateCard{
		HourlyRate: usd(t, "25.00"),
		DailyRate:  &daily,
	}

	result, err := svc.Quote(window, card)
	require.NoError(t, err)

	assert.Equal(t, QuoteBasisHourly, result.Basis)
	assert.Equal(t, "50.00", result.Subtotal.StringFixed(2))
}

func TestQuoteService_Quote_TiePrefersHourly(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(6*time.Hour))

	// 6 hours at 25.00 equals the 150.00 daily rate exactly
	daily := usd(t, "150.00")
	card := RateCard{
		HourlyRate: usd(t, "25.00"),
		DailyRate:  &daily,
	}

	result, err := svc.Quote(window, card)
	require.NoError(t, err)

	assert.Equal(t, QuoteBasisHourly, result.Basis)
	assert.Equal(t, "150.00", result.Subtotal.StringFixed(2))
}

func TestQuoteService_Quote_CleaningFeeAddedOnce(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(4*time.Hour))

	fee := usd(t, "35.00")
	card := RateCard{
		HourlyRate:  usd(t, "25.00"),
		CleaningFee: &fee,
	}

	result, err := svc.Quote(window, card)
	require.NoError(t, err)

	assert.Equal(t, "100.00", result.Subtotal.StringFixed(2))
	assert.Equal(t, "35.00", result.CleaningFee.StringFixed(2))
	assert.Equal(t, "135.00", result.Total.StringFixed(2))
}

func TestQuoteService_Quote_MultiDayWindow(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(50*time.Hour))

	daily := usd(t, "150.00")
	card := RateCard{
		HourlyRate: usd(t, "25.00"),
		DailyRate:  &daily,
	}

	result, err := svc.Quote(window, card)
	require.NoError(t, err)

	// 50 hours bills as 3 started days: 450.00 beats 50 * 25.00
	assert.Equal(t, int64(3), result.BilledDays)
	assert.Equal(t, QuoteBasisDaily, result.Basis)
	assert.Equal(t, "450.00", result.Subtotal.StringFixed(2))
}

func TestQuoteService_Quote_InvalidInput(t *testing.T) {
	svc := NewQuoteService()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, start, start.Add(2*time.Hour))

	t.Run("empty window", func(t *testing.T) {
		_, err := svc.Quote(valueobject.TimeRange{}, RateCard{HourlyRate: usd(t, "25.00")})
		assert.Error(t, err)
	})

	t.Run("zero hourly rate", func(t *testing.T) {
		_, err := svc.Quote(window, RateCard{HourlyRate: valueobject.ZeroUSD()})
		assert.Error(t, err)
	})

	t.Run("zero daily rate", func(t *testing.T) {
		daily := valueobject.ZeroUSD()
		_, err := svc.Quote(window, RateCard{HourlyRate: usd(t, "25.00"), DailyRate: &daily})
		assert.Error(t, err)
	})
}

func TestQuoteService_ValidateRate(t *testing.T) {
	svc := NewQuoteService()

	assert.NoError(t, svc.ValidateRate(usd(t, "10.00")))
	assert.Error(t, svc.ValidateRate(valueobject.ZeroUSD()))
}
