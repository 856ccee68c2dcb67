package service

import (
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// QuoteBasis identifies which rate a quote was billed on
type QuoteBasis string

const (
	QuoteBasisHourly QuoteBasis = "hourly"
	QuoteBasisDaily  QuoteBasis = "daily"
)

// RateCard describes how a kitchen location prices its time
type RateCard struct {
	HourlyRate valueobject.Money
	// DailyRate is optional; when set, bookings are billed on whichever
	// basis is cheaper for the chef
	DailyRate *valueobject.Money
	// CleaningFee is an optional flat fee added once per booking
	CleaningFee *valueobject.Money
}

// QuoteResult represents the priced breakdown of a booking window
type QuoteResult struct {
	// The number of started hours in the window
	BilledHours int64
	// The number of started days in the window
	BilledDays int64
	// The basis the subtotal was billed on
	Basis QuoteBasis
	// Subtotal is the time charge on the chosen basis
	Subtotal valueobject.Money
	// CleaningFee is the flat fee applied, zero when the card has none
	CleaningFee valueobject.Money
	// Total is Subtotal plus CleaningFee
	Total valueobject.Money
}

// QuoteService prices booking windows against location rate cards
// This is a domain service as it operates across multiple aggregates
type QuoteService struct{}

// NewQuoteService creates a new quote service
func NewQuoteService() *QuoteService {
	return &QuoteService{}
}

// Quote prices a booking window against a rate card
// Parameters:
//   - window: the booking window to price
//   - card: the location's rate card
//
// Returns:
//   - QuoteResult with the billed breakdown
//   - error if the window or rate card is invalid
func (s *QuoteService) Quote(window valueobject.TimeRange, card RateCard) (*QuoteResult, error) {
	if window.IsZero() {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Booking window cannot be empty")
	}
	if !card.HourlyRate.IsPositive() {
		return nil, shared.NewDomainError("INVALID_RATE", "Hourly rate must be positive")
	}

	hours := window.BillableHours()
	days := window.BillableDays()

	subtotal := card.HourlyRate.MultiplyByInt(hours)
	basis := QuoteBasisHourly

	if card.DailyRate != nil {
		if err := s.ValidateRate(*card.DailyRate); err != nil {
			return nil, err
		}
		dailyTotal := card.DailyRate.MultiplyByInt(days)
		cheaper, err := dailyTotal.LessThan(subtotal)
		if err != nil {
			return nil, err
		}
		if cheaper {
			subtotal = dailyTotal
			basis = QuoteBasisDaily
		}
	}

	cleaningFee := valueobject.Zero(subtotal.Currency())
	if card.CleaningFee != nil {
		if card.CleaningFee.IsNegative() {
			return nil, shared.NewDomainError("INVALID_RATE", "Cleaning fee cannot be negative")
		}
		cleaningFee = *card.CleaningFee
	}

	total, err := subtotal.Add(cleaningFee)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		BilledHours: hours,
		BilledDays:  days,
		Basis:       basis,
		Subtotal:    subtotal,
		CleaningFee: cleaningFee,
		Total:       total,
	}, nil
}

// ValidateRate validates a rate amount
func (s *QuoteService) ValidateRate(rate valueobject.Money) error {
	if rate.IsZero() {
		return shared.NewDomainError("INVALID_RATE", "Rate cannot be zero")
	}
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Rate cannot be negative")
	}
	return nil
}
