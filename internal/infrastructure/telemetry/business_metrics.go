// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the marketplace.
// It tracks booking activity, payment captures and refunds, and the
// damage claim pipeline.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	bookingCreatedTotal *Counter
	bookingAmountTotal  *Counter
	captureTotal        *Counter
	refundTotal         *Counter
	claimFiledTotal     *Counter
	claimChargeTotal    *Counter

	// Gauge metrics (point-in-time values)
	bookingsAwaitingDecision *Gauge
	claimsAwaitingResponse   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	backlogProvider BacklogMetricsProvider
}

// BacklogMetricsProvider provides backlog counts for periodic metrics
// collection. This interface lets the telemetry layer query repository
// state without depending on the domain packages directly.
type BacklogMetricsProvider interface {
	// CountBookingsAwaitingDecision returns how many bookings sit in PENDING
	CountBookingsAwaitingDecision(ctx context.Context) (int64, error)

	// CountClaimsAwaitingResponse returns how many claims are OPEN or DISPUTED
	CountClaimsAwaitingResponse(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	BacklogProvider BacklogMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		backlogProvider: cfg.BacklogProvider,
	}

	// Initialize counter metrics
	var err error

	// Booking metrics
	bm.bookingCreatedTotal, err = NewCounter(
		cfg.Meter,
		"localcooks_booking_created_total",
		"Total number of bookings created",
		"{bookings}",
	)
	if err != nil {
		return nil, err
	}

	bm.bookingAmountTotal, err = NewCounter(
		cfg.Meter,
		"localcooks_booking_amount_total",
		"Total authorized booking amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.captureTotal, err = NewCounter(
		cfg.Meter,
		"localcooks_capture_total",
		"Total number of payment captures",
		"{captures}",
	)
	if err != nil {
		return nil, err
	}

	bm.refundTotal, err = NewCounter(
		cfg.Meter,
		"localcooks_refund_total",
		"Total number of refunds issued",
		"{refunds}",
	)
	if err != nil {
		return nil, err
	}

	// Claim metrics
	bm.claimFiledTotal, err = NewCounter(
		cfg.Meter,
		"localcooks_claim_filed_total",
		"Total number of damage claims filed",
		"{claims}",
	)
	if err != nil {
		return nil, err
	}

	bm.claimChargeTotal, err = NewCounter(
		cfg.Meter,
		"localcooks_claim_charge_total",
		"Total number of damage claim charge attempts",
		"{charges}",
	)
	if err != nil {
		return nil, err
	}

	// Backlog gauge metrics
	bm.bookingsAwaitingDecision, err = NewGauge(
		cfg.Meter,
		"localcooks_bookings_awaiting_decision",
		"Bookings holding funds and waiting on a manager decision",
		"{bookings}",
	)
	if err != nil {
		return nil, err
	}

	bm.claimsAwaitingResponse, err = NewGauge(
		cfg.Meter,
		"localcooks_claims_awaiting_response",
		"Damage claims open or disputed and awaiting resolution",
		"{claims}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Booking Metrics
// =============================================================================

// RecordBookingCreated records a booking creation event.
// This should be called from the application layer when checkout succeeds.
func (bm *BusinessMetrics) RecordBookingCreated(ctx context.Context, locationID string) {
	bm.bookingCreatedTotal.Inc(ctx,
		AttrLocationID.String(locationID),
	)
}

// RecordBookingAmount records the authorized booking amount.
// Amount should be in the smallest currency unit (cents).
func (bm *BusinessMetrics) RecordBookingAmount(ctx context.Context, locationID string, amountCents int64) {
	bm.bookingAmountTotal.Add(ctx, amountCents,
		AttrLocationID.String(locationID),
	)
}

// RecordBookingWithAmount is a convenience method that records both booking count and amount.
func (bm *BusinessMetrics) RecordBookingWithAmount(ctx context.Context, locationID string, amount decimal.Decimal) {
	bm.RecordBookingCreated(ctx, locationID)

	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordBookingAmount(ctx, locationID, amountCents)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordCapture records a capture attempt against a booking hold.
func (bm *BusinessMetrics) RecordCapture(ctx context.Context, status PaymentStatus) {
	bm.captureTotal.Inc(ctx,
		AttrPaymentStatus.String(string(status)),
	)
}

// RecordRefund records a refund issued against a captured booking.
func (bm *BusinessMetrics) RecordRefund(ctx context.Context, status PaymentStatus) {
	bm.refundTotal.Inc(ctx,
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Claim Metrics
// =============================================================================

// RecordClaimFiled records a damage claim filing.
func (bm *BusinessMetrics) RecordClaimFiled(ctx context.Context, locationID string) {
	bm.claimFiledTotal.Inc(ctx,
		AttrLocationID.String(locationID),
	)
}

// RecordClaimCharge records an off-session claim charge attempt.
func (bm *BusinessMetrics) RecordClaimCharge(ctx context.Context, status PaymentStatus) {
	bm.claimChargeTotal.Inc(ctx,
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects backlog metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectBacklogMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectBacklogMetrics(ctx)
		}
	}
}

// collectBacklogMetrics collects the decision and claim backlog gauges.
func (bm *BusinessMetrics) collectBacklogMetrics(ctx context.Context) {
	if bm.backlogProvider == nil {
		bm.logger.Debug("No backlog provider configured, skipping backlog metrics collection")
		return
	}

	pending, err := bm.backlogProvider.CountBookingsAwaitingDecision(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count bookings awaiting decision", zap.Error(err))
	} else {
		bm.bookingsAwaitingDecision.Record(ctx, pending)
	}

	open, err := bm.backlogProvider.CountClaimsAwaitingResponse(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count claims awaiting response", zap.Error(err))
	} else {
		bm.claimsAwaitingResponse.Record(ctx, open)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
