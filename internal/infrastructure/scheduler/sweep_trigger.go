package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepTriggerConfig holds per-sweep tick intervals
type SweepTriggerConfig struct {
	// BookingExpiryInterval covers both the expiry and completion sweeps
	BookingExpiryInterval time.Duration

	// ClaimDeadlineInterval covers the uncontested deadline sweep
	ClaimDeadlineInterval time.Duration

	// ChargeRetryInterval covers the failed charge retry sweep
	ChargeRetryInterval time.Duration

	// ChargeRetryBatch caps how many failed charges a single retry sweep touches
	ChargeRetryBatch int
}

// DefaultSweepTriggerConfig returns default trigger configuration
func DefaultSweepTriggerConfig() SweepTriggerConfig {
	return SweepTriggerConfig{
		BookingExpiryInterval: time.Minute,
		ClaimDeadlineInterval: 5 * time.Minute,
		ChargeRetryInterval:   time.Hour,
		ChargeRetryBatch:      20,
	}
}

// SweepTrigger submits sweep jobs to the scheduler on fixed intervals
type SweepTrigger struct {
	config    SweepTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepTrigger creates a new sweep trigger
func NewSweepTrigger(config SweepTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *SweepTrigger {
	if config.BookingExpiryInterval <= 0 {
		config.BookingExpiryInterval = time.Minute
	}
	if config.ClaimDeadlineInterval <= 0 {
		config.ClaimDeadlineInterval = 5 * time.Minute
	}
	if config.ChargeRetryInterval <= 0 {
		config.ChargeRetryInterval = time.Hour
	}
	return &SweepTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger loops
func (t *SweepTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.runEvery(ctx, t.config.BookingExpiryInterval, SweepBookingExpiry, 0)
	t.runEvery(ctx, t.config.BookingExpiryInterval, SweepBookingCompletion, 0)
	t.runEvery(ctx, t.config.ClaimDeadlineInterval, SweepClaimDeadline, 0)
	t.runEvery(ctx, t.config.ChargeRetryInterval, SweepClaimChargeRetry, t.config.ChargeRetryBatch)

	t.logger.Info("Sweep trigger started",
		zap.Duration("booking_interval", t.config.BookingExpiryInterval),
		zap.Duration("claim_deadline_interval", t.config.ClaimDeadlineInterval),
		zap.Duration("charge_retry_interval", t.config.ChargeRetryInterval),
	)

	return nil
}

// Stop stops the trigger loops
func (t *SweepTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runEvery starts a ticker goroutine that submits one sweep job per tick
func (t *SweepTrigger) runEvery(ctx context.Context, interval time.Duration, sweepType SweepType, batchSize int) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := t.scheduler.ScheduleSweep(sweepType, batchSize); err != nil {
					t.logger.Warn("Failed to schedule sweep",
						zap.String("sweep_type", string(sweepType)),
						zap.Error(err),
					)
				}
			}
		}
	}()
}

// TriggerNow submits a sweep immediately, outside the regular cadence.
// Used by the admin API to force a sweep without waiting for the next tick.
func (t *SweepTrigger) TriggerNow(sweepType *SweepType, batchSize int) error {
	if sweepType != nil {
		return t.scheduler.ScheduleSweep(*sweepType, batchSize)
	}

	for _, st := range AllSweepTypes() {
		if err := t.scheduler.ScheduleSweep(st, batchSize); err != nil {
			return err
		}
	}
	return nil
}
