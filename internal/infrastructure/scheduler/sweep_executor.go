package scheduler

import "context"

// BookingSweeper runs time-based transitions on bookings
type BookingSweeper interface {
	ExpireOverdue(ctx context.Context, batchSize int) (int, error)
	CompleteElapsed(ctx context.Context, batchSize int) (int, error)
}

// ClaimSweeper runs time-based transitions on damage claims
type ClaimSweeper interface {
	SweepResponseDeadlines(ctx context.Context, batchSize int) (int, error)
	RetryFailedCharges(ctx context.Context, batchSize int) (int, error)
}

// SweepExecutor dispatches sweep jobs to the application services
type SweepExecutor struct {
	bookings BookingSweeper
	claims   ClaimSweeper
}

// NewSweepExecutor creates an executor backed by the given sweepers
func NewSweepExecutor(bookings BookingSweeper, claims ClaimSweeper) *SweepExecutor {
	return &SweepExecutor{
		bookings: bookings,
		claims:   claims,
	}
}

// Execute runs the sweep named by the job and returns the record count
func (e *SweepExecutor) Execute(ctx context.Context, job *Job) (int, error) {
	switch job.SweepType {
	case SweepBookingExpiry:
		return e.bookings.ExpireOverdue(ctx, job.BatchSize)
	case SweepBookingCompletion:
		return e.bookings.CompleteElapsed(ctx, job.BatchSize)
	case SweepClaimDeadline:
		return e.claims.SweepResponseDeadlines(ctx, job.BatchSize)
	case SweepClaimChargeRetry:
		return e.claims.RetryFailedCharges(ctx, job.BatchSize)
	default:
		return 0, ErrUnknownSweepType
	}
}
