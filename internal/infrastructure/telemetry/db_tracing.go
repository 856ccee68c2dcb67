// Package telemetry provides OpenTelemetry tracing, metrics and profiling
// integration.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include query variables in spans; never in production
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns database tracing defaults
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin wires otelgorm into a GORM instance and layers slow-query
// detection and error marking on top of the spans it produces
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm registers the otelgorm plugin and the timing callbacks
// on the given GORM instance. A no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := NewDBTracingCallback(p.config.SlowQueryThresh).RegisterCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime stamps the query start time into the context for the
// after-callback to measure against
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}

// DBTracingCallback annotates the active span of each query with row counts,
// the table name, errors and slow-query events
type DBTracingCallback struct {
	slowQueryThresh time.Duration
}

// NewDBTracingCallback creates a callback with the given slow-query threshold
func NewDBTracingCallback(slowQueryThresh time.Duration) *DBTracingCallback {
	return &DBTracingCallback{
		slowQueryThresh: slowQueryThresh,
	}
}

// BeforeCallback stamps the query start time into the statement context
func (c *DBTracingCallback) BeforeCallback(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// AfterCallback annotates the span opened by otelgorm for this query
func (c *DBTracingCallback) AfterCallback(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// ErrRecordNotFound is an expected outcome, not a span failure
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > c.slowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", c.slowQueryThresh.Milliseconds()),
			))
		}
	}
}

// RegisterCallbacks hooks the before and after callbacks around every GORM
// operation type
func (c *DBTracingCallback) RegisterCallbacks(db *gorm.DB) error {
	registrations := []func() error{
		func() error {
			return db.Callback().Create().Before("gorm:create").Register("otel_timing:before_create", c.BeforeCallback)
		},
		func() error {
			return db.Callback().Query().Before("gorm:query").Register("otel_timing:before_query", c.BeforeCallback)
		},
		func() error {
			return db.Callback().Update().Before("gorm:update").Register("otel_timing:before_update", c.BeforeCallback)
		},
		func() error {
			return db.Callback().Delete().Before("gorm:delete").Register("otel_timing:before_delete", c.BeforeCallback)
		},
		func() error {
			return db.Callback().Row().Before("gorm:row").Register("otel_timing:before_row", c.BeforeCallback)
		},
		func() error {
			return db.Callback().Raw().Before("gorm:raw").Register("otel_timing:before_raw", c.BeforeCallback)
		},
		func() error {
			return db.Callback().Create().After("gorm:create").Register("otel_timing:after_create", c.AfterCallback)
		},
		func() error {
			return db.Callback().Query().After("gorm:query").Register("otel_timing:after_query", c.AfterCallback)
		},
		func() error {
			return db.Callback().Update().After("gorm:update").Register("otel_timing:after_update", c.AfterCallback)
		},
		func() error {
			return db.Callback().Delete().After("gorm:delete").Register("otel_timing:after_delete", c.AfterCallback)
		},
		func() error {
			return db.Callback().Row().After("gorm:row").Register("otel_timing:after_row", c.AfterCallback)
		},
		func() error {
			return db.Callback().Raw().After("gorm:raw").Register("otel_timing:after_raw", c.AfterCallback)
		},
	}

	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
