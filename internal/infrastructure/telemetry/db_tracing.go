package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include query variables in spans; never in production
	SlowQueryThresh time.Duration
	DBSystem        string
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db plus callbacks that tag slow
// and failed statements on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateStatement(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("tracker_timing:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("tracker_timing:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("tracker_timing:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("tracker_timing:before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("tracker_timing:before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("tracker_timing:before_raw", before) },
		func() error { return cb.Create().After("gorm:create").Register("tracker_timing:after_create", after) },
		func() error { return cb.Query().After("gorm:query").Register("tracker_timing:after_query", after) },
		func() error { return cb.Update().After("gorm:update").Register("tracker_timing:after_update", after) },
		func() error { return cb.Delete().After("gorm:delete").Register("tracker_timing:after_delete", after) },
		func() error { return cb.Row().After("gorm:row").Register("tracker_timing:after_row", after) },
		func() error { return cb.Raw().After("gorm:raw").Register("tracker_timing:after_raw", after) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateStatement(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))

	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok && slow > 0 {
		if elapsed := time.Since(start); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
