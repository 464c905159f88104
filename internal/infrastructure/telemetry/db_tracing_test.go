package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedGrant struct {
	ID   int64
	Name string
}

func TestRegisterDBTracing(t *testing.T) {
	rec := useRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedGrant{}))

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		DBSystem:        "sqlite",
		SlowQueryThresh: time.Nanosecond,
	}, zap.NewNop()))

	ctx, span := StartSpan(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedGrant{Name: "Wikidata"}).Error)
	span.End()

	assert.Greater(t, len(rec.Ended()), 1, "statement spans are recorded under the parent")
}

func TestAnnotateStatement(t *testing.T) {
	rec := useRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "query")
	tx := db.Session(&gorm.Session{})
	tx.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now().Add(-time.Second))
	tx.Statement.Table = "tracker_grant"
	tx.Statement.RowsAffected = 2

	annotateStatement(tx, 200*time.Millisecond)
	span.End()

	attrs := rec.Ended()[0].Attributes()
	assert.Contains(t, attrs, attribute.String("db.sql.table", "tracker_grant"))
	assert.Contains(t, attrs, attribute.Int64("db.rows_affected", 2))
	assert.Contains(t, attrs, attribute.Bool("db.slow_query", true))
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
}
