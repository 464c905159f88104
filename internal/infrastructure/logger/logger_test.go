package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("console and json configs build", func(t *testing.T) {
		for _, cfg := range []*Config{DefaultConfig(), ProductionConfig()} {
			l, err := New(cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		}
	})

	t.Run("writes to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracker.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("ticket saved", zap.Int64("ticket_id", 42))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"ticket_id":42`)
	})

	t.Run("unwritable file fails", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})

	t.Run("tees extra cores", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		l, err := New(&Config{Level: "error", Format: "json", Output: "stderr"}, core)
		require.NoError(t, err)

		l.Info("forwarded")
		assert.Equal(t, 1, logs.FilterMessage("forwarded").Len())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	t.Run("FromContext falls back to nop", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("request and user ids enrich the stored logger", func(t *testing.T) {
		ctx, _ := WithRequestID(context.Background(), base, "req-1")
		ctx, _ = WithUserID(ctx, FromContext(ctx), 7)

		assert.Equal(t, "req-1", GetRequestID(ctx))
		assert.Equal(t, int64(7), GetUserID(ctx))

		L(ctx).Info("hello")
		entry := logs.FilterMessage("hello").All()[0]
		fields := entry.ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, int64(7), fields["user_id"])
	})

	t.Run("L adds trace ids from the span context", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
		ctx := trace.ContextWithSpanContext(WithContext(context.Background(), base), sc)

		assert.Equal(t, traceID.String(), GetTraceID(ctx))
		L(ctx).Info("traced")
		fields := logs.FilterMessage("traced").All()[0].ContextMap()
		assert.Equal(t, traceID.String(), fields["trace_id"])
		assert.Equal(t, spanID.String(), fields["span_id"])
	})

	t.Run("missing values are empty", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, GetRequestID(ctx))
		assert.Zero(t, GetUserID(ctx))
		assert.Empty(t, GetTraceID(ctx))
	})
}
