// Package telemetry wires OpenTelemetry tracing, metrics and logs plus
// Pyroscope profiling into the tracker.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// Config holds telemetry configuration.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	LogsEnabled       bool
	ProfilingEnabled  bool
	PyroscopeURL      string
}

// Providers bundles every telemetry provider so the server can start and
// stop them together.
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts all providers enabled by cfg. Disabled providers are no-ops.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	tp, err := NewTracerProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mp, err := NewMeterProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	lp, err := NewLoggerProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	prof, err := NewProfiler(cfg, logger)
	if err != nil {
		return nil, err
	}
	if prof.IsEnabled() {
		tp.EnableSpanProfiles()
	}
	return &Providers{Tracer: tp, Meter: mp, Logs: lp, Profiler: prof}, nil
}

// Shutdown flushes and stops every provider, returning all errors joined.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
		p.Profiler.Stop(),
	)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
