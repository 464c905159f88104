package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const metricsExportInterval = 60 * time.Second

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider creates and registers the global meter provider.
// If metrics are disabled, it returns a provider that wraps the no-op global meter.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled || !cfg.MetricsEnabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricsExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", metricsExportInterval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp == nil || mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Metrics holds the tracker's business instruments.
type Metrics struct {
	ticketsCreated      metric.Int64Counter
	acksChanged         metric.Int64Counter
	notificationsFired  metric.Int64Counter
	digestEmailsSent    metric.Int64Counter
	tasksProcessed      metric.Int64Counter
	taskDuration        metric.Float64Histogram
	wikiRequestDuration metric.Float64Histogram
}

// NewMetrics registers the tracker instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ticketsCreated, err = meter.Int64Counter("tracker.tickets.created",
		metric.WithDescription("Tickets created")); err != nil {
		return nil, err
	}
	if m.acksChanged, err = meter.Int64Counter("tracker.acks.changed",
		metric.WithDescription("Acks added or removed")); err != nil {
		return nil, err
	}
	if m.notificationsFired, err = meter.Int64Counter("tracker.notifications.fired",
		metric.WithDescription("Notifications stored for delivery")); err != nil {
		return nil, err
	}
	if m.digestEmailsSent, err = meter.Int64Counter("tracker.digest.emails_sent",
		metric.WithDescription("Notification digest emails sent")); err != nil {
		return nil, err
	}
	if m.tasksProcessed, err = meter.Int64Counter("tracker.tasks.processed",
		metric.WithDescription("Delayed tasks processed by outcome")); err != nil {
		return nil, err
	}
	if m.taskDuration, err = meter.Float64Histogram("tracker.tasks.duration",
		metric.WithUnit("s"), metric.WithDescription("Delayed task run time")); err != nil {
		return nil, err
	}
	if m.wikiRequestDuration, err = meter.Float64Histogram("tracker.mediawiki.request.duration",
		metric.WithUnit("s"), metric.WithDescription("Wiki API request time")); err != nil {
		return nil, err
	}
	return m, nil
}

// NopMetrics returns instruments bound to the global (by default no-op) meter.
func NopMetrics() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider().Meter(TracerName))
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) TicketCreated(ctx context.Context, topicID int64) {
	m.ticketsCreated.Add(ctx, 1, metric.WithAttributes(attribute.Int64("topic.id", topicID)))
}

func (m *Metrics) AckChanged(ctx context.Context, ackType string, added bool) {
	m.acksChanged.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ack.type", ackType),
		attribute.Bool("added", added),
	))
}

func (m *Metrics) NotificationsFired(ctx context.Context, notificationType string, n int) {
	if n == 0 {
		return
	}
	m.notificationsFired.Add(ctx, int64(n), metric.WithAttributes(attribute.String("notification.type", notificationType)))
}

func (m *Metrics) DigestSent(ctx context.Context) {
	m.digestEmailsSent.Add(ctx, 1)
}

// TaskProcessed records one task attempt and its outcome (ok, retry, failed).
func (m *Metrics) TaskProcessed(ctx context.Context, name, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("task.name", name), attribute.String("outcome", outcome))
	m.tasksProcessed.Add(ctx, 1, attrs)
	m.taskDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) WikiRequest(ctx context.Context, action string, elapsed time.Duration) {
	m.wikiRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("action", action)))
}
