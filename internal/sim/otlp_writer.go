package sim

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"cloudsim/internal/telemetry"
)

// OTLPWriter exports metric events over OTLP/gRPC. Events are recorded as
// float64 gauges; the periodic reader pushes them to the collector.
type OTLPWriter struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	mu     sync.Mutex
	gauges map[string]metric.Float64Gauge
}

// NewOTLPWriter connects to an OTLP/gRPC endpoint (host:port, plaintext).
func NewOTLPWriter(ctx context.Context, endpoint, workerID string, exportInterval time.Duration) (*OTLPWriter, error) {
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	if exportInterval <= 0 {
		exportInterval = 15 * time.Second
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "cloudsim"),
		attribute.String("worker.id", workerID),
	)
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(exportInterval))),
	)
	return &OTLPWriter{
		provider: provider,
		meter:    provider.Meter("cloudsim"),
		gauges:   make(map[string]metric.Float64Gauge),
	}, nil
}

func (w *OTLPWriter) gauge(name string, unit telemetry.Unit) (metric.Float64Gauge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if g, ok := w.gauges[name]; ok {
		return g, nil
	}
	g, err := w.meter.Float64Gauge(name, metric.WithUnit(string(unit)))
	if err != nil {
		return nil, err
	}
	w.gauges[name] = g
	return g, nil
}

// Write records a single metric event.
func (w *OTLPWriter) Write(ev telemetry.MetricEvent) error {
	g, err := w.gauge(ev.Name, ev.Unit)
	if err != nil {
		return Retryable(err)
	}
	attrs := make([]attribute.KeyValue, 0, len(ev.Attributes))
	for k, v := range ev.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	g.Record(context.Background(), ev.Value, metric.WithAttributes(attrs...))
	return nil
}

// WriteBatch records multiple metric events.
func (w *OTLPWriter) WriteBatch(events []telemetry.MetricEvent) error {
	for _, ev := range events {
		if err := w.Write(ev); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes pending exports and shuts the provider down.
func (w *OTLPWriter) Close(ctx context.Context) error {
	return w.provider.Shutdown(ctx)
}
