package config

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestProviders bundles a MeterProvider and a TracerProvider that record in memory.
type TestProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	MetricReader   *sdkmetric.ManualReader
	TracerProvider *sdktrace.TracerProvider
	SpanExporter   *tracetest.InMemoryExporter
}

// NewTestProviders creates providers with a manual metric reader and a synchronous in-memory span exporter.
func NewTestProviders() *TestProviders {
	reader := sdkmetric.NewManualReader()
	exporter := tracetest.NewInMemoryExporter()

	return &TestProviders{
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		MetricReader:   reader,
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
		SpanExporter:   exporter,
	}
}

// CollectMetrics returns everything recorded so far.
func (p *TestProviders) CollectMetrics(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var resourceMetrics metricdata.ResourceMetrics
	err := p.MetricReader.Collect(ctx, &resourceMetrics)

	return resourceMetrics, err
}

// Shutdown shuts down both providers.
func (p *TestProviders) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.MeterProvider.Shutdown(ctx),
		p.TracerProvider.Shutdown(ctx),
	)
}
