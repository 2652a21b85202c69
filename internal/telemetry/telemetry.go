// Package telemetry wires serving counters through the OpenTelemetry
// metric API, with optional OTLP gRPC export.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/propsignal/incentive-recommender/pkg/types"
)

const meterName = "github.com/propsignal/incentive-recommender"

// Metrics holds the serving counters.
type Metrics struct {
	Requests    metric.Int64Counter
	Predictions metric.Int64Counter
	Errors      metric.Int64Counter
}

// Setup configures the global meter provider and returns the serving
// counters plus a shutdown function. With no OTLP endpoint configured the
// provider has no reader and counters are effectively no-ops.
func Setup(ctx context.Context, cfg types.TelemetryConfig) (*Metrics, func(context.Context) error, error) {
	var opts []sdkmetric.Option
	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	m, err := NewMetrics(provider.Meter(meterName))
	if err != nil {
		return nil, nil, err
	}
	return m, provider.Shutdown, nil
}

// NewMetrics registers the serving counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.Int64Counter("recommend.requests",
		metric.WithDescription("Recommendation requests received"))
	if err != nil {
		return nil, err
	}
	predictions, err := meter.Int64Counter("recommend.predictions",
		metric.WithDescription("Successful predictions served"))
	if err != nil {
		return nil, err
	}
	errors, err := meter.Int64Counter("recommend.errors",
		metric.WithDescription("Requests answered with an error response"))
	if err != nil {
		return nil, err
	}
	return &Metrics{Requests: requests, Predictions: predictions, Errors: errors}, nil
}
