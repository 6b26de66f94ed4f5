// Package instrumentation provides OpenTelemetry metrics for the server
// engines. All instruments are optional: a nil *Metrics is a valid no-op
// recorder, so embedding applications that do not care about metrics pay
// nothing.
package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// DefaultServiceName identifies this service in metric resources
	DefaultServiceName = "oauth-core"

	// DefaultServiceVersion is used when no version is provided
	DefaultServiceVersion = "unknown"
)

// Config holds instrumentation configuration.
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Enabled controls whether instrumentation is active.
	// When false, no-op providers are used (zero overhead).
	Enabled bool

	// MeterProvider lets the embedding application supply its own provider
	// (e.g. one backed by a Prometheus or OTLP exporter). If nil and
	// Enabled is true, a no-op provider is used until an exporter is wired.
	MeterProvider metric.MeterProvider

	// Resource allows custom resource attributes. If nil, a default
	// resource is created from the service name and version.
	Resource *resource.Resource
}

// Instrumentation owns the meter provider and the pre-built instruments.
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider metric.MeterProvider
	metrics       *Metrics
}

// New creates an instrumentation instance. With Enabled false every
// instrument is a no-op.
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = DefaultServiceVersion
	}

	res := config.Resource
	if res == nil {
		var err error
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:   config,
		resource: res,
	}

	switch {
	case !config.Enabled:
		inst.meterProvider = noop.NewMeterProvider()
	case config.MeterProvider != nil:
		inst.meterProvider = config.MeterProvider
	default:
		inst.meterProvider = noop.NewMeterProvider()
	}

	metrics, err := newMetrics(inst.meterProvider.Meter("oauth-core/server"))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	inst.metrics = metrics

	return inst, nil
}

// Metrics returns the instrument set.
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// Resource returns the telemetry resource describing this service.
func (i *Instrumentation) Resource() *resource.Resource {
	return i.resource
}
