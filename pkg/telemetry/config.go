package telemetry

import "time"

// Config controls the OTLP exporters. An empty Endpoint leaves the choice to
// the standard OTEL_EXPORTER_OTLP_* variables read by the exporters.
type Config struct {
	Enabled        bool          `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint       string        `env:"OTEL_ENDPOINT_URL"`
	ServiceName    string        `env:"OTEL_SERVICE_NAME" envDefault:"emit-notices"`
	MetricInterval time.Duration `env:"OTEL_METRIC_INTERVAL" envDefault:"30s"`
}
