// Package telemetry exports delivery metrics and engine traces through
// OpenTelemetry.
//
// Setup installs OTLP/HTTP trace and metric providers globally. Until it runs
// (or when it is disabled) the global noop providers are used and the hooks
// cost nothing.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

const meterName = "github.com/dmitrymomot/notifykit"

// DeliveryCounter is a notification extension counting successful
// deliveries as notification.delivered{notice_type, medium, backend}.
type DeliveryCounter struct {
	delivered metric.Int64Counter
}

// NewDeliveryCounter uses the global meter provider.
func NewDeliveryCounter() (*DeliveryCounter, error) {
	return NewDeliveryCounterWithMeter(otel.Meter(meterName))
}

func NewDeliveryCounterWithMeter(meter metric.Meter) (*DeliveryCounter, error) {
	c, err := meter.Int64Counter(
		"notification.delivered",
		metric.WithDescription("Notices delivered per backend"),
		metric.WithUnit("{notice}"),
	)
	if err != nil {
		return nil, err
	}
	return &DeliveryCounter{delivered: c}, nil
}

func (c *DeliveryCounter) Name() string { return "telemetry.delivery_counter" }

func (c *DeliveryCounter) OnDelivered(ctx context.Context, d notification.Delivery, mediumID, backendLabel string) error {
	c.delivered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("notice_type", d.Label),
		attribute.String("medium", mediumID),
		attribute.String("backend", backendLabel),
	))
	return nil
}

var _ notification.DeliveredHook = (*DeliveryCounter)(nil)
