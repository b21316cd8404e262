package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/telemetry"
)

type countingCounter struct {
	noop.Int64Counter
	total int64
}

func (c *countingCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.total += incr
}

type countingMeter struct {
	noop.Meter
	counter *countingCounter
}

func (m countingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return m.counter, nil
}

func TestDeliveryCounter(t *testing.T) {
	t.Parallel()

	counter := &countingCounter{}
	c, err := telemetry.NewDeliveryCounterWithMeter(countingMeter{counter: counter})
	require.NoError(t, err)

	hooks := notification.NewHooks(nil)
	hooks.Register(c)
	d := notification.Delivery{Label: "reply"}
	hooks.Delivered(context.Background(), d, "1", "email")
	hooks.Delivered(context.Background(), d, "0", "site")

	assert.Equal(t, int64(2), counter.total)
	assert.Equal(t, "telemetry.delivery_counter", c.Name())
}

func TestNewDeliveryCounterDefault(t *testing.T) {
	t.Parallel()

	c, err := telemetry.NewDeliveryCounter()
	require.NoError(t, err)
	assert.NoError(t, c.OnDelivered(context.Background(), notification.Delivery{}, "0", "site"))
}

func TestDeliveryCounterExports(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	c, err := telemetry.NewDeliveryCounterWithMeter(mp.Meter("test"))
	require.NoError(t, err)
	d := notification.Delivery{Label: "reply"}
	require.NoError(t, c.OnDelivered(context.Background(), d, "1", "email"))
	require.NoError(t, c.OnDelivered(context.Background(), d, "1", "email"))
	require.NoError(t, c.OnDelivered(context.Background(), d, "0", "site"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "notification.delivered", m.Name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byBackend := map[string]int64{}
	for _, dp := range sum.DataPoints {
		backend, _ := dp.Attributes.Value(attribute.Key("backend"))
		byBackend[backend.AsString()] = dp.Value
		notice, _ := dp.Attributes.Value(attribute.Key("notice_type"))
		assert.Equal(t, "reply", notice.AsString())
	}
	assert.Equal(t, map[string]int64{"email": 2, "site": 1}, byBackend)
}

func TestSetupDisabled(t *testing.T) {
	t.Parallel()

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
