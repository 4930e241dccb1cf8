package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// NewRegistry returns a registry preloaded with the process collector.
// Go runtime metrics come from the OpenTelemetry runtime instrumentation
// once InitMeterProvider is called.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// InitMeterProvider bridges OpenTelemetry instruments into reg and installs
// the global MeterProvider. It returns the provider's shutdown function.
func InitMeterProvider(reg prometheus.Registerer, serviceName, serviceVersion string) (func(context.Context) error, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}

	return mp.Shutdown, nil
}

// MetricsHandler serves reg in the Prometheus text format. A failed gather
// is answered with 500.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// OrderMetrics holds the order service's business counters.
type OrderMetrics struct {
	processed *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "total_orders_processed",
		Help: "Total number of orders created in the system",
	}, []string{"status"})
	reg.MustRegister(processed)

	processed.WithLabelValues(OutcomeSuccess)
	processed.WithLabelValues(OutcomeFailure)

	return &OrderMetrics{processed: processed}
}

func (m *OrderMetrics) OrderSucceeded() {
	m.processed.WithLabelValues(OutcomeSuccess).Inc()
}

func (m *OrderMetrics) OrderFailed() {
	m.processed.WithLabelValues(OutcomeFailure).Inc()
}

// Processed exposes the counter vector for scraping assertions.
func (m *OrderMetrics) Processed() *prometheus.CounterVec {
	return m.processed
}
