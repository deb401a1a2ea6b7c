package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests         metric.Int64Counter
	HTTPDuration         metric.Float64Histogram
	StorageErrors        metric.Int64Counter
	NotificationsSent    metric.Int64Counter
	NotificationFailures metric.Int64Counter
	ActiveSessions       metric.Int64UpDownCounter
}

func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"blog_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"blog_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StorageErrors, err = meter.Int64Counter(
		"blog_storage_errors_total",
		metric.WithDescription("Total number of storage failures"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotificationsSent, err = meter.Int64Counter(
		"blog_notifications_sent_total",
		metric.WithDescription("Total number of notifications delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotificationFailures, err = meter.Int64Counter(
		"blog_notification_failures_total",
		metric.WithDescription("Total number of notifications that failed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ActiveSessions, err = meter.Int64UpDownCounter(
		"blog_active_sessions",
		metric.WithDescription("Number of live login sessions"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.Handler()
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordStorageError(ctx context.Context, op string) {
	m.StorageErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) RecordNotification(ctx context.Context, channel string, ok bool) {
	labels := metric.WithAttributes(attribute.String("channel", channel))
	if ok {
		m.NotificationsSent.Add(ctx, 1, labels)
	} else {
		m.NotificationFailures.Add(ctx, 1, labels)
	}
}

func (m *Metrics) SessionOpened(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) SessionClosed(ctx context.Context) {
	m.ActiveSessions.Add(ctx, -1)
}
