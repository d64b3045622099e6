// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package telemetry records metrics and traces for the client and service
// roles using OpenTelemetry.
//
// Both use the global OpenTelemetry providers.
// Configure them before constructing a client or service:
//
//	otel.SetMeterProvider(yourMeterProvider)
//	otel.SetTracerProvider(yourTracerProvider)
package telemetry // import "mellium.im/pubsub/internal/telemetry"

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scope = "mellium.im/pubsub"

// Metrics records pubsub metrics.
// Use NewMetrics for OpenTelemetry metrics or Noop when disabled.
type Metrics interface {
	// ClientRequest records a completed client request.
	// If the request failed, cond is the name of the failure condition.
	ClientRequest(ctx context.Context, action, cond string, d time.Duration)

	// ClientPending adjusts the number of outstanding client requests.
	ClientPending(ctx context.Context, delta int64)

	// ClientAnomaly records an unexpected stanza such as a late or unsolicited
	// response.
	ClientAnomaly(ctx context.Context, kind string)

	// ServiceRequest records a request answered by the service.
	ServiceRequest(ctx context.Context, action, cond string, d time.Duration)

	// Event records a notification sent or received.
	Event(ctx context.Context, kind string)
}

type otelMetrics struct {
	clientRequests  metric.Int64Counter
	clientLatency   metric.Float64Histogram
	clientPending   metric.Int64UpDownCounter
	clientAnomalies metric.Int64Counter
	serviceRequests metric.Int64Counter
	serviceLatency  metric.Float64Histogram
	events          metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(scope)
	m := &otelMetrics{}
	var err error

	m.clientRequests, err = meter.Int64Counter("pubsub.client.requests",
		metric.WithDescription("Number of completed client requests"),
	)
	if err != nil {
		return nil, err
	}
	m.clientLatency, err = meter.Float64Histogram("pubsub.client.latency_ms",
		metric.WithDescription("Client request round trip time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	m.clientPending, err = meter.Int64UpDownCounter("pubsub.client.pending",
		metric.WithDescription("Number of outstanding client requests"),
	)
	if err != nil {
		return nil, err
	}
	m.clientAnomalies, err = meter.Int64Counter("pubsub.client.anomalies",
		metric.WithDescription("Number of late, unsolicited, or malformed responses"),
	)
	if err != nil {
		return nil, err
	}
	m.serviceRequests, err = meter.Int64Counter("pubsub.service.requests",
		metric.WithDescription("Number of requests answered by the service"),
	)
	if err != nil {
		return nil, err
	}
	m.serviceLatency, err = meter.Float64Histogram("pubsub.service.latency_ms",
		metric.WithDescription("Service request handling time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	m.events, err = meter.Int64Counter("pubsub.events",
		metric.WithDescription("Number of notifications sent or received"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetrics returns Metrics that use OpenTelemetry.
// If the instruments cannot be created the failure is logged to log and a
// no-op implementation is returned.
// A nil log discards the message.
func NewMetrics(log *slog.Logger) Metrics {
	m, err := getDefaultMetrics()
	return orNoop(log, m, err)
}

func orNoop(log *slog.Logger, m Metrics, err error) Metrics {
	if err == nil {
		return m
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log.Warn("pubsub metrics initialization failed, using no-op metrics",
		slog.String("error", err.Error()))
	return Noop{}
}

func resultAttrs(action, cond string) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("action", action),
		attribute.Bool("success", cond == ""),
	}
	if cond != "" {
		attrs = append(attrs, attribute.String("condition", cond))
	}
	return metric.WithAttributes(attrs...)
}

func (m *otelMetrics) ClientRequest(ctx context.Context, action, cond string, d time.Duration) {
	opt := resultAttrs(action, cond)
	m.clientRequests.Add(ctx, 1, opt)
	m.clientLatency.Record(ctx, float64(d.Milliseconds()), opt)
}

func (m *otelMetrics) ClientPending(ctx context.Context, delta int64) {
	m.clientPending.Add(ctx, delta)
}

func (m *otelMetrics) ClientAnomaly(ctx context.Context, kind string) {
	m.clientAnomalies.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *otelMetrics) ServiceRequest(ctx context.Context, action, cond string, d time.Duration) {
	opt := resultAttrs(action, cond)
	m.serviceRequests.Add(ctx, 1, opt)
	m.serviceLatency.Record(ctx, float64(d.Milliseconds()), opt)
}

func (m *otelMetrics) Event(ctx context.Context, kind string) {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
