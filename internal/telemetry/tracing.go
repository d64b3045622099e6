// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer(scope)

// StartClientSpan starts a span for a request sent to a service.
func StartClientSpan(ctx context.Context, action, to string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pubsub.client."+action,
		trace.WithAttributes(
			attribute.String("pubsub.action", action),
			attribute.String("pubsub.service", to),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartServiceSpan starts a span for a request handled by a service.
func StartServiceSpan(ctx context.Context, action, from, node string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pubsub.service."+action,
		trace.WithAttributes(
			attribute.String("pubsub.action", action),
			attribute.String("pubsub.requestor", from),
			attribute.String("pubsub.node", node),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// EndSpan completes a span, recording err if it is not nil.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
