package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
)

const (
	// TracerName is the name of the tracer for backend operations.
	TracerName = "msum/client"
)

// Span attribute keys
const (
	AttrOperation = "msum.operation"
	AttrMethod    = "http.request.method"
	AttrRoute     = "http.route"
	AttrMeetingID = "msum.meeting_id"
	AttrErrorCode = "msum.error_code"
	AttrRetryable = "msum.retryable"
)

// Tracer wraps the otel tracer used for backend calls.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartRequestSpan starts a client span named after the backend operation.
func (t *Tracer) StartRequestSpan(ctx context.Context, op, method, route string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrOperation, op),
			attribute.String(AttrMethod, method),
			attribute.String(AttrRoute, route),
		),
	)
}

// RecordFailure marks span as failed with the classified error code.
func (t *Tracer) RecordFailure(span trace.Span, err error) {
	if err == nil {
		return
	}
	code := mserrors.Classify(err)
	span.SetAttributes(
		attribute.String(AttrErrorCode, string(code)),
		attribute.Bool(AttrRetryable, mserrors.IsRetryable(code)),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
