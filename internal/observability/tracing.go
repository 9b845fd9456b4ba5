package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for portal spans.
const TracerName = "healthcare-portal"

// Span attribute keys
const (
	AttrMeetingID  = "meeting_id"
	AttrSegmentID  = "segment_id"
	AttrSegmentSeq = "segment_seq"
	AttrProvider   = "provider"
	AttrTargetLang = "target_lang"
	AttrBytes      = "bytes"
	AttrStatusCode = "http.status_code"
)

// Span names
const (
	SpanTranslate  = "portal.translate"
	SpanTranscribe = "portal.transcribe"
	SpanArchive    = "portal.archive"
)

// Tracer wraps the global OpenTelemetry tracer.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider. Without an SDK
// registered the spans are no-ops.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// Start starts a span with the given attributes.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
