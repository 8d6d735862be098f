package emit

import (
	"context"
	"fmt"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each RunEvent into a point-in-time OpenTelemetry span,
// so a trace backend can show worker fan-out, synthesis, and reflection
// as spans on the Run's timeline alongside the Prometheus histograms in
// internal/metrics.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter builds an OTelEmitter over the given tracer, e.g.
// otel.Tracer("hawkai").
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event domain.RunEvent) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, string(event.Kind))
	defer span.End()
	o.annotate(span, event)
}

func (o *OTelEmitter) EmitBatch(ctx context.Context, events []domain.RunEvent) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, string(event.Kind))
		o.annotate(span, event)
		span.End()
	}
	return nil
}

// Flush force-flushes the global tracer provider, if it supports it.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) annotate(span trace.Span, event domain.RunEvent) {
	span.SetAttributes(
		attribute.String("hawkai.run_id", event.RunID),
		attribute.String("hawkai.kind", string(event.Kind)),
	)
	if event.WorkerID != "" {
		span.SetAttributes(attribute.String("hawkai.worker_id", string(event.WorkerID)))
	}
	if event.PhaseName != "" {
		span.SetAttributes(attribute.String("hawkai.phase", event.PhaseName))
	}
	if event.Reflection != nil {
		span.SetAttributes(attribute.Float64("hawkai.reflection.confidence", event.Reflection.Confidence))
	}
	if event.ErrorKind != "" {
		span.SetStatus(codes.Error, event.ErrorMessage)
		span.RecordError(fmt.Errorf("%s: %s", event.ErrorKind, event.ErrorMessage))
	}
}
