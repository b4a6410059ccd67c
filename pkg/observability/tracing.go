package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/composable/pkg/domain"
)

// TracingOption configures NewTracing.
type TracingOption func(*Tracing)

// WithTracerProvider sets the provider spans are created from.
// Default: the global otel provider.
func WithTracerProvider(provider trace.TracerProvider) TracingOption {
	return func(t *Tracing) {
		t.provider = provider
	}
}

// WithTracerName sets the instrumentation name of the tracer.
func WithTracerName(name string) TracingOption {
	return func(t *Tracing) {
		t.name = name
	}
}

// Tracing turns lifecycle events into OpenTelemetry spans: one short span per
// reduced action and one span per effect execution, from start to its
// terminal event.
type Tracing struct {
	provider trace.TracerProvider
	name     string
	tracer   trace.Tracer

	mu   sync.Mutex
	open map[string]trace.Span
}

// NewTracing creates the span hooks.
func NewTracing(opts ...TracingOption) *Tracing {
	t := &Tracing{
		name: "github.com/aretw0/composable",
		open: make(map[string]trace.Span),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.provider == nil {
		t.provider = otel.GetTracerProvider()
	}
	t.tracer = t.provider.Tracer(t.name)
	return t
}

// Open returns the number of effect spans not ended yet.
func (t *Tracing) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Hooks returns the lifecycle hooks feeding t.
func (t *Tracing) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			_, span := t.tracer.Start(ctx, "composable.reduce",
				trace.WithTimestamp(e.Timestamp.Add(-e.Duration)),
				trace.WithAttributes(
					attribute.String("composable.store_id", e.StoreID),
					attribute.String("composable.action", e.Name),
				))
			span.End(trace.WithTimestamp(e.Timestamp))
		},
		OnEffectStart: func(ctx context.Context, e *domain.EffectEvent) {
			attrs := []attribute.KeyValue{
				attribute.String("composable.store_id", e.StoreID),
				attribute.Int64("composable.effect.seq", int64(e.Seq)),
			}
			if e.ID != "" {
				attrs = append(attrs, attribute.String("composable.effect.id", e.ID))
			}
			if e.Scope != "" {
				attrs = append(attrs, attribute.String("composable.effect.scope", e.Scope))
			}
			_, span := t.tracer.Start(ctx, "composable.effect",
				trace.WithTimestamp(e.Timestamp),
				trace.WithAttributes(attrs...))

			t.mu.Lock()
			t.open[spanKey(e)] = span
			t.mu.Unlock()
		},
		OnEffectFinish: func(_ context.Context, e *domain.EffectEvent) {
			t.end(OutcomeFinished, e)
		},
		OnEffectCancel: func(_ context.Context, e *domain.EffectEvent) {
			t.end(OutcomeCancelled, e)
		},
		OnEffectFailure: func(_ context.Context, e *domain.EffectEvent) {
			t.end(OutcomeFailed, e)
		},
	}
}

func (t *Tracing) end(outcome string, e *domain.EffectEvent) {
	key := spanKey(e)
	t.mu.Lock()
	span, ok := t.open[key]
	delete(t.open, key)
	t.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(attribute.String("composable.effect.outcome", outcome))
	switch {
	case outcome == OutcomeFailed && e.Err != nil:
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	case outcome == OutcomeCancelled:
	case e.Err != nil:
		// Caught: the declared action was sent instead.
		span.RecordError(e.Err)
		span.SetStatus(codes.Ok, "caught")
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.Timestamp))
}

func spanKey(e *domain.EffectEvent) string {
	return fmt.Sprintf("%s/%d", e.StoreID, e.Seq)
}
