package core

import (
	"context"
	"errors"
	"time"

	"clientcore/pkg/domain"
)

// Outcome classifies how a service operation ended.
type Outcome string

// Operation outcomes reported to metrics recorders and tracers.
const (
	OutcomeSuccess    Outcome = "success"
	OutcomeRejected   Outcome = "rejected"
	OutcomeStoreError Outcome = "store_error"
	OutcomeError      Outcome = "error"
)

// ClassifyOutcome maps an operation error onto an Outcome.
func ClassifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case domain.IsStoreError(err):
		return OutcomeStoreError
	case errors.As(err, new(domain.Rejection)):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, outcome Outcome, duration time.Duration)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation's outcome.
type TraceSpan interface {
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, Outcome, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
