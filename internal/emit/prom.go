package emit

import (
	"context"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/metrics"
)

// PromEmitter feeds RunEvents into the Prometheus collectors in
// internal/metrics. It carries no state of its own — all state lives in
// the registered collectors — so it is safe to construct one per Run or
// share a single instance.
type PromEmitter struct {
	m *metrics.Metrics
}

// NewPromEmitter builds a PromEmitter over an already-registered Metrics.
func NewPromEmitter(m *metrics.Metrics) *PromEmitter {
	return &PromEmitter{m: m}
}

func (p *PromEmitter) Emit(event domain.RunEvent) {
	switch event.Kind {
	case domain.EventWorkerStarted:
		p.m.InflightWorkers.Inc()
	case domain.EventWorkerCompleted:
		p.m.InflightWorkers.Dec()
		status := string(event.Status)
		if status == "" {
			status = string(domain.StatusOK)
		}
		p.m.WorkerLatencyMS.WithLabelValues(string(event.WorkerID), status).Observe(float64(event.DurationMS))
		if event.Status == domain.StatusError {
			p.m.WorkerErrorsTotal.WithLabelValues(string(event.WorkerID), event.ErrorKind).Inc()
		}
	case domain.EventReflection:
		if event.Reflection != nil {
			p.m.ReflectionConf.Observe(event.Reflection.Confidence)
			for _, w := range event.Reflection.Rerun {
				p.m.RerunsTotal.WithLabelValues(string(w)).Inc()
			}
		}
	case domain.EventError:
		// worker failures are counted via worker_completed above; top-level
		// run errors are not counted by this emitter, and it does not
		// update RunsTotal.
	}
}

func (p *PromEmitter) EmitBatch(_ context.Context, events []domain.RunEvent) error {
	for _, e := range events {
		p.Emit(e)
	}
	return nil
}

func (p *PromEmitter) Flush(context.Context) error { return nil }
