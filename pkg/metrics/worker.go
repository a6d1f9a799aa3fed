package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkerMetrics tracks background batch workers.
type WorkerMetrics struct {
	processed    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker counters on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer, namespace string) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_processed_total",
		Help:      "Items handled successfully by background workers.",
	}, []string{"worker"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_failed_total",
		Help:      "Items that failed and will be retried.",
	}, []string{"worker"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_dead_lettered_total",
		Help:      "Items moved to a dead letter state.",
	}, []string{"worker"})
	reg.MustRegister(processed, failed, deadLettered)
	return &WorkerMetrics{
		processed:    processed,
		failed:       failed,
		deadLettered: deadLettered,
	}
}

func (w *WorkerMetrics) IncProcessed(worker string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(worker)).Inc()
}

func (w *WorkerMetrics) IncFailed(worker string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(worker)).Inc()
}

func (w *WorkerMetrics) IncDeadLettered(worker string) {
	if w == nil || w.deadLettered == nil {
		return
	}
	w.deadLettered.WithLabelValues(normalizeLabel(worker)).Inc()
}
