// Package metrics expõe coletores Prometheus do envio de documentos.
package metrics

import (
	"context"
	"sync"

	"document-gateway/client/documents/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "documents"

// Registry recebe todos os coletores deste pacote.
var Registry = prometheus.NewRegistry()

var (
	submitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "submit_total",
			Help:      "Count of document submissions by outcome.",
		},
		[]string{"outcome"},
	)
	admissionWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "admission_wait_seconds",
			Help:      "Time spent waiting for an admission permit.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
	submitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "submit_duration_seconds",
			Help:      "End-to-end submission latency, admission wait included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
)

var registerMetrics sync.Once

// Register registra os coletores de submissão em Registry.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(submitCounter)
		Registry.MustRegister(admissionWait)
		Registry.MustRegister(submitDuration)
	})
}

// Recorder alimenta os coletores a partir de eventos de estatística.
// Implementa domain.StatsStore e nunca falha.
type Recorder struct{}

var _ domain.StatsStore = Recorder{}

func (Recorder) Record(_ context.Context, ev domain.StatsEvent) error {
	submitCounter.WithLabelValues(string(ev.Outcome)).Inc()
	if ev.Outcome != domain.OutcomeCancelled && ev.Outcome != domain.OutcomeClosed {
		admissionWait.Observe(ev.Wait.Seconds())
	}
	submitDuration.Observe(ev.Took.Seconds())
	return nil
}

// Pool é o que os gauges de admissão leem.
type Pool interface {
	Available() int
	Waiting() int
	Limit() int
}

// NewPoolCollectors cria gauges que leem o estado do pool a cada coleta.
func NewPoolCollectors(pool Pool) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "permits_available",
			Help:      "Admission permits available without waiting.",
		}, func() float64 { return float64(pool.Available()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "admission_waiting",
			Help:      "Callers blocked waiting for an admission permit.",
		}, func() float64 { return float64(pool.Waiting()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "request_limit",
			Help:      "Configured admissions per window.",
		}, func() float64 { return float64(pool.Limit()) }),
	}
}

// RegisterPool registra os gauges do pool em Registry e devolve a função que
// os remove. Só um pool por vez pode estar registrado.
func RegisterPool(pool Pool) (unregister func(), err error) {
	var registered []prometheus.Collector
	unregister = func() {
		for _, c := range registered {
			Registry.Unregister(c)
		}
	}
	for _, c := range NewPoolCollectors(pool) {
		if err := Registry.Register(c); err != nil {
			unregister()
			return nil, err
		}
		registered = append(registered, c)
	}
	return unregister, nil
}
