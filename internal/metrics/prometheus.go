package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Recorder with lazily registered collectors.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	decisions *prometheus.CounterVec
	retries   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus recorder. A nil registerer means
// prometheus.DefaultRegisterer and an empty namespace means "capacity".
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "capacity"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Capacity guard outcomes by operation (create,update,propose).",
		}, []string{"op", "outcome"})

		p.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "guard",
			Name:      "version_conflict_retries_total",
			Help:      "Re-validations triggered by allocation version conflicts.",
		}, []string{"op"})

		p.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "guard",
			Name:      "latency_seconds",
			Help:      "Latency of check-and-commit sequences in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"op"})

		p.reg.MustRegister(p.decisions)
		p.reg.MustRegister(p.retries)
		p.reg.MustRegister(p.latency)
	})
}

func (p *Prometheus) GuardDecision(op, outcome string) {
	p.ensureRegistered()
	p.decisions.WithLabelValues(op, outcome).Inc()
}

func (p *Prometheus) GuardRetry(op string) {
	p.ensureRegistered()
	p.retries.WithLabelValues(op).Inc()
}

func (p *Prometheus) GuardLatency(op string, d time.Duration) {
	p.ensureRegistered()
	p.latency.WithLabelValues(op).Observe(d.Seconds())
}
