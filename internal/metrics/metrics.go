// Package metrics exposes Prometheus counters for answers, credential sources
// and adapter attempts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unilife/qa-bot/internal"
	"github.com/unilife/qa-bot/internal/provider"
)

type Metrics struct {
	answers     *prometheus.CounterVec
	credentials *prometheus.CounterVec
	attempts    *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unilife_answers_total",
			Help: "Answers produced, by mode.",
		}, []string{"mode"}),
		credentials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unilife_credential_resolutions_total",
			Help: "Provider-mode credential resolutions, by source label.",
		}, []string{"source"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unilife_adapter_attempts_total",
			Help: "Provider adapter attempts, by adapter and outcome.",
		}, []string{"adapter", "outcome"}),
	}
	reg.MustRegister(m.answers, m.credentials, m.attempts)
	return m
}

func (m *Metrics) RecordAnswer(mode internal.Mode) {
	m.answers.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) RecordCredential(label string) {
	m.credentials.WithLabelValues(label).Inc()
}

func (m *Metrics) RecordAttempt(adapter string, outcome provider.Outcome) {
	m.attempts.WithLabelValues(adapter, outcome.String()).Inc()
}
