// Package metrics exposes Prometheus instrumentation for coaching sessions.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
	"github.com/MikeSquared-Agency/coach/internal/inference"
)

type Metrics struct {
	events            *prometheus.CounterVec
	rolledBackTurns   prometheus.Counter
	inferenceTotal    *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
}

// New registers the session metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_session_events_total",
			Help: "Session events emitted, by event type.",
		}, []string{"type"}),
		rolledBackTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_rolled_back_turns_total",
			Help: "Transcript turns removed by rollbacks.",
		}),
		inferenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_inference_requests_total",
			Help: "Inference calls by result.",
		}, []string{"result"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coach_inference_duration_seconds",
			Help:    "Inference call latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		}),
	}
	reg.MustRegister(m.events, m.rolledBackTurns, m.inferenceTotal, m.inferenceDuration)
	return m
}

// OnEvent counts session events.
func (m *Metrics) OnEvent(_ context.Context, e dialogue.Event) {
	m.events.WithLabelValues(string(e.Type)).Inc()
	if e.Type == dialogue.EventTurnRolledBack {
		m.rolledBackTurns.Add(float64(e.Removed))
	}
}

// RegisterSessionGauge reports the number of live sessions from fn.
func RegisterSessionGauge(reg prometheus.Registerer, fn func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "coach_live_sessions",
		Help: "Sessions currently held in memory.",
	}, func() float64 { return float64(fn()) }))
}

// Instrument wraps c so every call is timed and counted.
func (m *Metrics) Instrument(c dialogue.Completer) dialogue.Completer {
	return &instrumented{next: c, m: m}
}

type instrumented struct {
	next dialogue.Completer
	m    *Metrics
}

func (i *instrumented) Complete(ctx context.Context, prompt, credential string) (string, error) {
	start := time.Now()
	raw, err := i.next.Complete(ctx, prompt, credential)
	i.m.inferenceDuration.Observe(time.Since(start).Seconds())
	i.m.inferenceTotal.WithLabelValues(resultLabel(err)).Inc()
	return raw, err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, inference.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, inference.ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, inference.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
