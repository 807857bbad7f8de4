package qnn

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qnn",
			Subsystem: "session",
			Name:      "phase_duration_seconds",
			Help:      "Duration of session lifecycle phases in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"phase", "outcome"},
	)

	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qnn",
			Subsystem: "session",
			Name:      "failures_total",
			Help:      "Total session failures by error kind and target",
		},
		[]string{"kind", "target"},
	)

	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qnn",
			Subsystem: "session",
			Name:      "executions_total",
			Help:      "Total graph executions",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(phaseDuration, failuresTotal, executionsTotal)
}

func observePhase(phase string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	phaseDuration.WithLabelValues(phase, outcome).Observe(elapsed.Seconds())
}

func countFailure(err error) {
	kind, target, ok := KindOf(err)
	if !ok {
		return
	}
	t := string(target)
	if t == "" {
		t = "none"
	}
	failuresTotal.WithLabelValues(kind.String(), t).Inc()
}
