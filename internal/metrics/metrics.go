package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register and
// the helpers below no-op until that happens, so supervision never depends on
// metrics being enabled.
var (
	regOK atomic.Bool

	childStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcwrap",
			Subsystem: "service",
			Name:      "child_starts_total",
			Help:      "Number of successful child spawns.",
		}, []string{"service"},
	)
	childRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcwrap",
			Subsystem: "service",
			Name:      "child_restarts_total",
			Help:      "Number of restarts decided by the restart policy.",
		}, []string{"service"},
	)
	childExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcwrap",
			Subsystem: "service",
			Name:      "child_exits_total",
			Help:      "Number of observed child exits, by exit reason.",
		}, []string{"service", "reason"},
	)
	forcedKills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcwrap",
			Subsystem: "service",
			Name:      "forced_kills_total",
			Help:      "Number of stops that escalated to a forced tree kill.",
		}, []string{"service"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcwrap",
			Subsystem: "service",
			Name:      "state_transitions_total",
			Help:      "Number of lifecycle state transitions.",
		}, []string{"service", "from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "svcwrap",
			Subsystem: "service",
			Name:      "current_state",
			Help:      "Current lifecycle state (1 = active state, 0 = inactive).",
		}, []string{"service", "state"},
	)
)

// Register registers all collectors with the provided registerer. Safe to
// call multiple times; calls after the first success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{childStarts, childRestarts, childExits, forcedKills, stateTransitions, currentState}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving the default gatherer. The caller is
// responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(service string) {
	if regOK.Load() {
		childStarts.WithLabelValues(service).Inc()
	}
}

func IncRestart(service string) {
	if regOK.Load() {
		childRestarts.WithLabelValues(service).Inc()
	}
}

func IncExit(service, reason string) {
	if regOK.Load() {
		childExits.WithLabelValues(service, reason).Inc()
	}
}

func IncForcedKill(service string) {
	if regOK.Load() {
		forcedKills.WithLabelValues(service).Inc()
	}
}

// Transition records a state change and keeps the current_state gauge in
// sync: the target state is set to 1, the source to 0.
func Transition(service, from, to string) {
	if !regOK.Load() {
		return
	}
	stateTransitions.WithLabelValues(service, from, to).Inc()
	if from != to {
		currentState.WithLabelValues(service, from).Set(0)
	}
	currentState.WithLabelValues(service, to).Set(1)
}
