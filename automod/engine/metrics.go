package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "warden_event_duration_sec",
	Help: "Total duration of automod message processing",
})

var eventProcessCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_event_processed",
	Help: "Number of message events processed",
})

var eventErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_event_errors",
	Help: "Number of message events which failed processing",
})

var eventExemptCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_event_exempt",
	Help: "Number of message events short-circuited by exemption",
})

var eventCooldownCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_event_cooldown_skipped",
	Help: "Number of message events skipped due to author cooldown",
})

var violationDetectedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_violations_detected",
	Help: "Number of violations detected, by kind",
}, []string{"kind"})

var actionIssuedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_actions_issued",
	Help: "Number of punishment actions issued, by kind",
}, []string{"kind"})

var ledgerErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_ledger_errors",
	Help: "Number of failed violation ledger writes",
})

var quotaTrippedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_action_quota_tripped",
	Help: "Number of actions downgraded by the daily quota circuit breaker",
}, []string{"kind"})

var dispatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_transport_dispatches",
	Help: "Number of transport commands dispatched, by kind and outcome",
}, []string{"kind", "outcome"})

var windowEvictionCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_window_evictions",
	Help: "Number of idle activity records evicted by the sweeper",
})

// Exposed so service wiring can report sweep results from the window
// tracker's background task.
func ObserveWindowEvictions(n int) {
	windowEvictionCount.Add(float64(n))
}
