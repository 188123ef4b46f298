package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gym_buddy"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// AuthEvents counts signup/login/logout attempts by event and result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Identity operations by event and result.",
	}, []string{"event", "result"})

	// ProfileWrites counts profile put/patch requests.
	ProfileWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_writes_total",
		Help:      "Profile writes by kind and result.",
	}, []string{"kind", "result"})

	BuddyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "buddy_operations_total",
		Help:      "Buddy request operations by operation and result.",
	}, []string{"operation", "result"})

	PushConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "push_connections",
		Help:      "Open WebSocket push connections.",
	})

	PushedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pushed_events_total",
		Help:      "Events written to push connections by type.",
	}, []string{"type"})
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
