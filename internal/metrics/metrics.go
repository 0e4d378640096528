// Package metrics declares the Prometheus metrics for the signaling server.
//
// Naming convention: namespace_subsystem_name
//   - namespace: signaling (application-level grouping)
//   - subsystem: connection, room, event, admin, codegen (feature-level grouping)
//   - name: the specific metric (connections_active, events_total, etc.)
//
// Metric Types:
//   - Gauge: current state (connections, rooms, participants)
//   - Counter: cumulative events (messages processed, admin actions)
//   - Histogram: distributions (event processing time, code-generation attempts)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks the current number of open transport connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signaling",
		Subsystem: "connection",
		Name:      "connections_active",
		Help:      "Current number of active transport connections",
	})

	// ActiveRooms tracks the current number of non-empty rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signaling",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomMembers tracks the member count of each room.
	RoomMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "signaling",
		Subsystem: "room",
		Name:      "members_count",
		Help:      "Number of members in each room",
	}, []string{"room_id"})

	// EventsTotal tracks inbound events processed by the dispatcher.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signaling",
		Subsystem: "event",
		Name:      "events_total",
		Help:      "Total inbound events processed",
	}, []string{"event_type", "status"})

	// EventProcessingDuration tracks the time spent dispatching one inbound event.
	EventProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signaling",
		Subsystem: "event",
		Name:      "processing_duration_seconds",
		Help:      "Time spent processing an inbound event",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event_type"})

	// AdminActionsTotal tracks moderation actions by command and outcome.
	AdminActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signaling",
		Subsystem: "admin",
		Name:      "actions_total",
		Help:      "Total admin_action commands processed",
	}, []string{"command", "status"})

	// ConnectionsClosedOverflow tracks connections closed for send-queue overflow.
	ConnectionsClosedOverflow = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "signaling",
		Subsystem: "connection",
		Name:      "closed_overflow_total",
		Help:      "Total connections closed because their outbound queue overflowed",
	})

	// CodeGenerationAttempts tracks attempts spent by the Code Generator per call.
	CodeGenerationAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "signaling",
		Subsystem: "codegen",
		Name:      "attempts",
		Help:      "Number of attempts the code generator needed to find a unique code",
		Buckets:   []float64{1, 2, 3, 5, 10, 25, 50},
	})
)

// IncConnection records a new active transport connection.
func IncConnection() {
	ActiveConnections.Inc()
}

// DecConnection records a closed transport connection.
func DecConnection() {
	ActiveConnections.Dec()
}
