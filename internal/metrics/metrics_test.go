package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEventsTotal(t *testing.T) {
	EventsTotal.WithLabelValues("join_room", "success").Inc()
	val := testutil.ToFloat64(EventsTotal.WithLabelValues("join_room", "success"))
	assert.GreaterOrEqual(t, val, float64(1))
}

func TestAdminActionsTotal(t *testing.T) {
	AdminActionsTotal.WithLabelValues("kick", "applied").Inc()
	val := testutil.ToFloat64(AdminActionsTotal.WithLabelValues("kick", "applied"))
	assert.GreaterOrEqual(t, val, float64(1))
}

func TestConnectionGauges(t *testing.T) {
	before := testutil.ToFloat64(ActiveConnections)
	IncConnection()
	assert.Equal(t, before+1, testutil.ToFloat64(ActiveConnections))
	DecConnection()
	assert.Equal(t, before, testutil.ToFloat64(ActiveConnections))
}

func TestRoomMembersGauge(t *testing.T) {
	RoomMembers.WithLabelValues("room-x").Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(RoomMembers.WithLabelValues("room-x")))
}

func TestEventProcessingDurationNoPanic(t *testing.T) {
	EventProcessingDuration.WithLabelValues("chat_message").Observe(0.01)
}

func TestCodeGenerationAttemptsNoPanic(t *testing.T) {
	CodeGenerationAttempts.Observe(2)
}
