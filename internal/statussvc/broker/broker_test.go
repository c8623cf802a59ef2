package broker

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradakit/kiosk-services/internal/comm"
	"github.com/entradakit/kiosk-services/internal/statussvc/ws"
)

func decisionMsg(t *testing.T, uuid string) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(comm.DecisionEvent{
		EntranceLogUUID: uuid,
		CustomerUUID:    "u1",
		Direction:       "A",
		Decision:        "UserExists",
	})
	require.NoError(t, err)
	return &nats.Msg{Subject: comm.SubjectDecision, Data: data}
}

func TestRecentNewestFirst(t *testing.T) {
	b := NewBroker(nil, ws.NewWs())

	b.handleDecision(decisionMsg(t, "first"))
	b.handleDecision(decisionMsg(t, "second"))
	b.handleDecision(decisionMsg(t, "third"))

	recent := b.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "third", recent[0].EntranceLogUUID)
	assert.Equal(t, "first", recent[2].EntranceLogUUID)
}

func TestRecentIsCapped(t *testing.T) {
	b := NewBroker(nil, ws.NewWs())

	for i := 0; i < recentCapacity+10; i++ {
		b.handleDecision(decisionMsg(t, fmt.Sprintf("ev-%d", i)))
	}

	recent := b.Recent()
	require.Len(t, recent, recentCapacity)
	// oldest entries fell off the front
	assert.Equal(t, fmt.Sprintf("ev-%d", recentCapacity+9), recent[0].EntranceLogUUID)
	assert.Equal(t, "ev-10", recent[len(recent)-1].EntranceLogUUID)
}

func heartbeatMsg(t *testing.T, id string) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(comm.ServiceHeartbeat{ID: id, Timestamp: time.Now()})
	require.NoError(t, err)
	return &nats.Msg{Subject: comm.SubjectServiceHeartbeat, Data: data}
}

func TestServicesTracksLatestHeartbeat(t *testing.T) {
	b := NewBroker(nil, ws.NewWs())

	b.handleServiceHeartbeat(heartbeatMsg(t, "kiosk_A"))
	b.handleServiceHeartbeat(heartbeatMsg(t, "kiosk_B"))
	b.handleServiceHeartbeat(heartbeatMsg(t, "kiosk_A"))

	services := b.Services()
	require.Len(t, services, 2)
	assert.Contains(t, services, "kiosk_A")
	assert.Contains(t, services, "kiosk_B")
}

func TestServicesShutdownRetractsPresence(t *testing.T) {
	b := NewBroker(nil, ws.NewWs())
	b.handleServiceHeartbeat(heartbeatMsg(t, "kiosk_A"))

	data, err := json.Marshal(comm.ServiceShutdown{ID: "kiosk_A"})
	require.NoError(t, err)
	b.handleServiceShutdown(&nats.Msg{Subject: comm.SubjectServiceShutdown, Data: data})

	assert.Empty(t, b.Services())
}

func TestServicesIgnoresAnonymousHeartbeat(t *testing.T) {
	b := NewBroker(nil, ws.NewWs())

	b.handleServiceHeartbeat(&nats.Msg{Subject: comm.SubjectServiceHeartbeat, Data: []byte(`{}`)})
	b.handleServiceHeartbeat(&nats.Msg{Subject: comm.SubjectServiceHeartbeat, Data: []byte("not json")})

	assert.Empty(t, b.Services())
}

func TestRecentIgnoresMalformedMessage(t *testing.T) {
	b := NewBroker(nil, ws.NewWs())

	b.handleDecision(&nats.Msg{Subject: comm.SubjectDecision, Data: []byte("not json")})

	assert.Empty(t, b.Recent())
}
