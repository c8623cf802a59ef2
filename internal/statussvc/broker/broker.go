package broker

import (
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/comm"
	"github.com/entradakit/kiosk-services/internal/statussvc/ws"
)

const recentCapacity = 50

// Broker subscribes to the kiosk subjects and fans events out to websocket
// clients, keeping a short in-memory tail for the REST surface.
type Broker struct {
	Conn *nats.Conn
	Ws   *ws.Ws

	mu       sync.Mutex
	recent   []comm.DecisionEvent
	services map[string]comm.ServiceHeartbeat
}

func NewBroker(nc *nats.Conn, sock *ws.Ws) *Broker {
	return &Broker{Conn: nc, Ws: sock, services: make(map[string]comm.ServiceHeartbeat)}
}

// Subscribe attaches to the kiosk subjects. Returned subscriptions are
// unsubscribed by the caller on shutdown.
func (b *Broker) Subscribe() ([]*nats.Subscription, error) {
	subjects := []struct {
		subject string
		handler nats.MsgHandler
	}{
		{comm.SubjectDecision, b.handleDecision},
		{comm.SubjectScanSignal, b.handleScanSignal},
		{comm.SubjectServiceHeartbeat, b.handleServiceHeartbeat},
		{comm.SubjectServiceShutdown, b.handleServiceShutdown},
	}

	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, s := range subjects {
		sub, err := b.Conn.Subscribe(s.subject, s.handler)
		if err != nil {
			for _, prev := range subs {
				prev.Unsubscribe()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Recent returns the newest-first tail of decisions seen by this instance.
func (b *Broker) Recent() []comm.DecisionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]comm.DecisionEvent, len(b.recent))
	for i, ev := range b.recent {
		out[len(b.recent)-1-i] = ev
	}
	return out
}

func (b *Broker) handleDecision(msg *nats.Msg) {
	var event comm.DecisionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	b.mu.Lock()
	b.recent = append(b.recent, event)
	if len(b.recent) > recentCapacity {
		b.recent = b.recent[len(b.recent)-recentCapacity:]
	}
	b.mu.Unlock()

	b.Ws.Broadcast(&comm.WSMessage{Type: "decision", Data: msg.Data})
}

func (b *Broker) handleScanSignal(msg *nats.Msg) {
	// not retained, diagnostics clients only care about it live
	b.Ws.Broadcast(&comm.WSMessage{Type: "scan_signal", Data: msg.Data})
}

// Services returns the latest heartbeat per live service instance.
func (b *Broker) Services() map[string]comm.ServiceHeartbeat {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]comm.ServiceHeartbeat, len(b.services))
	for id, hb := range b.services {
		out[id] = hb
	}
	return out
}

func (b *Broker) handleServiceHeartbeat(msg *nats.Msg) {
	var hb comm.ServiceHeartbeat
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}
	if hb.ID == "" {
		return
	}

	b.mu.Lock()
	b.services[hb.ID] = hb
	b.mu.Unlock()
}

func (b *Broker) handleServiceShutdown(msg *nats.Msg) {
	var sd comm.ServiceShutdown
	if err := json.Unmarshal(msg.Data, &sd); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	b.mu.Lock()
	delete(b.services, sd.ID)
	b.mu.Unlock()

	b.Ws.Broadcast(&comm.WSMessage{Type: "service_shutdown", Data: msg.Data})
}
