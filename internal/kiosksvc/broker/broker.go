package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/comm"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/bridge"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/config"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/device"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/service"
)

type decider interface {
	Decide(ctx context.Context, ev models.ScanEvent) service.Result
}

type submitter interface {
	Submit(ctx context.Context, rec models.EntranceLogRecord) bool
}

// Broker drains decoded scan events and drives decision, actuation and
// reporting for one entrance direction. The buffered channel replaces the
// polled list of earlier revisions; actuation runs on the relay worker so
// intake resumes immediately after a grant.
type Broker struct {
	cfg      *config.KioskConfig
	access   decider
	reporter submitter
	display  device.Display
	relay    device.Relay
	camera   *bridge.CameraBridge
	nc       *nats.Conn

	// Events receives decoded scans from the device readers.
	Events chan models.ScanEvent
}

func NewBroker(cfg *config.KioskConfig, access decider, reporter submitter,
	display device.Display, relay device.Relay, camera *bridge.CameraBridge, nc *nats.Conn) *Broker {
	return &Broker{
		cfg:      cfg,
		access:   access,
		reporter: reporter,
		display:  display,
		relay:    relay,
		camera:   camera,
		nc:       nc,
		Events:   make(chan models.ScanEvent, 16),
	}
}

// Run blocks until the context is cancelled.
func (b *Broker) Run(ctx context.Context) {
	b.display.Show("Escanea", "codigo QR", 0)

	for {
		select {
		case <-ctx.Done():
			b.display.Clear()
			return
		case ev := <-b.Events:
			b.handle(ctx, ev)
		}
	}
}

func (b *Broker) handle(ctx context.Context, ev models.ScanEvent) {
	log.Infof("received scan from %s: %s", ev.Source, ev.Identifier)
	b.display.Show("Verificando", "QR...", 0)

	res := b.access.Decide(ctx, ev)
	b.publishDecision(res)

	if res.Decision.Granted() {
		b.admit(res)
	} else {
		b.reject(res)
	}
	b.display.Show("Escanea", "codigo QR", 0)

	if res.Decision.Granted() {
		// the door is already open, the log must not delay the next scan
		go b.reporter.Submit(context.WithoutCancel(ctx), res.Record)
	} else {
		b.reporter.Submit(ctx, res.Record)
	}
}

func (b *Broker) admit(res service.Result) {
	log.Infof("Hola %s", res.FirstName)
	b.relay.Pulse(b.cfg.RelayToggleDuration, b.cfg.OpenNTimes)
	if b.camera != nil {
		b.camera.SignalRecording(res.Record.UUID, time.Now())
	}
	b.display.Show("Hola", res.FirstName, 2*time.Second)
}

func (b *Broker) reject(res service.Result) {
	switch res.Decision {
	case models.TimestampExpired:
		b.display.Show("Error", "QR vencido", 2*time.Second)
	case models.MembershipInactive:
		b.display.Show("Membresia", "inactiva", 2*time.Second)
	case models.UserDoesNotExist:
		b.display.Show("Usuario", "no existe", 2*time.Second)
	case models.OutsideSchedule:
		b.display.Show("Fuera de", "horario", 2*time.Second)
	default:
		b.display.Show("Error", "Intenta de nuevo", 2*time.Second)
	}
}

func (b *Broker) publishDecision(res service.Result) {
	if b.nc == nil {
		return
	}

	source := "remote"
	if res.FromCache {
		source = "cache"
	}
	event := comm.DecisionEvent{
		EntranceLogUUID: res.Record.UUID,
		CustomerUUID:    res.Record.CustomerUUID,
		Direction:       b.cfg.Direction,
		Decision:        string(res.Decision),
		Source:          source,
		Timestamp:       time.Now().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("marshal decision event: %s", err)
		return
	}
	if err := b.nc.Publish(comm.SubjectDecision, data); err != nil {
		log.Warnf("decision publish failed: %s", err)
	}
}
