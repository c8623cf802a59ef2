package device

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Relay pulses the door lock. GPIO mechanics are out of scope; the default
// implementation logs the pulse pattern it would drive.
type Relay interface {
	Pulse(duration time.Duration, toggles int)
}

type logRelay struct {
	pin int
}

func NewLogRelay(pin int) Relay {
	return logRelay{pin: pin}
}

func (r logRelay) Pulse(duration time.Duration, toggles int) {
	for i := 0; i < toggles; i++ {
		log.Infof("relay pin %d high for %s", r.pin, duration)
		time.Sleep(duration)
		log.Infof("relay pin %d low", r.pin)
	}
}

// AsyncRelay wraps a Relay so the scan loop never waits on actuation. The
// worker drains a one-slot queue; a pulse requested while one is running is
// dropped rather than queued, matching the physical door.
type AsyncRelay struct {
	inner Relay
	queue chan pulse
}

type pulse struct {
	duration time.Duration
	toggles  int
}

func NewAsyncRelay(inner Relay) *AsyncRelay {
	a := &AsyncRelay{inner: inner, queue: make(chan pulse, 1)}
	go a.worker()
	return a
}

func (a *AsyncRelay) Pulse(duration time.Duration, toggles int) {
	select {
	case a.queue <- pulse{duration: duration, toggles: toggles}:
	default:
		log.Warn("relay pulse already in progress, dropping request")
	}
}

func (a *AsyncRelay) worker() {
	for p := range a.queue {
		a.inner.Pulse(p.duration, p.toggles)
	}
}
