package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// MaxDelay is how stale a heartbeat file may be before the direction is
// declared dead.
const MaxDelay = 60 * time.Second

// WriteInterval is how often a kiosk process refreshes its file.
const WriteInterval = 20 * time.Second

type beat struct {
	Timestamp int64 `json:"timestamp"`
}

// FileName returns the per-direction heartbeat file name.
func FileName(dir, direction string) string {
	return filepath.Join(dir, fmt.Sprintf("heartbeat-%s.json", direction))
}

// Writer refreshes one direction's heartbeat file on a fixed interval.
type Writer struct {
	path string
}

func NewWriter(dir, direction string) *Writer {
	return &Writer{path: FileName(dir, direction)}
}

// Run blocks, beating until the context is cancelled. It beats once
// immediately so the monitor never races a fresh start.
func (w *Writer) Run(ctx context.Context) {
	w.beat()
	ticker := time.NewTicker(WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.beat()
		}
	}
}

func (w *Writer) beat() {
	data, _ := json.Marshal(beat{Timestamp: time.Now().Unix()})
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		log.Errorf("heartbeat write failed: %s", err)
	}
}

// IsAlive reports whether the heartbeat file at path is fresh.
func IsAlive(path string, now time.Time) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var b beat
	if err := json.Unmarshal(data, &b); err != nil {
		log.Errorf("error parsing heartbeat file %s: %s", path, err)
		return false
	}
	if b.Timestamp == 0 {
		return false
	}
	return now.Sub(time.Unix(b.Timestamp, 0)) < MaxDelay
}

// Healthy evaluates the heartbeat files of both directions. A bidirectional
// site needs every direction alive; a single-direction site is healthy when
// either file is fresh.
func Healthy(dir string, bidirectional bool, now time.Time) bool {
	paths := []string{FileName(dir, "A"), FileName(dir, "B")}

	if bidirectional {
		for _, p := range paths {
			if !IsAlive(p, now) {
				return false
			}
		}
		return true
	}

	for _, p := range paths {
		if IsAlive(p, now) {
			return true
		}
	}
	return false
}
