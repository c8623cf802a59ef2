package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/comm"
)

// RecordFlagFile is the shared "go" flag the camera process watches.
const RecordFlagFile = "record.txt"

// CameraBridge hands successful entrance events to the out-of-scope camera
// process: a per-event marker file plus the shared record flag, and a typed
// ScanSignal on the message bus so the camera can order clips against scans
// without sharing memory with us.
type CameraBridge struct {
	recordingDir string
	nc           *nats.Conn
	direction    string
}

func New(recordingDir string, nc *nats.Conn, direction string) *CameraBridge {
	return &CameraBridge{recordingDir: recordingDir, nc: nc, direction: direction}
}

// SignalRecording marks one entrance event for the camera. Failures are
// logged and swallowed: a broken camera hand-off must never hold the door.
func (b *CameraBridge) SignalRecording(entranceLogUUID string, scannedAt time.Time) {
	if err := b.writeMarkers(entranceLogUUID); err != nil {
		log.Errorf("camera marker write failed for %s: %s", entranceLogUUID, err)
	}
	b.publishSignal(entranceLogUUID, scannedAt)
}

func (b *CameraBridge) writeMarkers(entranceLogUUID string) error {
	if err := os.MkdirAll(b.recordingDir, 0755); err != nil {
		return err
	}

	marker := filepath.Join(b.recordingDir, entranceLogUUID+".txt")
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		return fmt.Errorf("marker file: %w", err)
	}

	flag := filepath.Join(b.recordingDir, RecordFlagFile)
	if err := os.WriteFile(flag, nil, 0644); err != nil {
		return fmt.Errorf("record flag: %w", err)
	}
	return nil
}

func (b *CameraBridge) publishSignal(entranceLogUUID string, scannedAt time.Time) {
	if b.nc == nil {
		return
	}

	signal := comm.ScanSignal{
		EntranceLogUUID: entranceLogUUID,
		ScannedAt:       scannedAt.Unix(),
		Direction:       b.direction,
	}
	data, err := json.Marshal(signal)
	if err != nil {
		log.Errorf("marshal scan signal: %s", err)
		return
	}
	if err := b.nc.Publish(comm.SubjectScanSignal, data); err != nil {
		log.Warnf("scan signal publish failed: %s", err)
		return
	}
	log.Infof("published scan signal for %s", entranceLogUUID)
}
