package comm

import (
	"encoding/json"
	"time"
)

// NATS subjects shared by the kiosk services.
const (
	SubjectScanSignal       = "camera.signal"
	SubjectDecision         = "kiosk.decision"
	SubjectServiceHeartbeat = "service.heartbeat"
	SubjectServiceShutdown  = "service.shutdown"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "scan_signal", "decision"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// ScanSignal is handed to the camera process so it can decide whether a
// motion-triggered clip predates the scan before retaining it.
type ScanSignal struct {
	EntranceLogUUID string `json:"entrance_log_uuid"`
	ScannedAt       int64  `json:"scanned_at"`
	Direction       string `json:"direction"`
}

// DecisionEvent mirrors one access decision for diagnostics consumers.
type DecisionEvent struct {
	EntranceLogUUID string `json:"entrance_log_uuid"`
	CustomerUUID    string `json:"customer_uuid"`
	Direction       string `json:"direction"`
	Decision        string `json:"decision"`
	Source          string `json:"source"` // cache or remote
	Timestamp       int64  `json:"timestamp"`
}

// ServiceHeartbeat announces a live service instance on the bus. The status
// service retains the latest beat per id for its presence endpoint.
type ServiceHeartbeat struct {
	ID        string    `json:"id"` // service id
	Timestamp time.Time `json:"timestamp"`
}

// ServiceShutdown retracts a presence entry on graceful stop.
type ServiceShutdown struct {
	ID string `json:"id"` // service id
}
