package models

// ScanSource identifies which decoder produced a scan event.
type ScanSource string

const (
	SourceKeyboard     ScanSource = "keyboard"
	SourceSerialJSON   ScanSource = "serial-json"
	SourceSerialRawUID ScanSource = "serial-raw-uid"
	SourceCardUID      ScanSource = "card-uid"
)

// DefaultMagicTimestamp is the reserved sentinel that disables the
// timestamp-freshness check for device classes that cannot supply a real
// timestamp (card readers). 2000-01-01T00:00:00Z.
const DefaultMagicTimestamp int64 = 946684800

// ScanEvent is one normalized scan. Immutable once created, consumed once
// by the access decision engine.
type ScanEvent struct {
	Identifier       string     `json:"identifier"`
	ClaimedTimestamp int64      `json:"claimed_timestamp"`
	Source           ScanSource `json:"source"`
}
