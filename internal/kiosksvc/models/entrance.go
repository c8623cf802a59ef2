package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Decision is the outcome of classifying one scan event. The wire values
// match the backend's status_code field.
type Decision string

const (
	UserExists         Decision = "UserExists"
	OutsideSchedule    Decision = "OutsideSchedule"
	MembershipInactive Decision = "MembershipInactive"
	UserDoesNotExist   Decision = "UserDoesNotExist"
	TimestampExpired   Decision = "TimestampExpired"
	TransientError     Decision = "TransientError"
)

// Granted reports whether the decision opens the door.
func (d Decision) Granted() bool {
	return d == UserExists
}

// EntranceLogRecord is the durable record of one physical access attempt,
// independent of the outcome. UUID is deterministic so that retransmission
// after a crash-restart upserts the same backend row.
type EntranceLogRecord struct {
	UUID         string `json:"uuid"`
	CustomerUUID string `json:"customer_uuid"`
	EntranceUUID string `json:"entrance_uuid"`
	Direction    string `json:"direction"`
	Timestamp    int64  `json:"timestamp"`
	ResponseCode string `json:"response_code,omitempty"`
}

// NewEntranceLogRecord derives the record UUID as UUIDv5 over the canonical
// string of the payload before the uuid itself is attached. ResponseCode is
// deliberately excluded so re-submission of the same logical event is
// idempotent regardless of how it was classified.
func NewEntranceLogRecord(customerUUID, entranceUUID, direction string, timestamp int64, responseCode Decision) EntranceLogRecord {
	canonical := fmt.Sprintf("%s:%s:%s:%d", customerUUID, entranceUUID, direction, timestamp)
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(canonical))

	rec := EntranceLogRecord{
		UUID:         id.String(),
		CustomerUUID: customerUUID,
		EntranceUUID: entranceUUID,
		Direction:    direction,
		Timestamp:    timestamp,
	}
	if responseCode != TransientError {
		// the physical event is still logged on connectivity failure, the
		// backend just never learns a response code for it
		rec.ResponseCode = string(responseCode)
	}
	return rec
}
