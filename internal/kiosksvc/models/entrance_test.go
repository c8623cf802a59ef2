package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntranceLogRecordDeterministicUUID(t *testing.T) {
	a := NewEntranceLogRecord("u1", "e1", "A", 1700000000, UserExists)
	b := NewEntranceLogRecord("u1", "e1", "A", 1700000000, UserExists)

	assert.Equal(t, a.UUID, b.UUID)
	assert.Len(t, a.UUID, 36)
}

func TestNewEntranceLogRecordUUIDIgnoresResponseCode(t *testing.T) {
	// a reclassified retry of the same physical event must upsert the
	// same backend row
	a := NewEntranceLogRecord("u1", "e1", "A", 1700000000, TransientError)
	b := NewEntranceLogRecord("u1", "e1", "A", 1700000000, UserExists)

	assert.Equal(t, a.UUID, b.UUID)
}

func TestNewEntranceLogRecordUUIDVariesWithFields(t *testing.T) {
	base := NewEntranceLogRecord("u1", "e1", "A", 1700000000, UserExists)

	assert.NotEqual(t, base.UUID, NewEntranceLogRecord("u2", "e1", "A", 1700000000, UserExists).UUID)
	assert.NotEqual(t, base.UUID, NewEntranceLogRecord("u1", "e2", "A", 1700000000, UserExists).UUID)
	assert.NotEqual(t, base.UUID, NewEntranceLogRecord("u1", "e1", "B", 1700000000, UserExists).UUID)
	assert.NotEqual(t, base.UUID, NewEntranceLogRecord("u1", "e1", "A", 1700000001, UserExists).UUID)
}

func TestTransientErrorOmitsResponseCode(t *testing.T) {
	rec := NewEntranceLogRecord("u1", "e1", "A", 1700000000, TransientError)
	assert.Empty(t, rec.ResponseCode)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "response_code")
}

func TestGranted(t *testing.T) {
	assert.True(t, UserExists.Granted())

	for _, d := range []Decision{OutsideSchedule, MembershipInactive, UserDoesNotExist, TimestampExpired, TransientError} {
		assert.False(t, d.Granted(), string(d))
	}
}
