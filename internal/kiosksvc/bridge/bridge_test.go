package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalRecordingWritesMarkers(t *testing.T) {
	dir := t.TempDir()
	b := New(dir, nil, "A")

	b.SignalRecording("aaaa-bbbb", time.Now())

	_, err := os.Stat(filepath.Join(dir, "aaaa-bbbb.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, RecordFlagFile))
	assert.NoError(t, err)
}

func TestSignalRecordingCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	b := New(dir, nil, "A")

	b.SignalRecording("cccc-dddd", time.Now())

	_, err := os.Stat(filepath.Join(dir, "cccc-dddd.txt"))
	assert.NoError(t, err)
}

func TestSignalRecordingMarkerIsEmpty(t *testing.T) {
	dir := t.TempDir()
	b := New(dir, nil, "A")

	b.SignalRecording("eeee-ffff", time.Now())

	info, err := os.Stat(filepath.Join(dir, "eeee-ffff.txt"))
	assert.NoError(t, err)
	assert.Zero(t, info.Size())
}
