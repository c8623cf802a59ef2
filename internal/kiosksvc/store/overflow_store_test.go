package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overflowRecord(uuid string) OverflowRecord {
	return OverflowRecord{
		URL:     "https://backend.example/verify_customer/",
		Method:  "PUT",
		Headers: map[string]string{"Content-Type": "application/json"},
		Payload: json.RawMessage(`{"uuid":"` + uuid + `"}`),
	}
}

func TestOverflowAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overflow.jsonl")
	s := NewOverflowStore(path)

	require.NoError(t, s.Append(overflowRecord("one")))
	require.NoError(t, s.Append(overflowRecord("two")))

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "PUT", records[0].Method)
	assert.JSONEq(t, `{"uuid":"one"}`, string(records[0].Payload))
	assert.JSONEq(t, `{"uuid":"two"}`, string(records[1].Payload))

	// one record per line
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(string(data), "\n"), "\n"), 2)
}

func TestOverflowReadAllMissingFile(t *testing.T) {
	s := NewOverflowStore(filepath.Join(t.TempDir(), "nope.jsonl"))
	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOverflowReadAllSkipsTornLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overflow.jsonl")
	s := NewOverflowStore(path)
	require.NoError(t, s.Append(overflowRecord("one")))

	// simulate a torn final write
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"url": "https://backe`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestOverflowRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overflow.jsonl")
	s := NewOverflowStore(path)
	require.NoError(t, s.Append(overflowRecord("one")))
	require.NoError(t, s.Append(overflowRecord("two")))

	require.NoError(t, s.Rewrite([]OverflowRecord{overflowRecord("two")}))

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"uuid":"two"}`, string(records[0].Payload))
}
