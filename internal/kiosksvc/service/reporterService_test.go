package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/client"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/store"
)

type fakeEntranceLogClient struct {
	calls int
	errs  []error
}

func (f *fakeEntranceLogClient) PutEntranceLog(ctx context.Context, token string, rec models.EntranceLogRecord) error {
	i := f.calls
	f.calls++
	if i < len(f.errs) {
		return f.errs[i]
	}
	return nil
}

func (f *fakeEntranceLogClient) EntranceLogURL() string {
	return "https://backend.example.com/verify_customer/"
}

func newTestReporter(t *testing.T, c *fakeEntranceLogClient, session *fakeSession) (*ReporterService, *store.OverflowStore) {
	t.Helper()
	overflow := store.NewOverflowStore(filepath.Join(t.TempDir(), "overflow.jsonl"))
	r := NewReporterService(c, session, overflow)
	r.Backoff = 0
	return r, overflow
}

func testRecord() models.EntranceLogRecord {
	return models.NewEntranceLogRecord("u1", testEntrance, "A", 1700000000, models.UserExists)
}

func TestSubmitFirstAttemptSucceeds(t *testing.T) {
	c := &fakeEntranceLogClient{}
	r, overflow := newTestReporter(t, c, &fakeSession{token: "tok"})

	ok := r.Submit(context.Background(), testRecord())

	assert.True(t, ok)
	assert.Equal(t, 1, c.calls)

	records, err := overflow.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSubmitRetriesThenSucceeds(t *testing.T) {
	c := &fakeEntranceLogClient{errs: []error{client.ErrConnectivity, client.ErrConnectivity, nil}}
	r, _ := newTestReporter(t, c, &fakeSession{token: "tok"})

	ok := r.Submit(context.Background(), testRecord())

	assert.True(t, ok)
	assert.Equal(t, 3, c.calls)
}

func TestSubmitAuthRefreshDoesNotConsumeBudget(t *testing.T) {
	session := &fakeSession{token: "stale"}
	c := &fakeEntranceLogClient{errs: []error{client.ErrAuth, nil}}
	r, _ := newTestReporter(t, c, session)

	ok := r.Submit(context.Background(), testRecord())

	assert.True(t, ok)
	assert.Equal(t, 1, session.refreshes)
	assert.Equal(t, 2, c.calls)
}

func TestSubmitExhaustionSpillsExactlyOneRecord(t *testing.T) {
	c := &fakeEntranceLogClient{errs: []error{
		client.ErrConnectivity, client.ErrConnectivity, client.ErrConnectivity,
	}}
	r, overflow := newTestReporter(t, c, &fakeSession{token: "tok"})
	rec := testRecord()

	ok := r.Submit(context.Background(), rec)

	assert.False(t, ok)
	assert.Equal(t, 3, c.calls)

	spilled, err := overflow.ReadAll()
	require.NoError(t, err)
	require.Len(t, spilled, 1)

	assert.Equal(t, c.EntranceLogURL(), spilled[0].URL)
	assert.Equal(t, "PUT", spilled[0].Method)
	assert.Equal(t, "Bearer tok", spilled[0].Headers["Authorization"])

	var got models.EntranceLogRecord
	require.NoError(t, json.Unmarshal(spilled[0].Payload, &got))
	assert.Equal(t, rec.UUID, got.UUID)
}

func TestSubmitCancelledContextSpills(t *testing.T) {
	c := &fakeEntranceLogClient{errs: []error{client.ErrConnectivity}}
	r, overflow := newTestReporter(t, c, &fakeSession{token: "tok"})
	r.Backoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := r.Submit(ctx, testRecord())

	assert.False(t, ok)
	spilled, err := overflow.ReadAll()
	require.NoError(t, err)
	assert.Len(t, spilled, 1)
}
