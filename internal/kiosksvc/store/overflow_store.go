package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// OverflowRecord preserves everything needed to replay an entrance-log
// submission whose retries were exhausted: the full request, not just the
// payload.
type OverflowRecord struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Payload json.RawMessage   `json:"payload"`
}

// OverflowStore is the append-only local file of failed entrance-log
// submissions. One JSON record per line. The kiosk never truncates it;
// replay is a separate, deliberate operation.
type OverflowStore struct {
	mu   sync.Mutex
	path string
}

func NewOverflowStore(path string) *OverflowStore {
	return &OverflowStore{path: path}
}

// Append durably adds one record. The file is synced before returning so a
// power cut right after an exhausted submission cannot lose the event.
func (s *OverflowStore) Append(rec OverflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal overflow record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open overflow store: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append overflow record: %w", err)
	}
	return f.Sync()
}

// ReadAll returns every stored record. Unparseable lines are skipped, not
// fatal: a torn final line must not block replay of the rest.
func (s *OverflowStore) ReadAll() ([]OverflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []OverflowRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec OverflowRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// Rewrite replaces the store contents with the given records. Only the
// replay tool calls this, after it has re-submitted everything else.
func (s *OverflowStore) Rewrite(records []OverflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
