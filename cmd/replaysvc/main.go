package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/entradakit/kiosk-services/configs"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/client"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/service"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/store"
)

const SERVICE_NAME = "replay"

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
}

// replaysvc re-submits entrance-log records that exhausted their retries at
// scan time. It is run manually or from a timer unit; the kiosk itself
// never touches the overflow store except to append.
func main() {
	hostname := os.Getenv("HOSTNAME")
	username := os.Getenv("USERNAME")
	password := os.Getenv("PASSWORD")
	overflowPath := os.Getenv("OVERFLOW_FILE")
	if overflowPath == "" {
		overflowPath = "./entrance_log_overflow.jsonl"
	}
	if hostname == "" || username == "" || password == "" {
		log.Fatal("HOSTNAME, USERNAME and PASSWORD must be set")
	}

	overflow := store.NewOverflowStore(overflowPath)
	records, err := overflow.ReadAll()
	if err != nil {
		log.Fatalf("failed to read overflow store: %v", err)
	}
	if len(records) == 0 {
		log.Info("overflow store is empty, nothing to replay")
		return
	}

	api := client.New(hostname)
	session := service.NewSessionService(api, username, password)

	ctx := context.Background()
	token, err := session.Token(ctx)
	if err != nil {
		log.Fatalf("could not get JWT token: %v", err)
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	var remaining []store.OverflowRecord
	for _, rec := range records {
		if err := replay(ctx, httpClient, rec, token); err != nil {
			log.Warnf("replay of %s %s still failing: %v", rec.Method, rec.URL, err)
			remaining = append(remaining, rec)
			continue
		}
		log.Infof("replayed %s %s", rec.Method, rec.URL)
	}

	if err := overflow.Rewrite(remaining); err != nil {
		log.Fatalf("failed to rewrite overflow store: %v", err)
	}
	log.Infof("replay finished: %d submitted, %d remaining", len(records)-len(remaining), len(remaining))
}

// replay re-issues one stored request with a fresh bearer token. The stored
// Authorization header is stale by definition and is ignored.
func replay(ctx context.Context, httpClient *http.Client, rec store.OverflowRecord, token string) error {
	req, err := http.NewRequestWithContext(ctx, rec.Method, rec.URL, bytes.NewReader(rec.Payload))
	if err != nil {
		return err
	}
	for k, v := range rec.Headers {
		if k == "Authorization" {
			continue
		}
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &replayError{status: resp.StatusCode}
	}
	return nil
}

type replayError struct {
	status int
}

func (e *replayError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}
