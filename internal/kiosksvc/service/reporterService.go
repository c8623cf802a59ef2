package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/client"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/store"
)

type entranceLogClient interface {
	PutEntranceLog(ctx context.Context, token string, rec models.EntranceLogRecord) error
	EntranceLogURL() string
}

// ReporterService guarantees every decision eventually reaches the backend:
// bounded retries, then the overflow store. An access event is never
// silently dropped.
type ReporterService struct {
	client   entranceLogClient
	session  tokenSource
	overflow *store.OverflowStore

	// Retries bounds full submission attempts; Backoff is the fixed sleep
	// between them. A 403-triggered refresh retry does not consume budget.
	Retries int
	Backoff time.Duration
}

func NewReporterService(c entranceLogClient, session tokenSource, overflow *store.OverflowStore) *ReporterService {
	return &ReporterService{
		client:   c,
		session:  session,
		overflow: overflow,
		Retries:  3,
		Backoff:  5 * time.Second,
	}
}

// Submit PUTs the record, retrying within budget. It returns false when the
// budget is exhausted and the record went to the overflow store instead.
func (r *ReporterService) Submit(ctx context.Context, rec models.EntranceLogRecord) bool {
	var token string

	for attempt := 0; attempt < r.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				r.spill(rec, token)
				return false
			case <-time.After(r.Backoff):
			}
		}

		var err error
		token, err = r.session.Token(ctx)
		if err != nil {
			log.Warnf("entrance log attempt %d: no token: %s", attempt+1, err)
			continue
		}

		err = r.client.PutEntranceLog(ctx, token, rec)
		if errors.Is(err, client.ErrAuth) {
			// refresh-then-retry, off budget
			token, err = r.session.Refresh(ctx, token)
			if err == nil {
				err = r.client.PutEntranceLog(ctx, token, rec)
			}
		}
		if err == nil {
			log.Infof("entrance log %s submitted", rec.UUID)
			return true
		}
		log.Warnf("entrance log attempt %d failed for %s: %s", attempt+1, rec.UUID, err)
	}

	r.spill(rec, token)
	return false
}

func (r *ReporterService) spill(rec models.EntranceLogRecord, token string) {
	payload, _ := json.Marshal(rec)
	headers := map[string]string{"Content-Type": "application/json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	err := r.overflow.Append(store.OverflowRecord{
		URL:     r.client.EntranceLogURL(),
		Method:  http.MethodPut,
		Headers: headers,
		Payload: payload,
	})
	if err != nil {
		// worst case: the event survives only in the service log
		log.Errorf("failed to append entrance log %s to overflow store: %s", rec.UUID, err)
		return
	}
	log.Warnf("entrance log %s exhausted retries, written to overflow store", rec.UUID)
}
