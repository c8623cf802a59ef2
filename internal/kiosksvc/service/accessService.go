package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/client"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

// FreshnessWindow is the maximum accepted age of a claimed scan timestamp.
const FreshnessWindow = 60 * time.Second

type customerLookup interface {
	Lookup(identifier string) *models.Customer
}

type verifyClient interface {
	VerifyCustomer(ctx context.Context, token string, req client.VerifyRequest) (*client.VerifyResponse, error)
}

type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context, stale string) (string, error)
}

// Result is one classified scan plus the entrance-log record it must
// produce. Exactly one record per decision, whatever the outcome.
type Result struct {
	Decision  models.Decision
	FirstName string
	FromCache bool
	Record    models.EntranceLogRecord
}

// AccessService is the decision state machine: freshness gate, cache
// lookup, remote verification fallback.
type AccessService struct {
	cache    customerLookup
	verifier verifyClient
	session  tokenSource

	entranceUUID   string
	direction      string
	magicTimestamp int64

	now func() time.Time
}

func NewAccessService(cache customerLookup, verifier verifyClient, session tokenSource,
	entranceUUID, direction string, magicTimestamp int64) *AccessService {
	return &AccessService{
		cache:          cache,
		verifier:       verifier,
		session:        session,
		entranceUUID:   entranceUUID,
		direction:      direction,
		magicTimestamp: magicTimestamp,
		now:            time.Now,
	}
}

// Decide classifies one scan event.
func (s *AccessService) Decide(ctx context.Context, ev models.ScanEvent) Result {
	now := s.now()

	if ev.ClaimedTimestamp != s.magicTimestamp &&
		now.Unix()-ev.ClaimedTimestamp > int64(FreshnessWindow/time.Second) {
		log.Infof("rejecting stale scan for %s (age %ds)", ev.Identifier, now.Unix()-ev.ClaimedTimestamp)
		return s.result(models.TimestampExpired, "", false, ev.Identifier, ev.ClaimedTimestamp)
	}

	if c := s.cache.Lookup(ev.Identifier); c != nil {
		log.Infof("found customer %s in cache", c.CustomerUUID)
		return s.decideFromCache(c, now, ev)
	}

	return s.decideRemote(ctx, ev)
}

func (s *AccessService) decideFromCache(c *models.Customer, now time.Time, ev models.ScanEvent) Result {
	switch {
	case !c.ActiveMembership && !c.IsStaff:
		return s.result(models.MembershipInactive, "", true, c.CustomerUUID, ev.ClaimedTimestamp)
	case len(c.EntranceSchedules) > 0 && !scheduleAllows(c.EntranceSchedules, now):
		return s.result(models.OutsideSchedule, "", true, c.CustomerUUID, ev.ClaimedTimestamp)
	default:
		return s.result(models.UserExists, c.FirstName, true, c.CustomerUUID, ev.ClaimedTimestamp)
	}
}

func (s *AccessService) decideRemote(ctx context.Context, ev models.ScanEvent) Result {
	req := client.VerifyRequest{
		CustomerUUID: ev.Identifier,
		EntranceUUID: s.entranceUUID,
		Direction:    s.direction,
		Timestamp:    ev.ClaimedTimestamp,
	}

	token, err := s.session.Token(ctx)
	if err != nil {
		return s.result(models.TransientError, "", false, ev.Identifier, ev.ClaimedTimestamp)
	}

	resp, err := s.verifier.VerifyCustomer(ctx, token, req)
	if errors.Is(err, client.ErrAuth) {
		token, err = s.session.Refresh(ctx, token)
		if err == nil {
			resp, err = s.verifier.VerifyCustomer(ctx, token, req)
		}
	}
	if err != nil {
		log.Errorf("remote verification failed for %s: %s", ev.Identifier, err)
		return s.result(models.TransientError, "", false, ev.Identifier, ev.ClaimedTimestamp)
	}

	decision := mapStatusCode(resp.StatusCode)
	return s.result(decision, resp.FirstName, false, ev.Identifier, ev.ClaimedTimestamp)
}

func (s *AccessService) result(d models.Decision, firstName string, fromCache bool, customerUUID string, ts int64) Result {
	return Result{
		Decision:  d,
		FirstName: firstName,
		FromCache: fromCache,
		Record:    models.NewEntranceLogRecord(customerUUID, s.entranceUUID, s.direction, ts, d),
	}
}

func mapStatusCode(code string) models.Decision {
	switch models.Decision(code) {
	case models.UserExists, models.OutsideSchedule, models.MembershipInactive,
		models.UserDoesNotExist, models.TimestampExpired:
		return models.Decision(code)
	default:
		log.Warnf("backend returned unrecognized status_code %q", code)
		return models.TransientError
	}
}

// scheduleAllows reports whether now falls inside any window. Boundaries
// are inclusive on both ends at minute granularity: a 10:00-22:00 window
// admits 10:00 and 22:00, rejects 22:01. Days use Monday=0.
func scheduleAllows(windows []models.ScheduleWindow, now time.Time) bool {
	day := (int(now.Weekday()) + 6) % 7
	minute := now.Hour()*60 + now.Minute()

	for _, w := range windows {
		if !containsDay(w.DaysOfWeek, day) {
			continue
		}
		start, err := parseMinutes(w.StartTime)
		if err != nil {
			log.Warnf("skipping malformed schedule start %q: %s", w.StartTime, err)
			continue
		}
		end, err := parseMinutes(w.EndTime)
		if err != nil {
			log.Warnf("skipping malformed schedule end %q: %s", w.EndTime, err)
			continue
		}
		if start <= minute && minute <= end {
			return true
		}
	}
	return false
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// parseMinutes accepts "HH:MM" and "HH:MM:SS"; seconds are ignored.
func parseMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM or HH:MM:SS, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return h*60 + m, nil
}
