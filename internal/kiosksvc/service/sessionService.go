package service

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type loginClient interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// SessionService holds the process-wide bearer token. The mutex makes the
// refresh single-flight: two near-simultaneous 401s trigger one login, and
// the loser reuses the winner's token.
type SessionService struct {
	mu       sync.Mutex
	client   loginClient
	email    string
	password string

	token      string
	obtainedAt time.Time
}

func NewSessionService(c loginClient, email, password string) *SessionService {
	return &SessionService{client: c, email: email, password: password}
}

// Token returns the cached bearer token, logging in lazily on first use.
func (s *SessionService) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}
	return s.loginLocked(ctx)
}

// Refresh replaces a token the backend rejected. Callers pass the token
// they used; if another caller already refreshed it, the fresh one is
// returned without a redundant login.
func (s *SessionService) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.token != stale {
		return s.token, nil
	}
	if !s.obtainedAt.IsZero() {
		log.Infof("bearer token rejected after %s, logging in again", time.Since(s.obtainedAt).Round(time.Second))
	}
	s.token = ""
	return s.loginLocked(ctx)
}

func (s *SessionService) loginLocked(ctx context.Context) (string, error) {
	token, err := s.client.Login(ctx, s.email, s.password)
	if err != nil {
		log.Errorf("login failed: %s", err)
		return "", err
	}
	s.token = token
	s.obtainedAt = time.Now()
	log.Info("obtained fresh bearer token")
	return token, nil
}
