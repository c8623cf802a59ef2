package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

var (
	// ErrAuth is a 401/403 from the backend: the bearer token is stale.
	ErrAuth = errors.New("authentication rejected")
	// ErrConnectivity is a transport-level failure that survived the retry
	// budget of the call.
	ErrConnectivity = errors.New("connectivity error")
)

// VerifyRequest is the payload of POST /verify_customer/.
type VerifyRequest struct {
	CustomerUUID string `json:"customer_uuid"`
	EntranceUUID string `json:"entrance_uuid"`
	Direction    string `json:"direction"`
	Timestamp    int64  `json:"timestamp"`
}

// VerifyResponse is the backend's classification of a scan.
type VerifyResponse struct {
	StatusCode string `json:"status_code"`
	FirstName  string `json:"first_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access string `json:"access"`
}

// Client talks to the verification backend.
type Client struct {
	hostname string
	http     *http.Client

	// VerifyRetries bounds transport retries of the verification call.
	VerifyRetries int
	// RetryBackoff is the fixed sleep between transport retries.
	RetryBackoff time.Duration
}

func New(hostname string) *Client {
	return &Client{
		hostname:      strings.TrimRight(hostname, "/"),
		http:          &http.Client{Timeout: 15 * time.Second},
		VerifyRetries: 5,
		RetryBackoff:  10 * time.Second,
	}
}

func (c *Client) EntranceLogURL() string {
	return c.hostname + "/verify_customer/"
}

// Login obtains a fresh bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, _ := json.Marshal(loginRequest{Email: email, Password: password})

	resp, err := c.doWithRetry(ctx, http.MethodPost, c.hostname+"/api/token/", "", body, c.VerifyRetries)
	if err != nil {
		return "", err
	}

	if resp.status != http.StatusOK {
		logUnsuccessful(c.hostname+"/api/token/", resp)
		return "", fmt.Errorf("login failed with status %d", resp.status)
	}

	var lr loginResponse
	if err := json.Unmarshal(resp.body, &lr); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if lr.Access == "" {
		return "", errors.New("login response missing access token")
	}
	return lr.Access, nil
}

// VerifyCustomer submits the verification payload. A 401/403 surfaces as
// ErrAuth so the caller can refresh the token and try again; repeated
// transport failure surfaces as ErrConnectivity.
func (c *Client) VerifyCustomer(ctx context.Context, token string, req VerifyRequest) (*VerifyResponse, error) {
	body, _ := json.Marshal(req)
	url := c.hostname + "/verify_customer/"

	resp, err := c.doWithRetry(ctx, http.MethodPost, url, token, body, c.VerifyRetries)
	if err != nil {
		return nil, err
	}

	switch resp.status {
	case http.StatusOK:
		var vr VerifyResponse
		if err := json.Unmarshal(resp.body, &vr); err != nil {
			return nil, fmt.Errorf("decode verify response: %w", err)
		}
		return &vr, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAuth
	default:
		logUnsuccessful(url, resp)
		return nil, fmt.Errorf("verify returned status %d", resp.status)
	}
}

// PutEntranceLog submits one durable entrance-log record. The backend
// treats the PUT as an upsert keyed by the record UUID, so retrying from
// scratch is always safe. Exactly one attempt; the reporter owns the retry
// budget.
func (c *Client) PutEntranceLog(ctx context.Context, token string, rec models.EntranceLogRecord) error {
	body, _ := json.Marshal(rec)
	url := c.EntranceLogURL()

	resp, err := c.do(ctx, http.MethodPut, url, token, body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnectivity, err)
	}

	switch {
	case resp.status >= 200 && resp.status < 300:
		return nil
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		return ErrAuth
	default:
		logUnsuccessful(url, resp)
		return fmt.Errorf("entrance log returned status %d", resp.status)
	}
}

// GetCustomers downloads the full roster.
func (c *Client) GetCustomers(ctx context.Context, token string) ([]models.Customer, error) {
	url := c.hostname + "/customers/"

	resp, err := c.doWithRetry(ctx, http.MethodGet, url, token, nil, c.VerifyRetries)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		return nil, ErrAuth
	}
	if resp.status != http.StatusOK {
		logUnsuccessful(url, resp)
		return nil, fmt.Errorf("customers returned status %d", resp.status)
	}

	var customers []models.Customer
	if err := json.Unmarshal(resp.body, &customers); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}
	return customers, nil
}

type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, method, url, token string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// doWithRetry repeats the request with a fixed backoff until it gets any
// HTTP response. Only transport failures are retried here; status handling
// belongs to the caller.
func (c *Client) doWithRetry(ctx context.Context, method, url, token string, body []byte, retries int) (*response, error) {
	var lastErr error
	for i := 0; i < retries; i++ {
		resp, err := c.do(ctx, method, url, token, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i == retries-1 {
			break
		}
		log.Warnf("connection error calling %s: %s. Retrying...", url, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.RetryBackoff):
		}
	}
	log.Errorf("exhausted all retries calling %s", url)
	return nil, fmt.Errorf("%w: %s", ErrConnectivity, lastErr)
}

// logUnsuccessful logs the tail of an error response body, enough to see
// the backend's message without dumping an HTML error page.
func logUnsuccessful(url string, resp *response) {
	lines := strings.Split(string(resp.body), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	log.Infof("Unsuccessful request to endpoint %s. Response: %s", url, strings.Join(lines, "\n"))
}
