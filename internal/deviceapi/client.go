// Package deviceapi implements the HTTP clients for the three device
// families: generic IP phones, SIP speakers and PBX appliances. Every family
// exposes the same two operations, a login handshake and a generic
// authenticated call, behind the Client interface.
package deviceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/vaidik343/voipscout/internal/model"
)

// RequestTimeout bounds every login and API call.
const RequestTimeout = 10 * time.Second

// DefaultUsername and DefaultPassword are used when no stored credentials
// exist for a device.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin"
)

// LoginResult is the outcome of a login handshake. A failed login is a
// routine result, not an error: transport failures, timeouts and rejected
// credentials all surface as OK=false.
type LoginResult struct {
	OK    bool
	Token string
}

// APIError is a non-2xx response from a device endpoint.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("device API %s returned %d: %s", e.Endpoint, e.Status, e.Body)
}

// ParseError is a 2xx response whose body was not valid JSON.
type ParseError struct {
	Endpoint string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("device API %s returned unparseable body", e.Endpoint)
}

// IsAuthFailure reports whether err looks like an expired or rejected
// session, the trigger for a single re-login-and-retry.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}

// Client is one device family's API surface.
type Client interface {
	Family() model.Family
	// Login performs the family-specific handshake. Never returns an error;
	// callers treat OK=false as routine.
	Login(ctx context.Context, ip, username, password string) LoginResult
	// Call issues one authenticated request to an endpoint path on the
	// device and returns the parsed JSON body.
	Call(ctx context.Context, ip, token, endpoint, method string, body any) (json.RawMessage, error)
}

// TokenCache holds per-IP session tokens for one device family. It is
// advisory: a miss or a stale entry always degrades to a fresh login, so a
// plain mutex with last-writer-wins semantics is enough.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[string]string)}
}

func (tc *TokenCache) Get(ip string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	token, ok := tc.tokens[ip]
	return token, ok
}

func (tc *TokenCache) Put(ip, token string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tokens[ip] = token
}

func (tc *TokenCache) Invalidate(ip string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	delete(tc.tokens, ip)
}

// httpClient is shared by all families. Devices speak plain HTTP on their
// LAN addresses.
var httpClient = &http.Client{Timeout: RequestTimeout}

// doRequest issues one HTTP request, applying headers, and returns the body
// as parsed JSON with the typed failure taxonomy: transport errors pass
// through, non-2xx becomes *APIError, invalid JSON becomes *ParseError.
func doRequest(ctx context.Context, method, url, endpoint string, headers map[string]string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(data)}
	}

	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Endpoint: endpoint}
	}
	return json.RawMessage(data), nil
}

func deviceURL(ip, endpoint string) string {
	if len(endpoint) == 0 || endpoint[0] != '/' {
		endpoint = "/" + endpoint
	}
	return "http://" + ip + endpoint
}
