package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxResponseBytes caps how much of an authorization server response is read.
const maxResponseBytes = 1 << 20

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// DeviceFlow implements the client side of the OAuth 2.0 Device Authorization Grant
// (RFC 8628) against a better-auth server exposing /device/code and /device/token.
type DeviceFlow struct {
	clientID      string
	baseURL       string
	client        *http.Client
	now           func() time.Time
	sleep         Sleeper
	logger        zerolog.Logger
	observer      func(PollUpdate)
	enforceExpiry bool
}

// Option configures a DeviceFlow.
type Option func(*DeviceFlow)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *DeviceFlow) { f.client = c }
}

// WithClock replaces time.Now. Tests use it together with WithSleeper.
func WithClock(now func() time.Time) Option {
	return func(f *DeviceFlow) { f.now = now }
}

// WithSleeper replaces the timer used between polls.
func WithSleeper(s Sleeper) Option {
	return func(f *DeviceFlow) { f.sleep = s }
}

// WithLogger sets the logger used for poll diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(f *DeviceFlow) { f.logger = l }
}

// WithObserver registers a callback invoked after every classified poll response.
// It runs on the polling goroutine and must not block.
func WithObserver(fn func(PollUpdate)) Option {
	return func(f *DeviceFlow) { f.observer = fn }
}

// WithExpiryEnforcement makes PollToken stop on its own once the grant's expires_in
// deadline would pass, instead of waiting for the server to answer expired_token.
func WithExpiryEnforcement(enabled bool) Option {
	return func(f *DeviceFlow) { f.enforceExpiry = enabled }
}

// NewDeviceFlow creates a DeviceFlow. baseURL is the auth mount of the server,
// e.g. http://localhost:3002/api/auth.
func NewDeviceFlow(clientID string, baseURL string, opts ...Option) *DeviceFlow {
	f := &DeviceFlow{
		clientID: clientID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
		sleep:    sleepContext,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ClientID returns the OAuth client id the flow authenticates as.
func (f *DeviceFlow) ClientID() string {
	return f.clientID
}

// RequestGrant requests a device code and user code from the server.
// It issues exactly one request and never retries.
func (f *DeviceFlow) RequestGrant(ctx context.Context, scope string) (DeviceGrant, error) {
	if strings.TrimSpace(f.clientID) == "" {
		return DeviceGrant{}, ErrMissingClientID
	}
	if scope == "" {
		scope = DefaultScope
	}

	data := url.Values{}
	data.Set("client_id", f.clientID)
	data.Set("scope", scope)

	endpoint, err := url.JoinPath(f.baseURL, "device/code")
	if err != nil {
		return DeviceGrant{}, &RequestError{Kind: KindUnknown, Err: fmt.Errorf("building URL: %w", err)}
	}

	status, body, err := f.postForm(ctx, endpoint, data)
	if err != nil {
		return DeviceGrant{}, &RequestError{Kind: KindUnknown, Err: fmt.Errorf("requesting device code: %w", err)}
	}

	if status < 200 || status >= 300 {
		var envelope struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
			Message          string `json:"message"`
		}
		_ = json.Unmarshal(body, &envelope)
		desc := envelope.ErrorDescription
		if desc == "" {
			desc = envelope.Message
		}
		f.logger.Debug().Int("status", status).Str("error", envelope.Error).Msg("device code request rejected")
		return DeviceGrant{}, &RequestError{
			Kind:        classifyStatus(status),
			Status:      status,
			Code:        envelope.Error,
			Description: desc,
		}
	}

	var raw struct {
		DeviceCode              string  `json:"device_code"`
		UserCode                string  `json:"user_code"`
		VerificationURI         string  `json:"verification_uri"`
		VerificationURIComplete string  `json:"verification_uri_complete"`
		ExpiresIn               float64 `json:"expires_in"`
		Interval                float64 `json:"interval"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return DeviceGrant{}, &RequestError{Kind: KindUnknown, Status: status, Err: fmt.Errorf("decoding device code response: %w", err)}
	}
	if raw.DeviceCode == "" || raw.UserCode == "" {
		return DeviceGrant{}, &RequestError{Kind: KindUnknown, Status: status, Err: errors.New("response is missing device_code or user_code")}
	}

	interval := seconds(raw.Interval)
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := f.now()
	grant := DeviceGrant{
		DeviceCode:              raw.DeviceCode,
		UserCode:                raw.UserCode,
		VerificationURI:         raw.VerificationURI,
		VerificationURIComplete: raw.VerificationURIComplete,
		Interval:                interval,
		ExpiresIn:               seconds(raw.ExpiresIn),
		IssuedAt:                now,
	}
	if grant.ExpiresIn > 0 {
		grant.ExpiresAt = now.Add(grant.ExpiresIn)
	}
	f.logger.Debug().
		Dur("interval", grant.Interval).
		Dur("expires_in", grant.ExpiresIn).
		Msg("device code issued")
	return grant, nil
}

// PollToken polls the token endpoint until the grant is approved or reaches a
// terminal failure. Every attempt, including the first, is preceded by a sleep of
// the current interval. slow_down adds SlowDownIncrement to the interval for the
// rest of the grant's lifetime.
//
// The returned error identifies the terminal state; see StateOf.
func (f *DeviceFlow) PollToken(ctx context.Context, grant DeviceGrant) (TokenResponse, error) {
	interval := grant.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	endpoint, err := url.JoinPath(f.baseURL, "device/token")
	if err != nil {
		return TokenResponse{}, &TransportError{Err: fmt.Errorf("building URL: %w", err)}
	}

	for attempt := 1; ; attempt++ {
		if f.enforceExpiry && !grant.ExpiresAt.IsZero() && f.now().Add(interval).After(grant.ExpiresAt) {
			f.notify(PollUpdate{Attempt: attempt - 1, State: StateExpired, Interval: interval})
			return TokenResponse{}, fmt.Errorf("%w: deadline passed before approval", ErrExpiredToken)
		}

		if err := f.sleep(ctx, interval); err != nil {
			f.notify(PollUpdate{Attempt: attempt - 1, State: StateCancelled, Interval: interval})
			return TokenResponse{}, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		token, code, desc, err := f.pollOnce(ctx, endpoint, grant.DeviceCode)
		if err != nil {
			if ctx.Err() != nil {
				f.notify(PollUpdate{Attempt: attempt, State: StateCancelled, Interval: interval})
				return TokenResponse{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
			}
			f.logger.Debug().Err(err).Int("attempt", attempt).Msg("token poll failed")
			f.notify(PollUpdate{Attempt: attempt, State: StateFailed, Interval: interval})
			return TokenResponse{}, &TransportError{Err: err}
		}

		f.logger.Debug().Int("attempt", attempt).Str("error", code).Dur("interval", interval).Msg("token poll response")

		switch code {
		case "":
			if token.AccessToken == "" {
				f.notify(PollUpdate{Attempt: attempt, State: StateFailed, Interval: interval})
				return TokenResponse{}, &ServerError{Code: "invalid_response", Description: "response carried neither a token nor an error"}
			}
			f.notify(PollUpdate{Attempt: attempt, State: StateSucceeded, Interval: interval})
			return token, nil
		case "authorization_pending":
			f.notify(PollUpdate{Attempt: attempt, State: StatePolling, Interval: interval, Code: code})
		case "slow_down":
			interval += SlowDownIncrement
			f.notify(PollUpdate{Attempt: attempt, State: StatePolling, Interval: interval, Code: code})
		case "access_denied":
			f.notify(PollUpdate{Attempt: attempt, State: StateDenied, Interval: interval, Code: code})
			return TokenResponse{}, ErrAccessDenied
		case "expired_token":
			f.notify(PollUpdate{Attempt: attempt, State: StateExpired, Interval: interval, Code: code})
			return TokenResponse{}, ErrExpiredToken
		default:
			f.notify(PollUpdate{Attempt: attempt, State: StateFailed, Interval: interval, Code: code})
			return TokenResponse{}, &ServerError{Code: code, Description: desc}
		}
	}
}

// pollOnce performs a single token request. A non-nil error means the response
// could not be obtained or read; server-declared errors come back in code.
func (f *DeviceFlow) pollOnce(ctx context.Context, endpoint string, deviceCode string) (TokenResponse, string, string, error) {
	data := url.Values{}
	data.Set("grant_type", DeviceCodeGrantType)
	data.Set("device_code", deviceCode)
	data.Set("client_id", f.clientID)

	status, body, err := f.postForm(ctx, endpoint, data)
	if err != nil {
		return TokenResponse{}, "", "", err
	}

	var raw struct {
		AccessToken      string  `json:"access_token"`
		RefreshToken     string  `json:"refresh_token"`
		TokenType        string  `json:"token_type"`
		Scope            string  `json:"scope"`
		ExpiresIn        float64 `json:"expires_in"`
		Error            string  `json:"error"`
		ErrorDescription string  `json:"error_description"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return TokenResponse{}, "", "", fmt.Errorf("decoding token response (HTTP %d): %w", status, err)
	}
	if raw.Error == "" && (status < 200 || status >= 300) {
		raw.Error = fmt.Sprintf("http_%d", status)
	}
	return TokenResponse{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		TokenType:    raw.TokenType,
		Scope:        raw.Scope,
		ExpiresIn:    int(raw.ExpiresIn),
	}, raw.Error, raw.ErrorDescription, nil
}

func (f *DeviceFlow) postForm(ctx context.Context, endpoint string, data url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (f *DeviceFlow) notify(u PollUpdate) {
	if f.observer != nil {
		f.observer(u)
	}
}

func classifyStatus(status int) RequestErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindEndpointNotFound
	case http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
