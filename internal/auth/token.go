package auth

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// ExpiryBuffer is subtracted from a token's lifetime when deciding whether it is
// still usable, so requests never race the real deadline.
const ExpiryBuffer = 5 * time.Minute

// DefaultTokenType is written when the server does not specify a token type.
const DefaultTokenType = "Bearer"

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// StoredToken is the token persisted between CLI invocations.
// ExpiresAt and CreatedAt are kept as ISO-8601 strings; an empty ExpiresAt is
// written as null and means the lifetime is unknown.
type StoredToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    string
	CreatedAt    string
}

type storedTokenJSON struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type"`
	Scope        string  `json:"scope,omitempty"`
	ExpiresAt    *string `json:"expires_at"`
	CreatedAt    string  `json:"created_at"`
}

// NewStoredToken converts a token response into its persisted form.
func NewStoredToken(resp TokenResponse, now time.Time) *StoredToken {
	tok := &StoredToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		CreatedAt:    FormatTimestamp(now),
	}
	if tok.TokenType == "" {
		tok.TokenType = DefaultTokenType
	}
	if resp.ExpiresIn > 0 {
		tok.ExpiresAt = FormatTimestamp(now.Add(time.Duration(resp.ExpiresIn) * time.Second))
	}
	return tok
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Expiry parses ExpiresAt. ok is false when it is absent or unparsable.
func (t *StoredToken) Expiry() (time.Time, bool) {
	if t == nil || t.ExpiresAt == "" {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, t.ExpiresAt)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// OAuth2Token adapts the stored token for use with an oauth2 transport.
func (t *StoredToken) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if at, ok := t.Expiry(); ok {
		tok.Expiry = at
	}
	return tok
}

func (t StoredToken) MarshalJSON() ([]byte, error) {
	raw := storedTokenJSON{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Scope:        t.Scope,
		CreatedAt:    t.CreatedAt,
	}
	if raw.TokenType == "" {
		raw.TokenType = DefaultTokenType
	}
	if t.ExpiresAt != "" {
		expiresAt := t.ExpiresAt
		raw.ExpiresAt = &expiresAt
	}
	return json.Marshal(raw)
}

func (t *StoredToken) UnmarshalJSON(data []byte) error {
	var raw storedTokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = StoredToken{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		TokenType:    raw.TokenType,
		Scope:        raw.Scope,
		CreatedAt:    raw.CreatedAt,
	}
	if raw.ExpiresAt != nil {
		t.ExpiresAt = *raw.ExpiresAt
	}
	return nil
}

// IsTokenExpired reports whether tok must be treated as expired at now.
// A nil token, a missing or unparsable expiry, and an expiry within
// ExpiryBuffer of now all count as expired.
func IsTokenExpired(tok *StoredToken, now time.Time) bool {
	at, ok := tok.Expiry()
	if !ok {
		return true
	}
	return at.Sub(now) <= ExpiryBuffer
}
