package auth

import "time"

// DeviceCodeGrantType is the grant_type sent on every token poll (RFC 8628 section 3.4).
const DeviceCodeGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// DefaultInterval is used when the server omits the polling interval.
const DefaultInterval = 5 * time.Second

// SlowDownIncrement is added to the polling interval each time the server answers slow_down.
const SlowDownIncrement = 5 * time.Second

// DefaultScope is the permission list requested when none is configured.
const DefaultScope = "openid profile email"

// DeviceGrant holds the result of a device authorization request.
// It lives for the duration of one login attempt only.
type DeviceGrant struct {
	DeviceCode              string // sent to the server only, never shown to the user
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	Interval                time.Duration // always > 0
	ExpiresIn               time.Duration
	IssuedAt                time.Time
	ExpiresAt               time.Time
}

// VerificationURL returns the URL the user should visit, preferring the plain
// verification URI and falling back to the complete one.
func (g DeviceGrant) VerificationURL() string {
	if g.VerificationURI != "" {
		return g.VerificationURI
	}
	return g.VerificationURIComplete
}

// TokenResponse holds the tokens returned after successful authorization.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int // seconds; 0 means the server did not say
}
