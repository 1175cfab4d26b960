// internal/domain/errors.go
package domain

import "errors"

// ErrUnauthorized is returned by the API client when the server rejects the stored
// token (HTTP 401/403, or no session behind it).
// Callers can check for it using errors.Is to ask the user to log in again.
var ErrUnauthorized = errors.New("unauthorized")
