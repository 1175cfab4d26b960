package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingClientID is returned by RequestGrant when no client id is configured.
	ErrMissingClientID = errors.New("client id is not set")

	// ErrAccessDenied is returned when the user rejects the authorization request.
	ErrAccessDenied = errors.New("access denied by user")

	// ErrExpiredToken is returned when the device code expires before approval.
	ErrExpiredToken = errors.New("device code expired")

	// ErrCancelled is returned when polling is interrupted by the caller.
	ErrCancelled = errors.New("authorization cancelled")

	// ErrNotAuthenticated means no token is stored on disk.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired means a token is stored but is past (or inside the buffer of) its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrTokenNotFound is returned by a TokenStore when there is nothing to load or delete.
	ErrTokenNotFound = errors.New("token not found")
)

// RequestErrorKind classifies a failed device code request.
type RequestErrorKind int

const (
	KindUnknown RequestErrorKind = iota
	KindEndpointNotFound
	KindBadRequest
)

func (k RequestErrorKind) String() string {
	switch k {
	case KindEndpointNotFound:
		return "endpoint not found"
	case KindBadRequest:
		return "bad request"
	default:
		return "unknown"
	}
}

// RequestError is returned by RequestGrant. Every RequestError is fatal.
type RequestError struct {
	Kind        RequestErrorKind
	Status      int    // HTTP status, 0 when the request never got a response
	Code        string // server "error" field, if any
	Description string // server "error_description" field, if any
	Err         error
}

func (e *RequestError) Error() string {
	msg := "device authorization request failed: " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	switch {
	case e.Description != "":
		msg += ": " + e.Description
	case e.Code != "":
		msg += ": " + e.Code
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }

// ServerError is a terminal poll failure declared by the authorization server
// with an error code the client does not handle.
type ServerError struct {
	Code        string
	Description string
}

func (e *ServerError) Error() string {
	code := e.Code
	if len(code) > 100 {
		code = code[:100]
	}
	if e.Description != "" {
		return fmt.Sprintf("authorization server error %s: %s", code, e.Description)
	}
	return "authorization server error " + code
}

// TransportError is a terminal poll failure caused by the network or an unreadable response.
// It is not retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "polling token: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// StorageError reports a failed read, write or delete of the token file.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s token file %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
