package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/domain"
	"github.com/waabox/logicsh/internal/tui"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

// usageError is a bad command line. It exits with exitUsage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

var (
	// errHelp is returned after -h printed the usage text.
	errHelp = errors.New("help requested")

	// errNotLoggedIn is returned by logout when there is nothing to remove.
	errNotLoggedIn = errors.New("not logged in")
)

// exitCode maps the error returned by a command to the process exit status.
func exitCode(err error) int {
	var usage *usageError
	switch {
	case err == nil, errors.Is(err, errHelp):
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.Is(err, auth.ErrCancelled), errors.Is(err, context.Canceled):
		return exitCancelled
	default:
		return exitFailure
	}
}

// describe renders err for the terminal. It returns "" when nothing should be printed.
func describe(err error) string {
	var (
		usage    *usageError
		reqErr   *auth.RequestError
		srvErr   *auth.ServerError
		trErr    *auth.TransportError
		storeErr *auth.StorageError
	)
	switch {
	case err == nil, errors.Is(err, errHelp):
		return ""
	case errors.As(err, &usage):
		return tui.Error("Error: "+usage.msg) + "\nRun 'logicsh help' for usage."
	case errors.Is(err, auth.ErrCancelled), errors.Is(err, context.Canceled):
		return tui.Warn("Login cancelled.")
	case errors.Is(err, errNotLoggedIn):
		return tui.Warn("You are not logged in.")
	case errors.Is(err, auth.ErrNotAuthenticated):
		return tui.Error("Not authenticated.") + " Run " + tui.Emphasis("logicsh login") + " to sign in."
	case errors.Is(err, auth.ErrSessionExpired), errors.Is(err, domain.ErrUnauthorized):
		return tui.Error("Your session has expired.") + " Run " + tui.Emphasis("logicsh login") + " to sign in again."
	case errors.Is(err, auth.ErrMissingClientID):
		return tui.Error("No client id configured.") + " Set client_id in the config file or LOGICSH_CLIENT_ID."
	case errors.Is(err, auth.ErrAccessDenied):
		return tui.Error("Authorization was denied.")
	case errors.Is(err, auth.ErrExpiredToken):
		return tui.Error("The device code expired before it was approved.") + " Run " + tui.Emphasis("logicsh login") + " to try again."
	case errors.As(err, &reqErr):
		return describeRequestError(reqErr)
	case errors.As(err, &srvErr):
		return tui.Error(fmt.Sprintf("Authorization failed: %v", srvErr))
	case errors.As(err, &trErr):
		return tui.Error(fmt.Sprintf("Could not reach the authorization server: %v", trErr.Err))
	case errors.As(err, &storeErr):
		return tui.Error(fmt.Sprintf("Could not %s token file %s: %v", storeErr.Op, storeErr.Path, storeErr.Err))
	default:
		return tui.Error(fmt.Sprintf("Error: %v", err))
	}
}

func describeRequestError(err *auth.RequestError) string {
	switch err.Kind {
	case auth.KindEndpointNotFound:
		return tui.Error("Device authorization endpoint not found (HTTP 404).") +
			"\nCheck that the server is running and server_url points at it."
	case auth.KindBadRequest:
		detail := err.Description
		if detail == "" {
			detail = err.Code
		}
		msg := "The server rejected the device authorization request (HTTP 400)."
		if detail != "" {
			msg += " " + detail
		}
		return tui.Error(msg) + "\nCheck client_id and scope in the config file."
	default:
		return tui.Error(fmt.Sprintf("Failed to start device authorization: %v", err))
	}
}
