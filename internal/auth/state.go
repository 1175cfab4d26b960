package auth

import (
	"errors"
	"time"
)

// PollState is a state of the token polling state machine.
type PollState int

const (
	StatePolling PollState = iota
	StateSucceeded
	StateDenied
	StateExpired
	StateFailed
	StateCancelled
)

func (s PollState) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateDenied:
		return "denied"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the polling loop.
func (s PollState) Terminal() bool {
	return s != StatePolling
}

// PollUpdate is delivered to the poll observer after every classified response.
// Interval is the delay that will precede the next attempt.
type PollUpdate struct {
	Attempt  int
	State    PollState
	Interval time.Duration
	Code     string // server error code of the last response, empty on success
}

// StateOf maps the error returned by PollToken to the terminal state it represents.
func StateOf(err error) PollState {
	switch {
	case err == nil:
		return StateSucceeded
	case errors.Is(err, ErrCancelled):
		return StateCancelled
	case errors.Is(err, ErrAccessDenied):
		return StateDenied
	case errors.Is(err, ErrExpiredToken):
		return StateExpired
	default:
		return StateFailed
	}
}
