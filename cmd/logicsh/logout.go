package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/tui"
)

func (a *app) logout(e *env, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	tm := e.tokenManager(a.now)
	if _, err := tm.Current(); err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return errNotLoggedIn
		}
		return err
	}

	if !*yes {
		ok, err := a.confirmFunc(false)("Are you sure you want to logout?", false)
		if err != nil || !ok {
			fmt.Fprintln(a.stderr, tui.Muted("Logout cancelled."))
			return nil
		}
	}

	// The session is over from the user's point of view even if the file stays behind.
	if err := tm.Clear(); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		e.logger.Warn().Err(err).Msg("could not remove token file")
		fmt.Fprintln(a.stderr, tui.Warn(fmt.Sprintf("Warning: could not remove token file: %v", err)))
	}
	fmt.Fprintln(a.stderr, tui.Success("Logged out successfully."))
	return nil
}
