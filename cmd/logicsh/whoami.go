package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/waabox/logicsh/internal/api"
	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/domain"
)

func (a *app) whoami(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	serverURL := fs.String("server-url", "", "server base URL (overrides server_url)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *serverURL != "" {
		e.cfg.ServerURL = *serverURL
	}
	if err := e.cfg.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}

	tok, err := e.tokenManager(a.now).RequireAuth()
	if err != nil {
		return err
	}

	user, err := api.NewClient(ctx, e.cfg.ServerURL, tok.OAuth2Token()).CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return fmt.Errorf("%w: %w", auth.ErrSessionExpired, err)
		}
		return fmt.Errorf("fetching current user: %w", err)
	}

	if user.Name != "" {
		fmt.Fprintf(a.stdout, "Name:  %s\n", user.Name)
	}
	fmt.Fprintf(a.stdout, "Email: %s\n", user.Email)
	fmt.Fprintf(a.stdout, "ID:    %s\n", user.ID)
	return nil
}
