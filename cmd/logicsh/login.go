package main

import (
	"context"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/config"
	"github.com/waabox/logicsh/internal/tui"
)

type loginOptions struct {
	serverURL   string
	clientID    string
	openBrowser string
	plain       bool
}

func (a *app) login(ctx context.Context, e *env, args []string) error {
	var opts loginOptions
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&opts.serverURL, "server-url", "", "server base URL (overrides server_url)")
	fs.StringVar(&opts.clientID, "client-id", "", "OAuth client id (overrides client_id)")
	fs.StringVar(&opts.openBrowser, "open-browser", "", "open the verification page: ask, always or never")
	fs.BoolVar(&opts.plain, "plain", false, "print plain lines instead of the interactive screen")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	applyLoginOptions(&e.cfg, opts)
	if err := e.cfg.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}

	tm := e.tokenManager(a.now)
	if _, err := tm.RequireAuth(); err == nil {
		again, err := a.confirmFunc(opts.plain)("You are already logged in. Log in again?", false)
		if err != nil || !again {
			fmt.Fprintln(a.stderr, tui.Muted("Keeping the current session."))
			return nil
		}
	}

	authBase, err := e.cfg.AuthBaseURL()
	if err != nil {
		return &usageError{msg: fmt.Sprintf("invalid auth path: %v", err)}
	}
	e.logger.Debug().Str("auth_base", authBase).Str("client_id", e.cfg.ClientID).Msg("starting device authorization")

	var token auth.TokenResponse
	if a.interactive && !opts.plain {
		token, err = a.loginInteractive(ctx, e, authBase)
	} else {
		token, err = a.loginPlain(ctx, e, authBase)
	}
	if err != nil {
		return err
	}

	if _, err := tm.Persist(token); err != nil {
		return err
	}
	fmt.Fprintln(a.stderr, tui.Success("Logged in successfully."))
	e.logger.Debug().Str("token_file", e.cfg.TokenPath(e.configPath)).Msg("login complete")
	return nil
}

func applyLoginOptions(cfg *config.Config, opts loginOptions) {
	if opts.serverURL != "" {
		cfg.ServerURL = opts.serverURL
	}
	if opts.clientID != "" {
		cfg.ClientID = opts.clientID
	}
	if opts.openBrowser != "" {
		cfg.OpenBrowser = opts.openBrowser
	}
}

func (a *app) newFlow(e *env, authBase string, observer func(auth.PollUpdate)) *auth.DeviceFlow {
	opts := []auth.Option{
		auth.WithClock(a.now),
		auth.WithLogger(e.logger),
		auth.WithObserver(observer),
		auth.WithExpiryEnforcement(e.cfg.EnforceExpiry),
	}
	return auth.NewDeviceFlow(e.cfg.ClientID, authBase, append(opts, a.flowOpts...)...)
}

// loginPlain presents the grant as plain lines on stderr and polls in the foreground.
func (a *app) loginPlain(ctx context.Context, e *env, authBase string) (auth.TokenResponse, error) {
	flow := a.newFlow(e, authBase, func(u auth.PollUpdate) {
		if u.Code == "slow_down" {
			fmt.Fprintln(a.stderr, tui.Warn(fmt.Sprintf("Server asked to slow down; polling every %s.", u.Interval)))
		}
	})

	grant, err := flow.RequestGrant(ctx, e.cfg.Scope)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	presenter := &tui.PlainPresenter{
		Out:     a.stderr,
		Policy:  e.cfg.OpenBrowser,
		Open:    a.openBrowser,
		Confirm: a.confirmFunc(true),
	}
	if err := presenter.Present(ctx, grant); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("%w: %w", auth.ErrCancelled, err)
	}
	return flow.PollToken(ctx, grant)
}

// loginInteractive runs the bubbletea login screen. Poll updates reach the screen
// through Program.Send.
func (a *app) loginInteractive(ctx context.Context, e *env, authBase string) (auth.TokenResponse, error) {
	a.banner()

	var program *tea.Program
	flow := a.newFlow(e, authBase, func(u auth.PollUpdate) {
		program.Send(tui.PollUpdateMsg(u))
	})

	model := tui.NewLoginModel(ctx, e.cfg.OpenBrowser)
	model.OnRequestGrant = func(ctx context.Context) (auth.DeviceGrant, error) {
		return flow.RequestGrant(ctx, e.cfg.Scope)
	}
	model.OnPollToken = flow.PollToken
	model.OnOpenBrowser = a.openBrowser

	final, err := tui.RunLogin(ctx, model, a.stdin, a.stderr, func(p *tea.Program) { program = p })
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return final.Result()
}
