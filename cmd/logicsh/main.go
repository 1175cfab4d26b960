package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/browser"
	"github.com/waabox/logicsh/internal/config"
	"github.com/waabox/logicsh/internal/logging"
	"github.com/waabox/logicsh/internal/tui"
	"golang.org/x/term"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

const (
	appName = "Logic Shell"
	tagline = "A terminal based ai tool"
)

// app holds the process streams and collaborators every command shares.
// Tests build one around buffers instead of the real terminal.
type app struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
	now         func() time.Time
	openBrowser browser.Opener
	flowOpts    []auth.Option
}

// env is the resolved configuration for a single invocation.
type env struct {
	cfg        config.Config
	configPath string
	logger     zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
		now:         time.Now,
		openBrowser: browser.Open,
	}
	// Styled output goes to stderr, which may be a terminal even when stdout is not.
	if termenv.EnvNoColor() || !term.IsTerminal(int(os.Stderr.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stderr).EnvColorProfile())
	}

	err := a.run(ctx, os.Args[1:])
	stop()

	if msg := describe(err); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(exitCode(err))
}

// run parses the global flags and dispatches to a command.
func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logicsh", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "path to config file (default "+config.DefaultConfigPath()+")")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() { a.usage(fs) }
	if err := fs.Parse(args); err != nil {
		return usageErr(err)
	}
	if *showVersion {
		return a.version()
	}

	rest := fs.Args()
	if len(rest) == 0 {
		a.usage(fs)
		return &usageError{msg: "no command given"}
	}

	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadFrom(config.ExpandHome(path))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := cfg.LogLevel
	if *verbose {
		level = zerolog.LevelDebugValue
	}
	e := &env{
		cfg:        cfg,
		configPath: config.ExpandHome(path),
		logger:     logging.New(a.stderr, level),
	}
	e.logger.Debug().Str("config", e.configPath).Str("server_url", cfg.ServerURL).Msg("configuration loaded")

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "login":
		return a.login(ctx, e, cmdArgs)
	case "logout":
		return a.logout(e, cmdArgs)
	case "whoami":
		return a.whoami(ctx, e, cmdArgs)
	case "config":
		return a.configCmd(e, cmdArgs)
	case "version":
		return a.version()
	case "help":
		a.usage(fs)
		return nil
	default:
		return &usageError{msg: fmt.Sprintf("unknown command %q", cmd)}
	}
}

func (a *app) version() error {
	fmt.Fprintln(a.stdout, "logicsh", version)
	return nil
}

func (a *app) banner() {
	fmt.Fprint(a.stderr, tui.Title(figure.NewFigure(appName, "", true).String()))
	fmt.Fprintln(a.stderr, tui.Muted(tagline))
	fmt.Fprintln(a.stderr)
}

func (a *app) usage(fs *flag.FlagSet) {
	a.banner()
	fmt.Fprintln(a.stderr, "Usage: logicsh [--config PATH] [--verbose] <command> [flags]")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Commands:")
	fmt.Fprintln(a.stderr, "  login     authenticate this terminal with the device authorization flow")
	fmt.Fprintln(a.stderr, "  logout    remove the stored token")
	fmt.Fprintln(a.stderr, "  whoami    show the logged-in user")
	fmt.Fprintln(a.stderr, "  config    show or initialise the configuration file")
	fmt.Fprintln(a.stderr, "  version   print version")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Global flags:")
	fs.PrintDefaults()
}

// confirmFunc picks the prompt style: a bubbletea prompt on a terminal, line input otherwise.
func (a *app) confirmFunc(plain bool) tui.ConfirmFunc {
	if a.interactive && !plain {
		return tui.Confirm(a.stdin, a.stderr)
	}
	return tui.LineConfirm(a.stdin, a.stderr)
}

func (e *env) tokenManager(now func() time.Time) *auth.TokenManager {
	store := auth.NewFileStore(e.cfg.TokenPath(e.configPath))
	return auth.NewTokenManager(store, now, e.logger)
}

// parseFlags parses a command's flags, turning -h into a clean exit.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageErr(err)
	}
	if fs.NArg() > 0 {
		return &usageError{msg: fmt.Sprintf("%s: unexpected argument %q", fs.Name(), fs.Arg(0))}
	}
	return nil
}

func usageErr(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return &usageError{msg: err.Error()}
}
