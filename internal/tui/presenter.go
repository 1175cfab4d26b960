package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/browser"
	"github.com/waabox/logicsh/internal/config"
)

// Presenter shows a device grant to the user before polling starts.
type Presenter interface {
	Present(ctx context.Context, grant auth.DeviceGrant) error
}

// ConfirmFunc asks a yes/no question; def is the answer on empty input.
type ConfirmFunc func(prompt string, def bool) (bool, error)

// PlainPresenter writes the grant as plain lines, for non-interactive terminals
// and --plain. All output goes to Out, normally stderr.
type PlainPresenter struct {
	Out     io.Writer
	Policy  string // config.BrowserAsk, BrowserAlways or BrowserNever
	Open    browser.Opener
	Confirm ConfirmFunc
}

var _ Presenter = (*PlainPresenter)(nil)

// Present prints the verification URL and user code, then opens the browser
// according to Policy. A browser that fails to open is reported but not fatal.
func (p *PlainPresenter) Present(ctx context.Context, grant auth.DeviceGrant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintln(p.Out, Title("Device Authorization Required."))
	fmt.Fprintln(p.Out)
	fmt.Fprintf(p.Out, "Please visit: %s\n", urlStyle.Render(grant.VerificationURL()))
	fmt.Fprintf(p.Out, "Enter code:   %s\n", codeStyle.Render(grant.UserCode))
	fmt.Fprintln(p.Out)

	if p.shouldOpen() && p.Open != nil {
		if err := p.Open(grant.VerificationURL()); err != nil {
			fmt.Fprintln(p.Out, Warn(fmt.Sprintf("Could not open browser: %v", err)))
		}
	}

	fmt.Fprintln(p.Out, Muted(waitingLine(grant)))
	return nil
}

func (p *PlainPresenter) shouldOpen() bool {
	switch p.Policy {
	case config.BrowserAlways:
		return true
	case config.BrowserAsk:
		if p.Confirm == nil {
			return false
		}
		ok, err := p.Confirm("Open browser automatically?", true)
		return err == nil && ok
	default:
		return false
	}
}

// LineConfirm returns a ConfirmFunc that reads a y/n answer from in.
func LineConfirm(in io.Reader, out io.Writer) ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string, def bool) (bool, error) {
		hint := "[y/N]"
		if def {
			hint = "[Y/n]"
		}
		fmt.Fprintf(out, "%s %s ", prompt, hint)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return def, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

func waitingLine(grant auth.DeviceGrant) string {
	if grant.ExpiresIn <= 0 {
		return "Waiting for authorization..."
	}
	return fmt.Sprintf("Waiting for authorization (expires in %d minutes)...", int(grant.ExpiresIn.Minutes()))
}
