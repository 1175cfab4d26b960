package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/config"
)

// GrantMsg carries the result of the device code request.
// It is exported so that tests can inject it directly into LoginModel.Update.
type GrantMsg struct {
	Grant auth.DeviceGrant
	Err   error
}

// PollUpdateMsg forwards a poll observer update into the program.
type PollUpdateMsg auth.PollUpdate

// PollResultMsg signals that polling reached a terminal state.
type PollResultMsg struct {
	Token auth.TokenResponse
	Err   error
}

// browserOpenedMsg is sent once the browser launch has been attempted.
type browserOpenedMsg struct {
	err error
}

// loginPhase indicates how far the login has progressed.
type loginPhase int

const (
	phaseRequesting loginPhase = iota
	phaseAskBrowser
	phasePolling
	phaseDone
)

// LoginModel drives one device authorization attempt: it requests the grant,
// shows it once, optionally opens the browser, then polls until a terminal state.
type LoginModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	policy string

	phase      loginPhase
	grant      auth.DeviceGrant
	last       auth.PollUpdate
	browserErr error
	token      auth.TokenResponse
	err        error

	// Callbacks (set by caller via exported fields)
	OnRequestGrant func(ctx context.Context) (auth.DeviceGrant, error)
	OnPollToken    func(ctx context.Context, grant auth.DeviceGrant) (auth.TokenResponse, error)
	OnOpenBrowser  func(url string) error
}

// NewLoginModel creates a LoginModel whose requests are bound to ctx.
// policy is one of config.BrowserAsk, BrowserAlways or BrowserNever.
func NewLoginModel(ctx context.Context, policy string) LoginModel {
	ctx, cancel := context.WithCancel(ctx)
	return LoginModel{
		ctx:    ctx,
		cancel: cancel,
		policy: policy,
	}
}

// Init triggers the device code request.
func (m LoginModel) Init() tea.Cmd {
	return m.requestGrant()
}

func (m LoginModel) requestGrant() tea.Cmd {
	return func() tea.Msg {
		grant, err := m.OnRequestGrant(m.ctx)
		return GrantMsg{Grant: grant, Err: err}
	}
}

func (m LoginModel) pollToken() tea.Cmd {
	return func() tea.Msg {
		token, err := m.OnPollToken(m.ctx, m.grant)
		return PollResultMsg{Token: token, Err: err}
	}
}

func (m LoginModel) openBrowser() tea.Cmd {
	if m.OnOpenBrowser == nil {
		return nil
	}
	url := m.grant.VerificationURL()
	return func() tea.Msg {
		return browserOpenedMsg{err: m.OnOpenBrowser(url)}
	}
}

// Update handles all incoming messages and key events.
func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case GrantMsg:
		if msg.Err != nil {
			return m.finish(auth.TokenResponse{}, msg.Err)
		}
		m.grant = msg.Grant
		m.last = auth.PollUpdate{State: auth.StatePolling, Interval: msg.Grant.Interval}
		switch m.policy {
		case config.BrowserAlways:
			m.phase = phasePolling
			return m, tea.Batch(m.openBrowser(), m.pollToken())
		case config.BrowserAsk:
			m.phase = phaseAskBrowser
			return m, nil
		default:
			m.phase = phasePolling
			return m, m.pollToken()
		}

	case browserOpenedMsg:
		m.browserErr = msg.err

	case PollUpdateMsg:
		m.last = auth.PollUpdate(msg)

	case PollResultMsg:
		return m.finish(msg.Token, msg.Err)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m.finish(auth.TokenResponse{}, auth.ErrCancelled)
		}
		if m.phase == phaseAskBrowser {
			switch msg.String() {
			case "y", "Y", "enter":
				m.phase = phasePolling
				return m, tea.Batch(m.openBrowser(), m.pollToken())
			case "n", "N":
				m.phase = phasePolling
				return m, m.pollToken()
			}
		}
	}
	return m, nil
}

func (m LoginModel) finish(token auth.TokenResponse, err error) (tea.Model, tea.Cmd) {
	if m.phase == phaseDone {
		return m, nil
	}
	m.cancel()
	m.phase = phaseDone
	m.token = token
	m.err = err
	return m, tea.Quit
}

// Result returns the outcome of the login attempt. A model that never reached a
// terminal state reports auth.ErrCancelled.
func (m LoginModel) Result() (auth.TokenResponse, error) {
	if m.phase != phaseDone {
		return auth.TokenResponse{}, auth.ErrCancelled
	}
	return m.token, m.err
}

// View renders the login screen.
func (m LoginModel) View() string {
	header := " " + Title("Logic Shell: Device Authorization") + "\n"

	var b strings.Builder
	b.WriteString("\n")
	switch {
	case m.phase == phaseRequesting:
		b.WriteString(" Requesting device authorization...\n")
	case m.phase == phaseDone && m.grant.UserCode == "":
		// nothing was presented; the caller reports the error
	default:
		fmt.Fprintf(&b, " Please visit:  %s\n", urlStyle.Render(m.grant.VerificationURL()))
		fmt.Fprintf(&b, " Enter code:    %s\n\n", codeStyle.Render(m.grant.UserCode))
		if m.browserErr != nil {
			b.WriteString(" " + Warn(fmt.Sprintf("Could not open browser: %v", m.browserErr)) + "\n\n")
		}
		b.WriteString(" " + m.statusLine() + "\n")
	}
	b.WriteString("\n")

	footer := " Press ctrl+c to cancel\n"
	if m.phase == phaseAskBrowser {
		footer = " Open browser automatically? [Y/n]\n"
	}
	if m.phase == phaseDone {
		footer = ""
	}
	return header + separator + b.String() + separator + footer
}

func (m LoginModel) statusLine() string {
	switch m.phase {
	case phaseAskBrowser:
		return Muted(waitingLine(m.grant))
	case phaseDone:
		switch auth.StateOf(m.err) {
		case auth.StateSucceeded:
			return Success("Authorized.")
		case auth.StateCancelled:
			return Warn("Login cancelled.")
		default:
			return Error(fmt.Sprintf("Authorization failed: %v", m.err))
		}
	}
	line := waitingLine(m.grant)
	if m.last.Attempt > 0 {
		line += fmt.Sprintf("  attempt %d, next check in %s", m.last.Attempt, m.last.Interval)
	}
	if m.last.Code == "slow_down" {
		line += "\n " + Warn(fmt.Sprintf("Server asked to slow down; polling every %s.", m.last.Interval))
	}
	return Muted(line)
}

// RunLogin runs model on the given terminal streams and returns the final model.
// bind is called with the program before it starts so poll updates can be sent to it.
// Cancelling ctx stops the program; the returned model then reports auth.ErrCancelled.
func RunLogin(ctx context.Context, model LoginModel, in io.Reader, out io.Writer, bind func(*tea.Program)) (LoginModel, error) {
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if bind != nil {
		bind(p)
	}
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return model, fmt.Errorf("running login screen: %w", err)
	}
	if m, ok := final.(LoginModel); ok {
		return m, nil
	}
	return model, nil
}
