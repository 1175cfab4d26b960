package tui_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waabox/logicsh/internal/auth"
	"github.com/waabox/logicsh/internal/config"
	"github.com/waabox/logicsh/internal/tui"
)

var testGrant = auth.DeviceGrant{
	DeviceCode:      "dev_abc",
	UserCode:        "ABCD-1234",
	VerificationURI: "http://localhost:3000/device",
	Interval:        5 * time.Second,
	ExpiresIn:       30 * time.Minute,
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (tui.LoginModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(tui.LoginModel), cmd
}

func newLoginModel(policy string) (tui.LoginModel, *int, *int) {
	polls, opens := 0, 0
	m := tui.NewLoginModel(context.Background(), policy)
	m.OnRequestGrant = func(ctx context.Context) (auth.DeviceGrant, error) { return testGrant, nil }
	m.OnPollToken = func(ctx context.Context, g auth.DeviceGrant) (auth.TokenResponse, error) {
		polls++
		return auth.TokenResponse{AccessToken: "tok"}, nil
	}
	m.OnOpenBrowser = func(url string) error {
		opens++
		return nil
	}
	return m, &polls, &opens
}

// runCmd executes cmd and any batched commands, returning the produced messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestLogin_InitialViewShowsRequesting(t *testing.T) {
	m, _, _ := newLoginModel(config.BrowserNever)
	assert.Contains(t, m.View(), "Requesting device authorization")

	msgs := runCmd(m.Init())
	require.Len(t, msgs, 1)
	grantMsg, ok := msgs[0].(tui.GrantMsg)
	require.True(t, ok)
	assert.Equal(t, "ABCD-1234", grantMsg.Grant.UserCode)
}

func TestLogin_GrantShowsCodeAndStartsPolling(t *testing.T) {
	m, polls, opens := newLoginModel(config.BrowserNever)

	m, cmd := update(t, m, tui.GrantMsg{Grant: testGrant})
	view := m.View()
	assert.Contains(t, view, "ABCD-1234")
	assert.Contains(t, view, "http://localhost:3000/device")
	assert.Contains(t, view, "expires in 30 minutes")

	msgs := runCmd(cmd)
	assert.Equal(t, 1, *polls)
	assert.Equal(t, 0, *opens)
	require.Len(t, msgs, 1)

	next, quit := m.Update(msgs[0])
	require.NotNil(t, quit)
	token, err := next.(tui.LoginModel).Result()
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Contains(t, next.View(), "Authorized.")
}

func TestLogin_AskPolicyWaitsForAnswerBeforePolling(t *testing.T) {
	m, polls, opens := newLoginModel(config.BrowserAsk)

	m, cmd := update(t, m, tui.GrantMsg{Grant: testGrant})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Open browser automatically?")
	assert.Equal(t, 0, *polls)

	m, cmd = update(t, m, key("y"))
	runCmd(cmd)
	assert.Equal(t, 1, *opens)
	assert.Equal(t, 1, *polls)
	assert.NotContains(t, m.View(), "Open browser automatically?")
}

func TestLogin_AskPolicyDeclineSkipsBrowser(t *testing.T) {
	m, polls, opens := newLoginModel(config.BrowserAsk)
	m, _ = update(t, m, tui.GrantMsg{Grant: testGrant})

	_, cmd := update(t, m, key("n"))
	runCmd(cmd)
	assert.Equal(t, 0, *opens)
	assert.Equal(t, 1, *polls)
}

func TestLogin_AlwaysPolicyOpensBrowser(t *testing.T) {
	m, polls, opens := newLoginModel(config.BrowserAlways)
	_, cmd := update(t, m, tui.GrantMsg{Grant: testGrant})
	runCmd(cmd)
	assert.Equal(t, 1, *opens)
	assert.Equal(t, 1, *polls)
}

func TestLogin_PollUpdatesAreRendered(t *testing.T) {
	m, _, _ := newLoginModel(config.BrowserNever)
	m, _ = update(t, m, tui.GrantMsg{Grant: testGrant})

	m, _ = update(t, m, tui.PollUpdateMsg{Attempt: 2, State: auth.StatePolling, Interval: 10 * time.Second, Code: "slow_down"})
	view := m.View()
	assert.Contains(t, view, "attempt 2")
	assert.Contains(t, view, "slow down")
	assert.Contains(t, view, "10s")
}

func TestLogin_CtrlCCancels(t *testing.T) {
	m, _, _ := newLoginModel(config.BrowserNever)
	m, _ = update(t, m, tui.GrantMsg{Grant: testGrant})

	m, cmd := update(t, m, key("ctrl+c"))
	require.NotNil(t, cmd)
	_, err := m.Result()
	assert.ErrorIs(t, err, auth.ErrCancelled)
	assert.True(t, strings.Contains(m.View(), "Login cancelled."))
}

func TestLogin_TerminalErrorsAreReported(t *testing.T) {
	m, _, _ := newLoginModel(config.BrowserNever)
	m, _ = update(t, m, tui.GrantMsg{Grant: testGrant})

	m, _ = update(t, m, tui.PollResultMsg{Err: auth.ErrAccessDenied})
	_, err := m.Result()
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
	assert.Contains(t, m.View(), "Authorization failed")
}

func TestLogin_GrantErrorEndsWithoutPresenting(t *testing.T) {
	m, polls, _ := newLoginModel(config.BrowserNever)
	reqErr := &auth.RequestError{Kind: auth.KindEndpointNotFound, Status: 404}

	m, cmd := update(t, m, tui.GrantMsg{Err: reqErr})
	require.NotNil(t, cmd)
	_, err := m.Result()
	var got *auth.RequestError
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, 0, *polls)
	assert.NotContains(t, m.View(), "Enter code")
}

func TestLogin_ResultBeforeCompletionIsCancelled(t *testing.T) {
	m, _, _ := newLoginModel(config.BrowserNever)
	_, err := m.Result()
	assert.ErrorIs(t, err, auth.ErrCancelled)
}
