package tui_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waabox/logicsh/internal/config"
	"github.com/waabox/logicsh/internal/tui"
)

func TestPlainPresenter_WritesCodeAndURL(t *testing.T) {
	var out bytes.Buffer
	p := &tui.PlainPresenter{Out: &out, Policy: config.BrowserNever}

	require.NoError(t, p.Present(context.Background(), testGrant))
	text := out.String()
	assert.Contains(t, text, "Device Authorization Required.")
	assert.Contains(t, text, "http://localhost:3000/device")
	assert.Contains(t, text, "ABCD-1234")
	assert.Contains(t, text, "expires in 30 minutes")
	assert.NotContains(t, text, "dev_abc", "the device code is never shown")
}

func TestPlainPresenter_BrowserPolicy(t *testing.T) {
	cases := []struct {
		name      string
		policy    string
		answer    bool
		wantOpens int
		wantAsks  int
	}{
		{"never", config.BrowserNever, true, 0, 0},
		{"always", config.BrowserAlways, false, 1, 0},
		{"ask yes", config.BrowserAsk, true, 1, 1},
		{"ask no", config.BrowserAsk, false, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var opened []string
			asks := 0
			p := &tui.PlainPresenter{
				Out:    &bytes.Buffer{},
				Policy: tc.policy,
				Open: func(url string) error {
					opened = append(opened, url)
					return nil
				},
				Confirm: func(prompt string, def bool) (bool, error) {
					asks++
					return tc.answer, nil
				},
			}
			require.NoError(t, p.Present(context.Background(), testGrant))
			assert.Len(t, opened, tc.wantOpens)
			assert.Equal(t, tc.wantAsks, asks)
		})
	}
}

func TestPlainPresenter_BrowserFailureIsNotFatal(t *testing.T) {
	var out bytes.Buffer
	p := &tui.PlainPresenter{
		Out:    &out,
		Policy: config.BrowserAlways,
		Open:   func(string) error { return errors.New("no display") },
	}
	require.NoError(t, p.Present(context.Background(), testGrant))
	assert.Contains(t, out.String(), "Could not open browser: no display")
}

func TestPlainPresenter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &tui.PlainPresenter{Out: &bytes.Buffer{}, Policy: config.BrowserNever}
	assert.ErrorIs(t, p.Present(ctx, testGrant), context.Canceled)
}
