package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel is a single yes/no question.
type ConfirmModel struct {
	prompt    string
	def       bool
	answer    bool
	answered  bool
	cancelled bool
}

// NewConfirmModel creates a ConfirmModel. def is chosen when the user presses enter.
func NewConfirmModel(prompt string, def bool) ConfirmModel {
	return ConfirmModel{prompt: prompt, def: def}
}

func (m ConfirmModel) Init() tea.Cmd { return nil }

// Update handles y/n/enter and cancellation keys.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.answered = true, true
	case "n", "N":
		m.answer, m.answered = false, true
	case "enter":
		m.answer, m.answered = m.def, true
	case "esc", "q", "ctrl+c":
		m.cancelled = true
	default:
		return m, nil
	}
	return m, tea.Quit
}

// View renders the question, or the chosen answer once the user has replied.
func (m ConfirmModel) View() string {
	if m.answered {
		answer := "No"
		if m.answer {
			answer = "Yes"
		}
		return fmt.Sprintf("%s %s\n", m.prompt, Muted(answer))
	}
	if m.cancelled {
		return ""
	}
	hint := "[y/N]"
	if m.def {
		hint = "[Y/n]"
	}
	return fmt.Sprintf("%s %s ", m.prompt, Muted(hint))
}

// Answer reports the user's choice. cancelled is true when the user aborted.
func (m ConfirmModel) Answer() (answer bool, cancelled bool) {
	if !m.answered {
		return false, true
	}
	return m.answer, false
}

// Confirm runs a ConfirmModel on the given terminal streams.
// An aborted prompt counts as "no".
func Confirm(in io.Reader, out io.Writer) ConfirmFunc {
	return func(prompt string, def bool) (bool, error) {
		p := tea.NewProgram(NewConfirmModel(prompt, def), tea.WithInput(in), tea.WithOutput(out))
		final, err := p.Run()
		if err != nil {
			return false, fmt.Errorf("running prompt: %w", err)
		}
		answer, cancelled := final.(ConfirmModel).Answer()
		if cancelled {
			return false, nil
		}
		return answer, nil
	}
}
