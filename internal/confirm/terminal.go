package confirm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
	yesStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type keyMap struct {
	Yes key.Binding
	No  key.Binding
}

var defaultKeys = keyMap{
	Yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:  key.NewBinding(key.WithKeys("n", "N", "esc", "ctrl+c", "q"), key.WithHelp("n", "no")),
}

type timeoutMsg struct{}

// promptModel is a single yes/no question rendered by bubbletea.
type promptModel struct {
	question Question
	timeout  time.Duration
	keys     keyMap
	decision Decision
}

func newPromptModel(q Question, timeout time.Duration) promptModel {
	return promptModel{question: q, timeout: timeout, keys: defaultKeys}
}

func (m promptModel) Init() tea.Cmd {
	if m.timeout <= 0 {
		return nil
	}
	return tea.Tick(m.timeout, func(time.Time) tea.Msg { return timeoutMsg{} })
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.decision != "" {
		return m, nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.decision = DecisionConfirmed
			return m, tea.Quit
		case key.Matches(msg, m.keys.No):
			m.decision = DecisionDeclined
			return m, tea.Quit
		}
	case timeoutMsg:
		m.decision = DecisionTimedOut
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.question.Message))
	b.WriteString("\n")

	switch m.decision {
	case DecisionConfirmed:
		b.WriteString(yesStyle.Render("confirmed"))
	case DecisionDeclined:
		b.WriteString(noStyle.Render("declined"))
	case DecisionTimedOut:
		b.WriteString(noStyle.Render("no answer, treating as declined"))
	default:
		hint := fmt.Sprintf("[%s/%s] %s", m.keys.Yes.Help().Key, m.keys.No.Help().Key, strings.Join(m.question.Options, " / "))
		if m.timeout > 0 {
			hint += fmt.Sprintf(" (times out after %s)", m.timeout)
		}
		b.WriteString(hintStyle.Render(hint))
	}
	b.WriteString("\n")
	return b.String()
}

// Terminal asks the question on an interactive terminal.
type Terminal struct {
	In      io.Reader
	Out     io.Writer
	Timeout time.Duration
}

// NewTerminal returns a Terminal bound to the process stdin and stderr.
func NewTerminal(timeout time.Duration) *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr, Timeout: timeout}
}

// Ask implements Asker. A reply that is already known (for example from a
// command line flag) is honoured without prompting.
func (t *Terminal) Ask(ctx context.Context, q Question, reply *Reply) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	if reply != nil {
		return Answer{Decision: ParseAnswer(reply.Answer)}, nil
	}
	if len(q.Options) == 0 {
		q.Options = DefaultOptions
	}

	p := tea.NewProgram(newPromptModel(q, t.Timeout),
		tea.WithContext(ctx),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
	)
	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Answer{}, ctxErr
	}
	if err != nil {
		return Answer{}, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || m.decision == "" {
		return Answer{Decision: DecisionDeclined, Reason: "prompt closed without an answer"}, nil
	}
	answer := Answer{Decision: m.decision}
	if m.decision == DecisionTimedOut {
		answer.Reason = fmt.Sprintf("no answer within %s", t.Timeout)
	}
	return answer, nil
}
