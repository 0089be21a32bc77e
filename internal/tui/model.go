package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/index"
)

// AskPort is the TUI-facing subset of the coordinator.
type AskPort interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
	Stats() domain.Stats
}

type answerMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	coordinator AskPort
	timeout     time.Duration
	input       textinput.Model
	viewport    viewport.Model
	answer      domain.Answer
	status      string
	intro       string
	waiting     bool
	ready       bool
}

// New creates a new chat model. The intro line typically carries the
// ingest report.
func New(coordinator AskPort, intro string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return Model{
		coordinator: coordinator,
		timeout:     timeout,
		input:       ti,
		viewport:    vp,
		intro:       intro,
		status:      "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			if errors.Is(msg.err, index.ErrEmptyIndex) {
				m.status = "No documents indexed yet. Ingest some files first."
			} else {
				m.status = "Error: " + msg.err.Error()
			}
			m.answer = msg.answer
		} else {
			stats := m.coordinator.Stats()
			m.status = fmt.Sprintf("Answered %q using %d sources (%d segments indexed)",
				msg.question, len(msg.answer.Sources), stats.SegmentCount)
			m.answer = msg.answer
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, m.ask(q)
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	coordinator := m.coordinator
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := coordinator.Ask(ctx, question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document QA")
	intro := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.intro)
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + intro + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer.Text == "" && len(m.answer.Sources) == 0 {
		return "Ask a question about the ingested documents."
	}
	var sb strings.Builder
	sb.WriteString(m.answer.Text)
	if len(m.answer.Sources) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(sourceHeaderStyle.Render("Sources"))
		for i, src := range m.answer.Sources {
			origin := src.Segment.Metadata.FileName
			if src.Segment.Metadata.Section != "" {
				origin += ", " + src.Segment.Metadata.Section
			}
			sb.WriteString(fmt.Sprintf("\n%d. [%.3f] %s", i+1, src.Score, origin))
			snippet := src.Segment.Text
			if runes := []rune(snippet); len(runes) > 160 {
				snippet = string(runes[:160]) + "…"
			}
			sb.WriteString("\n   " + snippetStyle.Render(snippet))
		}
	}
	return sb.String()
}

var (
	answerBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	snippetStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
