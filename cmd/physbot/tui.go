package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/physbot/pkg/engine"
)

const (
	appTitle    = "⚛️  Ask Your Physics Question"
	thinkingMsg = "🤔 Thinking like a physicist..."
	inputHeight = 3
)

// questionHandler is the part of the engine the TUI needs.
type questionHandler interface {
	Handle(ctx context.Context, raw string) engine.Reply
}

// replyMsg carries a finished Handle call back into the update loop.
type replyMsg struct {
	question string
	reply    engine.Reply
}

// appModel is the root bubbletea model. At most one question is in flight;
// the input is blurred until its reply arrives.
type appModel struct {
	ctx      context.Context
	handler  questionHandler
	input    textarea.Model
	spinner  spinner.Model
	busy     bool
	question string
	width    int
}

func newAppModel(ctx context.Context, h questionHandler) appModel {
	ta := textarea.New()
	ta.Placeholder = "e.g. What is Newton's second law?"
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = spinnerStyle

	return appModel{
		ctx:     ctx,
		handler: h,
		input:   ta,
		spinner: sp,
	}
}

func (m appModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(max(msg.Width-2, 10))
		initMarkdownRenderer(msg.Width - 4)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		m.busy = false
		m.question = ""
		focus := m.input.Focus()
		return m, tea.Batch(tea.Println(renderExchange(msg.question, msg.reply, m.width)), focus)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if msg.Alt || m.busy {
			break
		}
		return m.submit()
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input to the handler and locks the input.
func (m appModel) submit() (tea.Model, tea.Cmd) {
	question := m.input.Value()
	m.input.Reset()
	m.input.Blur()
	m.busy = true
	m.question = question

	ctx, h := m.ctx, m.handler
	ask := func() tea.Msg {
		return replyMsg{question: question, reply: h.Handle(ctx, question)}
	}

	return m, tea.Batch(m.spinner.Tick, ask)
}

func (m appModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(appTitle))
	sb.WriteString("\n\n")

	if m.busy {
		sb.WriteString(m.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(dimStyle.Render(thinkingMsg))
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("enter: ask • alt+enter: newline • esc: quit"))
	return sb.String()
}

// renderExchange formats a question and its reply for the scrollback.
func renderExchange(question string, reply engine.Reply, width int) string {
	q := strings.TrimSpace(question)
	if width > 0 {
		q = truncate(q, width-12)
	}
	return userBlockStyle.Render(userPrefixStyle.Render("🧑 You > ")+q) + "\n" + renderReply(reply) + "\n"
}
