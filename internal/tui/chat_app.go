package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/tasktalk/internal/orchestrator"
)

// Turner runs one conversation turn.
type Turner interface {
	Turn(ctx context.Context, threadID, text string) (string, error)
}

// ReplyMsg carries the outcome of a turn back to the UI.
type ReplyMsg struct {
	Text string
	Err  error
}

// EventMsg wraps an orchestrator event.
type EventMsg struct {
	Event orchestrator.Event
}

type speaker int

const (
	speakerUser speaker = iota
	speakerAgent
	speakerError
)

type chatLine struct {
	from speaker
	text string
}

// ChatApp is the bubbletea model for a chat session on one thread.
type ChatApp struct {
	ctx      context.Context
	turner   Turner
	threadID string

	header     *Header
	input      *InputField
	transcript viewport.Model
	spinner    spinner.Model

	lines    []chatLine
	activity string
	pending  bool
	quitting bool
	width    int
	height   int

	userStyle     lipgloss.Style
	agentStyle    lipgloss.Style
	errorStyle    lipgloss.Style
	activityStyle lipgloss.Style
}

// NewChatApp creates a ChatApp that sends turns to t.
func NewChatApp(ctx context.Context, t Turner, threadID string) *ChatApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	return &ChatApp{
		ctx:        ctx,
		turner:     t,
		threadID:   threadID,
		header:     NewHeader(threadID),
		input:      NewInputField(),
		transcript: viewport.New(80, 20),
		spinner:    sp,

		userStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		agentStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
		errorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		activityStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
	}
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return a.input.Focus()
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "pgup", "pgdown":
			var cmd tea.Cmd
			a.transcript, cmd = a.transcript.Update(msg)
			return a, cmd
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case MessageSubmittedMsg:
		if strings.EqualFold(msg.Text, "exit") {
			a.quitting = true
			return a, tea.Quit
		}
		if a.pending {
			return a, nil
		}
		a.append(speakerUser, msg.Text)
		a.pending = true
		a.activity = ""
		return a, tea.Batch(a.spinner.Tick, a.runTurn(msg.Text))

	case ReplyMsg:
		a.pending = false
		if msg.Err != nil {
			a.append(speakerError, msg.Err.Error())
		} else {
			a.append(speakerAgent, msg.Text)
		}
		return a, nil

	case EventMsg:
		if s := describeEvent(msg.Event); s != "" {
			a.activity = s
		}
		return a, nil

	case spinner.TickMsg:
		if !a.pending {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *ChatApp) runTurn(text string) tea.Cmd {
	ctx, threadID, t := a.ctx, a.threadID, a.turner
	return func() tea.Msg {
		reply, err := t.Turn(ctx, threadID, text)
		return ReplyMsg{Text: reply, Err: err}
	}
}

func (a *ChatApp) append(from speaker, text string) {
	a.lines = append(a.lines, chatLine{from: from, text: text})
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *ChatApp) renderTranscript() string {
	width := a.transcript.Width
	if width <= 0 {
		width = 80
	}
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, l := range a.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch l.from {
		case speakerUser:
			b.WriteString(body.Render(a.userStyle.Render("YOU: ") + l.text))
		case speakerAgent:
			b.WriteString(body.Render(a.agentStyle.Render("AGENT: ") + l.text))
		case speakerError:
			b.WriteString(body.Render(a.errorStyle.Render("error: " + l.text)))
		}
	}
	return b.String()
}

// updateSizes lays out header, transcript, activity strip and input.
func (a *ChatApp) updateSizes() {
	a.header.SetWidth(a.width)
	a.input.SetWidth(a.width)

	// header 2, activity 1, input 3
	h := a.height - 6
	if h < 3 {
		h = 3
	}
	a.transcript.Width = a.width
	a.transcript.Height = h
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return "Exiting the agent. Goodbye!\n"
	}

	activity := ""
	if a.pending {
		activity = a.spinner.View() + " " + a.activityStyle.Render(orDefault(a.activity, "thinking..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.header.View(),
		a.transcript.View(),
		activity,
		a.input.View(),
	)
}

func describeEvent(e orchestrator.Event) string {
	switch e.Type {
	case orchestrator.EventNodeStarted:
		return "running " + e.Node
	case orchestrator.EventNodeCompleted:
		if e.Intent != "" {
			return fmt.Sprintf("%s done (%s)", e.Node, e.Intent)
		}
		return e.Node + " done"
	case orchestrator.EventActionDispatched:
		if e.TaskID != "" {
			return fmt.Sprintf("%s %s", e.Action, e.TaskID)
		}
		return string(e.Action)
	case orchestrator.EventActionFailed:
		return fmt.Sprintf("%s failed: %v", e.Action, e.Error)
	case orchestrator.EventTurnCompleted:
		return "replied in " + e.Duration.Round(time.Millisecond).String()
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
