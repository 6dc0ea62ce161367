package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/tasktalk/internal/orchestrator"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

type stubTurner struct {
	gotThread string
	gotText   string
	reply     string
	err       error
}

func (s *stubTurner) Turn(_ context.Context, threadID, text string) (string, error) {
	s.gotThread = threadID
	s.gotText = text
	return s.reply, s.err
}

func TestChatApp_SubmitRunsTurn(t *testing.T) {
	turner := &stubTurner{reply: "Hello there!"}
	app := NewChatApp(context.Background(), turner, "7")
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	_, cmd := app.Update(MessageSubmittedMsg{Text: "hi"})
	if cmd == nil {
		t.Fatal("expected a command to run the turn")
	}
	if !app.pending {
		t.Error("app should be pending while the turn runs")
	}

	// A second submit while pending is ignored.
	if _, cmd := app.Update(MessageSubmittedMsg{Text: "again"}); cmd != nil {
		t.Error("submit while pending should be ignored")
	}

	reply := app.runTurn("hi")()
	if turner.gotThread != "7" || turner.gotText != "hi" {
		t.Errorf("turn called with (%q, %q)", turner.gotThread, turner.gotText)
	}
	app.Update(reply)

	if app.pending {
		t.Error("pending should clear after the reply")
	}
	if len(app.lines) != 2 || app.lines[1].from != speakerAgent || app.lines[1].text != "Hello there!" {
		t.Errorf("unexpected transcript %+v", app.lines)
	}
	view := app.View()
	if !strings.Contains(view, "YOU: ") || !strings.Contains(view, "Hello there!") {
		t.Errorf("view missing transcript:\n%s", view)
	}
}

func TestChatApp_ReplyError(t *testing.T) {
	app := NewChatApp(context.Background(), &stubTurner{}, "1")
	app.Update(MessageSubmittedMsg{Text: "hi"})
	app.Update(ReplyMsg{Err: errors.New("checkpoint store down")})

	last := app.lines[len(app.lines)-1]
	if last.from != speakerError || !strings.Contains(last.text, "checkpoint store down") {
		t.Errorf("expected error line, got %+v", last)
	}
}

func TestChatApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"exit typed", MessageSubmittedMsg{Text: "Exit"}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewChatApp(context.Background(), &stubTurner{}, "1")
			_, cmd := app.Update(tt.msg)
			if !app.quitting {
				t.Error("quitting should be set")
			}
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("expected tea.QuitMsg, got %T", cmd())
			}
			if !strings.Contains(app.View(), "Goodbye") {
				t.Error("quit view should say goodbye")
			}
		})
	}
}

func TestChatApp_Events(t *testing.T) {
	app := NewChatApp(context.Background(), &stubTurner{}, "1")
	app.Update(MessageSubmittedMsg{Text: "add gym"})

	app.Update(EventMsg{Event: orchestrator.Event{Type: orchestrator.EventNodeStarted, Node: "TaskAgent"}})
	if app.activity != "running TaskAgent" {
		t.Errorf("activity = %q", app.activity)
	}

	// Events without a description keep the previous activity.
	app.Update(EventMsg{Event: orchestrator.Event{Type: orchestrator.EventTurnStarted}})
	if app.activity != "running TaskAgent" {
		t.Errorf("activity = %q", app.activity)
	}
	if !strings.Contains(app.View(), "running TaskAgent") {
		t.Error("view should show the activity while pending")
	}
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		name string
		e    orchestrator.Event
		want string
	}{
		{"node done with intent", orchestrator.Event{Type: orchestrator.EventNodeCompleted, Node: "IntentClassifier", Intent: models.IntentCreateTask}, "IntentClassifier done (create_task)"},
		{"dispatched", orchestrator.Event{Type: orchestrator.EventActionDispatched, Action: models.ActionCreateTask, TaskID: "abc"}, "CREATE_TASK abc"},
		{"failed", orchestrator.Event{Type: orchestrator.EventActionFailed, Action: models.ActionCompleteTask, Error: models.ErrNotFound}, "MARK_TASK_COMPLETE failed: task not found"},
		{"turn done", orchestrator.Event{Type: orchestrator.EventTurnCompleted, Duration: 1234567 * time.Microsecond}, "replied in 1.235s"},
		{"ignored", orchestrator.Event{Type: orchestrator.EventTurnStarted}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeEvent(tt.e); got != tt.want {
				t.Errorf("describeEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}
