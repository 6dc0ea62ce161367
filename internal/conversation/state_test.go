package conversation

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

func TestMerge_AppendsHistory(t *testing.T) {
	s := State{}.BeginTurn("hello")
	got := Merge(s, Update{Messages: []models.Message{models.AssistantMessage("hi")}})

	if len(got.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(got.History))
	}
	if len(s.History) != 1 {
		t.Errorf("Merge modified input history: len = %d", len(s.History))
	}
	if got.History[0].Kind != models.KindUser || got.History[1].Kind != models.KindAssistant {
		t.Errorf("History kinds = %s,%s", got.History[0].Kind, got.History[1].Kind)
	}
}

func TestMerge_IntentOverwrites(t *testing.T) {
	s := State{Intent: models.IntentGeneralChat}
	got := Merge(s, Update{Intent: models.Ptr(models.IntentCreateTask)})
	if got.Intent != models.IntentCreateTask {
		t.Errorf("Intent = %q, want %q", got.Intent, models.IntentCreateTask)
	}
	if same := Merge(got, Update{}); same.Intent != models.IntentCreateTask {
		t.Errorf("nil Intent update changed intent to %q", same.Intent)
	}
}

func TestMerge_DraftLaw(t *testing.T) {
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s := State{Draft: models.TaskDraft{Title: models.Ptr("call mom"), Priority: models.Ptr(models.PriorityLow)}}

	got := Merge(s, Update{Draft: &models.TaskDraft{Priority: models.Ptr(models.PriorityHigh), DueDate: &due}})
	want := models.TaskDraft{Title: models.Ptr("call mom"), Priority: models.Ptr(models.PriorityHigh), DueDate: &due}
	if diff := cmp.Diff(want, got.Draft); diff != "" {
		t.Errorf("Draft mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_ResetDraft(t *testing.T) {
	s := State{Draft: models.TaskDraft{Title: models.Ptr("x")}}
	got := Merge(s, Update{Draft: &models.TaskDraft{Title: models.Ptr("y")}, ResetDraft: true})
	if !got.Draft.Empty() {
		t.Errorf("Draft = %+v, want empty", got.Draft)
	}
}

func TestMerge_Ledger(t *testing.T) {
	s := State{}
	got := Merge(s, Update{Dispatched: []models.ToolResult{{Key: "k1", Content: "ok"}}})
	if _, ok := got.WasDispatched("k1"); !ok {
		t.Error("k1 not in ledger")
	}
	if s.Dispatched != nil {
		t.Error("Merge modified input ledger")
	}
}

func TestPendingInvocations(t *testing.T) {
	call := models.ActionInvocation{Key: "k1", Name: models.ActionCreateTask}

	tests := []struct {
		name  string
		state State
		want  int
	}{
		{"empty", State{}, 0},
		{"last is user", State{History: []models.Message{models.UserMessage("hi")}}, 0},
		{"assistant without calls", State{History: []models.Message{models.AssistantMessage("which priority?")}}, 0},
		{"assistant with call", State{History: []models.Message{models.AssistantMessage("", call)}}, 1},
		{
			"already dispatched",
			State{
				History:    []models.Message{models.AssistantMessage("", call)},
				Dispatched: map[string]models.ToolResult{"k1": {Key: "k1"}},
			},
			0,
		},
		{
			"tool result last",
			State{History: []models.Message{models.AssistantMessage("", call), models.ToolMessage(models.ToolResult{Key: "k1"})}},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.state.PendingInvocations()); got != tt.want {
				t.Errorf("len(PendingInvocations()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeDecode_SanitizesDraft(t *testing.T) {
	s := State{
		History: []models.Message{models.UserMessage("hi")},
		Intent:  models.IntentCreateTask,
		Draft: models.TaskDraft{
			Title:    models.Ptr("submit report"),
			Priority: models.Ptr(models.Priority("urgent")),
		},
		Turn: 3,
	}
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.Turn != 3 || got.Intent != models.IntentCreateTask || len(got.History) != 1 {
		t.Errorf("Decode() = %+v", got)
	}
	if got.Draft.Priority != nil {
		t.Errorf("invalid priority survived decode: %q", *got.Draft.Priority)
	}
	if got.Draft.Title == nil || *got.Draft.Title != "submit report" {
		t.Errorf("Title = %v, want kept", got.Draft.Title)
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("Decode(garbage) succeeded")
	}
	if _, err := Decode([]byte(`{"history":[{"kind":"robot"}]}`)); err == nil {
		t.Error("Decode(unknown kind) succeeded")
	}
}
