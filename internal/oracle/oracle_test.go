package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// scriptedProvider replays responses and errors in order.
type scriptedProvider struct {
	mu       sync.Mutex
	steps    []step
	requests []Request
}

type step struct {
	resp  *Response
	err   error
	block bool
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Invoke(ctx context.Context, req Request) (*Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	if len(p.steps) == 0 {
		p.mu.Unlock()
		return nil, errors.New("no scripted response")
	}
	s := p.steps[0]
	p.steps = p.steps[1:]
	p.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.resp, s.err
}

func toolResponse(name string, args any) step {
	data, _ := json.Marshal(args)
	return step{resp: &Response{ToolCalls: []ToolCall{{ID: "call_1", Name: name, Args: data}}, Usage: Usage{InputTokens: 10, OutputTokens: 5}}}
}

func testOracle(p Provider) *Oracle {
	return New(p, Config{Timeout: time.Second, MaxAttempts: 3, InitialBackoff: time.Millisecond})
}

var history = []models.Message{models.UserMessage("hi, how are you?")}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		step    step
		want    models.Intent
		wantErr bool
	}{
		{"general chat", toolResponse(toolClassifyIntent, IntentArgs{Intent: "general_chat"}), models.IntentGeneralChat, false},
		{"create task", toolResponse(toolClassifyIntent, IntentArgs{Intent: "create_task"}), models.IntentCreateTask, false},
		{"outside enum", toolResponse(toolClassifyIntent, IntentArgs{Intent: "order_pizza"}), "", true},
		{"undeclared coarse label", toolResponse(toolClassifyIntent, IntentArgs{Intent: "task_management"}), "", true},
		{"wrong case", toolResponse(toolClassifyIntent, IntentArgs{Intent: "GENERAL_CHAT"}), "", true},
		{"no tool call", step{resp: &Response{Text: "general_chat?"}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{steps: []step{tt.step}}
			got, err := testOracle(p).Classify(context.Background(), history)
			if tt.wantErr {
				var cerr *models.ClassificationError
				if !errors.As(err, &cerr) {
					t.Fatalf("Classify() error = %v, want *ClassificationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
			req := p.requests[0]
			if req.ToolChoice != ToolChoiceRequired || len(req.Tools) != 1 {
				t.Errorf("classify request not forced to a single tool: %+v", req)
			}
		})
	}
}

func TestExtractTaskAction(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		toolResponse(string(models.ActionCreateTask), models.CreateTaskArgs{Title: "submit the report", Priority: "high", DueDate: "2024-03-15"}),
		{resp: &Response{Text: "What priority should it have?"}},
	}}
	o := testOracle(p)
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

	ex, err := o.ExtractTaskAction(context.Background(), history, now)
	if err != nil {
		t.Fatalf("ExtractTaskAction() error: %v", err)
	}
	if !ex.HasAction() || ex.Action != models.ActionCreateTask {
		t.Fatalf("Action = %q, want CREATE_TASK", ex.Action)
	}
	var args models.CreateTaskArgs
	if err := json.Unmarshal(ex.Args, &args); err != nil || args.Title != "submit the report" {
		t.Errorf("Args = %s, err = %v", ex.Args, err)
	}
	if !strings.Contains(p.requests[0].System, "THU") {
		t.Errorf("system prompt missing weekday: %s", p.requests[0].System)
	}

	ex, err = o.ExtractTaskAction(context.Background(), history, now)
	if err != nil {
		t.Fatalf("ExtractTaskAction() error: %v", err)
	}
	if ex.HasAction() || ex.Text != "What priority should it have?" {
		t.Errorf("Extraction = %+v, want clarifying text", ex)
	}
}

func TestReviewTask(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		toolResponse(toolReviewTask, ReviewArgs{Title: "call mom", Sufficient: false, Missing: []string{"priority", "dueDate"}}),
	}}
	r, err := testOracle(p).ReviewTask(context.Background(), history, time.Now())
	if err != nil {
		t.Fatalf("ReviewTask() error: %v", err)
	}
	if r.Sufficient || len(r.Missing) != 2 || r.Fields.Title != "call mom" {
		t.Errorf("Review = %+v", r)
	}
}

func TestDescribe(t *testing.T) {
	want := "Prepare and submit the quarterly report to finance before the end of the business day"
	p := &scriptedProvider{steps: []step{toolResponse(toolWriteDescription, DescriptionArgs{Description: " " + want + " "})}}
	got, err := testOracle(p).Describe(context.Background(), DescribeInput{Title: "submit the report", Priority: "high", Due: "2024-03-15"})
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestInvoke_RetriesTransient(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &ProviderError{Provider: "scripted", Kind: ProviderErrorKindOverloaded}},
		{err: &ProviderError{Provider: "scripted", Kind: ProviderErrorKindRateLimitExceeded}},
		{resp: &Response{Text: "hello there"}},
	}}
	o := testOracle(p)
	got, err := o.Converse(context.Background(), history)
	if err != nil {
		t.Fatalf("Converse() error: %v", err)
	}
	if got != "hello there" || len(p.requests) != 3 {
		t.Errorf("Converse() = %q after %d calls", got, len(p.requests))
	}
	if o.Tracker().Calls() != 1 {
		t.Errorf("Tracker().Calls() = %d, want 1", o.Tracker().Calls())
	}
}

func TestInvoke_DoesNotRetryPermanent(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &ProviderError{Provider: "scripted", Kind: ProviderErrorKindAuth}},
		{resp: &Response{Text: "unreachable"}},
	}}
	_, err := testOracle(p).Converse(context.Background(), history)
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != ProviderErrorKindAuth {
		t.Fatalf("Converse() error = %v, want auth ProviderError", err)
	}
	if len(p.requests) != 1 {
		t.Errorf("provider called %d times, want 1", len(p.requests))
	}
}

func TestInvoke_Timeout(t *testing.T) {
	p := &scriptedProvider{steps: []step{{block: true}}}
	o := New(p, Config{Timeout: 20 * time.Millisecond, MaxAttempts: 1})

	_, err := o.Classify(context.Background(), history)
	var terr *models.OracleTimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("Classify() error = %v, want *OracleTimeoutError", err)
	}
	if terr.Op != "classify" {
		t.Errorf("Op = %q, want classify", terr.Op)
	}
}

func TestTranscript(t *testing.T) {
	call := models.ActionInvocation{Key: "k", Name: models.ActionCreateTask, Args: json.RawMessage(`{"title":"x"}`)}
	hist := []models.Message{
		models.SystemMessage("be brief"),
		models.UserMessage("create a task"),
		models.UserMessage("high priority"),
		models.AssistantMessage("", call),
		models.ToolMessage(models.ToolResult{Key: "k", Name: models.ActionCreateTask, Content: `{"taskCreated":1}`}),
		models.AssistantMessage("Done!"),
	}

	turns, system := Transcript(hist)
	if len(system) != 1 || system[0] != "be brief" {
		t.Errorf("system = %v", system)
	}
	wantRoles := []Role{RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	if len(turns) != len(wantRoles) {
		t.Fatalf("len(turns) = %d, want %d: %+v", len(turns), len(wantRoles), turns)
	}
	for i, r := range wantRoles {
		if turns[i].Role != r {
			t.Errorf("turns[%d].Role = %s, want %s", i, turns[i].Role, r)
		}
	}
	if !strings.Contains(turns[0].Text, "high priority") {
		t.Errorf("consecutive user turns not joined: %q", turns[0].Text)
	}
	if !strings.Contains(turns[1].Text, "CREATE_TASK") {
		t.Errorf("tool call not rendered: %q", turns[1].Text)
	}
}

func TestTranscript_StartsWithUser(t *testing.T) {
	turns, _ := Transcript([]models.Message{models.AssistantMessage("welcome back")})
	if len(turns) != 2 || turns[0].Role != RoleUser {
		t.Errorf("turns = %+v, want a leading user turn", turns)
	}
}
