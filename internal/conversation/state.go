// Package conversation holds the per-thread conversation state and the merge
// rules graph nodes use to change it.
package conversation

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// State is everything remembered about one thread between turns.
type State struct {
	// History is append-only.
	History []models.Message `json:"history"`
	// Intent is the latest classification, overwritten each turn.
	Intent models.Intent `json:"intent,omitempty"`
	// Draft accumulates task fields across turns.
	Draft models.TaskDraft `json:"draft"`
	// Turn counts user messages seen on this thread.
	Turn int `json:"turn"`
	// TurnID identifies the latest turn request. TurnDone is set once that
	// turn has produced its reply.
	TurnID   string `json:"turn_id,omitempty"`
	TurnDone bool   `json:"turn_done,omitempty"`
	// Dispatched records every invocation key already executed, with its result.
	Dispatched map[string]models.ToolResult `json:"dispatched,omitempty"`
}

// Update is what a node asks to change. Nil fields leave state untouched.
type Update struct {
	Messages   []models.Message
	Intent     *models.Intent
	Draft      *models.TaskDraft
	ResetDraft bool
	Dispatched []models.ToolResult
}

// Merge applies u to s and returns the new state. s is not modified.
//
//   - Messages are appended.
//   - Intent overwrites.
//   - Draft is shallow-merged field by field.
//   - ResetDraft clears the draft after the merge.
//   - Dispatched entries are added to the ledger.
func Merge(s State, u Update) State {
	out := s
	out.History = AppendMessages(s.History, u.Messages)
	if u.Intent != nil {
		out.Intent = *u.Intent
	}
	out.Draft = MergeDraft(s.Draft, u.Draft, u.ResetDraft)
	out.Dispatched = MergeLedger(s.Dispatched, u.Dispatched)
	return out
}

// AppendMessages returns a new slice with msgs after history.
func AppendMessages(history, msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(history)+len(msgs))
	out = append(out, history...)
	return append(out, msgs...)
}

// MergeDraft shallow-merges update into draft, then clears it if reset is set.
func MergeDraft(draft models.TaskDraft, update *models.TaskDraft, reset bool) models.TaskDraft {
	if reset {
		return models.TaskDraft{}
	}
	if update == nil {
		return draft
	}
	return draft.Merge(*update)
}

// MergeLedger returns a copy of ledger with results added by key.
func MergeLedger(ledger map[string]models.ToolResult, results []models.ToolResult) map[string]models.ToolResult {
	if len(results) == 0 {
		return ledger
	}
	out := make(map[string]models.ToolResult, len(ledger)+len(results))
	maps.Copy(out, ledger)
	for _, r := range results {
		out[r.Key] = r
	}
	return out
}

// BeginTurn appends the user's message and advances the turn counter.
func (s State) BeginTurn(text string) State {
	out := Merge(s, Update{Messages: []models.Message{models.UserMessage(text)}})
	out.Turn = s.Turn + 1
	return out
}

// LastUserText returns the content of the most recent user message.
func (s State) LastUserText() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Kind == models.KindUser {
			return s.History[i].Content
		}
	}
	return ""
}

// LastReply returns the content of the most recent assistant message.
func (s State) LastReply() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Kind == models.KindAssistant && s.History[i].Content != "" {
			return s.History[i].Content
		}
	}
	return ""
}

// PendingInvocations returns the invocations on the last message if it is an
// assistant message, skipping any already in the dispatch ledger.
func (s State) PendingInvocations() []models.ActionInvocation {
	if len(s.History) == 0 {
		return nil
	}
	last := s.History[len(s.History)-1]
	switch last.Kind {
	case models.KindAssistant:
		var pending []models.ActionInvocation
		for _, call := range last.ToolCalls {
			if _, done := s.Dispatched[call.Key]; !done {
				pending = append(pending, call)
			}
		}
		return pending
	case models.KindUser, models.KindSystem, models.KindTool:
		return nil
	default:
		return nil
	}
}

// WasDispatched reports whether key is in the ledger.
func (s State) WasDispatched(key string) (models.ToolResult, bool) {
	r, ok := s.Dispatched[key]
	return r, ok
}

// Encode serializes the state for a checkpoint.
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode restores a checkpoint. Draft fields that fail the task schema are
// dropped and messages of unknown kind are rejected.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	for i, m := range s.History {
		if !m.Kind.Valid() {
			return State{}, fmt.Errorf("decode state: message %d has unknown kind %q", i, m.Kind)
		}
	}
	if s.Intent != "" && !s.Intent.Valid() {
		s.Intent = ""
	}
	s.Draft, _ = s.Draft.Sanitize()
	return s, nil
}
