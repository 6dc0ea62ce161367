package orchestrator

import (
	"context"
	"errors"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

const (
	replyUnclassified = "Sorry, I couldn't tell what you wanted. Could you rephrase that?"
	replyTimeout      = "Sorry, that took too long. Please try again."
	replyFailed       = "Sorry, something went wrong on my side. Please try again."
	replyUnknown      = "I'm not sure how to help with that. I can chat, create tasks and mark tasks complete."
	replyUncertain    = "I started that action but can't confirm it finished. Please check before asking again."
)

// Turn outcomes reported to the Recorder.
const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeReplayed = "replayed"
)

// replyForError maps a failed turn to what the user sees.
func replyForError(err error) string {
	var (
		cerr *models.ClassificationError
		terr *models.OracleTimeoutError
	)
	switch {
	case errors.As(err, &cerr):
		return replyUnclassified
	case errors.As(err, &terr), errors.Is(err, context.DeadlineExceeded):
		return replyTimeout
	default:
		return replyFailed
	}
}

// turnStart is the index of the latest user message, or -1.
func turnStart(s conversation.State) int {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Kind == models.KindUser {
			return i
		}
	}
	return -1
}

// turnReply is the last assistant text after the latest user message.
func turnReply(s conversation.State) string {
	start := turnStart(s)
	for i := len(s.History) - 1; i > start; i-- {
		if m := s.History[i]; m.Kind == models.KindAssistant && m.Content != "" {
			return m.Content
		}
	}
	return ""
}

// turnResults returns the tool results recorded during the latest turn.
func turnResults(s conversation.State) []models.ToolResult {
	var out []models.ToolResult
	for i := turnStart(s) + 1; i < len(s.History); i++ {
		if r := s.History[i].Result; r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// ensureReply appends a fallback reply when the turn ended silently.
func ensureReply(s conversation.State) conversation.State {
	if turnReply(s) != "" {
		return s
	}
	text := replyUnknown
	if hasUnfinishedAction(s) {
		text = replyUncertain
	}
	return conversation.Merge(s, conversation.Update{Messages: []models.Message{models.AssistantMessage(text)}})
}

// hasUnfinishedAction reports whether an action of the latest turn was
// reserved but never recorded a result.
func hasUnfinishedAction(s conversation.State) bool {
	for i := turnStart(s) + 1; i < len(s.History); i++ {
		for _, call := range s.History[i].ToolCalls {
			if r, ok := s.WasDispatched(call.Key); ok && r.Content == inFlight {
				return true
			}
		}
	}
	return false
}

// rollback drops everything the failed turn appended after the user message
// and closes the turn with reply. The dispatch ledger is kept.
func rollback(s conversation.State, reply string) conversation.State {
	out := s
	if start := turnStart(s); start >= 0 {
		out.History = append([]models.Message(nil), s.History[:start+1]...)
	}
	return conversation.Merge(out, conversation.Update{Messages: []models.Message{models.AssistantMessage(reply)}})
}
