package orchestrator

import (
	"time"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// EventType represents the type of assistant event.
type EventType string

const (
	// EventTurnStarted indicates a user message was accepted for a thread.
	EventTurnStarted EventType = "turn_started"
	// EventTurnCompleted indicates the turn produced its reply.
	EventTurnCompleted EventType = "turn_completed"
	// EventTurnFailed indicates a node failed and the turn was rolled back.
	EventTurnFailed EventType = "turn_failed"
	// EventTurnReplayed indicates a repeated turn id returned the saved reply.
	EventTurnReplayed EventType = "turn_replayed"
	// EventNodeStarted indicates a graph node began running.
	EventNodeStarted EventType = "node_started"
	// EventNodeCompleted indicates a node's update was merged and saved.
	EventNodeCompleted EventType = "node_completed"
	// EventActionDispatched indicates an action ran against the task store.
	EventActionDispatched EventType = "action_dispatched"
	// EventActionFailed indicates an action was attempted and failed.
	EventActionFailed EventType = "action_failed"
)

// Event is emitted while a turn runs. Subscribers such as the TUI use it to
// show progress.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// ThreadID is the conversation the event belongs to.
	ThreadID string
	// TurnID identifies the turn.
	TurnID string
	// Node is the graph node, for node events.
	Node string
	// Intent is the classified intent, once known.
	Intent models.Intent
	// Action is the dispatched action, for action events.
	Action models.ActionName
	// TaskID is the created or completed task, if any.
	TaskID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time of the turn or node.
	Duration time.Duration
}
