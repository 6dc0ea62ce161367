package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/internal/dates"
	"github.com/ShayCichocki/tasktalk/internal/taskstore"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// inFlight marks a ledger entry whose action started but has no recorded
// outcome yet.
const inFlight = `{"status":"in_flight"}`

// Dispatcher executes the pending action of a turn against the task store.
// Each invocation key is executed at most once per thread.
type Dispatcher struct {
	store    taskstore.Store
	recorder Recorder
	events   *EventEmitter
	logger   *DebugLogger
}

// NewDispatcher creates a Dispatcher. A nil logger discards debug lines.
func NewDispatcher(store taskstore.Store, logger *DebugLogger) *Dispatcher {
	return &Dispatcher{store: store, recorder: nopRecorder{}, logger: logger}
}

// ReserveFunc persists state carrying an in-flight ledger entry.
type ReserveFunc func(ctx context.Context, s conversation.State) error

type reserveKey struct{}

// WithReservation returns a context whose dispatches call fn before the store
// is touched. If fn fails the action is not attempted.
func WithReservation(ctx context.Context, fn ReserveFunc) context.Context {
	return context.WithValue(ctx, reserveKey{}, fn)
}

// Run dispatches the first pending invocation. Failures of the action itself
// are recorded as error results with an apology; only a failed reservation
// fails the node.
func (d *Dispatcher) Run(ctx context.Context, s conversation.State) (conversation.Update, error) {
	pending := s.PendingInvocations()
	if len(pending) == 0 {
		return conversation.Update{}, nil
	}
	if len(pending) > 1 {
		log.Printf("[dispatcher] %d invocations pending, running only %s", len(pending), pending[0].Name)
	}
	inv := pending[0]

	if reserve, ok := ctx.Value(reserveKey{}).(ReserveFunc); ok && reserve != nil {
		reserved := conversation.Merge(s, conversation.Update{Dispatched: []models.ToolResult{{
			Key:     inv.Key,
			Name:    inv.Name,
			Content: inFlight,
			IsError: true,
		}}})
		if err := reserve(ctx, reserved); err != nil {
			return conversation.Update{}, fmt.Errorf("reserve %s: %w", inv.Name, err)
		}
	}

	result, reply, err := d.dispatch(ctx, inv)
	d.recorder.ObserveDispatch(inv.Name, err)
	ev := Event{Type: EventActionDispatched, Action: inv.Name, Message: result.Content}
	if err != nil {
		log.Printf("[dispatcher] %v", err)
		ev.Type = EventActionFailed
		ev.Error = err
	}
	d.events.Emit(ev)

	u := conversation.Update{
		Messages: []models.Message{
			models.ToolMessage(result),
			models.AssistantMessage(reply),
		},
		Dispatched: []models.ToolResult{result},
	}
	if err == nil && inv.Name == models.ActionCreateTask {
		u.ResetDraft = true
	}
	return u, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, inv models.ActionInvocation) (models.ToolResult, string, error) {
	switch inv.Name {
	case models.ActionCreateTask:
		return d.create(ctx, inv)
	case models.ActionCompleteTask:
		return d.complete(ctx, inv)
	default:
		err := &models.DispatchError{Action: inv.Name, Err: fmt.Errorf("unknown action %q", inv.Name)}
		return errorResult(inv, err), "Sorry, I don't know how to do that.", err
	}
}

func (d *Dispatcher) create(ctx context.Context, inv models.ActionInvocation) (models.ToolResult, string, error) {
	task, err := taskFromArgs(inv.Args)
	if err == nil {
		err = task.Validate()
	}
	if err != nil {
		derr := &models.DispatchError{Action: inv.Name, Err: err}
		return errorResult(inv, derr), createFailedReply(err), derr
	}

	id, err := d.store.Create(ctx, task)
	if err != nil {
		derr := &models.DispatchError{Action: inv.Name, Err: err}
		return errorResult(inv, derr), createFailedReply(err), derr
	}
	d.logger.Log("[dispatcher] created task %s", id)

	content, _ := json.Marshal(struct {
		TaskCreated int    `json:"taskCreated"`
		ID          string `json:"id"`
	}{1, id})
	reply := fmt.Sprintf("Created %q (%s priority, due %s). Its ID is %s.",
		task.Title, task.Priority, dates.Human(task.DueDate), id)
	return models.ToolResult{Key: inv.Key, Name: inv.Name, Content: string(content)}, reply, nil
}

func (d *Dispatcher) complete(ctx context.Context, inv models.ActionInvocation) (models.ToolResult, string, error) {
	var args models.CompleteTaskArgs
	if err := json.Unmarshal(inv.Args, &args); err != nil || strings.TrimSpace(args.TaskID) == "" {
		derr := &models.DispatchError{Action: inv.Name, Err: models.ErrInvalidID}
		return errorResult(inv, derr), "I need the ID of the task to mark complete.", derr
	}
	id := strings.TrimSpace(args.TaskID)

	if err := d.store.CompleteByID(ctx, id); err != nil {
		derr := &models.DispatchError{Action: inv.Name, Err: err}
		var reply string
		switch {
		case errors.Is(err, models.ErrNotFound):
			reply = fmt.Sprintf("I couldn't find a task with ID %q.", id)
		case errors.Is(err, models.ErrInvalidID):
			reply = fmt.Sprintf("%q isn't a valid task ID.", id)
		default:
			reply = "Sorry, I couldn't update that task right now."
		}
		return errorResult(inv, derr), reply, derr
	}
	d.logger.Log("[dispatcher] completed task %s", id)

	return models.ToolResult{Key: inv.Key, Name: inv.Name, Content: `{"taskCompleted":1}`},
		fmt.Sprintf("Marked task %s as complete.", id), nil
}

// taskFromArgs builds a pending task from CREATE_TASK arguments.
func taskFromArgs(raw json.RawMessage) (models.Task, error) {
	var args models.CreateTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return models.Task{}, fmt.Errorf("decode arguments: %w", err)
	}
	task := models.Task{
		Title:       strings.TrimSpace(args.Title),
		Description: args.Description,
		Status:      models.TaskStatusPending,
	}
	if p, ok := models.ParsePriority(args.Priority); ok {
		task.Priority = p
	}
	if due, err := time.Parse(time.RFC3339, args.DueDate); err == nil {
		task.DueDate = due
	}
	return task, nil
}

func errorResult(inv models.ActionInvocation, err error) models.ToolResult {
	content, _ := json.Marshal(map[string]string{"error": err.Error()})
	return models.ToolResult{Key: inv.Key, Name: inv.Name, Content: string(content), IsError: true}
}

func createFailedReply(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("I couldn't create that task because these fields are missing or invalid: %s.", strings.Join(verr.Fields, ", "))
	}
	return "Sorry, I couldn't save that task right now."
}
