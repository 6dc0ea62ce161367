package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tasktalk/internal/agent"
	"github.com/ShayCichocki/tasktalk/internal/checkpoint"
	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/internal/graph"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// TurnRequest is one user message on a thread.
type TurnRequest struct {
	ThreadID string
	// TurnID makes delivery idempotent. Repeating a TurnID returns the saved
	// reply, or resumes the turn if it was interrupted. Empty means a new
	// random id.
	TurnID string
	Text   string
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	Reply  string
	Intent models.Intent
	// Dispatched holds the actions executed during this turn.
	Dispatched []models.ToolResult
	// Err is the node failure the reply apologizes for, if any.
	Err error
	// Replayed is set when the reply came from a completed checkpoint.
	Replayed bool
}

// Assistant runs turns through the graph. Turns on the same thread are
// serialized; different threads run concurrently.
type Assistant struct {
	graph       *AssistantGraph
	checkpoints checkpoint.Saver
	dispatcher  *Dispatcher
	logger      *DebugLogger
	events      *EventEmitter
	recorder    Recorder

	mu      sync.Mutex
	threads map[string]*threadLock
}

// threadLock is dropped from Assistant.threads once no turn holds or waits
// for it.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an Assistant.
func New(req RequiredConfig, opts ...Option) (*Assistant, error) {
	if req.Oracle == nil || req.Store == nil || req.Checkpoints == nil {
		return nil, errors.New("oracle, store and checkpoints are required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	a := &Assistant{
		checkpoints: req.Checkpoints,
		logger:      o.logger,
		events:      o.events,
		recorder:    o.recorder,
		threads:     make(map[string]*threadLock),
	}
	a.dispatcher = NewDispatcher(req.Store, o.logger)
	a.dispatcher.recorder = o.recorder
	a.dispatcher.events = o.events

	g, err := BuildGraph(
		agent.NewClassifier(req.Oracle),
		agent.NewResponder(req.Oracle),
		agent.NewCollector(req.Oracle,
			agent.WithClock(o.now),
			agent.WithDescriptionAttempts(o.descriptionAttempts)),
		a.dispatcher,
		o.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	a.graph = g
	return a, nil
}

// Events returns the event channel, or nil when events are disabled.
func (a *Assistant) Events() <-chan Event {
	return a.events.Events()
}

// Turn handles one message and returns the reply.
func (a *Assistant) Turn(ctx context.Context, threadID, text string) (string, error) {
	res, err := a.Do(ctx, TurnRequest{ThreadID: threadID, Text: text})
	if err != nil {
		return "", err
	}
	return res.Reply, nil
}

// Do handles one turn. A node failure produces an apology reply with
// TurnResult.Err set; the returned error is reserved for failures to load or
// save the thread.
func (a *Assistant) Do(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.ThreadID) == "" {
		return nil, errors.New("thread id is required")
	}
	if req.TurnID == "" {
		req.TurnID = uuid.NewString()
	}
	unlock := a.lockThread(req.ThreadID)
	defer unlock()

	started := time.Now()
	s, lastNode := a.load(ctx, req.ThreadID)

	if s.TurnID == req.TurnID && s.TurnDone {
		a.events.Emit(Event{Type: EventTurnReplayed, ThreadID: req.ThreadID, TurnID: req.TurnID})
		a.recorder.ObserveTurn(s.Intent, outcomeReplayed, time.Since(started))
		return &TurnResult{
			Reply:      turnReply(s),
			Intent:     s.Intent,
			Dispatched: turnResults(s),
			Replayed:   true,
		}, nil
	}

	resuming := s.TurnID == req.TurnID
	if !resuming {
		if s.TurnID != "" && !s.TurnDone {
			a.logger.Log("[assistant] thread %s: abandoning interrupted turn %s", req.ThreadID, s.TurnID)
		}
		s = s.BeginTurn(req.Text)
		s.TurnID = req.TurnID
		s.TurnDone = false
		lastNode = graph.Start
		if err := a.save(ctx, req.ThreadID, graph.Start, s); err != nil {
			return nil, err
		}
	}
	a.events.Emit(Event{Type: EventTurnStarted, ThreadID: req.ThreadID, TurnID: req.TurnID, Message: req.Text})
	a.logger.Log("[assistant] thread %s turn %d (%s) resume=%v from=%s", req.ThreadID, s.Turn, req.TurnID, resuming, lastNode)

	hooks := a.hooks(ctx, req, &lastNode)
	runCtx := WithReservation(ctx, func(ctx context.Context, reserved conversation.State) error {
		return a.save(ctx, req.ThreadID, lastNode, reserved)
	})

	final, runErr := a.graph.Resume(runCtx, lastNode, s, hooks)

	res := &TurnResult{}
	outcome := outcomeOK
	if runErr != nil {
		log.Printf("[assistant] thread %s turn failed: %v", req.ThreadID, runErr)
		final = rollback(final, replyForError(runErr))
		res.Err = runErr
		outcome = outcomeFailed
		a.events.Emit(Event{Type: EventTurnFailed, ThreadID: req.ThreadID, TurnID: req.TurnID, Error: runErr})
	} else {
		final = ensureReply(final)
	}
	final.TurnDone = true
	if err := a.save(ctx, req.ThreadID, graph.End, final); err != nil {
		return nil, err
	}

	res.Reply = turnReply(final)
	res.Intent = final.Intent
	res.Dispatched = turnResults(final)
	a.recorder.ObserveTurn(final.Intent, outcome, time.Since(started))
	a.events.Emit(Event{
		Type:     EventTurnCompleted,
		ThreadID: req.ThreadID,
		TurnID:   req.TurnID,
		Intent:   final.Intent,
		Message:  res.Reply,
		Duration: time.Since(started),
	})
	return res, nil
}

// hooks checkpoint after every node and track the last completed one.
func (a *Assistant) hooks(ctx context.Context, req TurnRequest, lastNode *string) graph.Hooks[conversation.State] {
	var nodeStarted time.Time
	return graph.Hooks[conversation.State]{
		NodeStart: func(node string) {
			nodeStarted = time.Now()
			a.events.Emit(Event{Type: EventNodeStarted, ThreadID: req.ThreadID, TurnID: req.TurnID, Node: node})
		},
		NodeDone: func(node string, s conversation.State) error {
			if err := a.save(ctx, req.ThreadID, node, s); err != nil {
				return err
			}
			*lastNode = node
			a.events.Emit(Event{
				Type:     EventNodeCompleted,
				ThreadID: req.ThreadID,
				TurnID:   req.TurnID,
				Node:     node,
				Intent:   s.Intent,
				Duration: time.Since(nodeStarted),
			})
			return nil
		},
	}
}

// State returns the saved state of a thread.
func (a *Assistant) State(ctx context.Context, threadID string) conversation.State {
	s, _ := a.load(ctx, threadID)
	return s
}

// Reset forgets a thread.
func (a *Assistant) Reset(ctx context.Context, threadID string) error {
	unlock := a.lockThread(threadID)
	defer unlock()

	if err := a.checkpoints.Delete(ctx, threadID); err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
		return fmt.Errorf("reset thread %s: %w", threadID, err)
	}
	return nil
}

// load returns the thread's state and the last node saved for it. A missing
// or unreadable checkpoint starts an empty thread.
func (a *Assistant) load(ctx context.Context, threadID string) (conversation.State, string) {
	cp, err := a.checkpoints.Get(ctx, threadID)
	if err != nil {
		if !errors.Is(err, checkpoint.ErrNotFound) {
			log.Printf("[assistant] thread %s: load checkpoint: %v", threadID, err)
		}
		return conversation.State{}, graph.Start
	}
	s, err := conversation.Decode(cp.Data)
	if err != nil {
		log.Printf("[assistant] thread %s: discarding unreadable checkpoint: %v", threadID, err)
		return conversation.State{}, graph.Start
	}
	return s, cp.Node
}

func (a *Assistant) save(ctx context.Context, threadID, node string, s conversation.State) error {
	data, err := conversation.Encode(s)
	if err != nil {
		return err
	}
	cp := checkpoint.Checkpoint{
		ThreadID: threadID,
		Turn:     s.Turn,
		Node:     node,
		Data:     data,
		SavedAt:  time.Now(),
	}
	if err := a.checkpoints.Put(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint for thread %s: %w", threadID, err)
	}
	return nil
}

// lockThread serializes turns on one thread.
func (a *Assistant) lockThread(threadID string) func() {
	a.mu.Lock()
	l, ok := a.threads[threadID]
	if !ok {
		l = &threadLock{}
		a.threads[threadID] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.threads, threadID)
		}
		a.mu.Unlock()
	}
}
