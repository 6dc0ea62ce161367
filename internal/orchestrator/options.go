package orchestrator

import (
	"time"

	"github.com/ShayCichocki/tasktalk/internal/agent"
	"github.com/ShayCichocki/tasktalk/internal/checkpoint"
	"github.com/ShayCichocki/tasktalk/internal/taskstore"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Oracle is every model operation the graph needs.
type Oracle interface {
	agent.IntentOracle
	agent.ChatOracle
	agent.TaskOracle
}

// Recorder receives turn and dispatch measurements.
type Recorder interface {
	ObserveTurn(intent models.Intent, outcome string, d time.Duration)
	ObserveDispatch(action models.ActionName, err error)
}

// RequiredConfig contains the minimal required configuration for an Assistant.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Oracle answers classification, chat and task extraction requests.
	Oracle Oracle
	// Store receives CREATE_TASK and MARK_TASK_COMPLETE actions.
	Store taskstore.Store
	// Checkpoints persists conversation state per thread.
	Checkpoints checkpoint.Saver
}

// Option configures an Assistant. Use With* functions to create Options.
type Option func(*assistantOptions)

// assistantOptions holds all optional configuration.
type assistantOptions struct {
	now                 func() time.Time
	descriptionAttempts int
	logger              *DebugLogger
	events              *EventEmitter
	recorder            Recorder
}

func defaultOptions() *assistantOptions {
	return &assistantOptions{
		now:                 time.Now,
		descriptionAttempts: agent.DefaultDescriptionAttempts,
		recorder:            nopRecorder{},
	}
}

// WithClock sets the clock used to resolve relative due dates.
func WithClock(now func() time.Time) Option {
	return func(o *assistantOptions) { o.now = now }
}

// WithDescriptionAttempts sets how often a description is regenerated.
func WithDescriptionAttempts(n int) Option {
	return func(o *assistantOptions) { o.descriptionAttempts = n }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *assistantOptions) { o.logger = l }
}

// WithEvents enables event delivery through e.
func WithEvents(e *EventEmitter) Option {
	return func(o *assistantOptions) { o.events = e }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *assistantOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(models.Intent, string, time.Duration) {}
func (nopRecorder) ObserveDispatch(models.ActionName, error)        {}
