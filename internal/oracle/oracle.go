package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Observer receives per-call measurements. The metrics package implements it.
type Observer interface {
	ObserveOracleCall(op string, d time.Duration, err error)
	ObserveTokens(provider string, input, output int64)
}

// Config bounds every oracle call.
type Config struct {
	// Timeout bounds one operation including retries.
	Timeout time.Duration
	// MaxAttempts is the number of tries for transient provider errors.
	MaxAttempts uint
	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration
	// MaxTokens caps each response.
	MaxTokens int
}

// DefaultConfig returns the bounds used when none are configured.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxTokens:      1024,
	}
}

// Oracle runs the structured operations the conversation graph needs.
type Oracle struct {
	provider Provider
	cfg      Config
	tracker  *TokenTracker
	observer Observer
}

// New creates an Oracle over provider. Zero fields in cfg take defaults.
func New(provider Provider, cfg Config) *Oracle {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &Oracle{provider: provider, cfg: cfg, tracker: NewTokenTracker()}
}

// SetObserver attaches a metrics observer.
func (o *Oracle) SetObserver(obs Observer) {
	o.observer = obs
}

// Tracker returns the token tracker for this oracle.
func (o *Oracle) Tracker() *TokenTracker {
	return o.tracker
}

// Extraction is the task stage's view of the model's answer: either a
// clarifying reply or one action with arguments.
type Extraction struct {
	Text   string
	Action models.ActionName
	Args   json.RawMessage
}

// HasAction reports whether the model requested an action.
func (e *Extraction) HasAction() bool {
	return e.Action != ""
}

// Review is the companion review output.
type Review struct {
	Fields     ReviewArgs
	Sufficient bool
	Missing    []string
}

// Classify maps the latest user message to an intent. A label outside the
// enumeration yields a *models.ClassificationError.
func (o *Oracle) Classify(ctx context.Context, history []models.Message) (models.Intent, error) {
	resp, err := o.invoke(ctx, "classify", o.request(classifyPrompt, history, []ToolSpec{classifyTool()}, ToolChoiceRequired))
	if err != nil {
		return "", err
	}
	var args IntentArgs
	call, ok := findCall(resp, toolClassifyIntent)
	if !ok {
		return "", &models.ClassificationError{Label: strings.TrimSpace(resp.Text)}
	}
	if err := json.Unmarshal(call.Args, &args); err != nil {
		return "", &models.ClassificationError{Label: string(call.Args)}
	}
	return models.ParseIntent(args.Intent)
}

// Converse produces a free-text reply.
func (o *Oracle) Converse(ctx context.Context, history []models.Message) (string, error) {
	resp, err := o.invoke(ctx, "converse", o.request(conversePrompt, history, nil, ToolChoiceAuto))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("converse: empty reply")
	}
	return text, nil
}

// ExtractTaskAction asks the model for either a clarifying reply or one action.
func (o *Oracle) ExtractTaskAction(ctx context.Context, history []models.Message, now time.Time) (*Extraction, error) {
	resp, err := o.invoke(ctx, "extract", o.request(extractPrompt(now), history, ActionTools(), ToolChoiceAuto))
	if err != nil {
		return nil, err
	}
	ex := &Extraction{Text: strings.TrimSpace(resp.Text)}
	for _, call := range resp.ToolCalls {
		switch models.ActionName(call.Name) {
		case models.ActionCreateTask, models.ActionCompleteTask:
			ex.Action = models.ActionName(call.Name)
			ex.Args = call.Args
			if len(resp.ToolCalls) > 1 {
				log.Printf("[oracle] model returned %d tool calls, using %s", len(resp.ToolCalls), call.Name)
			}
			return ex, nil
		}
	}
	return ex, nil
}

// ReviewTask extracts every known task field and a sufficiency verdict.
func (o *Oracle) ReviewTask(ctx context.Context, history []models.Message, now time.Time) (*Review, error) {
	resp, err := o.invoke(ctx, "review", o.request(reviewPrompt(now), history, []ToolSpec{reviewTool()}, ToolChoiceRequired))
	if err != nil {
		return nil, err
	}
	call, ok := findCall(resp, toolReviewTask)
	if !ok {
		return nil, errors.New("review: model did not call review_task")
	}
	var args ReviewArgs
	if err := json.Unmarshal(call.Args, &args); err != nil {
		return nil, fmt.Errorf("review: decode arguments: %w", err)
	}
	return &Review{Fields: args, Sufficient: args.Sufficient, Missing: args.Missing}, nil
}

// DescribeInput is what the model knows when writing a description.
type DescribeInput struct {
	Title    string
	Priority string
	Due      string
	// Notes is what the user said about the task.
	Notes string
	// Previous is the last rejected attempt, if any.
	Previous string
}

// Describe asks for a description of the task. The word count is not
// checked here.
func (o *Oracle) Describe(ctx context.Context, in DescribeInput) (string, error) {
	req := Request{
		System:     "You write concise task descriptions.",
		Turns:      []Turn{{Role: RoleUser, Text: describePrompt(in)}},
		Tools:      []ToolSpec{descriptionTool()},
		ToolChoice: ToolChoiceRequired,
		MaxTokens:  o.cfg.MaxTokens,
	}
	resp, err := o.invoke(ctx, "describe", req)
	if err != nil {
		return "", err
	}
	call, ok := findCall(resp, toolWriteDescription)
	if !ok {
		return strings.TrimSpace(resp.Text), nil
	}
	var args DescriptionArgs
	if err := json.Unmarshal(call.Args, &args); err != nil {
		return "", fmt.Errorf("describe: decode arguments: %w", err)
	}
	return strings.TrimSpace(args.Description), nil
}

func (o *Oracle) request(system string, history []models.Message, tools []ToolSpec, choice ToolChoice) Request {
	turns, extra := Transcript(history)
	if len(extra) > 0 {
		system = system + "\n\n" + strings.Join(extra, "\n")
	}
	return Request{
		System:     system,
		Turns:      turns,
		Tools:      tools,
		ToolChoice: choice,
		MaxTokens:  o.cfg.MaxTokens,
	}
}

// invoke calls the provider under the configured timeout, retrying transient
// failures with exponential backoff. Expiry of the timeout yields a
// *models.OracleTimeoutError.
func (o *Oracle) invoke(ctx context.Context, op string, req Request) (*Response, error) {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.cfg.InitialBackoff

	resp, err := backoff.Retry(callCtx, func() (*Response, error) {
		resp, err := o.provider.Invoke(callCtx, req)
		if err == nil {
			return resp, nil
		}
		if callCtx.Err() != nil {
			return nil, backoff.Permanent(callCtx.Err())
		}
		if !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		log.Printf("[oracle] %s: transient error, retrying: %v", op, err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(o.cfg.MaxAttempts))

	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = &models.OracleTimeoutError{Op: op, Timeout: o.cfg.Timeout}
	}
	if o.observer != nil {
		o.observer.ObserveOracleCall(op, time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("oracle %s: %w", op, err)
	}

	o.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if o.observer != nil {
		o.observer.ObserveTokens(o.provider.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return resp, nil
}

func findCall(resp *Response, name string) (ToolCall, bool) {
	for _, call := range resp.ToolCalls {
		if call.Name == name {
			return call, true
		}
	}
	return ToolCall{}, false
}
