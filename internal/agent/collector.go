package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/internal/dates"
	"github.com/ShayCichocki/tasktalk/internal/oracle"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// DefaultDescriptionAttempts bounds how often a description is regenerated
// before the user is asked for one.
const DefaultDescriptionAttempts = 3

// Collector gathers task fields across turns and emits at most one action
// invocation once the draft is complete.
type Collector struct {
	oracle   TaskOracle
	now      func() time.Time
	attempts int
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithClock sets the reference time used to resolve relative due dates.
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.now = now
	}
}

// WithDescriptionAttempts sets the description retry bound.
func WithDescriptionAttempts(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// NewCollector creates a Collector.
func NewCollector(o TaskOracle, opts ...CollectorOption) *Collector {
	c := &Collector{
		oracle:   o,
		now:      time.Now,
		attempts: DefaultDescriptionAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fieldInput is raw, unvalidated field text from the model.
type fieldInput struct {
	title       string
	priority    string
	dueDate     string
	description string
}

// Run handles one task turn.
func (c *Collector) Run(ctx context.Context, s conversation.State) (conversation.Update, error) {
	switch s.Intent {
	case models.IntentUpdateTask:
		return reply(updateUnsupportedReply), nil
	case models.IntentCreateTask, models.IntentCompleteTask:
	default:
		return conversation.Update{}, fmt.Errorf("task stage reached with intent %q", s.Intent)
	}

	now := c.now()
	ex, err := c.oracle.ExtractTaskAction(ctx, s.History, now)
	if err != nil {
		return conversation.Update{}, err
	}

	action := ex.Action
	if action != "" && action != actionFor(s.Intent) {
		log.Printf("[agent] ignoring %s requested under intent %s", action, s.Intent)
		action = ""
	}

	switch action {
	case models.ActionCompleteTask:
		return c.completion(s, parseTaskID(ex.Args))
	case models.ActionCreateTask:
		var args models.CreateTaskArgs
		if err := json.Unmarshal(ex.Args, &args); err != nil {
			log.Printf("[agent] discarding malformed %s arguments: %v", ex.Action, err)
			return c.review(ctx, s, now, ex.Text)
		}
		return c.collect(ctx, s, now, fieldInput{
			title:       args.Title,
			priority:    args.Priority,
			dueDate:     args.DueDate,
			description: args.Description,
		}, nil, ex.Text)
	}
	return c.review(ctx, s, now, ex.Text)
}

// review fills the draft from the companion review step. Its verdict never
// triggers an action on its own.
func (c *Collector) review(ctx context.Context, s conversation.State, now time.Time, modelText string) (conversation.Update, error) {
	rv, err := c.oracle.ReviewTask(ctx, s.History, now)
	if err != nil {
		var terr *models.OracleTimeoutError
		if errors.As(err, &terr) {
			return conversation.Update{}, err
		}
		log.Printf("[agent] task review failed: %v", err)
		rv = nil
	}
	var fields oracle.ReviewArgs
	if rv != nil {
		fields = rv.Fields
	}
	if s.Intent == models.IntentCompleteTask {
		if id := strings.TrimSpace(fields.TaskID); id != "" {
			return c.completion(s, id)
		}
		return reply(textOr(modelText, askTaskIDReply)), nil
	}
	return c.collect(ctx, s, now, fieldInput{
		title:       fields.Title,
		priority:    fields.Priority,
		dueDate:     fields.DueDate,
		description: fields.Description,
	}, &reviewed{verdict: rv}, modelText)
}

// reviewed marks fields that came from the review step. verdict is nil when
// the review failed.
type reviewed struct {
	verdict *oracle.Review
}

// collect validates in, merges it into the draft and decides what to say.
// rv is nil when the model asked for CREATE_TASK.
func (c *Collector) collect(ctx context.Context, s conversation.State, now time.Time, in fieldInput, rv *reviewed, modelText string) (conversation.Update, error) {
	update, invalid, rejected := toDraft(in, now)
	draft := s.Draft.Merge(update)

	need := draft.Missing()
	for _, f := range invalid {
		if f != models.FieldDescription && !slices.Contains(need, f) {
			need = append(need, f)
		}
	}
	if rv != nil && verdictDisagrees(rv.verdict, need) {
		log.Printf("[agent] review verdict sufficient=%t missing=%v, draft needs %v", rv.verdict.Sufficient, rv.verdict.Missing, need)
	}
	if len(need) > 0 {
		return conversation.Update{
			Draft:    &update,
			Messages: []models.Message{models.AssistantMessage(clarifyQuestion(draft, orderFields(need), invalid))},
		}, nil
	}
	if rv != nil {
		text := modelText
		if text == "" {
			text = confirmQuestion(draft)
		}
		return conversation.Update{Draft: &update, Messages: []models.Message{models.AssistantMessage(text)}}, nil
	}

	if draft.Description == nil {
		desc, err := c.describe(ctx, s, draft, rejected)
		if err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				log.Printf("[agent] no valid description after %d attempts", c.attempts)
				return conversation.Update{Draft: &update, Messages: []models.Message{models.AssistantMessage(askDescriptionReply)}}, nil
			}
			return conversation.Update{}, err
		}
		update.Description = &desc
		draft.Description = &desc
	}

	args, _ := draft.CreateArgs()
	inv, err := NewInvocation(s.TurnID, models.ActionCreateTask, args)
	if err != nil {
		return conversation.Update{}, err
	}
	return conversation.Update{Draft: &update, Messages: []models.Message{models.AssistantMessage("", inv)}}, nil
}

// describe asks the model for a description until one has the required
// word count. rejected seeds the first retry with a bad attempt.
func (c *Collector) describe(ctx context.Context, s conversation.State, d models.TaskDraft, rejected string) (string, error) {
	in := oracle.DescribeInput{
		Title:    *d.Title,
		Priority: string(*d.Priority),
		Due:      dates.Format(*d.DueDate),
		Notes:    s.LastUserText(),
		Previous: rejected,
	}
	for i := 0; i < c.attempts; i++ {
		desc, err := c.oracle.Describe(ctx, in)
		if err != nil {
			return "", err
		}
		desc = strings.TrimSpace(desc)
		if models.ValidDescription(desc) {
			return desc, nil
		}
		log.Printf("[agent] description attempt %d has %d words", i+1, models.WordCount(desc))
		in.Previous = desc
	}
	return "", &models.ValidationError{Fields: []string{models.FieldDescription}}
}

func (c *Collector) completion(s conversation.State, taskID string) (conversation.Update, error) {
	if taskID == "" {
		return reply(askTaskIDReply), nil
	}
	inv, err := NewInvocation(s.TurnID, models.ActionCompleteTask, models.CompleteTaskArgs{TaskID: taskID})
	if err != nil {
		return conversation.Update{}, err
	}
	return reply("", inv), nil
}

// toDraft validates raw fields. Invalid values are left out of the draft and
// reported by name; a rejected description is returned as text.
func toDraft(in fieldInput, now time.Time) (models.TaskDraft, []string, string) {
	var (
		d        models.TaskDraft
		invalid  []string
		rejected string
	)
	if t := strings.TrimSpace(in.title); t != "" {
		d.Title = &t
	}
	if p := strings.TrimSpace(in.priority); p != "" {
		if pr, ok := models.ParsePriority(p); ok {
			d.Priority = &pr
		} else {
			invalid = append(invalid, models.FieldPriority)
		}
	}
	if e := strings.TrimSpace(in.dueDate); e != "" {
		if due, err := dates.Resolve(e, now); err == nil {
			d.DueDate = &due
		} else {
			invalid = append(invalid, models.FieldDueDate)
		}
	}
	if desc := strings.TrimSpace(in.description); desc != "" {
		if models.ValidDescription(desc) {
			d.Description = &desc
		} else {
			invalid = append(invalid, models.FieldDescription)
			rejected = desc
		}
	}
	return d, invalid, rejected
}

// parseTaskID accepts {"taskId": "..."} or a bare JSON string.
func parseTaskID(raw json.RawMessage) string {
	var args models.CompleteTaskArgs
	if err := json.Unmarshal(raw, &args); err == nil {
		return strings.TrimSpace(args.TaskID)
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}
	return ""
}

func orderFields(fields []string) []string {
	var out []string
	for _, f := range []string{models.FieldTitle, models.FieldPriority, models.FieldDueDate} {
		if slices.Contains(fields, f) {
			out = append(out, f)
		}
	}
	return out
}

// actionFor returns the only action an intent may request.
func actionFor(i models.Intent) models.ActionName {
	switch i {
	case models.IntentCreateTask:
		return models.ActionCreateTask
	case models.IntentCompleteTask:
		return models.ActionCompleteTask
	default:
		return ""
	}
}

// verdictDisagrees reports whether the model's own verdict differs from the
// fields the draft still needs. The draft decides; the verdict is only logged.
func verdictDisagrees(v *oracle.Review, need []string) bool {
	if v == nil {
		return false
	}
	if v.Sufficient != (len(need) == 0) {
		return true
	}
	claimed := orderFields(v.Missing)
	return !slices.Equal(claimed, orderFields(need))
}

func textOr(text, fallback string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return fallback
}
