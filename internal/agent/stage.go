// Package agent provides the graph stages that read conversation state and
// propose updates: intent classification, chat replies and task collection.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/internal/oracle"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Stage is one graph node. A stage never mutates the state it is given.
type Stage interface {
	Run(ctx context.Context, s conversation.State) (conversation.Update, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, s conversation.State) (conversation.Update, error)

// Run calls f.
func (f StageFunc) Run(ctx context.Context, s conversation.State) (conversation.Update, error) {
	return f(ctx, s)
}

// IntentOracle classifies the latest user message.
type IntentOracle interface {
	Classify(ctx context.Context, history []models.Message) (models.Intent, error)
}

// ChatOracle writes free-text replies.
type ChatOracle interface {
	Converse(ctx context.Context, history []models.Message) (string, error)
}

// TaskOracle is what the task collector asks of the model.
type TaskOracle interface {
	ExtractTaskAction(ctx context.Context, history []models.Message, now time.Time) (*oracle.Extraction, error)
	ReviewTask(ctx context.Context, history []models.Message, now time.Time) (*oracle.Review, error)
	Describe(ctx context.Context, in oracle.DescribeInput) (string, error)
}

var (
	_ IntentOracle = (*oracle.Oracle)(nil)
	_ ChatOracle   = (*oracle.Oracle)(nil)
	_ TaskOracle   = (*oracle.Oracle)(nil)
)

// NewInvocation builds an invocation whose key is derived from the turn,
// the action and its arguments, so re-running a turn yields the same key.
func NewInvocation(turnID string, name models.ActionName, args any) (models.ActionInvocation, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return models.ActionInvocation{}, fmt.Errorf("encode %s arguments: %w", name, err)
	}
	h := sha256.New()
	h.Write([]byte(turnID))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return models.ActionInvocation{
		Key:  hex.EncodeToString(h.Sum(nil)[:16]),
		Name: name,
		Args: data,
	}, nil
}

func reply(text string, calls ...models.ActionInvocation) conversation.Update {
	return conversation.Update{Messages: []models.Message{models.AssistantMessage(text, calls...)}}
}
