package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

type fakeIntentOracle struct {
	intent models.Intent
	err    error
}

func (f fakeIntentOracle) Classify(ctx context.Context, history []models.Message) (models.Intent, error) {
	return f.intent, f.err
}

type fakeChatOracle struct {
	text string
	err  error
}

func (f fakeChatOracle) Converse(ctx context.Context, history []models.Message) (string, error) {
	return f.text, f.err
}

func TestClassifier_Run(t *testing.T) {
	s := conversation.State{}.BeginTurn("hi, how are you?")

	u, err := NewClassifier(fakeIntentOracle{intent: models.IntentGeneralChat}).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if u.Intent == nil || *u.Intent != models.IntentGeneralChat {
		t.Errorf("intent = %v, want %s", u.Intent, models.IntentGeneralChat)
	}
	if len(u.Messages) != 0 {
		t.Errorf("classifier added %d messages", len(u.Messages))
	}
}

func TestClassifier_PropagatesClassificationError(t *testing.T) {
	s := conversation.State{}.BeginTurn("???")
	_, err := NewClassifier(fakeIntentOracle{err: &models.ClassificationError{Label: "weather"}}).Run(context.Background(), s)
	var cerr *models.ClassificationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Run() error = %v, want ClassificationError", err)
	}
}

func TestResponder_Run(t *testing.T) {
	s := conversation.State{}.BeginTurn("hi, how are you?")
	u, err := NewResponder(fakeChatOracle{text: "Doing well, thanks!"}).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := conversation.Merge(s, u)
	if got.LastReply() != "Doing well, thanks!" {
		t.Errorf("LastReply() = %q", got.LastReply())
	}
	if len(got.PendingInvocations()) != 0 {
		t.Errorf("chat reply carries invocations")
	}
}

func TestResponder_Error(t *testing.T) {
	s := conversation.State{}.BeginTurn("hi")
	if _, err := NewResponder(fakeChatOracle{err: errors.New("boom")}).Run(context.Background(), s); err == nil {
		t.Fatal("Run() error = nil")
	}
}
