package agent

import (
	"context"
	"errors"
	"log"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Classifier records the intent of the latest user message.
type Classifier struct {
	oracle IntentOracle
}

// NewClassifier creates a Classifier.
func NewClassifier(o IntentOracle) *Classifier {
	return &Classifier{oracle: o}
}

// Run classifies the history. An out-of-range label comes back as a
// *models.ClassificationError and nothing is merged.
func (c *Classifier) Run(ctx context.Context, s conversation.State) (conversation.Update, error) {
	intent, err := c.oracle.Classify(ctx, s.History)
	if err != nil {
		var cerr *models.ClassificationError
		if errors.As(err, &cerr) {
			log.Printf("[agent] unclassifiable label %q", cerr.Label)
		}
		return conversation.Update{}, err
	}
	return conversation.Update{Intent: &intent}, nil
}
