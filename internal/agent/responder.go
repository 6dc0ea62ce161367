package agent

import (
	"context"

	"github.com/ShayCichocki/tasktalk/internal/conversation"
)

// Responder answers general chat.
type Responder struct {
	oracle ChatOracle
}

// NewResponder creates a Responder.
func NewResponder(o ChatOracle) *Responder {
	return &Responder{oracle: o}
}

// Run appends one assistant reply.
func (r *Responder) Run(ctx context.Context, s conversation.State) (conversation.Update, error) {
	text, err := r.oracle.Converse(ctx, s.History)
	if err != nil {
		return conversation.Update{}, err
	}
	return reply(text), nil
}
