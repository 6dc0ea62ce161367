// Package checkpoint persists serialized conversation state keyed by thread id.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a thread has no checkpoint.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the latest saved state of one thread.
type Checkpoint struct {
	ThreadID string    `json:"thread_id"`
	Turn     int       `json:"turn"`
	Node     string    `json:"node"`
	Data     []byte    `json:"data"`
	SavedAt  time.Time `json:"saved_at"`
}

// Saver stores one checkpoint per thread; Put replaces the previous one.
type Saver interface {
	Get(ctx context.Context, threadID string) (*Checkpoint, error)
	Put(ctx context.Context, cp Checkpoint) error
	Delete(ctx context.Context, threadID string) error
}
