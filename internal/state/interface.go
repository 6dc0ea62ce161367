package state

import (
	"context"
	"io"

	"github.com/ShayCichocki/tasktalk/internal/checkpoint"
	"github.com/ShayCichocki/tasktalk/internal/taskstore"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// TaskStore handles task persistence.
type TaskStore interface {
	Create(ctx context.Context, task models.Task) (string, error)
	CompleteByID(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Task, error)
}

// CheckpointStore handles per-thread checkpoint persistence.
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error)
	PutCheckpoint(ctx context.Context, cp checkpoint.Checkpoint) error
	DeleteCheckpoint(ctx context.Context, threadID string) error
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// StateStore composes everything the SQLite database provides.
type StateStore interface {
	io.Closer
	Migrator
	TaskStore
	CheckpointStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore       = (*DB)(nil)
	_ taskstore.Store  = (*DB)(nil)
	_ checkpoint.Saver = checkpointSaver{}
)
