// Package taskstore provides the durable task collaborators the dispatcher
// writes to: an in-memory store and a MongoDB store. The SQLite store lives in
// the state package.
package taskstore

import (
	"context"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Store is the create and complete-by-id contract of a task backend.
// CompleteByID returns models.ErrNotFound for unknown ids and
// models.ErrInvalidID for ids the backend cannot represent.
//
//go:generate mockgen -destination=mocks/store_mock.go -package=mocks . Store
type Store interface {
	Create(ctx context.Context, task models.Task) (string, error)
	CompleteByID(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Task, error)
}

// prepare validates a task for insertion and fills defaults.
func prepare(task models.Task) (models.Task, error) {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	return task, nil
}
