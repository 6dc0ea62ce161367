package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Create inserts a validated task and returns its id.
func (db *DB) Create(ctx context.Context, task models.Task) (string, error) {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if err := task.Validate(); err != nil {
		return "", err
	}
	task.ID = uuid.New().String()
	task.CreatedAt = db.now()

	var description sql.NullString
	if task.Description != "" {
		description = sql.NullString{String: task.Description, Valid: true}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO tasks (id, title, priority, due_date, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Title, string(task.Priority), formatTime(task.DueDate), description,
		string(task.Status), formatTime(task.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return task.ID, nil
}

// CompleteByID marks a task completed in a single UPDATE.
func (db *DB) CompleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidID
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	result, err := db.conn.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?
	`, string(models.TaskStatusCompleted), formatTime(db.now()), id)
	if err != nil {
		return fmt.Errorf("complete task %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Get loads one task.
func (db *DB) Get(ctx context.Context, id string) (*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var (
		task               models.Task
		priority, status   string
		dueDate, createdAt string
		description        sql.NullString
		completedAt        sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, title, priority, due_date, description, status, created_at, completed_at
		FROM tasks WHERE id = ?
	`, id).Scan(&task.ID, &task.Title, &priority, &dueDate, &description, &status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}

	task.Priority = models.Priority(priority)
	task.Status = models.TaskStatus(status)
	task.Description = description.String
	task.CompletedAt = parseNullableTime(completedAt)
	if task.DueDate, err = parseTime(dueDate); err != nil {
		return nil, fmt.Errorf("parse due_date: %w", err)
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &task, nil
}
