package taskstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

func validTask() models.Task {
	return models.Task{
		Title:    "submit the report",
		Priority: models.PriorityHigh,
		DueDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, validTask())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Status != models.TaskStatusPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.Title != "submit the report" || got.ID != id {
		t.Errorf("Get() = %+v", got)
	}
}

func TestMemoryStore_CreateRejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	task := validTask()
	task.Priority = "urgent"

	_, err := s.Create(context.Background(), task)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create() error = %v, want *ValidationError", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestMemoryStore_CompleteByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, validTask())

	if err := s.CompleteByID(ctx, id); err != nil {
		t.Fatalf("CompleteByID() error: %v", err)
	}
	got, _ := s.Get(ctx, id)
	if got.Status != models.TaskStatusCompleted || got.CompletedAt == nil {
		t.Errorf("after complete: %+v", got)
	}

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"malformed id", "abc123", models.ErrInvalidID},
		{"unknown id", uuid.New().String(), models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.CompleteByID(ctx, tt.id); !errors.Is(err, tt.want) {
				t.Errorf("CompleteByID(%q) = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}
