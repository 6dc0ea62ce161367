package taskstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// MemoryStore keeps tasks in a map. Ids are UUIDs.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]models.Task), now: time.Now}
}

// Create stores a validated task and returns its id.
func (s *MemoryStore) Create(ctx context.Context, task models.Task) (string, error) {
	task, err := prepare(task)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = uuid.New().String()
	task.CreatedAt = s.now()
	s.tasks[task.ID] = task
	return task.ID, nil
}

// CompleteByID marks a task completed.
func (s *MemoryStore) CompleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.ErrNotFound
	}
	now := s.now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	s.tasks[id] = task
	return nil
}

// Get returns a copy of the task.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &task, nil
}

// Len returns the number of stored tasks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
