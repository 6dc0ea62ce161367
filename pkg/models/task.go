package models

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a stored task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not been completed yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusCompleted indicates the task was marked complete.
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid returns true if the priority is one of low, medium or high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ParsePriority normalizes s and reports whether it names a valid priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

// DescriptionWords is the exact number of words a generated description must have.
const DescriptionWords = 15

// WordCount counts whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ValidDescription reports whether s is exactly DescriptionWords words long.
func ValidDescription(s string) bool {
	return WordCount(s) == DescriptionWords
}

// Task is the durable record owned by the task store.
type Task struct {
	// ID is assigned by the store on create.
	ID string `json:"id" bson:"-"`
	// Title is a short, non-empty summary.
	Title string `json:"title" bson:"title"`
	// Priority is low, medium or high.
	Priority Priority `json:"priority" bson:"priority"`
	// DueDate is an absolute date the task is due.
	DueDate time.Time `json:"due_date" bson:"dueDate"`
	// Description is optional free text.
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	// Status defaults to pending.
	Status TaskStatus `json:"status" bson:"status"`
	// CreatedAt is when the task was stored.
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	// CompletedAt is set when the task is marked complete.
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty"`
}

// Validate checks the task against the persisted schema. It returns a
// *ValidationError naming every failing field, or nil.
func (t *Task) Validate() error {
	var fields []string
	if strings.TrimSpace(t.Title) == "" {
		fields = append(fields, FieldTitle)
	}
	if !t.Priority.Valid() {
		fields = append(fields, FieldPriority)
	}
	if t.DueDate.IsZero() {
		fields = append(fields, FieldDueDate)
	}
	if t.Description != "" && !ValidDescription(t.Description) {
		fields = append(fields, FieldDescription)
	}
	if t.Status != "" && !t.Status.Valid() {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
