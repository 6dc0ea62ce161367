package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Field names used in validation errors and clarifying questions.
const (
	FieldTitle       = "title"
	FieldPriority    = "priority"
	FieldDueDate     = "dueDate"
	FieldDescription = "description"
	FieldTaskID      = "taskId"
)

// ErrNotFound is returned by stores when no task has the given id.
var ErrNotFound = errors.New("task not found")

// ErrInvalidID is returned by stores when an id is not well formed for the backend.
var ErrInvalidID = errors.New("invalid task id")

// ClassificationError means the oracle returned a label outside the intent enumeration.
type ClassificationError struct {
	Label string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("intent %q is not a recognized intent", e.Label)
}

// ValidationError lists task fields that failed schema checks.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid task fields: " + strings.Join(e.Fields, ", ")
}

// Has reports whether field is among the failing fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// DispatchError wraps a failed durable action.
type DispatchError struct {
	Action ActionName
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Action, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// OracleTimeoutError means a language model call exceeded its time bound.
type OracleTimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *OracleTimeoutError) Error() string {
	return fmt.Sprintf("oracle %s timed out after %s", e.Op, e.Timeout)
}
