package models

import (
	"strings"
	"time"
)

// TaskDraft accumulates task fields across turns. A nil field has not been
// provided yet. A draft never holds a value that fails the task schema.
type TaskDraft struct {
	Title       *string    `json:"title,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// Merge returns d with every non-nil field of update written over it.
func (d TaskDraft) Merge(update TaskDraft) TaskDraft {
	out := d
	if update.Title != nil {
		out.Title = update.Title
	}
	if update.Priority != nil {
		out.Priority = update.Priority
	}
	if update.DueDate != nil {
		out.DueDate = update.DueDate
	}
	if update.Description != nil {
		out.Description = update.Description
	}
	return out
}

// Empty reports whether no field has been provided.
func (d TaskDraft) Empty() bool {
	return d.Title == nil && d.Priority == nil && d.DueDate == nil && d.Description == nil
}

// Missing returns the required fields that are still absent, in a fixed order.
func (d TaskDraft) Missing() []string {
	var missing []string
	if d.Title == nil {
		missing = append(missing, FieldTitle)
	}
	if d.Priority == nil {
		missing = append(missing, FieldPriority)
	}
	if d.DueDate == nil {
		missing = append(missing, FieldDueDate)
	}
	return missing
}

// Complete reports whether every required field is present.
func (d TaskDraft) Complete() bool {
	return len(d.Missing()) == 0
}

// Sanitize drops fields that fail the task schema and returns the names of
// the dropped fields.
func (d TaskDraft) Sanitize() (TaskDraft, []string) {
	var invalid []string
	out := d
	if out.Title != nil {
		t := strings.TrimSpace(*out.Title)
		if t == "" {
			out.Title = nil
			invalid = append(invalid, FieldTitle)
		} else {
			out.Title = &t
		}
	}
	if out.Priority != nil && !out.Priority.Valid() {
		out.Priority = nil
		invalid = append(invalid, FieldPriority)
	}
	if out.DueDate != nil && out.DueDate.IsZero() {
		out.DueDate = nil
		invalid = append(invalid, FieldDueDate)
	}
	if out.Description != nil && !ValidDescription(*out.Description) {
		out.Description = nil
		invalid = append(invalid, FieldDescription)
	}
	return out, invalid
}

// CreateArgs renders a complete draft as CREATE_TASK arguments.
func (d TaskDraft) CreateArgs() (CreateTaskArgs, bool) {
	if !d.Complete() {
		return CreateTaskArgs{}, false
	}
	args := CreateTaskArgs{
		Title:    *d.Title,
		Priority: string(*d.Priority),
		DueDate:  d.DueDate.Format(time.RFC3339),
	}
	if d.Description != nil {
		args.Description = *d.Description
	}
	return args, true
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
