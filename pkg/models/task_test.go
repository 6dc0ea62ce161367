package models

import (
	"errors"
	"testing"
	"time"
)

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"pending is valid", TaskStatusPending, true},
		{"completed is valid", TaskStatusCompleted, true},
		{"empty string is invalid", TaskStatus(""), false},
		{"done is invalid", TaskStatus("done"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in     string
		want   Priority
		wantOK bool
	}{
		{"low", PriorityLow, true},
		{" High ", PriorityHigh, true},
		{"MEDIUM", PriorityMedium, true},
		{"urgent", Priority("urgent"), false},
		{"", Priority(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePriority(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParsePriority(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one  two\tthree\nfour", 4},
		{"Prepare and submit the quarterly report to finance before the end of the business day", 15},
	}

	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidDescription_Boundaries(t *testing.T) {
	fourteen := "a b c d e f g h i j k l m n"
	fifteen := fourteen + " o"
	sixteen := fifteen + " p"

	if ValidDescription(fourteen) {
		t.Error("14 words should be invalid")
	}
	if !ValidDescription(fifteen) {
		t.Error("15 words should be valid")
	}
	if ValidDescription(sixteen) {
		t.Error("16 words should be invalid")
	}
}

func TestTask_Validate(t *testing.T) {
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		task       Task
		wantFields []string
	}{
		{
			name: "valid task",
			task: Task{Title: "submit the report", Priority: PriorityHigh, DueDate: due},
		},
		{
			name:       "empty title",
			task:       Task{Title: "  ", Priority: PriorityLow, DueDate: due},
			wantFields: []string{FieldTitle},
		},
		{
			name:       "bad priority and missing date",
			task:       Task{Title: "x", Priority: "urgent"},
			wantFields: []string{FieldPriority, FieldDueDate},
		},
		{
			name:       "short description",
			task:       Task{Title: "x", Priority: PriorityLow, DueDate: due, Description: "too short"},
			wantFields: []string{FieldDescription},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("Fields = %v, want %v", verr.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if !verr.Has(f) {
					t.Errorf("Fields = %v, missing %q", verr.Fields, f)
				}
			}
		})
	}
}
