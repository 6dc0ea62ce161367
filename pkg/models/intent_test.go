package models

import (
	"errors"
	"testing"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		label   string
		want    Intent
		wantErr bool
	}{
		{"general_chat", IntentGeneralChat, false},
		{"complete_task", IntentCompleteTask, false},
		{"update_task", IntentUpdateTask, false},
		{"unknown", IntentUnknown, false},
		{"task_management", "", true},
		{"CREATE_TASK", "", true},
		{"GENERAL_CHAT", "", true},
		{" create_task ", "", true},
		{"delete_everything", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseIntent(tt.label)
			if tt.wantErr {
				var cerr *ClassificationError
				if !errors.As(err, &cerr) {
					t.Fatalf("ParseIntent(%q) error = %v, want *ClassificationError", tt.label, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIntent(%q) unexpected error: %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("ParseIntent(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestIntent_IsTask(t *testing.T) {
	for _, i := range Intents() {
		want := i == IntentCreateTask || i == IntentCompleteTask || i == IntentUpdateTask
		if got := i.IsTask(); got != want {
			t.Errorf("%q.IsTask() = %v, want %v", i, got, want)
		}
	}
}
