package main

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/tasktalk/internal/tui"
)

// runTUI runs the full screen chat view until the user quits.
func runTUI(ctx context.Context, rt *runtime, threadID string) error {
	program := tui.NewChatProgram(ctx, rt.assistant, rt.assistant.Events(), threadID)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
