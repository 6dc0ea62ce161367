package oracle

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Transcript flattens history into alternating user and assistant turns.
// Consecutive turns of the same role are joined. Action invocations and their
// results are rendered as text so every provider sees the same record. System
// messages are returned separately for the system prompt.
func Transcript(history []models.Message) (turns []Turn, system []string) {
	add := func(role Role, text string) {
		if text == "" {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Text += "\n\n" + text
			return
		}
		turns = append(turns, Turn{Role: role, Text: text})
	}

	for _, m := range history {
		switch m.Kind {
		case models.KindUser:
			add(RoleUser, m.Content)
		case models.KindAssistant:
			parts := []string{}
			if m.Content != "" {
				parts = append(parts, m.Content)
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, fmt.Sprintf("[called %s with %s]", call.Name, string(call.Args)))
			}
			add(RoleAssistant, strings.Join(parts, "\n"))
		case models.KindTool:
			if m.Result != nil {
				status := "succeeded"
				if m.Result.IsError {
					status = "failed"
				}
				add(RoleUser, fmt.Sprintf("[%s %s: %s]", m.Result.Name, status, m.Result.Content))
			}
		case models.KindSystem:
			system = append(system, m.Content)
		}
	}

	// Providers expect the transcript to open with the user.
	if len(turns) > 0 && turns[0].Role != RoleUser {
		turns = append([]Turn{{Role: RoleUser, Text: "(conversation resumed)"}}, turns...)
	}
	return turns, system
}
