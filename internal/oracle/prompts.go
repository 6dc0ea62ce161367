package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateInfo renders the reference date the model must resolve relative dates against.
func dateInfo(now time.Time) string {
	info := struct {
		Datetime  string `json:"datetime"`
		DayOfWeek string `json:"dayOfWeek"`
	}{
		Datetime:  now.Format(time.RFC3339),
		DayOfWeek: strings.ToUpper(now.Weekday().String()[:3]),
	}
	data, _ := json.Marshal(info)
	return string(data)
}

const classifyPrompt = `You classify the intent of the user's latest message in a conversation with a task management assistant.

Intents:
- general_chat: greetings, small talk, questions unrelated to tasks.
- create_task: the user wants to create a task, or is answering questions about a task being created.
- complete_task: the user wants to mark an existing task as done.
- update_task: the user wants to change an existing task.
- unknown: none of the above.

Call classify_intent exactly once.`

const conversePrompt = `You are a friendly task management assistant. The user is chatting rather than managing tasks.
Be helpful and witty, and keep replies short. You can create tasks and mark them complete when asked.`

func extractPrompt(now time.Time) string {
	return fmt.Sprintf(`You are an intelligent task management assistant. Based on the conversation, decide whether to create a new task, mark an existing task as complete, or ask for more information.
THE CURRENT DATE INFO IS: %s

GUIDELINES:
1. INFER DATE: If the user says "tomorrow" or "next Friday", calculate the ISO date based on today's date.
2. DATA COLLECTION: To create a task you MUST have a title, a priority (low/medium/high) and a due date.
3. GAPS: If any of those are missing, DO NOT call a tool. Ask the user specifically for the missing information.
4. DESCRIPTION: When calling CREATE_TASK, generate a description that is exactly 15 words long.
5. COMPLETION: To mark a task complete you need its id. If the user did not give one, ask for it.
6. Never invent a value the user did not give.`, dateInfo(now))
}

func reviewPrompt(now time.Time) string {
	return fmt.Sprintf(`You review a conversation about a task and record what is known.
THE CURRENT DATE INFO IS: %s

Extract the title, priority (low/medium/high), due date, and a 15 word description of the task being discussed.
Leave a field empty if the user has not provided it. Never guess.
Set sufficient to true only when title, priority and dueDate are all known, and list the missing ones in missing.
Call review_task exactly once.`, dateInfo(now))
}

func describePrompt(in DescribeInput) string {
	var b strings.Builder
	b.WriteString("Write a description of the following task in EXACTLY 15 words. Count the words before answering.\n")
	fmt.Fprintf(&b, "Title: %s\nPriority: %s\nDue: %s\n", in.Title, in.Priority, in.Due)
	if in.Notes != "" {
		fmt.Fprintf(&b, "What the user said: %s\n", in.Notes)
	}
	if in.Previous != "" {
		fmt.Fprintf(&b, "\nYour previous attempt had the wrong number of words: %q\n", in.Previous)
	}
	b.WriteString("Call write_description exactly once.")
	return b.String()
}
