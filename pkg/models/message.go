package models

import (
	"encoding/json"
	"time"
)

// MessageKind discriminates the variants of Message.
type MessageKind string

const (
	KindUser      MessageKind = "user"
	KindAssistant MessageKind = "assistant"
	KindSystem    MessageKind = "system"
	KindTool      MessageKind = "tool"
)

// Valid returns true if the kind is a known variant.
func (k MessageKind) Valid() bool {
	switch k {
	case KindUser, KindAssistant, KindSystem, KindTool:
		return true
	default:
		return false
	}
}

// Message is one entry in a conversation history. Kind selects which of the
// optional fields are meaningful: ToolCalls only on assistant messages,
// Result only on tool messages.
type Message struct {
	Kind      MessageKind        `json:"kind"`
	Content   string             `json:"content,omitempty"`
	ToolCalls []ActionInvocation `json:"tool_calls,omitempty"`
	Result    *ToolResult        `json:"result,omitempty"`
	Time      time.Time          `json:"time"`
}

// UserMessage builds a user message.
func UserMessage(text string) Message {
	return Message{Kind: KindUser, Content: text, Time: time.Now()}
}

// AssistantMessage builds an assistant message, optionally carrying invocations.
func AssistantMessage(text string, calls ...ActionInvocation) Message {
	return Message{Kind: KindAssistant, Content: text, ToolCalls: calls, Time: time.Now()}
}

// SystemMessage builds a system message.
func SystemMessage(text string) Message {
	return Message{Kind: KindSystem, Content: text, Time: time.Now()}
}

// ToolMessage records the outcome of one action invocation.
func ToolMessage(result ToolResult) Message {
	return Message{Kind: KindTool, Content: result.Content, Result: &result, Time: time.Now()}
}

// ActionName names a durable action the dispatcher can run.
type ActionName string

const (
	ActionCreateTask   ActionName = "CREATE_TASK"
	ActionCompleteTask ActionName = "MARK_TASK_COMPLETE"
)

// ActionInvocation is a request emitted by the task stage for the dispatcher.
type ActionInvocation struct {
	// Key identifies the invocation for at-most-once dispatch.
	Key  string          `json:"key"`
	Name ActionName      `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the outcome of dispatching one invocation.
type ToolResult struct {
	Key     string     `json:"key"`
	Name    ActionName `json:"name"`
	Content string     `json:"content"`
	IsError bool       `json:"is_error,omitempty"`
}

// CreateTaskArgs are the arguments of a CREATE_TASK invocation.
type CreateTaskArgs struct {
	Title       string `json:"title" jsonschema:"required,minLength=1,description=Short title of the task"`
	Priority    string `json:"priority" jsonschema:"required,enum=low,enum=medium,enum=high"`
	DueDate     string `json:"dueDate" jsonschema:"required,description=Due date as an ISO 8601 date or an expression like tomorrow"`
	Description string `json:"description,omitempty" jsonschema:"description=Description of the task in exactly 15 words"`
}

// CompleteTaskArgs are the arguments of a MARK_TASK_COMPLETE invocation.
type CompleteTaskArgs struct {
	TaskID string `json:"taskId" jsonschema:"required,description=The ID of the task to be marked as complete"`
}
