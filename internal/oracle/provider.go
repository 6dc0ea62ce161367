// Package oracle wraps the language model used to classify, converse with and
// extract structured task actions from a conversation.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

// Role is the speaker of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one provider-neutral transcript entry.
type Turn struct {
	Role Role
	Text string
}

// ToolChoice controls whether the model may answer in text.
type ToolChoice int

const (
	// ToolChoiceAuto lets the model answer in text or call a tool.
	ToolChoiceAuto ToolChoice = iota
	// ToolChoiceRequired forces a tool call.
	ToolChoiceRequired
)

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Parameters renders the schema as a plain JSON object schema.
func (t ToolSpec) Parameters() map[string]any {
	params := map[string]any{
		"type":       "object",
		"properties": t.Schema.Properties,
	}
	if len(t.Schema.Required) > 0 {
		params["required"] = t.Schema.Required
	}
	return params
}

// Request is a single model call.
type Request struct {
	System     string
	Turns      []Turn
	Tools      []ToolSpec
	ToolChoice ToolChoice
	MaxTokens  int
}

// ToolCall is a tool invocation returned by the model.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// Usage reports tokens consumed by a call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's answer.
type Response struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// Provider is one language model backend.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// ProviderErrorKind classifies backend failures.
type ProviderErrorKind string

const (
	ProviderErrorKindInvalidRequest    ProviderErrorKind = "invalid_request"
	ProviderErrorKindAuth              ProviderErrorKind = "auth"
	ProviderErrorKindRateLimitExceeded ProviderErrorKind = "rate_limit_exceeded"
	ProviderErrorKindOverloaded        ProviderErrorKind = "overloaded"
	ProviderErrorKindInternal          ProviderErrorKind = "internal"
	ProviderErrorKindUnknown           ProviderErrorKind = "unknown"
)

// ProviderError wraps a backend error with its kind.
type ProviderError struct {
	Provider   string
	Kind       ProviderErrorKind
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (pe *ProviderError) Error() string {
	if pe.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", pe.Provider, pe.Kind, pe.StatusCode, pe.Err)
	}
	return fmt.Sprintf("%s: %s: %v", pe.Provider, pe.Kind, pe.Err)
}

func (pe *ProviderError) Unwrap() error {
	return pe.Err
}

// Transient reports whether retrying the call may succeed.
func (pe *ProviderError) Transient() bool {
	switch pe.Kind {
	case ProviderErrorKindRateLimitExceeded, ProviderErrorKindOverloaded, ProviderErrorKindInternal:
		return true
	default:
		return false
	}
}

// kindForStatus maps an HTTP status to an error kind.
func kindForStatus(status int) ProviderErrorKind {
	switch {
	case status == 400 || status == 404 || status == 422:
		return ProviderErrorKindInvalidRequest
	case status == 401 || status == 403:
		return ProviderErrorKindAuth
	case status == 429:
		return ProviderErrorKindRateLimitExceeded
	case status == 503 || status == 529:
		return ProviderErrorKindOverloaded
	case status >= 500:
		return ProviderErrorKindInternal
	default:
		return ProviderErrorKindUnknown
	}
}

func isTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return false
}
