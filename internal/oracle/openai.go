package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIConfig contains configuration for the OpenAI provider.
type OpenAIConfig struct {
	Model string
	// APIKey defaults to OPENAI_API_KEY.
	APIKey string
	// BaseURL points at an OpenAI compatible endpoint when set.
	BaseURL string
}

// OpenAIProvider calls the Chat Completions API.
type OpenAIProvider struct {
	client openai.Client
	model  shared.ChatModel
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := shared.ChatModel(cfg.Model)
	if model == "" {
		model = shared.ChatModelGPT4oMini
	}
	return &OpenAIProvider{client: openai.NewClient(opts...), model: model}, nil
}

// Name identifies the provider in logs and metrics.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Invoke sends one chat completion request.
func (p *OpenAIProvider) Invoke(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	messages = append(messages, openai.SystemMessage(req.System))
	for _, turn := range req.Turns {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(turn.Text))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               p.model,
		Messages:            messages,
		Temperature:         openai.Float(0),
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
	}
	for _, spec := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  shared.FunctionParameters(spec.Parameters()),
			},
		})
	}
	if req.ToolChoice == ToolChoiceRequired && len(req.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		}
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.wrapError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Kind: ProviderErrorKindInternal, Err: errors.New("no choices returned")}
	}

	msg := completion.Choices[0].Message
	resp := &Response{
		Text: msg.Content,
		Usage: Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	for _, call := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		})
	}
	return resp, nil
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   p.Name(),
			Kind:       kindForStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Err:        err,
		}
	}
	return &ProviderError{Provider: p.Name(), Kind: ProviderErrorKindUnknown, Err: err}
}
