package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig contains configuration for the Gemini provider.
type GeminiConfig struct {
	Model string
	// APIKey defaults to GOOGLE_API_KEY.
	APIKey string
}

// GeminiProvider calls Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name identifies the provider in logs and metrics.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Invoke sends one GenerateContent request.
func (p *GeminiProvider) Invoke(ctx context.Context, req Request) (*Response, error) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   int32(req.MaxTokens),
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  toGenaiSchema(spec.Schema),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		mode := genai.FunctionCallingConfigModeAuto
		if req.ToolChoice == ToolChoiceRequired {
			mode = genai.FunctionCallingConfigModeAny
		}
		cfg.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode}}
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, p.wrapError(err)
	}

	resp := &Response{Text: result.Text()}
	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		}
	}
	for _, fc := range result.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("encode %s arguments: %w", fc.Name, err)
		}
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{ID: fc.ID, Name: fc.Name, Args: args})
	}
	return resp, nil
}

func (p *GeminiProvider) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   p.Name(),
			Kind:       kindForStatus(apiErr.Code),
			StatusCode: apiErr.Code,
			Err:        err,
		}
	}
	return &ProviderError{Provider: p.Name(), Kind: ProviderErrorKindUnknown, Err: err}
}
