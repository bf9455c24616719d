package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider synthesizes text with the Anthropic Messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicProvider creates a new Anthropic provider. Extra options are
// appended after the defaults; the SDK's own retries are disabled.
func NewAnthropicProvider(apiKey, model string, maxTokens int, opts ...option.RequestOption) *AnthropicProvider {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicProvider{
		client:    anthropic.NewClient(all...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

// Synthesize sends one user message with the system instruction.
func (p *AnthropicProvider) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no text in response")}
	}
	return strings.Join(parts, ""), nil
}

// ListModels returns every model available to the API key, following
// pagination to the last page.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	iter := p.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})
	for iter.Next() {
		m := iter.Current()
		models = append(models, ModelInfo{ID: m.ID, DisplayName: m.DisplayName, CreatedAt: m.CreatedAt})
	}
	if err := iter.Err(); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	return models, nil
}
