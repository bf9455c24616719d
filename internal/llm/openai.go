package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider synthesizes text with the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a new OpenAI provider. Extra options are
// appended after the defaults; the SDK's own retries are disabled.
func NewOpenAIProvider(apiKey, model string, maxTokens int, opts ...option.RequestOption) *OpenAIProvider {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &OpenAIProvider{
		client:    openai.NewClient(all...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

// Synthesize sends the system instruction and the prompt as one chat turn.
func (p *OpenAIProvider) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(p.maxTokens)),
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns every model available to the API key.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	iter := p.client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		m := iter.Current()
		models = append(models, ModelInfo{ID: m.ID, DisplayName: m.OwnedBy, CreatedAt: time.Unix(m.Created, 0)})
	}
	if err := iter.Err(); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	return models, nil
}
