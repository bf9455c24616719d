package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultMaxTokens caps the length of a generated synthesis. Both
// providers use it; it is not configurable.
const DefaultMaxTokens = 4096

// Provider is the interface for synthesis backends.
type Provider interface {
	Synthesize(ctx context.Context, system, prompt string) (string, error)
	Name() string
	Model() string
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}

// ProviderError wraps any failure reported by a synthesis backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CreateProvider creates the provider named by provider, capped at
// DefaultMaxTokens. There is no fallback to another backend.
func CreateProvider(provider, apiKey, model string) (Provider, error) {
	switch strings.ToLower(provider) {
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, DefaultMaxTokens), nil
	case "openai":
		return NewOpenAIProvider(apiKey, model, DefaultMaxTokens), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", provider)
}

// HasModel reports whether id is among models.
func HasModel(models []ModelInfo, id string) bool {
	for _, m := range models {
		if m.ID == id {
			return true
		}
	}
	return false
}
