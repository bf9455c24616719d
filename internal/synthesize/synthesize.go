package synthesize

import (
	"context"
	"errors"
	"log"

	"github.com/TobiSchelling/wsws-bulletin/internal/collect"
	"github.com/TobiSchelling/wsws-bulletin/internal/llm"
)

const systemPrompt = `You are an expert analyst of socialist and Trotskyist political analysis,
with deep knowledge of Marxist theory, historical materialism, and the Fourth International's
political perspective. Your task is to synthesize multiple articles from the World Socialist
Web Site (WSWS) into a comprehensive daily bulletin for advanced readers.

Focus on:
1. The most important political developments and their class character
2. Theoretical and historical lessons that emerge from current events
3. Connections between different struggles and events globally
4. The strategic implications for the international working class
5. Historical parallels and the development of contradictions in capitalism

Your analysis should be sophisticated, assuming the reader is familiar with Marxist concepts
and the political perspective of the International Committee of the Fourth International (ICFI).`

const userPrompt = `Please analyze and synthesize the following WSWS articles into a
comprehensive daily bulletin. Structure your analysis as follows:

1. **Executive Summary**: A brief overview of the most critical developments (2-3 paragraphs)

2. **Major Political Developments**: Detailed analysis of the most important events, organized
   by region or theme, with focus on:
   - The class forces involved
   - The political trajectory and implications
   - Connection to broader historical processes

3. **Theoretical and Historical Insights**: Draw out the key theoretical lessons, including:
   - Historical parallels and precedents
   - Development of class contradictions
   - Strategic questions for the working class
   - Significance for socialist perspective

4. **International Connections**: How different events and struggles relate to each other
   as part of global class struggle

5. **Key Takeaways**: 3-5 essential points for revolutionary socialists to understand

Here are the articles:

%s`

// ErrEmptyBundle is returned when there is nothing to send to the provider.
var ErrEmptyBundle = errors.New("no articles to synthesize")

// SystemPrompt returns the fixed system instruction sent with every synthesis.
func SystemPrompt() string { return systemPrompt }

// Synthesizer turns a content bundle into analytical text via an LLM provider.
type Synthesizer struct {
	provider llm.Provider
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(provider llm.Provider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// Synthesize formats the bundle and makes one provider call. An empty
// bundle is rejected before any remote call.
func (s *Synthesizer) Synthesize(ctx context.Context, bundle *collect.ContentBundle) (string, error) {
	if bundle.IsEmpty() {
		return "", ErrEmptyBundle
	}

	log.Printf("Generating synthesis using %s (%s)...", s.provider.Name(), s.provider.Model())
	text, err := s.provider.Synthesize(ctx, systemPrompt, BuildPrompt(bundle))
	if err != nil {
		return "", err
	}

	log.Println("Synthesis complete")
	return text, nil
}
