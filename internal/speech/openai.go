package speech

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider synthesizes speech with the OpenAI audio API.
type OpenAIProvider struct {
	client openai.Client
	model  string
	voice  string
}

// NewOpenAIProvider creates a new OpenAI speech provider. Empty model and
// voice fall back to tts-1-hd and alloy.
func NewOpenAIProvider(apiKey, model, voice string, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = string(openai.SpeechModelTTS1HD)
	}
	if voice == "" {
		voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(all...),
		model:  model,
		voice:  voice,
	}
}

func (p *OpenAIProvider) Name() string      { return "openai" }
func (p *OpenAIProvider) Extension() string { return "mp3" }

// Convert sends text in one request and streams the MP3 body to outputPath.
func (p *OpenAIProvider) Convert(ctx context.Context, text, outputPath string) (string, error) {
	text = strings.TrimSpace(text)
	if err := prepareOutput(outputPath); err != nil {
		return "", err
	}

	log.Printf("Converting text to speech using %s engine...", p.Name())
	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(p.model),
		Voice:          openai.AudioSpeechNewParamsVoice(p.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return "", &ProviderError{Engine: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(outputPath)
		return "", &ProviderError{Engine: p.Name(), Err: fmt.Errorf("reading audio: %w", err)}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing audio file: %w", err)
	}

	log.Printf("Audio saved to: %s", outputPath)
	return outputPath, nil
}
