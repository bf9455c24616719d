package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// MinLocalChars is the shortest input the local voice model accepts.
const MinLocalChars = 50

// runFunc runs name with args, feeding stdin, and returns combined output.
type runFunc func(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error)

// LocalProvider synthesizes speech with the piper neural TTS binary.
type LocalProvider struct {
	bin   string
	model string
	run   runFunc
}

// NewLocalProvider resolves the piper binary and checks the voice model
// once, so every Convert reuses them.
func NewLocalProvider(command, model string) (*LocalProvider, error) {
	bin, err := exec.LookPath(command)
	if err != nil {
		return nil, &ProviderError{Engine: "local", Err: fmt.Errorf("piper binary not found: %w", err)}
	}
	if _, err := os.Stat(model); err != nil {
		return nil, &ProviderError{Engine: "local", Err: fmt.Errorf("voice model not found: %s", model)}
	}
	log.Printf("Local speech engine ready (voice %s)", model)
	return &LocalProvider{bin: bin, model: model, run: execRun}, nil
}

func (p *LocalProvider) Name() string      { return "local" }
func (p *LocalProvider) Extension() string { return "wav" }

// Convert writes a WAV rendering of text to outputPath.
func (p *LocalProvider) Convert(ctx context.Context, text, outputPath string) (string, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < MinLocalChars {
		log.Printf("Warning: text too short for speech (%d chars, minimum %d)", n, MinLocalChars)
		return "", &UnsupportedInputError{Engine: p.Name(), Length: n, Minimum: MinLocalChars}
	}
	if err := prepareOutput(outputPath); err != nil {
		return "", err
	}

	log.Printf("Converting text to speech using %s engine...", p.Name())
	args := []string{"--model", p.model, "--output_file", outputPath}
	if out, err := p.run(ctx, p.bin, args, strings.NewReader(text)); err != nil {
		return "", &ProviderError{Engine: p.Name(), Err: fmt.Errorf("%w: %s", err, bytes.TrimSpace(out))}
	}

	log.Printf("Audio saved to: %s", outputPath)
	return outputPath, nil
}

func execRun(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	return cmd.CombinedOutput()
}
