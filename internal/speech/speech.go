package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/compose"
	"github.com/TobiSchelling/wsws-bulletin/internal/config"
)

// Provider converts text into an audio file.
type Provider interface {
	// Convert writes audio for text to outputPath and returns the path.
	Convert(ctx context.Context, text, outputPath string) (string, error)
	Name() string
	// Extension is the file extension of the produced audio, without dot.
	Extension() string
}

// ProviderError wraps any failure reported by a speech backend.
type ProviderError struct {
	Engine string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s speech engine: %v", e.Engine, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// UnsupportedInputError is returned when text is shorter than the
// engine accepts. No audio is produced.
type UnsupportedInputError struct {
	Engine  string
	Length  int
	Minimum int
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("text too short for %s speech engine: %d characters, minimum %d",
		e.Engine, e.Length, e.Minimum)
}

// CreateProvider builds the speech engine selected in cfg.
func CreateProvider(l *config.Loaded) (Provider, error) {
	switch l.Speech.Engine {
	case "local":
		return NewLocalProvider(l.Speech.PiperCommand, l.Speech.PiperModel)
	case "openai":
		if l.Keys.OpenAI == "" {
			return nil, &ProviderError{Engine: "openai", Err: fmt.Errorf("%s is not set", l.Synthesis.OpenAIAPIKeyEnv)}
		}
		return NewOpenAIProvider(l.Keys.OpenAI, l.Speech.OpenAIModel, l.Speech.OpenAIVoice), nil
	}
	return nil, fmt.Errorf("unsupported speech engine: %s", l.Speech.Engine)
}

// ConvertBulletin converts text into dir/filename. An empty filename
// becomes bulletin_<today>.<ext> with the engine's extension.
func ConvertBulletin(ctx context.Context, p Provider, text, dir, filename string) (string, error) {
	if filename == "" {
		filename = compose.FileName(time.Now(), p.Extension())
	}
	return p.Convert(ctx, text, filepath.Join(dir, filename))
}

// AvailableEngines lists the engines usable with cfg: local when the piper
// binary and voice model are present, openai when its key is set.
func AvailableEngines(l *config.Loaded) []string {
	var engines []string
	if _, err := exec.LookPath(l.Speech.PiperCommand); err == nil {
		if _, err := os.Stat(l.Speech.PiperModel); err == nil {
			engines = append(engines, "local")
		}
	}
	if l.Keys.OpenAI != "" {
		engines = append(engines, "openai")
	}
	return engines
}

func prepareOutput(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}
