package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Feed.URL != "https://www.wsws.org/en/rss.xml" {
		t.Errorf("unexpected feed url %q", cfg.Feed.URL)
	}
	if cfg.Feed.FeaturedMarker != "/pers-" {
		t.Errorf("expected marker '/pers-', got %q", cfg.Feed.FeaturedMarker)
	}
	if cfg.Synthesis.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic', got %q", cfg.Synthesis.Provider)
	}
	if cfg.Speech.Engine != "local" {
		t.Errorf("expected speech engine 'local', got %q", cfg.Speech.Engine)
	}
	// piper_model is commented out in the default file, the built-in default applies
	if cfg.Speech.PiperModel == "" {
		t.Error("expected default piper model path")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
synthesis:
  provider: OpenAI
  openai_model: gpt-4o-mini
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Synthesis.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Synthesis.Provider)
	}
	if cfg.Model() != "gpt-4o-mini" {
		t.Errorf("expected model 'gpt-4o-mini', got %q", cfg.Model())
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Cache.ExpireMinutes != 30 {
		t.Errorf("expected default cache expiry 30, got %d", cfg.Cache.ExpireMinutes)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	l, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Path != "" {
		t.Errorf("expected empty path, got %q", l.Path)
	}
	if l.Output.Dir != "./output" {
		t.Errorf("expected './output', got %q", l.Output.Dir)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("output:\n  dir: /tmp/bulletins\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	l, err := Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if l.Output.Dir != "/tmp/bulletins" {
		t.Errorf("expected output dir from file, got %q", l.Output.Dir)
	}
}

func TestEnvOverrides(t *testing.T) {
	l, err := Load("", envMap(map[string]string{
		"AI_PROVIDER":          "OPENAI",
		"TTS_ENGINE":           "openai",
		"OUTPUT_DIR":           "/srv/out",
		"CACHE_ENABLED":        "no",
		"CACHE_EXPIRE_MINUTES": "90",
		"OPENAI_MODEL":         "gpt-4.1",
		"OPENAI_API_KEY":       " sk-test ",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if l.Synthesis.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", l.Synthesis.Provider)
	}
	if l.Speech.Engine != "openai" {
		t.Errorf("expected engine 'openai', got %q", l.Speech.Engine)
	}
	if l.Output.Dir != "/srv/out" {
		t.Errorf("expected '/srv/out', got %q", l.Output.Dir)
	}
	if l.Cache.Enabled {
		t.Error("expected cache disabled")
	}
	if l.Cache.ExpireMinutes != 90 {
		t.Errorf("expected 90, got %d", l.Cache.ExpireMinutes)
	}
	if l.Model() != "gpt-4.1" {
		t.Errorf("expected 'gpt-4.1', got %q", l.Model())
	}
	if l.APIKey() != "sk-test" {
		t.Errorf("expected trimmed key, got %q", l.APIKey())
	}
}

func TestInvalidCacheExpiryKeepsDefault(t *testing.T) {
	l, _ := Load("", envMap(map[string]string{"CACHE_EXPIRE_MINUTES": "soon"}))
	if l.Cache.ExpireMinutes != 30 {
		t.Errorf("expected default 30, got %d", l.Cache.ExpireMinutes)
	}
}

func TestValidate(t *testing.T) {
	l, _ := Load("", envMap(map[string]string{"ANTHROPIC_API_KEY": "k"}))
	if errs := l.Validate(); len(errs) != 0 {
		t.Errorf("expected valid config, got %v", errs)
	}

	l, _ = Load("", envMap(map[string]string{
		"AI_PROVIDER": "ollama",
		"TTS_ENGINE":  "openai",
	}))
	errs := l.Validate()
	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "Invalid AI_PROVIDER: ollama") {
		t.Errorf("expected provider error, got %v", errs)
	}
	if !strings.Contains(joined, "OPENAI_API_KEY is not set") {
		t.Errorf("expected speech key error, got %v", errs)
	}

	l, _ = Load("", envMap(nil))
	errs = l.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0], "ANTHROPIC_API_KEY") {
		t.Errorf("expected missing key error, got %v", errs)
	}
}

func TestGetCacheDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetCacheDir() == "" {
		t.Error("expected non-empty default cache dir")
	}

	cfg.Cache.Dir = "/custom/path"
	if cfg.GetCacheDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetCacheDir())
	}
}
