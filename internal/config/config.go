package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "wsws-bulletin"

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feed      Feed      `yaml:"feed"`
	Extract   Extract   `yaml:"extract"`
	Synthesis Synthesis `yaml:"synthesis"`
	Speech    Speech    `yaml:"speech"`
	Cache     Cache     `yaml:"cache"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
}

type Feed struct {
	URL                         string `yaml:"url"`
	FeaturedMarker              string `yaml:"featured_marker"`
	Hours                       int    `yaml:"hours"`
	TimeoutSeconds              int    `yaml:"timeout_seconds"`
	UserAgent                   string `yaml:"user_agent"`
	ExcludeFeaturedFromArticles bool   `yaml:"exclude_featured_from_articles"`
}

type Extract struct {
	ReadabilityFallback bool `yaml:"readability_fallback"`
}

type Synthesis struct {
	Provider           string `yaml:"provider"`
	AnthropicModel     string `yaml:"anthropic_model"`
	OpenAIModel        string `yaml:"openai_model"`
	AnthropicAPIKeyEnv string `yaml:"anthropic_api_key_env"`
	OpenAIAPIKeyEnv    string `yaml:"openai_api_key_env"`
	Title              string `yaml:"title"`
}

type Speech struct {
	Enabled      bool   `yaml:"enabled"`
	Engine       string `yaml:"engine"`
	PiperCommand string `yaml:"piper_command"`
	PiperModel   string `yaml:"piper_model"`
	OpenAIModel  string `yaml:"openai_model"`
	OpenAIVoice  string `yaml:"openai_voice"`
}

type Cache struct {
	Enabled       bool   `yaml:"enabled"`
	ExpireMinutes int    `yaml:"expire_minutes"`
	Dir           string `yaml:"dir"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// Keys holds credentials resolved from the environment at load time.
// They are never read from or written to the YAML file.
type Keys struct {
	Anthropic string
	OpenAI    string
}

// Loaded is the immutable result of configuration resolution.
type Loaded struct {
	*Config
	Keys Keys
	Path string // empty when running on built-in defaults
}

// ConfigDir returns the XDG config directory for wsws-bulletin.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// CacheDir returns the XDG cache directory for wsws-bulletin.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// ResolveConfigPath finds the config file following priority:
// explicit path > $XDG_CONFIG_HOME/wsws-bulletin/config.yaml > ./config.yaml.
// An empty result with a nil error means no file exists and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// LoadEnvFile loads a .env file into the process environment without
// overriding variables that are already set. With no explicit path the
// first of ./.env and ~/.wsws-bulletin.env that exists is used.
func LoadEnvFile(explicit string) error {
	if explicit != "" {
		if err := godotenv.Load(explicit); err != nil {
			return fmt.Errorf("loading env file %s: %w", explicit, err)
		}
		return nil
	}

	candidates := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".wsws-bulletin.env"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return godotenv.Load(c)
		}
	}
	return nil
}

// Load reads the config file at path (defaults only when path is empty)
// and resolves environment overrides and API keys through lookup.
func Load(path string, lookup func(string) (string, bool)) (*Loaded, error) {
	data := []byte{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		data = b
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg, lookup)

	keys := Keys{}
	if v, ok := lookup(cfg.Synthesis.AnthropicAPIKeyEnv); ok {
		keys.Anthropic = strings.TrimSpace(v)
	}
	if v, ok := lookup(cfg.Synthesis.OpenAIAPIKeyEnv); ok {
		keys.OpenAI = strings.TrimSpace(v)
	}

	return &Loaded{Config: cfg, Keys: keys, Path: path}, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Feed: Feed{
			URL:            "https://www.wsws.org/en/rss.xml",
			FeaturedMarker: "/pers-",
			Hours:          24,
			TimeoutSeconds: 30,
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		},
		Synthesis: Synthesis{
			Provider:           "anthropic",
			AnthropicModel:     "claude-haiku-4-5-20251001",
			OpenAIModel:        "gpt-4o",
			AnthropicAPIKeyEnv: "ANTHROPIC_API_KEY",
			OpenAIAPIKeyEnv:    "OPENAI_API_KEY",
		},
		Speech: Speech{
			Enabled:      true,
			Engine:       "local",
			PiperCommand: "piper",
			PiperModel:   filepath.Join(xdg.DataHome, appName, "voices", "en_US-lessac-high.onnx"),
			OpenAIModel:  "tts-1-hd",
			OpenAIVoice:  "alloy",
		},
		Cache: Cache{
			Enabled:       true,
			ExpireMinutes: 30,
		},
		Output: Output{Dir: "./output"},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Synthesis.Provider = strings.ToLower(cfg.Synthesis.Provider)
	cfg.Speech.Engine = strings.ToLower(cfg.Speech.Engine)
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("AI_PROVIDER"); ok && v != "" {
		cfg.Synthesis.Provider = strings.ToLower(v)
	}
	if v, ok := lookup("TTS_ENGINE"); ok && v != "" {
		cfg.Speech.Engine = strings.ToLower(v)
	}
	if v, ok := lookup("OUTPUT_DIR"); ok && v != "" {
		cfg.Output.Dir = v
	}
	if v, ok := lookup("ANTHROPIC_MODEL"); ok && v != "" {
		cfg.Synthesis.AnthropicModel = v
	}
	if v, ok := lookup("OPENAI_MODEL"); ok && v != "" {
		cfg.Synthesis.OpenAIModel = v
	}
	if v, ok := lookup("CACHE_ENABLED"); ok && v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.Cache.Enabled = true
		default:
			cfg.Cache.Enabled = false
		}
	}
	if v, ok := lookup("CACHE_EXPIRE_MINUTES"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.ExpireMinutes = n
		}
	}
}

// Validate returns a list of configuration problems; empty means valid.
func (l *Loaded) Validate() []string {
	var errs []string

	switch l.Synthesis.Provider {
	case "anthropic", "openai":
		if l.APIKey() == "" {
			errs = append(errs, fmt.Sprintf(
				"Missing API key for provider '%s'. Set %s in .env file",
				l.Synthesis.Provider, l.apiKeyEnv()))
		}
	default:
		errs = append(errs, fmt.Sprintf("Invalid AI_PROVIDER: %s", l.Synthesis.Provider))
	}

	switch l.Speech.Engine {
	case "local":
	case "openai":
		if l.Keys.OpenAI == "" {
			errs = append(errs, fmt.Sprintf("TTS_ENGINE is 'openai' but %s is not set", l.Synthesis.OpenAIAPIKeyEnv))
		}
	default:
		errs = append(errs, fmt.Sprintf("Invalid TTS_ENGINE: %s", l.Speech.Engine))
	}

	if l.Cache.Enabled && l.Cache.ExpireMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("cache.expire_minutes must be positive, got %d", l.Cache.ExpireMinutes))
	}
	if l.Feed.Hours <= 0 {
		errs = append(errs, fmt.Sprintf("feed.hours must be positive, got %d", l.Feed.Hours))
	}

	return errs
}

// APIKey returns the key for the selected synthesis provider.
func (l *Loaded) APIKey() string {
	switch l.Synthesis.Provider {
	case "anthropic":
		return l.Keys.Anthropic
	case "openai":
		return l.Keys.OpenAI
	}
	return ""
}

func (l *Loaded) apiKeyEnv() string {
	if l.Synthesis.Provider == "openai" {
		return l.Synthesis.OpenAIAPIKeyEnv
	}
	return l.Synthesis.AnthropicAPIKeyEnv
}

// Model returns the model identifier for the selected synthesis provider.
func (c *Config) Model() string {
	if c.Synthesis.Provider == "openai" {
		return c.Synthesis.OpenAIModel
	}
	return c.Synthesis.AnthropicModel
}

// Timeout returns the HTTP timeout for feed and article fetches.
func (c *Config) Timeout() time.Duration {
	if c.Feed.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

// CacheExpiry returns how long cached HTTP responses stay fresh.
func (c *Config) CacheExpiry() time.Duration {
	return time.Duration(c.Cache.ExpireMinutes) * time.Minute
}

// GetCacheDir returns the effective cache directory from config or XDG default.
func (c *Config) GetCacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return CacheDir()
}
