package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/wsws-bulletin/internal/collect"
	"github.com/TobiSchelling/wsws-bulletin/internal/config"
	"github.com/TobiSchelling/wsws-bulletin/internal/database"
	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
	"github.com/TobiSchelling/wsws-bulletin/internal/httpcache"
	"github.com/TobiSchelling/wsws-bulletin/internal/llm"
	"github.com/TobiSchelling/wsws-bulletin/internal/pipeline"
	"github.com/TobiSchelling/wsws-bulletin/internal/server"
	"github.com/TobiSchelling/wsws-bulletin/internal/speech"
	"github.com/TobiSchelling/wsws-bulletin/internal/ui"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	envFile    string
	cfg        *config.Loaded
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wsws-bulletin",
	Short: "Automated daily bulletin from the World Socialist Web Site",
	Long: "wsws-bulletin collects recent articles and the latest perspective from the WSWS feed,\n" +
		"synthesizes them with an AI provider and converts the bulletin to audio.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path, os.LookupEnv)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file with API keys")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(listArticlesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("wsws-bulletin", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/wsws-bulletin/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Put ANTHROPIC_API_KEY / OPENAI_API_KEY in ./.env or ~/.wsws-bulletin.env.")
		return nil
	},
}

// --- generate command ---

var (
	genHours        int
	genOutputDir    string
	genNoAudio      bool
	genProvider     string
	genEngine       string
	genPrintSummary bool
	genTitle        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a daily bulletin: collect -> synthesize -> save -> speech",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyOverrides(cfg, genProvider, genEngine, genOutputDir); err != nil {
			return err
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			printConfigErrors(errs)
			return fmt.Errorf("invalid configuration")
		}

		hours, err := resolveHours(cmd, genHours, cfg.Feed.Hours)
		if err != nil {
			return err
		}

		getter, closeCache, err := newGetter(cfg.Config)
		if err != nil {
			return err
		}
		defer closeCache()

		pipe, err := pipeline.New(cfg, getter, pipeline.Options{
			Hours:     hours,
			OutputDir: cfg.Output.Dir,
			Title:     genTitle,
			NoAudio:   genNoAudio,
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.Header("WSWS Bulletin Generator"))
		fmt.Println()
		fmt.Printf("Provider: %s (%s)\n\n", cfg.Synthesis.Provider, cfg.Model())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		result := pipe.Run(ctx)

		for i, step := range result.Steps {
			fmt.Println(ui.Section(fmt.Sprintf("Step %d: %s", i+1, step.Name)))
			switch {
			case step.Err != nil:
				fmt.Println(ui.Fail(step.Err.Error()))
			case step.Skipped:
				fmt.Println(ui.Warn(step.Summary))
			default:
				fmt.Println(ui.OK(step.Summary))
			}
			fmt.Println()
		}

		if err := result.Err(); err != nil {
			if errors.Is(err, pipeline.ErrNothingToSynthesize) {
				fmt.Fprintln(os.Stderr, "No articles found. Nothing to synthesize.")
			}
			return err
		}

		fmt.Println(ui.Rule("="))
		fmt.Println(ui.OK("Bulletin generation complete!"))
		fmt.Println(ui.Rule("="))
		fmt.Printf("Output directory: %s\n", cfg.Output.Dir)
		fmt.Printf("Markdown file: %s\n", filepath.Base(result.BulletinPath))
		if result.AudioPath != "" {
			fmt.Printf("Audio file: %s\n", filepath.Base(result.AudioPath))
		}

		if genPrintSummary {
			fmt.Println()
			fmt.Println(ui.Header("BULLETIN TEXT"))
			fmt.Println(result.Bulletin.Text())
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&genHours, "hours", 0, "Hours to look back for recent articles (default from config, 24)")
	generateCmd.Flags().StringVar(&genOutputDir, "output-dir", "", "Output directory for generated files")
	generateCmd.Flags().BoolVar(&genNoAudio, "no-audio", false, "Skip audio generation, only write the markdown bulletin")
	generateCmd.Flags().StringVar(&genProvider, "ai-provider", "", "AI provider: anthropic or openai")
	generateCmd.Flags().StringVar(&genEngine, "tts-engine", "", "Speech engine: local or openai")
	generateCmd.Flags().BoolVar(&genPrintSummary, "print-summary", false, "Print the bulletin to stdout after generation")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "Override the bulletin title")
}

// applyOverrides applies command-line choices on top of the loaded config.
func applyOverrides(l *config.Loaded, provider, engine, outputDir string) error {
	if provider != "" {
		p := strings.ToLower(provider)
		if p != "anthropic" && p != "openai" {
			return fmt.Errorf("invalid --ai-provider %q: choose anthropic or openai", provider)
		}
		l.Synthesis.Provider = p
	}
	if engine != "" {
		e := strings.ToLower(engine)
		if e != "local" && e != "openai" {
			return fmt.Errorf("invalid --tts-engine %q: choose local or openai", engine)
		}
		l.Speech.Engine = e
	}
	if outputDir != "" {
		l.Output.Dir = outputDir
	}
	return nil
}

func printConfigErrors(errs []string) {
	fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Configuration errors:"))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  • %s\n", e)
	}
	fmt.Fprintln(os.Stderr, "\nPlease check your .env file or environment variables.")
}

// newGetter returns the HTTP client for feed and article fetches, backed by
// the response cache when enabled. The returned func closes the cache.
func newGetter(c *config.Config) (fetch.Getter, func(), error) {
	if !c.Cache.Enabled {
		log.Println("HTTP cache disabled")
		return fetch.NewClient(c.Timeout(), c.Feed.UserAgent, nil), func() {}, nil
	}

	db, err := openCache(c)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("HTTP cache enabled: %s (expires after %dmin)", db.Path(), c.Cache.ExpireMinutes)
	transport := httpcache.NewTransport(db, c.CacheExpiry(), nil)
	return fetch.NewClient(c.Timeout(), c.Feed.UserAgent, transport), func() { db.Close() }, nil
}

func openCache(c *config.Config) (*database.DB, error) {
	return database.Open(filepath.Join(c.GetCacheDir(), "http_cache.db"))
}

// --- check command ---

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration, speech engines and the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking WSWS Bulletin configuration...")
		fmt.Println()

		source := cfg.Path
		if source == "" {
			source = "built-in defaults"
		}
		fmt.Println(ui.Section("Configuration"))
		fmt.Printf("  Config: %s\n", source)
		fmt.Printf("  AI Provider: %s\n", cfg.Synthesis.Provider)
		fmt.Printf("  TTS Engine: %s\n", cfg.Speech.Engine)
		fmt.Printf("  Output Dir: %s\n", cfg.Output.Dir)
		fmt.Printf("  Cache: %v (%d min)\n", cfg.Cache.Enabled, cfg.Cache.ExpireMinutes)
		fmt.Println()

		fmt.Println(ui.Section("API Keys"))
		fmt.Printf("  OpenAI: %s\n", keyStatus(cfg.Keys.OpenAI))
		fmt.Printf("  Anthropic: %s\n", keyStatus(cfg.Keys.Anthropic))
		fmt.Println()

		if errs := cfg.Validate(); len(errs) > 0 {
			fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Validation Errors:"))
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "  %s\n", ui.Fail(e))
			}
			return fmt.Errorf("invalid configuration")
		}
		fmt.Println(ui.OK("Configuration is valid"))
		fmt.Println()

		fmt.Println(ui.Section("Available TTS Engines"))
		available := speech.AvailableEngines(cfg)
		for _, engine := range []string{"local", "openai"} {
			if slices.Contains(available, engine) {
				fmt.Printf("  %s\n", ui.OK(engine))
			} else {
				fmt.Printf("  %s\n", ui.Fail(engine+" (not available)"))
			}
		}
		fmt.Println()

		fmt.Println(ui.Section("AI Model"))
		fmt.Printf("  Configured: %s\n", cfg.Model())
		models, err := listModels(cmd.Context(), cfg.Synthesis.Provider)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "  %s\n", ui.Warn("Could not verify model: "+err.Error()))
		case llm.HasModel(models, cfg.Model()):
			fmt.Printf("  %s\n", ui.OK("Model exists"))
		default:
			fmt.Fprintf(os.Stderr, "  %s\n", ui.Warn("Configured model not found in available models"))
		}
		fmt.Println()

		fmt.Println(ui.OK("All checks passed!"))
		return nil
	},
}

func keyStatus(key string) string {
	if key != "" {
		return ui.OK("Set")
	}
	return ui.Fail("Not set")
}

func listModels(ctx context.Context, provider string) ([]llm.ModelInfo, error) {
	key := cfg.Keys.Anthropic
	if provider == "openai" {
		key = cfg.Keys.OpenAI
	}
	if key == "" {
		return nil, fmt.Errorf("API key for %s not set", provider)
	}

	p, err := llm.CreateProvider(provider, key, cfg.Model())
	if err != nil {
		return nil, err
	}
	lister, ok := p.(llm.ModelLister)
	if !ok {
		return nil, fmt.Errorf("%s does not support model listing", provider)
	}
	return lister.ListModels(ctx)
}

// --- list-models command ---

var listProvider string

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available AI models for the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(listProvider)
		if provider == "" {
			provider = cfg.Synthesis.Provider
		}
		if provider != "anthropic" && provider != "openai" {
			return fmt.Errorf("unknown provider: %s", provider)
		}

		fmt.Printf("Fetching available %s models...\n\n", provider)
		models, err := listModels(cmd.Context(), provider)
		if err != nil {
			return fmt.Errorf("fetching models: %w", err)
		}

		fmt.Println(ui.Section(fmt.Sprintf("Available Models (%d total)", len(models))))
		for _, m := range models {
			fmt.Printf("ID: %s\n", m.ID)
			if m.DisplayName != "" {
				fmt.Printf("  Display Name: %s\n", m.DisplayName)
			}
			fmt.Printf("  Created: %s\n", m.CreatedAt.Format("2006-01-02"))
			fmt.Println()
		}

		current := cfg.Synthesis.AnthropicModel
		if provider == "openai" {
			current = cfg.Synthesis.OpenAIModel
		}
		fmt.Println(ui.Rule("-"))
		fmt.Printf("Currently configured: %s\n", current)
		if llm.HasModel(models, current) {
			fmt.Println(ui.OK("Configured model is valid"))
		} else {
			fmt.Fprintln(os.Stderr, ui.Warn("Warning: Configured model not found in available models"))
		}
		return nil
	},
}

func init() {
	listModelsCmd.Flags().StringVar(&listProvider, "provider", "", "Provider to list models for (default from config)")
}

// resolveHours returns the --hours flag when it was given, the configured
// window otherwise. An explicit non-positive value is an error.
func resolveHours(cmd *cobra.Command, flagValue, configured int) (int, error) {
	if !cmd.Flags().Changed("hours") {
		return configured, nil
	}
	if flagValue <= 0 {
		return 0, fmt.Errorf("--hours must be a positive integer, got %d", flagValue)
	}
	return flagValue, nil
}

// --- list-articles command ---

var listHours int

var listArticlesCmd = &cobra.Command{
	Use:   "list-articles",
	Short: "List the latest perspective and recent articles without generating a bulletin",
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := resolveHours(cmd, listHours, cfg.Feed.Hours)
		if err != nil {
			return err
		}

		getter, closeCache, err := newGetter(cfg.Config)
		if err != nil {
			return err
		}
		defer closeCache()

		feed := collect.NewFeedFetcher(cfg.Feed.URL, cfg.Feed.FeaturedMarker, getter)
		ctx := cmd.Context()

		fmt.Printf("Fetching articles from the last %d hours...\n\n", hours)

		fmt.Println(ui.Section("Latest Perspective"))
		perspective, err := feed.FetchFeaturedItem(ctx)
		if err != nil {
			return err
		}
		if perspective != nil {
			fmt.Printf("Title: %s\n", perspective.Title)
			fmt.Printf("Date: %s\n", perspective.PublishedDate)
			fmt.Printf("URL: %s\n", ui.LinkStyle.Render(perspective.URL))
		} else {
			fmt.Println("No perspective found")
		}
		fmt.Println()

		fmt.Println(ui.Section(fmt.Sprintf("Recent Articles (%dh)", hours)))
		articles, err := feed.FetchRecent(ctx, hours)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No recent articles found")
		}
		for i, a := range articles {
			fmt.Printf("%d. %s\n", i+1, a.Title)
			fmt.Printf("   %s - %s\n\n", ui.DimStyle.Render(a.PublishedDate), a.URL)
		}

		fmt.Printf("Total: %d articles\n", len(articles))
		return nil
	},
}

func init() {
	listArticlesCmd.Flags().IntVar(&listHours, "hours", 0, "Hours to look back (default from config, 24)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Browse generated bulletins in a local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Serving %s at http://localhost:%d\n", cfg.Output.Dir, port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg.Output.Dir, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config, 8000)")
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the HTTP response cache",
}

var cacheOlderThan time.Duration

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cfg.Config)
		if err != nil {
			return err
		}
		defer db.Close()

		var n int64
		if cacheOlderThan > 0 {
			n, err = db.DeleteResponsesBefore(time.Now().Add(-cacheOlderThan))
		} else {
			n, err = db.ClearResponses()
		}
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println(ui.OK(fmt.Sprintf("Removed %d cached responses", n)))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and age",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cfg.Config)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Cache: %s\n", db.Path())
		fmt.Printf("  Entries: %d\n", stats.Entries)
		fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(stats.BodyBytes)))
		if stats.Oldest != nil {
			fmt.Printf("  Oldest: %s\n", humanize.Time(*stats.Oldest))
			fmt.Printf("  Newest: %s\n", humanize.Time(*stats.Newest))
		}
		fmt.Printf("  Expiry: %d min\n", cfg.Cache.ExpireMinutes)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().DurationVar(&cacheOlderThan, "older-than", 0, "Only remove entries older than this (e.g. 72h)")
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
