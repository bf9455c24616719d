package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/TobiSchelling/wsws-bulletin/internal/collect"
	"github.com/TobiSchelling/wsws-bulletin/internal/compose"
	"github.com/TobiSchelling/wsws-bulletin/internal/config"
	"github.com/TobiSchelling/wsws-bulletin/internal/fetch"
	"github.com/TobiSchelling/wsws-bulletin/internal/llm"
	"github.com/TobiSchelling/wsws-bulletin/internal/speech"
	"github.com/TobiSchelling/wsws-bulletin/internal/synthesize"
)

// ErrNothingToSynthesize is returned when neither recent articles nor a
// perspective were found. No provider is called in that case.
var ErrNothingToSynthesize = synthesize.ErrEmptyBundle

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Skipped bool
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps        []StepResult
	Bundle       *collect.ContentBundle
	Bulletin     *compose.Bulletin
	BulletinPath string
	AudioPath    string
}

// Err returns the first failed step's error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Options are the per-run settings. Zero values fall back to the config.
type Options struct {
	Hours     int
	OutputDir string
	Title     string
	NoAudio   bool
}

type bundleSource interface {
	FetchAll(ctx context.Context, hours int) (*collect.ContentBundle, error)
}

// Pipeline orchestrates collect, synthesize, save and speech.
type Pipeline struct {
	source bundleSource
	synth  *synthesize.Synthesizer
	speech speech.Provider
	opts   Options
	now    func() time.Time
}

// New builds the pipeline components from cfg. Page and feed fetches go
// through getter. The speech engine is only constructed when audio is
// wanted, so a missing voice model does not block text-only runs.
func New(l *config.Loaded, getter fetch.Getter, opts Options) (*Pipeline, error) {
	if opts.Hours < 0 {
		return nil, fmt.Errorf("hours must be a positive integer, got %d", opts.Hours)
	}

	provider, err := llm.CreateProvider(l.Synthesis.Provider, l.APIKey(), l.Model())
	if err != nil {
		return nil, err
	}

	var sp speech.Provider
	if !opts.NoAudio && l.Speech.Enabled {
		sp, err = speech.CreateProvider(l)
		if err != nil {
			return nil, err
		}
	}

	if opts.Hours == 0 {
		opts.Hours = l.Feed.Hours
	}
	if opts.OutputDir == "" {
		opts.OutputDir = l.Output.Dir
	}
	if opts.Title == "" {
		opts.Title = l.Synthesis.Title
	}

	feed := collect.NewFeedFetcher(l.Feed.URL, l.Feed.FeaturedMarker, getter)
	extractor := fetch.NewExtractor(getter, l.Extract.ReadabilityFallback)
	collector := collect.NewCollector(feed, extractor, l.Feed.ExcludeFeaturedFromArticles)

	return newPipeline(collector, provider, sp, opts), nil
}

func newPipeline(source bundleSource, provider llm.Provider, sp speech.Provider, opts Options) *Pipeline {
	return &Pipeline{
		source: source,
		synth:  synthesize.NewSynthesizer(provider),
		speech: sp,
		opts:   opts,
		now:    time.Now,
	}
}

// Run executes the pipeline. It stops at the first failed step; a speech
// input that the engine cannot handle is recorded as skipped instead.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	// Step 1: Collect
	step := p.runCollect(ctx, r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Synthesize
	synthesis, step := p.runSynthesize(ctx, r.Bundle)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 3: Save
	step = p.runSave(r, synthesis)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 4: Speech
	r.Steps = append(r.Steps, p.runSpeech(ctx, r))
	return r
}

func (p *Pipeline) runCollect(ctx context.Context, r *Result) StepResult {
	log.Println("Step 1/4: Collecting articles...")
	bundle, err := p.source.FetchAll(ctx, p.opts.Hours)
	if err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	r.Bundle = bundle

	perspective := "No"
	if bundle.Perspective != nil {
		perspective = "Yes"
	}
	return StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Fetched %d recent articles, perspective: %s", len(bundle.Articles), perspective),
	}
}

func (p *Pipeline) runSynthesize(ctx context.Context, bundle *collect.ContentBundle) (string, StepResult) {
	log.Println("Step 2/4: Synthesizing with AI...")
	text, err := p.synth.Synthesize(ctx, bundle)
	if err != nil {
		return "", StepResult{Name: "Synthesize", Err: err}
	}
	return text, StepResult{
		Name:    "Synthesize",
		Summary: fmt.Sprintf("Synthesis complete (%d characters)", len(text)),
	}
}

func (p *Pipeline) runSave(r *Result, synthesis string) StepResult {
	log.Println("Step 3/4: Saving bulletin...")
	b := compose.Render(r.Bundle, synthesis, p.opts.Title, p.now())
	path, err := compose.Save(b, p.opts.OutputDir)
	if err != nil {
		return StepResult{Name: "Save", Err: err}
	}
	r.Bulletin = b
	r.BulletinPath = path
	return StepResult{Name: "Save", Summary: "Markdown bulletin saved: " + path}
}

func (p *Pipeline) runSpeech(ctx context.Context, r *Result) StepResult {
	if p.speech == nil {
		return StepResult{Name: "Speech", Summary: "Audio disabled", Skipped: true}
	}

	log.Printf("Step 4/4: Converting to audio (%s)...", p.speech.Name())
	b := r.Bulletin
	path, err := speech.ConvertBulletin(ctx, p.speech, b.Body, p.opts.OutputDir, b.FileName(p.speech.Extension()))
	if err != nil {
		var uerr *speech.UnsupportedInputError
		if errors.As(err, &uerr) {
			return StepResult{Name: "Speech", Summary: "Skipped: " + uerr.Error(), Skipped: true}
		}
		return StepResult{Name: "Speech", Err: err}
	}
	r.AudioPath = path
	return StepResult{Name: "Speech", Summary: "Audio saved: " + path}
}
