package build

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/catalog"
	"git.home.luguber.info/inful/sitegen/internal/config"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/output"
	"git.home.luguber.info/inful/sitegen/internal/publish"
)

// Config is the explicit, per-process build configuration.
type Config struct {
	ArticlesDir     string
	TemplatesDir    string
	IndexTemplate   string
	ArticleTemplate string
	Output          output.Options
	RenderWorkers   int
}

// ConfigFromSettings derives the build configuration from loaded settings.
func ConfigFromSettings(s *config.Settings) Config {
	return Config{
		ArticlesDir:     s.ArticlesDir,
		TemplatesDir:    s.Templates.Dir,
		IndexTemplate:   s.Templates.Index,
		ArticleTemplate: s.Templates.Article,
		Output: output.Options{
			Preserve:  s.Output.Preserve,
			StaticDir: s.Output.StaticDir,
		},
		RenderWorkers: s.Build.RenderWorkers,
	}
}

// Request identifies one build: where the catalog is and where the site goes.
// It is discarded once the build finishes.
type Request struct {
	Site        string
	CatalogPath string
	OutputDir   string
	Trigger     Trigger
}

// NewRequest returns the request for building site with settings s.
func NewRequest(s *config.Settings, site string, trigger Trigger) Request {
	return Request{
		Site:        site,
		CatalogPath: s.Catalog,
		OutputDir:   s.SiteDir(site),
		Trigger:     trigger,
	}
}

// Sink receives every finished build result (history, notifications).
type Sink interface {
	RecordBuild(ctx context.Context, r *Result) error
}

// Orchestrator runs builds one at a time.
type Orchestrator struct {
	cfg       Config
	converter markdown.Converter
	publisher publish.Publisher
	recorder  metrics.Recorder
	sinks     []Sink
	logger    *slog.Logger
	newID     func() string

	mu sync.Mutex
}

// New creates an Orchestrator with goldmark conversion, no publishing and no metrics.
func New(cfg Config) *Orchestrator {
	if cfg.RenderWorkers < 1 {
		cfg.RenderWorkers = 1
	}
	return &Orchestrator{
		cfg:       cfg,
		converter: markdown.New(),
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
}

// WithConverter sets the markdown converter.
func (o *Orchestrator) WithConverter(c markdown.Converter) *Orchestrator {
	o.converter = c
	return o
}

// WithPublisher sets the publisher. nil disables publishing.
func (o *Orchestrator) WithPublisher(p publish.Publisher) *Orchestrator {
	o.publisher = p
	return o
}

// WithRecorder sets the metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	o.recorder = r
	return o
}

// WithSinks appends result sinks.
func (o *Orchestrator) WithSinks(sinks ...Sink) *Orchestrator {
	for _, s := range sinks {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
	return o
}

// WithLogger sets the logger.
func (o *Orchestrator) WithLogger(l *slog.Logger) *Orchestrator {
	if l != nil {
		o.logger = l
	}
	return o
}

// buildState carries mutable state across the stages of one build.
type buildState struct {
	cfg       Config
	req       Request
	converter markdown.Converter
	publisher publish.Publisher
	recorder  metrics.Recorder
	logger    *slog.Logger
	result    *Result

	raw       *catalog.Catalog
	catalog   *catalog.Catalog
	indexMD   string
	articleMD []string
	writer    *output.Writer
}

// Run executes a full build. Concurrent calls are serialized. The returned
// error is the fatal stage error; publish failures only show in the result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.newID()
	logger := o.logger.With(logfields.BuildID(id), logfields.Site(req.Site))
	bs := &buildState{
		cfg:       o.cfg,
		req:       req,
		converter: o.converter,
		publisher: o.publisher,
		recorder:  o.recorder,
		logger:    logger,
		result:    newResult(id, req),
	}
	o.recorder.IncBuildTrigger(string(req.Trigger))
	logger.Info("Build started", logfields.Trigger(string(req.Trigger)), logfields.Path(req.OutputDir))

	defer func() {
		if bs.writer != nil {
			bs.writer.Abort()
		}
	}()

	err := runStages(ctx, bs, []stageDef{
		{StageLoading, stageLoad},
		{StageIndexing, stageIndex},
		{StageComposing, stageCompose},
		{StageRendering, stageRender},
		{StageWriting, stageWrite},
		{StagePublishing, stagePublish},
	})
	res := bs.result
	res.finish()

	o.recorder.ObserveBuildDuration(res.Duration())
	o.recorder.IncBuildOutcome(string(res.Outcome))
	if res.Succeeded() {
		o.recorder.SetPagesWritten(res.Pages)
	}
	o.report(logger, res)

	for _, s := range o.sinks {
		if serr := s.RecordBuild(context.WithoutCancel(ctx), res); serr != nil {
			logger.Warn("Failed to record build result", logfields.Error(serr))
		}
	}
	return res, err
}

func (o *Orchestrator) report(logger *slog.Logger, res *Result) {
	attrs := []any{
		"outcome", string(res.Outcome),
		logfields.Count(res.Pages),
		"published", res.Published,
		logfields.DurationMS(float64(res.Duration().Microseconds()) / 1000),
	}
	switch res.Outcome {
	case OutcomeSuccess:
		logger.Info("Build complete", attrs...)
	case OutcomeWarning:
		for _, w := range res.Warnings {
			attrs = append(attrs, logfields.Error(w))
		}
		logger.Warn("Build complete with warnings", attrs...)
	default:
		attrs = append(attrs, logfields.Stage(string(res.Stage)), logfields.Error(res.Err))
		if ce, ok := ferrors.AsClassified(res.Err); ok {
			for _, a := range ce.LogAttrs() {
				attrs = append(attrs, a)
			}
		}
		logger.Error("Build failed", attrs...)
	}
}
