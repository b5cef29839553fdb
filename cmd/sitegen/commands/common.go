package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/notify"
	"git.home.luguber.info/inful/sitegen/internal/publish"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Global is passed to every subcommand.
type Global struct {
	Logger *slog.Logger
	// Stdout receives user-facing output; nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition and global flags.
type CLI struct {
	Settings string           `short:"s" help:"Settings file path (optional)" default:"sitegen.yaml" type:"path"`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Watch   WatchCmd   `cmd:"" default:"withargs" help:"Build and publish a site, then rebuild on every change (default)"`
	Build   BuildCmd   `cmd:"" help:"Build and publish a site once"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the history database"`
	Init    InitCmd    `cmd:"" help:"Write an example settings file and starter templates"`
}

// NewParser returns the kong parser for cli. g is bound for hooks and commands.
func NewParser(cli *CLI, g *Global, options ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("sitegen"),
		kong.Description("Build a static site from a catalog of markdown articles, publish it and rebuild on change."),
		kong.Bind(g),
	}
	return kong.New(cli, append(base, options...)...)
}

// AfterApply runs after flag parsing; set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	logger := config.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// SiteArgs are shared by the commands that build a site.
type SiteArgs struct {
	Site      string `arg:"" help:"Site identifier, also the output directory name (e.g. example.com)"`
	NoPublish bool   `name:"no-publish" help:"Skip the version-control push after each build"`
}

func loadSettings(path string) (*config.Settings, error) {
	return config.Load(path)
}

// services is the per-process wiring shared by build and watch.
type services struct {
	settings     *config.Settings
	orchestrator *build.Orchestrator
	closers      []func(context.Context) error
}

// newServices wires the orchestrator with the optional publisher, metrics
// listener, history store and notifier named in s.
func newServices(s *config.Settings, noPublish bool, logger *slog.Logger) (*services, error) {
	svc := &services{settings: s}
	orch := build.New(build.ConfigFromSettings(s)).WithLogger(logger)

	if !noPublish && s.Publish.IsEnabled() {
		orch.WithPublisher(newPublisher(s, logger))
	} else {
		logger.Info("Publishing disabled")
	}

	if s.Metrics.Listen != "" {
		reg := prom.NewRegistry()
		orch.WithRecorder(metrics.NewPrometheusRecorder(reg))
		srv := metrics.NewServer(s.Metrics.Listen, reg)
		srv.Start()
		svc.closers = append(svc.closers, srv.Shutdown)
	}

	if s.History.Path != "" {
		store, err := history.Open(s.History.Path)
		if err != nil {
			svc.close(context.Background(), logger)
			return nil, err
		}
		orch.WithSinks(store)
		svc.closers = append(svc.closers, func(context.Context) error { return store.Close() })
	}

	if s.Notify.NATSURL != "" {
		n, err := notify.Connect(s.Notify.NATSURL, s.Notify.Subject)
		if err != nil {
			// notifications are optional; builds run without them
			logger.Warn("NATS notifications disabled", logfields.Error(err))
		} else {
			orch.WithSinks(n)
			svc.closers = append(svc.closers, func(context.Context) error { n.Close(); return nil })
		}
	}

	svc.orchestrator = orch
	return svc, nil
}

func newPublisher(s *config.Settings, logger *slog.Logger) publish.Publisher {
	opts := publish.Options{
		Remote:      s.Publish.Remote,
		Branch:      s.Publish.Branch,
		Timeout:     s.Publish.TimeoutDuration(),
		AuthorName:  s.Publish.AuthorName,
		AuthorEmail: s.Publish.AuthorEmail,
		Retry:       s.Publish.RetryPolicy(),
		Logger:      logger,
	}
	if s.Publish.Method == config.PublishMethodGoGit {
		return publish.NewGoGitPublisher(opts, nil)
	}
	return publish.NewCommandPublisher(s.Publish.GitBinary, publish.ExecRunner{}, opts)
}

// close releases resources in reverse order of acquisition.
func (svc *services) close(ctx context.Context, logger *slog.Logger) {
	var errs []error
	for i := len(svc.closers) - 1; i >= 0; i-- {
		errs = append(errs, svc.closers[i](ctx))
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("Shutdown cleanup failed", logfields.Error(err))
	}
	svc.closers = nil
}
