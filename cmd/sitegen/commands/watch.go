package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

// WatchCmd implements the default command: build, publish, then rebuild on change.
type WatchCmd struct {
	SiteArgs `embed:""`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.run(ctx, g, root)
}

// run watches and builds until ctx is canceled. The startup build begins once
// the watcher is in place.
func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	if err := config.ValidateSiteName(w.Site); err != nil {
		return err
	}
	s, err := loadSettings(root.Settings)
	if err != nil {
		return err
	}
	logger := g.logger()

	svc, err := newServices(s, w.NoPublish, logger)
	if err != nil {
		return err
	}
	defer svc.close(context.Background(), logger)

	// build errors are logged by the orchestrator; the loop keeps going
	rebuild := func(ctx context.Context, trigger build.Trigger) {
		_, _ = svc.orchestrator.Run(ctx, build.NewRequest(s, w.Site, trigger))
	}

	loop, err := watch.NewLoop(s, watch.TargetsFromSettings(s), rebuild, logger)
	if err != nil {
		return err
	}

	loop.BuildOnStart(build.TriggerStartup)
	if err := loop.Run(ctx); err != nil {
		return err
	}
	logger.Info("Watcher stopped")
	return nil
}
