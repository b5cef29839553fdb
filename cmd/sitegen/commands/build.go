package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteArgs `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	if err := config.ValidateSiteName(b.Site); err != nil {
		return err
	}
	s, err := loadSettings(root.Settings)
	if err != nil {
		return err
	}
	logger := g.logger()

	svc, err := newServices(s, b.NoPublish, logger)
	if err != nil {
		return err
	}
	defer svc.close(context.Background(), logger)

	res, err := svc.orchestrator.Run(context.Background(), build.NewRequest(s, b.Site, build.TriggerManual))
	if res != nil {
		_, _ = fmt.Fprintln(g.stdout(), build.Summary(res))
	}
	return err
}
