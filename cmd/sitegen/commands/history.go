package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Site  string `arg:"" optional:"" help:"Only show builds of this site"`
	Limit int    `short:"n" help:"Maximum number of builds to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	s, err := loadSettings(root.Settings)
	if err != nil {
		return err
	}
	if s.History.Path == "" {
		return ferrors.SettingsError("build history is disabled (set history.path)").
			WithContext("settings", root.Settings).
			Build()
	}

	store, err := history.Open(s.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), h.Site, h.Limit)
	if err != nil {
		return ferrors.NewError(ferrors.CategoryStorage, "read build history").WithCause(err).Build()
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(g.stdout(), "no builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSITE\tTRIGGER\tOUTCOME\tPAGES\tPUBLISHED\tDURATION\tERROR")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\t%s\t%s\n",
			r.Start.Local().Format(time.DateTime), r.Site, r.Trigger, r.Outcome,
			r.Pages, r.Published, r.Duration.Round(time.Millisecond), r.Error)
	}
	return tw.Flush()
}
