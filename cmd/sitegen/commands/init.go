package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing settings and template files"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	out := g.stdout()
	_, _ = fmt.Fprintf(out, "Writing settings to %s\n", root.Settings)
	if err := config.Init(root.Settings, i.Force); err != nil {
		return err
	}

	// templates go next to the settings file
	s := config.Default()
	dir := filepath.Join(filepath.Dir(root.Settings), s.Templates.Dir)
	written, err := render.WriteDefaults(dir, s.Templates.Index, s.Templates.Article, i.Force)
	if err != nil {
		return err
	}
	for _, p := range written {
		_, _ = fmt.Fprintf(out, "Wrote template %s\n", p)
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
