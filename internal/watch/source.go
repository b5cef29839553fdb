package watch

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/config"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Source delivers changed file paths until ctx is done.
type Source interface {
	Run(ctx context.Context, emit func(path string)) error
}

// watchSignaler is implemented by sources that can report when their
// initial watches are in place.
type watchSignaler interface {
	Watching() <-chan struct{}
}

// Targets lists what a Source watches.
type Targets struct {
	// Dirs are watched recursively; new subdirectories are picked up.
	Dirs []string
	// Files are watched individually (catalog, templates).
	Files []string
}

// TargetsFromSettings watches the articles tree, the catalog and both templates.
func TargetsFromSettings(s *config.Settings) Targets {
	return Targets{
		Dirs: []string{s.ArticlesDir},
		Files: []string{
			s.Catalog,
			s.TemplatePath(s.Templates.Index),
			s.TemplatePath(s.Templates.Article),
		},
	}
}

func (t Targets) normalized() Targets {
	out := Targets{}
	for _, d := range t.Dirs {
		if abs, err := filepath.Abs(d); err == nil {
			out.Dirs = append(out.Dirs, abs)
		}
	}
	for _, f := range t.Files {
		if abs, err := filepath.Abs(f); err == nil {
			out.Files = append(out.Files, abs)
		}
	}
	return out
}

// NewSource returns the Source for the configured backend.
func NewSource(w config.WatchConfig, targets Targets) (Source, error) {
	switch w.Backend {
	case config.WatchBackendFSNotify, "":
		return NewFSNotifySource(targets), nil
	case config.WatchBackendPoll:
		return NewPollSource(targets, w.PollIntervalDuration()), nil
	default:
		return nil, ferrors.NewError(ferrors.CategoryWatch, "unknown watch backend").
			WithContext("backend", w.Backend).Build()
	}
}
