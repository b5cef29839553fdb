package watch

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/radovskyb/watcher"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// PollSource detects changes by periodically scanning the targets. It works on
// filesystems without change notifications (network mounts, some containers).
type PollSource struct {
	targets  Targets
	interval time.Duration

	watching     chan struct{}
	watchingOnce sync.Once
}

// NewPollSource returns a polling Source.
func NewPollSource(targets Targets, interval time.Duration) *PollSource {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &PollSource{targets: targets.normalized(), interval: interval, watching: make(chan struct{})}
}

// Watching is closed once the initial file list is snapshotted.
func (s *PollSource) Watching() <-chan struct{} { return s.watching }

func (s *PollSource) Run(ctx context.Context, emit func(path string)) error {
	w := watcher.New()
	w.IgnoreHiddenFiles(true)

	for _, root := range s.targets.Dirs {
		if err := w.AddRecursive(root); err != nil {
			return ferrors.NewError(ferrors.CategoryWatch, "watch root not found").
				WithCause(err).WithContext("path", root).Build()
		}
	}
	for _, f := range s.targets.Files {
		if _, err := os.Stat(f); err != nil {
			slog.Warn("Watched file missing, not polling it", logfields.Path(f))
			continue
		}
		if err := w.Add(f); err != nil {
			slog.Warn("watch add failed", logfields.Path(f), logfields.Error(err))
		}
	}

	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(s.interval) }()
	defer closePoller(w)

	slog.Info("Watching for changes", "dirs", s.targets.Dirs, "files", s.targets.Files, "backend", "poll", "interval", s.interval)
	// the file list is snapshotted by Add, so later writes are detected
	s.watchingOnce.Do(func() { close(s.watching) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-startErr:
			if err != nil {
				return ferrors.NewError(ferrors.CategoryWatch, "poll watcher failed").WithCause(err).Build()
			}
			return nil
		case ev := <-w.Event:
			if ev.IsDir() || ShouldIgnore(ev.Path) {
				continue
			}
			slog.Debug("File change detected", logfields.Path(ev.Path), logfields.Op(ev.Op.String()))
			emit(ev.Path)
			if ev.Op == watcher.Rename || ev.Op == watcher.Move {
				if ev.OldPath != "" && !ShouldIgnore(ev.OldPath) {
					emit(ev.OldPath)
				}
			}
		case err := <-w.Error:
			slog.Warn("Watcher error", logfields.Error(err))
		case <-w.Closed:
			return nil
		}
	}
}

// closePoller stops w. Its loop blocks on unbuffered sends, so events are
// drained until it reports closed.
func closePoller(w *watcher.Watcher) {
	go func() {
		timeout := time.NewTimer(2 * time.Second)
		defer timeout.Stop()
		for {
			select {
			case <-w.Event:
			case <-w.Error:
			case <-w.Closed:
				return
			case <-timeout.C:
				return
			}
		}
	}()
	w.Close()
}
