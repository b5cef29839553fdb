package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// FSNotifySource watches targets with OS file notifications.
type FSNotifySource struct {
	targets Targets

	mu   sync.Mutex
	dirs map[string]struct{}
	// files maps watched single files; their parent dirs are watched non-recursively.
	files map[string]struct{}

	watching     chan struct{}
	watchingOnce sync.Once
}

// NewFSNotifySource returns an fsnotify backed Source.
func NewFSNotifySource(targets Targets) *FSNotifySource {
	return &FSNotifySource{
		targets: targets.normalized(),
		dirs:    make(map[string]struct{}),
		files:   make(map[string]struct{}),

		watching: make(chan struct{}),
	}
}

// Watching is closed once the initial watches are registered.
func (s *FSNotifySource) Watching() <-chan struct{} { return s.watching }

func (s *FSNotifySource) Run(ctx context.Context, emit func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.NewError(ferrors.CategoryWatch, "fsnotify").WithCause(err).Build()
	}
	defer func() { _ = w.Close() }()

	for _, root := range s.targets.Dirs {
		if _, err := os.Stat(root); err != nil {
			return ferrors.NewError(ferrors.CategoryWatch, "watch root not found").
				WithCause(err).WithContext("path", root).Build()
		}
		s.addDirsRecursive(w, root)
	}
	for _, f := range s.targets.Files {
		s.files[f] = struct{}{}
		parent := filepath.Dir(f)
		if err := w.Add(parent); err != nil {
			slog.Warn("watch add failed", "dir", parent, logfields.Error(err))
		}
	}
	slog.Info("Watching for changes", "dirs", s.targets.Dirs, "files", s.targets.Files, "backend", "fsnotify")
	s.watchingOnce.Do(func() { close(s.watching) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(w, ev, emit)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *FSNotifySource) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, emit func(string)) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	path := filepath.Clean(ev.Name)
	if ShouldIgnore(path) {
		return
	}

	if !s.underDirs(path) {
		// parent of a single watched file: only that file counts
		if !s.isWatchedFile(path) {
			return
		}
		slog.Debug("File change detected", logfields.Path(path), logfields.Op(ev.Op.String()))
		emit(path)
		return
	}

	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			s.addDirsRecursive(w, path)
			return
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if s.forgetDir(path) {
			return
		}
	}
	slog.Debug("File change detected", logfields.Path(path), logfields.Op(ev.Op.String()))
	emit(path)
}

func (s *FSNotifySource) addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ShouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("watch add failed", "dir", path, logfields.Error(err))
			return nil
		}
		s.mu.Lock()
		s.dirs[path] = struct{}{}
		s.mu.Unlock()
		return nil
	})
}

// forgetDir drops a removed directory and reports whether path was one.
func (s *FSNotifySource) forgetDir(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dirs[path]; !ok {
		return false
	}
	delete(s.dirs, path)
	return true
}

func (s *FSNotifySource) underDirs(path string) bool {
	for _, root := range s.targets.Dirs {
		if rel, err := filepath.Rel(root, path); err == nil && rel != ".." && !hasParentPrefix(rel) {
			return true
		}
	}
	return false
}

func (s *FSNotifySource) isWatchedFile(path string) bool {
	_, ok := s.files[path]
	return ok
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
