// Package output owns the site output directory. Every build is written into a
// sibling staging directory and swapped into place on commit, so the live
// directory only ever holds a complete build.
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Options configures a Writer.
type Options struct {
	// Preserve names top-level entries carried over from the previous output,
	// typically version-control metadata such as ".git".
	Preserve []string
	// StaticDir, when set and present, is copied into the site before pages.
	StaticDir string
}

// Writer stages one build's pages and promotes them to the output directory.
// A Writer is single-use: Prepare, WritePage any number of times, then Commit
// or Abort.
type Writer struct {
	outputDir string
	stageDir  string
	opts      Options
	logger    *slog.Logger
}

// NewWriter returns a Writer for outputDir.
func NewWriter(outputDir string, opts Options, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{outputDir: filepath.Clean(outputDir), opts: opts, logger: logger}
}

// OutputDir returns the live output directory.
func (w *Writer) OutputDir() string { return w.outputDir }

// StageDir returns the staging directory, or "" before Prepare.
func (w *Writer) StageDir() string { return w.stageDir }

// Prepare creates a fresh staging directory next to the output directory and
// copies static assets into it. Leftovers from an interrupted build are removed.
func (w *Writer) Prepare() error {
	stage := w.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return ferrors.OutputDirError(stage, fmt.Errorf("remove stale staging: %w", err)).Build()
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return ferrors.OutputDirError(stage, err).Build()
	}
	w.stageDir = stage
	w.logger.Debug("Initialized staging directory", "staging", stage, "final", w.outputDir)

	if err := w.copyStatic(); err != nil {
		w.Abort()
		return err
	}
	return nil
}

func (w *Writer) copyStatic() error {
	src := w.opts.StaticDir
	if src == "" {
		return nil
	}
	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("Static directory not found, skipping", logfields.Path(src))
		return nil
	}
	if err != nil {
		return ferrors.OutputDirError(src, err).Build()
	}
	if !info.IsDir() {
		return ferrors.OutputDirError(src, errors.New("static path is not a directory")).Build()
	}
	if err := cp.Copy(src, w.stageDir, cp.Options{
		Skip: func(_ os.FileInfo, path, _ string) (bool, error) {
			return isHidden(filepath.Base(path)) && path != src, nil
		},
	}); err != nil {
		return ferrors.OutputDirError(src, fmt.Errorf("copy static assets: %w", err)).Build()
	}
	w.logger.Debug("Copied static assets", logfields.Path(src))
	return nil
}

// WritePage writes one page into the staging directory. name must be a plain
// file name. Safe for concurrent use with distinct names.
func (w *Writer) WritePage(name, html string) error {
	if w.stageDir == "" {
		return ferrors.OutputDirError(w.outputDir, errors.New("staging directory not prepared")).Build()
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return ferrors.OutputDirError(w.outputDir, fmt.Errorf("invalid page name %q", name)).Build()
	}
	path := filepath.Join(w.stageDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return ferrors.OutputDirError(path, err).Build()
	}
	return nil
}

// Commit promotes the staging directory to the output directory.
//
//  1. Move preserved entries from the current output into staging.
//  2. Rename the current output to <output>.prev.
//  3. Rename staging to the output directory.
//  4. Remove <output>.prev.
//
// If a rename fails the previous output is restored.
func (w *Writer) Commit() error {
	if w.stageDir == "" {
		return ferrors.OutputDirError(w.outputDir, errors.New("no staging directory initialized")).Build()
	}
	if _, err := os.Stat(w.stageDir); err != nil {
		return ferrors.OutputDirError(w.stageDir, fmt.Errorf("staging directory missing: %w", err)).Build()
	}
	if err := os.MkdirAll(filepath.Dir(w.outputDir), 0o755); err != nil {
		return ferrors.OutputDirError(w.outputDir, err).Build()
	}

	prev := w.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return ferrors.OutputDirError(prev, fmt.Errorf("remove old backup: %w", err)).Build()
	}

	_, statErr := os.Stat(w.outputDir)
	hadOutput := statErr == nil

	var moved []string
	if hadOutput {
		var err error
		moved, err = w.carryPreserved(w.outputDir, w.stageDir)
		if err != nil {
			w.restorePreserved(moved)
			return ferrors.OutputDirError(w.outputDir, err).Build()
		}
		if err := os.Rename(w.outputDir, prev); err != nil {
			w.restorePreserved(moved)
			return ferrors.OutputDirError(w.outputDir, fmt.Errorf("backup existing output: %w", err)).Build()
		}
	}

	if err := os.Rename(w.stageDir, w.outputDir); err != nil {
		if hadOutput {
			if rerr := os.Rename(prev, w.outputDir); rerr == nil {
				w.restorePreserved(moved)
			} else {
				w.logger.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return ferrors.OutputDirError(w.outputDir, fmt.Errorf("promote staging: %w", err)).Build()
	}
	w.stageDir = ""

	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			w.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	w.logger.Info("Promoted staging directory", "output", w.outputDir, "preserved", len(moved))
	return nil
}

// carryPreserved moves preserved entries from src into dst and returns the
// names that were moved.
func (w *Writer) carryPreserved(src, dst string) ([]string, error) {
	var moved []string
	for _, name := range w.opts.Preserve {
		if name == "" || name != filepath.Base(name) {
			continue
		}
		from := filepath.Join(src, name)
		if _, err := os.Lstat(from); err != nil {
			continue
		}
		to := filepath.Join(dst, name)
		if err := os.RemoveAll(to); err != nil {
			return moved, fmt.Errorf("clear %s in staging: %w", name, err)
		}
		if err := os.Rename(from, to); err != nil {
			return moved, fmt.Errorf("preserve %s: %w", name, err)
		}
		moved = append(moved, name)
	}
	return moved, nil
}

// restorePreserved moves entries back from staging into the output directory.
func (w *Writer) restorePreserved(names []string) {
	for _, name := range names {
		from := filepath.Join(w.stageDir, name)
		to := filepath.Join(w.outputDir, name)
		if err := os.Rename(from, to); err != nil {
			w.logger.Error("Failed to restore preserved entry", logfields.Path(to), logfields.Error(err))
		}
	}
}

// Abort removes the staging directory and leaves the output untouched.
func (w *Writer) Abort() {
	if w.stageDir == "" {
		return
	}
	dir := w.stageDir
	w.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		w.logger.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
		return
	}
	w.logger.Debug("Removed staging directory after abort", "staging", dir)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
