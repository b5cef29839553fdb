package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Loop wires a Source, a Coalescer and an optional Scheduler together.
type Loop struct {
	source    Source
	coalescer *Coalescer
	scheduler *Scheduler
	logger    *slog.Logger
	startup   build.Trigger
}

// NewLoop builds the watch loop for settings s around build fn.
func NewLoop(s *config.Settings, targets Targets, fn BuildFunc, logger *slog.Logger) (*Loop, error) {
	if logger == nil {
		logger = slog.Default()
	}
	src, err := NewSource(s.Watch, targets)
	if err != nil {
		return nil, err
	}
	c, err := NewCoalescer(CoalescerConfig{
		QuietWindow: s.Watch.QuietWindowDuration(),
		MaxDelay:    s.Watch.MaxDelayDuration(),
	}, NewRunner(fn), logger)
	if err != nil {
		return nil, err
	}
	l := &Loop{source: src, coalescer: c, logger: logger}

	if every := s.Watch.RebuildEveryDuration(); every > 0 {
		sch, err := NewScheduler(every, c)
		if err != nil {
			return nil, err
		}
		l.scheduler = sch
	}
	return l, nil
}

// BuildOnStart makes Run start a build with trigger as soon as the source is
// watching. Changes saved during that build produce one follow-up.
func (l *Loop) BuildOnStart(trigger build.Trigger) {
	l.startup = trigger
}

// Coalescer exposes the loop's coalescer for manual triggers.
func (l *Loop) Coalescer() *Coalescer { return l.coalescer }

// Run blocks until ctx is done. On return the source has stopped and any
// in-flight build has finished.
func (l *Loop) Run(ctx context.Context) error {
	srcCtx, stopSource := context.WithCancel(ctx)
	defer stopSource()

	var wg sync.WaitGroup
	var srcErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		srcErr = l.source.Run(srcCtx, func(path string) {
			l.coalescer.Request(build.TriggerChange, path)
		})
		if srcErr != nil {
			l.logger.Error("Watcher stopped", logfields.Error(srcErr))
			stopSource()
		}
	}()

	if l.startup != "" {
		go func() {
			if ws, ok := l.source.(watchSignaler); ok {
				select {
				case <-ws.Watching():
				case <-srcCtx.Done():
					return
				}
			}
			l.coalescer.RequestNow(l.startup)
		}()
	}

	if l.scheduler != nil {
		l.scheduler.Start()
		defer func() {
			if err := l.scheduler.Stop(); err != nil {
				l.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	// the coalescer stops with the source so a dead watcher ends the loop
	err := l.coalescer.Run(srcCtx)
	stopSource()
	wg.Wait()
	return errors.Join(err, srcErr)
}
