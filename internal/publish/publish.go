// Package publish pushes a generated site directory to its version-control remote.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// CommitTimeLayout formats the timestamp in commit messages.
const CommitTimeLayout = "2006-01-02 15:04:05"

// Step names, used in logs and error context.
const (
	StepAdd    = "add"
	StepCommit = "commit"
	StepPush   = "push"
)

// Publisher stages, commits and pushes everything in dir.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

// Options are shared by the publisher backends.
type Options struct {
	Remote  string
	Branch  string
	Timeout time.Duration
	// AuthorName and AuthorEmail set the commit identity where the backend
	// supports it. Empty values fall back to the repository configuration.
	AuthorName  string
	AuthorEmail string
	// Retry governs push attempts. The zero value pushes once.
	Retry  retry.Policy
	Now    func() time.Time
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Remote == "" {
		o.Remote = "origin"
	}
	if o.Branch == "" {
		o.Branch = "master"
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.Retry.Validate() != nil {
		o.Retry = retry.None()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// CommitMessage returns the commit message for a publish at t.
func CommitMessage(t time.Time) string {
	return "commit done at " + t.Format(CommitTimeLayout)
}

// stepError records one failed step.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

// result collects step failures of one publish run.
type result struct {
	failures []*stepError
}

func (r *result) fail(step string, err error) {
	r.failures = append(r.failures, &stepError{step: step, err: err})
}

// err returns nil when every step succeeded, otherwise a publish error
// naming the first failed step and joining every cause.
func (r *result) err(dir string) error {
	if len(r.failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.failures))
	for _, f := range r.failures {
		errs = append(errs, f)
	}
	return ferrors.PublishError(r.failures[0].step, errors.Join(errs...)).
		WithContext("path", dir).
		WithContext("failed_steps", len(r.failures)).
		Build()
}

// Disabled is a Publisher that does nothing.
type Disabled struct{}

func (Disabled) Publish(context.Context, string) error { return nil }

// pushWithRetry runs push under the retry policy, logging each retry.
func pushWithRetry(ctx context.Context, opts Options, push func(context.Context) error, transient func(error) bool) error {
	return opts.Retry.Do(ctx, push, transient, func(attempt int, delay time.Duration, err error) {
		opts.Logger.Warn("Push failed, retrying",
			logfields.Op(StepPush), "attempt", attempt, "delay", delay, logfields.Error(err))
	})
}
