package publish

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Runner executes an external command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// DefaultWaitDelay bounds how long output is drained after a command is killed.
const DefaultWaitDelay = 5 * time.Second

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// WaitDelay caps the wait for children (ssh, credential helpers) that
	// keep the output pipe open after the command is killed. Zero means
	// DefaultWaitDelay.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// CommandPublisher publishes with the git command line tool. Commands run with
// their working directory set to the site; the process directory never changes.
type CommandPublisher struct {
	binary string
	runner Runner
	opts   Options
}

// NewCommandPublisher returns a publisher using the git binary (default "git").
// A nil runner uses ExecRunner.
func NewCommandPublisher(binary string, runner Runner, opts Options) *CommandPublisher {
	if binary == "" {
		binary = "git"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CommandPublisher{binary: binary, runner: runner, opts: opts.withDefaults()}
}

// Publish runs add, commit and push. A failed add stops the sequence. A failed
// commit, usually "nothing to commit", is logged and push still runs so that
// earlier unpushed commits go out.
func (p *CommandPublisher) Publish(ctx context.Context, dir string) error {
	var res result
	log := p.opts.Logger.With(logfields.Path(dir))

	if err := p.step(ctx, dir, StepAdd, "add", "--all"); err != nil {
		res.fail(StepAdd, err)
		return res.err(dir)
	}

	msg := CommitMessage(p.opts.Now())
	args := []string{"commit", "-m", msg}
	if p.opts.AuthorName != "" && p.opts.AuthorEmail != "" {
		args = append(args, "--author", fmt.Sprintf("%s <%s>", p.opts.AuthorName, p.opts.AuthorEmail))
	}
	if err := p.step(ctx, dir, StepCommit, args...); err != nil {
		log.Warn("Commit failed, pushing anyway", logfields.Op(StepCommit), logfields.Error(err))
		res.fail(StepCommit, err)
	}

	push := func(ctx context.Context) error {
		return p.step(ctx, dir, StepPush, "push", "-u", p.opts.Remote, p.opts.Branch)
	}
	if err := pushWithRetry(ctx, p.opts, push, transientPushOutput); err != nil {
		res.fail(StepPush, err)
	}
	return res.err(dir)
}

func (p *CommandPublisher) step(ctx context.Context, dir, step string, args ...string) error {
	stepCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	out, err := p.runner.Run(stepCtx, dir, p.binary, args...)
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if stepCtx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", p.opts.Timeout, err)
		}
		if trimmed != "" {
			err = fmt.Errorf("%w: %s", err, trimmed)
		}
		return err
	}
	p.opts.Logger.Debug("Publish step done", logfields.Op(step), logfields.Path(dir), "output", trimmed)
	return nil
}

// transientPushOutput reports whether a failed git push is worth retrying.
// Rejections and credential failures are not.
func transientPushOutput(err error) bool {
	l := strings.ToLower(err.Error())
	for _, permanent := range []string{"rejected", "non-fast-forward", "authentication", "permission denied", "could not read username"} {
		if strings.Contains(l, permanent) {
			return false
		}
	}
	return true
}
