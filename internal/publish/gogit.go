package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// AuthError reports a push rejected for credentials.
type AuthError struct {
	Remote string
	Err    error
}

func (e *AuthError) Error() string { return fmt.Sprintf("push auth error for %s: %v", e.Remote, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// RemoteDivergedError reports a non-fast-forward push.
type RemoteDivergedError struct {
	Remote, Branch string
	Err            error
}

func (e *RemoteDivergedError) Error() string {
	return fmt.Sprintf("push rejected, remote diverged %s@%s: %v", e.Remote, e.Branch, e.Err)
}
func (e *RemoteDivergedError) Unwrap() error { return e.Err }

// GoGitPublisher publishes with go-git; no git binary is needed.
type GoGitPublisher struct {
	opts Options
	auth transport.AuthMethod
}

// NewGoGitPublisher returns a go-git backed publisher. auth may be nil.
func NewGoGitPublisher(opts Options, auth transport.AuthMethod) *GoGitPublisher {
	return &GoGitPublisher{opts: opts.withDefaults(), auth: auth}
}

// Publish stages every change in dir, commits and pushes the configured branch.
// Step semantics match CommandPublisher.
func (p *GoGitPublisher) Publish(ctx context.Context, dir string) error {
	var res result
	log := p.opts.Logger.With(logfields.Path(dir))

	repo, err := git.PlainOpen(dir)
	if err != nil {
		res.fail(StepAdd, fmt.Errorf("open repository: %w", err))
		return res.err(dir)
	}
	wt, err := repo.Worktree()
	if err != nil {
		res.fail(StepAdd, fmt.Errorf("worktree: %w", err))
		return res.err(dir)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		res.fail(StepAdd, err)
		return res.err(dir)
	}

	commitOpts := &git.CommitOptions{All: true}
	if p.opts.AuthorName != "" && p.opts.AuthorEmail != "" {
		commitOpts.Author = &object.Signature{
			Name:  p.opts.AuthorName,
			Email: p.opts.AuthorEmail,
			When:  p.opts.Now(),
		}
	}
	if hash, err := wt.Commit(CommitMessage(p.opts.Now()), commitOpts); err != nil {
		log.Warn("Commit failed, pushing anyway", logfields.Op(StepCommit), logfields.Error(err))
		res.fail(StepCommit, err)
	} else {
		log.Debug("Committed site", "commit", hash.String())
	}

	push := func(ctx context.Context) error { return p.push(ctx, repo) }
	if err := pushWithRetry(ctx, p.opts, push, transientPushError); err != nil {
		res.fail(StepPush, err)
	}
	return res.err(dir)
}

func (p *GoGitPublisher) push(ctx context.Context, repo *git.Repository) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	ref := plumbing.NewBranchReferenceName(p.opts.Branch)
	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: p.opts.Remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))},
		Auth:       p.auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return p.classifyPushError(err)
	}

	// mirror `push -u`
	cfg, cerr := repo.Config()
	if cerr == nil {
		cfg.Branches[p.opts.Branch] = &config.Branch{Name: p.opts.Branch, Remote: p.opts.Remote, Merge: ref}
		if serr := repo.SetConfig(cfg); serr != nil {
			p.opts.Logger.Debug("Failed to record upstream branch", logfields.Error(serr))
		}
	}
	return nil
}

func (p *GoGitPublisher) classifyPushError(err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(l, "authentication"):
		return &AuthError{Remote: p.opts.Remote, Err: err}
	case strings.Contains(l, "non-fast-forward"):
		return &RemoteDivergedError{Remote: p.opts.Remote, Branch: p.opts.Branch, Err: err}
	default:
		return err
	}
}

func transientPushError(err error) bool {
	var authErr *AuthError
	var divergedErr *RemoteDivergedError
	return !errors.As(err, &authErr) && !errors.As(err, &divergedErr)
}
