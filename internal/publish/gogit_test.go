package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// newSiteRepo creates a bare remote and a site working copy with origin set.
func newSiteRepo(t *testing.T) (sitePath, barePath string) {
	t.Helper()
	root := t.TempDir()
	barePath = filepath.Join(root, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	sitePath = filepath.Join(root, "example.com")
	repo, err := git.PlainInit(sitePath, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)
	return sitePath, barePath
}

func goGitOptions() Options {
	return Options{
		Branch:      "master",
		AuthorName:  "tester",
		AuthorEmail: "t@example.com",
		Now:         func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestGoGitPublisher_PushesToBareRemote(t *testing.T) {
	sitePath, barePath := newSiteRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(sitePath, "index.html"), []byte("<p>hi</p>"), 0o600))

	p := NewGoGitPublisher(goGitOptions(), nil)
	require.NoError(t, p.Publish(t.Context(), sitePath))

	bare, err := git.PlainOpen(barePath)
	require.NoError(t, err)
	ref, err := bare.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	commit, err := bare.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "commit done at 2024-01-02 03:04:05", commit.Message)

	_, err = commit.File("index.html")
	require.NoError(t, err)
}

func TestGoGitPublisher_PicksUpDeletions(t *testing.T) {
	sitePath, barePath := newSiteRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(sitePath, "000.html"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(sitePath, "001.html"), []byte("b"), 0o600))

	p := NewGoGitPublisher(goGitOptions(), nil)
	require.NoError(t, p.Publish(t.Context(), sitePath))

	require.NoError(t, os.Remove(filepath.Join(sitePath, "001.html")))
	require.NoError(t, p.Publish(t.Context(), sitePath))

	bare, err := git.PlainOpen(barePath)
	require.NoError(t, err)
	ref, err := bare.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	commit, err := bare.CommitObject(ref.Hash())
	require.NoError(t, err)
	_, err = commit.File("001.html")
	require.Error(t, err)
}

func TestGoGitPublisher_NothingToCommitIsSoft(t *testing.T) {
	sitePath, _ := newSiteRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(sitePath, "index.html"), []byte("x"), 0o600))

	p := NewGoGitPublisher(goGitOptions(), nil)
	require.NoError(t, p.Publish(t.Context(), sitePath))

	err := p.Publish(t.Context(), sitePath)
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.SeverityWarning, ce.Severity())
	step, _ := ce.Context().GetString("step")
	assert.Equal(t, StepCommit, step)
}

func TestGoGitPublisher_NotARepository(t *testing.T) {
	p := NewGoGitPublisher(goGitOptions(), nil)
	err := p.Publish(t.Context(), t.TempDir())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPublish))
}
