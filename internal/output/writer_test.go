package output

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestWriter_FirstBuildCreatesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "example.com")
	w := NewWriter(out, Options{Preserve: []string{".git"}}, nil)

	require.NoError(t, w.Prepare())
	require.NoError(t, w.WritePage("index.html", "<p>index</p>"))
	require.NoError(t, w.WritePage("000.html", "<p>a</p>"))
	require.NoError(t, w.Commit())

	assert.Equal(t, []string{"000.html", "index.html"}, listDir(t, out))
	assert.NoDirExists(t, out+"_stage")
	assert.NoDirExists(t, out+".prev")
}

func TestWriter_ReplacesStalePagesAndKeepsGit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "example.com")
	require.NoError(t, os.MkdirAll(filepath.Join(out, ".git", "refs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, ".git", "HEAD"), []byte("ref: refs/heads/master\n"), 0o600))
	for _, name := range []string{"index.html", "000.html", "001.html", "002.html", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(out, name), []byte("old"), 0o600))
	}

	w := NewWriter(out, Options{Preserve: []string{".git"}}, nil)
	require.NoError(t, w.Prepare())
	require.NoError(t, w.WritePage("index.html", "new index"))
	require.NoError(t, w.WritePage("000.html", "new a"))
	require.NoError(t, w.Commit())

	assert.Equal(t, []string{".git", "000.html", "index.html"}, listDir(t, out))
	head, err := os.ReadFile(filepath.Join(out, ".git", "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/master\n", string(head))

	page, err := os.ReadFile(filepath.Join(out, "000.html"))
	require.NoError(t, err)
	assert.Equal(t, "new a", string(page))
}

func TestWriter_AbortLeavesOutputUntouched(t *testing.T) {
	out := filepath.Join(t.TempDir(), "example.com")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("old"), 0o600))

	w := NewWriter(out, Options{}, nil)
	require.NoError(t, w.Prepare())
	require.NoError(t, w.WritePage("index.html", "half"))
	w.Abort()
	w.Abort()

	assert.NoDirExists(t, out+"_stage")
	page, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(page))
}

func TestWriter_PrepareRemovesStaleStaging(t *testing.T) {
	out := filepath.Join(t.TempDir(), "example.com")
	require.NoError(t, os.MkdirAll(out+"_stage", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out+"_stage", "999.html"), []byte("stale"), 0o600))

	w := NewWriter(out, Options{}, nil)
	require.NoError(t, w.Prepare())
	assert.Empty(t, listDir(t, w.StageDir()))
	w.Abort()
}

func TestWriter_CopiesStaticAssets(t *testing.T) {
	root := t.TempDir()
	static := filepath.Join(root, "static")
	require.NoError(t, os.MkdirAll(filepath.Join(static, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "css", "site.css"), []byte("body{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(static, ".DS_Store"), []byte("x"), 0o600))

	out := filepath.Join(root, "example.com")
	w := NewWriter(out, Options{StaticDir: static}, nil)
	require.NoError(t, w.Prepare())
	require.NoError(t, w.WritePage("index.html", "i"))
	require.NoError(t, w.Commit())

	assert.Equal(t, []string{"css", "index.html"}, listDir(t, out))
	assert.FileExists(t, filepath.Join(out, "css", "site.css"))
}

func TestWriter_MissingStaticDirIsSkipped(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(filepath.Join(root, "site.org"), Options{StaticDir: filepath.Join(root, "nope")}, nil)
	require.NoError(t, w.Prepare())
	w.Abort()
}

func TestWriter_Errors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "example.com")
	w := NewWriter(out, Options{}, nil)

	err := w.WritePage("index.html", "x")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryOutputDir))

	err = w.Commit()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryOutputDir))

	require.NoError(t, w.Prepare())
	for _, bad := range []string{"", "../x.html", "sub/x.html", ".git"} {
		err := w.WritePage(bad, "x")
		require.Error(t, err, bad)
	}
	w.Abort()
}
