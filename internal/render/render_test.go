package render

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestRender_InsertsFragmentUnescaped(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "index_template.html", "<body>{{ .index_html }}</body>")

	out, err := New(dir).Render("index_template.html", map[string]string{
		KeyIndexHTML: "<h2>Go</h2>",
	})
	require.NoError(t, err)
	assert.Equal(t, "<body><h2>Go</h2></body>", out)
}

func TestRender_Errors(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken.html", "{{ .article_html ")
	writeTemplate(t, dir, "typo.html", "{{ .artcle_html }}")

	r := New(dir)
	for _, name := range []string{"missing.html", "broken.html", "typo.html"} {
		_, err := r.Render(name, map[string]string{KeyArticleHTML: "<p>x</p>"})
		require.Error(t, err, name)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate), name)
	}
}

func TestRender_CachesPerRenderer(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.html", "v1 {{ .article_html }}")

	r := New(dir)
	out, err := r.Render("a.html", map[string]string{KeyArticleHTML: "x"})
	require.NoError(t, err)
	assert.Equal(t, "v1 x", out)

	writeTemplate(t, dir, "a.html", "v2 {{ .article_html }}")
	out, err = r.Render("a.html", map[string]string{KeyArticleHTML: "x"})
	require.NoError(t, err)
	assert.Equal(t, "v1 x", out)

	out, err = New(dir).Render("a.html", map[string]string{KeyArticleHTML: "x"})
	require.NoError(t, err)
	assert.Equal(t, "v2 x", out)
}

func TestRender_Concurrent(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.html", "{{ .article_html }}")
	r := New(dir)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Render("a.html", map[string]string{KeyArticleHTML: "ok"})
			assert.NoError(t, err)
			assert.Equal(t, "ok", out)
		}()
	}
	wg.Wait()
}

func TestWriteDefaults(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteDefaults(dir, "index_template.html", "article_template.html", false)
	require.NoError(t, err)
	assert.Len(t, written, 2)

	r := New(dir)
	require.NoError(t, r.Check("index_template.html", "article_template.html"))
	out, err := r.Render("article_template.html", map[string]string{KeyArticleHTML: "<h2>Hi</h2>"})
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Hi</h2>")

	written, err = WriteDefaults(dir, "index_template.html", "article_template.html", false)
	require.NoError(t, err)
	assert.Empty(t, written)
}
