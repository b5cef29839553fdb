package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

const sampleCatalog = `{
  "articles": [
    {"title": "Intro", "topic": "go", "source": "intro.md"},
    {"title": "Channels", "topic": "go", "source": "go/channels.md"},
    {"title": "Stray", "topic": "rust", "source": "stray.md"}
  ],
  "topics": [
    {"slug": "go", "title": "Go"}
  ]
}`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_ParsesCatalog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", []byte(sampleCatalog))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Articles, 3)
	require.Len(t, c.Topics, 1)
	assert.Equal(t, Topic{Slug: "go", Title: "Go"}, c.Topics[0])
	assert.Equal(t, "go/channels.md", c.Articles[1].Source)
}

func TestLoad_Windows1252Catalog(t *testing.T) {
	src := `{"articles":[{"title":"Crème brûlée pour débutants","topic":"cuisine","source":"creme.md"},` +
		`{"title":"Café très noir à la française","topic":"cuisine","source":"cafe.md"}],` +
		`"topics":[{"slug":"cuisine","title":"Cuisine française élémentaire"}]}`
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(src))
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "config.json", raw)

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Articles, 2)
	assert.Equal(t, "cafe.md", c.Articles[1].Source)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfigRead))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"articles": [`},
		{"missing topics", `{"articles": []}`},
		{"article without source", `{"articles":[{"title":"x","topic":"y"}],"topics":[]}`},
		{"wrong type", `{"articles":[{"title":1,"topic":"y","source":"z"}],"topics":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.json", []byte(tt.body))
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfigParse))

			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			got, _ := ce.Context().GetString("path")
			assert.Equal(t, path, got)
		})
	}
}

func TestIndex_AssignsPositionalIDs(t *testing.T) {
	c, err := Parse("config.json", []byte(sampleCatalog))
	require.NoError(t, err)

	indexed := Index(c, "articles")
	for i, a := range indexed.Articles {
		assert.Equal(t, i, a.ID)
	}
	assert.Equal(t, filepath.Join("articles", "intro.md"), indexed.Articles[0].Source)
	assert.Equal(t, filepath.Join("articles", "go", "channels.md"), indexed.Articles[1].Source)
	assert.Equal(t, "001.html", indexed.Articles[1].Filename())

	// input untouched
	assert.Equal(t, "intro.md", c.Articles[0].Source)
	assert.Zero(t, c.Articles[2].ID)
}

func TestIndex_Deterministic(t *testing.T) {
	c, err := Parse("config.json", []byte(sampleCatalog))
	require.NoError(t, err)

	first := Index(c, "articles")
	second := Index(c, "articles")
	assert.Equal(t, first, second)
}

func TestIndex_Empty(t *testing.T) {
	indexed := Index(&Catalog{}, "articles")
	assert.Empty(t, indexed.Articles)
	assert.Empty(t, indexed.Topics)
}

func TestArticlesForAndOrphans(t *testing.T) {
	c, err := Parse("config.json", []byte(sampleCatalog))
	require.NoError(t, err)
	c = Index(c, "articles")

	goArticles := c.ArticlesFor("go")
	require.Len(t, goArticles, 2)
	assert.Equal(t, "Intro", goArticles[0].Title)

	orphans := c.Orphans()
	require.Len(t, orphans, 1)
	assert.Equal(t, 2, orphans[0].ID)
}

func TestPageFilename(t *testing.T) {
	assert.Equal(t, "000.html", PageFilename(0))
	assert.Equal(t, "042.html", PageFilename(42))
	assert.Equal(t, "1234.html", PageFilename(1234))
}
