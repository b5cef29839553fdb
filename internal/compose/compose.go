// Package compose builds the markdown documents that become site pages.
package compose

import (
	"os"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/catalog"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// Index returns the index page markdown: one level-two heading per topic,
// followed by a link for every article in that topic. Topics and articles keep
// catalog order. Articles whose topic is unknown are not listed.
func Index(c *catalog.Catalog) string {
	var b strings.Builder
	for _, topic := range c.Topics {
		b.WriteString("## ")
		b.WriteString(topic.Title)
		b.WriteString("\n")
		for _, a := range c.Articles {
			if a.Topic != topic.Slug {
				continue
			}
			b.WriteString("- [")
			b.WriteString(linkTextEscaper.Replace(a.Title))
			b.WriteString("](./")
			b.WriteString(a.Filename())
			b.WriteString(")\n")
		}
	}
	return b.String()
}

// Article reads the article source and prefixes it with its title heading.
// Invalid UTF-8 sequences are replaced rather than rejected.
func Article(a catalog.Article) (string, error) {
	raw, err := os.ReadFile(a.Source)
	if err != nil {
		return "", ferrors.ArticleReadError(a.Source, err).
			WithContext("article_id", a.ID).
			Build()
	}
	return ArticleText(a.Title, string(raw)), nil
}

// ArticleText joins a title heading and a markdown body.
func ArticleText(title, body string) string {
	return "## " + title + "\n" + strings.ToValidUTF8(body, "\uFFFD")
}
