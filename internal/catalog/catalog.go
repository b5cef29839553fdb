// Package catalog loads the site catalog (topics and articles) and assigns
// stable article identifiers.
package catalog

import "fmt"

// Topic groups articles on the index page.
type Topic struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Article is one catalog entry. ID is assigned by Index and is not part of
// the catalog file.
type Article struct {
	Title  string `json:"title"`
	Topic  string `json:"topic"`
	Source string `json:"source"`
	ID     int    `json:"-"`
}

// Filename returns the output page name for the article, e.g. "007.html".
func (a Article) Filename() string {
	return PageFilename(a.ID)
}

// PageFilename formats an article id as its output filename.
func PageFilename(id int) string {
	return fmt.Sprintf("%03d.html", id)
}

// Catalog is the parsed configuration file. It is loaded fresh for every build.
type Catalog struct {
	Topics   []Topic   `json:"topics"`
	Articles []Article `json:"articles"`
}

// ArticlesFor returns the articles whose topic equals slug, in catalog order.
func (c *Catalog) ArticlesFor(slug string) []Article {
	var out []Article
	for _, a := range c.Articles {
		if a.Topic == slug {
			out = append(out, a)
		}
	}
	return out
}

// Orphans returns articles that reference no known topic. They get a page
// but no index entry.
func (c *Catalog) Orphans() []Article {
	known := make(map[string]struct{}, len(c.Topics))
	for _, t := range c.Topics {
		known[t.Slug] = struct{}{}
	}
	var out []Article
	for _, a := range c.Articles {
		if _, ok := known[a.Topic]; !ok {
			out = append(out, a)
		}
	}
	return out
}
