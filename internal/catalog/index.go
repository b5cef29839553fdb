package catalog

import "path/filepath"

// Index returns a copy of c in which every article's Source is resolved under
// articlesRoot and ID is its zero-based position. c is not modified.
//
// IDs depend only on list order, so the same catalog always yields the same
// filenames.
func Index(c *Catalog, articlesRoot string) *Catalog {
	out := &Catalog{
		Topics:   make([]Topic, len(c.Topics)),
		Articles: make([]Article, len(c.Articles)),
	}
	copy(out.Topics, c.Topics)
	for i, a := range c.Articles {
		a.Source = filepath.Join(articlesRoot, a.Source)
		a.ID = i
		out.Articles[i] = a
	}
	return out
}
