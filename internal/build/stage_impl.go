package build

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitegen/internal/catalog"
	"git.home.luguber.info/inful/sitegen/internal/compose"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/output"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// IndexFilename is the name of the index page.
const IndexFilename = "index.html"

// RenderedPage is one finished page awaiting its write.
type RenderedPage struct {
	Filename string
	HTML     string
}

func stageLoad(_ context.Context, bs *buildState) error {
	c, err := catalog.Load(bs.req.CatalogPath)
	if err != nil {
		return err
	}
	bs.raw = c
	return nil
}

func stageIndex(_ context.Context, bs *buildState) error {
	bs.catalog = catalog.Index(bs.raw, bs.cfg.ArticlesDir)
	bs.result.Articles = len(bs.catalog.Articles)

	orphans := bs.catalog.Orphans()
	bs.result.Orphans = len(orphans)
	for _, a := range orphans {
		bs.logger.Warn("Article topic matches no catalog topic; page is written but not listed in the index",
			logfields.ArticleID(a.ID), "topic", a.Topic, "title", a.Title)
	}
	return nil
}

func stageCompose(ctx context.Context, bs *buildState) error {
	bs.indexMD = compose.Index(bs.catalog)
	bs.articleMD = make([]string, len(bs.catalog.Articles))
	for i, a := range bs.catalog.Articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := compose.Article(a)
		if err != nil {
			return err
		}
		bs.articleMD[i] = text
	}

	bs.result.BrokenLinks = brokenPageLinks(bs.catalog, bs.articleMD)
	for _, l := range bs.result.BrokenLinks {
		bs.logger.Warn("Article links to a page this build does not produce", "link", l)
	}
	return nil
}

// pageLinkPattern matches relative links to generated pages.
var pageLinkPattern = regexp.MustCompile(`^(?:\./)?(\d{3,}\.html|index\.html)(?:#.*)?$`)

// brokenPageLinks returns "<page> -> <destination>" for every relative page
// link in article text that resolves to no page of the build.
func brokenPageLinks(c *catalog.Catalog, texts []string) []string {
	pages := map[string]struct{}{IndexFilename: {}}
	for _, a := range c.Articles {
		pages[a.Filename()] = struct{}{}
	}
	var broken []string
	for i, text := range texts {
		for _, l := range markdown.ExtractLinks(text) {
			m := pageLinkPattern.FindStringSubmatch(l.Destination)
			if m == nil {
				continue
			}
			if _, ok := pages[m[1]]; !ok {
				broken = append(broken, c.Articles[i].Filename()+" -> "+l.Destination)
			}
		}
	}
	sort.Strings(broken)
	return broken
}

func stageRender(ctx context.Context, bs *buildState) error {
	renderer := render.New(bs.cfg.TemplatesDir)
	// fail on broken templates before touching the filesystem
	if err := renderer.Check(bs.cfg.IndexTemplate, bs.cfg.ArticleTemplate); err != nil {
		return err
	}

	bs.writer = output.NewWriter(bs.req.OutputDir, bs.cfg.Output, bs.logger)
	if err := bs.writer.Prepare(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.cfg.RenderWorkers)

	g.Go(func() error {
		page, err := renderPage(bs.converter, renderer, bs.cfg.IndexTemplate, render.KeyIndexHTML, IndexFilename, bs.indexMD)
		if err != nil {
			return err
		}
		return bs.writer.WritePage(page.Filename, page.HTML)
	})
	for i, a := range bs.catalog.Articles {
		text := bs.articleMD[i]
		filename := a.Filename()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := renderPage(bs.converter, renderer, bs.cfg.ArticleTemplate, render.KeyArticleHTML, filename, text)
			if err != nil {
				return err
			}
			return bs.writer.WritePage(page.Filename, page.HTML)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	bs.result.Pages = len(bs.catalog.Articles) + 1
	return nil
}

func renderPage(conv markdown.Converter, r *render.Renderer, tmpl, key, filename, md string) (RenderedPage, error) {
	fragment, err := conv.Convert(md)
	if err != nil {
		return RenderedPage{}, fmt.Errorf("%s: %w", filename, err)
	}
	html, err := r.Render(tmpl, map[string]string{key: fragment})
	if err != nil {
		return RenderedPage{}, err
	}
	return RenderedPage{Filename: filename, HTML: html}, nil
}

func stageWrite(_ context.Context, bs *buildState) error {
	return bs.writer.Commit()
}

func stagePublish(ctx context.Context, bs *buildState) error {
	if bs.publisher == nil {
		bs.result.PublishSkipped = true
		bs.logger.Debug("Publishing disabled")
		return nil
	}
	if err := bs.publisher.Publish(ctx, bs.req.OutputDir); err != nil {
		return err
	}
	bs.result.Published = true
	bs.logger.Info("Site published", logfields.Path(bs.req.OutputDir))
	return nil
}

// Summary renders a one-line human summary of a result.
func Summary(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d pages", r.Outcome, r.Site, r.Pages)
	if r.Published {
		b.WriteString(", published")
	}
	if r.Err != nil {
		fmt.Fprintf(&b, ", failed at %s: %v", r.Stage, r.Err)
	}
	return b.String()
}
