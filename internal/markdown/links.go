package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Link is an inline link destination found in markdown source.
type Link struct {
	Text        string
	Destination string
}

// ExtractLinks parses src and returns its inline links in document order.
func ExtractLinks(src string) []Link {
	body := []byte(src)
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var links []Link
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if node, ok := n.(*gmast.Link); ok {
			links = append(links, Link{
				Text:        plainText(node, body),
				Destination: string(node.Destination),
			})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

func plainText(n gmast.Node, src []byte) string {
	var out []byte
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := c.(*gmast.Text); ok {
			out = append(out, t.Segment.Value(src)...)
		}
		return gmast.WalkContinue, nil
	})
	return string(out)
}
