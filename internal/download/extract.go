package download

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selectors are either a tag name or ".class". Order is priority order.
var (
	contentSelectors = []string{"article", ".article", ".post-content", ".entry-content", "main"}
	titleSelectors   = []string{"h1", ".article-title", ".post-title", ".entry-title"}
	removeSelectors  = []string{"script", "style", "iframe", "noscript", ".advertisement", ".social-share", ".related-posts"}
)

func matches(n *html.Node, selector string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if class, ok := strings.CutPrefix(selector, "."); ok {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
	return n.Data == selector
}

// first returns the first node, in document order, matching selector.
func first(root *html.Node, selector string) *html.Node {
	if matches(root, selector) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := first(c, selector); n != nil {
			return n
		}
	}
	return nil
}

// contentRoot picks the article container, falling back to body and then
// the whole document.
func contentRoot(doc *html.Node) *html.Node {
	for _, sel := range contentSelectors {
		if n := first(doc, sel); n != nil {
			return n
		}
	}
	if n := first(doc, "body"); n != nil {
		return n
	}
	return doc
}

// extractTitle prefers a visible heading over <title>.
func extractTitle(doc *html.Node) string {
	for _, sel := range titleSelectors {
		if n := first(doc, sel); n != nil {
			if t := collapseSpace(text(n)); t != "" {
				return t
			}
		}
	}
	if n := first(doc, "title"); n != nil {
		return collapseSpace(text(n))
	}
	return ""
}

// removeUnwanted detaches scripts, embeds and page furniture under root.
func removeUnwanted(root *html.Node) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for _, sel := range removeSelectors {
			if matches(n, sel) {
				doomed = append(doomed, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
}

// removeTitleHeading drops the first h1 when its text equals title, since
// the Markdown gets its own "# title" line.
func removeTitleHeading(root *html.Node, title string) {
	h := first(root, "h1")
	if h != nil && h.Parent != nil && collapseSpace(text(h)) == title {
		h.Parent.RemoveChild(h)
	}
}

// images returns every img element under root.
func images(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func renderChildren(n *html.Node) (string, error) {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
