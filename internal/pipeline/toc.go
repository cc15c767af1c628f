package pipeline

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTOCTitle is shown above the table of contents when no title is set.
const DefaultTOCTitle = "Table of Contents"

// TOCCSS styles the generated table of contents.
const TOCCSS = `
/* Table of contents */
.table-of-contents {
  margin: 0 0 2em;
  padding: 1em 1.5em;
  border: 1px solid #dfe2e5;
  border-radius: 4px;
  background: #fafbfc;
  break-after: page;
  page-break-after: always;
}
.table-of-contents .toc-title {
  margin-top: 0;
  border-bottom: none;
}
.table-of-contents ul {
  list-style: none;
  margin: 0;
  padding-left: 1.5em;
}
.table-of-contents > ul.toc-list {
  padding-left: 0;
}
.table-of-contents li {
  margin: 0.25em 0;
}
.table-of-contents a {
  color: inherit;
  text-decoration: none;
}
`

// TOCData holds TOC configuration for injection.
type TOCData struct {
	Title    string
	MinDepth int // lowest heading level included, default 1
	MaxDepth int // highest heading level included, default 3
}

// TOCInjector defines the contract for TOC injection into HTML.
type TOCInjector interface {
	InjectTOC(ctx context.Context, htmlContent string, data *TOCData) (string, error)
}

// Heading is a heading extracted from generated HTML.
type Heading struct {
	Level int    // 1-6
	ID    string // anchor id
	Text  string // plain text, entities decoded
}

// headingPattern matches h1-h6 tags with id attribute.
// Captures: 1=level, 2=id, 3=inner HTML (may contain inline tags)
var headingPattern = regexp.MustCompile(`(?is)<h([1-6])[^>]*\bid="([^"]*)"[^>]*>(.*?)</h[1-6]>`)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTMLTags removes tags, decodes entities and trims whitespace.
// Decoding first avoids double-encoding when the text is escaped again.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// extractHeadings returns headings with ids between minDepth and maxDepth.
func extractHeadings(htmlContent string, minDepth, maxDepth int) []Heading {
	matches := headingPattern.FindAllStringSubmatch(htmlContent, -1)
	if len(matches) == 0 {
		return nil
	}

	var headings []Heading
	for _, m := range matches {
		level, _ := strconv.Atoi(m[1])
		if level < minDepth || level > maxDepth {
			continue
		}
		headings = append(headings, Heading{
			Level: level,
			ID:    html.UnescapeString(m[2]),
			Text:  stripHTMLTags(m[3]),
		})
	}
	return headings
}

// depthTracker normalizes heading levels into nesting depths: the first
// heading is depth 1 and a jump of several levels counts as one step.
type depthTracker struct {
	minLevelSeen int
	lastDepth    int
}

func (d *depthTracker) next(level int) int {
	if d.minLevelSeen == 0 {
		d.minLevelSeen = level
	}
	depth := level - d.minLevelSeen + 1
	if depth < 1 {
		depth = 1
	}
	if d.lastDepth > 0 && depth > d.lastDepth+1 {
		depth = d.lastDepth + 1
	}
	d.lastDepth = depth
	return depth
}

// TOCEntry is a heading placed in the table of contents.
type TOCEntry struct {
	Heading
	Depth int // normalized nesting depth, 1-based
}

// BuildTOCEntries extracts and normalizes the headings a TOC would list.
func BuildTOCEntries(htmlContent string, minDepth, maxDepth int) []TOCEntry {
	headings := extractHeadings(htmlContent, minDepth, maxDepth)
	entries := make([]TOCEntry, 0, len(headings))
	var tracker depthTracker
	for _, h := range headings {
		entries = append(entries, TOCEntry{Heading: h, Depth: tracker.next(h.Level)})
	}
	return entries
}

// generateTOC renders entries as a nested list inside a nav element.
func generateTOC(entries []TOCEntry, title string) string {
	if len(entries) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="table-of-contents"><h2 class="toc-title">`)
	buf.WriteString(html.EscapeString(title))
	buf.WriteString(`</h2><ul class="toc-list">`)

	cur := 1
	for i, e := range entries {
		switch {
		case i == 0:
		case e.Depth > cur:
			buf.WriteString("<ul>")
		case e.Depth == cur:
			buf.WriteString("</li>")
		default:
			buf.WriteString("</li>")
			for ; cur > e.Depth; cur-- {
				buf.WriteString("</ul></li>")
			}
		}
		cur = e.Depth

		buf.WriteString(`<li><a href="#`)
		buf.WriteString(html.EscapeString(e.ID))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(e.Text))
		buf.WriteString(`</a>`)
	}

	buf.WriteString("</li>")
	for ; cur > 1; cur-- {
		buf.WriteString("</ul></li>")
	}
	buf.WriteString("</ul></nav>")
	return buf.String()
}

// TOCInjection implements TOCInjector.
type TOCInjection struct{}

// NewTOCInjection creates a new TOC injector.
func NewTOCInjection() *TOCInjection {
	return &TOCInjection{}
}

// InjectTOC builds the table of contents and inserts it right after <body>.
// If data is nil or no heading qualifies, returns htmlContent unchanged.
func (t *TOCInjection) InjectTOC(ctx context.Context, htmlContent string, data *TOCData) (string, error) {
	if data == nil {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	minDepth, maxDepth := data.MinDepth, data.MaxDepth
	if minDepth == 0 {
		minDepth = 1
	}
	if maxDepth == 0 {
		maxDepth = 3
	}
	title := data.Title
	if title == "" {
		title = DefaultTOCTitle
	}

	tocHTML := generateTOC(BuildTOCEntries(htmlContent, minDepth, maxDepth), title)
	if tocHTML == "" {
		return htmlContent, nil
	}
	return InjectBodyStart(htmlContent, tocHTML), nil
}
