package pipeline

import (
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightStyle is the chroma style used for code blocks in HTML output
// and for token colours in DOCX output.
const HighlightStyle = "github"

// HighlightCSS returns the stylesheet for chroma's class-based markup.
// Returns "" if chroma fails to write it, leaving code blocks unstyled.
func HighlightCSS() string {
	var buf strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(HighlightStyle)); err != nil {
		return ""
	}
	return buf.String()
}
