package mxe

import (
	"strings"

	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/fonts"
	"github.com/alnah/go-mxe/internal/pipeline"
)

// printCSS controls page breaks in PDF output. Browsers ignore it on screen.
const printCSS = `
/* Page breaks: keep headings with the following content */
h1, h2, h3, h4, h5, h6 {
  break-after: avoid;
  page-break-after: avoid;
  break-inside: avoid;
  page-break-inside: avoid;
}

/* Page breaks: orphan/widow control */
p, li, dd, dt, blockquote {
  orphans: 2;
  widows: 2;
}

/* Page breaks: keep small blocks whole */
pre, table, figure, .diagram, .table-of-contents {
  break-inside: avoid;
  page-break-inside: avoid;
}

@media print {
  .table-of-contents { break-after: page; page-break-after: always; }
}
`

// cssParts are the stylesheet pieces for one export.
type cssParts struct {
	base     string // resolved style
	fonts    *Fonts
	toc      bool
	diagrams bool
	user     string
}

// buildCSS combines the parts in cascade order: font imports (which must
// open the sheet), base style, font rules, highlight, TOC, diagram, print,
// user CSS last so it can override everything.
func buildCSS(p cssParts) (string, error) {
	var body, code string
	if p.fonts != nil {
		body, code = p.fonts.Body, p.fonts.Code
	}
	imports, fontRules, err := fonts.Stylesheet(body, code)
	if err != nil {
		return "", err
	}

	sections := []string{imports, p.base, fontRules, pipeline.HighlightCSS()}
	if p.toc {
		sections = append(sections, pipeline.TOCCSS)
	}
	if p.diagrams {
		sections = append(sections, diagram.CSS)
	}
	sections = append(sections, printCSS, p.user)

	var buf strings.Builder
	for _, s := range sections {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		buf.WriteString(s)
		buf.WriteString("\n\n")
	}
	return buf.String(), nil
}
