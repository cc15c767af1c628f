package docx

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const codeStyle = "github"

// codeBlock writes a pre element as one shaded paragraph, re-highlighting
// the source with chroma so colours survive without CSS.
func (b *builder) codeBlock(w *strings.Builder, pre *html.Node, bc blockContext) {
	source := strings.TrimRight(textContent(pre), "\n")
	if source == "" {
		return
	}
	content := highlightRuns(source, codeLanguage(pre), b.opts)
	b.paragraph(w, paraProps{style: "CodeBlock", indent: bc.indent, keepLines: true}, "", content)
}

// codeLanguage reads the language from class="language-X" or data-lang on
// the pre or its code child.
func codeLanguage(pre *html.Node) string {
	nodes := []*html.Node{pre}
	if code := findElement(pre, atom.Code); code != nil {
		nodes = append(nodes, code)
	}
	for _, n := range nodes {
		if lang := attr(n, "data-lang"); lang != "" {
			return lang
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if lang, ok := strings.CutPrefix(c, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

func highlightRuns(source, lang string, opts Options) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(codeStyle)
	it, err := lexer.Tokenise(nil, source)
	if err != nil {
		return textRun(source, runStyle{code: true, color: codeColor}, opts)
	}

	var w strings.Builder
	for tok := it(); tok != chroma.EOF; tok = it() {
		entry := style.Get(tok.Type)
		s := runStyle{code: true, color: codeColor}
		if entry.Colour.IsSet() {
			s.color = strings.TrimPrefix(entry.Colour.String(), "#")
		}
		s.bold = entry.Bold == chroma.Yes
		s.italic = entry.Italic == chroma.Yes
		w.WriteString(textRun(tok.Value, s, opts))
	}
	return w.String()
}
