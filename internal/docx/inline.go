package docx

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// runStyle is the character formatting inherited by nested inline elements.
type runStyle struct {
	bold        bool
	italic      bool
	strike      bool
	underline   bool
	highlight   bool
	code        bool
	link        bool
	superscript bool
	subscript   bool
	color       string
}

func (s runStyle) xml(opts Options) string {
	var p strings.Builder
	if s.code {
		p.WriteString(`<w:rFonts w:ascii="` + escape(opts.CodeFont) + `" w:hAnsi="` + escape(opts.CodeFont) + `" w:cs="` + escape(opts.CodeFont) + `"/>`)
	}
	if s.bold {
		p.WriteString(`<w:b/>`)
	}
	if s.italic {
		p.WriteString(`<w:i/>`)
	}
	if s.strike {
		p.WriteString(`<w:strike/>`)
	}
	switch {
	case s.color != "":
		p.WriteString(`<w:color w:val="` + s.color + `"/>`)
	case s.link:
		p.WriteString(`<w:color w:val="` + linkColor + `"/>`)
	}
	if s.code {
		p.WriteString(`<w:sz w:val="` + strconv.Itoa(codeSize) + `"/>`)
	}
	if s.highlight {
		p.WriteString(`<w:highlight w:val="yellow"/>`)
	}
	if s.link || s.underline {
		p.WriteString(`<w:u w:val="single"/>`)
	}
	if s.code {
		p.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + codeFill + `"/>`)
	}
	switch {
	case s.superscript:
		p.WriteString(`<w:vertAlign w:val="superscript"/>`)
	case s.subscript:
		p.WriteString(`<w:vertAlign w:val="subscript"/>`)
	}
	if p.Len() == 0 {
		return ""
	}
	return "<w:rPr>" + p.String() + "</w:rPr>"
}

// textRun writes text as one w:r. Tabs become w:tab and newlines w:br.
func textRun(text string, s runStyle, opts Options) string {
	if text == "" {
		return ""
	}
	var r strings.Builder
	r.WriteString("<w:r>")
	r.WriteString(s.xml(opts))
	var seg strings.Builder
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		r.WriteString(`<w:t xml:space="preserve">` + escape(seg.String()) + `</w:t>`)
		seg.Reset()
	}
	for _, c := range text {
		switch c {
		case '\t':
			flush()
			r.WriteString("<w:tab/>")
		case '\n':
			flush()
			r.WriteString("<w:br/>")
		case '\r':
		default:
			seg.WriteRune(c)
		}
	}
	flush()
	r.WriteString("</w:r>")
	return r.String()
}

// inlineState tracks whitespace collapsing across sibling runs.
type inlineState struct {
	atLineStart bool
	lastSpace   bool
}

func (b *builder) inlineChildren(n *html.Node, s runStyle) string {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return b.inlineNodes(nodes, s)
}

// inlineNodes converts nodes to runs. It returns "" when the nodes carry
// only whitespace.
func (b *builder) inlineNodes(nodes []*html.Node, s runStyle) string {
	st := &inlineState{atLineStart: true}
	var w strings.Builder
	for _, n := range nodes {
		b.inline(&w, n, s, st)
	}
	return w.String()
}

func (b *builder) inline(w *strings.Builder, n *html.Node, s runStyle, st *inlineState) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !s.code {
			text = st.collapse(text)
		} else {
			st.atLineStart = false
			st.lastSpace = false
		}
		w.WriteString(textRun(text, s, b.opts))
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		s.bold = true
	case atom.Em, atom.I, atom.Cite:
		s.italic = true
	case atom.Del, atom.S, atom.Strike:
		s.strike = true
	case atom.U, atom.Ins:
		s.underline = true
	case atom.Mark:
		s.highlight = true
	case atom.Code, atom.Kbd, atom.Samp:
		s.code = true
	case atom.Sup:
		s.superscript = true
	case atom.Sub:
		s.subscript = true
	case atom.Br:
		w.WriteString(`<w:r><w:br/></w:r>`)
		st.atLineStart = true
		st.lastSpace = false
		return
	case atom.Input:
		if strings.EqualFold(attr(n, "type"), "checkbox") {
			box := "☐ "
			if _, ok := attrOK(n, "checked"); ok {
				box = "☑ "
			}
			w.WriteString(textRun(box, s, b.opts))
			st.atLineStart = false
			st.lastSpace = true
		}
		return
	case atom.Img:
		w.WriteString(b.image(n))
		st.atLineStart = false
		return
	case atom.Svg:
		w.WriteString(b.svgElement(n))
		st.atLineStart = false
		return
	case atom.Script, atom.Style:
		return
	case atom.A:
		b.link(w, n, s, st)
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.inline(w, c, s, st)
	}
}

// link writes an anchor as a w:hyperlink. Fragment links target bookmarks;
// other hrefs become external relationships. Anchors without href render
// as plain text.
func (b *builder) link(w *strings.Builder, n *html.Node, s runStyle, st *inlineState) {
	href := strings.TrimSpace(attr(n, "href"))
	var inner strings.Builder
	ls := s
	if href != "" {
		ls.link = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.inline(&inner, c, ls, st)
	}
	switch {
	case href == "":
		w.WriteString(inner.String())
	case strings.HasPrefix(href, "#"):
		w.WriteString(`<w:hyperlink w:anchor="` + escape(b.bookmark(href[1:])) + `" w:history="1">` + inner.String() + `</w:hyperlink>`)
	default:
		id := b.addRel(relHyperlink, href, true)
		w.WriteString(`<w:hyperlink r:id="` + id + `" w:history="1">` + inner.String() + `</w:hyperlink>`)
	}
}

// collapse applies HTML whitespace rules: runs of whitespace become one
// space and leading space at the start of a line is dropped.
func (st *inlineState) collapse(text string) string {
	var out strings.Builder
	for _, c := range text {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			if st.atLineStart || st.lastSpace {
				continue
			}
			out.WriteByte(' ')
			st.lastSpace = true
			continue
		}
		out.WriteRune(c)
		st.atLineStart = false
		st.lastSpace = false
	}
	return out.String()
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
