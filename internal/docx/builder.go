package docx

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Layout constants, in twentieths of a point (twips) unless noted.
const (
	pageWidth      = 11906 // A4
	pageHeight     = 16838
	pageMargin     = 1440
	contentWidth   = pageWidth - 2*pageMargin
	listIndent     = 720 // per nesting level
	listHanging    = 360
	tocIndent      = 360
	cellMarginV    = 100
	cellMarginH    = 150
	tableBorder    = "666666"
	headerFill     = "E7E7E7"
	codeFill       = "F6F8FA"
	codeColor      = "24292E"
	codeSize       = 20 // half-points: 10pt
	linkColor      = "0563C1"
	bookmarkMaxLen = 40
)

// Relationship types used by the document part.
const (
	relHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

type mediaFile struct {
	Name string // e.g. image1.png
	Data []byte
}

// builder accumulates document.xml body content and the parts it references.
type builder struct {
	ctx      context.Context
	opts     Options
	body     strings.Builder
	rels     []relationship
	media    []mediaFile
	nextRel  int
	nextPic  int
	nextMark int

	bookmarks map[string]string // HTML id to bookmark name
	taken     map[string]bool   // bookmark names handed out
	placed    map[string]bool   // bookmark names already written
}

func newBuilder(ctx context.Context, opts Options) *builder {
	b := &builder{
		ctx:       ctx,
		opts:      opts,
		nextRel:   1,
		bookmarks: make(map[string]string),
		taken:     make(map[string]bool),
		placed:    make(map[string]bool),
	}
	b.addRel(relStyles, "styles.xml", false)
	return b
}

func (b *builder) addRel(typ, target string, external bool) string {
	id := "rId" + strconv.Itoa(b.nextRel)
	b.nextRel++
	b.rels = append(b.rels, relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

// blockContext carries paragraph properties inherited from containers.
type blockContext struct {
	style  string // paragraph style, e.g. Quote
	indent int    // extra left indent
}

// paraProps are the paragraph properties this writer emits.
type paraProps struct {
	style     string
	border    bool // bottom border (horizontal rule)
	shading   string
	spacing   bool // 240 before and after
	indent    int
	hanging   int
	jc        string
	keepLines bool
}

func (p paraProps) xml() string {
	var s strings.Builder
	if p.style != "" {
		s.WriteString(`<w:pStyle w:val="` + p.style + `"/>`)
	}
	if p.keepLines {
		s.WriteString(`<w:keepLines/>`)
	}
	if p.border {
		s.WriteString(`<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="auto"/></w:pBdr>`)
	}
	if p.shading != "" {
		s.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + p.shading + `"/>`)
	}
	if p.spacing {
		s.WriteString(`<w:spacing w:before="240" w:after="240"/>`)
	}
	if p.indent > 0 || p.hanging > 0 {
		s.WriteString(fmt.Sprintf(`<w:ind w:left="%d"`, p.indent))
		if p.hanging > 0 {
			s.WriteString(fmt.Sprintf(` w:hanging="%d"`, p.hanging))
		}
		s.WriteString(`/>`)
	}
	if p.jc != "" {
		s.WriteString(`<w:jc w:val="` + p.jc + `"/>`)
	}
	if s.Len() == 0 {
		return ""
	}
	return "<w:pPr>" + s.String() + "</w:pPr>"
}

// paragraph writes one w:p. bookmark, when set, wraps the content.
func (b *builder) paragraph(w *strings.Builder, props paraProps, bookmark, content string) {
	w.WriteString("<w:p>")
	w.WriteString(props.xml())
	name := b.bookmark(bookmark)
	if bookmark != "" && !b.placed[name] {
		b.placed[name] = true
		id := strconv.Itoa(b.nextMark)
		b.nextMark++
		w.WriteString(`<w:bookmarkStart w:id="` + id + `" w:name="` + escape(name) + `"/>`)
		w.WriteString(content)
		w.WriteString(`<w:bookmarkEnd w:id="` + id + `"/>`)
	} else {
		w.WriteString(content)
	}
	w.WriteString("</w:p>")
}

// blocks converts the children of n into block-level content on b.body.
func (b *builder) blocks(n *html.Node, bc blockContext) {
	b.blocksTo(&b.body, n, bc)
}

// blocksTo converts children of n into block content written to w.
// Consecutive inline children are gathered into a single paragraph.
func (b *builder) blocksTo(w *strings.Builder, n *html.Node, bc blockContext) {
	var pending []*html.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		content := b.inlineNodes(pending, runStyle{})
		pending = pending[:0]
		if content == "" {
			return
		}
		b.paragraph(w, paraProps{style: bc.style, indent: bc.indent}, "", content)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b.ctx.Err() != nil {
			return
		}
		if c.Type == html.TextNode || (c.Type == html.ElementNode && isInline(c)) {
			pending = append(pending, c)
			continue
		}
		if c.Type != html.ElementNode {
			continue
		}
		flush()
		b.block(w, c, bc)
	}
	flush()
}

func isInline(n *html.Node) bool {
	switch n.DataAtom {
	case atom.A, atom.Abbr, atom.B, atom.Br, atom.Code, atom.Del, atom.Em, atom.I, atom.Img,
		atom.Input, atom.Kbd, atom.Mark, atom.S, atom.Samp, atom.Small, atom.Span, atom.Strike,
		atom.Strong, atom.Sub, atom.Sup, atom.U, atom.Label, atom.Q, atom.Cite, atom.Time:
		return true
	}
	return false
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// block converts one block-level element.
func (b *builder) block(w *strings.Builder, n *html.Node, bc blockContext) {
	if level, ok := headingLevels[n.DataAtom]; ok {
		content := b.inlineChildren(n, runStyle{})
		b.paragraph(w, paraProps{style: "Heading" + strconv.Itoa(level)}, attr(n, "id"), content)
		return
	}

	switch n.DataAtom {
	case atom.P, atom.Dt, atom.Dd, atom.Figcaption:
		content := b.inlineChildren(n, runStyle{})
		if content != "" {
			b.paragraph(w, paraProps{style: bc.style, indent: bc.indent, jc: alignment(n)}, "", content)
		}
	case atom.Pre:
		b.codeBlock(w, n, bc)
	case atom.Ul, atom.Ol:
		b.list(w, n, 0, bc)
	case atom.Table:
		b.table(w, n)
	case atom.Blockquote:
		b.blocksTo(w, n, blockContext{style: "Quote", indent: bc.indent})
	case atom.Hr:
		b.paragraph(w, paraProps{border: true}, "", "")
	case atom.Nav:
		if hasClass(n, "table-of-contents") {
			b.toc(w, n)
			return
		}
		b.blocksTo(w, n, bc)
	case atom.Svg:
		if run := b.svgElement(n); run != "" {
			b.paragraph(w, paraProps{jc: "center"}, "", run)
		}
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Title, atom.Meta, atom.Link,
		atom.Iframe, atom.Button, atom.Form:
		// dropped
	default:
		// div, section, article, main, figure, header, footer, aside, dl, ...
		if hasClass(n, "diagram") {
			b.blocksTo(w, n, blockContext{indent: bc.indent})
			return
		}
		b.blocksTo(w, n, bc)
	}
}

var textAlignPattern = regexp.MustCompile(`text-align:\s*(left|right|center|justify)`)

// alignment reads align="..." or style="text-align: ...".
func alignment(n *html.Node) string {
	a := strings.ToLower(attr(n, "align"))
	if a == "" {
		if m := textAlignPattern.FindStringSubmatch(strings.ToLower(attr(n, "style"))); m != nil {
			a = m[1]
		}
	}
	switch a {
	case "center", "right", "left":
		return a
	case "justify":
		return "both"
	}
	return ""
}

// list writes ul/ol items as indented paragraphs with a bullet or number prefix.
func (b *builder) list(w *strings.Builder, n *html.Node, level int, bc blockContext) {
	ordered := n.DataAtom == atom.Ol
	num := 1
	if s, err := strconv.Atoi(attr(n, "start")); err == nil && ordered {
		num = s
	}

	props := paraProps{style: bc.style, indent: bc.indent + listIndent*(level+1), hanging: listHanging}

	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		prefix := "•\t"
		if ordered {
			prefix = strconv.Itoa(num) + ".\t"
			num++
		}
		b.listItem(w, li, level, props, prefix, bc)
	}
}

// listItem writes the item's text as paragraphs. The prefix goes on the
// first paragraph; nested lists recurse one level deeper.
func (b *builder) listItem(w *strings.Builder, li *html.Node, level int, props paraProps, prefix string, bc blockContext) {
	first := true
	bookmark := attr(li, "id")
	emit := func(content string) {
		if first {
			content = textRun(prefix, runStyle{}, b.opts) + content
			b.paragraph(w, props, bookmark, content)
			first = false
			return
		}
		cont := props
		cont.hanging = 0
		b.paragraph(w, cont, "", content)
	}

	var pending []*html.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		content := b.inlineNodes(pending, runStyle{})
		pending = pending[:0]
		if content != "" {
			emit(content)
		}
	}

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode || (c.Type == html.ElementNode && isInline(c)):
			pending = append(pending, c)
		case c.Type != html.ElementNode:
		case c.DataAtom == atom.P:
			flush()
			if content := b.inlineChildren(c, runStyle{}); content != "" {
				emit(content)
			}
		case c.DataAtom == atom.Ul || c.DataAtom == atom.Ol:
			flush()
			if first {
				emit("")
			}
			b.list(w, c, level+1, bc)
		default:
			flush()
			if first {
				emit("")
			}
			b.block(w, c, blockContext{style: bc.style, indent: props.indent})
		}
	}
	flush()
	if first {
		emit("")
	}
}

// table writes a fixed-layout, full-width table with equal columns.
func (b *builder) table(w *strings.Builder, n *html.Node) {
	var rows [][]*html.Node
	var headerRows []bool
	var collect func(*html.Node, bool)
	collect = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead:
				collect(c, true)
			case atom.Tbody, atom.Tfoot:
				collect(c, false)
			case atom.Tr:
				var cells []*html.Node
				allTH := true
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						cells = append(cells, cell)
						allTH = allTH && cell.DataAtom == atom.Th
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
					headerRows = append(headerRows, inHead || allTH)
				}
			}
		}
	}
	collect(n, false)
	if len(rows) == 0 {
		return
	}

	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	border := func(side string) string {
		return `<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="` + tableBorder + `"/>`
	}
	w.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		w.WriteString(border(side))
	}
	w.WriteString(`</w:tblBorders><w:tblLayout w:type="fixed"/>`)
	w.WriteString(fmt.Sprintf(`<w:tblCellMar><w:top w:w="%d" w:type="dxa"/><w:left w:w="%d" w:type="dxa"/><w:bottom w:w="%d" w:type="dxa"/><w:right w:w="%d" w:type="dxa"/></w:tblCellMar>`,
		cellMarginV, cellMarginH, cellMarginV, cellMarginH))
	w.WriteString(`</w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		w.WriteString(fmt.Sprintf(`<w:gridCol w:w="%d"/>`, contentWidth/cols))
	}
	w.WriteString(`</w:tblGrid>`)

	cellWidth := 5000 / cols
	for i, r := range rows {
		header := headerRows[i]
		w.WriteString("<w:tr>")
		if header {
			w.WriteString("<w:trPr><w:tblHeader/></w:trPr>")
		}
		for j := 0; j < cols; j++ {
			w.WriteString(fmt.Sprintf(`<w:tc><w:tcPr><w:tcW w:w="%d" w:type="pct"/>`, cellWidth))
			if header {
				w.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + headerFill + `"/>`)
			}
			w.WriteString(`<w:vAlign w:val="center"/></w:tcPr>`)
			var content, jc string
			if j < len(r) {
				content = b.inlineChildren(r[j], runStyle{bold: header})
				jc = alignment(r[j])
			}
			b.paragraph(w, paraProps{jc: jc}, "", content)
			w.WriteString("</w:tc>")
		}
		w.WriteString("</w:tr>")
	}
	w.WriteString("</w:tbl>")
	// Keeps adjacent tables from merging.
	w.WriteString("<w:p/>")
}

// toc writes the generated table of contents as internal hyperlinks.
func (b *builder) toc(w *strings.Builder, nav *html.Node) {
	title := "Table of Contents"
	if h := findElement(nav, atom.H2); h != nil {
		if t := strings.TrimSpace(textContent(h)); t != "" {
			title = t
		}
	}
	b.paragraph(w, paraProps{style: "TOCHeading"}, "", textRun(title, runStyle{}, b.opts))

	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type != html.ElementNode || li.DataAtom != atom.Li {
				continue
			}
			for c := li.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				switch c.DataAtom {
				case atom.A:
					target := strings.TrimPrefix(attr(c, "href"), "#")
					text := strings.TrimSpace(textContent(c))
					link := `<w:hyperlink w:anchor="` + escape(b.bookmark(target)) + `" w:history="1">` +
						textRun(text, runStyle{link: true}, b.opts) + `</w:hyperlink>`
					b.paragraph(w, paraProps{indent: tocIndent * (depth - 1)}, "", link)
				case atom.Ul, atom.Ol:
					walk(c, depth+1)
				}
			}
		}
	}
	if list := findElement(nav, atom.Ul); list != nil {
		walk(list, 1)
	}
	w.WriteString("<w:p/>")
}

var bookmarkInvalid = regexp.MustCompile(`[^A-Za-z0-9_]`)

// bookmarkName maps an HTML id to a Word bookmark name: letters, digits and
// underscores, at most 40 characters. The leading underscore hides it from
// Word's bookmark list.
func bookmarkName(id string) string {
	name := "_" + bookmarkInvalid.ReplaceAllString(id, "_")
	if len(name) > bookmarkMaxLen {
		name = name[:bookmarkMaxLen]
	}
	return name
}

// bookmark returns the bookmark name for id, stable within one document.
// Ids that sanitize or truncate to a taken name get a numeric suffix.
func (b *builder) bookmark(id string) string {
	if id == "" {
		return ""
	}
	if name, ok := b.bookmarks[id]; ok {
		return name
	}
	base := bookmarkName(id)
	name := base
	for n := 2; b.taken[name]; n++ {
		suffix := "_" + strconv.Itoa(n)
		name = base[:min(len(base), bookmarkMaxLen-len(suffix))] + suffix
	}
	b.bookmarks[id] = name
	b.taken[name] = true
	return name
}

// escape escapes s for XML text and attribute values.
func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
