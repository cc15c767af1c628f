package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const documentNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

const rootRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appProps = xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>mxe</Application></Properties>`

// zipEntry is one part of the package, written in order.
type zipEntry struct {
	name string
	data []byte
}

// writePackage assembles the OPC container. [Content_Types].xml goes first.
func writePackage(b *builder, opts Options) ([]byte, error) {
	entries := []zipEntry{
		{"[Content_Types].xml", []byte(contentTypes(b.media))},
		{"_rels/.rels", []byte(rootRels)},
		{"docProps/core.xml", []byte(coreProps(opts.Title, opts.Created))},
		{"docProps/app.xml", []byte(appProps)},
		{"word/document.xml", []byte(documentXML(b.body.String()))},
		{"word/styles.xml", []byte(stylesXML(opts))},
		{"word/_rels/document.xml.rels", []byte(documentRels(b.rels))},
	}
	for _, m := range b.media {
		entries = append(entries, zipEntry{"word/media/" + m.Name, m.Data})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: opts.Created,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentTypes(media []mediaFile) string {
	var s strings.Builder
	s.WriteString(xmlHeader)
	s.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	s.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	s.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	seen := map[string]bool{}
	for _, m := range media {
		ext := m.Name[strings.LastIndexByte(m.Name, '.')+1:]
		if seen[ext] {
			continue
		}
		seen[ext] = true
		s.WriteString(`<Default Extension="` + ext + `" ContentType="image/` + ext + `"/>`)
	}
	s.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	s.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	s.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	s.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	s.WriteString(`</Types>`)
	return s.String()
}

func coreProps(title string, created time.Time) string {
	stamp := created.UTC().Format("2006-01-02T15:04:05Z")
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(title) + `</dc:title>` +
		`<dc:creator>mxe</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func documentXML(body string) string {
	return xmlHeader + `<w:document ` + documentNamespaces + `><w:body>` + body +
		fmt.Sprintf(`<w:sectPr><w:pgSz w:w="%d" w:h="%d"/>`, pageWidth, pageHeight) +
		fmt.Sprintf(`<w:pgMar w:top="%[1]d" w:right="%[1]d" w:bottom="%[1]d" w:left="%[1]d" w:header="720" w:footer="720" w:gutter="0"/>`, pageMargin) +
		`</w:sectPr></w:body></w:document>`
}

func documentRels(rels []relationship) string {
	var s strings.Builder
	s.WriteString(xmlHeader)
	s.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		s.WriteString(`<Relationship Id="` + r.ID + `" Type="` + r.Type + `" Target="` + escape(r.Target) + `"`)
		if r.External {
			s.WriteString(` TargetMode="External"`)
		}
		s.WriteString(`/>`)
	}
	s.WriteString(`</Relationships>`)
	return s.String()
}

// headingSizes are half-point sizes for Heading1..Heading6.
var headingSizes = [6]int{40, 32, 28, 26, 24, 22}

func stylesXML(opts Options) string {
	body := escape(opts.BodyFont)
	code := escape(opts.CodeFont)

	var s strings.Builder
	s.WriteString(xmlHeader)
	s.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	s.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr>`)
	s.WriteString(`<w:rFonts w:ascii="` + body + `" w:hAnsi="` + body + `" w:eastAsia="` + body + `" w:cs="` + body + `"/>`)
	s.WriteString(`<w:sz w:val="24"/><w:szCs w:val="24"/><w:lang w:val="en-US"/>`)
	s.WriteString(`</w:rPr></w:rPrDefault><w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="276" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)

	s.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	for i, size := range headingSizes {
		level := i + 1
		fmt.Fprintf(&s, `<w:style w:type="paragraph" w:styleId="Heading%[1]d"><w:name w:val="heading %[1]d"/>`+
			`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`+
			`<w:pPr><w:keepNext/><w:spacing w:before="%[2]d" w:after="120"/><w:outlineLvl w:val="%[3]d"/></w:pPr>`+
			`<w:rPr><w:b/><w:sz w:val="%[4]d"/><w:szCs w:val="%[4]d"/></w:rPr></w:style>`,
			level, 360-40*i, i, size)
	}
	s.WriteString(`<w:style w:type="paragraph" w:styleId="Quote"><w:name w:val="Quote"/><w:basedOn w:val="Normal"/><w:qFormat/>` +
		`<w:pPr><w:pBdr><w:left w:val="single" w:sz="18" w:space="8" w:color="D0D7DE"/></w:pBdr><w:ind w:left="360"/></w:pPr>` +
		`<w:rPr><w:i/><w:color w:val="57606A"/></w:rPr></w:style>`)
	s.WriteString(`<w:style w:type="paragraph" w:styleId="CodeBlock"><w:name w:val="Code Block"/><w:basedOn w:val="Normal"/>` +
		`<w:pPr><w:shd w:val="clear" w:color="auto" w:fill="` + codeFill + `"/><w:spacing w:before="120" w:after="120" w:line="240" w:lineRule="auto"/></w:pPr>` +
		`<w:rPr><w:rFonts w:ascii="` + code + `" w:hAnsi="` + code + `" w:cs="` + code + `"/><w:sz w:val="` + fmt.Sprint(codeSize) + `"/></w:rPr></w:style>`)
	s.WriteString(`<w:style w:type="paragraph" w:styleId="TOCHeading"><w:name w:val="TOC Heading"/><w:basedOn w:val="Heading1"/><w:next w:val="Normal"/>` +
		`<w:pPr><w:outlineLvl w:val="9"/></w:pPr></w:style>`)
	s.WriteString(`<w:style w:type="character" w:styleId="Hyperlink"><w:name w:val="Hyperlink"/>` +
		`<w:rPr><w:color w:val="` + linkColor + `"/><w:u w:val="single"/></w:rPr></w:style>`)
	s.WriteString(`</w:styles>`)
	return s.String()
}
