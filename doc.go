// Package mxe exports Markdown documents to PDF, DOCX, HTML, the system
// clipboard and the terminal.
//
// # Quick Start
//
//	conv, err := mxe.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	pdf, err := conv.ToPDF(ctx, mxe.Input{Markdown: "# Hello\n\nWorld"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("hello.pdf", pdf, 0o644)
//
// Export returns a Result holding the intermediate HTML next to the
// format's payload, which helps when debugging styles.
//
// # Pipeline
//
//  1. Markdown preprocessing (line endings, ==highlight== syntax)
//  2. Mermaid and WaveDrom fences lifted out as placeholders
//  3. Markdown to HTML via Goldmark (GFM, footnotes, chroma highlighting)
//  4. Diagrams rendered in headless Chrome (or mmdc) and substituted
//  5. Local images inlined as data URIs
//  6. CSS (style, fonts, highlight, print rules, user CSS) and TOC injected
//  7. Output: HTML as is, PDF printed by Chrome, DOCX built from the HTML,
//     clipboard via the OS, terminal via glamour
//
// Terminal output skips steps 2-7 and renders the Markdown directly.
//
// # Configuration
//
// Converter-wide settings are functional options:
//
//	conv, err := mxe.NewConverter(
//	    mxe.WithTimeout(2*time.Minute),
//	    mxe.WithStyle("technical"),
//	    mxe.WithAssetPath("/path/to/assets"),
//	    mxe.WithMermaidCLI(true),
//	)
//
// Per-document settings live in Input:
//
//	res, err := conv.Export(ctx, mxe.Input{
//	    Markdown:  content,
//	    SourceDir: "/path/to/markdown",
//	    TOC:       &mxe.TOC{MaxDepth: 2},
//	    Page:      &mxe.PageSettings{Size: mxe.PageSizeLetter},
//	    Fonts:     &mxe.Fonts{Body: "merriweather", Code: "jetbrains-mono"},
//	    Diagrams:  &mxe.Diagrams{Theme: "forest"},
//	}, mxe.FormatPDF)
//
// # Parallel Processing
//
// ConverterPool hands out converters that each own a browser:
//
//	pool := mxe.NewConverterPool(mxe.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//
// # Errors
//
// Failures wrap the sentinel errors in errors.go; test them with errors.Is.
package mxe
