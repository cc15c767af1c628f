package mxe

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/fileutil"
)

// pdfRenderer abstracts HTML to PDF printing to enable testing without a browser.
type pdfRenderer interface {
	Render(ctx context.Context, htmlContent string, page PageSettings) ([]byte, error)
}

// Paper dimensions in inches, portrait.
var paperSizes = map[string][2]float64{
	PageSizeA4:     {8.27, 11.69},
	PageSizeLetter: {8.5, 11},
	PageSizeLegal:  {8.5, 14},
}

// footerMinMargin keeps room for the page-number footer.
const footerMinMargin = 0.5

const footerTemplate = `<div style="font-size: 8px; color: #666; width: 100%; text-align: center;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

const fontsReadyJS = `() => document.fonts.ready.then(() => true)`

// rodPDF prints through headless Chrome. The HTML is written to a temp
// file so relative file:// links resolve and large documents avoid the
// data URL length limit.
type rodPDF struct {
	pages   diagram.PageOpener
	timeout time.Duration
}

var _ pdfRenderer = (*rodPDF)(nil)

func newRodPDF(pages diagram.PageOpener, timeout time.Duration) *rodPDF {
	return &rodPDF{pages: pages, timeout: timeout}
}

// Render loads htmlContent and prints it with the page settings.
func (r *rodPDF) Render(ctx context.Context, htmlContent string, settings PageSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	page, err := r.pages.Page(ctx, "file://"+tmpPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	timed := page.Timeout(timeout)

	if err := timed.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	// Web fonts load after the load event.
	if _, err := timed.Evaluate(rod.Eval(fontsReadyJS).ByPromise()); err != nil {
		return nil, fmt.Errorf("%w: waiting for fonts: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := timed.PDF(printOptions(settings))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// printOptions builds Chrome's print parameters from resolved page settings.
func printOptions(p PageSettings) *proto.PagePrintToPDF {
	size, ok := paperSizes[p.Size]
	if !ok {
		size = paperSizes[PageSizeA4]
	}
	width, height := size[0], size[1]
	if p.Orientation == OrientationLandscape {
		width, height = height, width
	}

	bottom := p.Margin
	opts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(p.Margin),
		MarginLeft:      floatPtr(p.Margin),
		MarginRight:     floatPtr(p.Margin),
		PrintBackground: true,
	}
	if p.showPageNumbers() {
		bottom = max(bottom, footerMinMargin)
		opts.DisplayHeaderFooter = true
		opts.HeaderTemplate = "<span></span>"
		opts.FooterTemplate = footerTemplate
	}
	opts.MarginBottom = floatPtr(bottom)
	return opts
}

func floatPtr(v float64) *float64 {
	return &v
}
