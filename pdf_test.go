package mxe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod"
)

// ---------------------------------------------------------------------------
// TestPrintOptions - Chrome print parameters
// ---------------------------------------------------------------------------

func TestPrintOptions(t *testing.T) {
	t.Parallel()

	off := false
	tests := []struct {
		name          string
		page          PageSettings
		width, height float64
		bottom        float64
		footer        bool
	}{
		{
			name:   "a4 portrait with numbers",
			page:   (*PageSettings)(nil).resolved(),
			width:  8.27,
			height: 11.69,
			bottom: DefaultMargin,
			footer: true,
		},
		{
			name:   "letter landscape",
			page:   PageSettings{Size: PageSizeLetter, Orientation: OrientationLandscape, Margin: 1, PageNumbers: &off},
			width:  11,
			height: 8.5,
			bottom: 1,
		},
		{
			name:   "small margin grows for footer",
			page:   PageSettings{Size: PageSizeLegal, Orientation: OrientationPortrait, Margin: 0.25},
			width:  8.5,
			height: 14,
			bottom: footerMinMargin,
			footer: true,
		},
		{
			name:   "unknown size falls back to a4",
			page:   PageSettings{Size: "a5", Margin: 1, PageNumbers: &off},
			width:  8.27,
			height: 11.69,
			bottom: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := printOptions(tt.page)
			if *opts.PaperWidth != tt.width || *opts.PaperHeight != tt.height {
				t.Errorf("paper = %vx%v, want %vx%v", *opts.PaperWidth, *opts.PaperHeight, tt.width, tt.height)
			}
			if *opts.MarginBottom != tt.bottom {
				t.Errorf("bottom margin = %v, want %v", *opts.MarginBottom, tt.bottom)
			}
			if *opts.MarginTop != tt.page.Margin {
				t.Errorf("top margin = %v, want %v", *opts.MarginTop, tt.page.Margin)
			}
			if opts.DisplayHeaderFooter != tt.footer {
				t.Errorf("DisplayHeaderFooter = %v, want %v", opts.DisplayHeaderFooter, tt.footer)
			}
			if tt.footer && opts.FooterTemplate != footerTemplate {
				t.Error("footer template not set")
			}
			if !opts.PrintBackground {
				t.Error("backgrounds should print")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRodPDF - Failure paths without Chrome
// ---------------------------------------------------------------------------

type failingOpener struct{ err error }

func (f failingOpener) Page(context.Context, string) (*rod.Page, error) {
	return nil, f.err
}

func TestRodPDF_PageError(t *testing.T) {
	t.Parallel()

	r := newRodPDF(failingOpener{err: ErrBrowserConnect}, time.Second)
	_, err := r.Render(context.Background(), "<html></html>", PageSettings{})
	if !errors.Is(err, ErrBrowserConnect) {
		t.Errorf("Render() error = %v, want ErrBrowserConnect", err)
	}
}

func TestRodPDF_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodPDF(failingOpener{err: errors.New("should not be reached")}, time.Second)
	_, err := r.Render(ctx, "<html></html>", PageSettings{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}
