package mxe

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// clipboardWriter copies text to the system clipboard.
type clipboardWriter interface {
	Available() bool
	Write(text string) error
}

// systemClipboard uses xclip/xsel/wl-copy on Unix, pbcopy on macOS and
// the Win32 API on Windows.
type systemClipboard struct{}

func (systemClipboard) Available() bool { return !clipboard.Unsupported }

func (systemClipboard) Write(text string) error { return clipboard.WriteAll(text) }

// ClipboardAvailable reports whether the platform has a usable clipboard.
func ClipboardAvailable() bool {
	return systemClipboard{}.Available()
}

func writeClipboard(cb clipboardWriter, htmlContent string) error {
	if !cb.Available() {
		return ErrClipboardUnavailable
	}
	if err := cb.Write(htmlContent); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardWrite, err)
	}
	return nil
}
