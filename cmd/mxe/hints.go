package main

import (
	"context"
	"errors"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/assets"
	"github.com/alnah/go-mxe/internal/download"
	"github.com/alnah/go-mxe/internal/fonts"
	"github.com/alnah/go-mxe/internal/hints"
)

// hintFor returns an actionable hint for err, or "" when none applies.
// Config-not-found hints are attached where the searched paths are known.
func hintFor(err error) string {
	switch {
	case errors.Is(err, mxe.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, mxe.ErrStyleNotFound):
		list, _ := assets.NewEmbeddedLoader().ListStyles()
		return hints.ForStyleNotFound(list)
	case errors.Is(err, mxe.ErrUnknownFont):
		return hints.ForUnknownFont(fonts.IDs())
	case errors.Is(err, mxe.ErrClipboardUnavailable):
		return hints.ForClipboard()
	case errors.Is(err, download.ErrFetch):
		return hints.ForNetwork()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
