package main

import (
	"errors"
	"os"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/config"
	"github.com/alnah/go-mxe/internal/download"
	"github.com/alnah/go-mxe/internal/httputil"
)

// Exit codes for the mxe CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful conversion
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // File not found, permission denied
	ExitBrowser   = 4 // Browser/Chrome errors
	ExitNetwork   = 5 // Article download errors
	ExitClipboard = 6 // Clipboard unavailable or write failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case isAny(err,
		mxe.ErrClipboardUnavailable,
		mxe.ErrClipboardWrite,
		ErrClipboardMultiple):
		return ExitClipboard

	case isAny(err,
		download.ErrFetch,
		download.ErrInvalidURL,
		download.ErrParse,
		download.ErrConvert,
		httputil.ErrStatus,
		httputil.ErrBodyTooLarge):
		return ExitNetwork

	case isAny(err,
		mxe.ErrBrowserConnect,
		mxe.ErrPageCreate,
		mxe.ErrPageLoad,
		mxe.ErrPDFGeneration):
		return ExitBrowser

	case isAny(err,
		os.ErrNotExist,
		os.ErrPermission,
		ErrReadMarkdown,
		ErrReadCSS,
		ErrWriteOutput,
		ErrNoInput,
		download.ErrWrite):
		return ExitIO

	case isAny(err,
		ErrUsage,
		ErrInvalidExtension,
		ErrInvalidWorkerCount,
		config.ErrConfigNotFound,
		config.ErrConfigParse,
		config.ErrFieldTooLong,
		config.ErrInvalidValue,
		config.ErrEmptyData,
		config.ErrInputTooLarge,
		config.ErrUnknownField,
		mxe.ErrEmptyMarkdown,
		mxe.ErrInvalidFormat,
		mxe.ErrInvalidPageSize,
		mxe.ErrInvalidOrientation,
		mxe.ErrInvalidMargin,
		mxe.ErrInvalidTOCDepth,
		mxe.ErrUnknownFont,
		mxe.ErrInvalidDiagramMode,
		mxe.ErrInvalidMermaidTheme,
		mxe.ErrInvalidMermaidLayout,
		mxe.ErrStyleNotFound,
		mxe.ErrInvalidAssetPath):
		return ExitUsage
	}

	return ExitGeneral
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
