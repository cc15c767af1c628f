package mxe

import (
	"errors"

	"github.com/alnah/go-mxe/internal/assets"
	"github.com/alnah/go-mxe/internal/browser"
	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/fonts"
	"github.com/alnah/go-mxe/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown   = errors.New("markdown content cannot be empty")
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrHTMLConversion  = pipeline.ErrHTMLConversion
	ErrPDFGeneration   = errors.New("PDF generation failed")
	ErrDOCXGeneration  = errors.New("DOCX generation failed")
	ErrTerminalRender  = errors.New("terminal rendering failed")
	ErrConverterClosed = errors.New("converter is closed")

	// Browser errors.
	ErrBrowserConnect = browser.ErrConnect
	ErrPageCreate     = browser.ErrPageCreate
	ErrPageLoad       = browser.ErrPageLoad

	// Clipboard errors.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
	ErrClipboardWrite       = errors.New("failed to write clipboard")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// TOC validation errors.
	ErrInvalidTOCDepth = errors.New("invalid TOC depth")

	// Font errors.
	ErrUnknownFont = fonts.ErrUnknownFont

	// Diagram option errors.
	ErrInvalidDiagramMode   = diagram.ErrInvalidMode
	ErrInvalidMermaidTheme  = diagram.ErrInvalidTheme
	ErrInvalidMermaidLayout = diagram.ErrInvalidLayout

	// Asset loading errors.
	ErrStyleNotFound    = assets.ErrStyleNotFound
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
