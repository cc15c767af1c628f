// Package pipeline implements the Markdown-to-HTML stages shared by every
// output format:
//   - Markdown preprocessing (line normalization, highlight syntax)
//   - Markdown to HTML conversion via Goldmark, with stable heading ids
//   - local resource inlining (images as data URIs, file links)
//   - CSS and script injection
//   - table of contents generation
//
// Format rendering (PDF, DOCX, clipboard, terminal) lives in the root mxe
// package and in internal/docx. Diagram handling lives in internal/diagram.
package pipeline
