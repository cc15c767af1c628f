package mxe

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// terminalWidth is the word-wrap column for terminal output.
const terminalWidth = 80

// renderTerminal renders Markdown with ANSI styling. The style adapts to
// the terminal background and falls back to plain text when stdout is not
// a terminal.
func renderTerminal(markdown string) ([]byte, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminalRender, err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminalRender, err)
	}
	return []byte(out), nil
}
