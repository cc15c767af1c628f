// Package diagram turns Mermaid and WaveDrom code fences into rendered
// diagrams. Fences are lifted out of the Markdown before conversion and
// replaced by placeholders, which Substitute later expands into SVG, PNG
// images, client-side script markup or plain code blocks.
package diagram

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind names a diagram language.
type Kind string

// Supported diagram kinds.
const (
	Mermaid  Kind = "mermaid"
	WaveDrom Kind = "wavedrom"
)

// Mode selects how diagrams are emitted.
type Mode string

// Diagram modes.
const (
	ModeRender Mode = "render" // server-side, through the browser or mmdc
	ModeScript Mode = "script" // client-side scripts, HTML only
	ModeOff    Mode = "off"    // plain code blocks
)

// Sentinel errors for diagram options.
var (
	ErrInvalidMode   = errors.New("invalid diagram mode")
	ErrInvalidTheme  = errors.New("invalid mermaid theme")
	ErrInvalidLayout = errors.New("invalid mermaid layout")
	ErrUnsupported   = errors.New("diagram kind not supported by renderer")
)

// Mermaid themes and layouts accepted by MermaidOptions.
var (
	Themes  = []string{"default", "neutral", "dark", "forest", "base"}
	Layouts = []string{"dagre", "elk"}
)

// ParseMode parses a mode name case-insensitively. Empty means ModeRender.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeRender, nil
	case ModeRender, ModeScript, ModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (must be render, script or off)", ErrInvalidMode, s)
	}
}

// MermaidOptions configures Mermaid rendering.
type MermaidOptions struct {
	Theme    string // default "default"
	HandDraw bool   // sketch-like look
	Layout   string // "dagre" (default) or "elk"
}

// Validate checks theme and layout names.
func (o MermaidOptions) Validate() error {
	if o.Theme != "" && !contains(Themes, o.Theme) {
		return fmt.Errorf("%w: %q (must be one of %s)", ErrInvalidTheme, o.Theme, strings.Join(Themes, ", "))
	}
	if o.Layout != "" && !contains(Layouts, o.Layout) {
		return fmt.Errorf("%w: %q (must be one of %s)", ErrInvalidLayout, o.Layout, strings.Join(Layouts, ", "))
	}
	return nil
}

func (o MermaidOptions) theme() string {
	if o.Theme == "" {
		return "default"
	}
	return o.Theme
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Block is a diagram lifted out of the Markdown.
type Block struct {
	Index  int // position in document order, 0-based
	Kind   Kind
	Source string
}

// Placeholder markers use Private Use Area runes, like highlight markers,
// so they pass through Goldmark as plain text.
const (
	placeholderStart = "\uE002"
	placeholderEnd   = "\uE003"
)

// Placeholder returns the text that stands in for block i in the Markdown.
func Placeholder(i int) string {
	return placeholderStart + "diagram-" + strconv.Itoa(i) + placeholderEnd
}

var (
	// fenceOpen captures indent, fence and info string.
	fenceOpen = regexp.MustCompile("^( {0,3})(`{3,}|~{3,})[ \t]*([^`]*)$")
	// placeholderPattern matches a placeholder as goldmark renders it,
	// alone in its paragraph.
	placeholderPattern = regexp.MustCompile(`<p>` + placeholderStart + `diagram-(\d+)` + placeholderEnd + `</p>`)
)

// Extract replaces every closed ```mermaid and ```wavedrom fence with a
// placeholder paragraph and returns the blocks in document order.
// Other fences, including their content, are left alone.
func Extract(markdown string) (string, []Block) {
	lines := strings.Split(markdown, "\n")
	out := make([]string, 0, len(lines))
	var blocks []Block

	for i := 0; i < len(lines); i++ {
		m := fenceOpen.FindStringSubmatch(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}

		fence := m[2]
		end := closingFence(lines, i+1, fence)
		kind, isDiagram := diagramKind(m[3])
		if end < 0 {
			// Unclosed fence runs to the end of the document.
			out = append(out, lines[i:]...)
			break
		}
		if !isDiagram {
			out = append(out, lines[i:end+1]...)
			i = end
			continue
		}

		src := strings.TrimSpace(strings.Join(lines[i+1:end], "\n"))
		idx := len(blocks)
		blocks = append(blocks, Block{Index: idx, Kind: kind, Source: src})
		out = append(out, "", Placeholder(idx), "")
		i = end
	}

	return strings.Join(out, "\n"), blocks
}

// closingFence returns the index of the line closing fence, or -1.
func closingFence(lines []string, from int, fence string) int {
	for j := from; j < len(lines); j++ {
		t := strings.TrimRight(lines[j], " \t")
		trimmed := strings.TrimLeft(t, " ")
		if len(t)-len(trimmed) > 3 {
			continue
		}
		if len(trimmed) >= len(fence) && strings.Trim(trimmed, fence[:1]) == "" {
			return j
		}
	}
	return -1
}

// diagramKind reads the language from a fence info string.
func diagramKind(info string) (Kind, bool) {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return "", false
	}
	switch strings.ToLower(fields[0]) {
	case string(Mermaid):
		return Mermaid, true
	case string(WaveDrom):
		return WaveDrom, true
	}
	return "", false
}
