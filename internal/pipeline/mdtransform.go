package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through Goldmark unchanged (no WithUnsafe needed) and are
// turned into <mark> tags once HTML has been generated.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==([^=\n]+?)==`)
	fencePattern       = regexp.MustCompile("^\\s{0,3}(```|~~~)")
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommonMarkPreprocessor applies transformations before CommonMark conversion.
type CommonMarkPreprocessor struct{}

// PreprocessMarkdown normalizes line endings, marks ==highlights== and
// compresses runs of blank lines. Returns content unchanged when ctx is done.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = NormalizeLineEndings(content)
	content = convertHighlights(content)
	content = compressBlankLines(content)
	return content
}

// NormalizeLineEndings converts \r\n and \r to \n.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// convertHighlights transforms ==text== to placeholder markers outside code
// fences. Inline code spans are left alone as well.
func convertHighlights(content string) string {
	lines := strings.Split(content, "\n")
	inFence := false
	for i, line := range lines {
		if fencePattern.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence || !strings.Contains(line, "==") {
			continue
		}
		lines[i] = highlightOutsideCode(line)
	}
	return strings.Join(lines, "\n")
}

// highlightOutsideCode applies the highlight pattern to the parts of line
// that are not inside backtick code spans.
func highlightOutsideCode(line string) string {
	parts := strings.Split(line, "`")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = highlightPattern.ReplaceAllString(parts[i], MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
	}
	return strings.Join(parts, "`")
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}

// RestoreHighlightSyntax turns placeholders back into ==text==, for outputs
// that render the preprocessed Markdown directly.
func RestoreHighlightSyntax(content string) string {
	return strings.NewReplacer(MarkStartPlaceholder, "==", MarkEndPlaceholder, "==").Replace(content)
}
