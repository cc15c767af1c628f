package download

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// sanitizePolicy is bluemonday's UGC policy plus the class names that carry
// a code block's language.
func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^(language|lang)-[\w+#-]+$`)).OnElements("code", "pre")
	return p
}

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithBulletListMarker("-"),
			),
			table.NewTablePlugin(),
		),
	)
}

var (
	commentPattern     = regexp.MustCompile(`(?s)<!--.*?-->`)
	longFencePattern   = regexp.MustCompile("(?m)^([ \\t]*)`{4,}")
	blankLinePattern   = regexp.MustCompile(`(?m)^[ \t]+$`)
	boilerplatePattern = regexp.MustCompile(`(?m)^(?:Share|Tweet|Pin|Follow|Related Articles|Tags:|Author:).*$`)
	headingPattern     = regexp.MustCompile(`(?m)^(#{1,6})([^#\s])`)
	extraNewlines      = regexp.MustCompile(`\n{3,}`)
	multiSpace         = regexp.MustCompile(` {2,}`)
)

// CleanMarkdown removes conversion artifacts and page boilerplate from
// downloaded Markdown.
func CleanMarkdown(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = commentPattern.ReplaceAllString(md, "")
	md = longFencePattern.ReplaceAllString(md, "$1```")
	md = blankLinePattern.ReplaceAllString(md, "")
	md = boilerplatePattern.ReplaceAllString(md, "")
	md = tidyFences(md)
	md = extraNewlines.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

// tidyFences drops fenced blocks with no content. In prose lines it adds
// the missing space after heading hashes and squeezes repeated spaces. Code inside fences and leading indentation are
// kept so nested lists survive.
func tidyFences(md string) string {
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				if j := nextNonBlank(lines, i+1); j >= 0 && strings.TrimSpace(lines[j]) == "```" {
					i = j
					continue
				}
			}
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		trimmed = headingPattern.ReplaceAllString(trimmed, "$1 $2")
		out = append(out, indent+multiSpace.ReplaceAllString(trimmed, " "))
	}
	return strings.Join(out, "\n")
}

func nextNonBlank(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}
