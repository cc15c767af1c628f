package pipeline

import (
	"context"
	"strings"
)

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized so it cannot close the style element.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}
	return InjectHead(htmlContent, "<style>"+sanitizeCSS(cssContent)+"</style>")
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// InjectHead inserts fragment before </head>, else right after <body>,
// else at the start of the document.
func InjectHead(htmlContent, fragment string) string {
	if fragment == "" {
		return htmlContent
	}
	lowerHTML := strings.ToLower(htmlContent)
	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + fragment + htmlContent[idx:]
	}
	return InjectBodyStart(htmlContent, fragment)
}

// InjectBodyStart inserts fragment right after the opening <body> tag,
// or prepends it when there is none.
func InjectBodyStart(htmlContent, fragment string) string {
	if fragment == "" {
		return htmlContent
	}
	lowerHTML := strings.ToLower(htmlContent)
	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + fragment + htmlContent[insertPos:]
		}
	}
	return fragment + htmlContent
}
