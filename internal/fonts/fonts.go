// Package fonts holds the catalog of web fonts the converter can embed and
// builds the CSS that loads them from Google Fonts.
package fonts

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ErrUnknownFont indicates a font identifier that is not in the catalog.
var ErrUnknownFont = errors.New("unknown font")

// Kind classifies a font for listing.
type Kind string

// Font kinds.
const (
	SansSerif Kind = "sans-serif"
	Serif     Kind = "serif"
	Monospace Kind = "monospace"
)

// Default font identifiers.
const (
	DefaultBody = "lato"
	googleCSS2  = "https://fonts.googleapis.com/css2"
)

const (
	sansFallback  = `-apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif`
	serifFallback = `Georgia, "Times New Roman", serif`
	monoFallback  = `"SF Mono", Consolas, "Liberation Mono", Menlo, monospace`
)

// Font describes one catalog entry.
type Font struct {
	ID       string
	Name     string // CSS family name
	Weights  []int  // upright weights served
	Italics  []int  // italic weights served
	Fallback string // CSS fallback stack
	Kind     Kind
}

var catalog = map[string]Font{
	"lato":           {ID: "lato", Name: "Lato", Weights: []int{400, 700}, Italics: []int{400, 700}, Fallback: sansFallback, Kind: SansSerif},
	"roboto":         {ID: "roboto", Name: "Roboto", Weights: []int{400, 500, 700}, Italics: []int{400, 700}, Fallback: sansFallback, Kind: SansSerif},
	"inter":          {ID: "inter", Name: "Inter", Weights: []int{400, 500, 600, 700}, Fallback: sansFallback, Kind: SansSerif},
	"opensans":       {ID: "opensans", Name: "Open Sans", Weights: []int{400, 600, 700}, Italics: []int{400, 700}, Fallback: sansFallback, Kind: SansSerif},
	"source-sans":    {ID: "source-sans", Name: "Source Sans 3", Weights: []int{400, 600, 700}, Italics: []int{400, 700}, Fallback: sansFallback, Kind: SansSerif},
	"merriweather":   {ID: "merriweather", Name: "Merriweather", Weights: []int{400, 700}, Italics: []int{400, 700}, Fallback: serifFallback, Kind: Serif},
	"jetbrains-mono": {ID: "jetbrains-mono", Name: "JetBrains Mono", Weights: []int{400, 500, 700}, Fallback: monoFallback, Kind: Monospace},
	"fira-code":      {ID: "fira-code", Name: "Fira Code", Weights: []int{400, 500, 700}, Fallback: monoFallback, Kind: Monospace},
	"source-code":    {ID: "source-code", Name: "Source Code Pro", Weights: []int{400, 500, 700}, Fallback: monoFallback, Kind: Monospace},
}

// Lookup returns the catalog entry for id (case-insensitive).
func Lookup(id string) (Font, error) {
	f, ok := catalog[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Font{}, fmt.Errorf("%w: %q", ErrUnknownFont, id)
	}
	return f, nil
}

// IDs returns every catalog identifier, sorted.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// List returns every catalog entry sorted by identifier.
func List() []Font {
	ids := IDs()
	out := make([]Font, len(ids))
	for i, id := range ids {
		out[i] = catalog[id]
	}
	return out
}

// Family returns the CSS font-family value for id, or "sans-serif" when
// the id is unknown.
func Family(id string) string {
	f, err := Lookup(id)
	if err != nil {
		return "sans-serif"
	}
	return f.Family()
}

// Family returns the quoted family name followed by the fallback stack.
func (f Font) Family() string {
	return `"` + f.Name + `", ` + f.Fallback
}

// axis renders the css2 ital,wght tuples. Google rejects unsorted tuples,
// so upright weights come first, each group ascending.
func (f Font) axis() string {
	tuples := make([]string, 0, len(f.Weights)+len(f.Italics))
	for _, w := range sorted(f.Weights) {
		tuples = append(tuples, "0,"+strconv.Itoa(w))
	}
	for _, w := range sorted(f.Italics) {
		tuples = append(tuples, "1,"+strconv.Itoa(w))
	}
	return "ital,wght@" + strings.Join(tuples, ";")
}

// GoogleFontsURL builds a css2 URL loading every known id. Unknown and
// duplicate ids are skipped. Returns "" when nothing is left.
func GoogleFontsURL(ids ...string) string {
	seen := make(map[string]bool, len(ids))
	var families []string
	for _, id := range ids {
		f, err := Lookup(id)
		if err != nil || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		families = append(families, "family="+url.QueryEscape(f.Name)+":"+f.axis())
	}
	if len(families) == 0 {
		return ""
	}
	return googleCSS2 + "?" + strings.Join(families, "&") + "&display=swap"
}

// Stylesheet returns the CSS that loads and applies the body and code fonts.
// The import must open the final stylesheet, so it is returned apart from
// the rules. An empty code id keeps the stylesheet's monospace stack.
func Stylesheet(body, code string) (imports, rules string, err error) {
	if body == "" {
		body = DefaultBody
	}
	bodyFont, err := Lookup(body)
	if err != nil {
		return "", "", err
	}

	ids := []string{bodyFont.ID}
	var buf strings.Builder
	fmt.Fprintf(&buf, "body { font-family: %s; }\n", bodyFont.Family())

	if code != "" {
		codeFont, err := Lookup(code)
		if err != nil {
			return "", "", err
		}
		ids = append(ids, codeFont.ID)
		fmt.Fprintf(&buf, "code, pre, kbd, samp { font-family: %s; }\n", codeFont.Family())
	}

	imports = fmt.Sprintf("@import url('%s');\n", GoogleFontsURL(ids...))
	return imports, buf.String(), nil
}

func sorted(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
