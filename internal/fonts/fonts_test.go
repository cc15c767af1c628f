package fonts

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestLookup - Catalog access
// ---------------------------------------------------------------------------

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       string
		wantName string
		wantKind Kind
		wantErr  error
	}{
		{id: "lato", wantName: "Lato", wantKind: SansSerif},
		{id: "  Inter ", wantName: "Inter", wantKind: SansSerif},
		{id: "opensans", wantName: "Open Sans", wantKind: SansSerif},
		{id: "merriweather", wantName: "Merriweather", wantKind: Serif},
		{id: "fira-code", wantName: "Fira Code", wantKind: Monospace},
		{id: "comic-sans", wantErr: ErrUnknownFont},
		{id: "", wantErr: ErrUnknownFont},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			f, err := Lookup(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Lookup(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if f.Name != tt.wantName || f.Kind != tt.wantKind {
				t.Errorf("Lookup(%q) = %s/%s, want %s/%s", tt.id, f.Name, f.Kind, tt.wantName, tt.wantKind)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	var ids []string
	for _, f := range List() {
		ids = append(ids, f.ID)
	}
	want := []string{
		"fira-code", "inter", "jetbrains-mono", "lato", "merriweather",
		"opensans", "roboto", "source-code", "source-sans",
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("List() ids mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// TestFamily - CSS font-family values
// ---------------------------------------------------------------------------

func TestFamily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want string
	}{
		{id: "source-sans", want: `"Source Sans 3", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif`},
		{id: "merriweather", want: `"Merriweather", Georgia, "Times New Roman", serif`},
		{id: "jetbrains-mono", want: `"JetBrains Mono", "SF Mono", Consolas, "Liberation Mono", Menlo, monospace`},
		{id: "unknown", want: "sans-serif"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			if got := Family(tt.id); got != tt.want {
				t.Errorf("Family(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGoogleFontsURL - css2 URL construction
// ---------------------------------------------------------------------------

func TestGoogleFontsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{
			name: "upright and italic tuples sorted",
			ids:  []string{"lato"},
			want: "https://fonts.googleapis.com/css2?family=Lato:ital,wght@0,400;0,700;1,400;1,700&display=swap",
		},
		{
			name: "space in family name",
			ids:  []string{"opensans"},
			want: "https://fonts.googleapis.com/css2?family=Open+Sans:ital,wght@0,400;0,600;0,700;1,400;1,700&display=swap",
		},
		{
			name: "two families skip unknown and duplicates",
			ids:  []string{"inter", "nope", "fira-code", "inter"},
			want: "https://fonts.googleapis.com/css2?family=Inter:ital,wght@0,400;0,500;0,600;0,700&family=Fira+Code:ital,wght@0,400;0,500;0,700&display=swap",
		},
		{
			name: "nothing known",
			ids:  []string{"nope"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := GoogleFontsURL(tt.ids...); got != tt.want {
				t.Errorf("GoogleFontsURL(%v) =\n%s\nwant\n%s", tt.ids, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestStylesheet - Import and rule generation
// ---------------------------------------------------------------------------

func TestStylesheet(t *testing.T) {
	t.Parallel()

	t.Run("defaults to lato without code rule", func(t *testing.T) {
		t.Parallel()

		imports, rules, err := Stylesheet("", "")
		if err != nil {
			t.Fatalf("Stylesheet() error = %v", err)
		}
		if !strings.HasPrefix(imports, "@import url('https://fonts.googleapis.com/css2?family=Lato") {
			t.Errorf("imports = %q", imports)
		}
		if !strings.Contains(rules, `body { font-family: "Lato"`) {
			t.Errorf("rules missing body font: %q", rules)
		}
		if strings.Contains(rules, "code, pre") {
			t.Errorf("rules should not set code font: %q", rules)
		}
	})

	t.Run("body and code fonts", func(t *testing.T) {
		t.Parallel()

		imports, rules, err := Stylesheet("roboto", "jetbrains-mono")
		if err != nil {
			t.Fatalf("Stylesheet() error = %v", err)
		}
		if !strings.Contains(imports, "family=Roboto") || !strings.Contains(imports, "family=JetBrains+Mono") {
			t.Errorf("imports = %q", imports)
		}
		if !strings.Contains(rules, `code, pre, kbd, samp { font-family: "JetBrains Mono"`) {
			t.Errorf("rules missing code font: %q", rules)
		}
	})

	t.Run("unknown body font", func(t *testing.T) {
		t.Parallel()

		if _, _, err := Stylesheet("papyrus", ""); !errors.Is(err, ErrUnknownFont) {
			t.Errorf("error = %v, want ErrUnknownFont", err)
		}
	})

	t.Run("unknown code font", func(t *testing.T) {
		t.Parallel()

		if _, _, err := Stylesheet("lato", "papyrus"); !errors.Is(err, ErrUnknownFont) {
			t.Errorf("error = %v, want ErrUnknownFont", err)
		}
	})
}
