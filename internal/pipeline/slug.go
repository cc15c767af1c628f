package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
)

// Slugger generates heading ids for one document. It implements
// goldmark's parser.IDs so headings and the TOC agree on anchors.
type Slugger struct {
	seen map[string]int
}

var _ parser.IDs = (*Slugger)(nil)

// NewSlugger returns a Slugger with no ids recorded.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns a unique id for text. Repeated slugs get -1, -2, ... suffixes.
func (s *Slugger) Slug(text string) string {
	base := Slugify(text)
	n, ok := s.seen[base]
	if !ok {
		s.seen[base] = 0
		return base
	}
	for {
		n++
		candidate := base + "-" + strconv.Itoa(n)
		if _, taken := s.seen[candidate]; !taken {
			s.seen[base] = n
			s.seen[candidate] = 0
			return candidate
		}
	}
}

// Generate implements parser.IDs.
func (s *Slugger) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(s.Slug(string(value)))
}

// Put implements parser.IDs. Explicit ids ({#id}) are recorded so
// generated ones never collide with them.
func (s *Slugger) Put(value []byte) {
	if _, ok := s.seen[string(value)]; !ok {
		s.seen[string(value)] = 0
	}
}

// Slugify lowercases text, keeps letters, digits, '_' and '-', turns
// whitespace runs into '-' and collapses dashes. Empty results become "section".
func Slugify(text string) string {
	var b strings.Builder
	lastDash := true // suppresses leading dashes
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}
