package download

import (
	"crypto/md5" // #nosec G501 -- naming only, not security
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const maxFilenameLength = 30

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// IsURL reports whether s parses as a URL and uses http or https.
func IsURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// SafeFilename derives a short, filesystem-safe name from an article URL:
// the first host label joined with the last path segment, or the label and
// an 8-character hash when that is too long.
func SafeFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "article-" + urlHash(rawURL)[:8]
	}

	label, _, _ := strings.Cut(u.Hostname(), ".")
	// Percent-encoded, so non-ASCII segments keep distinct names.
	name := label + "-" + lastSegment(u.EscapedPath(), "article")
	if len(name) > maxFilenameLength {
		name = label + "-" + urlHash(rawURL)[:8]
	}

	name = nonAlnum.ReplaceAllString(name, "-")
	name = strings.ToLower(strings.Trim(name, "-"))
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	return name
}

// MarkdownFilename is the file name used by the download command:
// the last path segment, or "article", with a .md extension.
func MarkdownFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "article.md"
	}
	last := lastSegment(u.Path, "article")
	seg := strings.TrimSuffix(last, path.Ext(last))
	seg = strings.Trim(nonAlnum.ReplaceAllString(seg, "-"), "-")
	if seg == "" {
		seg = "article"
	}
	return seg + ".md"
}

func lastSegment(urlPath, fallback string) string {
	segs := strings.FieldsFunc(urlPath, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return fallback
	}
	return segs[len(segs)-1]
}

func urlHash(s string) string {
	sum := md5.Sum([]byte(s)) // #nosec G401 -- naming only
	return hex.EncodeToString(sum[:])
}
