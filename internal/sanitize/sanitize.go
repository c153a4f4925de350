// Package sanitize provides text cleaning for media titles and generated
// filenames: HTML tags and non-word characters are stripped so the result
// is safe for WordPress metadata and filesystem names.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTag matches anything that looks like an HTML/XML tag.
	htmlTag = regexp.MustCompile(`<[^>]+>`)
	// disallowed matches anything that isn't a word character, whitespace, or hyphen.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	// multiSpace collapses consecutive whitespace into one space.
	multiSpace = regexp.MustCompile(`\s+`)
)

// Clean strips HTML tags, removes everything except word characters,
// whitespace, and hyphens, collapses whitespace, and trims the result.
// Spaces are preserved. Example: "<b>Hello,  World!</b>" → "Hello World"
func Clean(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = disallowed.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Ellipsis shortens s to at most max runes, replacing the tail with "..."
// when truncation happens. Used for media titles and alt text where
// legibility matters more than uniqueness.
func Ellipsis(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
