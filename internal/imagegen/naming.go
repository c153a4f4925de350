package imagegen

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"

	"pressbridge/internal/sanitize"
)

// maxFilenameLen caps the full derived filename, hash and extension included.
const maxFilenameLen = 30

// cleanForFilename reduces a title to a lowercase, underscore-separated
// stem of at most max runes. Returns "" when nothing usable remains.
func cleanForFilename(title string, max int) string {
	s := sanitize.Clean(title)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ToLower(s)
	if r := []rune(s); len(r) > max {
		s = strings.TrimRight(string(r[:max]), "_")
	}
	return s
}

// DeriveFilename builds the short filename for a generated image:
// a cleaned 15-rune stem from the title, an underscore, the first six hex
// characters of the MD5 of the original title, and a ".png" suffix.
// Unusable titles use the literal stem "image" and hash that instead.
// If the combined name were to exceed 30 characters the stem is discarded
// in favour of "img_<hash>.png". Deterministic: same title, same filename.
func DeriveFilename(title string) string {
	stem := cleanForFilename(title, 15)
	hashInput := title
	if stem == "" {
		stem = "image"
		hashInput = "image"
	}

	sum := md5.Sum([]byte(hashInput))
	hash := hex.EncodeToString(sum[:])[:6]

	name := stem + "_" + hash + ".png"
	if len([]rune(name)) > maxFilenameLen {
		name = "img_" + hash + ".png"
	}
	return name
}

// ShortTitle builds the human-facing media title for an uploaded image:
// the same cleaning as the filename stem but capped at 30 runes, with
// underscores turned back into spaces and each word title-cased.
// Decoupled from the filesystem name on purpose — this is metadata.
func ShortTitle(title string) string {
	s := cleanForFilename(title, 30)
	if s == "" {
		s = "image"
	}
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
