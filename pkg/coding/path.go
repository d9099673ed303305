package coding

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanPath normalizes a user-supplied file path before any filesystem
// access: NFKC normalization, removal of Unicode control characters
// (pasted paths frequently carry zero-width or bidi marks), and
// lexical path cleaning.
func CleanPath(path string) string {
	cleaned := norm.NFKC.String(path)
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, cleaned)
	return filepath.Clean(strings.TrimSpace(cleaned))
}
