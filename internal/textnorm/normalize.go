// Package textnorm canonicalizes Japanese company text so fuzzy
// comparisons are stable across width variants and legacy glyphs.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// 株式會社 is the pre-reform spelling still found on older registry
// exports and some corporate sites.
var legacyGlyphs = strings.NewReplacer("株式會社", "株式会社")

// Normalize applies, in order: NFKC compatibility composition (folds
// full/half-width forms and combining marks), whitespace collapse,
// legacy-glyph substitution, trim, case fold. It is total and
// idempotent; empty input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = legacyGlyphs.Replace(s)
	return strings.ToLower(strings.TrimSpace(s))
}
