package render

import (
	"regexp"
	"strings"
)

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}\-]+`)

// Slug makes a file-name-safe slug. Letters from any script are kept so that
// non-Latin titles still produce a readable name.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlug.ReplaceAllString(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "analysis"
	}
	return s
}
