package flipkart

import (
	"regexp"
	"strings"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// CleanText drops everything but ASCII letters, digits and whitespace, collapses runs
// of whitespace and removes the "READ MORE" expander label.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = nonAlnum.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.TrimSpace(strings.ReplaceAll(s, "READ MORE", ""))
}
