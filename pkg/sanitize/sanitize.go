package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips every HTML tag from user supplied free text and trims it.
// Entities produced by the policy are decoded back so length checks count
// what the reader sees.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// OptionalText applies Text and maps blank results to nil.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := Text(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
