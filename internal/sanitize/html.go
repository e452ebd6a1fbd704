package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes. Every user-supplied
// free-text field (bios, captions, comment bodies, event fields) is plain
// text, so this is the only policy the service needs.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML and trims surrounding whitespace.
func Text(input string) string {
	return strings.TrimSpace(StrictPolicy.Sanitize(input))
}

// TextPtr sanitizes an optional field in place. Nil passes through.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	return &cleaned
}
