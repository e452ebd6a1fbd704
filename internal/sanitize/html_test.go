package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextRemovesAllHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "script tag",
			input:    `Hello <script>alert('xss')</script> World`,
			expected: `Hello  World`,
		},
		{
			name:     "inline event handler",
			input:    `<div onclick="alert('xss')">Click me</div>`,
			expected: `Click me`,
		},
		{
			name:     "iframe injection",
			input:    `Safe caption <iframe src="evil.com"></iframe> more text`,
			expected: `Safe caption  more text`,
		},
		{
			name:     "formatting stripped from comment body",
			input:    `<b>Bold</b> <i>Italic</i> <a href="http://example.com">Link</a>`,
			expected: `Bold Italic Link`,
		},
		{
			name:     "plain text unchanged",
			input:    `Coffee meetup at the park`,
			expected: `Coffee meetup at the park`,
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  padded bio  ",
			expected: "padded bio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestTextPtr(t *testing.T) {
	require.Nil(t, TextPtr(nil))

	input := "<script>x</script>hello"
	cleaned := TextPtr(&input)
	require.NotNil(t, cleaned)
	require.Equal(t, "hello", *cleaned)
}
