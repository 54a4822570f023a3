// Package textutil cleans up raw text returned by generation models before
// it is shown in the editor or published to the storefront.
package textutil

import (
	"strings"
)

// StripMarkdownFences removes a ```html ... ``` (or bare ```) wrapper from
// model output. Text without an opening fence is returned trimmed.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return strings.TrimSpace(strings.Trim(text, "`"))
	}

	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// CleanHTML strips fences and any leading "html" label some models emit on
// its own line.
func CleanHTML(text string) string {
	text = StripMarkdownFences(text)
	if first, rest, ok := strings.Cut(text, "\n"); ok && strings.EqualFold(strings.TrimSpace(first), "html") {
		text = strings.TrimSpace(rest)
	}
	return text
}

// Truncate returns the first n bytes of s, appending "..." if truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
