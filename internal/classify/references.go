package classify

import (
	"regexp"
	"strings"
)

// citationPattern matches footnote citations such as
// [1]: https://example.com/page "Example title"
var citationPattern = regexp.MustCompile(`\[\d+\]:\s*(https?://[^\s]+)\s*"([^"]+)"`)

// ExtractReferences returns every citation in document order, one per line.
func ExtractReferences(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(citationPattern.FindAllString(text, -1), "\n")
}

// StripReferences removes citations so their URLs and titles cannot produce
// spurious brand matches.
func StripReferences(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(citationPattern.ReplaceAllString(text, ""))
}
