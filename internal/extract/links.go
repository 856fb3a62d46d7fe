package extract

import (
	"regexp"
	"strings"
)

// urlPattern matches http/https URLs, stopping before common trailing
// punctuation and closing brackets.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// Links extracts all URLs from text. Returns a deduplicated list
// preserving the order of first occurrence.
func Links(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?")
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}
	return result
}
