package compose

import (
	"regexp"
	"strings"
)

// NameSeparator splits a couple-names element into its two names.
const NameSeparator = " & "

var placeholderRE = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

// Resolve substitutes {name} placeholders in pattern from values. It reports
// false when the pattern has placeholders and every one of them is empty, so
// the element is skipped instead of drawing its literal scaffolding alone.
// Runs of whitespace left by empty placeholders are collapsed.
func Resolve(pattern string, values map[string]string) (string, bool) {
	total, filled := 0, 0
	out := placeholderRE.ReplaceAllStringFunc(pattern, func(m string) string {
		total++
		v := values[m[1:len(m)-1]]
		if v != "" {
			filled++
		}
		return v
	})
	if total > 0 && filled == 0 {
		return "", false
	}
	if filled < total {
		out = strings.Join(strings.Fields(out), " ")
	}
	return out, out != ""
}

// SplitNames splits "A & B" into its two names.
func SplitNames(text string) (string, string, bool) {
	a, b, ok := strings.Cut(text, NameSeparator)
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a, b, ok && a != "" && b != ""
}
