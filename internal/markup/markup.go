// Package markup handles the minimal inline formatting comments support:
// **bold**, *italic* and `code`. Nothing else is recognized.
package markup

import "regexp"

var (
	boldRE   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRE = regexp.MustCompile(`\*([^*]+)\*`)
	codeRE   = regexp.MustCompile("`([^`]+)`")
)

// Strip removes the formatting markers, leaving the plain text. Bold is
// handled before italic so "**x**" collapses to "x" rather than "*x*".
func Strip(s string) string {
	s = boldRE.ReplaceAllString(s, "$1")
	s = italicRE.ReplaceAllString(s, "$1")
	s = codeRE.ReplaceAllString(s, "$1")
	return s
}
