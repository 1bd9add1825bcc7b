// Package naming derives the display labels and command-line tokens used for
// commands from their identifiers.
package naming

import (
	"strings"
	"unicode"
)

// Label converts an identifier in snake, kebab, camel or pascal case into an
// upper camel case label, e.g. "command_two" becomes "CommandTwo".
//
// Label is pure and total: every input maps to exactly one label, which is
// what allows labels to be compared for uniqueness when groups are composed.
func Label(ident string) string {
	words := Words(ident)

	var b strings.Builder
	b.Grow(len(ident))
	for _, w := range words {
		b.WriteString(title(strings.ToLower(w)))
	}
	return b.String()
}

// Kebab converts an identifier or label into lower kebab case, e.g.
// "CommandTwo" becomes "command-two". This is the token users type to select
// a subcommand.
func Kebab(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// Snake converts an identifier or label into lower snake case, e.g.
// "MySubcommands" becomes "my_subcommands".
func Snake(s string) string {
	return strings.ReplaceAll(Kebab(s), "-", "_")
}

// Words splits an identifier on its word boundaries: separators ('_', '-',
// whitespace and other punctuation), a change between letters and digits
// ("v2beta" splits into "v", "2" and "beta"), a lower case letter followed by
// an upper case letter, and the end of an acronym ("HTTPServer" splits into
// "HTTP" and "Server").
func Words(s string) []string {
	runes := []rune(s)
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && boundary(cur[len(cur)-1], r, runes[i+1:]) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()

	return words
}

// boundary reports whether a new word starts at r, given the rune before it
// and the runes after it.
func boundary(prev, r rune, rest []rune) bool {
	switch {
	case unicode.IsDigit(prev) != unicode.IsDigit(r):
		return true
	case unicode.IsUpper(r) && unicode.IsLower(prev):
		return true
	case unicode.IsUpper(r) && unicode.IsUpper(prev):
		return len(rest) > 0 && unicode.IsLower(rest[0])
	default:
		return false
	}
}

// title capitalizes the first letter of a string
func title(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
