// Package slug derives URL-safe identifiers from display names.
//
// The client renders the same slugs for routing, so Make must stay a pure
// function of the input name: the slug is always recomputed, never stored as
// ground truth.
package slug

import "strings"

const separator = '-'

// Make converts a display name to its canonical slug: lowercase, runs of
// non-alphanumeric characters collapsed to a single separator, leading and
// trailing separators trimmed.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSep := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte(separator)
			pendingSep = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
