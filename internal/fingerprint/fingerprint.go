// Package fingerprint derives a pseudo-stable anonymous voter identity from
// client-supplied signals.
//
// This is a soft anti-duplicate heuristic, not a security boundary. The
// signals are low entropy, client controlled and trivially spoofable; the
// hash exists only to fold them into a short stable key for the vote ledger's
// uniqueness constraint. Do not upgrade it to an authentication mechanism
// without changing the threat model.
package fingerprint

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Signals are the client-reported values the identity is derived from.
type Signals struct {
	UserAgent      string `json:"user_agent"`
	Locale         string `json:"locale"`
	TimezoneOffset int    `json:"timezone_offset"`
	ScreenWidth    int    `json:"screen_width"`
	ScreenHeight   int    `json:"screen_height"`
}

// Derive reduces the signals to a 16-character hex key. The same signals
// always produce the same key; nothing about the hash is cryptographic.
func Derive(s Signals) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%dx%d",
		normalize(s.UserAgent),
		normalize(s.Locale),
		s.TimezoneOffset,
		s.ScreenWidth,
		s.ScreenHeight,
	)
	return fmt.Sprintf("%016x", h.Sum64())
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
