// Package rfid canonicalizes card UIDs as reported by reader hardware.
//
// Different readers zero-pad the same physical card differently ("007" vs
// "7"), so every UID is normalized before it is stored or matched.
package rfid

import "strings"

// Normalize strips leading zeros from a raw card UID so the same physical
// card always maps to one canonical identifier. An all-zero UID collapses to
// "0" rather than the empty string. Empty input passes through unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}

	trimmed := strings.TrimLeft(raw, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
