package util

import "strings"

// DefaultString returns the fallback value if v is empty or consists entirely
// of whitespace; otherwise it returns v unchanged.
//
// Examples:
//
//	DefaultString("hello", "world")  → "hello"   // non-empty → kept
//	DefaultString("",      "world")  → "world"   // empty → fallback
//	DefaultString("  ",    "world")  → "world"   // whitespace-only → fallback
func DefaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmptyDash returns "-" if s is empty or consists entirely of whitespace;
// otherwise it returns s unchanged.
//
// Call sites:
//   - internal/cli/commands.go: the kind and attempt columns of the events table.
//   - internal/ui/ui.go: the command prefix in the connection panel.
func EmptyDash(s string) string {
	return DefaultString(s, "-")
}

// MaskSecret shows only the last four characters of a secret, for display in
// status lines and doctor output. Secrets of four characters or fewer are
// fully masked.
//
// Examples:
//
//	MaskSecret("")              → "-"
//	MaskSecret("abc")           → "****"
//	MaskSecret("MTIz.abcd.wxyz") → "****wxyz"
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
