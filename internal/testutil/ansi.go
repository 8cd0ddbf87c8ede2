// Package testutil holds helpers shared by the cascalc test suites.
package testutil

import "regexp"

var csi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes drops CSI escape sequences so tests can compare rendered
// output against plain text.
//
// Parameters:
//   - s: The text to clean.
//
// Returns:
//   - string: s without ANSI escape sequences.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}
