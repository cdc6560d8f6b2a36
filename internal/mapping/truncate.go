package mapping

import "golang.org/x/text/unicode/norm"

// Truncate caps s at max runes for the destination column width.
//
// Truncation happens on the NFC-normalized form and counts runes, not bytes,
// so a multi-byte character or a combining sequence is never cut in half.
// This must always run BEFORE SQL escaping: truncating the escaped form
// could split a doubled quote and corrupt the value.
func Truncate(s string, max int) string {
	if max <= 0 || s == "" {
		return s
	}
	s = norm.NFC.String(s)

	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
