package prompt

import (
	"strconv"
	"unicode"
	"unicode/utf16"
)

// Fingerprint is a djb2 hash of text with all whitespace removed,
// rendered as the absolute value in base 36. It detects change; it is
// not collision resistant.
//
// The hash runs over UTF-16 code units with signed 32-bit wraparound so
// values stay compatible with fingerprints recorded by the browser client.
func Fingerprint(text string) string {
	var hash int32 = 5381
	for _, r := range text {
		if isStripped(r) {
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != unicode.ReplacementChar {
			hash = hash*33 + int32(r1)
			hash = hash*33 + int32(r2)
			continue
		}
		hash = hash*33 + int32(r)
	}
	v := int64(hash)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// isStripped matches the whitespace class of the browser client, which
// also treats the byte order mark as space.
func isStripped(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func SlotsFingerprint(slots []Slot) string {
	return Fingerprint(ComposeCanonical(slots))
}
