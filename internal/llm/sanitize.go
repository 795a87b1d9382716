package llm

import (
	"regexp"
)

var reDataURL = regexp.MustCompile(`(?is)\bdata:(image|video|audio)/[a-z0-9+.-]+;base64,[a-z0-9+/=\r\n]+`)

// RedactMedia replaces inline media payloads in s with a marker so that
// backend error text can be logged without dumping image bytes.
func RedactMedia(s string) string {
	return reDataURL.ReplaceAllString(s, "[REDACTED media]")
}
