package prompt

import "strings"

// ComposeCanonical renders the enabled, non-blank source texts as
// "label: text" lines in list order. It feeds fingerprinting and translation.
func ComposeCanonical(slots []Slot) string {
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		if !s.Enabled || strings.TrimSpace(s.SourceText) == "" {
			continue
		}
		lines = append(lines, s.Label+": "+s.SourceText)
	}
	return strings.Join(lines, "\n")
}

// ComposeFinal joins the trimmed output texts of enabled slots with a blank line.
func ComposeFinal(slots []Slot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if !s.Enabled {
			continue
		}
		text := strings.TrimSpace(s.OutputText)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
