package version

import "promptlab/internal/prompt"

// SlotDiff compares the slots sharing a key across two versions.
type SlotDiff struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Left    *prompt.Slot `json:"left,omitempty"`
	Right   *prompt.Slot `json:"right,omitempty"`
	Changed bool         `json:"changed"`
}

// Diff walks the union of slot keys in order of first appearance, left
// version first. A key present on one side only counts as changed.
func Diff(left, right PromptVersion) []SlotDiff {
	keys := make([]string, 0, len(left.Slots)+len(right.Slots))
	seen := make(map[string]bool)
	for _, list := range [][]prompt.Slot{left.Slots, right.Slots} {
		for _, s := range list {
			if !seen[s.Key] {
				seen[s.Key] = true
				keys = append(keys, s.Key)
			}
		}
	}

	out := make([]SlotDiff, 0, len(keys))
	for _, k := range keys {
		l := byKey(left.Slots, k)
		r := byKey(right.Slots, k)
		d := SlotDiff{Key: k, Left: l, Right: r, Label: k}
		switch {
		case l != nil && l.Label != "":
			d.Label = l.Label
		case r != nil && r.Label != "":
			d.Label = r.Label
		}
		d.Changed = l == nil || r == nil ||
			l.SourceText != r.SourceText || l.OutputText != r.OutputText
		out = append(out, d)
	}
	return out
}

func byKey(slots []prompt.Slot, key string) *prompt.Slot {
	for i := range slots {
		if slots[i].Key == key {
			s := slots[i]
			return &s
		}
	}
	return nil
}
