package prompt

import (
	"strings"

	"github.com/google/uuid"

	"promptlab/internal/apperr"
)

// Slot is one labeled, independently toggleable fragment of a prompt.
// Slots are addressed by ID; Key is display-only and may collide.
type Slot struct {
	ID         string `json:"id" yaml:"id"`
	Key        string `json:"key" yaml:"key"`
	Label      string `json:"label" yaml:"label"`
	SourceText string `json:"sourceText" yaml:"sourceText"`
	OutputText string `json:"outputText" yaml:"outputText"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
}

// SlotPatch is a partial update; nil fields are left untouched.
type SlotPatch struct {
	Key        *string `json:"key,omitempty"`
	Label      *string `json:"label,omitempty"`
	SourceText *string `json:"sourceText,omitempty"`
	OutputText *string `json:"outputText,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
}

func NewID() string { return uuid.NewString() }

// NewSlot returns an enabled slot with a fresh ID.
func NewSlot(key, label string) Slot {
	return Slot{ID: NewID(), Key: key, Label: label, Enabled: true}
}

func DefaultSlots() []Slot {
	return []Slot{
		NewSlot("subject", "主体描述"),
		NewSlot("style", "风格效果"),
		NewSlot("negative", "负面限制"),
	}
}

// CloneSlots returns a deep copy. The result never aliases the input.
func CloneSlots(in []Slot) []Slot {
	if in == nil {
		return nil
	}
	out := make([]Slot, len(in))
	copy(out, in)
	return out
}

func IndexOf(slots []Slot, id string) int {
	id = strings.TrimSpace(id)
	for i := range slots {
		if slots[i].ID == id {
			return i
		}
	}
	return -1
}

// AddSlot appends s, assigning an ID when it has none.
func AddSlot(slots []Slot, s Slot) []Slot {
	if strings.TrimSpace(s.ID) == "" {
		s.ID = NewID()
	}
	out := CloneSlots(slots)
	return append(out, s)
}

func UpdateSlot(slots []Slot, id string, patch SlotPatch) ([]Slot, error) {
	idx := IndexOf(slots, id)
	if idx < 0 {
		return nil, apperr.Validation(apperr.CodeUnknownSlot, "slot not found")
	}
	out := CloneSlots(slots)
	s := &out[idx]
	if patch.Key != nil {
		s.Key = *patch.Key
	}
	if patch.Label != nil {
		s.Label = *patch.Label
	}
	if patch.SourceText != nil {
		s.SourceText = *patch.SourceText
	}
	if patch.OutputText != nil {
		s.OutputText = *patch.OutputText
	}
	if patch.Enabled != nil {
		s.Enabled = *patch.Enabled
	}
	return out, nil
}

// RemoveSlot deletes the slot with id. A slot list never becomes empty.
func RemoveSlot(slots []Slot, id string) ([]Slot, error) {
	idx := IndexOf(slots, id)
	if idx < 0 {
		return nil, apperr.Validation(apperr.CodeUnknownSlot, "slot not found")
	}
	if len(slots) <= 1 {
		return nil, apperr.Validation(apperr.CodeLastSlot, "a prompt must keep at least one slot")
	}
	out := make([]Slot, 0, len(slots)-1)
	out = append(out, slots[:idx]...)
	out = append(out, slots[idx+1:]...)
	return out, nil
}

// MoveSlot removes the slot at from and reinserts it at to.
func MoveSlot(slots []Slot, from, to int) ([]Slot, error) {
	if from < 0 || from >= len(slots) || to < 0 || to >= len(slots) {
		return nil, apperr.Validation(apperr.CodeIndexOutOfRange, "slot index out of range")
	}
	out := CloneSlots(slots)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]Slot{item}, out[to:]...)...)
	return out, nil
}
