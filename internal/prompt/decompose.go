package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"promptlab/internal/apperr"
)

const (
	DefaultSlotLabel = "未命名插槽"
	FallbackKey      = "raw"
	FallbackLabel    = "Raw"
)

// Field aliases tried in order when normalizing model output.
var (
	sourceAliases = []string{"value_cn", "content", "value"}
	outputAliases = []string{"value_en", "output"}
)

var jsonArraySpan = regexp.MustCompile(`\[[\s\S]*\]`)

var errNoArray = errors.New("no JSON array in response")

// ParseSlots normalizes a loosely structured model response into slots.
// Any failure is returned as a parse error; callers decide how to degrade.
func ParseSlots(raw string) ([]Slot, error) {
	span := jsonArraySpan.FindString(raw)
	if span == "" {
		return nil, apperr.Parse(errNoArray)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(span), &records); err != nil {
		return nil, apperr.Parse(fmt.Errorf("decode slot array: %w", err))
	}
	out := make([]Slot, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		s := Slot{
			ID:         NewID(),
			Key:        firstString(rec, "key"),
			Label:      firstString(rec, "label"),
			SourceText: firstString(rec, sourceAliases...),
			OutputText: firstString(rec, outputAliases...),
			Enabled:    true,
		}
		if s.Key == "" {
			s.Key = "slot_" + uuid.NewString()[:4]
		}
		if s.Label == "" {
			s.Label = DefaultSlotLabel
		}
		if v, ok := rec["enabled"].(bool); ok {
			s.Enabled = v
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, apperr.Parse(errors.New("slot array is empty"))
	}
	return out, nil
}

// FallbackSlots keeps the raw input verbatim as a single enabled slot.
func FallbackSlots(raw string) []Slot {
	return []Slot{{
		ID:         NewID(),
		Key:        FallbackKey,
		Label:      FallbackLabel,
		OutputText: raw,
		Enabled:    true,
	}}
}

// firstString returns the first alias holding a non-empty string.
func firstString(rec map[string]any, aliases ...string) string {
	for _, a := range aliases {
		if v, ok := rec[a].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
