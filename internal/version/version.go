package version

import (
	"strconv"
	"time"

	"promptlab/internal/apperr"
	"promptlab/internal/prompt"
)

// PromptVersion is an immutable snapshot of a slot configuration.
type PromptVersion struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Slots       []prompt.Slot `json:"slots" yaml:"slots"`
	Fingerprint string        `json:"fingerprint" yaml:"fingerprint"`
	FinalPrompt string        `json:"finalPrompt" yaml:"finalPrompt"`
	Timestamp   int64         `json:"timestamp" yaml:"timestamp"`

	// Prompt holds the single-string body of records written before slots existed.
	Prompt string `json:"prompt,omitempty" yaml:"-"`
}

// Snapshot captures slots as a new version named after its position.
func Snapshot(slots []prompt.Slot, position int, finalPrompt string, now time.Time) PromptVersion {
	return PromptVersion{
		ID:          prompt.NewID(),
		Name:        "V" + strconv.Itoa(position),
		Slots:       prompt.CloneSlots(slots),
		Fingerprint: prompt.SlotsFingerprint(slots),
		FinalPrompt: finalPrompt,
		Timestamp:   now.UnixMilli(),
	}
}

// AppendIfChanged appends a snapshot of slots unless the latest version
// already has the same fingerprint. It returns the resulting list, the
// version that is now current, and whether it was created.
//
// The input list is never modified.
func AppendIfChanged(versions []PromptVersion, slots []prompt.Slot, finalPrompt string, now time.Time) ([]PromptVersion, PromptVersion, bool) {
	fp := prompt.SlotsFingerprint(slots)
	if last, ok := Latest(versions); ok && last.Fingerprint == fp {
		return versions, last, false
	}
	v := Snapshot(slots, len(versions)+1, finalPrompt, now)
	out := make([]PromptVersion, 0, len(versions)+1)
	out = append(out, versions...)
	out = append(out, v)
	return out, v, true
}

func Latest(versions []PromptVersion) (PromptVersion, bool) {
	if len(versions) == 0 {
		return PromptVersion{}, false
	}
	return versions[len(versions)-1], true
}

func Find(versions []PromptVersion, id string) (PromptVersion, bool) {
	for _, v := range versions {
		if v.ID == id {
			return v, true
		}
	}
	return PromptVersion{}, false
}

// Activate returns a detached copy of the version's slots for live editing.
func Activate(versions []PromptVersion, id string) ([]prompt.Slot, error) {
	v, ok := Find(versions, id)
	if !ok {
		return nil, apperr.Validation(apperr.CodeUnknownVersion, "version not found")
	}
	return prompt.CloneSlots(v.Slots), nil
}

// Migrate upgrades a stored version in place: a legacy single-prompt record
// becomes one enabled slot, and a missing fingerprint is recomputed.
func Migrate(v PromptVersion) PromptVersion {
	if len(v.Slots) == 0 && v.Prompt != "" {
		v.Slots = []prompt.Slot{{
			ID:         prompt.NewID(),
			Key:        "migrated",
			Label:      "已迁移提示词",
			OutputText: v.Prompt,
			Enabled:    true,
		}}
		if v.FinalPrompt == "" {
			v.FinalPrompt = v.Prompt
		}
	}
	v.Prompt = ""
	if v.Fingerprint == "" {
		v.Fingerprint = prompt.SlotsFingerprint(v.Slots)
	}
	return v
}
