package workspace

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
	"promptlab/internal/generation"
	"promptlab/internal/project"
	"promptlab/internal/prompt"
	"promptlab/internal/translation"
)

// updateSlots commits a slot-list transformation and reacts to the new text.
func (s *Service) updateSlots(ctx context.Context, id string, fn func([]prompt.Slot) ([]prompt.Slot, error)) (project.Project, error) {
	p, err := s.store.Update(ctx, id, func(p *project.Project) error {
		next, err := fn(p.Slots)
		if err != nil {
			return err
		}
		p.Slots = next
		return nil
	})
	if err != nil {
		return project.Project{}, err
	}
	s.slotsChanged(p)
	return p, nil
}

func (s *Service) AddSlot(ctx context.Context, id string, slot prompt.Slot) (project.Project, error) {
	if strings.TrimSpace(slot.Key) == "" {
		slot.Key = "slot_" + prompt.NewID()[:4]
	}
	slot.ID = ""
	return s.updateSlots(ctx, id, func(slots []prompt.Slot) ([]prompt.Slot, error) {
		return prompt.AddSlot(slots, slot), nil
	})
}

// ReplaceSlots swaps the whole live list. Slots without an ID get one.
func (s *Service) ReplaceSlots(ctx context.Context, id string, slots []prompt.Slot) (project.Project, error) {
	if len(slots) == 0 {
		return project.Project{}, apperr.Validation(apperr.CodeLastSlot, "a project needs at least one slot")
	}
	next := prompt.CloneSlots(slots)
	for i := range next {
		if strings.TrimSpace(next[i].ID) == "" {
			next[i].ID = prompt.NewID()
		}
	}
	return s.updateSlots(ctx, id, func([]prompt.Slot) ([]prompt.Slot, error) { return next, nil })
}

func (s *Service) UpdateSlot(ctx context.Context, id, slotID string, patch prompt.SlotPatch) (project.Project, error) {
	return s.updateSlots(ctx, id, func(slots []prompt.Slot) ([]prompt.Slot, error) {
		return prompt.UpdateSlot(slots, slotID, patch)
	})
}

func (s *Service) RemoveSlot(ctx context.Context, id, slotID string) (project.Project, error) {
	return s.updateSlots(ctx, id, func(slots []prompt.Slot) ([]prompt.Slot, error) {
		return prompt.RemoveSlot(slots, slotID)
	})
}

func (s *Service) MoveSlot(ctx context.Context, id string, from, to int) (project.Project, error) {
	return s.updateSlots(ctx, id, func(slots []prompt.Slot) ([]prompt.Slot, error) {
		return prompt.MoveSlot(slots, from, to)
	})
}

// ---------------------------------------------------------------------------
// Decomposition
// ---------------------------------------------------------------------------

type DecomposeResult struct {
	Project  project.Project `json:"project"`
	Fallback bool            `json:"fallback"`
	Warning  string          `json:"warning,omitempty"`
}

// Decompose asks the backend to split raw text into slots and replaces the
// live list with them. An unparseable answer degrades to a single slot
// holding the raw input.
func (s *Service) Decompose(ctx context.Context, id, raw string) (DecomposeResult, error) {
	if strings.TrimSpace(raw) == "" {
		return DecomposeResult{}, apperr.Validation(apperr.CodeEmptyPrompt, "nothing to decompose")
	}
	p, err := s.store.Get(id)
	if err != nil {
		return DecomposeResult{}, err
	}
	text, err := s.currentBackend().Decompose(ctx, p.Config.ParsePrompt, raw)
	if err != nil {
		return DecomposeResult{}, err
	}

	var res DecomposeResult
	slots, err := prompt.ParseSlots(text)
	if err != nil {
		if !errors.Is(err, apperr.ErrParse) {
			return DecomposeResult{}, err
		}
		s.log.Warn("decomposition unparseable, keeping raw input", zap.String("project_id", id), zap.Error(err))
		slots = prompt.FallbackSlots(raw)
		res.Fallback = true
		res.Warning = err.Error()
	}
	res.Project, err = s.updateSlots(ctx, id, func([]prompt.Slot) ([]prompt.Slot, error) { return slots, nil })
	if err != nil {
		return DecomposeResult{}, err
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Translation & derived state
// ---------------------------------------------------------------------------

// Translate runs a manual translation of the current canonical text.
func (s *Service) Translate(ctx context.Context, id string) (translation.Result, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return translation.Result{}, err
	}
	return s.sessionFor(p).auto.TranslateNow(ctx, prompt.ComposeCanonical(p.Slots))
}

// State is the derived, non-persisted view of a project's prompt.
type State struct {
	Canonical      string `json:"canonical"`
	Final          string `json:"final"`
	Fingerprint    string `json:"fingerprint"`
	Translation    string `json:"translation,omitempty"`
	HasTranslation bool   `json:"hasTranslation"`
	Dirty          bool   `json:"dirty"`
	CanGenerate    bool   `json:"canGenerate"`
	ActivePrompt   string `json:"activePrompt"`
}

func (s *Service) State(id string) (State, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return State{}, err
	}
	sess := s.sessionFor(p)
	canonical := prompt.ComposeCanonical(p.Slots)
	st := State{
		Canonical:   canonical,
		Final:       prompt.ComposeFinal(p.Slots),
		Fingerprint: prompt.Fingerprint(canonical),
		Dirty:       sess.tracker.IsDirty(canonical),
	}
	if canonical != "" {
		st.Translation, st.HasTranslation = s.cache.Get(id, canonical)
	}
	st.ActivePrompt, _ = generation.ResolvePrompt(st.Translation, st.HasTranslation, p.Slots, "")
	st.CanGenerate = generation.CanGenerate(st.Dirty, false) && strings.TrimSpace(st.ActivePrompt) != ""
	return st, nil
}
