package workspace

import (
	"context"

	"promptlab/internal/apperr"
	"promptlab/internal/generation"
	"promptlab/internal/project"
	"promptlab/internal/prompt"
	"promptlab/internal/version"
)

// SaveVersion snapshots the live slots unless the latest version already
// matches them.
func (s *Service) SaveVersion(ctx context.Context, id string) (version.PromptVersion, bool, error) {
	var (
		current version.PromptVersion
		created bool
	)
	_, err := s.store.Update(ctx, id, func(p *project.Project) error {
		final := s.activePrompt(*p)
		p.Versions, current, created = version.AppendIfChanged(p.Versions, p.Slots, final, s.now())
		p.ActiveVersionID = current.ID
		return nil
	})
	if err != nil {
		return version.PromptVersion{}, false, err
	}
	return current, created, nil
}

// ActivateVersion copies a version's slots into the live list.
func (s *Service) ActivateVersion(ctx context.Context, id, versionID string) (project.Project, error) {
	p, err := s.store.Update(ctx, id, func(p *project.Project) error {
		slots, err := version.Activate(p.Versions, versionID)
		if err != nil {
			return err
		}
		p.Slots = slots
		p.ActiveVersionID = versionID
		return nil
	})
	if err != nil {
		return project.Project{}, err
	}
	s.slotsChanged(p)
	return p, nil
}

// LiveVersionID names the unsaved live slot list in a diff.
const LiveVersionID = "live"

// DiffVersions compares two versions; either side may be LiveVersionID.
func (s *Service) DiffVersions(id, a, b string) ([]version.SlotDiff, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	left, err := resolveVersion(p, a)
	if err != nil {
		return nil, err
	}
	right, err := resolveVersion(p, b)
	if err != nil {
		return nil, err
	}
	return version.Diff(left, right), nil
}

func resolveVersion(p project.Project, id string) (version.PromptVersion, error) {
	if id == "" || id == LiveVersionID {
		return version.PromptVersion{ID: LiveVersionID, Slots: p.Slots}, nil
	}
	v, ok := version.Find(p.Versions, id)
	if !ok {
		return version.PromptVersion{}, apperr.Validation(apperr.CodeUnknownVersion, "version not found")
	}
	return v, nil
}

// activePrompt is the text a run would send for p without an override.
func (s *Service) activePrompt(p project.Project) string {
	canonical := prompt.ComposeCanonical(p.Slots)
	var (
		tr string
		ok bool
	)
	if canonical != "" {
		tr, ok = s.cache.Get(p.ID, canonical)
	}
	text, _ := generation.ResolvePrompt(tr, ok, p.Slots, "")
	return text
}
