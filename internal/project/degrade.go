package project

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
)

func isDataURL(s string) bool { return strings.HasPrefix(s, "data:") }

// write tries the full snapshot, then one with old result payloads
// stripped, then metadata only.
func (s *Store) write(ctx context.Context, snapshot []Project) error {
	err := s.repo.SaveProjects(ctx, snapshot)
	if err == nil {
		return nil
	}
	s.log.Warn("full project write failed, trimming result payloads", zap.Error(err))
	errs := []error{err}

	if trimmed, changed := stripOldResults(snapshot, s.retained); changed {
		if err = s.repo.SaveProjects(ctx, trimmed); err == nil {
			return nil
		}
		s.log.Warn("trimmed project write failed, saving metadata only", zap.Error(err))
		errs = append(errs, err)
	}

	if meta, changed := metadataOnly(snapshot); changed {
		if err = s.repo.SaveProjects(ctx, meta); err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return apperr.Storage(errors.Join(errs...))
}

// stripOldResults drops the inline payload of every result past the
// newest keep. Input is not modified.
func stripOldResults(projects []Project, keep int) ([]Project, bool) {
	out := make([]Project, len(projects))
	changed := false
	for i, p := range projects {
		p = p.Clone()
		for j := keep; j < len(p.Results); j++ {
			if isDataURL(p.Results[j].ImageURL) {
				p.Results[j].ImageURL = ""
				changed = true
			}
		}
		out[i] = p
	}
	return out, changed
}

// metadataOnly drops every inline result payload and all asset bytes.
func metadataOnly(projects []Project) ([]Project, bool) {
	out := make([]Project, len(projects))
	changed := false
	for i, p := range projects {
		p = p.Clone()
		for j := range p.Results {
			if isDataURL(p.Results[j].ImageURL) {
				p.Results[j].ImageURL = ""
				changed = true
			}
		}
		for j := range p.Assets {
			if len(p.Assets[j].Data) > 0 {
				p.Assets[j].Data = nil
				changed = true
			}
		}
		out[i] = p
	}
	return out, changed
}
