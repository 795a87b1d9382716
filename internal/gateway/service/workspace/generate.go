package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	pathpkg "path"
	"strings"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
	artifactrepo "promptlab/internal/gateway/repository/artifact"
	"promptlab/internal/generation"
	"promptlab/internal/project"
	"promptlab/internal/prompt"
	"promptlab/internal/version"
)

type GenerateOptions struct {
	// Force runs even though the translation is stale.
	Force bool `json:"force"`
	// TranslateFirst brings the translation up to date before running.
	TranslateFirst bool `json:"translateFirst"`
	// Prompt overrides the slot-derived text.
	Prompt string `json:"prompt"`
}

// Generate runs one image generation. Nothing is committed unless the
// backend call succeeds; on success the result and, for slot-derived
// prompts, a new version are committed together.
func (s *Service) Generate(ctx context.Context, id string, opts GenerateOptions) (project.GeneratedResult, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return project.GeneratedResult{}, err
	}
	sess := s.sessionFor(snap)
	canonical := prompt.ComposeCanonical(snap.Slots)
	custom := strings.TrimSpace(opts.Prompt) != ""

	if !custom {
		if opts.TranslateFirst && sess.tracker.IsDirty(canonical) {
			if _, err := sess.auto.TranslateNow(ctx, canonical); err != nil {
				return project.GeneratedResult{}, fmt.Errorf("translate before generate: %w", err)
			}
		}
		if err := generation.Guard(sess.tracker.IsDirty(canonical), opts.Force); err != nil {
			return project.GeneratedResult{}, err
		}
	}

	var (
		tr string
		ok bool
	)
	if canonical != "" {
		tr, ok = s.cache.Get(id, canonical)
	}
	text, _ := generation.ResolvePrompt(tr, ok, snap.Slots, opts.Prompt)
	req, err := generation.Build(text, snap.Assets, generation.Config{
		ImageSize:   snap.Config.ImageSize,
		AspectRatio: snap.Config.AspectRatio,
	})
	if err != nil {
		return project.GeneratedResult{}, err
	}

	start := s.now()
	img, err := s.currentBackend().GenerateImage(ctx, req)
	if err != nil {
		return project.GeneratedResult{}, err
	}
	finished := s.now()

	result := project.GeneratedResult{
		ID:              prompt.NewID(),
		PromptVersionID: project.CustomVersionID,
		PromptText:      text,
		Timestamp:       finished.UnixMilli(),
		Duration:        finished.Sub(start).Seconds(),
	}
	result.ImageURL = s.storeImage(ctx, id, result.ID, img.MIMEType, img.Data)

	_, err = s.store.Update(ctx, id, func(p *project.Project) error {
		if !custom {
			var current version.PromptVersion
			p.Versions, current, _ = version.AppendIfChanged(p.Versions, snap.Slots, text, finished)
			p.ActiveVersionID = current.ID
			result.PromptVersionID = current.ID
		}
		p.Results = append([]project.GeneratedResult{result}, p.Results...)
		return nil
	})
	if err != nil {
		return project.GeneratedResult{}, err
	}
	s.log.Info("generation finished",
		zap.String("project_id", id),
		zap.String("result_id", result.ID),
		zap.String("version_id", result.PromptVersionID),
		zap.Int("images", len(req.Images)),
		zap.Duration("took", finished.Sub(start)),
	)
	return result, nil
}

// storeImage writes the payload to the artifact store when one is
// configured and falls back to an inline data URL.
func (s *Service) storeImage(ctx context.Context, projectID, resultID, mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	if s.artifacts != nil {
		path := "results/" + resultID + extensionFor(mimeType)
		err := s.artifacts.Put(ctx, projectID, path, data)
		if err == nil {
			return artifactrepo.Ref(projectID, path)
		}
		s.log.Warn("artifact put failed, inlining image", zap.String("project_id", projectID), zap.Error(err))
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// DeleteResult removes a result and its stored image.
func (s *Service) DeleteResult(ctx context.Context, id, resultID string) error {
	var removed project.GeneratedResult
	_, err := s.store.Update(ctx, id, func(p *project.Project) error {
		for i, r := range p.Results {
			if r.ID == resultID {
				removed = r
				p.Results = append(p.Results[:i], p.Results[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound(apperr.CodeResultNotFound, "result not found")
	})
	if err != nil {
		return err
	}
	s.deleteResultImage(ctx, id, removed)
	return nil
}

func (s *Service) deleteResultImage(ctx context.Context, projectID string, r project.GeneratedResult) {
	pid, path, ok := artifactrepo.ParseRef(r.ImageURL)
	if !ok || s.artifacts == nil {
		return
	}
	if pid != projectID {
		s.log.Warn("result references another project's artifact", zap.String("ref", r.ImageURL))
		return
	}
	if err := s.artifacts.Delete(ctx, pid, path); err != nil {
		s.log.Warn("delete result artifact", zap.String("ref", r.ImageURL), zap.Error(err))
	}
}

// ResultImage returns the payload of a result, whether inline or stored.
func (s *Service) ResultImage(ctx context.Context, id, resultID string) (string, []byte, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return "", nil, err
	}
	for _, r := range p.Results {
		if r.ID != resultID {
			continue
		}
		if mimeType, data, ok := decodeDataURL(r.ImageURL); ok {
			return mimeType, data, nil
		}
		if pid, path, ok := artifactrepo.ParseRef(r.ImageURL); ok && s.artifacts != nil {
			data, err := s.artifacts.Get(ctx, pid, path)
			if err != nil {
				return "", nil, fmt.Errorf("load result image: %w", err)
			}
			return mime.TypeByExtension(pathpkg.Ext(path)), data, nil
		}
		break
	}
	return "", nil, apperr.NotFound(apperr.CodeResultNotFound, "result image not available")
}

func decodeDataURL(u string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mimeType, data, true
}
