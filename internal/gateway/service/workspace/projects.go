package workspace

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
	"promptlab/internal/project"
)

func (s *Service) ListProjects() []project.Project { return s.store.List() }

func (s *Service) GetProject(id string) (project.Project, error) { return s.store.Get(id) }

func (s *Service) CreateProject(ctx context.Context, name string) (project.Project, error) {
	return s.store.Create(ctx, name)
}

func (s *Service) RenameProject(ctx context.Context, id, name string) (project.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return project.Project{}, apperr.Validation(apperr.CodeInvalidConfig, "project name is required")
	}
	return s.store.Update(ctx, id, func(p *project.Project) error {
		p.Name = name
		return nil
	})
}

// DeleteProject removes the project, its translation session and any
// stored result images.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	p, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.dropSession(id)
	for _, r := range p.Results {
		s.deleteResultImage(ctx, id, r)
	}
	return nil
}

// UpdateConfig replaces the generation config. Turning auto translation
// on schedules a translation of the current text.
func (s *Service) UpdateConfig(ctx context.Context, id string, cfg project.GenConfig) (project.Project, error) {
	if strings.TrimSpace(cfg.TranslatePrompt) == "" {
		cfg.TranslatePrompt = project.DefaultTranslatePrompt
	}
	if strings.TrimSpace(cfg.ParsePrompt) == "" {
		cfg.ParsePrompt = project.DefaultParsePrompt
	}
	if err := cfg.Validate(); err != nil {
		return project.Project{}, err
	}
	var enabled bool
	p, err := s.store.Update(ctx, id, func(p *project.Project) error {
		enabled = cfg.AutoTranslate && !p.Config.AutoTranslate
		p.Config = cfg
		return nil
	})
	if err != nil {
		return project.Project{}, err
	}
	if enabled {
		s.log.Debug("auto translation enabled", zap.String("project_id", id))
		s.slotsChanged(p)
	}
	return p, nil
}
