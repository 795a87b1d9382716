package workspace

import (
	"context"

	"promptlab/internal/asset"
	"promptlab/internal/project"
)

func (s *Service) updateAssets(ctx context.Context, id string, fn func([]asset.ImageReference) ([]asset.ImageReference, error)) (project.Project, error) {
	return s.store.Update(ctx, id, func(p *project.Project) error {
		next, err := fn(p.Assets)
		if err != nil {
			return err
		}
		p.Assets = next
		return nil
	})
}

// AddAssets appends uploads to the library, selected, after the current selection.
func (s *Service) AddAssets(ctx context.Context, id string, uploads []asset.Upload) ([]asset.ImageReference, error) {
	var added []asset.ImageReference
	_, err := s.updateAssets(ctx, id, func(list []asset.ImageReference) ([]asset.ImageReference, error) {
		var all []asset.ImageReference
		all, added = asset.AddUploads(list, uploads)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *Service) ToggleAsset(ctx context.Context, id, assetID string) (project.Project, error) {
	return s.updateAssets(ctx, id, func(list []asset.ImageReference) ([]asset.ImageReference, error) {
		return asset.ToggleSelection(list, assetID)
	})
}

func (s *Service) MoveAsset(ctx context.Context, id string, from, to int) (project.Project, error) {
	return s.updateAssets(ctx, id, func(list []asset.ImageReference) ([]asset.ImageReference, error) {
		return asset.ReorderLibrary(list, from, to)
	})
}

func (s *Service) RemoveAsset(ctx context.Context, id, assetID string) (project.Project, error) {
	return s.updateAssets(ctx, id, func(list []asset.ImageReference) ([]asset.ImageReference, error) {
		return asset.Remove(list, assetID)
	})
}
