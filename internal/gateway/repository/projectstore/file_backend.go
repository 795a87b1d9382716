package projectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"promptlab/internal/project"
)

// FileRepository keeps every project in one indented JSON document.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) LoadProjects(context.Context) ([]project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked()
}

func (r *FileRepository) readLocked() ([]project.Project, error) {
	b, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	var rows []project.Project
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return rows, nil
}

func (r *FileRepository) SaveProjects(_ context.Context, projects []project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLocked(projects)
}

// writeLocked replaces the file atomically through a sibling temp file.
func (r *FileRepository) writeLocked(projects []project.Project) error {
	if projects == nil {
		projects = []project.Project{}
	}
	b, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRepository) DeleteProject(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := r.readLocked()
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, p := range rows {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(rows) {
		return nil
	}
	return r.writeLocked(kept)
}
