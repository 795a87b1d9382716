package projectstore

import (
	"context"
	"sync"

	"promptlab/internal/project"
)

type MemoryRepository struct {
	mu   sync.Mutex
	rows []project.Project
}

func NewMemory() *MemoryRepository { return &MemoryRepository{} }

func (m *MemoryRepository) LoadProjects(context.Context) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]project.Project, len(m.rows))
	for i, p := range m.rows {
		out[i] = p.Clone()
	}
	return out, nil
}

func (m *MemoryRepository) SaveProjects(_ context.Context, projects []project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make([]project.Project, len(projects))
	for i, p := range projects {
		m.rows[i] = p.Clone()
	}
	return nil
}

func (m *MemoryRepository) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.rows {
		if p.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}
