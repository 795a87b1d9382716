package project

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
)

// DefaultRetainedResults is how many newest results keep their inline
// image payload when storage has to degrade.
const DefaultRetainedResults = 10

// Repository persists the full list of projects. Implementations live in
// gateway/repository/projectstore.
type Repository interface {
	LoadProjects(ctx context.Context) ([]Project, error)
	SaveProjects(ctx context.Context, projects []Project) error
	DeleteProject(ctx context.Context, id string) error
}

type EventKind string

const (
	EventCreated EventKind = "project.created"
	EventUpdated EventKind = "project.updated"
	EventDeleted EventKind = "project.deleted"
)

type Event struct {
	Kind      EventKind `json:"kind"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name,omitempty"`
	At        int64     `json:"at"`
}

type StoreOptions struct {
	RetainedResults int
	Logger          *zap.Logger
	Now             func() time.Time
}

// Store holds the authoritative in-memory project list and writes it
// through a Repository. Projects are ordered newest first.
type Store struct {
	repo     Repository
	log      *zap.Logger
	retained int
	now      func() time.Time

	mu       sync.RWMutex
	projects []Project

	// saveMu orders snapshots and writes so an older snapshot never
	// overwrites a newer one.
	saveMu sync.Mutex

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewStore(repo Repository, opts StoreOptions) *Store {
	s := &Store{
		repo:     repo,
		log:      opts.Logger,
		retained: opts.RetainedResults,
		now:      opts.Now,
		subs:     make(map[int]chan Event),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.retained <= 0 {
		s.retained = DefaultRetainedResults
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Load replaces the in-memory list with what the repository holds. An
// empty repository is bootstrapped with one project.
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.repo.LoadProjects(ctx)
	if err != nil {
		return &apperr.Error{Kind: apperr.KindStorage, Code: apperr.CodeWriteFailed, Message: "loading projects failed", Err: err}
	}
	seen := make(map[string]struct{}, len(rows))
	list := make([]Project, 0, len(rows))
	for _, row := range rows {
		p := Normalize(row)
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		list = append(list, p)
	}
	bootstrapped := false
	if len(list) == 0 {
		list = append(list, Bootstrap(s.nowMillis()))
		bootstrapped = true
	}
	s.mu.Lock()
	s.projects = list
	s.mu.Unlock()

	if bootstrapped {
		s.log.Info("bootstrapped empty project store", zap.String("project_id", list[0].ID))
		s.publish(Event{Kind: EventCreated, ProjectID: list[0].ID, Name: list[0].Name})
		return s.Save(ctx)
	}
	return nil
}

func (s *Store) List() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) Get(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Project{}, notFound(id)
	}
	return s.projects[i].Clone(), nil
}

// Create adds a project at the head of the list. A blank name becomes
// "新项目 N".
func (s *Store) Create(ctx context.Context, name string) (Project, error) {
	s.mu.Lock()
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("新项目 %d", len(s.projects)+1)
	}
	p := New(name)
	p.UpdatedAt = s.nowMillis()
	s.projects = append([]Project{p}, s.projects...)
	s.mu.Unlock()

	s.publish(Event{Kind: EventCreated, ProjectID: p.ID, Name: p.Name})
	s.autosave(ctx)
	return p.Clone(), nil
}

// Update applies fn to a copy of the project and stores the copy only if
// fn succeeds. The result is persisted best-effort.
func (s *Store) Update(ctx context.Context, id string, fn func(*Project) error) (Project, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Project{}, notFound(id)
	}
	next := s.projects[i].Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Project{}, err
	}
	next.ID = s.projects[i].ID
	next.UpdatedAt = s.nowMillis()
	s.projects[i] = next
	s.mu.Unlock()

	s.publish(Event{Kind: EventUpdated, ProjectID: next.ID, Name: next.Name})
	s.autosave(ctx)
	return next.Clone(), nil
}

// Delete removes a project. The last remaining project cannot be deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	i := s.indexOf(id)
	n := len(s.projects)
	s.mu.RUnlock()
	if i < 0 {
		return notFound(id)
	}
	if n <= 1 {
		return apperr.Validation(apperr.CodeLastProject, "the last project cannot be deleted")
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return apperr.Storage(err)
	}
	s.mu.Lock()
	if i = s.indexOf(id); i >= 0 {
		s.projects = append(s.projects[:i], s.projects[i+1:]...)
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventDeleted, ProjectID: id})
	return nil
}

// Save writes the current list, degrading the payload if the full write
// fails. The in-memory state is never altered by degradation.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	snapshot := s.List()
	return s.write(ctx, snapshot)
}

func (s *Store) autosave(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
	}
}

// Subscribe returns a channel of store events that closes when ctx ends.
// Slow subscribers miss events rather than block writers.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subMu.Unlock()
	}()
	return ch
}

func (s *Store) publish(ev Event) {
	if ev.At == 0 {
		ev.At = s.nowMillis()
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Store) indexOf(id string) int {
	id = strings.TrimSpace(id)
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nowMillis() int64 { return s.now().UnixMilli() }

func notFound(id string) error {
	return apperr.NotFound(apperr.CodeProjectNotFound, fmt.Sprintf("project %q not found", id))
}
