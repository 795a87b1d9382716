package project

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"promptlab/internal/apperr"
	"promptlab/internal/asset"
	"promptlab/internal/prompt"
	"promptlab/internal/version"
)

// fakeRepo rejects writes whose inline payload exceeds limit bytes.
type fakeRepo struct {
	mu      sync.Mutex
	rows    []Project
	limit   int
	writes  int
	deleted []string
	loadErr error
}

func payload(list []Project) int {
	n := 0
	for _, p := range list {
		for _, r := range p.Results {
			n += len(r.ImageURL)
		}
		for _, a := range p.Assets {
			n += len(a.Data)
		}
	}
	return n
}

func (f *fakeRepo) LoadProjects(context.Context) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]Project, len(f.rows))
	for i, p := range f.rows {
		out[i] = p.Clone()
	}
	return out, nil
}

func (f *fakeRepo) SaveProjects(_ context.Context, list []Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.limit >= 0 && payload(list) > f.limit {
		return errors.New("quota exceeded")
	}
	f.rows = list
	return nil
}

func (f *fakeRepo) DeleteProject(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func newStore(t *testing.T, repo *fakeRepo) *Store {
	t.Helper()
	s := NewStore(repo, StoreOptions{RetainedResults: 2, Now: func() time.Time { return time.UnixMilli(1000) }})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadBootstrapsEmptyStore(t *testing.T) {
	repo := &fakeRepo{limit: -1}
	s := newStore(t, repo)
	list := s.List()
	if len(list) != 1 {
		t.Fatalf("expected one project, got %d", len(list))
	}
	p := list[0]
	if p.Name != BootstrapName || len(p.Slots) != 3 || len(p.Versions) != 1 {
		t.Fatalf("unexpected bootstrap project: %+v", p)
	}
	if p.Versions[0].Name != "V1" || p.ActiveVersionID != p.Versions[0].ID {
		t.Fatalf("bootstrap version not active: %+v", p.Versions[0])
	}
	if len(repo.rows) != 1 {
		t.Fatalf("bootstrap project was not persisted")
	}
}

func TestLoadMigratesLegacyRecords(t *testing.T) {
	repo := &fakeRepo{limit: -1, rows: []Project{{
		ID:       "p1",
		Name:     "old",
		Versions: []version.PromptVersion{{ID: "v1", Name: "V1", Prompt: "a cat", Timestamp: 1}},
	}}}
	s := newStore(t, repo)
	p, err := s.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.Slots) != 1 || p.Slots[0].OutputText != "a cat" {
		t.Fatalf("live slots not restored from migrated version: %+v", p.Slots)
	}
	if p.ActiveVersionID != "v1" || p.Versions[0].Fingerprint == "" {
		t.Fatalf("version not migrated: %+v", p.Versions[0])
	}
	if p.Config.ImageSize != ImageSize1K || p.Config.TranslatePrompt == "" {
		t.Fatalf("config defaults missing: %+v", p.Config)
	}
}

func TestLoadErrorIsStorage(t *testing.T) {
	s := NewStore(&fakeRepo{loadErr: errors.New("disk")}, StoreOptions{})
	if err := s.Load(context.Background()); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestCreateNamesAndOrdersNewestFirst(t *testing.T) {
	s := newStore(t, &fakeRepo{limit: -1})
	p, err := s.Create(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "新项目 2" {
		t.Fatalf("unexpected default name %q", p.Name)
	}
	if s.List()[0].ID != p.ID {
		t.Fatalf("new project should be first")
	}
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	s := newStore(t, &fakeRepo{limit: -1})
	id := s.List()[0].ID
	_, err := s.Update(context.Background(), id, func(p *Project) error {
		p.Name = "changed"
		return apperr.Validation(apperr.CodeLastSlot, "nope")
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, _ := s.Get(id); got.Name == "changed" {
		t.Fatalf("failed update leaked into state")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := newStore(t, &fakeRepo{limit: -1})
	id := s.List()[0].ID
	p, _ := s.Get(id)
	p.Slots[0].SourceText = "mutated"
	if again, _ := s.Get(id); again.Slots[0].SourceText == "mutated" {
		t.Fatalf("Get exposed internal state")
	}
}

func TestDeleteLastProjectForbidden(t *testing.T) {
	repo := &fakeRepo{limit: -1}
	s := newStore(t, repo)
	id := s.List()[0].ID
	if err := s.Delete(context.Background(), id); apperr.CodeOf(err) != apperr.CodeLastProject {
		t.Fatalf("expected LAST_PROJECT, got %v", err)
	}
	other, _ := s.Create(context.Background(), "second")
	if err := s.Delete(context.Background(), other.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(s.List()) != 1 || len(repo.deleted) != 1 {
		t.Fatalf("project not deleted")
	}
	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func withPayload(p *Project) {
	big := "data:image/png;base64," + strings.Repeat("A", 100)
	for i := 0; i < 4; i++ {
		p.Results = append(p.Results, GeneratedResult{ID: prompt.NewID(), ImageURL: big})
	}
	p.Assets = append(p.Assets, asset.ImageReference{ID: "a1", Name: "ref", MIMEType: "image/png", Data: make([]byte, 100)})
}

func TestSaveDegradesOldResultsFirst(t *testing.T) {
	repo := &fakeRepo{limit: -1}
	s := newStore(t, repo)
	id := s.List()[0].ID
	if _, err := s.Update(context.Background(), id, func(p *Project) error { withPayload(p); return nil }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Two retained results plus asset bytes fit; four results do not.
	repo.limit = 2*122 + 100
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := repo.rows[0]
	if saved.Results[0].ImageURL == "" || saved.Results[1].ImageURL == "" {
		t.Fatalf("newest results lost their payload")
	}
	if saved.Results[2].ImageURL != "" || saved.Results[3].ImageURL != "" {
		t.Fatalf("old results kept their payload")
	}
	if live, _ := s.Get(id); live.Results[3].ImageURL == "" {
		t.Fatalf("degradation altered live state")
	}
}

func TestSaveFallsBackToMetadataThenFails(t *testing.T) {
	repo := &fakeRepo{limit: -1}
	s := newStore(t, repo)
	id := s.List()[0].ID
	s.Update(context.Background(), id, func(p *Project) error { withPayload(p); return nil })

	repo.limit = 0
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("metadata-only save should succeed: %v", err)
	}
	if len(repo.rows[0].Assets) != 1 || repo.rows[0].Assets[0].Data != nil {
		t.Fatalf("asset metadata not kept without bytes: %+v", repo.rows[0].Assets)
	}

	s.Update(context.Background(), id, func(p *Project) error { p.Name = strings.Repeat("x", 10); return nil })
	failing := &alwaysFail{}
	s.repo = failing
	if err := s.Save(context.Background()); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if failing.calls != 3 {
		t.Fatalf("expected three write attempts, got %d", failing.calls)
	}
}

type alwaysFail struct{ calls int }

func (a *alwaysFail) LoadProjects(context.Context) ([]Project, error) { return nil, nil }
func (a *alwaysFail) SaveProjects(context.Context, []Project) error {
	a.calls++
	return errors.New("full")
}
func (a *alwaysFail) DeleteProject(context.Context, string) error { return nil }

func TestSubscribeReceivesEvents(t *testing.T) {
	s := newStore(t, &fakeRepo{limit: -1})
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	p, _ := s.Create(context.Background(), "n")
	select {
	case ev := <-ch:
		if ev.Kind != EventCreated || ev.ProjectID != p.ID {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event")
	}
	cancel()
	for range ch {
	}
}

func TestGenConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.AspectRatio = "2:1"
	if err := bad.Validate(); apperr.CodeOf(err) != apperr.CodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}
