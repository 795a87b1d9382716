package projectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"promptlab/internal/project"
	"promptlab/internal/version"
)

func exerciseRepository(t *testing.T, repo project.Repository) {
	t.Helper()
	ctx := context.Background()

	rows, err := repo.LoadProjects(ctx)
	if err != nil {
		t.Fatalf("LoadProjects on empty store: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty store, got %d rows", len(rows))
	}

	a := project.New("alpha")
	a.Slots[0].SourceText = "一只猫"
	a.Versions = []version.PromptVersion{{ID: "v1", Name: "V1", Fingerprint: "abc", Timestamp: 1}}
	b := project.New("beta")
	if err := repo.SaveProjects(ctx, []project.Project{b, a}); err != nil {
		t.Fatalf("SaveProjects: %v", err)
	}

	rows, err = repo.LoadProjects(ctx)
	if err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != b.ID || rows[1].ID != a.ID {
		t.Fatalf("order not kept: %+v", rows)
	}
	if rows[1].Slots[0].SourceText != "一只猫" || rows[1].Versions[0].Fingerprint != "abc" {
		t.Fatalf("payload not kept: %+v", rows[1])
	}

	if err := repo.SaveProjects(ctx, []project.Project{a}); err != nil {
		t.Fatalf("SaveProjects: %v", err)
	}
	if rows, _ = repo.LoadProjects(ctx); len(rows) != 1 {
		t.Fatalf("saved list should replace the previous one, got %d rows", len(rows))
	}

	if err := repo.DeleteProject(ctx, a.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if rows, _ = repo.LoadProjects(ctx); len(rows) != 0 {
		t.Fatalf("project not deleted")
	}
}

func TestFileRepository(t *testing.T) {
	exerciseRepository(t, NewFile(filepath.Join(t.TempDir(), "nested", "projects.json")))
}

func TestFileRepositoryRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).LoadProjects(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("PROJECT_STORE_PG_DSN")
	if dsn == "" {
		t.Skip("PROJECT_STORE_PG_DSN not set")
	}
	repo, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer repo.Close()
	if _, err := repo.db.Exec(`DROP TABLE IF EXISTS project_documents`); err != nil {
		t.Fatalf("reset table: %v", err)
	}
	exerciseRepository(t, repo)
}

func TestOpenFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	repo, backend, err := Open(Config{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if backend != "file" {
		t.Fatalf("expected file backend, got %s", backend)
	}
	if _, ok := repo.(*FileRepository); !ok {
		t.Fatalf("unexpected repository type %T", repo)
	}
}
