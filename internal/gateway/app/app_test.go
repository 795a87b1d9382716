package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"promptlab/internal/gateway/config"
)

func TestBuildWithFileStoreAndFakeBackend(t *testing.T) {
	cfg := &config.Config{
		Port:  ":0",
		Env:   "local",
		Store: config.StoreConfig{FilePath: filepath.Join(t.TempDir(), "projects.json")},
		Translation: config.TranslationConfig{
			CacheSize: 8,
			Debounce:  time.Millisecond,
		},
		Retry:           config.RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond},
		RetainedResults: 3,
	}
	a, err := build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if a.stores.artifact != nil {
		t.Fatalf("artifact store should be off without s3 config")
	}
	if got := a.svc.Session().Backend; got != "FakeLLM" {
		t.Fatalf("backend = %q, want the offline fake", got)
	}
	if n := len(a.svc.ListProjects()); n != 1 {
		t.Fatalf("expected the bootstrap project, got %d", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
