package projectstore

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"promptlab/internal/project"
)

const DefaultFilePath = "tmp/projects.json"

type Config struct {
	PostgresDSN string
	SQLitePath  string
	FilePath    string
}

// Open picks a backend: postgres, then sqlite, then the JSON file.
func Open(cfg Config, log *zap.Logger) (project.Repository, string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dsn := strings.TrimSpace(cfg.PostgresDSN); dsn != "" {
		repo, err := NewPostgres(dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres project store: %w", err)
		}
		log.Info("project store", zap.String("backend", "postgres"))
		return repo, "postgres", nil
	}
	if path := strings.TrimSpace(cfg.SQLitePath); path != "" {
		repo, err := NewSQLite(path)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite project store: %w", err)
		}
		log.Info("project store", zap.String("backend", "sqlite"), zap.String("path", path))
		return repo, "sqlite", nil
	}
	path := strings.TrimSpace(cfg.FilePath)
	if path == "" {
		path = DefaultFilePath
	}
	log.Info("project store", zap.String("backend", "file"), zap.String("path", path))
	return NewFile(path), "file", nil
}
