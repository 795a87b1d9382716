package projectstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	schema: `
CREATE TABLE IF NOT EXISTS project_documents (
  project_id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  payload TEXT NOT NULL,
  saved_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_project_documents_position ON project_documents (position);
`,
	upsert: `
INSERT INTO project_documents (project_id, position, payload, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (project_id)
DO UPDATE SET position=excluded.position,
  payload=excluded.payload,
  saved_at=excluded.saved_at`,
	delete: `DELETE FROM project_documents WHERE project_id = ?`,
	prune:  `DELETE FROM project_documents WHERE saved_at <> ?`,
}

func NewSQLite(path string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLRepository{db: db, d: sqliteDialect}, nil
}
