package projectstore

import (
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	schema: `
CREATE TABLE IF NOT EXISTS project_documents (
  project_id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  payload JSONB NOT NULL,
  saved_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_project_documents_position ON project_documents (position);
`,
	upsert: `
INSERT INTO project_documents (project_id, position, payload, saved_at)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (project_id)
DO UPDATE SET position=EXCLUDED.position,
  payload=EXCLUDED.payload,
  saved_at=EXCLUDED.saved_at`,
	delete: `DELETE FROM project_documents WHERE project_id = $1`,
	prune:  `DELETE FROM project_documents WHERE saved_at <> $1`,
}

func NewPostgres(dsn string) (*SQLRepository, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLRepository{db: db, d: postgresDialect}, nil
}
