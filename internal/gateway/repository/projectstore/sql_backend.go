package projectstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"promptlab/internal/project"
)

// dialect holds the statements that differ between drivers.
type dialect struct {
	schema string
	upsert string
	delete string
	prune  string
}

// SQLRepository stores one JSON document per project, ordered by position.
type SQLRepository struct {
	db *sql.DB
	d  dialect

	schemaOnce sync.Once
	schemaErr  error

	lastStamp atomic.Int64
}

func (s *SQLRepository) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, s.d.schema)
	})
	return s.schemaErr
}

func (s *SQLRepository) LoadProjects(ctx context.Context) ([]project.Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT project_id, payload FROM project_documents ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]project.Project, 0, 16)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var p project.Project
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", id, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveProjects upserts every project in one transaction and drops rows
// stamped by an earlier save.
func (s *SQLRepository) SaveProjects(ctx context.Context, projects []project.Project) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stamp := s.nextStamp()
	for i, p := range projects {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.d.upsert, p.ID, i, string(raw), stamp); err != nil {
			return fmt.Errorf("upsert project %s: %w", p.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.d.prune, stamp); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLRepository) DeleteProject(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.d.delete, id)
	return err
}

// nextStamp is strictly increasing even when the clock is not.
func (s *SQLRepository) nextStamp() int64 {
	for {
		last := s.lastStamp.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (s *SQLRepository) Close() error { return s.db.Close() }
