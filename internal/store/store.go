// Package store handles SQLite persistence of caption transcripts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/livecap/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrSessionNotFound means no session matches the given id or prefix.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAmbiguousSession means an id prefix matches more than one session.
	ErrAmbiguousSession = errors.New("session id prefix is ambiguous")
)

// Store wraps SQLite access for transcript data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			lang TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS captions (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			captured_at TEXT NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_captions_session ON captions(session_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartSession records a new session.
func (s *Store) StartSession(ctx context.Context, id string, startedAt time.Time, lang string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, lang) VALUES (?, ?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339Nano), lang)
	return err
}

// EndSession stamps the end time of a session.
func (s *Store) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// InsertCaption appends one caption to its session's transcript.
func (s *Store) InsertCaption(ctx context.Context, ev model.CaptionEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO captions (session_id, captured_at, text) VALUES (?, ?, ?)`,
		ev.SessionID, ev.Time.UTC().Format(time.RFC3339Nano), ev.Text)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const sessionColumns = `s.id, s.started_at, s.ended_at, s.lang,
		(SELECT COUNT(*) FROM captions c WHERE c.session_id = s.id)`

// ListSessions returns sessions newest first. last <= 0 returns all of them.
func (s *Store) ListSessions(ctx context.Context, last int) ([]model.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions s
		ORDER BY s.started_at DESC`
	args := []any{}
	if last > 0 {
		query += ` LIMIT ?`
		args = append(args, last)
	}
	return s.querySessions(ctx, query, args...)
}

// FindSession resolves a full session id or a unique prefix of one.
func (s *Store) FindSession(ctx context.Context, idOrPrefix string) (model.SessionRecord, error) {
	if idOrPrefix == "" {
		return model.SessionRecord{}, ErrSessionNotFound
	}
	sessions, err := s.querySessions(ctx, `SELECT `+sessionColumns+`
		FROM sessions s
		WHERE s.id = ? OR substr(s.id, 1, ?) = ?
		ORDER BY s.started_at DESC
		LIMIT 2`, idOrPrefix, len(idOrPrefix), idOrPrefix)
	if err != nil {
		return model.SessionRecord{}, err
	}
	for _, rec := range sessions {
		if rec.ID == idOrPrefix {
			return rec, nil
		}
	}
	switch len(sessions) {
	case 0:
		return model.SessionRecord{}, fmt.Errorf("%w: %s", ErrSessionNotFound, idOrPrefix)
	case 1:
		return sessions[0], nil
	default:
		return model.SessionRecord{}, fmt.Errorf("%w: %s", ErrAmbiguousSession, idOrPrefix)
	}
}

// ListCaptions returns a session's captions in capture order.
func (s *Store) ListCaptions(ctx context.Context, sessionID string) ([]model.CaptionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, captured_at, text
		 FROM captions
		 WHERE session_id = ?
		 ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CaptionRecord
	for rows.Next() {
		var rec model.CaptionRecord
		var capturedAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &capturedAt, &rec.Text); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, capturedAt)
		if err != nil {
			return nil, err
		}
		rec.Time = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Language, &rec.Captions); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		rec.StartedAt = parsed
		if endedAt.Valid {
			ended, err := time.Parse(time.RFC3339Nano, endedAt.String)
			if err != nil {
				return nil, err
			}
			rec.EndedAt = &ended
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
