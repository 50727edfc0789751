package calllog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DrFREEST/omcm/state"
)

// Store persists call entries to SQLite. WAL mode keeps concurrent hook
// processes from corrupting the log, and busy_timeout covers the short
// overlap windows between them.
type Store struct {
	db *sql.DB
}

func OpenStore(paths state.Paths) (*Store, error) {
	path := paths.CallLogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("calllog: create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("calllog: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("calllog: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("calllog: migration: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS calls (
			id            TEXT PRIMARY KEY,
			time          TEXT NOT NULL,
			session_id    TEXT NOT NULL DEFAULT '',
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL DEFAULT '',
			agent         TEXT NOT NULL DEFAULT '',
			reason        TEXT NOT NULL DEFAULT '',
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			success       INTEGER NOT NULL DEFAULT 0,
			duration_ms   INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_calls_session ON calls(session_id);
		CREATE INDEX IF NOT EXISTS idx_calls_time ON calls(time);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one call to the log.
func (s *Store) Record(e Entry) error {
	e = NewEntry(e)
	_, err := s.db.Exec(
		`INSERT INTO calls (id, time, session_id, provider, model, agent, reason,
			input_tokens, output_tokens, success, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC().Format(time.RFC3339Nano), e.SessionID, e.Provider,
		e.Model, e.Agent, e.Reason, e.InputTokens, e.OutputTokens,
		boolToInt(e.Success), e.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("calllog: record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty sessionID
// matches every session.
func (s *Store) Recent(sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, time, session_id, provider, model, agent, reason,
			input_tokens, output_tokens, success, duration_ms
		FROM calls`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("calllog: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var success int
		if err := rows.Scan(&e.ID, &ts, &e.SessionID, &e.Provider, &e.Model,
			&e.Agent, &e.Reason, &e.InputTokens, &e.OutputTokens, &success,
			&e.DurationMS); err != nil {
			return nil, fmt.Errorf("calllog: scan: %w", err)
		}
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
		e.Success = success != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Since returns up to limit entries recorded after the given id, oldest
// first. Ids are xids, so lexicographic order is chronological; an empty id
// starts from the beginning of the log.
func (s *Store) Since(afterID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 256
	}
	rows, err := s.db.Query(
		`SELECT id, time, session_id, provider, model, agent, reason,
			input_tokens, output_tokens, success, duration_ms
		FROM calls WHERE id > ? ORDER BY id ASC LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("calllog: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var success int
		if err := rows.Scan(&e.ID, &ts, &e.SessionID, &e.Provider, &e.Model,
			&e.Agent, &e.Reason, &e.InputTokens, &e.OutputTokens, &success,
			&e.DurationMS); err != nil {
			return nil, fmt.Errorf("calllog: scan: %w", err)
		}
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
		e.Success = success != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StatsByProvider aggregates the whole log per provider.
func (s *Store) StatsByProvider() (map[string]ProviderStats, error) {
	rows, err := s.db.Query(`
		SELECT provider,
			COUNT(*),
			SUM(success),
			SUM(input_tokens),
			SUM(output_tokens)
		FROM calls GROUP BY provider`)
	if err != nil {
		return nil, fmt.Errorf("calllog: stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]ProviderStats)
	for rows.Next() {
		var provider string
		var calls, succeeded int
		var in, out uint64
		if err := rows.Scan(&provider, &calls, &succeeded, &in, &out); err != nil {
			return nil, fmt.Errorf("calllog: scan: %w", err)
		}
		stats[provider] = ProviderStats{
			Calls:        calls,
			Succeeded:    succeeded,
			Failed:       calls - succeeded,
			InputTokens:  in,
			OutputTokens: out,
		}
	}
	return stats, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
