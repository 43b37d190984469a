// Package store persists per-turn artifacts (journal, memory, prints)
// between runs. It is host-side and optional: the interpreter core never
// touches it. Backed by a single-file sqlite database, no cgo.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andreasronge/ptclisp/pkg/ptclisp"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	session_id   TEXT NOT NULL,
	turn         INTEGER NOT NULL,
	step_id      TEXT NOT NULL,
	return_json  TEXT,
	fail_reason  TEXT,
	fail_message TEXT,
	memory_src   TEXT,
	journal_json TEXT,
	prints_json  TEXT,
	duration_ms  INTEGER NOT NULL,
	created_at   TEXT NOT NULL,
	PRIMARY KEY (session_id, turn)
);
`

type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the store at path. Use ":memory:"
// for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing store schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTurn appends one step under the session, numbering turns from 1.
func (s *Store) SaveTurn(sessionID string, step ptclisp.Step) error {
	turn, err := s.TurnCount(sessionID)
	if err != nil {
		return err
	}

	returnJSON, err := json.Marshal(step.Return)
	if err != nil {
		return fmt.Errorf("encoding return value: %w", err)
	}
	journalJSON, err := json.Marshal(step.Journal)
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	printsJSON, err := json.Marshal(step.Prints)
	if err != nil {
		return fmt.Errorf("encoding prints: %w", err)
	}
	memorySrc, err := ptclisp.ExportMemory(step)
	if err != nil {
		return fmt.Errorf("serializing memory: %w", err)
	}

	failReason, failMessage := "", ""
	if step.Fail != nil {
		failReason = step.Fail.Reason
		failMessage = step.Fail.Message
	}

	_, err = s.db.Exec(`
		INSERT INTO turns
		(session_id, turn, step_id, return_json, fail_reason, fail_message,
		 memory_src, journal_json, prints_json, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, turn+1, step.ID, string(returnJSON), failReason, failMessage,
		memorySrc, string(journalJSON), string(printsJSON),
		step.Usage.DurationMs, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}
	return nil
}

// TurnCount returns how many turns the session has recorded.
func (s *Store) TurnCount(sessionID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM turns WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting turns: %w", err)
	}
	return count, nil
}

// LoadJournal rehydrates the latest turn's journal for replay; an empty
// map when the session has no turns yet.
func (s *Store) LoadJournal(sessionID string) (map[string]any, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`
		SELECT journal_json FROM turns
		WHERE session_id = ? ORDER BY turn DESC LIMIT 1`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	journal := map[string]any{}
	if raw.Valid && raw.String != "" && raw.String != "null" {
		if err := json.Unmarshal([]byte(raw.String), &journal); err != nil {
			return nil, fmt.Errorf("decoding journal: %w", err)
		}
	}
	return journal, nil
}

// LoadMemory returns the latest turn's memory export: a do block of def
// forms the next turn can re-run, or "" when the session is empty.
func (s *Store) LoadMemory(sessionID string) (string, error) {
	var src sql.NullString
	err := s.db.QueryRow(`
		SELECT memory_src FROM turns
		WHERE session_id = ? ORDER BY turn DESC LIMIT 1`, sessionID).Scan(&src)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading memory: %w", err)
	}
	return src.String, nil
}

// TurnSummary is a compact listing row for session inspection.
type TurnSummary struct {
	Turn       int
	StepID     string
	FailReason string
	DurationMs int64
	CreatedAt  string
}

// ListTurns returns the session's turns in order.
func (s *Store) ListTurns(sessionID string) ([]TurnSummary, error) {
	rows, err := s.db.Query(`
		SELECT turn, step_id, fail_reason, duration_ms, created_at
		FROM turns WHERE session_id = ? ORDER BY turn`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var out []TurnSummary
	for rows.Next() {
		var t TurnSummary
		if err := rows.Scan(&t.Turn, &t.StepID, &t.FailReason, &t.DurationMs, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
