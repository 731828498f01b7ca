package state

import (
	"database/sql"
	"fmt"
	"time"

	"testmend/pkg/models"
)

// SessionStatus is the lifecycle state of a stored session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// SessionRecord is one stored working session.
type SessionRecord struct {
	ID         string
	SourcePath string
	Framework  string
	StartedAt  time.Time
	Status     SessionStatus
}

// CreateSession inserts a new session row.
func (db *DB) CreateSession(s *SessionRecord) error {
	if s.Status == "" {
		s.Status = SessionActive
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO sessions (id, source_path, framework, started_at, status)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.SourcePath, s.Framework, formatTime(s.StartedAt), string(s.Status))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession loads a session by ID. Returns sql.ErrNoRows when absent.
func (db *DB) GetSession(id string) (*SessionRecord, error) {
	row := db.QueryRow(`
		SELECT id, source_path, framework, started_at, status
		FROM sessions WHERE id = ?`, id)

	s := &SessionRecord{}
	var startedAt, status string
	if err := row.Scan(&s.ID, &s.SourcePath, &s.Framework, &startedAt, &status); err != nil {
		return nil, err
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	s.StartedAt = t
	s.Status = SessionStatus(status)
	return s, nil
}

// FindActiveSession returns the active session for a source path, or nil
// when none exists.
func (db *DB) FindActiveSession(sourcePath string) (*SessionRecord, error) {
	row := db.QueryRow(`
		SELECT id FROM sessions
		WHERE source_path = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`,
		sourcePath, string(SessionActive))

	var id string
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return db.GetSession(id)
}

// ListSessions returns sessions, optionally filtered by status, newest first.
func (db *DB) ListSessions(status *SessionStatus) ([]SessionRecord, error) {
	query := "SELECT id, source_path, framework, started_at, status FROM sessions"
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY started_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var s SessionRecord
		var startedAt, st string
		if err := rows.Scan(&s.ID, &s.SourcePath, &s.Framework, &startedAt, &st); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		t, err := parseTime(startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		s.StartedAt = t
		s.Status = SessionStatus(st)
		out = append(out, s)
	}
	return out, rows.Err()
}

// EndSession marks a session ended and purges its corpus entries. The
// session row itself is kept for history.
func (db *DB) EndSession(id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec("UPDATE sessions SET status = ? WHERE id = ?", string(SessionEnded), id)
		if err != nil {
			return fmt.Errorf("end session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("end session: no session %s", id)
		}
		if _, err := tx.Exec("DELETE FROM corpus_entries WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("purge corpus: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a session and, via cascade, its corpus entries.
func (db *DB) DeleteSession(id string) error {
	if _, err := db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AppendEntries stores accepted entries for a session, preserving order.
// Entries already stored (by ID) are skipped.
func (db *DB) AppendEntries(sessionID string, entries []models.CandidateEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return db.Transaction(func(tx *sql.Tx) error {
		var next int
		row := tx.QueryRow("SELECT COALESCE(MAX(seq), -1) + 1 FROM corpus_entries WHERE session_id = ?", sessionID)
		if err := row.Scan(&next); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO corpus_entries (id, session_id, seq, name, body, tier, accepted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			acceptedAt := e.AcceptedAt
			if acceptedAt.IsZero() {
				acceptedAt = time.Now()
			}
			res, err := stmt.Exec(e.ID, sessionID, next, e.Name, e.Body, int(e.Tier), formatTime(acceptedAt))
			if err != nil {
				return fmt.Errorf("insert entry %s: %w", e.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				next++
			}
		}
		return nil
	})
}

// LoadEntries returns a session's corpus entries in insertion order.
func (db *DB) LoadEntries(sessionID string) ([]models.CandidateEntry, error) {
	rows, err := db.Query(`
		SELECT id, name, body, tier, accepted_at
		FROM corpus_entries WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var out []models.CandidateEntry
	for rows.Next() {
		var e models.CandidateEntry
		var tier int
		var acceptedAt string
		if err := rows.Scan(&e.ID, &e.Name, &e.Body, &tier, &acceptedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Tier = models.QualityTier(tier)
		t, err := parseTime(acceptedAt)
		if err != nil {
			return nil, fmt.Errorf("parse accepted_at: %w", err)
		}
		e.AcceptedAt = t
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEntries returns the number of stored entries for a session.
func (db *DB) CountEntries(sessionID string) (int, error) {
	var n int
	row := db.QueryRow("SELECT COUNT(*) FROM corpus_entries WHERE session_id = ?", sessionID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
