package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the recognizer.
type Session struct {
	ID        string     `json:"id"`
	Mode      string     `json:"mode"`
	Source    string     `json:"source"`
	Text      string     `json:"text"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Events    int        `json:"events"`
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `s.id, s.mode, s.source, s.text, s.started_at, s.ended_at,
	(SELECT COUNT(*) FROM events e WHERE e.session_id = s.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Mode, &sess.Source, &sess.Text, &sess.StartedAt, &ended, &sess.Events); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// Create inserts a session. An empty ID is replaced with a new UUID and a
// zero StartedAt with the current time.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	if sess.Source == "" {
		sess.Source = "camera"
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, mode, source, text, started_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Mode, sess.Source, sess.Text, sess.StartedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(`SELECT ` + sessionColumns + ` FROM sessions s ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// UpdateText stores the current output text of a session.
func (r *SessionRepository) UpdateText(id, text string) error {
	result, err := r.db.Exec(`UPDATE sessions SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Finish marks a session ended and stores its final text.
func (r *SessionRepository) Finish(id string, at time.Time, text string) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ?, text = ? WHERE id = ?`, at, text, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a session and, by cascade, its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func expectOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
