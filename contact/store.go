// Package contact keeps the inbox behind the home page contact form and
// forwards new messages by email when a mail provider is configured.
package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status tracks whether a message has been forwarded.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Message is one contact form submission.
type Message struct {
	ID        string
	Name      string
	Email     string
	Body      string
	CreatedAt time.Time
	Status    Status
	Error     string
}

// ErrNotFound is returned when a message id does not exist.
var ErrNotFound = errors.New("contact: message not found")

// Store wraps the SQLite inbox.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the inbox at path and runs migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS contact_messages (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_contact_messages_created ON contact_messages(created_at DESC);
`)
	return err
}

// Insert stores m. CreatedAt is kept at nanosecond precision.
func (s *Store) Insert(ctx context.Context, m Message) error {
	if m.Status == "" {
		m.Status = StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, body, created_at, status, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Body, m.CreatedAt.UnixNano(), string(m.Status), m.Error)
	if err != nil {
		return fmt.Errorf("contact: insert %s: %w", m.ID, err)
	}
	return nil
}

// SetStatus records the delivery outcome of message id.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contact_messages SET status = ?, error = ? WHERE id = ?`,
		string(status), errMsg, id)
	if err != nil {
		return fmt.Errorf("contact: update %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the message with the given id.
func (s *Store) Get(ctx context.Context, id string) (Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, body, created_at, status, error FROM contact_messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

// Recent returns up to limit messages, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, body, created_at, status, error FROM contact_messages ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(sc scanner) (Message, error) {
	var (
		m       Message
		created int64
		status  string
	)
	if err := sc.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &created, &status, &m.Error); err != nil {
		return Message{}, err
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	m.Status = Status(status)
	return m, nil
}
