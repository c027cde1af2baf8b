package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/steelhand/steelhand/internal/log"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// DB is the subset of pgxpool.Pool the store needs. Defined here so
// tests can substitute a fake without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads and writes sessions and their messages.
// Safe for concurrent use.
type Store struct {
	db     DB
	logger log.Logger
}

// NewStore creates a session store backed by db.
func NewStore(db DB, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("session store requires a database")
	}
	if logger == nil {
		return nil, errors.New("session store requires a logger")
	}
	return &Store{db: db, logger: logger}, nil
}

// Create inserts a new session and returns it.
func (s *Store) Create(ctx context.Context, title string) (*Session, error) {
	id := uuid.New()
	sess := &Session{ID: id, Title: title}

	row := s.db.QueryRow(ctx,
		`INSERT INTO sessions (id, title) VALUES ($1, $2)
		 RETURNING created_at, updated_at`,
		id, title)
	if err := row.Scan(&sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Debug("created session", "session_id", id, "title", title)
	return sess, nil
}

// Get retrieves a session by ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess := &Session{ID: id}
	row := s.db.QueryRow(ctx,
		`SELECT title, created_at, updated_at FROM sessions WHERE id = $1`, id)
	if err := row.Scan(&sess.Title, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// GetOrCreate loads the session when it exists and creates it under
// the supplied ID otherwise. Callers that mint their own session IDs
// use this on first contact.
func (s *Store) GetOrCreate(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	sess = &Session{ID: id}
	row := s.db.QueryRow(ctx,
		`INSERT INTO sessions (id, title) VALUES ($1, '')
		 ON CONFLICT (id) DO UPDATE SET updated_at = now()
		 RETURNING title, created_at, updated_at`,
		id)
	if err := row.Scan(&sess.Title, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}
	return sess, nil
}

// AppendMessage stores one message and touches the session timestamp.
func (s *Store) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string) error {
	switch role {
	case RoleUser, RoleModel, RoleTool:
	default:
		return fmt.Errorf("invalid message role %q", role)
	}

	if _, err := s.db.Exec(ctx,
		`INSERT INTO session_messages (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content); err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE sessions SET updated_at = now() WHERE id = $1`, sessionID); err != nil {
		s.logger.Warn("touch session timestamp", "session_id", sessionID, "error", err)
	}
	return nil
}

// Messages returns up to limit most recent messages in chronological
// order. limit <= 0 returns the full history.
func (s *Store) Messages(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error) {
	query := `SELECT id, session_id, role, content, created_at
	          FROM session_messages WHERE session_id = $1
	          ORDER BY created_at DESC, id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Query is newest-first to honor the limit; replay wants oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Delete removes a session and its messages.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
