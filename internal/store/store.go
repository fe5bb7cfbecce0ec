// Package store provides conversation message persistence on PostgreSQL.
//
// The messages table is append-only: records are inserted per chat turn and
// listed newest-first by user id. Nothing in this system updates or deletes
// a persisted message.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koopa0/flightgpt/internal/log"
)

// DB is the subset of pgxpool.Pool the store needs.
// Defined by the consumer so tests can substitute a fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Message is one persisted conversation record.
type Message struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store manages message persistence. Safe for concurrent use; PostgreSQL
// provides consistency for concurrent inserts keyed by user id.
type Store struct {
	db     DB
	logger log.Logger
}

// New creates a Store on the given database handle.
func New(db DB, logger log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// InsertMessage appends one timestamped record and returns its id.
func (s *Store) InsertMessage(ctx context.Context, userID, role, content string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO messages (user_id, role, content) VALUES ($1, $2, $3) RETURNING id`,
		userID, role, content,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting message for user %s: %w", userID, err)
	}

	s.logger.Debug("inserted message", "id", id, "user_id", userID, "role", role)
	return id, nil
}

// List returns all messages for a user, newest first.
// Repeated calls with no intervening insert return identical sequences.
func (s *Store) List(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, role, content, created_at
		 FROM messages
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages for user %s: %w", userID, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}
