// Package transcript archives conversation turns for audit. Writes are
// best-effort: a failed archive never blocks the conversation itself.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medibot/intake-platform/pkg/logging"
)

// Store persists conversations and their turns through database/sql, so the
// archive can point at a different database than the clinical tables.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewStore wires the archive store.
func NewStore(db *sql.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger}
}

// EnsureConversation returns the conversation id for a session token,
// creating the row on first use.
func (s *Store) EnsureConversation(ctx context.Context, token string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE token = $1`, token).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("transcript: lookup conversation: %w", err)
	}

	id = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, token) VALUES ($1, $2)`, id, token)
	if err != nil {
		return "", fmt.Errorf("transcript: create conversation: %w", err)
	}
	return id, nil
}

// AppendTurn records one utterance. Errors are logged and swallowed.
func (s *Store) AppendTurn(ctx context.Context, conversationID, speaker, text string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, conversation_id, speaker, content)
		VALUES ($1, $2, $3, $4)`, uuid.NewString(), conversationID, speaker, text)
	if err != nil {
		s.logger.Warn("transcript append failed",
			"conversation_id", conversationID, "error", err)
	}
}

// Turns returns the archived utterances for a conversation, oldest first.
func (s *Store) Turns(ctx context.Context, conversationID string) ([][2]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT speaker, content FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("transcript: list turns: %w", err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var speaker, body string
		if err := rows.Scan(&speaker, &body); err != nil {
			return nil, fmt.Errorf("transcript: scan turn: %w", err)
		}
		out = append(out, [2]string{speaker, body})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: list rows: %w", err)
	}
	return out, nil
}
