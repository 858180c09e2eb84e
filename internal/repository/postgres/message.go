package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trackteamhq/portal/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Create appends a message. Messages use bigserial IDs; Postgres generates
// them and RETURNING hands the row back. There is no corresponding update
// or delete statement anywhere — messages are immutable.
func (s *MessageStore) Create(ctx context.Context, threadID, senderID uuid.UUID, body string) (*models.Message, error) {
	query := `
		INSERT INTO messages (thread_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, thread_id, sender_id, body, created_at`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, threadID, senderID, body).Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.SenderID,
		&msg.Body,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// ListByThread pages newest-first on the bigserial ID, which is monotonic
// and doubles as the cursor: before=0 means first page, before=N means
// messages older than ID N.
func (s *MessageStore) ListByThread(ctx context.Context, threadID uuid.UUID, before int64, limit int) ([]models.Message, error) {
	var query string
	var args []any

	if before > 0 {
		query = `
			SELECT id, thread_id, sender_id, body, created_at
			FROM messages
			WHERE thread_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`
		args = []any{threadID, before, limit}
	} else {
		query = `
			SELECT id, thread_id, sender_id, body, created_at
			FROM messages
			WHERE thread_id = $1
			ORDER BY id DESC
			LIMIT $2`
		args = []any{threadID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.SenderID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
