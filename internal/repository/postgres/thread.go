package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trackteamhq/portal/internal/models"
)

type ThreadStore struct {
	pool *pgxpool.Pool
}

func NewThreadStore(pool *pgxpool.Pool) *ThreadStore {
	return &ThreadStore{pool: pool}
}

// CreateWithParticipants creates the thread and every participant row in a
// single transaction. The creator is always a participant; this is the only
// place participant rows are ever written, so nobody can join a thread they
// were not added to at creation.
func (s *ThreadStore) CreateWithParticipants(ctx context.Context, kind string, subject *string, createdBy uuid.UUID, participantIDs []uuid.UUID) (*models.Thread, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var t models.Thread
	err = tx.QueryRow(ctx, `
		INSERT INTO threads (id, kind, subject, created_by, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, now())
		RETURNING id, kind, subject, created_by, created_at`,
		kind, subject, createdBy,
	).Scan(&t.ID, &t.Kind, &t.Subject, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	// Deduplicate via ON CONFLICT DO NOTHING: the creator may also appear
	// in participantIDs.
	insertParticipant := `
		INSERT INTO thread_participants (thread_id, user_id, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (thread_id, user_id) DO NOTHING`

	if _, err := tx.Exec(ctx, insertParticipant, t.ID, createdBy, createdBy); err != nil {
		return nil, fmt.Errorf("insert creator participant: %w", err)
	}
	for _, pid := range participantIDs {
		if _, err := tx.Exec(ctx, insertParticipant, t.ID, pid, createdBy); err != nil {
			return nil, fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &t, nil
}

// IsParticipant is the gate in front of every thread read and message send.
// SELECT EXISTS stops at the first match.
func (s *ThreadStore) IsParticipant(ctx context.Context, threadID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM thread_participants
			WHERE thread_id = $1 AND user_id = $2
		)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, threadID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participation: %w", err)
	}
	return exists, nil
}

func (s *ThreadStore) ListParticipants(ctx context.Context, threadID uuid.UUID) ([]models.ThreadParticipant, error) {
	query := `
		SELECT thread_id, user_id, added_by, last_read_at
		FROM thread_participants
		WHERE thread_id = $1`

	rows, err := s.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.ThreadParticipant, 0)
	for rows.Next() {
		var p models.ThreadParticipant
		if err := rows.Scan(&p.ThreadID, &p.UserID, &p.AddedBy, &p.LastReadAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return participants, nil
}

// ListSummaries drives the inbox list and the realtime push. Scoped by the
// join on thread_participants, so it can only ever return threads the user
// belongs to.
func (s *ThreadStore) ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ThreadSummary, error) {
	query := `
		SELECT t.id, t.kind, t.subject, t.created_by, t.created_at,
		       m.body, m.created_at,
		       (m.id IS NOT NULL AND (tp.last_read_at IS NULL OR m.created_at > tp.last_read_at))
		FROM threads t
		JOIN thread_participants tp ON tp.thread_id = t.id AND tp.user_id = $1
		LEFT JOIN LATERAL (
			SELECT id, body, created_at
			FROM messages
			WHERE thread_id = t.id
			ORDER BY id DESC
			LIMIT 1
		) m ON true
		ORDER BY COALESCE(m.created_at, t.created_at) DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list thread summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.ThreadSummary, 0)
	for rows.Next() {
		var sum models.ThreadSummary
		if err := rows.Scan(
			&sum.ID,
			&sum.Kind,
			&sum.Subject,
			&sum.CreatedBy,
			&sum.CreatedAt,
			&sum.LastMessageBody,
			&sum.LastMessageAt,
			&sum.Unread,
		); err != nil {
			return nil, fmt.Errorf("scan thread summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread summaries: %w", err)
	}

	return summaries, nil
}

func (s *ThreadStore) MarkRead(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE thread_participants SET last_read_at = $3
		WHERE thread_id = $1 AND user_id = $2`

	_, err := s.pool.Exec(ctx, query, threadID, userID, at)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
