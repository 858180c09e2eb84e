package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trackteamhq/portal/internal/models"
)

type MeetEventStore struct {
	pool *pgxpool.Pool
}

func NewMeetEventStore(pool *pgxpool.Pool) *MeetEventStore {
	return &MeetEventStore{pool: pool}
}

// Resolve returns the event row for (meetID, name), creating it on first
// use.
//
// ON CONFLICT DO UPDATE (rather than DO NOTHING) so that RETURNING always
// yields a row: DO NOTHING returns nothing on conflict, which would force a
// second read and open a window where a concurrent delete makes both fail.
// The no-op update on the conflicting row keeps this a single race-safe
// statement — two concurrent resolves of the same pair both get the one row
// the (meet_id, name) constraint allows.
func (s *MeetEventStore) Resolve(ctx context.Context, meetID uuid.UUID, name string) (*models.MeetEvent, error) {
	query := `
		INSERT INTO meet_events (id, meet_id, name)
		VALUES (uuid_generate_v4(), $1, $2)
		ON CONFLICT (meet_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, meet_id, name`

	var e models.MeetEvent
	err := s.pool.QueryRow(ctx, query, meetID, name).Scan(
		&e.ID,
		&e.MeetID,
		&e.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve meet event: %w", err)
	}
	return &e, nil
}

func (s *MeetEventStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MeetEvent, error) {
	query := `
		SELECT id, meet_id, name
		FROM meet_events
		WHERE id = $1`

	var e models.MeetEvent
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.MeetID,
		&e.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meet event: %w", err)
	}
	return &e, nil
}

func (s *MeetEventStore) ListByMeet(ctx context.Context, meetID uuid.UUID) ([]models.MeetEvent, error) {
	query := `
		SELECT id, meet_id, name
		FROM meet_events
		WHERE meet_id = $1
		ORDER BY name`

	rows, err := s.pool.Query(ctx, query, meetID)
	if err != nil {
		return nil, fmt.Errorf("list meet events: %w", err)
	}
	defer rows.Close()

	events := make([]models.MeetEvent, 0)
	for rows.Next() {
		var e models.MeetEvent
		if err := rows.Scan(&e.ID, &e.MeetID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan meet event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meet events: %w", err)
	}

	return events, nil
}
