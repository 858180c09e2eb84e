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

type AssignmentStore struct {
	pool *pgxpool.Pool
}

func NewAssignmentStore(pool *pgxpool.Pool) *AssignmentStore {
	return &AssignmentStore{pool: pool}
}

func (s *AssignmentStore) GetByEventAthlete(ctx context.Context, meetEventID, athleteID uuid.UUID) (*models.Assignment, error) {
	query := `
		SELECT id, meet_event_id, athlete_id, status, created_at, updated_at
		FROM assignments
		WHERE meet_event_id = $1 AND athlete_id = $2`

	var a models.Assignment
	err := s.pool.QueryRow(ctx, query, meetEventID, athleteID).Scan(
		&a.ID,
		&a.MeetEventID,
		&a.AthleteID,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &a, nil
}

// Upsert keys on the (meet_event_id, athlete_id) unique constraint.
// Assignments are merge-on-conflict: a second write for the same pair
// overwrites the status in place, so the unique-violation error can never
// escape this operation. Two coaches writing concurrently serialize on the
// constraint and the later write wins.
func (s *AssignmentStore) Upsert(ctx context.Context, meetEventID, athleteID uuid.UUID, status string) (*models.Assignment, error) {
	query := `
		INSERT INTO assignments (id, meet_event_id, athlete_id, status, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, now(), now())
		ON CONFLICT (meet_event_id, athlete_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = now()
		RETURNING id, meet_event_id, athlete_id, status, created_at, updated_at`

	var a models.Assignment
	err := s.pool.QueryRow(ctx, query, meetEventID, athleteID, status).Scan(
		&a.ID,
		&a.MeetEventID,
		&a.AthleteID,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert assignment: %w", err)
	}
	return &a, nil
}

// Delete is idempotent: zero rows affected is not an error, the assignment
// is simply already gone.
func (s *AssignmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

const assignmentDetailQuery = `
	SELECT a.id, a.meet_event_id, a.athlete_id, a.status, a.created_at, a.updated_at,
	       e.name, p.full_name
	FROM assignments a
	JOIN meet_events e ON e.id = a.meet_event_id
	JOIN profiles p ON p.user_id = a.athlete_id`

func (s *AssignmentStore) ListByMeet(ctx context.Context, meetID uuid.UUID) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + `
	WHERE e.meet_id = $1
	ORDER BY e.name, p.full_name`

	rows, err := s.pool.Query(ctx, query, meetID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignmentDetails(rows)
}

// ListByMeetForAthlete is the athlete-scoped read: an athlete sees only the
// rows naming them, never the rest of the lineup.
func (s *AssignmentStore) ListByMeetForAthlete(ctx context.Context, meetID, athleteID uuid.UUID) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + `
	WHERE e.meet_id = $1 AND a.athlete_id = $2
	ORDER BY e.name`

	rows, err := s.pool.Query(ctx, query, meetID, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list athlete assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignmentDetails(rows)
}

func scanAssignmentDetails(rows pgx.Rows) ([]models.AssignmentDetail, error) {
	details := make([]models.AssignmentDetail, 0)
	for rows.Next() {
		var d models.AssignmentDetail
		if err := rows.Scan(
			&d.ID,
			&d.MeetEventID,
			&d.AthleteID,
			&d.Status,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.EventName,
			&d.AthleteName,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}

	return details, nil
}
