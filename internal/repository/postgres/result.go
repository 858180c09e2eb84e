package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/repository"
)

type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Create is a plain insert, not an upsert. Results are reject-on-conflict: a
// recorded mark is an attested fact, and silently overwriting it on a second
// entry would hide data-entry mistakes. The (meet_event_id, athlete_id)
// unique constraint detects the conflict and the violation is translated to
// repository.ErrDuplicateResult.
func (s *ResultStore) Create(ctx context.Context, p repository.CreateResultParams) (*models.Result, error) {
	query := `
		INSERT INTO results (id, meet_event_id, athlete_id, mark, place, points, notes, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, now())
		RETURNING id, meet_event_id, athlete_id, mark, place, points, notes, created_at`

	var r models.Result
	err := s.pool.QueryRow(ctx, query,
		p.MeetEventID, p.AthleteID, p.Mark, p.Place, p.Points, p.Notes,
	).Scan(
		&r.ID,
		&r.MeetEventID,
		&r.AthleteID,
		&r.Mark,
		&r.Place,
		&r.Points,
		&r.Notes,
		&r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateResult
		}
		return nil, fmt.Errorf("insert result: %w", err)
	}
	return &r, nil
}

// Delete frees the (event, athlete) pair for a subsequent Create.
func (s *ResultStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

const resultDetailQuery = `
	SELECT r.id, r.meet_event_id, r.athlete_id, r.mark, r.place, r.points, r.notes, r.created_at,
	       e.name, p.full_name
	FROM results r
	JOIN meet_events e ON e.id = r.meet_event_id
	JOIN profiles p ON p.user_id = r.athlete_id`

func (s *ResultStore) ListByMeet(ctx context.Context, meetID uuid.UUID) ([]models.ResultDetail, error) {
	query := resultDetailQuery + `
	WHERE e.meet_id = $1
	ORDER BY e.name, r.place NULLS LAST`

	rows, err := s.pool.Query(ctx, query, meetID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return scanResultDetails(rows)
}

// ListByMeetForAthlete is the athlete-scoped read: own rows only.
func (s *ResultStore) ListByMeetForAthlete(ctx context.Context, meetID, athleteID uuid.UUID) ([]models.ResultDetail, error) {
	query := resultDetailQuery + `
	WHERE e.meet_id = $1 AND r.athlete_id = $2
	ORDER BY e.name`

	rows, err := s.pool.Query(ctx, query, meetID, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list athlete meet results: %w", err)
	}
	defer rows.Close()

	return scanResultDetails(rows)
}

func (s *ResultStore) ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]models.ResultDetail, error) {
	query := resultDetailQuery + `
	WHERE r.athlete_id = $1
	ORDER BY r.created_at DESC`

	rows, err := s.pool.Query(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list athlete results: %w", err)
	}
	defer rows.Close()

	return scanResultDetails(rows)
}

func scanResultDetails(rows pgx.Rows) ([]models.ResultDetail, error) {
	details := make([]models.ResultDetail, 0)
	for rows.Next() {
		var d models.ResultDetail
		if err := rows.Scan(
			&d.ID,
			&d.MeetEventID,
			&d.AthleteID,
			&d.Mark,
			&d.Place,
			&d.Points,
			&d.Notes,
			&d.CreatedAt,
			&d.EventName,
			&d.AthleteName,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return details, nil
}
