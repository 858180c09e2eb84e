package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trackteamhq/portal/internal/models"
)

type MeetStore struct {
	pool *pgxpool.Pool
}

func NewMeetStore(pool *pgxpool.Pool) *MeetStore {
	return &MeetStore{pool: pool}
}

func (s *MeetStore) Create(ctx context.Context, name, location string, meetDate time.Time, notes *string, createdBy uuid.UUID) (*models.Meet, error) {
	query := `
		INSERT INTO meets (id, name, location, meet_date, notes, created_by, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, now())
		RETURNING id, name, location, meet_date, notes, created_by, created_at`

	var m models.Meet
	err := s.pool.QueryRow(ctx, query, name, location, meetDate, notes, createdBy).Scan(
		&m.ID,
		&m.Name,
		&m.Location,
		&m.MeetDate,
		&m.Notes,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert meet: %w", err)
	}
	return &m, nil
}

func (s *MeetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Meet, error) {
	query := `
		SELECT id, name, location, meet_date, notes, created_by, created_at
		FROM meets
		WHERE id = $1`

	var m models.Meet
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.Location,
		&m.MeetDate,
		&m.Notes,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meet: %w", err)
	}
	return &m, nil
}

func (s *MeetStore) List(ctx context.Context) ([]models.Meet, error) {
	query := `
		SELECT id, name, location, meet_date, notes, created_by, created_at
		FROM meets
		ORDER BY meet_date DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list meets: %w", err)
	}
	defer rows.Close()

	meets := make([]models.Meet, 0)
	for rows.Next() {
		var m models.Meet
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Location,
			&m.MeetDate,
			&m.Notes,
			&m.CreatedBy,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan meet: %w", err)
		}
		meets = append(meets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meets: %w", err)
	}

	return meets, nil
}

func (s *MeetStore) Update(ctx context.Context, id uuid.UUID, name, location string, meetDate time.Time, notes *string) (*models.Meet, error) {
	query := `
		UPDATE meets SET name = $2, location = $3, meet_date = $4, notes = $5
		WHERE id = $1
		RETURNING id, name, location, meet_date, notes, created_by, created_at`

	var m models.Meet
	err := s.pool.QueryRow(ctx, query, id, name, location, meetDate, notes).Scan(
		&m.ID,
		&m.Name,
		&m.Location,
		&m.MeetDate,
		&m.Notes,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update meet: %w", err)
	}
	return &m, nil
}

func (s *MeetStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM meets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meet: %w", err)
	}
	return nil
}
