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

type AnnouncementStore struct {
	pool *pgxpool.Pool
}

func NewAnnouncementStore(pool *pgxpool.Pool) *AnnouncementStore {
	return &AnnouncementStore{pool: pool}
}

func (s *AnnouncementStore) Create(ctx context.Context, title string, body *string, pinned bool, createdBy uuid.UUID) (*models.Announcement, error) {
	query := `
		INSERT INTO announcements (id, title, body, pinned, created_by, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, now())
		RETURNING id, title, body, pinned, created_by, created_at`

	var a models.Announcement
	err := s.pool.QueryRow(ctx, query, title, body, pinned, createdBy).Scan(
		&a.ID,
		&a.Title,
		&a.Body,
		&a.Pinned,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert announcement: %w", err)
	}
	return &a, nil
}

func (s *AnnouncementStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	query := `
		SELECT id, title, body, pinned, created_by, created_at
		FROM announcements
		WHERE id = $1`

	var a models.Announcement
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Title,
		&a.Body,
		&a.Pinned,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &a, nil
}

// List puts pinned announcements first, then newest first.
func (s *AnnouncementStore) List(ctx context.Context) ([]models.Announcement, error) {
	query := `
		SELECT id, title, body, pinned, created_by, created_at
		FROM announcements
		ORDER BY pinned DESC, created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	announcements := make([]models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Body,
			&a.Pinned,
			&a.CreatedBy,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}

	return announcements, nil
}

func (s *AnnouncementStore) Update(ctx context.Context, id uuid.UUID, title string, body *string, pinned bool) (*models.Announcement, error) {
	query := `
		UPDATE announcements SET title = $2, body = $3, pinned = $4
		WHERE id = $1
		RETURNING id, title, body, pinned, created_by, created_at`

	var a models.Announcement
	err := s.pool.QueryRow(ctx, query, id, title, body, pinned).Scan(
		&a.ID,
		&a.Title,
		&a.Body,
		&a.Pinned,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return &a, nil
}

func (s *AnnouncementStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
