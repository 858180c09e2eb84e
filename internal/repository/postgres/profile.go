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

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// GetProfile is the lookup behind every role resolution, so it stays a
// single-row primary-key read.
func (s *ProfileStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT user_id, full_name, role, gender, phone, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	var p models.Profile
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.FullName,
		&p.Role,
		&p.Gender,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}
