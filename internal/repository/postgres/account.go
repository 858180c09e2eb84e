package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/repository"
)

// pgUniqueViolation is the Postgres error code for a unique-constraint
// violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// CreateAccount inserts the users row and the profiles row in one
// transaction. If the profile insert fails, the commit never happens and the
// user row is rolled back — no orphaned principals.
func (s *AccountStore) CreateAccount(ctx context.Context, p repository.CreateAccountParams) (*models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var acc models.Account
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (uuid_generate_v4(), $1, $2, now())
		RETURNING id, email, created_at`,
		p.Email, p.PasswordHash,
	).Scan(&acc.ID, &acc.Email, &acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (user_id, full_name, role, gender, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING full_name, role, gender, phone`,
		acc.ID, p.FullName, p.Role, p.Gender, p.Phone,
	).Scan(&acc.FullName, &acc.Role, &acc.Gender, &acc.Phone)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &acc, nil
}

// UpdateAccount applies the complete new field set across both tables in one
// transaction, so the auth email and the profile can never go out of sync.
func (s *AccountStore) UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName, role string, gender, phone *string) (*models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var acc models.Account
	err = tx.QueryRow(ctx, `
		UPDATE users SET email = $2
		WHERE id = $1
		RETURNING id, email, created_at`,
		id, email,
	).Scan(&acc.ID, &acc.Email, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user email: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE profiles SET full_name = $2, role = $3, gender = $4, phone = $5, updated_at = now()
		WHERE user_id = $1
		RETURNING full_name, role, gender, phone`,
		id, fullName, role, gender, phone,
	).Scan(&acc.FullName, &acc.Role, &acc.Gender, &acc.Phone)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &acc, nil
}

// Suspend sets the soft-delete marker. The row itself is never removed;
// assignments and results keep resolving the athlete forever.
func (s *AccountStore) Suspend(ctx context.Context, id uuid.UUID, until time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET suspended_until = $2 WHERE id = $1`,
		id, until,
	)
	if err != nil {
		return fmt.Errorf("suspend user: %w", err)
	}
	return nil
}

// ListActive excludes anyone currently under suspension.
func (s *AccountStore) ListActive(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT u.id, u.email, p.full_name, p.role, p.gender, p.phone, u.created_at
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.suspended_until IS NULL OR u.suspended_until <= now()
		ORDER BY p.full_name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(
			&a.ID,
			&a.Email,
			&a.FullName,
			&a.Role,
			&a.Gender,
			&a.Phone,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (s *AccountStore) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `
		SELECT u.id, u.email, p.full_name, p.role, p.gender, p.phone, u.created_at
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`

	var a models.Account
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Email,
		&a.FullName,
		&a.Role,
		&a.Gender,
		&a.Phone,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}
