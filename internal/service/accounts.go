package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// suspendForever is the "ban with an effectively-permanent duration" used
// for account deletion. Rows are never removed — assignments and results
// reference athletes by ID and that history must stay resolvable.
var suspendForever = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// AccountService implements the account lifecycle: create, update,
// soft-delete by suspension, and the active-account listing. All four are
// coaching-staff operations; self-service profile edits go through
// UpdateSelf.
type AccountService struct {
	accounts repository.AccountRepository
	authz    *policy.Authorizer
}

func NewAccountService(accounts repository.AccountRepository, authz *policy.Authorizer) *AccountService {
	return &AccountService{accounts: accounts, authz: authz}
}

type CreateAccountInput struct {
	FullName string
	Email    string
	Password string
	Role     string
	Gender   string
	Phone    string
}

func (s *AccountService) Create(ctx context.Context, requesterID uuid.UUID, in CreateAccountInput) (*models.Account, error) {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return nil, forbidden(err)
	}

	if in.FullName == "" {
		return nil, ErrValidation("full_name", "is required")
	}
	if !ValidEmail(in.Email) {
		return nil, ErrValidation("email", "is not a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrValidation("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	role := policy.Role(in.Role)
	if !role.Valid() {
		return nil, ErrValidation("role", "must be athlete, coach, or assistant_coach")
	}

	// Gender is required for athletes and forced to NULL for everyone else,
	// whatever the caller sent.
	gender, err := normalizeGender(role, in.Gender)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc, err := s.accounts.CreateAccount(ctx, repository.CreateAccountParams{
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         string(role),
		Gender:       gender,
		Phone:        optional(in.Phone),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrConflict("an account with this email already exists")
		}
		return nil, err
	}
	return acc, nil
}

// UpdateAccountInput carries a partial update; nil fields keep their
// current value.
type UpdateAccountInput struct {
	FullName *string
	Email    *string
	Phone    *string
	Role     *string
	Gender   *string
}

// Update applies a staff edit to any account. The final state is computed
// here from the current row plus the requested changes and written across
// users and profiles in one transaction, so an email change lands on the
// authentication record and the profile together or not at all.
func (s *AccountService) Update(ctx context.Context, requesterID, accountID uuid.UUID, in UpdateAccountInput) (*models.Account, error) {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return nil, forbidden(err)
	}
	return s.applyUpdate(ctx, accountID, in)
}

// UpdateSelf lets a principal edit their own contact fields. Role is
// explicitly not editable here — a self-service role change would be
// privilege escalation.
func (s *AccountService) UpdateSelf(ctx context.Context, requesterID uuid.UUID, fullName, email, phone *string) (*models.Account, error) {
	return s.applyUpdate(ctx, requesterID, UpdateAccountInput{
		FullName: fullName,
		Email:    email,
		Phone:    phone,
	})
}

func (s *AccountService) applyUpdate(ctx context.Context, accountID uuid.UUID, in UpdateAccountInput) (*models.Account, error) {
	current, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound("account not found")
	}

	email := current.Email
	if in.Email != nil {
		if !ValidEmail(*in.Email) {
			return nil, ErrValidation("email", "is not a valid email address")
		}
		email = *in.Email
	}

	fullName := current.FullName
	if in.FullName != nil {
		if *in.FullName == "" {
			return nil, ErrValidation("full_name", "is required")
		}
		fullName = *in.FullName
	}

	role := policy.Role(current.Role)
	if in.Role != nil {
		role = policy.Role(*in.Role)
		if !role.Valid() {
			return nil, ErrValidation("role", "must be athlete, coach, or assistant_coach")
		}
	}

	gender := current.Gender
	if in.Gender != nil {
		gender = optional(*in.Gender)
	}
	if gender != nil && !validGender(*gender) {
		return nil, ErrValidation("gender", "must be male or female")
	}
	// A role change to non-athlete wins over any gender supplied in the
	// same request: gender is meaningless off the athlete roster.
	if role != policy.RoleAthlete {
		gender = nil
	}

	phone := current.Phone
	if in.Phone != nil {
		phone = optional(*in.Phone)
	}

	acc, err := s.accounts.UpdateAccount(ctx, accountID, email, fullName, string(role), gender, phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrConflict("an account with this email already exists")
		}
		return nil, err
	}
	if acc == nil {
		return nil, ErrNotFound("account not found")
	}
	return acc, nil
}

// Deactivate is the delete operation. It suspends the account indefinitely:
// authentication fails from now on and the account drops out of List, but
// the profile and every historical assignment/result row survive.
func (s *AccountService) Deactivate(ctx context.Context, requesterID, accountID uuid.UUID) error {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return forbidden(err)
	}
	if requesterID == accountID {
		return ErrBadRequest("you cannot deactivate your own account")
	}

	current, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound("account not found")
	}

	return s.accounts.Suspend(ctx, accountID, suspendForever)
}

// List returns active accounts; suspended ones are excluded by the store.
func (s *AccountService) List(ctx context.Context, requesterID uuid.UUID) ([]models.Account, error) {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return nil, forbidden(err)
	}
	return s.accounts.ListActive(ctx)
}

func normalizeGender(role policy.Role, gender string) (*string, error) {
	if role != policy.RoleAthlete {
		return nil, nil
	}
	if gender == "" {
		return nil, ErrValidation("gender", "is required for athletes")
	}
	if !validGender(gender) {
		return nil, ErrValidation("gender", "must be male or female")
	}
	return &gender, nil
}

func validGender(g string) bool {
	return g == "male" || g == "female"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// forbidden translates the policy sentinel; other errors (role resolution
// failures) pass through for the handler to log.
func forbidden(err error) error {
	if errors.Is(err, policy.ErrForbidden) {
		return ErrForbidden("this action requires a coaching role")
	}
	return err
}
