package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/models"
)

// Conflict sentinels. Stores translate Postgres unique-violation errors
// (23505) into these so callers can branch on the conflict policy without
// knowing driver error codes.
var (
	// ErrDuplicateResult: a result already exists for this (event, athlete)
	// pair. Results are reject-on-conflict — the existing row must be
	// deleted before a new mark can be entered.
	ErrDuplicateResult = errors.New("duplicate result")

	// ErrDuplicateEmail: the email is already registered to an account.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserRepository reads login accounts. Mutations go through
// AccountRepository so that users and profiles always change together.
type UserRepository interface {
	// GetByEmail looks up a user for login. Returns nil, nil if not found.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ProfileRepository reads profile rows. Also the policy.ProfileGetter.
type ProfileRepository interface {
	// GetProfile returns nil, nil if the user has no profile.
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type CreateAccountParams struct {
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	Gender       *string
	Phone        *string
}

// AccountRepository owns the users+profiles pair. Create and Update run in
// one transaction: a profile failure rolls the user row back, and an email
// change lands on both tables or neither.
type AccountRepository interface {
	CreateAccount(ctx context.Context, p CreateAccountParams) (*models.Account, error)

	// UpdateAccount replaces the mutable fields. Callers pass the complete
	// resulting state (the service computes it from the current row plus the
	// requested changes).
	UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName, role string, gender, phone *string) (*models.Account, error)

	// Suspend bars the account from authenticating until the given time.
	// The users/profiles rows, and all history referencing them, survive.
	Suspend(ctx context.Context, id uuid.UUID, until time.Time) error

	// ListActive returns accounts not currently suspended, with profiles.
	ListActive(ctx context.Context) ([]models.Account, error)

	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type MeetRepository interface {
	Create(ctx context.Context, name, location string, meetDate time.Time, notes *string, createdBy uuid.UUID) (*models.Meet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meet, error)
	List(ctx context.Context) ([]models.Meet, error)
	Update(ctx context.Context, id uuid.UUID, name, location string, meetDate time.Time, notes *string) (*models.Meet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MeetEventRepository resolves and reads event occurrences.
type MeetEventRepository interface {
	// Resolve returns the event row for (meetID, name), creating it on first
	// use. Resolving the same pair always returns the same row; the store
	// relies on the (meet_id, name) unique constraint so concurrent resolves
	// cannot create duplicates.
	Resolve(ctx context.Context, meetID uuid.UUID, name string) (*models.MeetEvent, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.MeetEvent, error)
	ListByMeet(ctx context.Context, meetID uuid.UUID) ([]models.MeetEvent, error)
}

// AssignmentRepository enforces at most one assignment per (event, athlete)
// pair with merge-on-conflict semantics.
type AssignmentRepository interface {
	// GetByEventAthlete returns nil, nil when the pair has no assignment.
	GetByEventAthlete(ctx context.Context, meetEventID, athleteID uuid.UUID) (*models.Assignment, error)

	// Upsert inserts, or overwrites status in place when the pair exists.
	Upsert(ctx context.Context, meetEventID, athleteID uuid.UUID, status string) (*models.Assignment, error)

	// Delete is idempotent: deleting an absent ID is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	ListByMeet(ctx context.Context, meetID uuid.UUID) ([]models.AssignmentDetail, error)
	ListByMeetForAthlete(ctx context.Context, meetID, athleteID uuid.UUID) ([]models.AssignmentDetail, error)
}

type CreateResultParams struct {
	MeetEventID uuid.UUID
	AthleteID   uuid.UUID
	Mark        string
	Place       *int32
	Points      *float64
	Notes       *string
}

// ResultRepository enforces at most one result per (event, athlete) pair
// with reject-on-conflict semantics: Create returns ErrDuplicateResult
// instead of overwriting.
type ResultRepository interface {
	Create(ctx context.Context, p CreateResultParams) (*models.Result, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByMeet(ctx context.Context, meetID uuid.UUID) ([]models.ResultDetail, error)
	ListByMeetForAthlete(ctx context.Context, meetID, athleteID uuid.UUID) ([]models.ResultDetail, error)
	ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]models.ResultDetail, error)
}

type AnnouncementRepository interface {
	Create(ctx context.Context, title string, body *string, pinned bool, createdBy uuid.UUID) (*models.Announcement, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Announcement, error)

	// List returns pinned announcements first, then newest first.
	List(ctx context.Context) ([]models.Announcement, error)

	Update(ctx context.Context, id uuid.UUID, title string, body *string, pinned bool) (*models.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ThreadRepository handles conversations and participation. Participation
// is the authorization boundary for everything message-related: no
// participant row, no access.
type ThreadRepository interface {
	// CreateWithParticipants creates the thread and its participant rows in
	// one transaction. The creator is always included.
	CreateWithParticipants(ctx context.Context, kind string, subject *string, createdBy uuid.UUID, participantIDs []uuid.UUID) (*models.Thread, error)

	// IsParticipant is the hot-path gate checked before every thread read
	// and message send.
	IsParticipant(ctx context.Context, threadID, userID uuid.UUID) (bool, error)

	ListParticipants(ctx context.Context, threadID uuid.UUID) ([]models.ThreadParticipant, error)

	// ListSummaries returns the requester's threads with last-message info
	// and an unread flag, most recently active first.
	ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ThreadSummary, error)

	MarkRead(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error
}

// MessageRepository persists messages. There is deliberately no update or
// delete method: messages are immutable once created.
type MessageRepository interface {
	Create(ctx context.Context, threadID, senderID uuid.UUID, body string) (*models.Message, error)

	// ListByThread pages newest-first; before=0 means from the top.
	ListByThread(ctx context.Context, threadID uuid.UUID, before int64, limit int) ([]models.Message, error)
}
