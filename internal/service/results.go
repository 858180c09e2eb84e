package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
)

// DuplicateResultMessage is the user-actionable text for the reject-on-
// conflict path: unlike assignments, a second result for the same pair is
// never merged.
const DuplicateResultMessage = "a result already exists for this athlete and event; delete the existing result before entering a new mark"

// ResultService maintains the at-most-one-result-per-(event, athlete)
// invariant with reject-on-conflict semantics.
type ResultService struct {
	events   repository.MeetEventRepository
	results  repository.ResultRepository
	profiles repository.ProfileRepository
	authz    *policy.Authorizer
}

func NewResultService(
	events repository.MeetEventRepository,
	results repository.ResultRepository,
	profiles repository.ProfileRepository,
	authz *policy.Authorizer,
) *ResultService {
	return &ResultService{
		events:   events,
		results:  results,
		profiles: profiles,
		authz:    authz,
	}
}

type CreateResultInput struct {
	MeetEventID uuid.UUID
	AthleteID   uuid.UUID
	Mark        string
	// Place and Points arrive as form text: empty means not provided, and
	// non-numeric text is rejected before any storage call.
	Place  string
	Points string
	Notes  string
}

func (s *ResultService) Create(ctx context.Context, requesterID uuid.UUID, in CreateResultInput) (*models.Result, error) {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return nil, forbidden(err)
	}

	if in.Mark == "" {
		return nil, ErrValidation("mark", "is required")
	}
	place, err := ParseOptionalInt("place", in.Place)
	if err != nil {
		return nil, err
	}
	points, err := ParseOptionalDecimal("points", in.Points)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, in.MeetEventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound("meet event not found")
	}

	athlete, err := s.profiles.GetProfile(ctx, in.AthleteID)
	if err != nil {
		return nil, err
	}
	if athlete == nil || policy.Role(athlete.Role) != policy.RoleAthlete {
		return nil, ErrValidation("athlete_id", "must reference an athlete")
	}

	result, err := s.results.Create(ctx, repository.CreateResultParams{
		MeetEventID: in.MeetEventID,
		AthleteID:   in.AthleteID,
		Mark:        in.Mark,
		Place:       place,
		Points:      points,
		Notes:       optional(in.Notes),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			return nil, ErrConflict(DuplicateResultMessage)
		}
		return nil, err
	}
	return result, nil
}

// Delete frees the (event, athlete) pair for a corrected entry.
func (s *ResultService) Delete(ctx context.Context, requesterID, resultID uuid.UUID) error {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return forbidden(err)
	}
	return s.results.Delete(ctx, resultID)
}

func (s *ResultService) ListForMeet(ctx context.Context, requesterID, meetID uuid.UUID) ([]models.ResultDetail, error) {
	role, err := s.authz.Role(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if role.CoachingStaff() {
		return s.results.ListByMeet(ctx, meetID)
	}
	return s.results.ListByMeetForAthlete(ctx, meetID, requesterID)
}

// ListForAthlete: self, or coaching staff. Anyone else gets an empty list,
// not an error — read denials never reveal whether rows exist.
func (s *ResultService) ListForAthlete(ctx context.Context, requesterID, athleteID uuid.UUID) ([]models.ResultDetail, error) {
	role, err := s.authz.Role(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadProfile(requesterID, role, athleteID) {
		return []models.ResultDetail{}, nil
	}
	return s.results.ListByAthlete(ctx, athleteID)
}
