package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
)

// AssignmentChange is the semantic effect of an upsert, reported back to
// the caller so the UI can say "no change" or "assigned → alternate".
type AssignmentChange string

const (
	ChangeCreated   AssignmentChange = "created"
	ChangeUnchanged AssignmentChange = "unchanged"
	ChangeUpdated   AssignmentChange = "updated"
)

type AssignmentOutcome struct {
	Assignment models.Assignment `json:"assignment"`
	Change     AssignmentChange  `json:"change"`
	OldStatus  *string           `json:"old_status,omitempty"`
	NewStatus  string            `json:"new_status"`
}

// AssignmentService maintains the at-most-one-assignment-per-(event,
// athlete) invariant. Assignments are a plan, so the conflict policy is
// merge: writing the pair again overwrites the status in place.
type AssignmentService struct {
	meets       repository.MeetRepository
	events      repository.MeetEventRepository
	assignments repository.AssignmentRepository
	profiles    repository.ProfileRepository
	authz       *policy.Authorizer
}

func NewAssignmentService(
	meets repository.MeetRepository,
	events repository.MeetEventRepository,
	assignments repository.AssignmentRepository,
	profiles repository.ProfileRepository,
	authz *policy.Authorizer,
) *AssignmentService {
	return &AssignmentService{
		meets:       meets,
		events:      events,
		assignments: assignments,
		profiles:    profiles,
		authz:       authz,
	}
}

// Upsert assigns an athlete to an event at a meet, creating the event
// occurrence on first use. Because the write is an upsert keyed on the
// (event, athlete) unique constraint, a constraint violation can never
// surface from this operation.
func (s *AssignmentService) Upsert(ctx context.Context, requesterID, meetID uuid.UUID, eventName, athleteID, status string) (*AssignmentOutcome, error) {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return nil, forbidden(err)
	}

	if eventName == "" {
		return nil, ErrValidation("event_name", "is required")
	}
	if status != models.AssignmentStatusAssigned && status != models.AssignmentStatusAlternate {
		return nil, ErrValidation("status", "must be assigned or alternate")
	}
	athleteUUID, err := uuid.Parse(athleteID)
	if err != nil {
		return nil, ErrValidation("athlete_id", "is not a valid id")
	}

	meet, err := s.meets.GetByID(ctx, meetID)
	if err != nil {
		return nil, err
	}
	if meet == nil {
		return nil, ErrNotFound("meet not found")
	}

	athlete, err := s.profiles.GetProfile(ctx, athleteUUID)
	if err != nil {
		return nil, err
	}
	if athlete == nil || policy.Role(athlete.Role) != policy.RoleAthlete {
		return nil, ErrValidation("athlete_id", "must reference an athlete")
	}

	event, err := s.events.Resolve(ctx, meetID, eventName)
	if err != nil {
		return nil, fmt.Errorf("could not create or find event occurrence: %w", err)
	}

	existing, err := s.assignments.GetByEventAthlete(ctx, event.ID, athleteUUID)
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.Status == status {
		// No-op: tell the caller explicitly rather than pretending a write
		// happened.
		return &AssignmentOutcome{
			Assignment: *existing,
			Change:     ChangeUnchanged,
			NewStatus:  status,
		}, nil
	}

	updated, err := s.assignments.Upsert(ctx, event.ID, athleteUUID, status)
	if err != nil {
		return nil, err
	}

	outcome := &AssignmentOutcome{
		Assignment: *updated,
		NewStatus:  status,
	}
	if existing == nil {
		outcome.Change = ChangeCreated
	} else {
		outcome.Change = ChangeUpdated
		old := existing.Status
		outcome.OldStatus = &old
	}
	return outcome, nil
}

// Delete is idempotent: deleting an assignment that is already gone
// succeeds from the caller's perspective.
func (s *AssignmentService) Delete(ctx context.Context, requesterID, assignmentID uuid.UUID) error {
	if _, err := s.authz.RequireCoachingStaff(ctx, requesterID); err != nil {
		return forbidden(err)
	}
	return s.assignments.Delete(ctx, assignmentID)
}

// ListForMeet scopes reads by role: coaching staff see the whole lineup,
// athletes see only their own rows.
func (s *AssignmentService) ListForMeet(ctx context.Context, requesterID, meetID uuid.UUID) ([]models.AssignmentDetail, error) {
	role, err := s.authz.Role(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if role.CoachingStaff() {
		return s.assignments.ListByMeet(ctx, meetID)
	}
	return s.assignments.ListByMeetForAthlete(ctx, meetID, requesterID)
}
