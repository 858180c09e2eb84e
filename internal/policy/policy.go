// Package policy holds the row-authorization rules for the portal.
//
// Every predicate takes the requester's role as an argument, and the role is
// always re-resolved from the requester's own profiles row at decision time
// (see Authorizer). The role can never come from client input or from token
// claims: the role column is itself part of the protected data, so a trusted
// claim would let a compromised client grant itself coach access.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/models"
)

// Role is the closed set of portal roles.
type Role string

const (
	RoleAthlete        Role = "athlete"
	RoleCoach          Role = "coach"
	RoleAssistantCoach Role = "assistant_coach"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAthlete, RoleCoach, RoleAssistantCoach:
		return true
	}
	return false
}

// CoachingStaff reports whether the role carries staff-level access.
func (r Role) CoachingStaff() bool {
	return r == RoleCoach || r == RoleAssistantCoach
}

// ErrForbidden is returned by Authorizer checks when the requester lacks the
// required role. Read paths should not surface it directly — denied reads
// return empty result sets so row existence is never leaked.
var ErrForbidden = errors.New("forbidden")

// CanReadProfile: self, or coaching staff.
func CanReadProfile(requesterID uuid.UUID, requesterRole Role, ownerID uuid.UUID) bool {
	return requesterID == ownerID || requesterRole.CoachingStaff()
}

// CanWriteProfile is the same predicate as CanReadProfile: a principal may
// edit their own profile, and coaching staff may edit anyone's.
func CanWriteProfile(requesterID uuid.UUID, requesterRole Role, ownerID uuid.UUID) bool {
	return CanReadProfile(requesterID, requesterRole, ownerID)
}

// CanManageRoster covers account creation/update/suspension and all
// assignment, result, meet, and announcement writes.
func CanManageRoster(requesterRole Role) bool {
	return requesterRole.CoachingStaff()
}

// CanCreateThread: thread creation is a staff action; athletes participate
// in threads they are added to but never open them.
func CanCreateThread(requesterRole Role) bool {
	return requesterRole.CoachingStaff()
}

// ProfileGetter is the slice of the profile repository the Authorizer needs.
type ProfileGetter interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Authorizer resolves the requester's role from the authoritative store and
// applies the predicates above. One instance is shared by every handler and
// by the assistant's tool dispatch, so there is exactly one enforcement
// point.
type Authorizer struct {
	profiles ProfileGetter
}

func NewAuthorizer(profiles ProfileGetter) *Authorizer {
	return &Authorizer{profiles: profiles}
}

// Role resolves the requester's role via a self-referential profile lookup.
// A missing profile resolves to athlete, the least-privileged role.
func (a *Authorizer) Role(ctx context.Context, userID uuid.UUID) (Role, error) {
	p, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	if p == nil || p.Role == "" {
		return RoleAthlete, nil
	}
	return Role(p.Role), nil
}

// RequireCoachingStaff resolves the requester's role and returns
// ErrForbidden unless it is coach or assistant_coach.
func (a *Authorizer) RequireCoachingStaff(ctx context.Context, userID uuid.UUID) (Role, error) {
	role, err := a.Role(ctx, userID)
	if err != nil {
		return "", err
	}
	if !role.CoachingStaff() {
		return role, ErrForbidden
	}
	return role, nil
}
