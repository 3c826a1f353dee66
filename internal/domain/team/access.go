package team

import (
	"context"
	"fmt"

	"team-checkin/backend/internal/docstore"
)

// AccessState is where a user stands with respect to one team.
type AccessState int

const (
	Unauthenticated AccessState = iota
	NoMembership
	Member
)

func (a AccessState) String() string {
	switch a {
	case NoMembership:
		return "no-membership"
	case Member:
		return "member"
	}
	return "unauthenticated"
}

// Access resolves the user's membership on every call; nothing is cached.
func (s *Service) Access(ctx context.Context, uid, teamID string) (AccessState, *Membership, error) {
	if uid == "" {
		return Unauthenticated, nil, nil
	}
	m, err := s.repo.GetMembership(ctx, teamID, uid)
	if docstore.IsErrNotFound(err) {
		return NoMembership, nil, nil
	}
	if err != nil {
		return Unauthenticated, nil, fmt.Errorf("%w: load membership: %w", ErrPersistence, err)
	}
	return Member, m, nil
}

func (s *Service) RequireMember(ctx context.Context, uid, teamID string) (*Membership, error) {
	state, m, err := s.Access(ctx, uid, teamID)
	if err != nil {
		return nil, err
	}
	switch state {
	case Unauthenticated:
		return nil, ErrNotAuthenticated
	case NoMembership:
		return nil, ErrNotAMember
	}
	return m, nil
}

func (s *Service) RequireCoach(ctx context.Context, uid, teamID string) (*Membership, error) {
	m, err := s.RequireMember(ctx, uid, teamID)
	if err != nil {
		return nil, err
	}
	if !m.IsCoach() {
		return nil, ErrForbidden
	}
	return m, nil
}
