package dashboard

import (
	"context"

	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/team"
)

type Teams interface {
	RequireCoach(ctx context.Context, uid, teamID string) (*team.Membership, error)
	ListAthletes(ctx context.Context, teamID string) ([]team.Membership, error)
}

type CheckIns interface {
	Day(ctx context.Context, teamID, dateKey string) ([]checkin.CheckIn, error)
}

type Service struct {
	teams    Teams
	checkIns CheckIns
}

func NewService(teams Teams, checkIns CheckIns) *Service {
	return &Service{teams: teams, checkIns: checkIns}
}

// Today builds the coach dashboard for dateKey.
func (s *Service) Today(ctx context.Context, coachUID, teamID, dateKey string) (*Dashboard, error) {
	d, _, err := s.Snapshot(ctx, coachUID, teamID, dateKey)
	return d, err
}

// Snapshot is Today plus the check-ins the dashboard was computed from.
func (s *Service) Snapshot(ctx context.Context, coachUID, teamID, dateKey string) (*Dashboard, []checkin.CheckIn, error) {
	if _, err := s.teams.RequireCoach(ctx, coachUID, teamID); err != nil {
		return nil, nil, err
	}
	roster, err := s.teams.ListAthletes(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	todays, err := s.checkIns.Day(ctx, teamID, dateKey)
	if err != nil {
		return nil, nil, err
	}
	d := Aggregate(roster, todays)
	d.DateKey = dateKey
	return &d, todays, nil
}
