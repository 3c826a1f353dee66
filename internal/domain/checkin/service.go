package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/domain/team"
	"team-checkin/backend/internal/log"
	"team-checkin/backend/internal/utils"
)

// Gate resolves team membership for the signed-in user.
type Gate interface {
	RequireMember(ctx context.Context, uid, teamID string) (*team.Membership, error)
	RequireCoach(ctx context.Context, uid, teamID string) (*team.Membership, error)
}

type Service struct {
	repo *Repo
	gate Gate
}

func NewService(repo *Repo, gate Gate) *Service {
	return &Service{repo: repo, gate: gate}
}

// Submit records the signed-in member's check-in for dateKey.
func (s *Service) Submit(ctx context.Context, uid, teamID, dateKey string, in SubmitInput) (*Ack, error) {
	if _, err := s.gate.RequireMember(ctx, uid, teamID); err != nil {
		return nil, err
	}
	ack, err := s.repo.Submit(context.WithoutCancel(ctx), teamID, uid, dateKey, in)
	if err != nil {
		return nil, err
	}
	log.GetLogger(ctx).WithFields(logrus.Fields{"teamId": teamID, "uid": uid, "dateKey": dateKey}).Debug("check-in saved")
	return ack, nil
}

// Mine returns the signed-in member's own check-in for dateKey.
func (s *Service) Mine(ctx context.Context, uid, teamID, dateKey string) (*CheckIn, error) {
	if _, err := s.gate.RequireMember(ctx, uid, teamID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, teamID, uid, dateKey)
}

// Day lists every check-in of the team for dateKey. Callers gate access.
func (s *Service) Day(ctx context.Context, teamID, dateKey string) ([]CheckIn, error) {
	return s.repo.List(ctx, teamID, Filter{DateKey: dateKey})
}

// History is the coach view of one athlete's most recent check-ins.
func (s *Service) History(ctx context.Context, coachUID, teamID, athleteUID string) ([]CheckIn, error) {
	if _, err := s.gate.RequireCoach(ctx, coachUID, teamID); err != nil {
		return nil, err
	}
	if athleteUID == "" {
		return nil, fmt.Errorf("%w: athlete is required", ErrInvalidInput)
	}
	return s.repo.List(ctx, teamID, Filter{UID: athleteUID, Limit: HistoryLimit})
}

// LocalDateKey is the calendar date of now in the IANA zone tz.
func LocalDateKey(now time.Time, tz string) (string, error) {
	key, err := utils.LocalDateKey(now, tz)
	if err != nil {
		return "", fmt.Errorf("%w: unknown time zone %q", ErrInvalidInput, tz)
	}
	return key, nil
}
