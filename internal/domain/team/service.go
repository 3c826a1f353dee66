package team

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/joincode"
	"team-checkin/backend/internal/log"
	"team-checkin/backend/internal/utils"
)

// commitAttempts bounds how often a bootstrap is retried after its join
// code was claimed between allocation and commit.
const commitAttempts = 3

type Service struct {
	repo      *Repo
	allocator *joincode.Allocator
	newID     func() string
}

func NewService(repo *Repo, allocator *joincode.Allocator) *Service {
	return &Service{repo: repo, allocator: allocator, newID: uuid.NewString}
}

// CreateTeam provisions a team with a fresh join code and makes the
// creator its coach.
func (s *Service) CreateTeam(ctx context.Context, creator Creator, name string) (*CreateTeamResult, error) {
	if creator.UID == "" {
		return nil, ErrNotAuthenticated
	}
	name = utils.NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	teamID := s.newID()
	logger := log.GetLogger(ctx).WithFields(logrus.Fields{"teamId": teamID, "uid": creator.UID})

	for attempt := 0; attempt < commitAttempts; attempt++ {
		code, err := s.allocator.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		t := Team{ID: teamID, Name: name, JoinCode: code, CreatedBy: creator.UID}
		coach := Membership{
			UID:   creator.UID,
			Role:  RoleCoach,
			Name:  creator.DisplayName,
			Email: creator.Email,
		}
		err = s.repo.Bootstrap(context.WithoutCancel(ctx), t, coach)
		if err == nil {
			logger.WithField("joinCode", code).Info("team created")
			return &CreateTeamResult{TeamID: teamID, JoinCode: code}, nil
		}
		if !docstore.IsErrAlreadyExists(err) {
			return nil, fmt.Errorf("%w: commit team bootstrap: %w", ErrPersistence, err)
		}
		logger.WithField("joinCode", code).Warn("join code claimed concurrently, retrying")
	}
	return nil, fmt.Errorf("%w: join code kept colliding on commit", ErrExhaustedAttempts)
}

// JoinTeam redeems a join code and enrolls the user as an athlete.
// Returns the team id.
func (s *Service) JoinTeam(ctx context.Context, joiner Creator, rawCode string) (string, error) {
	if joiner.UID == "" {
		return "", ErrNotAuthenticated
	}
	code := joincode.Normalize(rawCode)
	if code == "" {
		return "", fmt.Errorf("%w: join code is required", ErrInvalidInput)
	}

	doc, err := s.repo.GetJoinCode(ctx, code)
	if docstore.IsErrNotFound(err) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: look up join code: %w", ErrPersistence, err)
	}
	if active, _ := doc.Data["isActive"].(bool); !active {
		return "", ErrCodeInactive
	}
	teamID, _ := doc.Data["teamId"].(string)
	if teamID == "" {
		return "", ErrCorruptCode
	}

	t, err := s.repo.GetTeam(ctx, teamID)
	if docstore.IsErrNotFound(err) {
		return "", fmt.Errorf("%w: team %s does not exist", ErrCorruptCode, teamID)
	}
	if err != nil {
		return "", fmt.Errorf("%w: load team: %w", ErrPersistence, err)
	}
	if !t.IsActive {
		return "", ErrCodeInactive
	}

	existing, err := s.repo.GetMembership(ctx, teamID, joiner.UID)
	switch {
	case err == nil && existing.IsCoach():
		// roles are never changed by a join
		return teamID, nil
	case err != nil && !docstore.IsErrNotFound(err):
		return "", fmt.Errorf("%w: load membership: %w", ErrPersistence, err)
	}

	m := Membership{
		UID:          joiner.UID,
		Role:         RoleAthlete,
		Name:         joiner.DisplayName,
		Email:        joiner.Email,
		JoinCodeUsed: code,
	}
	if err := s.repo.Enroll(context.WithoutCancel(ctx), teamID, m); err != nil {
		return "", fmt.Errorf("%w: write membership: %w", ErrPersistence, err)
	}

	log.GetLogger(ctx).WithFields(logrus.Fields{"teamId": teamID, "uid": joiner.UID}).Info("athlete joined team")
	return teamID, nil
}

// TeamView is a team as seen by one of its members.
type TeamView struct {
	Team       Team       `json:"team"`
	Membership Membership `json:"membership"`
}

// GetTeam returns the team for a member. The join code is only shown to coaches.
func (s *Service) GetTeam(ctx context.Context, uid, teamID string) (*TeamView, error) {
	m, err := s.RequireMember(ctx, uid, teamID)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !m.IsCoach() {
		t.JoinCode = ""
	}
	return &TeamView{Team: *t, Membership: *m}, nil
}

// RotateJoinCode replaces the team's join code; the previous code stops working.
// A concurrent rotation makes the commit fail its precondition; the team is
// then reloaded so the code that actually won is the one deactivated.
func (s *Service) RotateJoinCode(ctx context.Context, uid, teamID string) (string, error) {
	if _, err := s.RequireCoach(ctx, uid, teamID); err != nil {
		return "", err
	}

	for attempt := 0; attempt < commitAttempts; attempt++ {
		t, err := s.loadTeam(ctx, teamID)
		if err != nil {
			return "", err
		}
		if !t.IsActive {
			return "", fmt.Errorf("%w: team is deactivated", ErrInvalidInput)
		}
		code, err := s.allocator.Allocate(ctx)
		if err != nil {
			return "", err
		}
		err = s.repo.Rotate(context.WithoutCancel(ctx), teamID, t.JoinCode, code, uid)
		if err == nil {
			log.GetLogger(ctx).WithFields(logrus.Fields{"teamId": teamID, "joinCode": code}).Info("join code rotated")
			return code, nil
		}
		if !docstore.IsErrAlreadyExists(err) && !docstore.IsErrConflict(err) {
			return "", fmt.Errorf("%w: commit join code rotation: %w", ErrPersistence, err)
		}
		log.GetLogger(ctx).WithError(err).WithField("teamId", teamID).Debug("join code rotation retried")
	}
	return "", fmt.Errorf("%w: join code rotation kept conflicting", ErrExhaustedAttempts)
}

// DeactivateTeam marks the team and its current join code inactive.
// Nothing is deleted.
func (s *Service) DeactivateTeam(ctx context.Context, uid, teamID string) error {
	if _, err := s.RequireCoach(ctx, uid, teamID); err != nil {
		return err
	}

	for attempt := 0; attempt < commitAttempts; attempt++ {
		t, err := s.loadTeam(ctx, teamID)
		if err != nil {
			return err
		}
		err = s.repo.Deactivate(context.WithoutCancel(ctx), teamID, t.JoinCode)
		if err == nil {
			log.GetLogger(ctx).WithField("teamId", teamID).Info("team deactivated")
			return nil
		}
		if !docstore.IsErrConflict(err) {
			return fmt.Errorf("%w: deactivate team: %w", ErrPersistence, err)
		}
	}
	return fmt.Errorf("%w: team kept changing during deactivation", ErrExhaustedAttempts)
}

// ListAthletes returns the team's athlete roster ordered by user id.
func (s *Service) ListAthletes(ctx context.Context, teamID string) ([]Membership, error) {
	out, err := s.repo.ListMembers(ctx, teamID, RoleAthlete)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %w", ErrPersistence, err)
	}
	return out, nil
}

func (s *Service) loadTeam(ctx context.Context, teamID string) (*Team, error) {
	t, err := s.repo.GetTeam(ctx, teamID)
	if docstore.IsErrNotFound(err) {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load team: %w", ErrPersistence, err)
	}
	return t, nil
}
