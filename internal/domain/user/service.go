package user

import (
	"context"
	"fmt"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/log"
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// EnsureProfile creates users/{uid} on first sign-in and returns the stored
// profile. Stored values are never overwritten, but a document started by a
// team create or join gets its missing email, name and createdAt filled in.
func (s *Service) EnsureProfile(ctx context.Context, id Identity) (*Profile, error) {
	if id.UID == "" {
		return nil, ErrNotAuthenticated
	}
	err := s.repo.CreateIfAbsent(context.WithoutCancel(ctx), id)
	switch {
	case err == nil:
		log.GetLogger(ctx).WithField("uid", id.UID).Info("user profile created")
	case !docstore.IsErrAlreadyExists(err):
		return nil, fmt.Errorf("%w: create profile: %w", ErrPersistence, err)
	}

	p, err := s.repo.Get(ctx, id.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}

	missing := missingFields(p, id)
	if len(missing) == 0 {
		return p, nil
	}
	if err := s.repo.Fill(context.WithoutCancel(ctx), id.UID, missing); err != nil {
		return nil, fmt.Errorf("%w: complete profile: %w", ErrPersistence, err)
	}
	log.GetLogger(ctx).WithField("uid", id.UID).Info("user profile completed")
	if p, err = s.repo.Get(ctx, id.UID); err != nil {
		return nil, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	return p, nil
}

func missingFields(p *Profile, id Identity) map[string]any {
	out := map[string]any{}
	if p.Email == "" && id.Email != "" {
		out["email"] = id.Email
	}
	if p.DisplayName == "" && id.DisplayName != "" {
		out["name"] = id.DisplayName
	}
	if p.CreatedAt.IsZero() {
		out["createdAt"] = docstore.ServerTimestamp
	}
	return out
}

// LastTeam returns the team the user most recently created or joined.
func (s *Service) LastTeam(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", ErrNotAuthenticated
	}
	p, err := s.repo.Get(ctx, uid)
	if docstore.IsErrNotFound(err) {
		return "", fmt.Errorf("%w: no team saved yet", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	if p.LastTeamID == nil || *p.LastTeamID == "" {
		return "", fmt.Errorf("%w: no team saved yet", ErrNotFound)
	}
	return *p.LastTeamID, nil
}

// RegisterDevice stores a push token for the user; duplicates are ignored.
func (s *Service) RegisterDevice(ctx context.Context, uid, token string) error {
	if uid == "" {
		return ErrNotAuthenticated
	}
	if token == "" {
		return fmt.Errorf("%w: device token is required", ErrInvalidInput)
	}
	if err := s.repo.AddToken(context.WithoutCancel(ctx), uid, token); err != nil {
		return fmt.Errorf("%w: register device: %w", ErrPersistence, err)
	}
	return nil
}

// Tokens returns the push tokens registered for uid. A user without a
// profile has none.
func (s *Service) Tokens(ctx context.Context, uid string) ([]string, error) {
	p, err := s.repo.Get(ctx, uid)
	if docstore.IsErrNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	return p.FCMTokens, nil
}

// DropTokens forgets tokens the push provider reported as unregistered.
func (s *Service) DropTokens(ctx context.Context, uid string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	if err := s.repo.RemoveTokens(context.WithoutCancel(ctx), uid, tokens...); err != nil {
		return fmt.Errorf("%w: drop tokens: %w", ErrPersistence, err)
	}
	return nil
}
