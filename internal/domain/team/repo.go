package team

import (
	"context"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/joincode"
)

const (
	teamsCollection   = "teams"
	membersCollection = "members"
	usersCollection   = "users"
)

type Repo struct {
	store docstore.Store
}

func NewRepo(store docstore.Store) *Repo {
	return &Repo{store: store}
}

func teamPath(teamID string) string { return docstore.Path(teamsCollection, teamID) }

func memberPath(teamID, uid string) string {
	return docstore.Path(teamsCollection, teamID, membersCollection, uid)
}

func userPath(uid string) string { return docstore.Path(usersCollection, uid) }

func (r *Repo) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	doc, err := r.store.Get(ctx, teamPath(teamID))
	if err != nil {
		return nil, err
	}
	var t Team
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	t.ID = doc.ID
	return &t, nil
}

// GetJoinCode returns the raw document so callers can tell a missing or
// non-boolean isActive apart from false.
func (r *Repo) GetJoinCode(ctx context.Context, code string) (*docstore.Document, error) {
	return r.store.Get(ctx, joincode.Path(code))
}

func (r *Repo) GetMembership(ctx context.Context, teamID, uid string) (*Membership, error) {
	doc, err := r.store.Get(ctx, memberPath(teamID, uid))
	if err != nil {
		return nil, err
	}
	var m Membership
	if err := doc.DataTo(&m); err != nil {
		return nil, err
	}
	m.UID = doc.ID
	return &m, nil
}

// ListMembers returns memberships ordered by user id. An empty role
// returns every member.
func (r *Repo) ListMembers(ctx context.Context, teamID, role string) ([]Membership, error) {
	q := docstore.Query{Collection: docstore.Path(teamsCollection, teamID, membersCollection)}
	if role != "" {
		q = q.Where("role", role)
	}
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]Membership, 0, len(docs))
	for _, doc := range docs {
		var m Membership
		if err := doc.DataTo(&m); err != nil {
			return nil, err
		}
		m.UID = doc.ID
		out = append(out, m)
	}
	return out, nil
}

// Bootstrap writes the team, its join code, the creator's coach membership
// and the creator's lastTeamId in one atomic batch. The join code is
// created only if absent, so a concurrent claim fails the whole batch.
func (r *Repo) Bootstrap(ctx context.Context, t Team, coach Membership) error {
	return r.store.Batch().
		Set(teamPath(t.ID), teamData(t), false).
		Create(joincode.Path(t.JoinCode), joinCodeData(t.JoinCode, t.ID, t.CreatedBy)).
		Set(memberPath(t.ID, coach.UID), memberData(coach), false).
		Set(userPath(coach.UID), map[string]any{"lastTeamId": t.ID}, true).
		Commit(ctx)
}

// Enroll overwrites the membership and records the team as the user's last.
func (r *Repo) Enroll(ctx context.Context, teamID string, m Membership) error {
	return r.store.Batch().
		Set(memberPath(teamID, m.UID), memberData(m), false).
		Set(userPath(m.UID), map[string]any{"lastTeamId": teamID}, true).
		Commit(ctx)
}

// Rotate creates newCode, deactivates oldCode and points the team at newCode.
// It fails with docstore.ErrConflict when the team no longer uses oldCode
// or was deactivated in the meantime.
func (r *Repo) Rotate(ctx context.Context, teamID, oldCode, newCode, uid string) error {
	b := r.store.Batch().
		Match(teamPath(teamID), "joinCode", oldCode).
		Match(teamPath(teamID), "isActive", true).
		Create(joincode.Path(newCode), joinCodeData(newCode, teamID, uid)).
		Set(teamPath(teamID), map[string]any{"joinCode": newCode}, true)
	if oldCode != "" {
		b = b.Set(joincode.Path(oldCode), map[string]any{"isActive": false}, true)
	}
	return b.Commit(ctx)
}

// Deactivate marks the team and code inactive. It fails with
// docstore.ErrConflict when code is no longer the team's join code.
func (r *Repo) Deactivate(ctx context.Context, teamID, code string) error {
	b := r.store.Batch().
		Match(teamPath(teamID), "joinCode", code).
		Set(teamPath(teamID), map[string]any{"isActive": false}, true)
	if code != "" {
		b = b.Set(joincode.Path(code), map[string]any{"isActive": false}, true)
	}
	return b.Commit(ctx)
}

func teamData(t Team) map[string]any {
	return map[string]any{
		"name":      t.Name,
		"joinCode":  t.JoinCode,
		"createdBy": t.CreatedBy,
		"createdAt": docstore.ServerTimestamp,
		"isActive":  true,
	}
}

func joinCodeData(code, teamID, uid string) map[string]any {
	return map[string]any{
		"teamId":    teamID,
		"joinCode":  code,
		"createdBy": uid,
		"createdAt": docstore.ServerTimestamp,
		"isActive":  true,
	}
}

func memberData(m Membership) map[string]any {
	data := map[string]any{
		"role":     m.Role,
		"name":     m.Name,
		"email":    m.Email,
		"isActive": true,
		"joinedAt": docstore.ServerTimestamp,
	}
	if m.JoinCodeUsed != "" {
		data["joinCodeUsed"] = m.JoinCodeUsed
	}
	return data
}
