package user

import (
	"context"

	"team-checkin/backend/internal/docstore"
)

const collection = "users"

type Repo struct {
	store docstore.Store
}

func NewRepo(store docstore.Store) *Repo {
	return &Repo{store: store}
}

func path(uid string) string { return docstore.Path(collection, uid) }

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.store.Get(ctx, path(uid))
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.UID = uid
	return &p, nil
}

// CreateIfAbsent writes a fresh profile. ErrAlreadyExists from the store
// means the user signed in before.
func (r *Repo) CreateIfAbsent(ctx context.Context, id Identity) error {
	return r.store.Create(ctx, path(id.UID), map[string]any{
		"email":      id.Email,
		"name":       id.DisplayName,
		"createdAt":  docstore.ServerTimestamp,
		"lastTeamId": nil,
	})
}

// Fill merges fields into an existing profile without touching the rest.
func (r *Repo) Fill(ctx context.Context, uid string, fields map[string]any) error {
	return r.store.Set(ctx, path(uid), fields, true)
}

func (r *Repo) AddToken(ctx context.Context, uid, token string) error {
	return r.store.Set(ctx, path(uid), map[string]any{
		"fcmTokens": docstore.ArrayUnion(token),
	}, true)
}

func (r *Repo) RemoveTokens(ctx context.Context, uid string, tokens ...string) error {
	values := make([]any, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, t)
	}
	return r.store.Set(ctx, path(uid), map[string]any{
		"fcmTokens": docstore.ArrayRemove(values...),
	}, true)
}
