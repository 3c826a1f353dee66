package checkin

import (
	"context"
	"fmt"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/utils"
)

type Repo struct {
	store docstore.Store
}

func NewRepo(store docstore.Store) *Repo {
	return &Repo{store: store}
}

func collection(teamID string) string {
	return docstore.Path("teams", teamID, "checkIns")
}

// Submit upserts the (uid, dateKey) check-in with a merge write. Only the
// groups and fields present in the input are written; uid, dateKey and
// submittedAt are always refreshed.
func (r *Repo) Submit(ctx context.Context, teamID, uid, dateKey string, in SubmitInput) (*Ack, error) {
	if teamID == "" || uid == "" {
		return nil, fmt.Errorf("%w: team and user are required", ErrInvalidInput)
	}
	if _, err := utils.ParseDateKey(dateKey); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	id := DocID(uid, dateKey)
	patch := map[string]any{
		"uid":         uid,
		"dateKey":     dateKey,
		"submittedAt": docstore.ServerTimestamp,
	}
	if g := habitsPatch(in.Habits); g != nil {
		patch["habits"] = g
	}
	if g := practicePatch(in.Practice); g != nil {
		patch["practice"] = g
	}
	if g := mindsetPatch(in.Mindset); g != nil {
		patch["mindset"] = g
	}
	if g := reflectionPatch(in.Reflection); g != nil {
		patch["reflection"] = g
	}

	if err := r.store.Set(ctx, docstore.Path(collection(teamID), id), patch, true); err != nil {
		return nil, fmt.Errorf("%w: write check-in: %w", ErrPersistence, err)
	}
	return &Ack{ID: id, DateKey: dateKey}, nil
}

func (r *Repo) Get(ctx context.Context, teamID, uid, dateKey string) (*CheckIn, error) {
	doc, err := r.store.Get(ctx, docstore.Path(collection(teamID), DocID(uid, dateKey)))
	if docstore.IsErrNotFound(err) {
		return nil, fmt.Errorf("%w: no check-in for %s", ErrNotFound, dateKey)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load check-in: %w", ErrPersistence, err)
	}
	return decode(doc)
}

// List returns the check-ins of one day (Filter.DateKey) or the most recent
// check-ins of one athlete (Filter.UID), newest first.
func (r *Repo) List(ctx context.Context, teamID string, f Filter) ([]CheckIn, error) {
	q := docstore.Query{Collection: collection(teamID)}
	switch {
	case f.DateKey != "":
		if _, err := utils.ParseDateKey(f.DateKey); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		q = q.Where("dateKey", f.DateKey)
		if f.UID != "" {
			q = q.Where("uid", f.UID)
		}
	case f.UID != "":
		q = q.Where("uid", f.UID)
		q.OrderBy = "dateKey"
		q.Desc = true
		q.Limit = clampLimit(f.Limit)
	default:
		return nil, fmt.Errorf("%w: a date or a user is required", ErrInvalidInput)
	}

	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list check-ins: %w", ErrPersistence, err)
	}
	out := make([]CheckIn, 0, len(docs))
	for _, doc := range docs {
		c, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return HistoryLimit
	case n > MaxListLimit:
		return MaxListLimit
	}
	return n
}

func decode(doc *docstore.Document) (*CheckIn, error) {
	var c CheckIn
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("%w: decode check-in %s: %w", ErrPersistence, doc.ID, err)
	}
	c.ID = doc.ID
	return &c, nil
}

func put[T any](m map[string]any, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

func nilIfEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

func habitsPatch(h *Habits) map[string]any {
	if h == nil {
		return nil
	}
	m := map[string]any{}
	put(m, "sleepBucket", h.SleepBucket)
	put(m, "bedtimeBucket", h.BedtimeBucket)
	put(m, "fellAsleepFast", h.FellAsleepFast)
	put(m, "hydration", h.Hydration)
	put(m, "fruit", h.Fruit)
	put(m, "veg", h.Veg)
	put(m, "sleepBlocker", h.SleepBlocker)
	if h.FellAsleepFast != nil && *h.FellAsleepFast {
		m["sleepBlocker"] = docstore.Delete
	}
	return nilIfEmpty(m)
}

func practicePatch(p *Practice) map[string]any {
	if p == nil {
		return nil
	}
	m := map[string]any{}
	put(m, "attended", p.Attended)
	put(m, "missReason", p.MissReason)
	put(m, "effortWeights", p.EffortWeights)
	put(m, "effortDrilling", p.EffortDrilling)
	put(m, "effortLive", p.EffortLive)
	put(m, "matches", p.Matches)
	put(m, "warmups", p.Warmups)
	put(m, "cooldowns", p.Cooldowns)
	if p.Attended != nil && *p.Attended {
		m["missReason"] = docstore.Delete
	}
	return nilIfEmpty(m)
}

func mindsetPatch(md *Mindset) map[string]any {
	if md == nil {
		return nil
	}
	m := map[string]any{}
	put(m, "techFocus", md.TechFocus)
	put(m, "mainShotAttempted", md.MainShotAttempted)
	put(m, "resetUsed", md.ResetUsed)
	put(m, "mantraWord", md.MantraWord)
	return nilIfEmpty(m)
}

func reflectionPatch(r *Reflection) map[string]any {
	if r == nil {
		return nil
	}
	m := map[string]any{}
	if r.WentWell != nil {
		m["wentWell"] = utils.TruncateRunes(*r.WentWell, ReflectionMaxLen)
	}
	if r.ImproveTomorrow != nil {
		m["improveTomorrow"] = utils.TruncateRunes(*r.ImproveTomorrow, ReflectionMaxLen)
	}
	return nilIfEmpty(m)
}
