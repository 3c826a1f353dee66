package team

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/joincode"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var (
	coach   = Creator{UID: "coach-1", Email: "coach@eagles.test", DisplayName: "Coach Kim"}
	athlete = Creator{UID: "ath-1", Email: "ath@eagles.test", DisplayName: "Ari"}
)

func newMemory(t *testing.T) *docstore.Memory {
	m, err := docstore.NewMemory(docstore.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return m
}

func newService(store docstore.Store, gen *joincode.Generator) *Service {
	s := NewService(NewRepo(store), joincode.NewAllocator(store, gen))
	n := 0
	s.newID = func() string {
		n++
		return "team-" + string(rune('0'+n))
	}
	return s
}

// codeReader makes the k-th generated code consist of Alphabet[k] repeated.
func codeReader(draws int) *bytes.Reader {
	var b []byte
	for k := 0; k < draws; k++ {
		b = append(b, bytes.Repeat([]byte{byte(k)}, joincode.DefaultLength)...)
	}
	return bytes.NewReader(b)
}

func code(k int) string {
	return strings.Repeat(string(joincode.Alphabet[k]), joincode.DefaultLength)
}

func TestCreateAndJoin_Eagles(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)
	s := newService(store, nil)

	res, err := s.CreateTeam(ctx, coach, "  Eagles ")
	require.NoError(t, err)
	require.Len(t, res.JoinCode, 6)
	require.True(t, joincode.Valid(res.JoinCode))

	tm, err := s.repo.GetTeam(ctx, res.TeamID)
	require.NoError(t, err)
	require.Equal(t, "Eagles", tm.Name)
	require.Equal(t, res.JoinCode, tm.JoinCode)
	require.Equal(t, coach.UID, tm.CreatedBy)
	require.Equal(t, fixedNow, tm.CreatedAt)
	require.True(t, tm.IsActive)

	jc, err := store.Get(ctx, joincode.Path(res.JoinCode))
	require.NoError(t, err)
	require.Equal(t, res.TeamID, jc.Data["teamId"])
	require.Equal(t, true, jc.Data["isActive"])

	m, err := s.repo.GetMembership(ctx, res.TeamID, coach.UID)
	require.NoError(t, err)
	require.Equal(t, RoleCoach, m.Role)
	require.Equal(t, "Coach Kim", m.Name)
	require.Empty(t, m.JoinCodeUsed)

	u, err := store.Get(ctx, "users/coach-1")
	require.NoError(t, err)
	require.Equal(t, res.TeamID, u.Data["lastTeamId"])

	teamID, err := s.JoinTeam(ctx, athlete, "  "+strings.ToLower(res.JoinCode)+"\n")
	require.NoError(t, err)
	require.Equal(t, res.TeamID, teamID)

	m, err = s.repo.GetMembership(ctx, teamID, athlete.UID)
	require.NoError(t, err)
	require.Equal(t, RoleAthlete, m.Role)
	require.Equal(t, res.JoinCode, m.JoinCodeUsed)
	require.Equal(t, "ath@eagles.test", m.Email)
	require.True(t, m.IsActive)

	u, err = store.Get(ctx, "users/ath-1")
	require.NoError(t, err)
	require.Equal(t, teamID, u.Data["lastTeamId"])
}

func TestCreateTeam_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)
	s := newService(store, nil)

	_, err := s.CreateTeam(ctx, coach, " \t ")
	require.True(t, IsErrInvalidInput(err))

	_, err = s.CreateTeam(ctx, Creator{}, "Eagles")
	require.True(t, IsErrNotAuthenticated(err))

	docs, err := store.Query(ctx, docstore.Query{Collection: "teams"})
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestCreateTeam_AllocationExhausted(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)
	for k := 0; k < joincode.DefaultMaxAttempts; k++ {
		require.NoError(t, store.Create(ctx, joincode.Path(code(k)), map[string]any{"teamId": "x", "isActive": true}))
	}
	s := newService(store, joincode.NewGenerator(codeReader(joincode.DefaultMaxAttempts)))

	_, err := s.CreateTeam(ctx, coach, "Eagles")
	require.True(t, IsErrExhaustedAttempts(err))

	docs, err := store.Query(ctx, docstore.Query{Collection: "teams"})
	require.NoError(t, err)
	require.Empty(t, docs)
}

// racingStore claims one join code right before each batch commit,
// simulating another team creation winning the race.
type racingStore struct {
	*docstore.Memory
	claims []string
}

func (s *racingStore) Batch() docstore.Batch {
	return &racingBatch{Batch: s.Memory.Batch(), s: s}
}

type racingBatch struct {
	docstore.Batch
	s *racingStore
}

func (b *racingBatch) Create(path string, data map[string]any) docstore.Batch {
	b.Batch.Create(path, data)
	return b
}

func (b *racingBatch) Set(path string, data map[string]any, merge bool) docstore.Batch {
	b.Batch.Set(path, data, merge)
	return b
}

func (b *racingBatch) Match(path, field string, value any) docstore.Batch {
	b.Batch.Match(path, field, value)
	return b
}

func (b *racingBatch) Commit(ctx context.Context) error {
	if len(b.s.claims) > 0 {
		c := b.s.claims[0]
		b.s.claims = b.s.claims[1:]
		if err := b.s.Memory.Create(ctx, joincode.Path(c), map[string]any{"teamId": "rival", "isActive": true}); err != nil {
			return err
		}
	}
	return b.Batch.Commit(ctx)
}

func TestCreateTeam_RetriesWhenCodeIsClaimedBeforeCommit(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Memory: newMemory(t), claims: []string{code(0)}}
	s := newService(store, joincode.NewGenerator(codeReader(2)))

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)
	require.Equal(t, code(1), res.JoinCode)

	jc, err := store.Get(ctx, joincode.Path(code(0)))
	require.NoError(t, err)
	require.Equal(t, "rival", jc.Data["teamId"])

	jc, err = store.Get(ctx, joincode.Path(code(1)))
	require.NoError(t, err)
	require.Equal(t, res.TeamID, jc.Data["teamId"])
}

func TestCreateTeam_CommitConflictsExhausted(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Memory: newMemory(t), claims: []string{code(0), code(1), code(2)}}
	s := newService(store, joincode.NewGenerator(codeReader(3)))

	_, err := s.CreateTeam(ctx, coach, "Eagles")
	require.True(t, IsErrExhaustedAttempts(err))

	// no partial bootstrap survives an aborted batch
	_, err = store.Get(ctx, "teams/team-1")
	require.True(t, docstore.IsErrNotFound(err))
	_, err = store.Get(ctx, "teams/team-1/members/coach-1")
	require.True(t, docstore.IsErrNotFound(err))
	_, err = store.Get(ctx, "users/coach-1")
	require.True(t, docstore.IsErrNotFound(err))
}

func TestJoinTeam_Failures(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)
	s := newService(store, nil)
	require.NoError(t, store.Set(ctx, "teams/t1", map[string]any{"name": "Eagles", "isActive": true}, false))
	require.NoError(t, store.Set(ctx, joincode.Path("OFFAAA"), map[string]any{"teamId": "t1", "isActive": false}, false))
	require.NoError(t, store.Set(ctx, joincode.Path("STRAAA"), map[string]any{"teamId": "t1", "isActive": "true"}, false))
	require.NoError(t, store.Set(ctx, joincode.Path("NOTEAM"), map[string]any{"isActive": true}, false))
	require.NoError(t, store.Set(ctx, joincode.Path("GHOSTT"), map[string]any{"teamId": "gone", "isActive": true}, false))

	for _, tc := range []struct {
		name  string
		code  string
		check func(error) bool
	}{
		{"empty", "   ", IsErrInvalidInput},
		{"unknown", "ZZZZZZ", IsErrCodeNotFound},
		{"inactive", "offaaa", IsErrCodeInactive},
		{"non boolean active flag", "STRAAA", IsErrCodeInactive},
		{"missing team id", "NOTEAM", IsErrCorruptCode},
		{"dangling team", "GHOSTT", IsErrCorruptCode},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.JoinTeam(ctx, athlete, tc.code)
			require.True(t, tc.check(err), "got %v", err)
		})
	}

	members, err := s.repo.ListMembers(ctx, "t1", "")
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = s.JoinTeam(ctx, Creator{}, "ABCDEF")
	require.True(t, IsErrNotAuthenticated(err))
}

func TestJoinTeam_CoachKeepsRole(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemory(t), nil)

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)

	teamID, err := s.JoinTeam(ctx, coach, res.JoinCode)
	require.NoError(t, err)
	require.Equal(t, res.TeamID, teamID)

	m, err := s.repo.GetMembership(ctx, teamID, coach.UID)
	require.NoError(t, err)
	require.Equal(t, RoleCoach, m.Role)
}

func TestRotateJoinCode(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)
	s := newService(store, joincode.NewGenerator(codeReader(2)))

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)
	require.Equal(t, code(0), res.JoinCode)
	_, err = s.JoinTeam(ctx, athlete, res.JoinCode)
	require.NoError(t, err)

	_, err = s.RotateJoinCode(ctx, athlete.UID, res.TeamID)
	require.True(t, IsErrForbidden(err))

	newCode, err := s.RotateJoinCode(ctx, coach.UID, res.TeamID)
	require.NoError(t, err)
	require.Equal(t, code(1), newCode)

	tm, err := s.repo.GetTeam(ctx, res.TeamID)
	require.NoError(t, err)
	require.Equal(t, newCode, tm.JoinCode)

	late := Creator{UID: "ath-2", Email: "b@eagles.test"}
	_, err = s.JoinTeam(ctx, late, res.JoinCode)
	require.True(t, IsErrCodeInactive(err))

	_, err = s.JoinTeam(ctx, late, newCode)
	require.NoError(t, err)

	// rejoining with the new code overwrites the old membership metadata
	_, err = s.JoinTeam(ctx, athlete, newCode)
	require.NoError(t, err)
	m, err := s.repo.GetMembership(ctx, res.TeamID, athlete.UID)
	require.NoError(t, err)
	require.Equal(t, newCode, m.JoinCodeUsed)
}

func TestDeactivateTeam(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)
	s := newService(store, nil)

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)

	require.NoError(t, s.DeactivateTeam(ctx, coach.UID, res.TeamID))

	_, err = s.JoinTeam(ctx, athlete, res.JoinCode)
	require.True(t, IsErrCodeInactive(err))

	tm, err := s.repo.GetTeam(ctx, res.TeamID)
	require.NoError(t, err)
	require.False(t, tm.IsActive)

	_, err = s.RotateJoinCode(ctx, coach.UID, res.TeamID)
	require.True(t, IsErrInvalidInput(err))
}

// barrierStore holds the first two batch commits until both have arrived,
// so two writers act on the same read.
type barrierStore struct {
	*docstore.Memory
	arrived atomic.Int32
	ready   chan struct{}
}

func newBarrierStore(m *docstore.Memory) *barrierStore {
	return &barrierStore{Memory: m, ready: make(chan struct{})}
}

func (s *barrierStore) Batch() docstore.Batch {
	return &barrierBatch{Batch: s.Memory.Batch(), s: s}
}

type barrierBatch struct {
	docstore.Batch
	s *barrierStore
}

func (b *barrierBatch) Create(path string, data map[string]any) docstore.Batch {
	b.Batch.Create(path, data)
	return b
}

func (b *barrierBatch) Set(path string, data map[string]any, merge bool) docstore.Batch {
	b.Batch.Set(path, data, merge)
	return b
}

func (b *barrierBatch) Match(path, field string, value any) docstore.Batch {
	b.Batch.Match(path, field, value)
	return b
}

func (b *barrierBatch) Commit(ctx context.Context) error {
	n := b.s.arrived.Add(1)
	if n == 2 {
		close(b.s.ready)
	}
	if n <= 2 {
		select {
		case <-b.s.ready:
		case <-time.After(5 * time.Second):
		}
	}
	return b.Batch.Commit(ctx)
}

func activeCodes(t *testing.T, store docstore.Store, teamID string) []string {
	t.Helper()
	docs, err := store.Query(context.Background(), docstore.Query{Collection: joincode.Collection}.
		Where("teamId", teamID).
		Where("isActive", true))
	require.NoError(t, err)
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestRotateJoinCode_Concurrent(t *testing.T) {
	ctx := context.Background()
	mem := newMemory(t)
	res, err := newService(mem, nil).CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)

	s := newService(newBarrierStore(mem), nil)
	var wg sync.WaitGroup
	codes := make([]string, 2)
	errs := make([]error, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = s.RotateJoinCode(ctx, coach.UID, res.TeamID)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.NotEqual(t, codes[0], codes[1])

	tm, err := s.repo.GetTeam(ctx, res.TeamID)
	require.NoError(t, err)
	require.Contains(t, codes, tm.JoinCode)
	require.Equal(t, []string{tm.JoinCode}, activeCodes(t, mem, res.TeamID))

	_, err = s.JoinTeam(ctx, athlete, res.JoinCode)
	require.True(t, IsErrCodeInactive(err))
}

func TestDeactivateTeam_ConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	mem := newMemory(t)
	res, err := newService(mem, nil).CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)

	s := newService(newBarrierStore(mem), nil)
	var wg sync.WaitGroup
	var rotateErr, deactivateErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, rotateErr = s.RotateJoinCode(ctx, coach.UID, res.TeamID)
	}()
	go func() {
		defer wg.Done()
		deactivateErr = s.DeactivateTeam(ctx, coach.UID, res.TeamID)
	}()
	wg.Wait()

	require.NoError(t, deactivateErr)
	if rotateErr != nil {
		// deactivation won; the rotation saw the inactive team on retry
		require.True(t, IsErrInvalidInput(rotateErr))
	}
	tm, err := s.repo.GetTeam(ctx, res.TeamID)
	require.NoError(t, err)
	require.False(t, tm.IsActive)
	require.Empty(t, activeCodes(t, mem, res.TeamID))
}

func TestAccess(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemory(t), nil)

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)
	_, err = s.JoinTeam(ctx, athlete, res.JoinCode)
	require.NoError(t, err)

	state, _, err := s.Access(ctx, "", res.TeamID)
	require.NoError(t, err)
	require.Equal(t, Unauthenticated, state)

	state, _, err = s.Access(ctx, "stranger", res.TeamID)
	require.NoError(t, err)
	require.Equal(t, NoMembership, state)

	state, m, err := s.Access(ctx, athlete.UID, res.TeamID)
	require.NoError(t, err)
	require.Equal(t, Member, state)
	require.Equal(t, RoleAthlete, m.Role)

	_, err = s.RequireMember(ctx, "", res.TeamID)
	require.True(t, IsErrNotAuthenticated(err))
	_, err = s.RequireMember(ctx, "stranger", res.TeamID)
	require.True(t, IsErrNotAMember(err))
	_, err = s.RequireCoach(ctx, athlete.UID, res.TeamID)
	require.True(t, IsErrForbidden(err))
	_, err = s.RequireCoach(ctx, coach.UID, res.TeamID)
	require.NoError(t, err)
}

func TestGetTeam_HidesJoinCodeFromAthletes(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemory(t), nil)

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)
	_, err = s.JoinTeam(ctx, athlete, res.JoinCode)
	require.NoError(t, err)

	view, err := s.GetTeam(ctx, coach.UID, res.TeamID)
	require.NoError(t, err)
	require.Equal(t, res.JoinCode, view.Team.JoinCode)
	require.Equal(t, res.TeamID, view.Team.ID)

	view, err = s.GetTeam(ctx, athlete.UID, res.TeamID)
	require.NoError(t, err)
	require.Empty(t, view.Team.JoinCode)
	require.Equal(t, RoleAthlete, view.Membership.Role)
}

func TestListAthletes(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemory(t), nil)

	res, err := s.CreateTeam(ctx, coach, "Eagles")
	require.NoError(t, err)
	for _, uid := range []string{"c", "a", "b"} {
		_, err := s.JoinTeam(ctx, Creator{UID: uid}, res.JoinCode)
		require.NoError(t, err)
	}

	roster, err := s.ListAthletes(ctx, res.TeamID)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	require.Equal(t, "a", roster[0].UID)
	require.Equal(t, "b", roster[1].UID)
	require.Equal(t, "c", roster[2].UID)
}

func TestMembershipDisplayName(t *testing.T) {
	require.Equal(t, "Ari", Membership{UID: "u", Email: "e", Name: "Ari"}.DisplayName())
	require.Equal(t, "e", Membership{UID: "u", Email: "e"}.DisplayName())
	require.Equal(t, "u", Membership{UID: "u"}.DisplayName())
}
