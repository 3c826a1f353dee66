package joincode

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"team-checkin/backend/internal/docstore"
)

// seqReader yields `length` copies of byte k for the k-th draw.
func seqReader(draws, length int) *bytes.Reader {
	var b []byte
	for k := 0; k < draws; k++ {
		b = append(b, bytes.Repeat([]byte{byte(k)}, length)...)
	}
	return bytes.NewReader(b)
}

func TestAlphabet(t *testing.T) {
	require.Len(t, Alphabet, 32)
	for _, c := range "O0I1" {
		require.NotContains(t, Alphabet, string(c))
	}
	seen := map[rune]bool{}
	for _, c := range Alphabet {
		require.False(t, seen[c], "duplicate %q", c)
		seen[c] = true
		require.Equal(t, strings.ToUpper(string(c)), string(c))
	}
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(nil)
	for _, n := range []int{1, 6, 12} {
		for i := 0; i < 200; i++ {
			code, err := g.Generate(n)
			require.NoError(t, err)
			require.Len(t, code, n)
			require.True(t, Valid(code), code)
		}
	}

	_, err := g.Generate(0)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestGenerate_MapsBytesOntoAlphabet(t *testing.T) {
	g := NewGenerator(bytes.NewReader([]byte{0, 31, 32, 255, 8, 24}))

	code, err := g.Generate(6)
	require.NoError(t, err)
	require.Equal(t, "A9A9J2", code)
}

func TestGenerate_ShortRandomSource(t *testing.T) {
	g := NewGenerator(bytes.NewReader([]byte{1, 2}))

	_, err := g.Generate(6)
	require.Error(t, err)
}

func newStore(t *testing.T) *docstore.Memory {
	m, err := docstore.NewMemory()
	require.NoError(t, err)
	return m
}

func TestAllocate_SucceedsAfterSevenCollisions(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for k := 0; k < 7; k++ {
		code := strings.Repeat(string(Alphabet[k]), DefaultLength)
		require.NoError(t, store.Create(ctx, Path(code), map[string]any{"teamId": "t", "isActive": true}))
	}

	a := NewAllocator(store, NewGenerator(seqReader(8, DefaultLength)))
	code, err := a.Allocate(ctx)
	require.NoError(t, err)
	require.Equal(t, "HHHHHH", code)
}

func TestAllocate_ExhaustedAfterEightCollisions(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for k := 0; k < 8; k++ {
		code := strings.Repeat(string(Alphabet[k]), DefaultLength)
		require.NoError(t, store.Create(ctx, Path(code), map[string]any{"teamId": "t"}))
	}

	a := NewAllocator(store, NewGenerator(seqReader(9, DefaultLength)))
	_, err := a.Allocate(ctx)
	require.True(t, IsErrExhaustedAttempts(err))
}

type failingStore struct{ docstore.Store }

func (failingStore) Get(context.Context, string) (*docstore.Document, error) {
	return nil, errors.New("unavailable")
}

func TestAllocate_WrapsStoreErrors(t *testing.T) {
	a := NewAllocator(failingStore{}, nil)

	_, err := a.Allocate(context.Background())
	require.True(t, IsErrPersistence(err))
	require.Contains(t, err.Error(), "unavailable")
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "XK7P2Q", Normalize("  xk7p2q\n"))
	require.True(t, Valid("XK7P2Q"))
	require.False(t, Valid("XK7P2O"))
	require.False(t, Valid(""))
}
