package joincode

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/utils"
)

// Alphabet has 32 upper-case symbols; O, 0, I and 1 are left out.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultLength      = 6
	DefaultMaxAttempts = 8

	Collection = "joinCodes"
)

type Generator struct {
	rand io.Reader
}

// NewGenerator returns a generator reading from r, or crypto/rand when r is nil.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// Generate draws length symbols uniformly from Alphabet.
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	// len(Alphabet) divides 256, so masking keeps the draw uniform.
	for i, b := range buf {
		buf[i] = Alphabet[int(b)&(len(Alphabet)-1)]
	}
	return string(buf), nil
}

// Allocator finds a code with no joinCodes/{code} document yet. The check
// is advisory: callers must still create the document with create-if-absent.
type Allocator struct {
	store       docstore.Store
	gen         *Generator
	length      int
	maxAttempts int
}

func NewAllocator(store docstore.Store, gen *Generator) *Allocator {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &Allocator{
		store:       store,
		gen:         gen,
		length:      DefaultLength,
		maxAttempts: DefaultMaxAttempts,
	}
}

func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < a.maxAttempts; i++ {
		code, err := a.gen.Generate(a.length)
		if err != nil {
			return "", err
		}
		_, err = a.store.Get(ctx, Path(code))
		if docstore.IsErrNotFound(err) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: lookup join code: %w", ErrPersistence, err)
		}
	}
	return "", ErrExhaustedAttempts
}

func Path(code string) string {
	return docstore.Path(Collection, code)
}

// Normalize trims and upper-cases a user-typed code.
func Normalize(raw string) string {
	return utils.NormalizeCode(raw)
}

// Valid reports whether code could have been produced by a Generator.
func Valid(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
