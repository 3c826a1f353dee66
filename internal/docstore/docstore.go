package docstore

import (
	"context"
	"errors"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidPath   = errors.New("invalid document path")
	ErrConflict      = errors.New("document changed concurrently")
)

func IsErrNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsErrAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func IsErrConflict(err error) bool      { return errors.Is(err, ErrConflict) }

type sentinel int

const (
	// ServerTimestamp is replaced with the store's write time.
	ServerTimestamp sentinel = iota + 1
	// Delete removes the field on a merge write.
	Delete
)

type arrayOp struct {
	union  bool
	values []any
}

// ArrayUnion adds the values that are not yet present in an array field.
func ArrayUnion(values ...any) any { return arrayOp{union: true, values: values} }

// ArrayRemove removes every occurrence of the values from an array field.
func ArrayRemove(values ...any) any { return arrayOp{values: values} }

// Document is a materialized snapshot of one stored document.
type Document struct {
	ID   string
	Path string
	Data map[string]any

	decode func(dst any) error
}

// DataTo decodes the document fields into dst using `firestore` struct tags.
func (d *Document) DataTo(dst any) error {
	if d.decode != nil {
		return d.decode(dst)
	}
	return decodeMap(d.Data, dst)
}

// Filter is an equality match on a (possibly dotted) field path.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Store is the document-store collaborator. Paths are slash separated,
// e.g. "teams/{teamId}/members/{uid}".
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	Set(ctx context.Context, path string, data map[string]any, merge bool) error
	// Create writes the document only if it does not exist yet.
	Create(ctx context.Context, path string, data map[string]any) error
	Query(ctx context.Context, q Query) ([]*Document, error)
	// Batch groups writes that are applied atomically on Commit.
	Batch() Batch
}

type Batch interface {
	Create(path string, data map[string]any) Batch
	Set(path string, data map[string]any, merge bool) Batch
	// Match makes Commit fail with ErrConflict unless the document exists
	// and field equals value. Matches are checked before any write applies.
	Match(path, field string, value any) Batch
	Commit(ctx context.Context) error
}

// Path joins segments into a document or collection path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) (collection, id string, err error) {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if path == "" || len(parts)%2 != 0 {
		return "", "", ErrInvalidPath
	}
	for _, p := range parts {
		if p == "" {
			return "", "", ErrInvalidPath
		}
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

func decodeMap(data map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "firestore",
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
