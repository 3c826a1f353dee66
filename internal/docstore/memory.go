package docstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
)

const documentsTable = "documents"

type record struct {
	Path       string
	Collection string
	ID         string
	Data       map[string]any
}

var memorySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		documentsTable: {
			Name: documentsTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Path"},
				},
				"collection": {
					Name:    "collection",
					Indexer: &memdb.StringFieldIndex{Field: "Collection"},
				},
			},
		},
	},
}

// Memory is an in-process Store backed by go-memdb. Batches run inside a
// single write transaction, so they are all-or-nothing like Firestore's.
type Memory struct {
	db  *memdb.MemDB
	now func() time.Time
}

type MemoryOption func(*Memory)

// WithClock overrides the time used for ServerTimestamp fields.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) (*Memory, error) {
	db, err := memdb.NewMemDB(memorySchema)
	if err != nil {
		return nil, err
	}
	m := &Memory{db: db, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func (m *Memory) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := splitPath(path); err != nil {
		return nil, err
	}
	txn := m.db.Txn(false)
	raw, err := txn.First(documentsTable, "id", path)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return toDocument(raw.(*record)), nil
}

func (m *Memory) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	return m.Batch().Set(path, data, merge).Commit(ctx)
}

func (m *Memory) Create(ctx context.Context, path string, data map[string]any) error {
	return m.Batch().Create(path, data).Commit(ctx)
}

func (m *Memory) Query(ctx context.Context, q Query) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := m.db.Txn(false)
	it, err := txn.Get(documentsTable, "collection", q.Collection)
	if err != nil {
		return nil, err
	}

	var matched []*record
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*record)
		if matches(rec.Data, q.Filters) {
			matched = append(matched, rec)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.OrderBy != "" {
			a, _ := lookup(matched[i].Data, q.OrderBy)
			b, _ := lookup(matched[j].Data, q.OrderBy)
			if c := compareValues(a, b); c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return matched[i].ID < matched[j].ID
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]*Document, 0, len(matched))
	for _, rec := range matched {
		out = append(out, toDocument(rec))
	}
	return out, nil
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := lookup(data, f.Field)
		if !ok || !equalValues(v, f.Value) {
			return false
		}
	}
	return true
}

func toDocument(rec *record) *Document {
	return &Document{ID: rec.ID, Path: rec.Path, Data: copyMap(rec.Data)}
}

func (m *Memory) Batch() Batch {
	return &memoryBatch{m: m}
}

type memoryOp struct {
	kind  string
	path  string
	data  map[string]any
	merge bool
}

type memoryMatch struct {
	path  string
	field string
	value any
}

type memoryBatch struct {
	m       *Memory
	ops     []memoryOp
	matches []memoryMatch
}

func (b *memoryBatch) Create(path string, data map[string]any) Batch {
	b.ops = append(b.ops, memoryOp{kind: "create", path: path, data: data})
	return b
}

func (b *memoryBatch) Set(path string, data map[string]any, merge bool) Batch {
	b.ops = append(b.ops, memoryOp{kind: "set", path: path, data: data, merge: merge})
	return b
}

func (b *memoryBatch) Match(path, field string, value any) Batch {
	b.matches = append(b.matches, memoryMatch{path: path, field: field, value: value})
	return b
}

func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := b.m.now().UTC()

	txn := b.m.db.Txn(true)
	defer txn.Abort()

	for _, mt := range b.matches {
		if err := checkMatch(txn, mt); err != nil {
			return err
		}
	}
	for _, op := range b.ops {
		if err := applyOp(txn, op, now); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

func applyOp(txn *memdb.Txn, op memoryOp, now time.Time) error {
	collection, id, err := splitPath(op.path)
	if err != nil {
		return fmt.Errorf("%w: %q", err, op.path)
	}
	raw, err := txn.First(documentsTable, "id", op.path)
	if err != nil {
		return err
	}

	if op.kind == "create" && raw != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, op.path)
	}

	data := resolve(op.data, now)
	if op.merge && raw != nil {
		data = merge(copyMap(raw.(*record).Data), op.data, now)
	}
	return txn.Insert(documentsTable, &record{
		Path:       op.path,
		Collection: collection,
		ID:         id,
		Data:       data,
	})
}

func checkMatch(txn *memdb.Txn, mt memoryMatch) error {
	if _, _, err := splitPath(mt.path); err != nil {
		return fmt.Errorf("%w: %q", err, mt.path)
	}
	raw, err := txn.First(documentsTable, "id", mt.path)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: %s is gone", ErrConflict, mt.path)
	}
	if v, ok := lookup(raw.(*record).Data, mt.field); !ok || !equalValues(v, mt.value) {
		return fmt.Errorf("%w: %s.%s changed", ErrConflict, mt.path, mt.field)
	}
	return nil
}
