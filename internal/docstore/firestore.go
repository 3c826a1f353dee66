package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a *firestore.Client to Store. Reads are retried with
// exponential backoff on transient errors; writes are issued once.
type Firestore struct {
	client     *firestore.Client
	newBackOff func() backoff.BackOff
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client, newBackOff: readBackOff}
}

func readBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 10 * time.Second
	return b
}

func (f *Firestore) doc(path string) (*firestore.DocumentRef, error) {
	if _, _, err := splitPath(path); err != nil {
		return nil, fmt.Errorf("%w: %q", err, path)
	}
	ref := f.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return ref, nil
}

func (f *Firestore) Get(ctx context.Context, path string) (*Document, error) {
	ref, err := f.doc(path)
	if err != nil {
		return nil, err
	}

	var snap *firestore.DocumentSnapshot
	err = f.retry(ctx, func() error {
		s, err := ref.Get(ctx)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		return nil, mapError(err, path)
	}
	return fromSnapshot(path, snap), nil
}

func (f *Firestore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	_, err = ref.Set(ctx, toFirestore(data), opts...)
	return mapError(err, path)
}

func (f *Firestore) Create(ctx context.Context, path string, data map[string]any) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, toFirestore(data))
	return mapError(err, path)
}

func (f *Firestore) Query(ctx context.Context, q Query) ([]*Document, error) {
	fq := f.client.Collection(q.Collection).Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Field, "==", flt.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	var snaps []*firestore.DocumentSnapshot
	err := f.retry(ctx, func() error {
		snaps = snaps[:0]
		it := fq.Documents(ctx)
		defer it.Stop()
		for {
			s, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			snaps = append(snaps, s)
		}
	})
	if err != nil {
		return nil, mapError(err, q.Collection)
	}

	out := make([]*Document, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, fromSnapshot(Path(q.Collection, s.Ref.ID), s))
	}
	return out, nil
}

func (f *Firestore) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(f.newBackOff(), ctx))
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}

func (f *Firestore) Batch() Batch {
	return &firestoreBatch{f: f}
}

type firestoreOp struct {
	kind  string
	ref   *firestore.DocumentRef
	data  map[string]any
	merge bool
	err   error
}

type firestoreMatch struct {
	ref   *firestore.DocumentRef
	path  string
	field string
	value any
	err   error
}

// firestoreBatch commits through RunTransaction so that a Create conflict
// or a failed Match rolls back every other write in the group.
type firestoreBatch struct {
	f       *Firestore
	ops     []firestoreOp
	matches []firestoreMatch
}

func (b *firestoreBatch) add(kind, path string, data map[string]any, merge bool) Batch {
	ref, err := b.f.doc(path)
	b.ops = append(b.ops, firestoreOp{kind: kind, ref: ref, data: data, merge: merge, err: err})
	return b
}

func (b *firestoreBatch) Create(path string, data map[string]any) Batch {
	return b.add("create", path, data, false)
}

func (b *firestoreBatch) Set(path string, data map[string]any, merge bool) Batch {
	return b.add("set", path, data, merge)
}

func (b *firestoreBatch) Match(path, field string, value any) Batch {
	ref, err := b.f.doc(path)
	b.matches = append(b.matches, firestoreMatch{ref: ref, path: path, field: field, value: value, err: err})
	return b
}

func (b *firestoreBatch) Commit(ctx context.Context) error {
	for _, op := range b.ops {
		if op.err != nil {
			return op.err
		}
	}
	for _, mt := range b.matches {
		if mt.err != nil {
			return mt.err
		}
	}
	err := b.f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// transactions read before they write
		for _, mt := range b.matches {
			snap, err := tx.Get(mt.ref)
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("%w: %s is gone", ErrConflict, mt.path)
			}
			if err != nil {
				return err
			}
			if v, ok := lookup(snap.Data(), mt.field); !ok || !equalValues(v, mt.value) {
				return fmt.Errorf("%w: %s.%s changed", ErrConflict, mt.path, mt.field)
			}
		}
		for _, op := range b.ops {
			var err error
			switch op.kind {
			case "create":
				err = tx.Create(op.ref, toFirestore(op.data))
			case "set":
				if op.merge {
					err = tx.Set(op.ref, toFirestore(op.data), firestore.MergeAll)
				} else {
					err = tx.Set(op.ref, toFirestore(op.data))
				}
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return mapError(err, "batch")
}

func fromSnapshot(path string, snap *firestore.DocumentSnapshot) *Document {
	return &Document{
		ID:     snap.Ref.ID,
		Path:   path,
		Data:   snap.Data(),
		decode: snap.DataTo,
	}
}

func toFirestore(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch x := v.(type) {
		case sentinel:
			if x == ServerTimestamp {
				out[k] = firestore.ServerTimestamp
			} else {
				out[k] = firestore.Delete
			}
		case arrayOp:
			if x.union {
				out[k] = firestore.ArrayUnion(x.values...)
			} else {
				out[k] = firestore.ArrayRemove(x.values...)
			}
		case map[string]any:
			out[k] = toFirestore(x)
		default:
			out[k] = v
		}
	}
	return out
}

func mapError(err error, path string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s: %v", ErrAlreadyExists, path, err)
	}
	return err
}
