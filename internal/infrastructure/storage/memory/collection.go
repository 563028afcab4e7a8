package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
	"catalog-backend/internal/domains/catalog/repository"
)

// collection implements repository.Collection[T] trên một map.
// rw/txMu nil nghĩa là đang ở trong transaction, map là bản clone riêng.
type collection[T model.Record[T]] struct {
	txMu   *sync.Mutex
	rw     *sync.RWMutex
	fields []string
	docs   func() map[uuid.UUID]T
}

func (c *collection[T]) readLock() func() {
	if c.rw == nil {
		return func() {}
	}
	c.rw.RLock()
	return c.rw.RUnlock
}

func (c *collection[T]) writeLock() func() {
	if c.rw == nil {
		return func() {}
	}
	c.txMu.Lock()
	c.rw.Lock()
	return func() {
		c.rw.Unlock()
		c.txMu.Unlock()
	}
}

// === READ ===

func (c *collection[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	defer c.readLock()()

	doc, ok := c.docs()[id]
	if !ok {
		return zero, repository.ErrNoDocument
	}
	return detach(doc), nil
}

func (c *collection[T]) Find(ctx context.Context, pred query.Predicate, opts query.FindOptions) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !slices.Contains(c.fields, opts.Sort.Field) && opts.Sort.Field != "" {
		return nil, fmt.Errorf("%w: %s", query.ErrUnknownField, opts.Sort.Field)
	}
	defer c.readLock()()

	matched, err := c.filter(pred)
	if err != nil {
		return nil, err
	}
	sortDocs(matched, opts.Sort)

	if opts.Offset < 0 || opts.Limit < 0 {
		return nil, fmt.Errorf("invalid page window: offset %d, limit %d", opts.Offset, opts.Limit)
	}
	if opts.Offset >= len(matched) {
		return []T{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, doc := range matched {
		out = append(out, detach(doc))
	}
	return out, nil
}

func (c *collection[T]) Count(ctx context.Context, pred query.Predicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer c.readLock()()

	matched, err := c.filter(pred)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (c *collection[T]) FindIDs(ctx context.Context, pred query.Predicate) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer c.readLock()()

	matched, err := c.filter(pred)
	if err != nil {
		return nil, err
	}
	sortDocs(matched, query.Sort{Field: "id"})

	ids := make([]uuid.UUID, 0, len(matched))
	for _, doc := range matched {
		ids = append(ids, doc.Key())
	}
	return ids, nil
}

func (c *collection[T]) Resolve(ctx context.Context, ids []uuid.UUID) ([]model.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer c.readLock()()

	docs := c.docs()
	refs := make([]model.Ref, 0, len(ids))
	for _, id := range ids {
		if doc, ok := docs[id]; ok {
			refs = append(refs, model.Ref{ID: id, Display: doc.Display()})
		}
	}
	return refs, nil
}

// === WRITE ===

func (c *collection[T]) Insert(ctx context.Context, doc T) (T, error) {
	if err := ctx.Err(); err != nil {
		return doc, err
	}
	defer c.writeLock()()

	stored := detach(doc.WithKey(uuid.New()))
	c.docs()[stored.Key()] = stored
	return detach(stored), nil
}

func (c *collection[T]) InsertAt(ctx context.Context, id uuid.UUID, doc T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	defer c.writeLock()()

	docs := c.docs()
	if _, ok := docs[id]; ok {
		return zero, repository.ErrDocumentExists
	}

	stored := detach(doc.WithKey(id))
	docs[id] = stored
	return detach(stored), nil
}

func (c *collection[T]) Replace(ctx context.Context, id uuid.UUID, doc T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	defer c.writeLock()()

	docs := c.docs()
	if _, ok := docs[id]; !ok {
		return zero, repository.ErrNoDocument
	}

	stored := detach(doc.WithKey(id))
	docs[id] = stored
	return detach(stored), nil
}

func (c *collection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer c.writeLock()()

	docs := c.docs()
	if _, ok := docs[id]; !ok {
		return repository.ErrNoDocument
	}
	delete(docs, id)
	return nil
}

func (c *collection[T]) PullRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer c.writeLock()()

	docs := c.docs()
	for _, id := range ids {
		doc, ok := docs[id]
		if !ok {
			continue
		}
		kept := make([]uuid.UUID, 0, len(doc.RefIDs()))
		for _, r := range doc.RefIDs() {
			if r != ref {
				kept = append(kept, r)
			}
		}
		docs[id] = doc.WithRefIDs(kept)
	}
	return nil
}

func (c *collection[T]) PushRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer c.writeLock()()

	docs := c.docs()
	var matched int64
	for _, id := range ids {
		doc, ok := docs[id]
		if !ok {
			continue
		}
		matched++
		if slices.Contains(doc.RefIDs(), ref) {
			continue
		}
		docs[id] = doc.WithRefIDs(append(slices.Clone(doc.RefIDs()), ref))
	}
	return matched, nil
}

// === HELPERS ===

func (c *collection[T]) filter(pred query.Predicate) ([]T, error) {
	var out []T
	for _, doc := range c.docs() {
		ok, err := match(doc, pred, c.fields)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// detach copy reference slice để caller không sửa được state bên trong
func detach[T model.Record[T]](doc T) T {
	return doc.WithRefIDs(doc.RefIDs())
}

// sortDocs sort theo field, null đứng cuối khi asc và đứng đầu khi desc,
// tie-break bằng id tăng dần để page ổn định.
func sortDocs[T model.Record[T]](docs []T, s query.Sort) {
	field := s.Field
	if field == "" {
		field = "id"
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Field(field), docs[j].Field(field)
		switch {
		case a == nil && b == nil:
		case a == nil:
			return s.Desc
		case b == nil:
			return !s.Desc
		default:
			if cmp, ok := compare(a, b); ok && cmp != 0 {
				if s.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		ki, kj := docs[i].Key(), docs[j].Key()
		return bytes.Compare(ki[:], kj[:]) < 0
	})
}
