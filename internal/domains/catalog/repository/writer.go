package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// ReplacePolicy quyết định replace làm gì khi id chưa tồn tại
type ReplacePolicy int

const (
	// ReplaceUpsert tạo document mới tại id đó
	ReplaceUpsert ReplacePolicy = iota
	// ReplaceRequireExisting trả về ResourceNotFoundError giống update
	ReplaceRequireExisting
)

// writer điều phối mọi thao tác ghi của một loại entity P, có reference sang C.
// Mỗi thao tác chạy trong đúng một transaction: primary write + reconcile phía bên kia
// cùng commit hoặc cùng rollback.
type writer[P model.Document, C any] struct {
	resource    string
	refField    string
	store       Store
	policy      ReplacePolicy
	primary     func(Session) Collection[P]
	counterpart func(Session) Collection[C]
}

func (w *writer[P, C]) create(ctx context.Context, doc P) (P, []model.Ref, error) {
	var (
		stored P
		refs   []model.Ref
	)

	if err := doc.Validate(); err != nil {
		return stored, nil, err
	}

	err := w.store.WithinTx(ctx, func(ctx context.Context, s Session) error {
		var err error
		refs, err = resolveRefs(ctx, w.counterpart(s), w.refField, doc.RefIDs())
		if err != nil {
			return err
		}

		stored, err = w.primary(s).Insert(ctx, doc)
		if err != nil {
			return fmt.Errorf("insert %s: %w", w.resource, err)
		}

		return w.reconcile(ctx, s, stored.Key(), nil, stored.RefIDs())
	})
	return stored, refs, err
}

func (w *writer[P, C]) replace(ctx context.Context, id uuid.UUID, doc P) (P, []model.Ref, error) {
	var (
		stored P
		refs   []model.Ref
	)

	if err := doc.Validate(); err != nil {
		return stored, nil, err
	}

	err := w.store.WithinTx(ctx, func(ctx context.Context, s Session) error {
		var err error
		refs, err = resolveRefs(ctx, w.counterpart(s), w.refField, doc.RefIDs())
		if err != nil {
			return err
		}

		var priorRefs []uuid.UUID
		prior, err := w.primary(s).Get(ctx, id)
		switch {
		case err == nil:
			priorRefs = prior.RefIDs()
			stored, err = w.primary(s).Replace(ctx, id, doc)
		case errors.Is(err, ErrNoDocument):
			if w.policy == ReplaceRequireExisting {
				return w.notFound(id)
			}
			stored, priorRefs, err = w.insertAt(ctx, s, id, doc)
		default:
			return fmt.Errorf("load %s: %w", w.resource, err)
		}
		if err != nil {
			if errors.Is(err, ErrNoDocument) {
				return w.notFound(id)
			}
			return fmt.Errorf("replace %s: %w", w.resource, err)
		}

		return w.reconcile(ctx, s, id, priorRefs, stored.RefIDs())
	})
	return stored, refs, err
}

// insertAt tạo document tại id. Nếu transaction khác vừa tạo cùng id thì
// lock bản đã commit và replace, prior refs lấy từ bản đó.
func (w *writer[P, C]) insertAt(ctx context.Context, s Session, id uuid.UUID, doc P) (P, []uuid.UUID, error) {
	stored, err := w.primary(s).InsertAt(ctx, id, doc)
	if !errors.Is(err, ErrDocumentExists) {
		return stored, nil, err
	}

	prior, err := w.primary(s).Get(ctx, id)
	if err != nil {
		return stored, nil, err
	}
	stored, err = w.primary(s).Replace(ctx, id, doc)
	return stored, prior.RefIDs(), err
}

// update áp patch lên document hiện tại. apply trả về bản đã patch và
// cờ cho biết reference list có bị đụng tới không.
func (w *writer[P, C]) update(ctx context.Context, id uuid.UUID, apply func(P) (P, bool)) (P, []model.Ref, error) {
	var (
		stored P
		refs   []model.Ref
	)

	err := w.store.WithinTx(ctx, func(ctx context.Context, s Session) error {
		prior, err := w.primary(s).Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNoDocument) {
				return w.notFound(id)
			}
			return fmt.Errorf("load %s: %w", w.resource, err)
		}

		next, refsChanged := apply(prior)
		if err := next.Validate(); err != nil {
			return err
		}

		if refsChanged {
			refs, err = resolveRefs(ctx, w.counterpart(s), w.refField, next.RefIDs())
		} else {
			refs, err = summarize(ctx, w.counterpart(s), next.RefIDs())
		}
		if err != nil {
			return err
		}

		stored, err = w.primary(s).Replace(ctx, id, next)
		if err != nil {
			if errors.Is(err, ErrNoDocument) {
				return w.notFound(id)
			}
			return fmt.Errorf("update %s: %w", w.resource, err)
		}

		if !refsChanged {
			return nil
		}
		return w.reconcile(ctx, s, id, prior.RefIDs(), stored.RefIDs())
	})
	return stored, refs, err
}

func (w *writer[P, C]) delete(ctx context.Context, id uuid.UUID) error {
	return w.store.WithinTx(ctx, func(ctx context.Context, s Session) error {
		prior, err := w.primary(s).Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNoDocument) {
				return w.notFound(id)
			}
			return fmt.Errorf("load %s: %w", w.resource, err)
		}

		if err := w.primary(s).Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNoDocument) {
				return w.notFound(id)
			}
			return fmt.Errorf("delete %s: %w", w.resource, err)
		}

		return w.reconcile(ctx, s, id, prior.RefIDs(), nil)
	})
}

// reconcile đồng bộ back-reference phía counterpart.
// removed và added luôn disjoint; set rỗng thì không gửi update nào.
// Push khớp ít row hơn added nghĩa là counterpart đã bị xóa sau khi resolve.
func (w *writer[P, C]) reconcile(ctx context.Context, s Session, id uuid.UUID, prior, next []uuid.UUID) error {
	counterpart := w.counterpart(s)

	if removed := diffIDs(prior, next); len(removed) > 0 {
		if err := counterpart.PullRef(ctx, removed, id); err != nil {
			return fmt.Errorf("pull %s back-references: %w", w.resource, err)
		}
	}
	if added := diffIDs(next, prior); len(added) > 0 {
		matched, err := counterpart.PushRef(ctx, added, id)
		if err != nil {
			return fmt.Errorf("push %s back-references: %w", w.resource, err)
		}
		if matched < int64(len(added)) {
			return invalidRefs(w.refField)
		}
	}
	return nil
}

func (w *writer[P, C]) notFound(id uuid.UUID) error {
	return model.NewNotFoundError(w.resource, id.String())
}

// summarize resolve refs đã lưu sẵn, không check lại tính hợp lệ
func summarize[C any](ctx context.Context, coll Collection[C], ids []uuid.UUID) ([]model.Ref, error) {
	if len(ids) == 0 {
		return []model.Ref{}, nil
	}
	refs, err := coll.Resolve(ctx, distinctIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("resolve references: %w", err)
	}
	return refs, nil
}
