package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
)

// ErrNoDocument is returned by a Collection when the addressed id does not exist.
// The writer turns it into model.ResourceNotFoundError; it never leaves this package.
var ErrNoDocument = errors.New("document not found")

// ErrDocumentExists is returned by InsertAt when the id is already taken,
// e.g. a concurrent transaction created it after this one saw it missing.
var ErrDocumentExists = errors.New("document already exists")

// Collection là storage primitives của một loại document.
// Repository chỉ phụ thuộc vào semantics này, không phụ thuộc engine cụ thể.
type Collection[T any] interface {
	// Get loads one document. Inside a transaction the engine locks it until commit.
	Get(ctx context.Context, id uuid.UUID) (T, error)

	Find(ctx context.Context, pred query.Predicate, opts query.FindOptions) ([]T, error)
	Count(ctx context.Context, pred query.Predicate) (int64, error)

	// FindIDs returns only the ids matching pred (cross-entity pre-query).
	FindIDs(ctx context.Context, pred query.Predicate) ([]uuid.UUID, error)

	// Resolve projects id + display field for the given ids in a single lookup.
	// Unknown ids are silently absent from the result. Inside a transaction the
	// returned rows stay locked until commit so they cannot be deleted meanwhile.
	Resolve(ctx context.Context, ids []uuid.UUID) ([]model.Ref, error)

	// Insert stores doc under a storage-assigned id and returns the stored copy.
	Insert(ctx context.Context, doc T) (T, error)

	// InsertAt stores doc under the caller-chosen id, ErrDocumentExists if taken.
	InsertAt(ctx context.Context, id uuid.UUID, doc T) (T, error)

	// Replace overwrites the whole document at id, ErrNoDocument if missing.
	Replace(ctx context.Context, id uuid.UUID, doc T) (T, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// PullRef removes ref from the reference array of every document in ids.
	PullRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) error

	// PushRef appends ref to the reference array of every document in ids
	// that does not already hold it. matched counts the documents of ids that
	// exist, whether or not they already held ref.
	PushRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) (matched int64, err error)
}

// Session gom các collection dùng chung một transaction (hoặc autocommit với Reader)
type Session interface {
	Authors() Collection[model.Author]
	Books() Collection[model.Book]
}

// Store là entry point của storage engine.
type Store interface {
	// Reader returns an autocommit session for read paths.
	Reader() Session

	// WithinTx runs fn inside one transaction: commit when fn returns nil,
	// rollback on error or panic. The session is released on every path.
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}
