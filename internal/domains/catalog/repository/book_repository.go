package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// BookRepository - CRUD + paginated find cho Book.
type BookRepository struct {
	store  Store
	errs   *ErrorAdapter
	writer *writer[model.Book, model.Author]
}

func NewBookRepository(store Store, errs *ErrorAdapter, policy ReplacePolicy) *BookRepository {
	return &BookRepository{
		store: store,
		errs:  errs,
		writer: &writer[model.Book, model.Author]{
			resource:    model.ResourceBook,
			refField:    "authors",
			store:       store,
			policy:      policy,
			primary:     func(s Session) Collection[model.Book] { return s.Books() },
			counterpart: func(s Session) Collection[model.Author] { return s.Authors() },
		},
	}
}

func (r *BookRepository) Create(ctx context.Context, in model.BookInput) (*model.BookResponse, error) {
	book, refs, err := r.writer.create(ctx, in.ToDocument())
	if err != nil {
		return nil, r.errs.Adapt(err)
	}
	resp := bookFromSummary(book, refs)
	return &resp, nil
}

func (r *BookRepository) Count(ctx context.Context, filter model.BookFilter) (int64, error) {
	s := r.store.Reader()

	pred, err := translateBookFilter(ctx, s, filter)
	if err != nil {
		return 0, r.errs.Adapt(err)
	}

	total, err := s.Books().Count(ctx, pred)
	if err != nil {
		return 0, r.errs.Adapt(err)
	}
	return total, nil
}

func (r *BookRepository) Find(ctx context.Context, filter model.BookFilter, page model.Page) ([]model.BookResponse, error) {
	opts, err := findOptions(page, model.BookSortFields)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	s := r.store.Reader()
	pred, err := translateBookFilter(ctx, s, filter)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	books, err := s.Books().Find(ctx, pred, opts)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	index, err := refIndex(ctx, s.Authors(), books)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	out := make([]model.BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, bookFromIndex(b, index))
	}
	return out, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BookResponse, error) {
	s := r.store.Reader()

	book, err := s.Books().Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			err = model.NewNotFoundError(model.ResourceBook, id.String())
		}
		return nil, r.errs.Adapt(err)
	}

	index, err := refIndex(ctx, s.Authors(), []model.Book{book})
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	resp := bookFromIndex(book, index)
	return &resp, nil
}

func (r *BookRepository) Replace(ctx context.Context, id uuid.UUID, in model.BookInput) (*model.BookResponse, error) {
	book, refs, err := r.writer.replace(ctx, id, in.ToDocument())
	if err != nil {
		return nil, r.errs.Adapt(err)
	}
	resp := bookFromSummary(book, refs)
	return &resp, nil
}

func (r *BookRepository) Update(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.BookResponse, error) {
	book, refs, err := r.writer.update(ctx, id, patch.Apply)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}
	resp := bookFromSummary(book, refs)
	return &resp, nil
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.writer.delete(ctx, id); err != nil {
		return r.errs.Adapt(err)
	}
	return nil
}
