package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// AuthorRepository - CRUD + paginated find cho Author.
// Không giữ state theo request nên dùng chung cho mọi goroutine.
type AuthorRepository struct {
	store  Store
	errs   *ErrorAdapter
	writer *writer[model.Author, model.Book]
}

func NewAuthorRepository(store Store, errs *ErrorAdapter, policy ReplacePolicy) *AuthorRepository {
	return &AuthorRepository{
		store: store,
		errs:  errs,
		writer: &writer[model.Author, model.Book]{
			resource:    model.ResourceAuthor,
			refField:    "books",
			store:       store,
			policy:      policy,
			primary:     func(s Session) Collection[model.Author] { return s.Authors() },
			counterpart: func(s Session) Collection[model.Book] { return s.Books() },
		},
	}
}

func (r *AuthorRepository) Create(ctx context.Context, in model.AuthorInput) (*model.AuthorResponse, error) {
	author, refs, err := r.writer.create(ctx, in.ToDocument())
	if err != nil {
		return nil, r.errs.Adapt(err)
	}
	resp := authorFromSummary(author, refs)
	return &resp, nil
}

func (r *AuthorRepository) Count(ctx context.Context, filter model.AuthorFilter) (int64, error) {
	s := r.store.Reader()

	pred, err := translateAuthorFilter(ctx, s, filter)
	if err != nil {
		return 0, r.errs.Adapt(err)
	}

	total, err := s.Authors().Count(ctx, pred)
	if err != nil {
		return 0, r.errs.Adapt(err)
	}
	return total, nil
}

func (r *AuthorRepository) Find(ctx context.Context, filter model.AuthorFilter, page model.Page) ([]model.AuthorResponse, error) {
	opts, err := findOptions(page, model.AuthorSortFields)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	s := r.store.Reader()
	pred, err := translateAuthorFilter(ctx, s, filter)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	authors, err := s.Authors().Find(ctx, pred, opts)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	index, err := refIndex(ctx, s.Books(), authors)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	out := make([]model.AuthorResponse, 0, len(authors))
	for _, a := range authors {
		out = append(out, authorFromIndex(a, index))
	}
	return out, nil
}

func (r *AuthorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AuthorResponse, error) {
	s := r.store.Reader()

	author, err := s.Authors().Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			err = model.NewNotFoundError(model.ResourceAuthor, id.String())
		}
		return nil, r.errs.Adapt(err)
	}

	index, err := refIndex(ctx, s.Books(), []model.Author{author})
	if err != nil {
		return nil, r.errs.Adapt(err)
	}

	resp := authorFromIndex(author, index)
	return &resp, nil
}

func (r *AuthorRepository) Replace(ctx context.Context, id uuid.UUID, in model.AuthorInput) (*model.AuthorResponse, error) {
	author, refs, err := r.writer.replace(ctx, id, in.ToDocument())
	if err != nil {
		return nil, r.errs.Adapt(err)
	}
	resp := authorFromSummary(author, refs)
	return &resp, nil
}

func (r *AuthorRepository) Update(ctx context.Context, id uuid.UUID, patch model.AuthorPatch) (*model.AuthorResponse, error) {
	author, refs, err := r.writer.update(ctx, id, patch.Apply)
	if err != nil {
		return nil, r.errs.Adapt(err)
	}
	resp := authorFromSummary(author, refs)
	return &resp, nil
}

func (r *AuthorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.writer.delete(ctx, id); err != nil {
		return r.errs.Adapt(err)
	}
	return nil
}
