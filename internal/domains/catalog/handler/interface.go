package handler

import (
	"context"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// AuthorRepository - implement bởi repository.AuthorRepository
type AuthorRepository interface {
	Create(ctx context.Context, in model.AuthorInput) (*model.AuthorResponse, error)
	Count(ctx context.Context, filter model.AuthorFilter) (int64, error)
	Find(ctx context.Context, filter model.AuthorFilter, page model.Page) ([]model.AuthorResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.AuthorResponse, error)
	Replace(ctx context.Context, id uuid.UUID, in model.AuthorInput) (*model.AuthorResponse, error)
	Update(ctx context.Context, id uuid.UUID, patch model.AuthorPatch) (*model.AuthorResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookRepository - implement bởi repository.BookRepository
type BookRepository interface {
	Create(ctx context.Context, in model.BookInput) (*model.BookResponse, error)
	Count(ctx context.Context, filter model.BookFilter) (int64, error)
	Find(ctx context.Context, filter model.BookFilter, page model.Page) ([]model.BookResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.BookResponse, error)
	Replace(ctx context.Context, id uuid.UUID, in model.BookInput) (*model.BookResponse, error)
	Update(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.BookResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
