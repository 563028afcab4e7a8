package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// === DTO ASSEMBLY ===
// Hai cách build response:
//   - from summary: dùng output của resolver lúc ghi, không fetch lại
//   - from index: find/findById expand cả page bằng một lần Resolve

func authorFromSummary(a model.Author, refs []model.Ref) model.AuthorResponse {
	books := make([]model.AuthorBook, 0, len(refs))
	for _, r := range refs {
		books = append(books, model.AuthorBook{ID: r.ID, Title: r.Display})
	}
	return newAuthorResponse(a, books)
}

func authorFromIndex(a model.Author, index map[uuid.UUID]model.Ref) model.AuthorResponse {
	books := make([]model.AuthorBook, 0, len(a.BookIDs))
	for _, id := range a.BookIDs {
		if r, ok := index[id]; ok {
			books = append(books, model.AuthorBook{ID: r.ID, Title: r.Display})
		}
	}
	return newAuthorResponse(a, books)
}

func newAuthorResponse(a model.Author, books []model.AuthorBook) model.AuthorResponse {
	resp := model.AuthorResponse{
		ID:    a.ID,
		Name:  a.Name,
		Books: books,
	}
	if a.BirthDate != nil {
		d := a.BirthDate.Format(model.DateLayout)
		resp.BirthDate = &d
	}
	return resp
}

func bookFromSummary(b model.Book, refs []model.Ref) model.BookResponse {
	authors := make([]model.BookAuthor, 0, len(refs))
	for _, r := range refs {
		authors = append(authors, model.BookAuthor{ID: r.ID, Name: r.Display})
	}
	return newBookResponse(b, authors)
}

func bookFromIndex(b model.Book, index map[uuid.UUID]model.Ref) model.BookResponse {
	authors := make([]model.BookAuthor, 0, len(b.AuthorIDs))
	for _, id := range b.AuthorIDs {
		if r, ok := index[id]; ok {
			authors = append(authors, model.BookAuthor{ID: r.ID, Name: r.Display})
		}
	}
	return newBookResponse(b, authors)
}

func newBookResponse(b model.Book, authors []model.BookAuthor) model.BookResponse {
	return model.BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Description:   b.Description,
		Price:         b.Price,
		NumberOfPages: b.NumberOfPages,
		Authors:       authors,
	}
}

// refIndex resolve toàn bộ reference của một page trong một lookup
func refIndex[P model.Document, C any](ctx context.Context, coll Collection[C], docs []P) (map[uuid.UUID]model.Ref, error) {
	var ids []uuid.UUID
	for _, d := range docs {
		ids = append(ids, d.RefIDs()...)
	}

	index := make(map[uuid.UUID]model.Ref)
	if len(ids) == 0 {
		return index, nil
	}

	refs, err := coll.Resolve(ctx, distinctIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("expand references: %w", err)
	}
	for _, r := range refs {
		index[r.ID] = r
	}
	return index, nil
}
