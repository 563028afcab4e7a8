package repository

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
)

// === FILTER TRANSLATOR ===

// translateAuthorFilter dịch AuthorFilter thành predicate.
// books__title__ilike cần pre-query trên books trước.
func translateAuthorFilter(ctx context.Context, s Session, f model.AuthorFilter) (query.Predicate, error) {
	var preds query.And

	if f.NameILike != nil {
		preds = append(preds, query.ILike{Field: "name", Pattern: *f.NameILike})
	}
	if r, ok := rangeOf("birthDate", f.BirthDateGte, f.BirthDateLte); ok {
		preds = append(preds, r)
	}
	if f.BooksTitleILike != nil {
		cross, err := crossFilter(ctx, s.Books(), "title", *f.BooksTitleILike, "books")
		if err != nil {
			return nil, err
		}
		preds = append(preds, cross)
	}

	return query.Simplify(preds), nil
}

func translateBookFilter(ctx context.Context, s Session, f model.BookFilter) (query.Predicate, error) {
	var preds query.And

	if f.TitleILike != nil {
		preds = append(preds, query.ILike{Field: "title", Pattern: *f.TitleILike})
	}
	if r, ok := rangeOf("numberOfPages", f.NumberOfPagesGte, f.NumberOfPagesLte); ok {
		preds = append(preds, r)
	}
	if f.AuthorsNameILike != nil {
		cross, err := crossFilter(ctx, s.Authors(), "name", *f.AuthorsNameILike, "authors")
		if err != nil {
			return nil, err
		}
		preds = append(preds, cross)
	}

	return query.Simplify(preds), nil
}

// rangeOf gộp __gte/__lte của cùng một field thành một Range
func rangeOf[V any](field string, gte, lte *V) (query.Range, bool) {
	if gte == nil && lte == nil {
		return query.Range{}, false
	}
	r := query.Range{Field: field}
	if gte != nil {
		r.Gte = *gte
	}
	if lte != nil {
		r.Lte = *lte
	}
	return r, true
}

// crossFilter runs the pre-query on the counterpart collection. Zero matches
// still produce a ContainsAny with an empty id set, which matches nothing.
func crossFilter[C any](ctx context.Context, counterpart Collection[C], displayField, pattern, refField string) (query.Predicate, error) {
	ids, err := counterpart.FindIDs(ctx, query.ILike{Field: displayField, Pattern: pattern})
	if err != nil {
		return nil, fmt.Errorf("cross filter on %s: %w", refField, err)
	}
	return query.ContainsAny{Field: refField, IDs: ids}, nil
}

// === SORT & PAGINATION ===

// findOptions validate page + sort và build FindOptions.
// Không clamp: range check là việc của handler, ở đây chỉ chặn giá trị âm.
func findOptions(page model.Page, allowed []string) (query.FindOptions, error) {
	page = page.WithDefaults()

	if page.Page < 1 {
		return query.FindOptions{}, model.NewValidationError("page", "must be greater than or equal to 1")
	}
	if page.PageSize < 1 {
		return query.FindOptions{}, model.NewValidationError("pageSize", "must be greater than or equal to 1")
	}
	// (page-1)*pageSize không được tràn int
	if page.Page-1 > math.MaxInt/page.PageSize {
		return query.FindOptions{}, model.NewValidationError("page", "is too large")
	}

	sort := query.ParseSort(page.Sort)
	if !slices.Contains(allowed, sort.Field) {
		return query.FindOptions{}, model.NewValidationError("sort",
			fmt.Sprintf("must be one of %s, optionally prefixed with -", strings.Join(allowed, ", ")))
	}

	return query.FindOptions{
		Sort:   sort,
		Limit:  page.PageSize,
		Offset: page.Offset(),
	}, nil
}
