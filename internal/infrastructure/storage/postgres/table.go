package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"catalog-backend/internal/domains/catalog/model"
)

// table mô tả cách một document type map xuống một bảng Postgres.
// columns[0] luôn là id; values trả về giá trị các cột còn lại theo đúng thứ tự.
type table[T model.Record[T]] struct {
	name    string
	columns []string
	fields  map[string]string // logical field -> column
	display string
	refs    string
	scan    func(row pgx.Row) (T, error)
	values  func(doc T) []any
}

// writable = columns trừ id
func (t *table[T]) writable() []string {
	return t.columns[1:]
}

var authorsTable = &table[model.Author]{
	name:    "authors",
	columns: []string{"id", "name", "birth_date", "book_ids"},
	fields: map[string]string{
		"id":        "id",
		"name":      "name",
		"birthDate": "birth_date",
		"books":     "book_ids",
	},
	display: "name",
	refs:    "book_ids",
	scan: func(row pgx.Row) (model.Author, error) {
		var (
			a         model.Author
			birthDate *time.Time
		)
		if err := row.Scan(&a.ID, &a.Name, &birthDate, &a.BookIDs); err != nil {
			return model.Author{}, err
		}
		a.BirthDate = birthDate
		if a.BookIDs == nil {
			a.BookIDs = []uuid.UUID{}
		}
		return a, nil
	},
	values: func(a model.Author) []any {
		return []any{a.Name, a.BirthDate, nonNilIDs(a.BookIDs)}
	},
}

var booksTable = &table[model.Book]{
	name:    "books",
	columns: []string{"id", "title", "description", "price_value", "price_currency", "number_of_pages", "author_ids"},
	fields: map[string]string{
		"id":            "id",
		"title":         "title",
		"description":   "description",
		"numberOfPages": "number_of_pages",
		"authors":       "author_ids",
	},
	display: "title",
	refs:    "author_ids",
	scan: func(row pgx.Row) (model.Book, error) {
		var (
			b          model.Book
			priceValue decimal.NullDecimal
			currency   *string
		)
		if err := row.Scan(&b.ID, &b.Title, &b.Description, &priceValue, &currency, &b.NumberOfPages, &b.AuthorIDs); err != nil {
			return model.Book{}, err
		}
		if priceValue.Valid && currency != nil {
			b.Price = &model.Price{Value: priceValue.Decimal, Currency: model.Currency(*currency)}
		}
		if b.AuthorIDs == nil {
			b.AuthorIDs = []uuid.UUID{}
		}
		return b, nil
	},
	values: func(b model.Book) []any {
		var (
			priceValue any
			currency   any
		)
		if b.Price != nil {
			priceValue = b.Price.Value
			currency = b.Price.Currency.String()
		}
		return []any{b.Title, b.Description, priceValue, currency, b.NumberOfPages, nonNilIDs(b.AuthorIDs)}
	},
}

// columnFields đảo ngược fields của cả hai bảng, dùng khi classify PgError
func columnFields() map[string]map[string]string {
	out := map[string]map[string]string{
		authorsTable.name: {},
		booksTable.name:   {},
	}
	for field, col := range authorsTable.fields {
		out[authorsTable.name][col] = field
	}
	for field, col := range booksTable.fields {
		out[booksTable.name][col] = field
	}
	out[booksTable.name]["price_value"] = "price.value"
	out[booksTable.name]["price_currency"] = "price.currency"
	return out
}

// nonNilIDs - cột UUID[] là NOT NULL, nil slice phải thành '{}'
func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
