package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinNumberOfPages = 1
	MaxNumberOfPages = 10000
)

// Currency represents valid price currencies
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyBRL Currency = "BRL"
	CurrencyVND Currency = "VND"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyBRL, CurrencyVND:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// maxPriceValue khớp cột NUMERIC(12, 2)
var maxPriceValue = decimal.RequireFromString("9999999999.99")

// Price - giá sách, value không âm, tối đa 2 chữ số thập phân
type Price struct {
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
}

func (p Price) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Value, validation.By(func(value interface{}) error {
			v, ok := value.(decimal.Decimal)
			if !ok {
				return nil
			}
			switch {
			case v.IsNegative():
				return errors.New("must be greater than or equal to 0")
			case !v.Equal(v.Round(2)):
				return errors.New("must have at most 2 decimal places")
			case v.GreaterThan(maxPriceValue):
				return errors.New("must be less than or equal to 9999999999.99")
			}
			return nil
		})),
		validation.Field(&p.Currency,
			validation.Required.Error("currency is required"),
			validation.By(func(value interface{}) error {
				if c, ok := value.(Currency); ok && !c.IsValid() {
					return errors.New("must be one of USD, EUR, GBP, BRL, VND")
				}
				return nil
			}),
		),
	)
}

// Book - document được lưu trong storage.
// AuthorIDs là denormalized reference, luôn đối xứng với Author.BookIDs.
type Book struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Description   *string     `json:"description,omitempty"`
	Price         *Price      `json:"price,omitempty"`
	NumberOfPages *int        `json:"numberOfPages,omitempty"`
	AuthorIDs     []uuid.UUID `json:"authors"`
}

func (b Book) Key() uuid.UUID      { return b.ID }
func (b Book) RefIDs() []uuid.UUID { return b.AuthorIDs }
func (b Book) Display() string     { return b.Title }

func (b Book) WithKey(id uuid.UUID) Book {
	b.ID = id
	return b
}

func (b Book) WithRefIDs(ids []uuid.UUID) Book {
	b.AuthorIDs = cloneIDs(ids)
	return b
}

func (b Book) Field(name string) any {
	switch name {
	case "id":
		return b.ID
	case "title":
		return b.Title
	case "description":
		if b.Description == nil {
			return nil
		}
		return *b.Description
	case "numberOfPages":
		if b.NumberOfPages == nil {
			return nil
		}
		return *b.NumberOfPages
	case "authors":
		return b.AuthorIDs
	}
	return nil
}

func (b Book) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Title, validation.Required.Error("title is required"), notBlank),
		validation.Field(&b.Description, notBlank),
		validation.Field(&b.Price),
		validation.Field(&b.NumberOfPages, validation.By(func(value interface{}) error {
			v, isNil := validation.Indirect(value)
			if isNil {
				return nil
			}
			if n, ok := v.(int); ok && (n < MinNumberOfPages || n > MaxNumberOfPages) {
				return errors.New("must be between 1 and 10000")
			}
			return nil
		})),
	)
}

// BookInput - body của create/replace
type BookInput struct {
	Title         string
	Description   *string
	Price         *Price
	NumberOfPages *int
	Authors       []uuid.UUID
}

func (in BookInput) ToDocument() Book {
	return Book{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		NumberOfPages: in.NumberOfPages,
		AuthorIDs:     cloneIDs(in.Authors),
	}
}

// BookPatch - body của update. Nil field = giữ nguyên.
type BookPatch struct {
	Title         *string
	Description   *string
	Price         *Price
	NumberOfPages *int
	Authors       *[]uuid.UUID
}

func (p BookPatch) Apply(b Book) (Book, bool) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		d := *p.Description
		b.Description = &d
	}
	if p.Price != nil {
		price := *p.Price
		b.Price = &price
	}
	if p.NumberOfPages != nil {
		n := *p.NumberOfPages
		b.NumberOfPages = &n
	}
	if p.Authors != nil {
		b.AuthorIDs = cloneIDs(*p.Authors)
		return b, true
	}
	b.AuthorIDs = cloneIDs(b.AuthorIDs)
	return b, false
}

// BookAuthor - summary của author nằm trong book response
type BookAuthor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BookResponse - DTO trả ra ngoài, authors đã được expand
type BookResponse struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Description   *string      `json:"description,omitempty"`
	Price         *Price       `json:"price,omitempty"`
	NumberOfPages *int         `json:"numberOfPages,omitempty"`
	Authors       []BookAuthor `json:"authors"`
}

// BookFilter - filter cho count/find
type BookFilter struct {
	TitleILike       *string
	NumberOfPagesGte *int
	NumberOfPagesLte *int
	AuthorsNameILike *string
}

var BookSortFields = []string{"id", "title", "numberOfPages"}
