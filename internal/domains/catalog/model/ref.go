package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Ref là projection tối thiểu của entity phía bên kia: id + display field
// (Book: title, Author: name).
type Ref struct {
	ID      uuid.UUID
	Display string
}

// Document is what the writer needs to know about a stored entity.
type Document interface {
	Key() uuid.UUID
	RefIDs() []uuid.UUID
	Validate() error
}

// Record extends Document with the accessors a storage engine uses to
// manipulate a document without knowing its concrete type.
type Record[T any] interface {
	Document
	Display() string
	WithKey(id uuid.UUID) T
	WithRefIDs(ids []uuid.UUID) T
	// Field returns the value of a logical field, nil when absent.
	Field(name string) any
}

// Page - pagination + sort parameters cho Find.
// Zero values = defaults (page 1, page size 20, sort by id).
type Page struct {
	Page     int
	PageSize int
	Sort     string
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSort     = "id"
)

// WithDefaults fills zero values. It does not clamp.
func (p Page) WithDefaults() Page {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Sort == "" {
		p.Sort = DefaultSort
	}
	return p
}

// Offset = (page-1)*pageSize
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// cloneIDs trả về slice mới, không bao giờ nil
func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

// notBlank rejects strings made only of whitespace. Nil pointers pass,
// presence is checked by validation.Required where needed.
var notBlank = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be empty")
	}
	return nil
})
