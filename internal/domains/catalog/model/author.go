package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// DateLayout là format ngày dùng cho birthDate ở API
const DateLayout = "2006-01-02"

// Author - document được lưu trong storage.
// BookIDs là denormalized reference, luôn đối xứng với Book.AuthorIDs.
type Author struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	BirthDate *time.Time  `json:"birthDate,omitempty"`
	BookIDs   []uuid.UUID `json:"books"`
}

func (a Author) Key() uuid.UUID      { return a.ID }
func (a Author) RefIDs() []uuid.UUID { return a.BookIDs }
func (a Author) Display() string     { return a.Name }

func (a Author) WithKey(id uuid.UUID) Author {
	a.ID = id
	return a
}

func (a Author) WithRefIDs(ids []uuid.UUID) Author {
	a.BookIDs = cloneIDs(ids)
	return a
}

func (a Author) Field(name string) any {
	switch name {
	case "id":
		return a.ID
	case "name":
		return a.Name
	case "birthDate":
		if a.BirthDate == nil {
			return nil
		}
		return *a.BirthDate
	case "books":
		return a.BookIDs
	}
	return nil
}

// Validate checks field shape only. Reference existence is the writer's job.
func (a Author) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required.Error("name is required"), notBlank),
	)
}

// AuthorInput - body của create/replace (whole document)
type AuthorInput struct {
	Name      string
	BirthDate *time.Time
	Books     []uuid.UUID
}

// ToDocument builds the document to persist. Books nil means no books.
func (in AuthorInput) ToDocument() Author {
	return Author{
		Name:      in.Name,
		BirthDate: in.BirthDate,
		BookIDs:   cloneIDs(in.Books),
	}
}

// AuthorPatch - body của update. Nil field = giữ nguyên.
type AuthorPatch struct {
	Name      *string
	BirthDate *time.Time
	Books     *[]uuid.UUID
}

// Apply returns the patched copy of a and whether the reference list was touched.
func (p AuthorPatch) Apply(a Author) (Author, bool) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.BirthDate != nil {
		d := *p.BirthDate
		a.BirthDate = &d
	}
	if p.Books != nil {
		a.BookIDs = cloneIDs(*p.Books)
		return a, true
	}
	a.BookIDs = cloneIDs(a.BookIDs)
	return a, false
}

// AuthorBook - summary của book nằm trong author response
type AuthorBook struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// AuthorResponse - DTO trả ra ngoài, books đã được expand
type AuthorResponse struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	BirthDate *string      `json:"birthDate,omitempty"`
	Books     []AuthorBook `json:"books"`
}

// AuthorFilter - filter cho count/find
type AuthorFilter struct {
	NameILike       *string
	BirthDateGte    *time.Time
	BirthDateLte    *time.Time
	BooksTitleILike *string
}

// AuthorSortFields whitelist các field được phép sort
var AuthorSortFields = []string{"id", "name", "birthDate"}
