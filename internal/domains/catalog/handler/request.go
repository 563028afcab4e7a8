package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// =====================================================
// QUERY PARAMS
// =====================================================

// queryParser gom lỗi của từng query key để trả về một lần
type queryParser struct {
	c      *gin.Context
	fields map[string]string
}

func newQueryParser(c *gin.Context) *queryParser {
	return &queryParser{c: c, fields: map[string]string{}}
}

func (p *queryParser) str(key string) *string {
	v, ok := p.c.GetQuery(key)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (p *queryParser) number(key string) *int {
	raw := p.str(key)
	if raw == nil {
		return nil
	}
	n, err := strconv.Atoi(*raw)
	if err != nil {
		p.fields[key] = "must be an integer"
		return nil
	}
	return &n
}

func (p *queryParser) date(key string) *time.Time {
	raw := p.str(key)
	if raw == nil {
		return nil
	}
	d, err := time.Parse(model.DateLayout, *raw)
	if err != nil {
		p.fields[key] = "must be a date in YYYY-MM-DD format"
		return nil
	}
	return &d
}

// page: page >= 1, 1 <= pageSize <= MaxPageSize. Sort whitelist do repository check.
func (p *queryParser) page() model.Page {
	page := model.Page{Page: model.DefaultPage, PageSize: model.DefaultPageSize, Sort: model.DefaultSort}

	if n := p.number("page"); n != nil {
		if *n < 1 {
			p.fields["page"] = "must be greater than or equal to 1"
		}
		page.Page = *n
	}
	if n := p.number("pageSize"); n != nil {
		if *n < 1 || *n > model.MaxPageSize {
			p.fields["pageSize"] = fmt.Sprintf("must be between 1 and %d", model.MaxPageSize)
		}
		page.PageSize = *n
	}
	if s := p.str("sort"); s != nil {
		page.Sort = strings.TrimSpace(*s)
	}
	return page
}

func (p *queryParser) err() error {
	if len(p.fields) == 0 {
		return nil
	}
	return &model.DataValidationError{Fields: p.fields}
}

func parseAuthorQuery(c *gin.Context) (model.AuthorFilter, model.Page, error) {
	p := newQueryParser(c)
	filter := model.AuthorFilter{
		NameILike:       p.str("name__ilike"),
		BirthDateGte:    p.date("birthDate__gte"),
		BirthDateLte:    p.date("birthDate__lte"),
		BooksTitleILike: p.str("books__title__ilike"),
	}
	page := p.page()
	return filter, page, p.err()
}

func parseBookQuery(c *gin.Context) (model.BookFilter, model.Page, error) {
	p := newQueryParser(c)
	filter := model.BookFilter{
		TitleILike:       p.str("title__ilike"),
		NumberOfPagesGte: p.number("numberOfPages__gte"),
		NumberOfPagesLte: p.number("numberOfPages__lte"),
		AuthorsNameILike: p.str("authors__name__ilike"),
	}
	page := p.page()
	return filter, page, p.err()
}

// parseID đọc :id, sai format -> validation error trên field "id"
func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, model.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}

// =====================================================
// REQUEST BODIES
// =====================================================

// Date - YYYY-MM-DD trong JSON
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string in YYYY-MM-DD format")
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// AuthorRequest - body của POST/PUT/PATCH /authors
type AuthorRequest struct {
	Name      *string      `json:"name"`
	BirthDate *Date        `json:"birthDate"`
	Books     *[]uuid.UUID `json:"books"`
}

func (r AuthorRequest) toInput() model.AuthorInput {
	in := model.AuthorInput{BirthDate: r.BirthDate.ptr()}
	if r.Name != nil {
		in.Name = *r.Name
	}
	if r.Books != nil {
		in.Books = *r.Books
	}
	return in
}

func (r AuthorRequest) toPatch() model.AuthorPatch {
	return model.AuthorPatch{
		Name:      r.Name,
		BirthDate: r.BirthDate.ptr(),
		Books:     r.Books,
	}
}

// BookRequest - body của POST/PUT/PATCH /books
type BookRequest struct {
	Title         *string      `json:"title"`
	Description   *string      `json:"description"`
	Price         *model.Price `json:"price"`
	NumberOfPages *int         `json:"numberOfPages"`
	Authors       *[]uuid.UUID `json:"authors"`
}

func (r BookRequest) toInput() model.BookInput {
	in := model.BookInput{
		Description:   r.Description,
		Price:         r.Price,
		NumberOfPages: r.NumberOfPages,
	}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Authors != nil {
		in.Authors = *r.Authors
	}
	return in
}

func (r BookRequest) toPatch() model.BookPatch {
	return model.BookPatch{
		Title:         r.Title,
		Description:   r.Description,
		Price:         r.Price,
		NumberOfPages: r.NumberOfPages,
		Authors:       r.Authors,
	}
}
