package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-backend/internal/domains/catalog/handler"
	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/repository"
	"catalog-backend/internal/infrastructure/storage/memory"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page     int   `json:"page"`
		PageSize int   `json:"pageSize"`
		Total    int64 `json:"total"`
	} `json:"meta"`
}

func newRouter(authors handler.AuthorRepository, books handler.BookRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	ah := handler.NewAuthorHandler(authors)
	a := r.Group("/api/v1/authors")
	a.GET("", ah.List)
	a.POST("", ah.Create)
	a.GET("/:id", ah.GetByID)
	a.PUT("/:id", ah.Replace)
	a.PATCH("/:id", ah.Update)
	a.DELETE("/:id", ah.Delete)

	bh := handler.NewBookHandler(books)
	b := r.Group("/api/v1/books")
	b.GET("", bh.List)
	b.POST("", bh.Create)
	b.GET("/:id", bh.GetByID)
	b.PUT("/:id", bh.Replace)
	b.PATCH("/:id", bh.Update)
	b.DELETE("/:id", bh.Delete)
	return r
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := memory.NewStore()
	errs := repository.NewErrorAdapter(zerolog.Nop())
	return newRouter(
		repository.NewAuthorRepository(store, errs, repository.ReplaceUpsert),
		repository.NewBookRepository(store, errs, repository.ReplaceUpsert),
	)
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestAuthorBookLifecycle(t *testing.T) {
	r := setupRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/authors", `{"name":"Machado de Assis","birthDate":"1839-06-21"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	author := decode[model.AuthorResponse](t, env.Data)
	require.NotNil(t, author.BirthDate)
	assert.Equal(t, "1839-06-21", *author.BirthDate)
	assert.Empty(t, author.Books)

	body := `{"title":"Dom Casmurro","price":{"value":"19.90","currency":"BRL"},"numberOfPages":256,"authors":["` + author.ID.String() + `"]}`
	w, env = do(t, r, http.MethodPost, "/api/v1/books", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	book := decode[model.BookResponse](t, env.Data)
	assert.Equal(t, []model.BookAuthor{{ID: author.ID, Name: "Machado de Assis"}}, book.Authors)
	require.NotNil(t, book.Price)
	assert.Equal(t, "19.9", book.Price.Value.String())

	w, env = do(t, r, http.MethodGet, "/api/v1/authors/"+author.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	author = decode[model.AuthorResponse](t, env.Data)
	assert.Equal(t, []model.AuthorBook{{ID: book.ID, Title: "Dom Casmurro"}}, author.Books)

	w, env = do(t, r, http.MethodPatch, "/api/v1/books/"+book.ID.String(), `{"title":"Dom Casmurro (1899)"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	book = decode[model.BookResponse](t, env.Data)
	assert.Equal(t, "Dom Casmurro (1899)", book.Title)
	assert.Equal(t, 256, *book.NumberOfPages)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/books/"+book.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, env = do(t, r, http.MethodGet, "/api/v1/books/"+book.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", env.Error.Code)

	_, env = do(t, r, http.MethodGet, "/api/v1/authors/"+author.ID.String(), "")
	author = decode[model.AuthorResponse](t, env.Data)
	assert.Empty(t, author.Books)
}

func TestListMeta(t *testing.T) {
	r := setupRouter(t)
	for _, name := range []string{"Clarice", "Jorge", "Cecília"} {
		w, _ := do(t, r, http.MethodPost, "/api/v1/authors", `{"name":"`+name+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := do(t, r, http.MethodGet, "/api/v1/authors?page=1&pageSize=2&sort=name", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	authors := decode[[]model.AuthorResponse](t, env.Data)
	require.Len(t, authors, 2)
	assert.Equal(t, "Cecília", authors[0].Name)
	assert.Equal(t, "Clarice", authors[1].Name)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 2, env.Meta.PageSize)
	assert.Equal(t, int64(3), env.Meta.Total)

	w, env = do(t, r, http.MethodGet, "/api/v1/authors?name__ilike=JOR", "")
	require.Equal(t, http.StatusOK, w.Code)
	authors = decode[[]model.AuthorResponse](t, env.Data)
	require.Len(t, authors, 1)
	assert.Equal(t, "Jorge", authors[0].Name)
	assert.Equal(t, model.DefaultPageSize, env.Meta.PageSize)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = do(t, r, http.MethodGet, "/api/v1/books?authors__name__ilike=nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, int64(0), env.Meta.Total)
}

func TestQueryValidation(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name   string
		path   string
		fields []string
	}{
		{name: "page below one", path: "/api/v1/authors?page=0", fields: []string{"page"}},
		{name: "page size above max", path: "/api/v1/books?pageSize=101", fields: []string{"pageSize"}},
		{name: "page not a number", path: "/api/v1/books?page=abc", fields: []string{"page"}},
		{name: "bad date", path: "/api/v1/authors?birthDate__gte=21/06/1839", fields: []string{"birthDate__gte"}},
		{name: "bad int bound", path: "/api/v1/books?numberOfPages__lte=many", fields: []string{"numberOfPages__lte"}},
		{name: "several at once", path: "/api/v1/authors?page=-1&birthDate__lte=x", fields: []string{"page", "birthDate__lte"}},
		{name: "unknown sort", path: "/api/v1/books?sort=price", fields: []string{"sort"}},
		{name: "sort on other entity field", path: "/api/v1/authors?sort=-title", fields: []string{"sort"}},
		{name: "malformed id", path: "/api/v1/authors/not-a-uuid", fields: []string{"id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			for _, f := range tt.fields {
				assert.Contains(t, env.Error.Details, f)
			}
			assert.Len(t, env.Error.Details, len(tt.fields))
		})
	}
}

func TestBodyErrors(t *testing.T) {
	r := setupRouter(t)
	missing := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
		field  string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/api/v1/authors", body: `{"name":`, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "empty body", method: http.MethodPost, path: "/api/v1/books", body: "", status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "bad birth date", method: http.MethodPost, path: "/api/v1/authors", body: `{"name":"A","birthDate":"1839-13-40"}`, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "bad ref id", method: http.MethodPost, path: "/api/v1/books", body: `{"title":"T","authors":["nope"]}`, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "missing name", method: http.MethodPost, path: "/api/v1/authors", body: `{}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR", field: "name"},
		{name: "unknown author", method: http.MethodPost, path: "/api/v1/books", body: `{"title":"T","authors":["` + missing + `"]}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR", field: "authors"},
		{name: "negative price", method: http.MethodPost, path: "/api/v1/books", body: `{"title":"T","price":{"value":-1,"currency":"USD"}}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR", field: "price.value"},
		{name: "patch missing author", method: http.MethodPatch, path: "/api/v1/authors/" + missing, body: `{"name":"x"}`, status: http.StatusNotFound, code: "RESOURCE_NOT_FOUND"},
		{name: "delete missing book", method: http.MethodDelete, path: "/api/v1/books/" + missing, status: http.StatusNotFound, code: "RESOURCE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.field != "" {
				assert.Contains(t, env.Error.Details, tt.field)
			}
		})
	}
}

func TestReplaceUpsertsUnknownID(t *testing.T) {
	r := setupRouter(t)
	id := uuid.New()

	w, env := do(t, r, http.MethodPut, "/api/v1/authors/"+id.String(), `{"name":"Graciliano"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	author := decode[model.AuthorResponse](t, env.Data)
	assert.Equal(t, id, author.ID)

	w, _ = do(t, r, http.MethodGet, "/api/v1/authors/"+id.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// failingAuthors trả RepositoryError cho mọi call
type failingAuthors struct {
	handler.AuthorRepository
}

func (failingAuthors) FindByID(context.Context, uuid.UUID) (*model.AuthorResponse, error) {
	return nil, model.NewRepositoryError("unexpected repository error", errors.New("connection reset by peer"))
}

func TestRepositoryErrorHidesCause(t *testing.T) {
	r := newRouter(failingAuthors{}, nil)

	w, env := do(t, r, http.MethodGet, "/api/v1/authors/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
