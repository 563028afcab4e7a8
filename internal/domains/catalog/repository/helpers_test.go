package repository_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
	"catalog-backend/internal/domains/catalog/repository"
	"catalog-backend/internal/infrastructure/storage/memory"
)

var errInjected = errors.New("injected storage failure")

type fixture struct {
	store   repository.Store
	authors *repository.AuthorRepository
	books   *repository.BookRepository
}

func setupRepos(t *testing.T, store repository.Store, policy repository.ReplacePolicy) *fixture {
	t.Helper()
	errs := repository.NewErrorAdapter(zerolog.Nop())
	return &fixture{
		store:   store,
		authors: repository.NewAuthorRepository(store, errs, policy),
		books:   repository.NewBookRepository(store, errs, policy),
	}
}

func setupMemory(t *testing.T) *fixture {
	t.Helper()
	return setupRepos(t, memory.NewStore(), repository.ReplaceUpsert)
}

func (f *fixture) createAuthor(t *testing.T, name string, books ...uuid.UUID) *model.AuthorResponse {
	t.Helper()
	resp, err := f.authors.Create(context.Background(), model.AuthorInput{Name: name, Books: books})
	require.NoError(t, err)
	return resp
}

func (f *fixture) createBook(t *testing.T, title string, authors ...uuid.UUID) *model.BookResponse {
	t.Helper()
	resp, err := f.books.Create(context.Background(), model.BookInput{Title: title, Authors: authors})
	require.NoError(t, err)
	return resp
}

// snapshot đọc toàn bộ state đã commit, sort theo id
func snapshot(t *testing.T, store repository.Store) ([]model.Author, []model.Book) {
	t.Helper()
	ctx := context.Background()
	s := store.Reader()

	authors, err := s.Authors().Find(ctx, query.All{}, query.FindOptions{Sort: query.Sort{Field: "id"}})
	require.NoError(t, err)
	books, err := s.Books().Find(ctx, query.All{}, query.FindOptions{Sort: query.Sort{Field: "id"}})
	require.NoError(t, err)
	return authors, books
}

// assertSymmetric: bookId ∈ author.books <=> authorId ∈ book.authors
func assertSymmetric(t *testing.T, store repository.Store) {
	t.Helper()
	authors, books := snapshot(t, store)

	authorByID := make(map[uuid.UUID]model.Author, len(authors))
	for _, a := range authors {
		authorByID[a.ID] = a
	}
	bookByID := make(map[uuid.UUID]model.Book, len(books))
	for _, b := range books {
		bookByID[b.ID] = b
	}

	for _, a := range authors {
		for _, bookID := range a.BookIDs {
			b, ok := bookByID[bookID]
			if assert.True(t, ok, "author %s references missing book %s", a.ID, bookID) {
				assert.Contains(t, b.AuthorIDs, a.ID, "book %s lacks back-reference to author %s", b.ID, a.ID)
			}
		}
	}
	for _, b := range books {
		for _, authorID := range b.AuthorIDs {
			a, ok := authorByID[authorID]
			if assert.True(t, ok, "book %s references missing author %s", b.ID, authorID) {
				assert.Contains(t, a.BookIDs, b.ID, "author %s lacks back-reference to book %s", a.ID, b.ID)
			}
		}
	}
}

func requireValidation(t *testing.T, err error, field string) *model.DataValidationError {
	t.Helper()
	require.Error(t, err)
	var vErr *model.DataValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, field)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
	return vErr
}

func requireNotFound(t *testing.T, err error, resource string, id uuid.UUID) {
	t.Helper()
	require.Error(t, err)
	var nfErr *model.ResourceNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, resource, nfErr.Resource)
	assert.Equal(t, id.String(), nfErr.ID)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))
}

func ptr[T any](v T) *T { return &v }

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	require.NoError(t, err)
	return d
}

func refIDs[T interface{ model.AuthorBook | model.BookAuthor }](refs []T) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, r := range refs {
		switch v := any(r).(type) {
		case model.AuthorBook:
			ids = append(ids, v.ID)
		case model.BookAuthor:
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// === RECORDING / FAILING DECORATOR ===

type refCall struct {
	collection string
	op         string
	ids        []uuid.UUID
	ref        uuid.UUID
}

// recordingStore ghi lại mọi PullRef/PushRef trong transaction và có thể
// inject lỗi vào một operation cụ thể, vd "authors.PushRef".
//
// missingOnce giả lập document được tạo song song: lần Get đầu tiên trên id đó
// trả ErrNoDocument dù document đã tồn tại. vanishBeforePush giả lập counterpart
// bị xóa giữa lúc resolve và lúc push back-reference.
type recordingStore struct {
	repository.Store

	mu               sync.Mutex
	calls            []refCall
	failOn           string
	missingOnce      uuid.UUID
	vanishBeforePush uuid.UUID
}

func newRecordingStore(inner repository.Store) *recordingStore {
	return &recordingStore{Store: inner}
}

func (r *recordingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Session) error) error {
	return r.Store.WithinTx(ctx, func(ctx context.Context, s repository.Session) error {
		return fn(ctx, &recordingSession{Session: s, rec: r})
	})
}

func (r *recordingStore) record(c refCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if r.failOn == c.collection+"."+c.op {
		return errInjected
	}
	return nil
}

func (r *recordingStore) takeMissing(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != uuid.Nil && r.missingOnce == id {
		r.missingOnce = uuid.Nil
		return true
	}
	return false
}

func (r *recordingStore) vanishing() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vanishBeforePush
}

func (r *recordingStore) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *recordingStore) refCalls() []refCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

type recordingSession struct {
	repository.Session
	rec *recordingStore
}

func (s *recordingSession) Authors() repository.Collection[model.Author] {
	return &recordingCollection[model.Author]{Collection: s.Session.Authors(), name: "authors", rec: s.rec}
}

func (s *recordingSession) Books() repository.Collection[model.Book] {
	return &recordingCollection[model.Book]{Collection: s.Session.Books(), name: "books", rec: s.rec}
}

type recordingCollection[T any] struct {
	repository.Collection[T]
	name string
	rec  *recordingStore
}

func (c *recordingCollection[T]) PullRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) error {
	if err := c.rec.record(refCall{collection: c.name, op: "PullRef", ids: slices.Clone(ids), ref: ref}); err != nil {
		return err
	}
	return c.Collection.PullRef(ctx, ids, ref)
}

func (c *recordingCollection[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	if c.rec.takeMissing(id) {
		var zero T
		return zero, repository.ErrNoDocument
	}
	return c.Collection.Get(ctx, id)
}

func (c *recordingCollection[T]) PushRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) (int64, error) {
	if err := c.rec.record(refCall{collection: c.name, op: "PushRef", ids: slices.Clone(ids), ref: ref}); err != nil {
		return 0, err
	}
	if gone := c.rec.vanishing(); slices.Contains(ids, gone) {
		if err := c.Collection.Delete(ctx, gone); err != nil {
			return 0, err
		}
	}
	return c.Collection.PushRef(ctx, ids, ref)
}
