package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
	"catalog-backend/internal/domains/catalog/repository"
	"catalog-backend/internal/infrastructure/storage/postgres"
)

type pgFixture struct {
	store   *postgres.Store
	authors *repository.AuthorRepository
	books   *repository.BookRepository
}

// setupPostgres cần DATABASE_URL trỏ tới một database dùng riêng cho test,
// bảng authors/books bị truncate trước mỗi test.
func setupPostgres(t *testing.T) *pgFixture {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping test: DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	store := postgres.NewStore(pool, zerolog.Nop())
	require.NoError(t, store.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, "TRUNCATE authors, books")
	require.NoError(t, err)

	errs := repository.NewErrorAdapter(zerolog.Nop(), postgres.ClassifyError)
	return &pgFixture{
		store:   store,
		authors: repository.NewAuthorRepository(store, errs, repository.ReplaceUpsert),
		books:   repository.NewBookRepository(store, errs, repository.ReplaceUpsert),
	}
}

func (f *pgFixture) createAuthor(t *testing.T, name string) *model.AuthorResponse {
	t.Helper()
	resp, err := f.authors.Create(context.Background(), model.AuthorInput{Name: name})
	require.NoError(t, err)
	return resp
}

func (f *pgFixture) createBook(t *testing.T, title string, authors ...uuid.UUID) *model.BookResponse {
	t.Helper()
	resp, err := f.books.Create(context.Background(), model.BookInput{Title: title, Authors: authors})
	require.NoError(t, err)
	return resp
}

func (f *pgFixture) rows(t *testing.T) ([]model.Author, []model.Book) {
	t.Helper()
	ctx := context.Background()
	authors, err := f.store.Reader().Authors().Find(ctx, query.All{}, query.FindOptions{})
	require.NoError(t, err)
	books, err := f.store.Reader().Books().Find(ctx, query.All{}, query.FindOptions{})
	require.NoError(t, err)
	return authors, books
}

// assertSymmetric: bookId ∈ author.books <=> authorId ∈ book.authors, không có ref treo
func (f *pgFixture) assertSymmetric(t *testing.T) {
	t.Helper()
	authors, books := f.rows(t)

	bookAuthors := make(map[uuid.UUID][]uuid.UUID, len(books))
	for _, b := range books {
		bookAuthors[b.ID] = b.AuthorIDs
	}
	authorBooks := make(map[uuid.UUID][]uuid.UUID, len(authors))
	for _, a := range authors {
		authorBooks[a.ID] = a.BookIDs
	}

	for _, a := range authors {
		for _, bookID := range a.BookIDs {
			refs, ok := bookAuthors[bookID]
			if assert.True(t, ok, "author %s references missing book %s", a.ID, bookID) {
				assert.Contains(t, refs, a.ID)
			}
		}
	}
	for _, b := range books {
		for _, authorID := range b.AuthorIDs {
			refs, ok := authorBooks[authorID]
			if assert.True(t, ok, "book %s references missing author %s", b.ID, authorID) {
				assert.Contains(t, refs, b.ID)
			}
		}
	}
}

func bookAuthorIDs(b *model.BookResponse) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Authors))
	for _, a := range b.Authors {
		ids = append(ids, a.ID)
	}
	return ids
}

func authorBookIDs(a *model.AuthorResponse) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.Books))
	for _, b := range a.Books {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestPostgres_CreateKeepsRefsSymmetric(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a1 := f.createAuthor(t, "Ursula K. Le Guin")
	a2 := f.createAuthor(t, "Co Author")
	book := f.createBook(t, "The Dispossessed", a1.ID, a2.ID)
	assert.ElementsMatch(t, []uuid.UUID{a1.ID, a2.ID}, bookAuthorIDs(book))

	got, err := f.authors.FindByID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{book.ID}, authorBookIDs(got))
	assert.Equal(t, "The Dispossessed", got.Books[0].Title)

	f.assertSymmetric(t)
}

func TestPostgres_FailedCreateLeavesNoRows(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a := f.createAuthor(t, "Known")
	authorsBefore, _ := f.rows(t)

	_, err := f.books.Create(ctx, model.BookInput{Title: "Ghost", Authors: []uuid.UUID{a.ID, uuid.New()}})
	require.Error(t, err)
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	authorsAfter, books := f.rows(t)
	assert.Empty(t, books)
	assert.Equal(t, authorsBefore, authorsAfter)
}

func TestPostgres_ReplaceReconcilesDiff(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a1 := f.createAuthor(t, "A1")
	a2 := f.createAuthor(t, "A2")
	a3 := f.createAuthor(t, "A3")
	book := f.createBook(t, "Shared", a1.ID, a2.ID)

	replaced, err := f.books.Replace(ctx, book.ID, model.BookInput{Title: "Shared", Authors: []uuid.UUID{a2.ID, a3.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a2.ID, a3.ID}, bookAuthorIDs(replaced))

	for id, want := range map[uuid.UUID][]uuid.UUID{
		a1.ID: {},
		a2.ID: {book.ID},
		a3.ID: {book.ID},
	} {
		got, err := f.authors.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, authorBookIDs(got))
	}

	require.NoError(t, f.books.Delete(ctx, book.ID))
	for _, id := range []uuid.UUID{a2.ID, a3.ID} {
		got, err := f.authors.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, got.Books)
	}
	f.assertSymmetric(t)
}

func TestPostgres_ReplaceUpsertsMissingID(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a := f.createAuthor(t, "A")
	id := uuid.New()

	book, err := f.books.Replace(ctx, id, model.BookInput{Title: "Upserted", Authors: []uuid.UUID{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, id, book.ID)
	f.assertSymmetric(t)
}

func TestPostgres_PaginationAndCount(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a := f.createAuthor(t, "Prolific")
	for i := 1; i <= 5; i++ {
		f.createBook(t, fmt.Sprintf("Book %d", i), a.ID)
	}
	f.createBook(t, "Anthology")

	filter := model.BookFilter{TitleILike: ptr("book ")}
	total, err := f.books.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	page, err := f.books.Find(ctx, filter, model.Page{Page: 2, PageSize: 2, Sort: "-title"})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Book 3", page[0].Title)
	assert.Equal(t, "Book 2", page[1].Title)

	last, err := f.books.Find(ctx, filter, model.Page{Page: 3, PageSize: 2, Sort: "title"})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "Book 5", last[0].Title)

	beyond, err := f.books.Find(ctx, filter, model.Page{Page: 10, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestPostgres_CrossFilterWithoutMatchesReturnsEmpty(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	a := f.createAuthor(t, "Terry Pratchett")
	f.createBook(t, "Mort", a.ID)

	filter := model.BookFilter{AuthorsNameILike: ptr("zzz-no-such-author")}
	books, err := f.books.Find(ctx, filter, model.Page{})
	require.NoError(t, err)
	assert.Empty(t, books)

	total, err := f.books.Count(ctx, filter)
	require.NoError(t, err)
	assert.Zero(t, total)

	matched, err := f.books.Count(ctx, model.BookFilter{AuthorsNameILike: ptr("pratchett")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
}

// Create book và delete author chạy song song: dù thứ tự nào thắng,
// không được còn book trỏ tới author đã xóa.
func TestPostgres_ConcurrentCreateBookAndDeleteAuthor(t *testing.T) {
	f := setupPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := 0; i < 25; i++ {
		a := f.createAuthor(t, fmt.Sprintf("Doomed %d", i))

		var (
			wg        sync.WaitGroup
			createErr error
			deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = f.books.Create(ctx, model.BookInput{Title: fmt.Sprintf("Race %d", i), Authors: []uuid.UUID{a.ID}})
		}()
		go func() {
			defer wg.Done()
			deleteErr = f.authors.Delete(ctx, a.ID)
		}()
		wg.Wait()

		require.NoError(t, deleteErr)
		if createErr != nil {
			assert.Equal(t, model.KindValidation, model.KindOf(createErr), "iteration %d: %v", i, createErr)
		}
	}

	_, books := f.rows(t)
	for _, b := range books {
		assert.Empty(t, b.AuthorIDs, "book %s still references a deleted author", b.ID)
	}
	f.assertSymmetric(t)
}

// Hai replace cùng id chưa tồn tại: một bên insert, bên kia đi nhánh conflict
// và phải gỡ back-reference mà bên thắng vừa ghi.
func TestPostgres_ConcurrentUpsertSameID(t *testing.T) {
	f := setupPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := 0; i < 25; i++ {
		a1 := f.createAuthor(t, fmt.Sprintf("Left %d", i))
		a2 := f.createAuthor(t, fmt.Sprintf("Right %d", i))
		id := uuid.New()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, author := range []uuid.UUID{a1.ID, a2.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[j] = f.books.Replace(ctx, id, model.BookInput{Title: "Contended", Authors: []uuid.UUID{author}})
			}()
		}
		wg.Wait()
		require.NoError(t, errs[0], "iteration %d", i)
		require.NoError(t, errs[1], "iteration %d", i)

		book, err := f.books.FindByID(ctx, id)
		require.NoError(t, err)
		require.Len(t, book.Authors, 1)

		winner, loser := a1.ID, a2.ID
		if book.Authors[0].ID == a2.ID {
			winner, loser = a2.ID, a1.ID
		}
		got, err := f.authors.FindByID(ctx, winner)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{id}, authorBookIDs(got))

		got, err = f.authors.FindByID(ctx, loser)
		require.NoError(t, err)
		assert.Empty(t, got.Books)
	}
	f.assertSymmetric(t)
}

func ptr[T any](v T) *T { return &v }
