// Package memory là storage engine in-process cho local run và test.
// Mọi transaction chạy tuần tự sau một mutex, làm việc trên bản clone của state
// và swap vào khi commit. Reader không bao giờ thấy state chưa commit.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/repository"
)

var (
	authorFields = []string{"id", "name", "birthDate", "books"}
	bookFields   = []string{"id", "title", "description", "numberOfPages", "authors"}
)

type state struct {
	authors map[uuid.UUID]model.Author
	books   map[uuid.UUID]model.Book
}

func (s *state) clone() *state {
	return &state{
		authors: maps.Clone(s.authors),
		books:   maps.Clone(s.books),
	}
}

// Store implements repository.Store
type Store struct {
	txMu sync.Mutex   // serialize transactions
	rw   sync.RWMutex // bảo vệ committed state
	cur  *state
}

func NewStore() *Store {
	return &Store{
		cur: &state{
			authors: make(map[uuid.UUID]model.Author),
			books:   make(map[uuid.UUID]model.Book),
		},
	}
}

var _ repository.Store = (*Store)(nil)

// Reader trả về session autocommit trên committed state
func (s *Store) Reader() repository.Session {
	return &session{
		authors: &collection[model.Author]{
			txMu:   &s.txMu,
			rw:     &s.rw,
			fields: authorFields,
			docs:   func() map[uuid.UUID]model.Author { return s.cur.authors },
		},
		books: &collection[model.Book]{
			txMu:   &s.txMu,
			rw:     &s.rw,
			fields: bookFields,
			docs:   func() map[uuid.UUID]model.Book { return s.cur.books },
		},
	}
}

// WithinTx chạy fn trên bản clone; chỉ swap vào khi fn trả về nil và ctx còn sống.
// Panic trong fn bỏ bản clone, unlock rồi panic tiếp.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, sess repository.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.rw.RLock()
	work := s.cur.clone()
	s.rw.RUnlock()

	sess := &session{
		authors: &collection[model.Author]{
			fields: authorFields,
			docs:   func() map[uuid.UUID]model.Author { return work.authors },
		},
		books: &collection[model.Book]{
			fields: bookFields,
			docs:   func() map[uuid.UUID]model.Book { return work.books },
		},
	}

	if err := fn(ctx, sess); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.rw.Lock()
	s.cur = work
	s.rw.Unlock()
	return nil
}

type session struct {
	authors *collection[model.Author]
	books   *collection[model.Book]
}

func (s *session) Authors() repository.Collection[model.Author] { return s.authors }
func (s *session) Books() repository.Collection[model.Book] { return s.books }
