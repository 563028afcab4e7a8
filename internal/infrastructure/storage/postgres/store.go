// Package postgres là storage engine chính của catalog, chạy trên pgxpool.
// Reference arrays lưu dạng UUID[] ở cả hai bảng; repository giữ chúng đối xứng.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/repository"
	"catalog-backend/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Store implements repository.Store trên một pgxpool.Pool
type Store struct {
	pool   *pgxpool.Pool
	txOpts pgx.TxOptions
	logger zerolog.Logger
}

func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{
		pool: pool,
		// Read committed + row lock FOR UPDATE trên primary document và trên
		// counterpart đã resolve, các writer chồng nhau sẽ xếp hàng.
		txOpts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Reader() repository.Session {
	return newSession(s.pool, false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, sess repository.Session) error) error {
	return database.WithTransaction(ctx, s.pool, s.txOpts, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, newSession(tx, true))
	})
}

// EnsureSchema tạo bảng + index nếu chưa có. Idempotent, gọi lúc startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(schemaSQL) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Info().Msg("Catalog schema ready")
	return nil
}

// schemaStatements bỏ comment và tách theo dấu ; cuối statement
func schemaStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

type session struct {
	authors *collection[model.Author]
	books   *collection[model.Book]
}

func newSession(db querier, lock bool) *session {
	return &session{
		authors: &collection[model.Author]{db: db, t: authorsTable, lock: lock},
		books:   &collection[model.Book]{db: db, t: booksTable, lock: lock},
	}
}

func (s *session) Authors() repository.Collection[model.Author] { return s.authors }
func (s *session) Books() repository.Collection[model.Book] { return s.books }
