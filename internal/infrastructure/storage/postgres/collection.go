package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
	"catalog-backend/internal/domains/catalog/repository"
)

// querier - pgxpool.Pool và pgx.Tx đều thỏa mãn
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// collection implements repository.Collection[T] cho một bảng.
// lock=true khi chạy trong transaction: Get và Resolve sẽ SELECT ... FOR UPDATE,
// row đã đọc không bị transaction khác sửa/xóa cho tới khi commit.
type collection[T model.Record[T]] struct {
	db   querier
	t    *table[T]
	lock bool
}

// === READ ===

func (c *collection[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		columnList(c.t.columns), pq.QuoteIdentifier(c.t.name), pq.QuoteIdentifier("id"))
	if c.lock {
		sql += " FOR UPDATE"
	}

	doc, err := c.t.scan(c.db.QueryRow(ctx, sql, id))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, repository.ErrNoDocument
		}
		return zero, fmt.Errorf("get %s: %w", c.t.name, err)
	}
	return doc, nil
}

func (c *collection[T]) Find(ctx context.Context, pred query.Predicate, opts query.FindOptions) ([]T, error) {
	comp := newCompiler(c.t.fields)
	where, err := comp.where(pred)
	if err != nil {
		return nil, err
	}
	order, err := comp.orderBy(opts.Sort)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s%s",
		columnList(c.t.columns), pq.QuoteIdentifier(c.t.name), where, order,
		comp.limitOffset(opts.Limit, opts.Offset))

	rows, err := c.db.Query(ctx, sql, comp.args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.t.name, err)
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		doc, err := c.t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.t.name, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", c.t.name, err)
	}
	return docs, nil
}

func (c *collection[T]) Count(ctx context.Context, pred query.Predicate) (int64, error) {
	comp := newCompiler(c.t.fields)
	where, err := comp.where(pred)
	if err != nil {
		return 0, err
	}

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", pq.QuoteIdentifier(c.t.name), where)

	var total int64
	if err := c.db.QueryRow(ctx, sql, comp.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.t.name, err)
	}
	return total, nil
}

func (c *collection[T]) FindIDs(ctx context.Context, pred query.Predicate) ([]uuid.UUID, error) {
	comp := newCompiler(c.t.fields)
	where, err := comp.where(pred)
	if err != nil {
		return nil, err
	}

	id := pq.QuoteIdentifier("id")
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s", id, pq.QuoteIdentifier(c.t.name), where, id)

	rows, err := c.db.Query(ctx, sql, comp.args...)
	if err != nil {
		return nil, fmt.Errorf("find %s ids: %w", c.t.name, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("find %s ids: %w", c.t.name, err)
	}
	return ids, nil
}

func (c *collection[T]) Resolve(ctx context.Context, ids []uuid.UUID) ([]model.Ref, error) {
	id := pq.QuoteIdentifier("id")
	sql := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ANY($1::uuid[])",
		id, pq.QuoteIdentifier(c.t.display), pq.QuoteIdentifier(c.t.name), id)
	if c.lock {
		// Lock theo thứ tự id để các writer chồng nhau không deadlock
		sql += " ORDER BY " + id + " FOR UPDATE"
	}

	rows, err := c.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", c.t.name, err)
	}
	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Ref, error) {
		var ref model.Ref
		err := row.Scan(&ref.ID, &ref.Display)
		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", c.t.name, err)
	}
	return refs, nil
}

// === WRITE ===

func (c *collection[T]) Insert(ctx context.Context, doc T) (T, error) {
	cols := c.t.writable()
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		pq.QuoteIdentifier(c.t.name), columnList(cols), placeholders(1, len(cols)), columnList(c.t.columns))

	stored, err := c.t.scan(c.db.QueryRow(ctx, sql, c.t.values(doc)...))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", c.t.name, err)
	}
	return stored, nil
}

// InsertAt dùng ON CONFLICT DO NOTHING: id đã có (kể cả do transaction khác
// vừa commit) thì không có row trả về, statement không làm abort transaction.
func (c *collection[T]) InsertAt(ctx context.Context, id uuid.UUID, doc T) (T, error) {
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING RETURNING %s",
		pq.QuoteIdentifier(c.t.name), columnList(c.t.columns), placeholders(1, len(c.t.columns)),
		pq.QuoteIdentifier("id"), columnList(c.t.columns))

	stored, err := c.t.scan(c.db.QueryRow(ctx, sql, append([]any{id}, c.t.values(doc)...)...))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, repository.ErrDocumentExists
		}
		return zero, fmt.Errorf("insert %s: %w", c.t.name, err)
	}
	return stored, nil
}

func (c *collection[T]) Replace(ctx context.Context, id uuid.UUID, doc T) (T, error) {
	cols := c.t.writable()
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = pq.QuoteIdentifier(col) + " = $" + strconv.Itoa(i+2)
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1 RETURNING %s",
		pq.QuoteIdentifier(c.t.name), strings.Join(sets, ", "), pq.QuoteIdentifier("id"), columnList(c.t.columns))

	stored, err := c.t.scan(c.db.QueryRow(ctx, sql, append([]any{id}, c.t.values(doc)...)...))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, repository.ErrNoDocument
		}
		return zero, fmt.Errorf("replace %s: %w", c.t.name, err)
	}
	return stored, nil
}

func (c *collection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", pq.QuoteIdentifier(c.t.name), pq.QuoteIdentifier("id"))

	tag, err := c.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNoDocument
	}
	return nil
}

func (c *collection[T]) PullRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) error {
	refs := pq.QuoteIdentifier(c.t.refs)
	sql := fmt.Sprintf("UPDATE %s SET %s = array_remove(%s, $2::uuid) WHERE %s = ANY($1::uuid[])",
		pq.QuoteIdentifier(c.t.name), refs, refs, pq.QuoteIdentifier("id"))

	if _, err := c.db.Exec(ctx, sql, ids, ref); err != nil {
		return fmt.Errorf("pull %s.%s: %w", c.t.name, c.t.refs, err)
	}
	return nil
}

// PushRef không append lại ref đã có nên chạy nhiều lần vẫn an toàn.
// UPDATE chạm mọi row khớp id để RowsAffected = số row còn tồn tại.
func (c *collection[T]) PushRef(ctx context.Context, ids []uuid.UUID, ref uuid.UUID) (int64, error) {
	tag, err := c.db.Exec(ctx, pushRefSQL(c.t.name, c.t.refs), ids, ref)
	if err != nil {
		return 0, fmt.Errorf("push %s.%s: %w", c.t.name, c.t.refs, err)
	}
	return tag.RowsAffected(), nil
}

func pushRefSQL(tableName, refsColumn string) string {
	refs := pq.QuoteIdentifier(refsColumn)
	return fmt.Sprintf("UPDATE %s SET %s = CASE WHEN $2::uuid = ANY(%s) THEN %s ELSE array_append(%s, $2::uuid) END WHERE %s = ANY($1::uuid[])",
		pq.QuoteIdentifier(tableName), refs, refs, refs, refs, pq.QuoteIdentifier("id"))
}

// placeholders(1, 3) = "$1, $2, $3"
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(ps, ", ")
}
