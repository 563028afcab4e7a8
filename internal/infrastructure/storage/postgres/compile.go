package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"catalog-backend/internal/domains/catalog/query"
)

// compiler dịch query.Predicate thành WHERE clause với placeholder $n.
// args tích lũy qua nhiều lần compile để LIMIT/OFFSET nối tiếp được.
type compiler struct {
	fields map[string]string
	args   []any
}

func newCompiler(fields map[string]string) *compiler {
	return &compiler{fields: fields}
}

// bind thêm arg và trả về placeholder tương ứng
func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return "$" + strconv.Itoa(len(c.args))
}

func (c *compiler) column(field string) (string, error) {
	col, ok := c.fields[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", query.ErrUnknownField, field)
	}
	return pq.QuoteIdentifier(col), nil
}

func (c *compiler) where(pred query.Predicate) (string, error) {
	switch p := query.Simplify(pred).(type) {
	case query.All:
		return "TRUE", nil

	case query.And:
		parts := make([]string, 0, len(p))
		for _, child := range p {
			sql, err := c.where(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+sql+")")
		}
		return strings.Join(parts, " AND "), nil

	case query.ILike:
		col, err := c.column(p.Field)
		if err != nil {
			return "", err
		}
		return col + " ILIKE " + c.bind("%"+escapeLike(p.Pattern)+"%"), nil

	case query.Range:
		col, err := c.column(p.Field)
		if err != nil {
			return "", err
		}
		var parts []string
		if p.Gte != nil {
			parts = append(parts, col+" >= "+c.bind(p.Gte))
		}
		if p.Lte != nil {
			parts = append(parts, col+" <= "+c.bind(p.Lte))
		}
		if len(parts) == 0 {
			return col + " IS NOT NULL", nil
		}
		return strings.Join(parts, " AND "), nil

	case query.ContainsAny:
		col, err := c.column(p.Field)
		if err != nil {
			return "", err
		}
		// Không có id nào thì không row nào match, query vẫn chạy bình thường
		if len(p.IDs) == 0 {
			return "FALSE", nil
		}
		return col + " && " + c.bind(p.IDs) + "::uuid[]", nil
	}

	return "", fmt.Errorf("unsupported predicate %T", pred)
}

// orderBy luôn tie-break bằng id để page ổn định
func (c *compiler) orderBy(s query.Sort) (string, error) {
	field := s.Field
	if field == "" {
		field = "id"
	}
	col, err := c.column(field)
	if err != nil {
		return "", err
	}

	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if field == "id" {
		return col + " " + dir, nil
	}
	return col + " " + dir + ", " + pq.QuoteIdentifier("id") + " ASC", nil
}

func (c *compiler) limitOffset(limit, offset int) string {
	var sb strings.Builder
	if limit > 0 {
		sb.WriteString(" LIMIT " + c.bind(limit))
	}
	if offset > 0 {
		sb.WriteString(" OFFSET " + c.bind(offset))
	}
	return sb.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike để wildcard trong input của user được hiểu là ký tự thường
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// columnList quote và join danh sách cột
func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = pq.QuoteIdentifier(col)
	}
	return strings.Join(quoted, ", ")
}
