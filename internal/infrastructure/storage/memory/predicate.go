package memory

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/domains/catalog/query"
)

// match evaluate predicate trên một document.
// Field vắng mặt (nil) không match ILike/Range, giống NULL trong SQL.
func match[T model.Record[T]](doc T, pred query.Predicate, fields []string) (bool, error) {
	switch p := pred.(type) {
	case nil, query.All:
		return true, nil

	case query.And:
		for _, child := range p {
			ok, err := match(doc, child, fields)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case query.ILike:
		if err := knownField(p.Field, fields); err != nil {
			return false, err
		}
		s, ok := doc.Field(p.Field).(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(p.Pattern)), nil

	case query.Range:
		if err := knownField(p.Field, fields); err != nil {
			return false, err
		}
		v := doc.Field(p.Field)
		if v == nil {
			return false, nil
		}
		if p.Gte != nil {
			c, ok := compare(v, p.Gte)
			if !ok {
				return false, fmt.Errorf("range on %s: incomparable bound %T", p.Field, p.Gte)
			}
			if c < 0 {
				return false, nil
			}
		}
		if p.Lte != nil {
			c, ok := compare(v, p.Lte)
			if !ok {
				return false, fmt.Errorf("range on %s: incomparable bound %T", p.Field, p.Lte)
			}
			if c > 0 {
				return false, nil
			}
		}
		return true, nil

	case query.ContainsAny:
		if err := knownField(p.Field, fields); err != nil {
			return false, err
		}
		refs, _ := doc.Field(p.Field).([]uuid.UUID)
		for _, id := range p.IDs {
			if slices.Contains(refs, id) {
				return true, nil
			}
		}
		return false, nil
	}

	return false, fmt.Errorf("unsupported predicate %T", pred)
}

func knownField(field string, fields []string) error {
	if !slices.Contains(fields, field) {
		return fmt.Errorf("%w: %s", query.ErrUnknownField, field)
	}
	return nil
}

// compare so sánh hai giá trị cùng kiểu. ok=false khi kiểu không hỗ trợ hoặc lệch nhau.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return cmp.Compare(x, y), ok
	case int:
		y, ok := b.(int)
		return cmp.Compare(x, y), ok
	case time.Time:
		y, ok := b.(time.Time)
		return x.Compare(y), ok
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return x.Cmp(y), ok
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		return bytes.Compare(x[:], y[:]), ok
	}
	return 0, false
}
