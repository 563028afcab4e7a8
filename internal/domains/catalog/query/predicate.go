// Package query là predicate model độc lập với storage engine.
// Filter translator sinh ra Predicate, mỗi storage engine tự compile/evaluate.
package query

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownField is returned by engines for a field they cannot map.
var ErrUnknownField = errors.New("unknown query field")

// Predicate is a closed set of query nodes.
type Predicate interface {
	isPredicate()
}

// All matches every document.
type All struct{}

// And matches when every child matches. An empty And matches everything.
type And []Predicate

// ILike - case-insensitive substring match trên string field.
// Pattern là text thô của user, engine phải escape wildcard.
type ILike struct {
	Field   string
	Pattern string
}

// Range - inclusive bounds. Nil bound = không giới hạn phía đó.
type Range struct {
	Field string
	Gte   any
	Lte   any
}

// ContainsAny matches when the reference array Field shares at least one id
// with IDs. An empty IDs never matches.
type ContainsAny struct {
	Field string
	IDs   []uuid.UUID
}

func (All) isPredicate()         {}
func (And) isPredicate()         {}
func (ILike) isPredicate()       {}
func (Range) isPredicate()       {}
func (ContainsAny) isPredicate() {}

// Sort - một sort key, Desc = giảm dần
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort đọc "name" hoặc "-name"
func ParseSort(s string) Sort {
	if strings.HasPrefix(s, "-") {
		return Sort{Field: strings.TrimPrefix(s, "-"), Desc: true}
	}
	return Sort{Field: s}
}

// FindOptions - sort + limit/offset. Limit 0 = không giới hạn.
type FindOptions struct {
	Sort   Sort
	Limit  int
	Offset int
}

// Simplify flattens nested Ands and drops All children.
// A predicate with nothing left becomes All.
func Simplify(p Predicate) Predicate {
	and, ok := p.(And)
	if !ok {
		if p == nil {
			return All{}
		}
		return p
	}

	var flat And
	for _, child := range and {
		switch c := Simplify(child).(type) {
		case All:
			continue
		case And:
			flat = append(flat, c...)
		default:
			flat = append(flat, c)
		}
	}

	switch len(flat) {
	case 0:
		return All{}
	case 1:
		return flat[0]
	}
	return flat
}
