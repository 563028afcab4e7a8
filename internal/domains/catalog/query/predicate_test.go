package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	assert.Equal(t, Sort{Field: "name"}, ParseSort("name"))
	assert.Equal(t, Sort{Field: "name", Desc: true}, ParseSort("-name"))
	assert.Equal(t, Sort{Field: "", Desc: true}, ParseSort("-"))
}

func TestSimplify(t *testing.T) {
	title := ILike{Field: "title", Pattern: "x"}
	pages := Range{Field: "numberOfPages", Gte: 1}

	tests := []struct {
		name string
		in   Predicate
		want Predicate
	}{
		{"nil", nil, All{}},
		{"empty and", And{}, All{}},
		{"and of all", And{All{}, All{}}, All{}},
		{"single child unwrapped", And{title}, title},
		{"nested flattened", And{title, And{All{}, pages}}, And{title, pages}},
		{"leaf untouched", pages, pages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Simplify(tt.in))
		})
	}
}
