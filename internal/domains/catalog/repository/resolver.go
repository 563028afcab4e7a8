package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"catalog-backend/internal/domains/catalog/model"
)

// resolveRefs kiểm tra ids tồn tại ở collection phía bên kia và trả về summary của chúng.
// Một lần lookup duy nhất cho cả list. Thứ tự kết quả theo thứ tự engine trả về.
//
// Duplicates and unknown ids are reported together under field, since a single
// length comparison cannot tell them apart.
func resolveRefs[C any](ctx context.Context, coll Collection[C], field string, ids []uuid.UUID) ([]model.Ref, error) {
	if len(ids) == 0 {
		return []model.Ref{}, nil
	}

	distinct := distinctIDs(ids)
	refs, err := coll.Resolve(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", field, err)
	}

	if len(refs) != len(distinct) || len(distinct) != len(ids) {
		return nil, invalidRefs(field)
	}
	return refs, nil
}

func invalidRefs(field string) error {
	return model.NewValidationError(field, fmt.Sprintf("some %s were not found or are duplicated", field))
}

// distinctIDs giữ thứ tự xuất hiện đầu tiên
func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffIDs trả về các id có trong a nhưng không có trong b
func diffIDs(a, b []uuid.UUID) []uuid.UUID {
	exclude := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		exclude[id] = struct{}{}
	}

	var out []uuid.UUID
	for _, id := range distinctIDs(a) {
		if _, ok := exclude[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
