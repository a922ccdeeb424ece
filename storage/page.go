package storage

import "github.com/sig-0/fxpoints/storage/types"

const (
	DefaultLimit = int32(100)
	MaxLimit     = int32(500)
)

// Paginate slices the sorted results according to the query limit and offset
func Paginate[T any](results []T, limit int32, offset int64) *types.Page[T] {
	total := int64(len(results))
	if total == 0 {
		return &types.Page[T]{
			Results: nil,
			Total:   0,
		}
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 || offset >= total {
		return &types.Page[T]{
			Results: nil,
			Total:   total,
		}
	}

	var (
		start = int(offset)
		end   = start + int(limit)
	)

	if end > len(results) {
		end = len(results)
	}

	return &types.Page[T]{
		Results: results[start:end],
		Total:   total,
	}
}
