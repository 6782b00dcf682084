package option

import (
	"time"

	"license-sync/pkg/db/pagination"

	"gorm.io/gorm"
)

// QueryOption customizes a gorm query before execution.
type QueryOption func(tx *gorm.DB) *gorm.DB

// ApplyPagination orders by (created_at, id) descending and over-fetches one
// row so the caller can detect whether another page exists.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		limit := p.Limit
		if limit <= 0 {
			limit = 10
		}

		tx = tx.Order("created_at DESC, id DESC").Limit(limit + 1)

		if p.Cursor != "" {
			cursor, err := pagination.DecodeCursor(p.Cursor)
			if err == nil && cursor != nil {
				// Bind a time.Time so the driver renders the timestamp in
				// the same format it stored created_at with.
				if ts, terr := time.Parse(time.RFC3339Nano, cursor.CreatedAt); terr == nil {
					tx = tx.Where("(created_at, id) < (?, ?)", ts, cursor.ID)
				}
			}
		}

		return tx
	}
}

// Where appends an extra condition to the query.
func Where(query any, args ...any) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}
