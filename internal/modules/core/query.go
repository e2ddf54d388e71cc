package core

import (
	"context"

	"github.com/eskrenkovic/tql"
)

// PrimeScanCache fills tql's column cache for T by scanning a single NULL
// column. tql fills that cache lazily and without locking, so every type
// scanned by handlers is primed once before requests are served. The
// column must be one T can scan a NULL into.
func PrimeScanCache[T any](ctx context.Context, q tql.Querier, column string) error {
	_, err := tql.QueryFirst[T](ctx, q, "SELECT NULL AS "+column+";")
	return err
}
