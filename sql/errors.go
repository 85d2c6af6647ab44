package sql

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrRewriteConstruction is returned when a rewritten FROM fragment
	// cannot be parsed back into a valid derived table. It indicates a
	// defect in how table names or join keys were formatted, so the whole
	// rewrite aborts instead of silently returning unrewritten SQL.
	ErrRewriteConstruction = errors.NewKind("rewrite: constructed FROM fragment is not valid SQL: %s")

	// ErrKeyNotFound is returned when a key could not be found in the
	// rewrite cache.
	ErrKeyNotFound = errors.NewKind("cache: key %d not found")
)
