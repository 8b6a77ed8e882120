// Package store defines the connection to the semantic metadata store.
//
// A Connection executes compiled query strings and yields rows positionally
// through a Cursor. Implementations live in subpackages (sparql for a SPARQL
// 1.1 protocol endpoint, storetest for scripted tests).
package store

import (
	"context"
)

// Connection executes queries and update statements against the store.
type Connection interface {
	Query(ctx context.Context, query string) (Cursor, error)
	Update(ctx context.Context, statement string) error
}

// Cursor iterates over the rows of a query result. Cells are read
// positionally as their lexical string form.
type Cursor interface {
	Next() bool
	ColumnCount() int
	// Value returns the lexical form of cell i and whether it is bound.
	Value(i int) (string, bool)
	Err() error
	Close() error
}
