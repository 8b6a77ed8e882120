// Package storetest provides a scripted store.Connection for tests.
package storetest

import (
	"context"
	"strings"
	"sync"

	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/store"
)

// Unbound marks a cell as unbound in scripted rows.
const Unbound = "\x00unbound"

type script struct {
	match string
	rows  [][]string
	err   error
}

// Connection answers queries from scripted rows and records every query
// and update it receives.
type Connection struct {
	mu        sync.Mutex
	scripts   []script
	rows      [][]string
	queryErr  error
	updateErr error
	gate      chan struct{}
	queries   []string
	updates   []string
	closed    bool
}

// New returns a connection that answers every query with no rows.
func New() *Connection {
	return &Connection{}
}

// SetRows sets the rows returned by queries no script matches.
func (c *Connection) SetRows(rows ...[]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
}

// On answers queries containing match with rows. Later scripts take precedence.
func (c *Connection) On(match string, rows ...[]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append([]script{{match: match, rows: rows}}, c.scripts...)
}

// FailOn fails queries containing match with err.
func (c *Connection) FailOn(match string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append([]script{{match: match, err: err}}, c.scripts...)
}

// SetQueryError fails every query with err until cleared with nil.
func (c *Connection) SetQueryError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryErr = err
}

// SetUpdateError fails every update with err until cleared with nil.
func (c *Connection) SetUpdateError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateErr = err
}

// Hold blocks queries until the returned release func is called.
func (c *Connection) Hold() (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.gate = gate
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if c.gate == gate {
				c.gate = nil
			}
			c.mu.Unlock()
			close(gate)
		})
	}
}

// Query implements store.Connection.
func (c *Connection) Query(ctx context.Context, query string) (store.Cursor, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Wrap(errors.ErrConnection, "connection closed")
	}
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	for _, s := range c.scripts {
		if strings.Contains(query, s.match) {
			if s.err != nil {
				return nil, s.err
			}
			return NewCursor(s.rows...), nil
		}
	}
	return NewCursor(c.rows...), nil
}

// Update implements store.Connection.
func (c *Connection) Update(_ context.Context, statement string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.updateErr != nil {
		return c.updateErr
	}
	c.updates = append(c.updates, statement)
	return nil
}

// Close marks the connection closed.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Queries returns every query received so far.
func (c *Connection) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// Updates returns every successful update statement received so far.
func (c *Connection) Updates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.updates...)
}

// Cursor iterates over scripted rows.
type Cursor struct {
	rows [][]string
	pos  int
}

// NewCursor returns a cursor over rows.
func NewCursor(rows ...[]string) *Cursor {
	return &Cursor{rows: rows, pos: -1}
}

func (c *Cursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		c.pos = len(c.rows)
		return false
	}
	c.pos++
	return true
}

func (c *Cursor) ColumnCount() int {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0
	}
	return len(c.rows[c.pos])
}

func (c *Cursor) Value(i int) (string, bool) {
	if c.pos < 0 || c.pos >= len(c.rows) || i < 0 || i >= len(c.rows[c.pos]) {
		return "", false
	}
	v := c.rows[c.pos][i]
	if v == Unbound {
		return "", false
	}
	return v, true
}

func (c *Cursor) Err() error   { return nil }
func (c *Cursor) Close() error { return nil }
