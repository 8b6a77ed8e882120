package store

import (
	"context"
	"io"
	"sync"

	"github.com/teranos/gallery/errors"
)

// Shared is a reference-counted Connection. The underlying connection is
// closed when the last reference is released.
type Shared struct {
	conn Connection

	mu   sync.Mutex
	refs int
}

// NewShared wraps conn with a single reference held by the caller.
func NewShared(conn Connection) *Shared {
	return &Shared{conn: conn, refs: 1}
}

// Acquire adds a reference. It fails once the connection has been closed.
func (s *Shared) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return errors.Wrap(errors.ErrConnection, "connection already released")
	}
	s.refs++
	return nil
}

// Release drops a reference, closing the underlying connection when none remain.
func (s *Shared) Release() error {
	s.mu.Lock()
	if s.refs == 0 {
		s.mu.Unlock()
		return nil
	}
	s.refs--
	last := s.refs == 0
	s.mu.Unlock()

	if last {
		if c, ok := s.conn.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

// Refs returns the current reference count.
func (s *Shared) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

func (s *Shared) live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs > 0
}

// Query implements Connection.
func (s *Shared) Query(ctx context.Context, query string) (Cursor, error) {
	if !s.live() {
		return nil, errors.Wrap(errors.ErrConnection, "connection released")
	}
	return s.conn.Query(ctx, query)
}

// Update implements Connection.
func (s *Shared) Update(ctx context.Context, statement string) error {
	if !s.live() {
		return errors.Wrap(errors.ErrConnection, "connection released")
	}
	return s.conn.Update(ctx, statement)
}
