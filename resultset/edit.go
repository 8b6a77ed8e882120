package resultset

import (
	"strings"
	"sync"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/schema"
)

// edit accumulates field writes to one published item until the next
// update commits them.
type edit struct {
	index   int
	subject string
	fields  []string
	terms   map[string][]string
}

func (e *edit) set(field string, terms []string) {
	if _, ok := e.terms[field]; !ok {
		e.fields = append(e.fields, field)
	}
	e.terms[field] = terms
}

// statements returns one update per field, replacing every value of the
// predicate.
func (e *edit) statements() []string {
	subject := "<" + e.subject + ">"
	out := make([]string, 0, len(e.fields))
	for _, field := range e.fields {
		pattern := subject + " " + field + " ?o"
		terms := e.terms[field]
		if len(terms) == 0 {
			out = append(out, "DELETE { "+pattern+" } WHERE { "+pattern+" }")
			continue
		}
		out = append(out,
			"DELETE { "+pattern+" } INSERT { "+subject+" "+field+" "+strings.Join(terms, " , ")+
				" } WHERE { OPTIONAL { "+pattern+" } }")
	}
	return out
}

// SetMetaData writes value to key of the current item. The write is
// committed before the next fetch; the cached value is unchanged until
// then. It reports false when there is no current item or key cannot be
// written.
func (s *ResultSet) SetMetaData(key int, value column.Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.args
	if s.current == nil || key < a.ValueOffset || key >= a.ColumnCount || s.flags&flagClosed != 0 {
		return false
	}
	if a.Attributes(key)&schema.CanWrite == 0 {
		return false
	}

	col := key
	if col >= a.AliasOffset {
		col = a.AliasColumns[col-a.AliasOffset] + a.ValueOffset
	}
	if col >= a.CompositeOffset {
		return false
	}
	field := a.FieldNames[col-a.ValueOffset]
	if field == "" {
		return false
	}

	subject := s.current.String(0)
	if !column.ValidIRI(subject) {
		s.log.Debugw("rejected edit of item without a writable identity", logger.FieldItemID, subject)
		return false
	}

	current := s.current.Cell(col)
	if column.Equal(current, value) {
		return true
	}
	encoded, err := a.ValueColumns[col].Encode(value)
	if err != nil {
		s.log.Debugw("rejected edit", logger.FieldError, err)
		return false
	}
	if old, err := a.ValueColumns[col].Encode(current); err == nil && current != nil && old == encoded {
		return true
	}

	var e *edit
	for _, pending := range s.edits {
		if pending.index == s.cursor {
			e = pending
			break
		}
	}
	if e == nil {
		e = &edit{index: s.cursor, subject: subject, terms: make(map[string][]string)}
		s.edits = append(s.edits, e)
		s.requestUpdateLocked()
	}
	e.set(field, literals(a.ValueColumns[col], encoded))
	return true
}

// PendingEdits returns the number of uncommitted edits.
func (s *ResultSet) PendingEdits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edits)
}

func literals(col column.ValueColumn, encoded string) []string {
	switch col := col.(type) {
	case column.IntColumn, column.LongLongColumn, column.DoubleColumn:
		return []string{encoded}
	case column.DateTimeColumn:
		return []string{quote(encoded) + "^^xsd:dateTime"}
	case column.URLColumn:
		return []string{"<" + encoded + ">"}
	case column.StringListColumn:
		var terms []string
		for _, v := range strings.Split(encoded, col.Separator) {
			if v != "" {
				terms = append(terms, quote(v))
			}
		}
		return terms
	default:
		return []string{quote(encoded)}
	}
}

func quote(s string) string {
	return "'" + schema.EscapeLiteral(s) + "'"
}

func (s *ResultSet) editsRemovedLocked(index, count int) {
	kept := s.edits[:0]
	for _, e := range s.edits {
		switch {
		case e.index >= index && e.index < index+count:
			s.log.Debugw("dropped edit of removed item", logger.FieldItemID, e.subject)
			continue
		case e.index >= index+count:
			e.index -= count
		}
		kept = append(kept, e)
	}
	s.edits = kept
}

func (s *ResultSet) editsInsertedLocked(index, count int) {
	for _, e := range s.edits {
		if e.index >= index {
			e.index += count
		}
	}
}

// commitEditsLocked hands every pending edit to the pool. The next fetch
// waits for them.
func (s *ResultSet) commitEditsLocked() {
	if len(s.edits) == 0 {
		return
	}
	wg := new(sync.WaitGroup)
	for _, e := range s.edits {
		e := e
		wg.Add(1)
		s.allEdits.Add(1)
		task := func() {
			defer s.allEdits.Done()
			defer wg.Done()
			ev := s.editEvent(e, s.commitEdit(e))
			select {
			case s.editCh <- editResult{event: ev}:
			case <-s.stop:
			}
		}
		if s.pool == nil || s.pool.Submit(task) != nil {
			go task()
		}
	}
	s.commits = append(s.commits, wg)
	s.edits = nil
}

func (s *ResultSet) commitEdit(e *edit) error {
	var errs []error
	for _, stmt := range e.statements() {
		if err := s.conn.Update(s.ctx, stmt); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		s.log.Warnw("edit failed",
			logger.FieldItemID, e.subject,
			logger.FieldError, err)
	} else {
		s.log.Debugw("edit committed",
			logger.FieldItemID, e.subject,
			logger.FieldCount, len(e.fields))
	}
	return err
}

func (s *ResultSet) editEvent(e *edit, err error) Event {
	return Event{Kind: EventItemEdited, Index: e.index, Service: s.args.Service, Err: err}
}
