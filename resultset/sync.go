package resultset

import (
	"sync"
	"time"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/logger"
)

// message is the worker to owner handoff. A cycle sends the fetched rows,
// then its sync events in order, then done.
type message struct {
	values *column.Buffer
	event  *syncEvent
	done   bool
	err    error
}

type editResult struct {
	event Event
}

// loop is the owner context: every structural change to the published rows
// happens here.
func (s *ResultSet) loop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.stop:
			return
		case m := <-s.msgs:
			s.handle(m)
		case <-s.updateCh:
			var b batch
			s.mu.Lock()
			if s.timerArmed {
				s.timerArmed = false
				s.updateLocked(&b)
			}
			s.mu.Unlock()
			s.dispatch(b)
		case r := <-s.editCh:
			s.dispatch(batch{r.event})
			if s.hub != nil {
				s.hub.ItemsEdited(r.event.Service)
			}
		}
	}
}

func (s *ResultSet) handle(m message) {
	var b batch
	s.mu.Lock()
	switch {
	case m.values != nil:
		s.cache.incoming.values = m.values
		s.flags |= flagSyncing
	case m.event != nil:
		s.applyLocked(*m.event, &b)
	case m.done:
		s.finishCycleLocked(m.err, &b)
	}
	s.mu.Unlock()
	s.dispatch(b)
}

// updateLocked commits pending edits and starts a fetch unless one is in
// flight or the result set was cancelled.
func (s *ResultSet) updateLocked(b *batch) {
	s.flags &^= flagUpdateRequested
	s.stopTimerLocked()

	s.commitEditsLocked()

	if s.flags&(flagActive|flagCancelled) == 0 {
		s.queryLocked(b)
	}
}

// requestUpdateLocked schedules an update after the debounce delay, or after
// the fetch in flight.
func (s *ResultSet) requestUpdateLocked() {
	if s.flags&flagUpdateRequested != 0 {
		return
	}
	s.flags |= flagUpdateRequested
	if s.flags&flagActive != 0 {
		s.flags |= flagRefresh
	} else {
		s.armTimerLocked()
	}
}

func (s *ResultSet) queryLocked(b *batch) {
	s.flags &^= flagRefresh | flagSyncFinished | flagSyncing
	s.flags |= flagActive | flagStarted
	s.stopTimerLocked()

	s.cache.swap()
	s.cycleDone = make(chan struct{})
	commits := s.commits
	s.commits = nil

	s.workers.Add(1)
	go s.run(s.cache.result.values, commits)

	b.add(Event{Kind: EventProgressChanged, Current: progressMaximum - 1, Maximum: progressMaximum})
}

// run fetches and diffs on the worker. baseline is not modified while a
// cycle runs.
func (s *ResultSet) run(baseline *column.Buffer, commits []*sync.WaitGroup) {
	defer s.workers.Done()

	for _, wg := range commits {
		wg.Wait()
	}

	start := time.Now()
	values, err := s.fetch()
	if err != nil {
		s.log.Warnw("fetch failed",
			logger.FieldError, err,
			logger.FieldErrorCode, errors.CodeOf(err).String())
		s.send(message{done: true, err: err})
		return
	}
	if !s.send(message{values: values}) {
		return
	}

	events := 0
	synchronize(baseline, values, s.args.IdentityWidth, func(e syncEvent) bool {
		events++
		return s.send(message{event: &e})
	})
	s.send(message{done: true})

	s.log.Debugw("fetch synchronized",
		logger.FieldRows, values.Len(),
		logger.FieldEvents, events,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}

func (s *ResultSet) send(m message) bool {
	select {
	case s.msgs <- m:
		return true
	case <-s.stop:
		return false
	}
}

func (s *ResultSet) fetch() (*column.Buffer, error) {
	values := column.NewBuffer(s.args.TableWidth)

	cursor, err := s.conn.Query(s.ctx, s.args.Query)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close()

	width := s.args.TableWidth
	for cursor.Next() {
		row := values.AppendRow()
		n := cursor.ColumnCount()
		if n > width {
			n = width
		}
		for i := 0; i < n; i++ {
			row[i] = s.args.ValueColumns[i].Decode(cursor, i)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, classify(err)
	}
	return values, nil
}

func classify(err error) error {
	if errors.CodeOf(err) == errors.UnknownError {
		return errors.Mark(err, errors.ErrQueryExecution)
	}
	return err
}

func (s *ResultSet) finishCycleLocked(err error, b *batch) {
	if err != nil {
		s.cache.restore()
		s.err = err
	} else {
		s.cache.retire()
		s.err = nil
	}
	s.flags &^= flagActive | flagSyncing
	done := s.cycleDone

	if s.flags&flagRefresh != 0 && s.flags&flagCancelled == 0 {
		s.updateLocked(b)
	} else {
		b.add(Event{Kind: EventProgressChanged, Current: progressMaximum, Maximum: progressMaximum})
	}
	close(done)

	switch {
	case err != nil:
		b.add(Event{Kind: EventError, Err: err})
	case s.flags&flagCancelled != 0:
		b.add(Event{Kind: EventCancelled})
	default:
		b.add(Event{Kind: EventFinished, Idle: s.flags&flagLive != 0})
	}
}

func (s *ResultSet) applyLocked(e syncEvent, b *batch) {
	switch e.kind {
	case syncUpdate:
		s.cache.result.offset = e.rIndex + e.rCount
		s.cache.incoming.cutoff = e.iIndex + e.iCount
		b.add(Event{Kind: EventMetaDataChanged, Index: e.iIndex, Count: e.iCount, Keys: s.propertyKeys})
		s.moveCursorLocked(s.cursor, s.current != nil, b)

	case syncReplace:
		s.replaceLocked(e.rIndex, e.rCount, e.iIndex, e.iCount, b)

	case syncFinish:
		rCount := s.cache.result.count() - e.rIndex
		iCount := s.cache.incoming.count() - e.iIndex
		s.replaceLocked(e.rIndex, rCount, e.iIndex, iCount, b)

		s.cache.result.offset = s.cache.result.count()
		s.cache.incoming.cutoff = s.cache.incoming.count()
		bind := s.current != nil || (s.cursor >= 0 && s.cursor < s.cache.rowCount())
		s.moveCursorLocked(s.cursor, bind, b)
		s.flags |= flagSyncFinished
	}
}

// replaceLocked removes rCount items at iIndex and inserts the iCount
// incoming rows from iIndex in their place.
func (s *ResultSet) replaceLocked(rIndex, rCount, iIndex, iCount int, b *batch) {
	hasRow := s.current != nil
	cursor := s.cursor
	displaced := false

	if rCount > 0 {
		s.cache.result.offset = rIndex + rCount
		s.cache.incoming.cutoff = iIndex
		b.add(Event{Kind: EventItemsRemoved, Index: iIndex, Count: rCount})
		s.editsRemovedLocked(iIndex, rCount)

		if hasRow {
			switch {
			case cursor >= iIndex && cursor < iIndex+rCount:
				cursor = iIndex
				displaced = true
			case cursor >= iIndex+rCount:
				cursor -= rCount
			}
		}
	}

	if iCount > 0 {
		s.cache.result.offset = rIndex + rCount
		s.cache.incoming.cutoff = iIndex + iCount
		b.add(Event{Kind: EventItemsInserted, Index: iIndex, Count: iCount})
		s.editsInsertedLocked(iIndex, iCount)

		if hasRow && !displaced && cursor >= iIndex {
			cursor += iCount
		}
	}

	bind := hasRow || (cursor >= iIndex && cursor < iIndex+iCount)
	s.moveCursorLocked(cursor, bind, b)
}

func (s *ResultSet) moveCursorLocked(cursor int, bind bool, b *batch) {
	if cursor != s.cursor {
		s.cursor = cursor
		b.add(Event{Kind: EventCurrentIndexChanged, Index: cursor})
	}
	if !bind {
		return
	}
	row := s.cache.row(cursor)
	changed := !sameRow(s.current, row)
	s.current = row
	if changed {
		b.add(Event{Kind: EventCurrentItemChanged})
	}
}
