package resultset

import (
	"sort"
)

// EventKind identifies a result set notification.
type EventKind int

const (
	EventItemsInserted EventKind = iota
	EventItemsRemoved
	EventMetaDataChanged
	EventCurrentIndexChanged
	EventCurrentItemChanged
	EventProgressChanged
	EventFinished
	EventCancelled
	EventError
	EventItemEdited
)

var eventKindNames = []string{
	"itemsInserted",
	"itemsRemoved",
	"metaDataChanged",
	"currentIndexChanged",
	"currentItemChanged",
	"progressChanged",
	"finished",
	"cancelled",
	"error",
	"itemEdited",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Event is a notification delivered to observers.
type Event struct {
	Kind EventKind

	// Index and Count locate inserted, removed or changed items. For
	// EventCurrentIndexChanged, Index is the new cursor position.
	Index int
	Count int
	// Keys lists the property keys whose values changed.
	Keys []int

	// Current and Maximum report progress.
	Current int
	Maximum int

	// Idle is set on EventFinished when the result set stays live.
	Idle bool

	// Err is set on EventError and on failed EventItemEdited.
	Err error

	// Service is the rdf class of an edited item.
	Service string
}

// Observer receives result set notifications. Observers run on the
// goroutine that caused the change and must not block or wait on the
// result set.
type Observer func(Event)

type batch []Event

func (b *batch) add(e Event) {
	*b = append(*b, e)
}

// Subscribe registers o and returns a function removing it again.
func (s *ResultSet) Subscribe(o Observer) (unsubscribe func()) {
	s.observersMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = o
	s.observersMu.Unlock()

	return func() {
		s.observersMu.Lock()
		delete(s.observers, id)
		s.observersMu.Unlock()
	}
}

func (s *ResultSet) dispatch(b batch) {
	if len(b) == 0 {
		return
	}

	s.observersMu.RLock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = s.observers[id]
	}
	s.observersMu.RUnlock()

	for _, e := range b {
		for _, o := range observers {
			o(e)
		}
	}
}
