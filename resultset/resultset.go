// Package resultset keeps the rows of a compiled gallery request synchronized
// with the store.
//
// A ResultSet fetches its query on a background worker, diffs the fetched
// rows against the rows it last published and applies the differences as
// ordered insert, remove and change notifications. Live result sets refetch
// when the change notifier reports items of their type changed. Edits made
// through SetMetaData are committed before the next fetch.
package resultset

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/notify"
	"github.com/teranos/gallery/schema"
	"github.com/teranos/gallery/store"
)

const progressMaximum = 2

const (
	DefaultDebounce    = 100 * time.Millisecond
	DefaultEventBuffer = 64
)

type flags uint16

const (
	flagActive flags = 1 << iota
	flagCancelled
	flagLive
	flagRefresh
	flagSyncFinished
	flagUpdateRequested
	flagSyncing
	flagStarted
	flagClosed
)

// State is the externally visible lifecycle state.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateSyncing
	StateLiveIdle
	StateRefreshPending
	StateCancelled
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateSyncing:
		return "syncing"
	case StateLiveIdle:
		return "live"
	case StateRefreshPending:
		return "refresh-pending"
	case StateCancelled:
		return "cancelled"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// TaskPool runs edit commits. *ants.Pool satisfies it.
type TaskPool interface {
	Submit(task func()) error
}

// Hub delivers change notifications to live result sets and receives edit
// notifications from them. *notify.Hub satisfies it.
type Hub interface {
	Subscribe(l notify.Listener) (unsubscribe func())
	ItemsEdited(service string)
}

// Options tune a ResultSet.
type Options struct {
	// Live keeps the result set refreshing on change notifications.
	Live bool
	// Debounce coalesces change notifications into one refresh.
	Debounce time.Duration
	// EventBuffer bounds the queue between the worker and the owner loop.
	EventBuffer int
	// Pool runs edit commits; nil commits on plain goroutines.
	Pool TaskPool
	// Hub is subscribed to when Live and told about committed edits.
	Hub Hub
	// Observers are registered before the first fetch starts.
	Observers []Observer
	Logger    *zap.SugaredLogger
}

// Resource is the url of an item plus its resource related values.
type Resource struct {
	URL        string
	Attributes map[int]column.Value
}

// ResultSet is a live view over the rows of one compiled request.
type ResultSet struct {
	id           string
	args         *schema.Arguments
	conn         *store.Shared
	pool         TaskPool
	hub          Hub
	log          *zap.SugaredLogger
	debounce     time.Duration
	propertyKeys []int

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	flags       flags
	cache       cache
	cursor      int
	current     column.Row
	edits       []*edit
	commits     []*sync.WaitGroup
	err         error
	timer       *time.Timer
	timerArmed  bool
	cycleDone   chan struct{}
	unsubscribe func()

	observersMu  sync.RWMutex
	observers    map[int]Observer
	nextObserver int

	msgs     chan message
	updateCh chan struct{}
	editCh   chan editResult
	stop     chan struct{}
	loopDone chan struct{}

	workers   sync.WaitGroup
	allEdits  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts fetching args.Query over conn. The result set holds a
// reference to conn until Close.
func New(conn *store.Shared, args *schema.Arguments, opts Options) (*ResultSet, error) {
	if conn == nil {
		return nil, errors.Wrap(errors.ErrConnection, "result set requires a connection")
	}
	if args == nil {
		return nil, errors.New("result set requires compiled arguments")
	}
	if err := args.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid result set arguments")
	}
	if err := conn.Acquire(); err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	log := opts.Logger
	if log == nil {
		log = logger.Logger
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(logger.WithComponent(logger.WithRequestID(context.Background(), id), "resultset"))

	s := &ResultSet{
		id:        id,
		args:      args,
		conn:      conn,
		pool:      opts.Pool,
		hub:       opts.Hub,
		log:       log.With(logger.FieldComponent, "resultset", logger.FieldResultSetID, id),
		debounce:  opts.Debounce,
		ctx:       ctx,
		cancel:    cancel,
		cache:     newCache(args.TableWidth),
		cursor:    -1,
		observers: make(map[int]Observer),
		msgs:      make(chan message, opts.EventBuffer),
		updateCh:  make(chan struct{}, 1),
		editCh:    make(chan editResult, opts.EventBuffer),
		stop:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
	for k := args.ValueOffset; k < args.ColumnCount; k++ {
		s.propertyKeys = append(s.propertyKeys, k)
	}
	for _, o := range opts.Observers {
		s.Subscribe(o)
	}
	if opts.Live {
		s.flags |= flagLive
		if s.hub != nil {
			s.unsubscribe = s.hub.Subscribe(s.Refresh)
		}
	}

	go s.loop()

	var b batch
	s.mu.Lock()
	s.queryLocked(&b)
	s.mu.Unlock()
	s.dispatch(b)

	return s, nil
}

// ID identifies the result set in logs.
func (s *ResultSet) ID() string { return s.id }

// Service returns the rdf class of the queried items.
func (s *ResultSet) Service() string { return s.args.Service }

// PropertyNames lists the properties in key order.
func (s *ResultSet) PropertyNames() []string {
	return append([]string(nil), s.args.PropertyNames...)
}

// PropertyKey returns the key of property, or -1.
func (s *ResultSet) PropertyKey(property string) int {
	return s.args.PropertyKey(property)
}

// PropertyAttributes returns the attributes of key.
func (s *ResultSet) PropertyAttributes(key int) schema.Attributes {
	return s.args.Attributes(key)
}

// PropertyType returns the value type of key.
func (s *ResultSet) PropertyType(key int) column.Type {
	return s.args.Type(key)
}

// ItemCount returns the number of published items.
func (s *ResultSet) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.rowCount()
}

// CurrentIndex returns the cursor position.
func (s *ResultSet) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Fetch moves the cursor to index and reports whether an item is there.
func (s *ResultSet) Fetch(index int) bool {
	s.mu.Lock()
	s.cursor = index
	s.current = s.cache.row(index)
	ok := s.current != nil
	s.mu.Unlock()

	s.dispatch(batch{
		{Kind: EventCurrentIndexChanged, Index: index},
		{Kind: EventCurrentItemChanged},
	})
	return ok
}

// ItemID returns the gallery id of the current item, or "".
func (s *ResultSet) ItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	id, _ := s.args.IDColumn.Value(s.current).(string)
	return id
}

// ItemURL returns the url of the current item, or "".
func (s *ResultSet) ItemURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemURLLocked()
}

func (s *ResultSet) itemURLLocked() string {
	if s.current == nil {
		return ""
	}
	u, _ := column.Lexical(s.args.URLColumn.Value(s.current))
	return u
}

// ItemType returns the item type name of the current item, or "".
func (s *ResultSet) ItemType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	t, _ := s.args.TypeColumn.Value(s.current).(string)
	return t
}

// MetaData returns the value of key for the current item.
func (s *ResultSet) MetaData(key int) column.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaDataLocked(key)
}

func (s *ResultSet) metaDataLocked(key int) column.Value {
	a := s.args
	if s.current == nil || key < a.ValueOffset {
		return nil
	}
	switch {
	case key < a.CompositeOffset:
		return s.current.Cell(key)
	case key < a.AliasOffset:
		return a.CompositeColumns[key-a.CompositeOffset].Value(s.current)
	case key < a.ColumnCount:
		return s.current.Cell(a.AliasColumns[key-a.AliasOffset] + a.ValueOffset)
	default:
		return nil
	}
}

// Resources returns the current item's resource, if it has a url.
func (s *ResultSet) Resources() []Resource {
	s.mu.Lock()
	defer s.mu.Unlock()

	url := s.itemURLLocked()
	if url == "" {
		return nil
	}
	attrs := make(map[int]column.Value)
	for _, key := range s.args.ResourceKeys {
		if v := s.metaDataLocked(key); v != nil {
			attrs[key] = v
		}
	}
	return []Resource{{URL: url, Attributes: attrs}}
}

// Err returns the error of the last failed fetch, or nil.
func (s *ResultSet) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the lifecycle state.
func (s *ResultSet) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.flags
	switch {
	case f&flagCancelled != 0:
		return StateCancelled
	case f&flagActive != 0 && f&flagSyncing != 0:
		return StateSyncing
	case f&flagActive != 0:
		return StateQuerying
	case f&(flagRefresh|flagUpdateRequested) != 0:
		return StateRefreshPending
	case f&flagLive != 0:
		return StateLiveIdle
	case f&flagStarted != 0:
		return StateFinished
	default:
		return StateIdle
	}
}

// Refresh schedules a refetch when updateIDs intersect the result set's
// update mask. Bursts are coalesced by the debounce delay.
func (s *ResultSet) Refresh(updateIDs []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range updateIDs {
		if id&s.args.UpdateMask == 0 || s.timerArmed || s.flags&flagLive == 0 {
			continue
		}
		s.flags |= flagRefresh
		if s.flags&flagActive == 0 {
			s.armTimerLocked()
		}
	}
}

// Cancel stops the result set. A fetch in flight completes but nothing is
// fetched after it.
func (s *ResultSet) Cancel() {
	var b batch
	s.mu.Lock()
	s.flags |= flagCancelled
	s.flags &^= flagLive
	if s.flags&flagActive == 0 {
		s.stopTimerLocked()
		b.add(Event{Kind: EventCancelled})
	}
	s.mu.Unlock()
	s.dispatch(b)
}

// WaitForFinished blocks until no fetch is in flight or pending, forcing a
// pending refresh to start immediately. It reports false on timeout.
// It must not be called from an Observer.
func (s *ResultSet) WaitForFinished(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		f := s.flags
		switch {
		case f&flagActive != 0:
			done := s.cycleDone
			s.mu.Unlock()

			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false
			}
			t := time.NewTimer(remaining)
			select {
			case <-done:
				t.Stop()
			case <-t.C:
				return false
			}
		case f&(flagRefresh|flagUpdateRequested) != 0 && f&(flagCancelled|flagClosed) == 0:
			var b batch
			s.updateLocked(&b)
			s.mu.Unlock()
			s.dispatch(b)
		default:
			s.mu.Unlock()
			return true
		}
	}
}

// Close commits outstanding edits, waits for the fetch in flight and
// releases the connection. It must not be called from an Observer.
func (s *ResultSet) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		edits := s.edits
		s.edits = nil
		s.flags |= flagCancelled | flagClosed
		s.flags &^= flagLive | flagRefresh | flagUpdateRequested
		s.stopTimerLocked()
		var done chan struct{}
		if s.flags&flagActive != 0 {
			done = s.cycleDone
		}
		unsubscribe := s.unsubscribe
		s.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}

		var b batch
		for _, e := range edits {
			b.add(s.editEvent(e, s.commitEdit(e)))
		}
		s.dispatch(b)
		if len(edits) > 0 && s.hub != nil {
			s.hub.ItemsEdited(s.args.Service)
		}

		if done != nil {
			<-done
		}
		s.allEdits.Wait()

		close(s.stop)
		<-s.loopDone
		s.workers.Wait()
		s.cancel()

		s.closeErr = s.conn.Release()
		s.log.Debugw("result set closed")
	})
	return s.closeErr
}

func (s *ResultSet) armTimerLocked() {
	s.stopTimerLocked()
	s.timerArmed = true
	s.timer = time.AfterFunc(s.debounce, func() {
		select {
		case s.updateCh <- struct{}{}:
		default:
		}
	})
}

func (s *ResultSet) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerArmed = false
}

func sameRow(a, b column.Row) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return len(a) == len(b) && rowsEqual(a, b, 0, len(a))
}
