package resultset

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/notify"
	"github.com/teranos/gallery/schema"
	"github.com/teranos/gallery/store"
	"github.com/teranos/gallery/store/storetest"
)

const wait = 2 * time.Second

// Keys of testArgs.
const (
	keyTitle = iota + 1
	keyTrack
	keyComposite
	keyAlias
	keyExtendedAlias
)

// testArgs lays out rows of identity, title, track number and one extended
// field only reachable through an alias.
func testArgs() *schema.Arguments {
	rw := schema.CanRead | schema.CanWrite | schema.CanSort | schema.CanFilter
	return &schema.Arguments{
		Query:           "SELECT ?p0 ?p1 ?p2 ?p3 WHERE { ?x a nmm:MusicPiece }",
		Service:         "nmm:MusicPiece",
		UpdateMask:      schema.AudioMask,
		IdentityWidth:   1,
		TableWidth:      4,
		ValueOffset:     1,
		CompositeOffset: 3,
		AliasOffset:     4,
		ColumnCount:     6,
		IDColumn:        column.Prefix{Column: 0, Prefix: "audio::"},
		URLColumn:       column.Static{},
		TypeColumn:      column.Static{V: "Audio"},
		ValueColumns: []column.ValueColumn{
			column.StringColumn{}, column.StringColumn{}, column.IntColumn{}, column.StringColumn{},
		},
		CompositeColumns:   []column.Composite{column.Static{V: "composite"}},
		AliasColumns:       []int{0, 2},
		FieldNames:         []string{"nie:title", "nmm:trackNumber", ""},
		PropertyNames:      []string{"title", "trackNumber", "composite", "name", "extended"},
		PropertyAttributes: []schema.Attributes{rw, rw, schema.CanRead, rw, rw},
		PropertyTypes:      []column.Type{column.String, column.Int, column.String, column.String, column.String},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) of(kinds ...EventKind) []Event {
	var out []Event
	for _, e := range r.all() {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
			}
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// waitCycles waits until n fetch cycles have reported their outcome.
func (r *recorder) waitCycles(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.of(EventFinished, EventError, EventCancelled)) >= n
	}, wait, 5*time.Millisecond)
}

type fixture struct {
	conn   *storetest.Connection
	shared *store.Shared
	rec    *recorder
	set    *ResultSet
}

func newFixture(t *testing.T, opts Options, rows ...[]string) *fixture {
	t.Helper()
	return newFixtureWithArgs(t, testArgs(), opts, rows...)
}

func newFixtureWithArgs(t *testing.T, args *schema.Arguments, opts Options, rows ...[]string) *fixture {
	t.Helper()

	conn := storetest.New()
	conn.SetRows(rows...)
	shared := store.NewShared(conn)
	rec := &recorder{}
	opts.Observers = append(opts.Observers, rec.observe)
	if opts.Debounce == 0 {
		opts.Debounce = 10 * time.Millisecond
	}

	set, err := New(shared, args, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		set.Close()
		shared.Release()
	})
	return &fixture{conn: conn, shared: shared, rec: rec, set: set}
}

// refetch publishes rows on the next fetch and waits for it.
func (f *fixture) refetch(t *testing.T, rows ...[]string) {
	t.Helper()
	cycles := len(f.rec.of(EventFinished, EventError, EventCancelled))
	f.conn.SetRows(rows...)
	f.set.Refresh([]int{schema.AudioID})
	require.True(t, f.set.WaitForFinished(wait))
	f.rec.waitCycles(t, cycles+1)
}

func TestInitialFetchPublishesRows(t *testing.T) {
	f := newFixture(t, Options{},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"},
		[]string{"urn:c", "C", "3", "z"})

	require.True(t, f.set.WaitForFinished(wait))
	f.rec.waitCycles(t, 1)

	assert.Equal(t, 3, f.set.ItemCount())
	assert.Equal(t, -1, f.set.CurrentIndex())
	assert.NoError(t, f.set.Err())
	assert.Equal(t, StateFinished, f.set.State())

	inserted := f.rec.of(EventItemsInserted)
	require.Len(t, inserted, 1)
	assert.Equal(t, 0, inserted[0].Index)
	assert.Equal(t, 3, inserted[0].Count)

	progress := f.rec.of(EventProgressChanged)
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].Current)
	assert.Equal(t, 2, progress[1].Current)
	assert.Equal(t, 2, progress[1].Maximum)

	finished := f.rec.of(EventFinished)
	assert.False(t, finished[0].Idle)
}

func TestFetchReadsCurrentItem(t *testing.T) {
	f := newFixture(t, Options{},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"})
	require.True(t, f.set.WaitForFinished(wait))

	require.True(t, f.set.Fetch(1))
	assert.Equal(t, 1, f.set.CurrentIndex())
	assert.Equal(t, "audio::urn:b", f.set.ItemID())
	assert.Equal(t, "Audio", f.set.ItemType())
	assert.Equal(t, "", f.set.ItemURL())
	assert.Equal(t, "B", f.set.MetaData(keyTitle))
	assert.Equal(t, 2, f.set.MetaData(keyTrack))
	assert.Equal(t, "composite", f.set.MetaData(keyComposite))
	assert.Equal(t, "B", f.set.MetaData(keyAlias))
	assert.Equal(t, "y", f.set.MetaData(keyExtendedAlias))
	assert.Nil(t, f.set.MetaData(0))
	assert.Nil(t, f.set.MetaData(99))
	assert.Nil(t, f.set.Resources())

	assert.False(t, f.set.Fetch(2))
	assert.Equal(t, 2, f.set.CurrentIndex())
	assert.Equal(t, "", f.set.ItemID())
	assert.Nil(t, f.set.MetaData(keyTitle))
}

func TestPropertyLookups(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, "nmm:MusicPiece", f.set.Service())
	assert.Equal(t, []string{"title", "trackNumber", "composite", "name", "extended"}, f.set.PropertyNames())
	assert.Equal(t, keyTrack, f.set.PropertyKey("trackNumber"))
	assert.Equal(t, -1, f.set.PropertyKey("missing"))
	assert.Equal(t, column.Int, f.set.PropertyType(keyTrack))
	assert.Equal(t, schema.CanRead, f.set.PropertyAttributes(keyComposite))
	assert.NotEmpty(t, f.set.ID())
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	shared := store.NewShared(storetest.New())

	_, err := New(nil, testArgs(), Options{})
	assert.True(t, errors.Is(err, errors.ErrConnection))

	_, err = New(shared, nil, Options{})
	assert.Error(t, err)

	args := testArgs()
	args.ColumnCount = 7
	_, err = New(shared, args, Options{})
	assert.Error(t, err)
	assert.Equal(t, 1, shared.Refs())
}

func TestRefetchRemovesAndKeepsCursor(t *testing.T) {
	f := newFixture(t, Options{Live: true},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"},
		[]string{"urn:c", "C", "3", "z"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(2))
	f.rec.reset()

	f.refetch(t,
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:c", "C", "3", "z"})

	assert.Equal(t, 2, f.set.ItemCount())
	removed := f.rec.of(EventItemsRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, 1, removed[0].Index)
	assert.Equal(t, 1, removed[0].Count)
	assert.Empty(t, f.rec.of(EventItemsInserted, EventMetaDataChanged))

	// The cursor follows its item without reporting a new item.
	assert.Equal(t, 1, f.set.CurrentIndex())
	assert.Equal(t, "audio::urn:c", f.set.ItemID())
	moved := f.rec.of(EventCurrentIndexChanged)
	require.Len(t, moved, 1)
	assert.Equal(t, 1, moved[0].Index)
	assert.Empty(t, f.rec.of(EventCurrentItemChanged))

	finished := f.rec.of(EventFinished)
	require.Len(t, finished, 1)
	assert.True(t, finished[0].Idle)
	assert.Equal(t, StateLiveIdle, f.set.State())
}

func TestRefetchInsertionShiftsCursor(t *testing.T) {
	f := newFixture(t, Options{Live: true},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(0))
	f.rec.reset()

	f.refetch(t,
		[]string{"urn:n", "N", "0", "w"},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"})

	inserted := f.rec.of(EventItemsInserted)
	require.Len(t, inserted, 1)
	assert.Equal(t, 0, inserted[0].Index)
	assert.Equal(t, 1, inserted[0].Count)
	assert.Equal(t, 1, f.set.CurrentIndex())
	assert.Equal(t, "A", f.set.MetaData(keyTitle))
	assert.Empty(t, f.rec.of(EventCurrentItemChanged))
}

func TestRefetchSameIdentityReportsMetaDataChange(t *testing.T) {
	f := newFixture(t, Options{Live: true},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(1))
	f.rec.reset()

	f.refetch(t,
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "Renamed", "2", "y"})

	assert.Empty(t, f.rec.of(EventItemsInserted, EventItemsRemoved))
	changed := f.rec.of(EventMetaDataChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, 1, changed[0].Index)
	assert.Equal(t, 1, changed[0].Count)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, changed[0].Keys)

	assert.Len(t, f.rec.of(EventCurrentItemChanged), 1)
	assert.Equal(t, "Renamed", f.set.MetaData(keyTitle))
}

func TestRefetchIdenticalRowsIsSilent(t *testing.T) {
	rows := [][]string{{"urn:a", "A", "1", "x"}, {"urn:b", "B", "2", "y"}}
	f := newFixture(t, Options{Live: true}, rows...)
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(0))
	f.rec.reset()

	f.refetch(t, rows...)

	assert.Empty(t, f.rec.of(EventItemsInserted, EventItemsRemoved, EventMetaDataChanged,
		EventCurrentIndexChanged, EventCurrentItemChanged))
	assert.Equal(t, 2, f.set.ItemCount())
}

func TestRemovedCurrentItemIsReplaced(t *testing.T) {
	f := newFixture(t, Options{Live: true},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(1))
	f.rec.reset()

	f.refetch(t, []string{"urn:a", "A", "1", "x"})

	assert.Equal(t, 1, f.set.CurrentIndex())
	assert.Equal(t, "", f.set.ItemID())
	assert.Len(t, f.rec.of(EventCurrentItemChanged), 1)
}

func TestRefreshIgnoresUnrelatedUpdates(t *testing.T) {
	f := newFixture(t, Options{Live: true}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	queries := len(f.conn.Queries())

	f.set.Refresh([]int{schema.ImageID, schema.ArtistID})
	assert.Equal(t, StateLiveIdle, f.set.State())
	require.True(t, f.set.WaitForFinished(wait))
	assert.Len(t, f.conn.Queries(), queries)
}

func TestRefreshRequiresLive(t *testing.T) {
	f := newFixture(t, Options{}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))

	f.set.Refresh([]int{schema.AudioID})
	assert.Equal(t, StateFinished, f.set.State())
	assert.Len(t, f.conn.Queries(), 1)
}

func TestRefreshBurstIsDebounced(t *testing.T) {
	f := newFixture(t, Options{Live: true, Debounce: 20 * time.Millisecond},
		[]string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	f.rec.waitCycles(t, 1)

	for i := 0; i < 10; i++ {
		f.set.Refresh([]int{schema.AudioID})
	}
	f.rec.waitCycles(t, 2)
	require.True(t, f.set.WaitForFinished(wait))
	assert.Len(t, f.conn.Queries(), 2)
}

func TestHubNotificationTriggersRefresh(t *testing.T) {
	hub := notify.NewHub()
	f := newFixture(t, Options{Live: true, Hub: hub}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	f.rec.waitCycles(t, 1)
	assert.Equal(t, 1, hub.Listeners())

	f.conn.SetRows([]string{"urn:a", "A", "1", "x"}, []string{"urn:b", "B", "2", "y"})
	hub.ItemsChanged(schema.AudioID)
	f.rec.waitCycles(t, 2)
	assert.Equal(t, 2, f.set.ItemCount())

	require.NoError(t, f.set.Close())
	assert.Equal(t, 0, hub.Listeners())
}

func TestRefreshDuringFetchRunsAnotherCycle(t *testing.T) {
	conn := storetest.New()
	release := conn.Hold()
	conn.SetRows([]string{"urn:a", "A", "1", "x"})
	shared := store.NewShared(conn)
	rec := &recorder{}

	set, err := New(shared, testArgs(), Options{Live: true, Observers: []Observer{rec.observe}})
	require.NoError(t, err)
	defer set.Close()

	assert.Equal(t, StateQuerying, set.State())
	set.Refresh([]int{schema.AudioID})
	assert.False(t, set.WaitForFinished(20*time.Millisecond))

	conn.SetRows([]string{"urn:a", "A", "1", "x"}, []string{"urn:b", "B", "2", "y"})
	release()
	rec.waitCycles(t, 2)
	require.True(t, set.WaitForFinished(wait))
	assert.Equal(t, 2, set.ItemCount())
	assert.Len(t, conn.Queries(), 2)
}

func TestFailedFetchKeepsRows(t *testing.T) {
	f := newFixture(t, Options{Live: true},
		[]string{"urn:a", "A", "1", "x"},
		[]string{"urn:b", "B", "2", "y"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(1))
	f.rec.reset()

	f.conn.SetQueryError(errors.New("endpoint went away"))
	f.refetch(t)

	assert.Equal(t, 2, f.set.ItemCount())
	assert.Equal(t, "B", f.set.MetaData(keyTitle))
	require.Error(t, f.set.Err())
	assert.True(t, errors.Is(f.set.Err(), errors.ErrQueryExecution))

	failed := f.rec.of(EventError)
	require.Len(t, failed, 1)
	assert.Equal(t, f.set.Err(), failed[0].Err)
	assert.Empty(t, f.rec.of(EventItemsRemoved, EventItemsInserted))

	f.conn.SetQueryError(nil)
	f.refetch(t, []string{"urn:a", "A", "1", "x"}, []string{"urn:b", "B", "2", "y"})
	assert.NoError(t, f.set.Err())
	assert.Equal(t, 2, f.set.ItemCount())
	assert.Empty(t, f.rec.of(EventItemsRemoved, EventItemsInserted))
}

func TestCancelIdleResultSet(t *testing.T) {
	f := newFixture(t, Options{Live: true}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	f.rec.reset()

	f.set.Cancel()
	assert.Len(t, f.rec.of(EventCancelled), 1)
	assert.Equal(t, StateCancelled, f.set.State())

	f.set.Refresh([]int{schema.AudioID})
	assert.True(t, f.set.WaitForFinished(wait))
	assert.Len(t, f.conn.Queries(), 1)
}

func TestCancelDuringFetch(t *testing.T) {
	conn := storetest.New()
	release := conn.Hold()
	conn.SetRows([]string{"urn:a", "A", "1", "x"})
	shared := store.NewShared(conn)
	rec := &recorder{}

	set, err := New(shared, testArgs(), Options{Observers: []Observer{rec.observe}})
	require.NoError(t, err)
	defer set.Close()

	set.Cancel()
	assert.Empty(t, rec.of(EventCancelled))

	release()
	rec.waitCycles(t, 1)
	assert.Len(t, rec.of(EventCancelled), 1)
	assert.Empty(t, rec.of(EventFinished))
	assert.Equal(t, 1, set.ItemCount())
}

func TestSetMetaDataRejections(t *testing.T) {
	f := newFixture(t, Options{}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))

	assert.False(t, f.set.SetMetaData(keyTitle, "T"), "no current item")
	require.True(t, f.set.Fetch(0))

	assert.False(t, f.set.SetMetaData(0, "T"))
	assert.False(t, f.set.SetMetaData(99, "T"))
	assert.False(t, f.set.SetMetaData(keyComposite, "T"))
	assert.False(t, f.set.SetMetaData(keyExtendedAlias, "T"))
	assert.False(t, f.set.SetMetaData(keyTrack, "not a number"))
	assert.Equal(t, 0, f.set.PendingEdits())
}

func TestSetMetaDataRejectsUnsafeIRIs(t *testing.T) {
	args := testArgs()
	args.ValueColumns[0] = column.URLColumn{}
	args.FieldNames[0] = "nie:url"
	args.PropertyTypes[0] = column.URL

	f := newFixtureWithArgs(t, args, Options{Debounce: time.Hour},
		[]string{"urn:a", "file:///a", "1", "x"},
		[]string{"urn:b> } ; DROP ALL ; { <urn:c", "file:///b", "2", "y"})
	require.True(t, f.set.WaitForFinished(wait))

	require.True(t, f.set.Fetch(0))
	assert.False(t, f.set.SetMetaData(keyTitle, "http://host/a?x=> ; DROP ALL ; INSERT DATA { <urn:e> <urn:p> <urn:o"))
	assert.True(t, f.set.SetMetaData(keyTitle, "file:///c"))

	require.True(t, f.set.Fetch(1))
	assert.False(t, f.set.SetMetaData(keyTrack, 3), "identity is not an IRI")

	require.NoError(t, f.set.Close())
	assert.Equal(t, []string{
		`DELETE { <urn:a> nie:url ?o } INSERT { <urn:a> nie:url <file:///c> } WHERE { OPTIONAL { <urn:a> nie:url ?o } }`,
	}, f.conn.Updates())
}

func TestSetMetaDataUnchangedValueIsNoop(t *testing.T) {
	f := newFixture(t, Options{}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(0))

	assert.True(t, f.set.SetMetaData(keyTitle, "A"))
	assert.True(t, f.set.SetMetaData(keyTrack, "1"))
	assert.Equal(t, 0, f.set.PendingEdits())
	assert.Equal(t, StateFinished, f.set.State())
}

func TestEditsCoalesceAndCommitBeforeFetch(t *testing.T) {
	f := newFixture(t, Options{Debounce: time.Hour}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(0))

	require.True(t, f.set.SetMetaData(keyTitle, "First"))
	require.True(t, f.set.SetMetaData(keyTrack, 5))
	require.True(t, f.set.SetMetaData(keyAlias, "It's"))
	assert.Equal(t, 1, f.set.PendingEdits())
	assert.Equal(t, StateRefreshPending, f.set.State())

	// Cached values are unchanged until the store reports them back.
	assert.Equal(t, "A", f.set.MetaData(keyTitle))

	f.conn.SetRows([]string{"urn:a", "It's", "5", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	f.rec.waitCycles(t, 2)

	assert.Equal(t, []string{
		`DELETE { <urn:a> nie:title ?o } INSERT { <urn:a> nie:title 'It\'s' } WHERE { OPTIONAL { <urn:a> nie:title ?o } }`,
		`DELETE { <urn:a> nmm:trackNumber ?o } INSERT { <urn:a> nmm:trackNumber 5 } WHERE { OPTIONAL { <urn:a> nmm:trackNumber ?o } }`,
	}, f.conn.Updates())
	assert.Equal(t, 0, f.set.PendingEdits())
	assert.Equal(t, "It's", f.set.MetaData(keyTitle))

	require.Eventually(t, func() bool {
		return len(f.rec.of(EventItemEdited)) == 1
	}, wait, 5*time.Millisecond)
	edited := f.rec.of(EventItemEdited)[0]
	assert.NoError(t, edited.Err)
	assert.Equal(t, "nmm:MusicPiece", edited.Service)
	assert.Equal(t, 0, edited.Index)
}

func TestFailedEditIsReported(t *testing.T) {
	f := newFixture(t, Options{Debounce: time.Hour}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))
	require.True(t, f.set.Fetch(0))

	f.conn.SetUpdateError(errors.Wrap(errors.ErrQueryExecution, "read only"))
	require.True(t, f.set.SetMetaData(keyTitle, "T"))
	require.True(t, f.set.WaitForFinished(wait))

	require.Eventually(t, func() bool {
		return len(f.rec.of(EventItemEdited)) == 1
	}, wait, 5*time.Millisecond)
	err := f.rec.of(EventItemEdited)[0].Err
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read only")
	assert.Equal(t, "A", f.set.MetaData(keyTitle))
}

func TestEditIndexesFollowStructuralChanges(t *testing.T) {
	f := newFixture(t, Options{})
	s := f.set

	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = []*edit{
		{index: 0, subject: "urn:a", terms: map[string][]string{}},
		{index: 1, subject: "urn:b", terms: map[string][]string{}},
	}
	s.editsRemovedLocked(0, 1)
	s.editsInsertedLocked(0, 2)

	require.Len(t, s.edits, 1)
	assert.Equal(t, "urn:b", s.edits[0].subject)
	assert.Equal(t, 2, s.edits[0].index)
	s.edits = nil
}

func TestEditStatements(t *testing.T) {
	e := &edit{subject: "urn:a", terms: make(map[string][]string)}
	e.set("nie:keyword", literals(column.StringListColumn{Separator: "|"}, "a|b"))
	e.set("nie:contentCreated", literals(column.DateTimeColumn{}, "2024-01-02T03:04:05Z"))
	e.set("nie:url", literals(column.URLColumn{}, "file:///a"))
	e.set("nie:comment", nil)
	e.set("nie:title", literals(column.StringColumn{}, "line1\nline2\tit's"))

	assert.Equal(t, []string{
		`DELETE { <urn:a> nie:keyword ?o } INSERT { <urn:a> nie:keyword 'a' , 'b' } WHERE { OPTIONAL { <urn:a> nie:keyword ?o } }`,
		`DELETE { <urn:a> nie:contentCreated ?o } INSERT { <urn:a> nie:contentCreated '2024-01-02T03:04:05Z'^^xsd:dateTime } WHERE { OPTIONAL { <urn:a> nie:contentCreated ?o } }`,
		`DELETE { <urn:a> nie:url ?o } INSERT { <urn:a> nie:url <file:///a> } WHERE { OPTIONAL { <urn:a> nie:url ?o } }`,
		`DELETE { <urn:a> nie:comment ?o } WHERE { <urn:a> nie:comment ?o }`,
		`DELETE { <urn:a> nie:title ?o } INSERT { <urn:a> nie:title 'line1\nline2\tit\'s' } WHERE { OPTIONAL { <urn:a> nie:title ?o } }`,
	}, e.statements())
}

type hubStub struct {
	mu     sync.Mutex
	edited []string
}

func (h *hubStub) Subscribe(notify.Listener) func() { return func() {} }

func (h *hubStub) ItemsEdited(service string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.edited = append(h.edited, service)
}

func TestCloseCommitsPendingEdits(t *testing.T) {
	conn := storetest.New()
	conn.SetRows([]string{"urn:a", "A", "1", "x"})
	shared := store.NewShared(conn)
	rec := &recorder{}
	hub := &hubStub{}

	set, err := New(shared, testArgs(), Options{
		Debounce:  time.Hour,
		Hub:       hub,
		Observers: []Observer{rec.observe},
	})
	require.NoError(t, err)
	require.True(t, set.WaitForFinished(wait))
	require.True(t, set.Fetch(0))
	require.True(t, set.SetMetaData(keyTitle, "Z"))

	require.NoError(t, set.Close())
	assert.Len(t, conn.Updates(), 1)
	assert.Len(t, rec.of(EventItemEdited), 1)
	assert.Equal(t, []string{"nmm:MusicPiece"}, hub.edited)

	assert.False(t, conn.Closed())
	assert.Equal(t, 1, shared.Refs())
	require.NoError(t, shared.Release())
	assert.True(t, conn.Closed())

	assert.NoError(t, set.Close())
	assert.False(t, set.SetMetaData(keyTitle, "again"))
}

func TestCloseWaitsForFetch(t *testing.T) {
	conn := storetest.New()
	release := conn.Hold()
	shared := store.NewShared(conn)

	set, err := New(shared, testArgs(), Options{})
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		set.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("close returned while a fetch was in flight")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-closed:
	case <-time.After(wait):
		t.Fatal("close did not return")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	f := newFixture(t, Options{}, []string{"urn:a", "A", "1", "x"})
	require.True(t, f.set.WaitForFinished(wait))

	var count int
	var mu sync.Mutex
	unsubscribe := f.set.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	f.set.Fetch(0)
	unsubscribe()
	f.set.Fetch(0)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestStateAndEventNames(t *testing.T) {
	assert.Equal(t, "itemsRemoved", EventItemsRemoved.String())
	assert.Equal(t, "unknown", EventKind(99).String())
	assert.Equal(t, "live", StateLiveIdle.String())
}
