package resultset

import "github.com/teranos/gallery/column"

type syncKind int

const (
	syncUpdate syncKind = iota
	syncReplace
	syncFinish
)

func (k syncKind) String() string {
	switch k {
	case syncUpdate:
		return "update"
	case syncReplace:
		return "replace"
	default:
		return "finish"
	}
}

// syncEvent describes one step transforming the result rows into the
// incoming rows. Indexes are positions in each generation.
type syncEvent struct {
	kind   syncKind
	rIndex int
	rCount int
	iIndex int
	iCount int
}

func updateEvent(rIndex, iIndex, count int) syncEvent {
	return syncEvent{kind: syncUpdate, rIndex: rIndex, rCount: count, iIndex: iIndex, iCount: count}
}

func replaceEvent(rIndex, rCount, iIndex, iCount int) syncEvent {
	return syncEvent{kind: syncReplace, rIndex: rIndex, rCount: rCount, iIndex: iIndex, iCount: iCount}
}

func finishEvent(rIndex, iIndex int) syncEvent {
	return syncEvent{kind: syncFinish, rIndex: rIndex, iIndex: iIndex}
}

// rowsEqual compares cells [from, to) of two rows.
func rowsEqual(a, b column.Row, from, to int) bool {
	for c := from; c < to; c++ {
		if !column.Equal(a.Cell(c), b.Cell(c)) {
			return false
		}
	}
	return true
}

// differ walks two generations in lockstep and reports the events turning
// r into i.
type differ struct {
	r, i          *column.Buffer
	identityWidth int
	tableWidth    int
	step          int
}

func newDiffer(r, i *column.Buffer, identityWidth int) *differ {
	n := r.Len()
	if i.Len() > n {
		n = i.Len()
	}
	if n < 64 {
		n = 64
	}
	return &differ{
		r:             r,
		i:             i,
		identityWidth: identityWidth,
		tableWidth:    i.Width(),
		step:          n / 16,
	}
}

func (d *differ) sameItem(r, i int) bool {
	return rowsEqual(d.r.Row(r), d.i.Row(i), 0, d.identityWidth)
}

func (d *differ) sameValues(r, i int) bool {
	return rowsEqual(d.r.Row(r), d.i.Row(i), d.identityWidth, d.tableWidth)
}

// synchronize emits events until emit returns false or both generations
// are reconciled. The last event emitted is always a finish event unless
// emit stopped the walk.
func synchronize(r, i *column.Buffer, identityWidth int, emit func(syncEvent) bool) {
	newDiffer(r, i, identityWidth).run(emit)
}

func (d *differ) run(emit func(syncEvent) bool) {
	rLen, iLen := d.r.Len(), d.i.Len()
	rPos, iPos := 0, 0

	for rPos < rLen && iPos < iLen {
		for rPos < rLen && iPos < iLen && d.sameItem(rPos, iPos) && d.sameValues(rPos, iPos) {
			rPos++
			iPos++
		}
		if rPos == rLen || iPos == iLen {
			break
		}

		if d.sameItem(rPos, iPos) {
			n := 1
			for rPos+n < rLen && iPos+n < iLen && d.sameItem(rPos+n, iPos+n) && !d.sameValues(rPos+n, iPos+n) {
				n++
			}
			if !emit(updateEvent(rPos, iPos, n)) {
				return
			}
			rPos += n
			iPos += n
			continue
		}

		r, i, ok := d.search(rPos, iPos)
		if !ok {
			break
		}
		if !emit(replaceEvent(rPos, r-rPos, iPos, i-iPos)) {
			return
		}
		rPos, iPos = r, i
	}

	emit(finishEvent(rPos, iPos))
}

// search looks for the nearest rows at or after (rPos, iPos) sharing an
// identity. One side is probed at offsets growing geometrically up to step
// and then linearly, the other densely over a window of two steps.
func (d *differ) search(rPos, iPos int) (int, int, bool) {
	rLen, iLen := d.r.Len(), d.i.Len()
	window := 2 * d.step

	for outer := 0; rPos+outer < rLen || iPos+outer < iLen; outer = d.next(outer) {
		for inner := 0; inner < window; inner++ {
			r, i := rPos+inner, iPos+outer
			if r < rLen && i < iLen && d.sameItem(r, i) {
				return d.backtrack(rPos, iPos, r, i)
			}
			r, i = rPos+outer, iPos+inner
			if r < rLen && i < iLen && d.sameItem(r, i) {
				return d.backtrack(rPos, iPos, r, i)
			}
			if rPos+inner >= rLen && iPos+inner >= iLen {
				break
			}
		}
	}
	return 0, 0, false
}

func (d *differ) next(outer int) int {
	switch {
	case outer == 0:
		return 1
	case outer < d.step:
		outer *= 2
		if outer > d.step {
			outer = d.step
		}
		return outer
	default:
		return outer + d.step
	}
}

// backtrack extends a match backwards over rows that also share identities.
func (d *differ) backtrack(rPos, iPos, r, i int) (int, int, bool) {
	for r > rPos && i > iPos && d.sameItem(r-1, i-1) {
		r--
		i--
	}
	return r, i, true
}
