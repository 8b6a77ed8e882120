package column

// Row is a fixed-width view of one row's cells.
type Row []Value

// Cell returns cell i, or nil when i is outside the row.
func (r Row) Cell(i int) Value {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// String returns cell i as a string, or "" when it is not one.
func (r Row) String(i int) string {
	s, _ := r.Cell(i).(string)
	return s
}

// Buffer stores rows of equal width in one contiguous slice.
type Buffer struct {
	cells []Value
	width int
}

// NewBuffer returns an empty buffer of rows width cells wide.
func NewBuffer(width int) *Buffer {
	return &Buffer{width: width}
}

// Width returns the number of cells per row.
func (b *Buffer) Width() int {
	return b.width
}

// Len returns the number of rows.
func (b *Buffer) Len() int {
	if b == nil || b.width == 0 {
		return 0
	}
	return len(b.cells) / b.width
}

// Row returns row i, or nil when i is out of range.
func (b *Buffer) Row(i int) Row {
	if i < 0 || i >= b.Len() {
		return nil
	}
	start := i * b.width
	end := start + b.width
	return Row(b.cells[start:end:end])
}

// AppendRow grows the buffer by one row and returns it for filling.
func (b *Buffer) AppendRow() Row {
	start := len(b.cells)
	b.cells = append(b.cells, make([]Value, b.width)...)
	end := start + b.width
	return Row(b.cells[start:end:end])
}
