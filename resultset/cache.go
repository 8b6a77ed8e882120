package resultset

import "github.com/teranos/gallery/column"

// generation is one materialized fetch of the query.
//
// While a cycle synchronizes, the published sequence is the first cutoff
// rows of the incoming generation followed by the result generation's rows
// from offset on.
type generation struct {
	values *column.Buffer
	offset int
	cutoff int
}

func newGeneration(width int) *generation {
	return &generation{values: column.NewBuffer(width)}
}

func (g *generation) count() int {
	return g.values.Len()
}

// cache holds the result generation, last published, and the incoming
// generation being fetched or synchronized against it.
type cache struct {
	result   *generation
	incoming *generation
}

func newCache(width int) cache {
	return cache{result: newGeneration(width), incoming: newGeneration(width)}
}

// swap makes the published rows the diff baseline and starts an empty
// incoming generation.
func (c *cache) swap() {
	c.result = c.incoming
	c.result.offset = 0
	c.result.cutoff = 0
	c.incoming = newGeneration(c.result.values.Width())
}

// restore undoes swap after a failed fetch: the baseline is published again
// unchanged.
func (c *cache) restore() {
	c.incoming = c.result
	c.incoming.offset = 0
	c.incoming.cutoff = c.incoming.count()
	c.result = newGeneration(c.incoming.values.Width())
}

// retire drops the baseline once every row of the incoming generation is
// published.
func (c *cache) retire() {
	c.result = newGeneration(c.incoming.values.Width())
}

// rowCount returns the number of published rows.
func (c *cache) rowCount() int {
	return c.incoming.cutoff + c.result.count() - c.result.offset
}

// row returns published row index, or nil.
func (c *cache) row(index int) column.Row {
	if index < 0 || index >= c.rowCount() {
		return nil
	}
	if index < c.incoming.cutoff {
		return c.incoming.values.Row(index)
	}
	return c.result.values.Row(index - c.incoming.cutoff + c.result.offset)
}
