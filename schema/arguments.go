package schema

import (
	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
)

// Arguments is a compiled request: the query text plus the layout of the
// rows it produces.
//
// A row holds TableWidth cells. Cells [0, ValueOffset) are fixed columns
// (identity, url, type index). Property keys start at ValueOffset:
// keys below CompositeOffset read a row cell, keys below AliasOffset derive a
// composite value, keys below ColumnCount read the cell named by
// AliasColumns.
type Arguments struct {
	Query      string
	Service    string
	UpdateMask int

	IdentityWidth   int
	TableWidth      int
	ValueOffset     int
	CompositeOffset int
	AliasOffset     int
	ColumnCount     int

	IDColumn   column.Composite
	URLColumn  column.Composite
	TypeColumn column.Composite

	ValueColumns     []column.ValueColumn
	CompositeColumns []column.Composite
	AliasColumns     []int
	ResourceKeys     []int

	// FieldNames holds, per value column past the fixed ones, the predicate
	// used when writing the column back, or "" when it cannot be written.
	FieldNames         []string
	PropertyNames      []string
	PropertyAttributes []Attributes
	PropertyTypes      []column.Type
}

// PropertyKey returns the key of name, or -1.
func (a *Arguments) PropertyKey(name string) int {
	for i, n := range a.PropertyNames {
		if n == name {
			return i + a.ValueOffset
		}
	}
	return -1
}

// PropertyName returns the name of key, or "".
func (a *Arguments) PropertyName(key int) string {
	i := key - a.ValueOffset
	if i < 0 || i >= len(a.PropertyNames) {
		return ""
	}
	return a.PropertyNames[i]
}

// Attributes returns the attributes of key.
func (a *Arguments) Attributes(key int) Attributes {
	i := key - a.ValueOffset
	if i < 0 || i >= len(a.PropertyAttributes) {
		return 0
	}
	return a.PropertyAttributes[i]
}

// Type returns the value type of key.
func (a *Arguments) Type(key int) column.Type {
	i := key - a.ValueOffset
	if i < 0 || i >= len(a.PropertyTypes) {
		return column.String
	}
	return a.PropertyTypes[i]
}

// Validate checks the layout offsets are consistent with the columns.
func (a *Arguments) Validate() error {
	switch {
	case a.IdentityWidth < 1 || a.IdentityWidth > a.ValueOffset:
		return errors.Newf("identity width %d outside value offset %d", a.IdentityWidth, a.ValueOffset)
	case len(a.ValueColumns) != a.TableWidth:
		return errors.Newf("%d value columns for table width %d", len(a.ValueColumns), a.TableWidth)
	case a.CompositeOffset > a.TableWidth || a.CompositeOffset < a.ValueOffset:
		return errors.Newf("composite offset %d outside [%d, %d]", a.CompositeOffset, a.ValueOffset, a.TableWidth)
	case a.AliasOffset != a.CompositeOffset+len(a.CompositeColumns):
		return errors.Newf("alias offset %d does not follow %d composites", a.AliasOffset, len(a.CompositeColumns))
	case a.ColumnCount != a.AliasOffset+len(a.AliasColumns):
		return errors.Newf("column count %d does not follow %d aliases", a.ColumnCount, len(a.AliasColumns))
	case len(a.PropertyNames) != a.ColumnCount-a.ValueOffset:
		return errors.Newf("%d property names for %d keys", len(a.PropertyNames), a.ColumnCount-a.ValueOffset)
	}
	for _, c := range a.AliasColumns {
		if c < 0 || c+a.ValueOffset >= a.TableWidth {
			return errors.Newf("alias column %d outside table", c)
		}
	}
	return nil
}
