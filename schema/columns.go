package schema

import (
	"strings"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/store"
)

// serviceIndexColumn decodes the comma separated rdf:type list into the
// index of the matching item type.
type serviceIndexColumn struct{}

func (serviceIndexColumn) Decode(c store.Cursor, i int) column.Value {
	s, ok := c.Value(i)
	if !ok {
		return -1
	}
	return indexOfRDFTypes(strings.Split(s, ","))
}

func (serviceIndexColumn) Encode(column.Value) (string, error) {
	return "", errors.New("service index is read only")
}

func serviceAt(row column.Row) (*ItemType, bool) {
	i, ok := row.Cell(2).(int)
	if !ok || i < 0 || i >= len(itemTypes) {
		return nil, false
	}
	return &itemTypes[i], true
}

// servicePrefixColumn builds the item id from the row's type and identity.
type servicePrefixColumn struct{}

func (servicePrefixColumn) Value(row column.Row) column.Value {
	identity, _ := row.Cell(0).(string)
	if t, ok := serviceAt(row); ok {
		return t.Prefix + identity
	}
	return "file::" + identity
}

// serviceTypeColumn yields the row's item type name.
type serviceTypeColumn struct{}

func (serviceTypeColumn) Value(row column.Row) column.Value {
	if t, ok := serviceAt(row); ok {
		return t.Name
	}
	return File
}
