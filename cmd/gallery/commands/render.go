package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/resultset"
)

func formatValue(v column.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// itemsTable reads every item of rs into a table keyed by property name.
func itemsTable(rs *resultset.ResultSet) display.Table {
	props := rs.PropertyNames()
	t := display.Table{Header: append([]string{"id"}, props...)}

	keys := make([]int, len(props))
	for i, p := range props {
		keys[i] = rs.PropertyKey(p)
	}
	for i := 0; i < rs.ItemCount(); i++ {
		if !rs.Fetch(i) {
			break
		}
		row := make([]string, 0, len(t.Header))
		row = append(row, rs.ItemID())
		for _, key := range keys {
			row = append(row, formatValue(rs.MetaData(key)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
