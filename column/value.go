package column

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/store"
)

// ValueColumn decodes one cursor cell and encodes edited values back into
// their literal form.
type ValueColumn interface {
	Decode(c store.Cursor, i int) Value
	Encode(v Value) (string, error)
}

// NewValueColumn returns the value column for t.
func NewValueColumn(t Type) ValueColumn {
	switch t {
	case StringList:
		return StringListColumn{Separator: "|"}
	case Int:
		return IntColumn{}
	case Double:
		return DoubleColumn{}
	case DateTime:
		return DateTimeColumn{}
	case URL:
		return URLColumn{}
	case LongLong:
		return LongLongColumn{}
	default:
		return StringColumn{}
	}
}

func cell(c store.Cursor, i int) (string, bool) {
	if i >= c.ColumnCount() {
		return "", false
	}
	return c.Value(i)
}

func encodeError(v Value, t Type) error {
	return errors.Newf("cannot encode %T as %s", v, t)
}

type StringColumn struct{}

func (StringColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	return s
}

func (StringColumn) Encode(v Value) (string, error) {
	if s, ok := Lexical(v); ok {
		return s, nil
	}
	return "", encodeError(v, String)
}

// StringListColumn splits a cell on Separator, dropping empty parts.
type StringListColumn struct {
	Separator string
}

func (col StringListColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, col.Separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (col StringListColumn) Encode(v Value) (string, error) {
	if l, ok := v.([]string); ok {
		return strings.Join(l, col.Separator), nil
	}
	if s, ok := Lexical(v); ok {
		return s, nil
	}
	return "", encodeError(v, StringList)
}

type IntColumn struct{}

func (IntColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return n
}

func (IntColumn) Encode(v Value) (string, error) {
	switch x := v.(type) {
	case int, int32, int64, uint, uint32, uint64:
		s, _ := Lexical(x)
		return s, nil
	case float64:
		return strconv.Itoa(int(x)), nil
	case string:
		if _, err := strconv.Atoi(x); err == nil {
			return x, nil
		}
	}
	return "", encodeError(v, Int)
}

type LongLongColumn struct{}

func (LongLongColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func (LongLongColumn) Encode(v Value) (string, error) {
	return IntColumn{}.Encode(v)
}

type DoubleColumn struct{}

func (DoubleColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}

func (DoubleColumn) Encode(v Value) (string, error) {
	switch v.(type) {
	case float32, float64, int, int32, int64:
		s, _ := Lexical(v)
		return s, nil
	case string:
		if _, err := strconv.ParseFloat(v.(string), 64); err == nil {
			return v.(string), nil
		}
	}
	return "", encodeError(v, Double)
}

// DateTimeColumn decodes ISO 8601 timestamps.
type DateTimeColumn struct{}

func (DateTimeColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return nil
}

func (DateTimeColumn) Encode(v Value) (string, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339), nil
	case string:
		if _, err := time.Parse(time.RFC3339, x); err == nil {
			return x, nil
		}
	}
	return "", encodeError(v, DateTime)
}

// URLColumn keeps urls in their encoded string form.
type URLColumn struct{}

func (URLColumn) Decode(c store.Cursor, i int) Value {
	s, ok := cell(c, i)
	if !ok {
		return nil
	}
	return s
}

func (URLColumn) Encode(v Value) (string, error) {
	s, ok := EncodeURL(v)
	if !ok {
		return "", encodeError(v, URL)
	}
	if !ValidIRI(s) {
		return "", errors.Newf("url %q contains characters not allowed in an IRI", s)
	}
	return s, nil
}

// ParseURL parses an encoded url cell.
func ParseURL(v Value) *url.URL {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil
	}
	return u
}
