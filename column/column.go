// Package column converts raw store cells into typed row values.
//
// Value columns decode one cursor cell each. Composite columns derive a value
// from cells already decoded into a Row, such as the local path of the url
// cell or the orientation angle of an orientation resource.
package column

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Value is a decoded cell. Nil means unbound.
type Value = any

// Type tags the Go type a column decodes to.
type Type int

const (
	String     Type = iota // string
	StringList             // []string
	Int                    // int
	Double                 // float64
	DateTime               // time.Time
	URL                    // string holding an encoded url
	LongLong               // int64
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case StringList:
		return "stringlist"
	case Int:
		return "int"
	case Double:
		return "double"
	case DateTime:
		return "datetime"
	case URL:
		return "url"
	case LongLong:
		return "longlong"
	default:
		return "unknown"
	}
}

// Equal compares two decoded values.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		return ok && slices.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case nil:
		return b == nil
	}
	switch b.(type) {
	case []string, time.Time:
		return false
	}
	return a == b
}

// Lexical returns the literal string form of v used in query text.
// The second result is false when v has no string form.
func Lexical(v Value) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case time.Time:
		return x.Format(time.RFC3339), true
	case url.URL:
		return x.String(), true
	case *url.URL:
		if x == nil {
			return "", false
		}
		return x.String(), true
	case []string:
		if len(x) == 1 {
			return x[0], true
		}
		return "", false
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}

// ValidIRI reports whether s can be written between angle brackets as a
// query IRI: no controls, spaces or any of <>"{}|^`\.
func ValidIRI(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return false
		}
	}
	return true
}

// EncodeURL returns the encoded url form of v.
func EncodeURL(v Value) (string, bool) {
	switch x := v.(type) {
	case url.URL:
		return x.String(), true
	case *url.URL:
		if x == nil {
			return "", false
		}
		return x.String(), true
	case string:
		u, err := url.Parse(x)
		if err != nil {
			return "", false
		}
		return u.String(), true
	default:
		return "", false
	}
}
