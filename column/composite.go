package column

import (
	"path"
	"strings"
)

// Composite derives a value from an already decoded row.
type Composite interface {
	Value(row Row) Value
}

// Static always yields the same value.
type Static struct {
	V Value
}

func (c Static) Value(Row) Value { return c.V }

// Prefix prepends Prefix to the string cell at Column.
type Prefix struct {
	Column int
	Prefix string
}

func (c Prefix) Value(row Row) Value {
	s, ok := row.Cell(c.Column).(string)
	if !ok {
		return nil
	}
	return c.Prefix + s
}

// FileURL yields the url cell at Column.
type FileURL struct {
	Column int
}

func (c FileURL) Value(row Row) Value {
	return row.Cell(c.Column)
}

// FilePath yields the local file path of the url cell at Column.
type FilePath struct {
	Column int
}

func (c FilePath) Value(row Row) Value {
	u := ParseURL(row.Cell(c.Column))
	if u == nil || u.Scheme != "file" {
		return nil
	}
	return u.Path
}

// FileExtension yields the extension of the file named by the url cell at
// Column, without the leading dot.
type FileExtension struct {
	Column int
}

func (c FileExtension) Value(row Row) Value {
	s, ok := row.Cell(c.Column).(string)
	if !ok {
		return nil
	}
	if u := ParseURL(s); u != nil && u.Path != "" {
		s = u.Path
	}
	name := path.Base(s)
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// Orientation maps the orientation resource at Column to degrees.
type Orientation struct {
	Column int
}

func (c Orientation) Value(row Row) Value {
	s, ok := row.Cell(c.Column).(string)
	if !ok {
		return nil
	}
	switch {
	case strings.HasSuffix(s, "orientation-top"):
		return 0
	case strings.HasSuffix(s, "orientation-left"):
		return 90
	case strings.HasSuffix(s, "orientation-bottom"):
		return 180
	case strings.HasSuffix(s, "orientation-right"):
		return 270
	default:
		return nil
	}
}
