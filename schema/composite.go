package schema

import (
	"net/url"
	"strings"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/query"
)

// ColumnFactory builds the column that derives a composite property from the
// table columns its dependencies were placed at.
type ColumnFactory interface {
	NewColumn(columns []int) column.Composite
}

// FilterWriter writes the condition for a filter on a composite property.
type FilterWriter interface {
	WriteFilter(b *strings.Builder, f *query.MetaDataFilter) error
}

const orientationPrefix = "http://tracker.api.gnome.org/ontology/v3/nfo#orientation-"

// filePath derives a local path from the url column and filters on the
// stored file url.
type filePath struct {
	field string
}

func (filePath) NewColumn(columns []int) column.Composite {
	return column.FilePath{Column: columns[0]}
}

func (c filePath) WriteFilter(b *strings.Builder, f *query.MetaDataFilter) error {
	path, ok := f.Value.(string)
	if !ok {
		return errors.Wrapf(errors.ErrFilter, "filePath requires a string value, got %T", f.Value)
	}

	switch f.Comparator {
	case query.Equals:
		writeCompare(b, c.field, "=", fileURL(path))
	case query.LessThan:
		writeCompare(b, c.field, "<", fileURL(path))
	case query.GreaterThan:
		writeCompare(b, c.field, ">", fileURL(path))
	case query.LessThanEquals:
		writeCompare(b, c.field, "<=", fileURL(path))
	case query.GreaterThanEquals:
		writeCompare(b, c.field, ">=", fileURL(path))
	case query.Contains:
		writeFunction(b, "fn:contains", c.field, urlFragment(path))
	case query.StartsWith:
		writeFunction(b, "fn:starts-with", c.field, fileURL(path))
	case query.EndsWith:
		writeFunction(b, "fn:ends-with", c.field, urlFragment(path))
	case query.Wildcard:
		writeFunction(b, "fn:contains", c.field, fileURL(path))
	default:
		return errors.Wrapf(errors.ErrFilter, "filePath does not support %s", f.Comparator)
	}
	return nil
}

// fileExtension matches the end of the file name.
type fileExtension struct {
	direct bool
}

func (fileExtension) NewColumn(columns []int) column.Composite {
	return column.FileExtension{Column: columns[0]}
}

func (c fileExtension) WriteFilter(b *strings.Builder, f *query.MetaDataFilter) error {
	ext, ok := f.Value.(string)
	if !ok || f.Comparator != query.Equals {
		return errors.Wrapf(errors.ErrFilter, "fileExtension supports only equals with a string value")
	}
	field := "nfo:fileName(nie:isStoredAs(?x))"
	if c.direct {
		field = "nfo:fileName(?x)"
	}
	writeFunction(b, "fn:ends-with", field, "."+ext)
	return nil
}

// orientation maps the nfo orientation resource to degrees.
type orientation struct{}

func (orientation) NewColumn(columns []int) column.Composite {
	return column.Orientation{Column: columns[0]}
}

func (orientation) WriteFilter(b *strings.Builder, f *query.MetaDataFilter) error {
	if f.Comparator != query.Equals {
		return errors.Wrapf(errors.ErrFilter, "orientation does not support %s", f.Comparator)
	}
	degrees, ok := f.Value.(int)
	if !ok {
		return errors.Wrapf(errors.ErrFilter, "orientation requires an int value, got %T", f.Value)
	}

	var side string
	switch degrees {
	case 0:
		side = "top"
	case 90:
		side = "left"
	case 180:
		side = "bottom"
	case 270:
		side = "right"
	default:
		return errors.Wrapf(errors.ErrFilter, "unsupported orientation %d", degrees)
	}
	b.WriteString("nfo:orientation(?x) = '" + orientationPrefix + side + "'")
	return nil
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func urlFragment(fragment string) string {
	return (&url.URL{Path: fragment}).String()
}
