package schema

import (
	"strings"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/query"
)

// appendJoin adds each " . "-separated segment of join to current as an
// OPTIONAL block, unless the type join or current already carries it.
func appendJoin(current *string, typeJoin, join string) {
	for _, segment := range strings.Split(strings.TrimPrefix(join, " . "), " . ") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if strings.Contains(typeJoin, segment) || strings.Contains(*current, segment) {
			continue
		}
		*current += " OPTIONAL {" + segment + "}"
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeLiteral escapes s for the body of a quoted query literal.
func EscapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

func writeCompare(b *strings.Builder, field, op, value string) {
	b.WriteString("(" + field + op + "'" + EscapeLiteral(value) + "')")
}

func writeFunction(b *strings.Builder, fn, field, value string) {
	b.WriteString(fn + "(" + field + ",'" + EscapeLiteral(value) + "')")
}

// filterWriter compiles a filter tree against one item type. Joins needed by
// the filtered properties accumulate in optionalJoin.
type filterWriter struct {
	itemType     *ItemType
	typeJoin     string
	optionalJoin string
}

func (w *filterWriter) write(b *strings.Builder, f query.Filter) error {
	switch f := f.(type) {
	case nil:
		return nil
	case *query.IntersectionFilter:
		if f == nil {
			return nil
		}
		return w.writeGroup(b, f.Filters, "&&")
	case *query.UnionFilter:
		if f == nil {
			return nil
		}
		return w.writeGroup(b, f.Filters, "||")
	case *query.MetaDataFilter:
		if f == nil {
			return nil
		}
		return w.writeMetaData(b, f)
	default:
		return errors.Wrapf(errors.ErrFilter, "unsupported filter %T", f)
	}
}

// writeGroup skips children that compile to nothing so empty groups never
// leave a dangling operator behind.
func (w *filterWriter) writeGroup(b *strings.Builder, filters []query.Filter, op string) error {
	var parts []string
	for _, child := range filters {
		var cb strings.Builder
		if err := w.write(&cb, child); err != nil {
			return err
		}
		if cb.Len() > 0 {
			parts = append(parts, cb.String())
		}
	}
	if len(parts) == 0 {
		return nil
	}
	b.WriteString("(" + strings.Join(parts, op) + ")")
	return nil
}

func (w *filterWriter) writeMetaData(b *strings.Builder, f *query.MetaDataFilter) error {
	if f.Negated {
		b.WriteByte('!')
	}

	if p, ok := w.itemType.property(f.Property); ok {
		if p.Join != "" {
			appendJoin(&w.optionalJoin, w.typeJoin, p.Join)
		}
		return writeCondition(b, p, f)
	}
	if c, ok := w.itemType.composite(f.Property); ok {
		if c.Filter == nil {
			return errors.Wrapf(errors.ErrFilter, "property %q cannot be filtered", f.Property)
		}
		return c.Filter.WriteFilter(b, f)
	}
	return errors.Wrapf(errors.ErrFilter, "unknown property %q for %s", f.Property, w.itemType.Name)
}

func writeCondition(b *strings.Builder, p Property, f *query.MetaDataFilter) error {
	if re, ok := f.Value.(query.Regexp); ok {
		if f.Comparator != query.Equals && f.Comparator != query.RegExp {
			return errors.Wrapf(errors.ErrFilter, "%s on %q does not accept a regular expression", f.Comparator, p.Name)
		}
		writeFunction(b, "REGEX", p.Field, re.Pattern)
		return nil
	}

	value, ok := literal(f.Value, p.Type)
	if !ok {
		return errors.Wrapf(errors.ErrFilter, "value %v for %q has no string form", f.Value, p.Name)
	}

	switch f.Comparator {
	case query.Equals:
		writeCompare(b, p.Field, "=", value)
	case query.LessThan:
		writeCompare(b, p.Field, "<", value)
	case query.GreaterThan:
		writeCompare(b, p.Field, ">", value)
	case query.LessThanEquals:
		writeCompare(b, p.Field, "<=", value)
	case query.GreaterThanEquals:
		writeCompare(b, p.Field, ">=", value)
	case query.Contains, query.Wildcard:
		writeFunction(b, "fn:contains", p.Field, value)
	case query.StartsWith:
		writeFunction(b, "fn:starts-with", p.Field, value)
	case query.EndsWith:
		writeFunction(b, "fn:ends-with", p.Field, value)
	case query.RegExp:
		writeFunction(b, "REGEX", p.Field, value)
	default:
		return errors.Wrapf(errors.ErrFilter, "unsupported comparator %s on %q", f.Comparator, p.Name)
	}
	return nil
}

func literal(v any, t column.Type) (string, bool) {
	if t == column.URL {
		if s, ok := column.EncodeURL(v); ok {
			return s, true
		}
	}
	return column.Lexical(v)
}

// writeSorting compiles sort property names, prefixed with '-' for
// descending or '+' for ascending, into an ORDER BY clause.
func writeSorting(optionalJoin *string, typeJoin string, itemType *ItemType, names []string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		direction := " ASC("
		switch {
		case strings.HasPrefix(name, "-"):
			direction = " DESC("
			name = name[1:]
		case strings.HasPrefix(name, "+"):
			name = name[1:]
		}

		p, ok := itemType.property(name)
		if !ok {
			return "", errors.Wrapf(errors.ErrFilter, "cannot sort %s by %q", itemType.Name, name)
		}
		if p.Join != "" {
			appendJoin(optionalJoin, typeJoin, p.Join)
		}
		b.WriteString(direction + p.Field + ")")
	}
	if b.Len() == 0 {
		return "", nil
	}
	return " ORDER BY" + b.String(), nil
}
