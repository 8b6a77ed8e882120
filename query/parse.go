package query

import (
	"strconv"
	"strings"

	"github.com/teranos/gallery/errors"
)

type operator struct {
	token      string
	comparator Comparator
	negated    bool
	pattern    bool
}

// Longest tokens first so "<=" wins over "<".
var operators = []operator{
	{token: "!=", comparator: Equals, negated: true},
	{token: "<=", comparator: LessThanEquals},
	{token: ">=", comparator: GreaterThanEquals},
	{token: "^=", comparator: StartsWith},
	{token: "$=", comparator: EndsWith},
	{token: "*=", comparator: Wildcard},
	{token: "=~", comparator: RegExp, pattern: true},
	{token: "=", comparator: Equals},
	{token: "<", comparator: LessThan},
	{token: ">", comparator: GreaterThan},
	{token: "~", comparator: Contains},
}

// ParseFilter parses command line filter expressions of the form
// "property OP value". A leading "!" negates an expression and "|" separates
// the alternatives of a union. Several expressions are intersected.
func ParseFilter(exprs []string) (Filter, error) {
	var filters []Filter
	for _, expr := range exprs {
		f, err := parseUnion(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return Intersect(filters...), nil
	}
}

func parseUnion(expr string) (Filter, error) {
	parts := strings.Split(expr, "|")
	if len(parts) == 1 {
		return parseComparison(expr)
	}
	union := &UnionFilter{}
	for _, part := range parts {
		f, err := parseComparison(part)
		if err != nil {
			return nil, err
		}
		union.Filters = append(union.Filters, f)
	}
	return union, nil
}

func parseComparison(expr string) (*MetaDataFilter, error) {
	expr = strings.TrimSpace(expr)
	negated := false
	if strings.HasPrefix(expr, "!") {
		negated = true
		expr = strings.TrimSpace(expr[1:])
	}

	end := strings.IndexFunc(expr, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end <= 0 {
		return nil, errors.Wrapf(errors.ErrFilter, "expression %q has no comparison", expr)
	}
	property := expr[:end]
	rest := strings.TrimLeft(expr[end:], " ")

	for _, op := range operators {
		if !strings.HasPrefix(rest, op.token) {
			continue
		}
		raw := strings.TrimSpace(rest[len(op.token):])
		f := &MetaDataFilter{
			Property:   property,
			Comparator: op.comparator,
			Negated:    negated != op.negated,
		}
		if op.pattern {
			f.Value = Regexp{Pattern: raw}
		} else {
			f.Value = parseValue(raw)
		}
		return f, nil
	}
	return nil, errors.Wrapf(errors.ErrFilter, "expression %q has no known operator", expr)
}

func parseValue(raw string) any {
	if len(raw) >= 2 && (raw[0] == '"' && raw[len(raw)-1] == '"' || raw[0] == '\'' && raw[len(raw)-1] == '\'') {
		return raw[1 : len(raw)-1]
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
