// Package query holds the request shapes accepted by the gallery and the
// filter trees they carry.
package query

import (
	"strings"

	"github.com/teranos/gallery/errors"
)

// Comparator selects how a MetaDataFilter compares a property to its value.
type Comparator int

const (
	Equals Comparator = iota
	LessThan
	GreaterThan
	LessThanEquals
	GreaterThanEquals
	Contains
	StartsWith
	EndsWith
	Wildcard
	RegExp
)

var comparatorNames = []string{
	"equals",
	"lessThan",
	"greaterThan",
	"lessThanEquals",
	"greaterThanEquals",
	"contains",
	"startsWith",
	"endsWith",
	"wildcard",
	"regExp",
}

func (c Comparator) String() string {
	if c < 0 || int(c) >= len(comparatorNames) {
		return "unknown"
	}
	return comparatorNames[c]
}

// ParseComparator resolves a comparator by name, case insensitively.
func ParseComparator(name string) (Comparator, error) {
	for i, n := range comparatorNames {
		if strings.EqualFold(n, name) {
			return Comparator(i), nil
		}
	}
	return 0, errors.Wrapf(errors.ErrFilter, "unknown comparator %q", name)
}

// Filter is a node of a filter tree: *IntersectionFilter, *UnionFilter or
// *MetaDataFilter.
type Filter interface {
	filter()
}

// IntersectionFilter matches items matching every child.
type IntersectionFilter struct {
	Filters []Filter
}

// UnionFilter matches items matching any child.
type UnionFilter struct {
	Filters []Filter
}

// MetaDataFilter compares one property against a value.
type MetaDataFilter struct {
	Property   string
	Comparator Comparator
	Value      any
	Negated    bool
}

func (*IntersectionFilter) filter() {}
func (*UnionFilter) filter()        {}
func (*MetaDataFilter) filter()     {}

// Regexp is a pattern-typed filter value. Equals and RegExp comparisons
// against a Regexp compile to a regex match.
type Regexp struct {
	Pattern string
}

func (r Regexp) String() string { return r.Pattern }

// Intersect returns the intersection of filters.
func Intersect(filters ...Filter) *IntersectionFilter {
	return &IntersectionFilter{Filters: filters}
}

// Unite returns the union of filters.
func Unite(filters ...Filter) *UnionFilter {
	return &UnionFilter{Filters: filters}
}

// MetaData returns a comparison of property against value.
func MetaData(property string, comparator Comparator, value any) *MetaDataFilter {
	return &MetaDataFilter{Property: property, Comparator: comparator, Value: value}
}

// Negate returns a copy of f with the negation flag set.
func (f *MetaDataFilter) Negate() *MetaDataFilter {
	c := *f
	c.Negated = true
	return &c
}
