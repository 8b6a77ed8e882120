package query

import (
	"encoding/json"

	"github.com/teranos/gallery/errors"
)

// node is the JSON form of a filter tree node.
type node struct {
	Type       string  `json:"type"`
	Filters    []*node `json:"filters,omitempty"`
	Property   string  `json:"property,omitempty"`
	Comparator string  `json:"comparator,omitempty"`
	Value      any     `json:"value,omitempty"`
	Pattern    *string `json:"pattern,omitempty"`
	Negated    bool    `json:"negated,omitempty"`
}

const (
	nodeIntersection = "intersection"
	nodeUnion        = "union"
	nodeMetaData     = "metadata"
)

// MarshalFilter encodes a filter tree as JSON. A nil filter encodes as null.
func MarshalFilter(f Filter) ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	n, err := toNode(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// UnmarshalFilter decodes a filter tree encoded by MarshalFilter.
func UnmarshalFilter(data []byte) (Filter, error) {
	var n *node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrap(err, "failed to decode filter")
	}
	if n == nil {
		return nil, nil
	}
	return fromNode(n)
}

func toNode(f Filter) (*node, error) {
	switch f := f.(type) {
	case *IntersectionFilter:
		children, err := toNodes(f.Filters)
		return &node{Type: nodeIntersection, Filters: children}, err
	case *UnionFilter:
		children, err := toNodes(f.Filters)
		return &node{Type: nodeUnion, Filters: children}, err
	case *MetaDataFilter:
		n := &node{
			Type:       nodeMetaData,
			Property:   f.Property,
			Comparator: f.Comparator.String(),
			Negated:    f.Negated,
		}
		if r, ok := f.Value.(Regexp); ok {
			n.Pattern = &r.Pattern
		} else {
			n.Value = f.Value
		}
		return n, nil
	default:
		return nil, errors.Newf("unknown filter type %T", f)
	}
}

func toNodes(filters []Filter) ([]*node, error) {
	nodes := make([]*node, 0, len(filters))
	for _, f := range filters {
		n, err := toNode(f)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func fromNode(n *node) (Filter, error) {
	switch n.Type {
	case nodeIntersection:
		children, err := fromNodes(n.Filters)
		return &IntersectionFilter{Filters: children}, err
	case nodeUnion:
		children, err := fromNodes(n.Filters)
		return &UnionFilter{Filters: children}, err
	case nodeMetaData:
		comparator, err := ParseComparator(n.Comparator)
		if err != nil {
			return nil, err
		}
		f := &MetaDataFilter{
			Property:   n.Property,
			Comparator: comparator,
			Value:      n.Value,
			Negated:    n.Negated,
		}
		if n.Pattern != nil {
			f.Value = Regexp{Pattern: *n.Pattern}
		}
		return f, nil
	default:
		return nil, errors.Newf("unknown filter node type %q", n.Type)
	}
}

func fromNodes(nodes []*node) ([]Filter, error) {
	filters := make([]Filter, 0, len(nodes))
	for _, n := range nodes {
		f, err := fromNode(n)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}
