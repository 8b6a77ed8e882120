package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/query"
)

// requestFlags are the flags shared by commands that build a QueryRequest.
type requestFlags struct {
	filters []string
	props   []string
	sort    []string
	root    string
	scope   string
	offset  int
	limit   int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, `Filter expression such as "title ^= Blue" (repeat to intersect, "a|b" to unite)`)
	cmd.Flags().StringSliceVarP(&f.props, "props", "p", nil, "Properties to fetch")
	cmd.Flags().StringSliceVarP(&f.sort, "sort", "s", nil, "Sort properties, prefix with - for descending")
	cmd.Flags().StringVar(&f.root, "root", "", "Only items under this root item id")
	cmd.Flags().StringVar(&f.scope, "scope", "all", "Root scope: all or direct")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Skip the first items")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of items, 0 for all")
}

func (f *requestFlags) request(itemType string, live bool) (query.QueryRequest, error) {
	req := query.QueryRequest{
		RootType:          itemType,
		RootItem:          f.root,
		Scope:             query.ParseScope(f.scope),
		PropertyNames:     f.props,
		SortPropertyNames: f.sort,
		Offset:            f.offset,
		Limit:             f.limit,
		AutoUpdate:        live,
	}
	if len(f.filters) > 0 {
		filter, err := query.ParseFilter(f.filters)
		if err != nil {
			return req, err
		}
		req.Filter = filter
	}
	return req, nil
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", display.FormatTable, "Output format: table, json, yaml")
}
