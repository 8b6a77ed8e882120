package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/schema"
)

// TypesCmd lists the item types.
var TypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the item types",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

// PropertiesCmd lists the properties of an item type.
var PropertiesCmd = &cobra.Command{
	Use:   "properties <type>",
	Short: "List the properties of an item type",
	Long: `List the properties of an item type with their value type and
attributes (r = readable, w = writable, s = sortable, f = filterable).`,
	Args: cobra.ExactArgs(1),
	RunE: runProperties,
}

func init() {
	addFormatFlag(TypesCmd)
	addFormatFlag(PropertiesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	t := display.Table{Header: []string{"type", "service"}}
	for _, name := range schema.ItemTypes() {
		t.Rows = append(t.Rows, []string{name, schema.ServiceForType(name)})
	}
	return t.Render(cmd.OutOrStdout(), display.Format(cmd))
}

func runProperties(cmd *cobra.Command, args []string) error {
	s := schema.ForType(args[0])
	if !s.Valid() {
		return errors.Wrapf(errors.ErrItemType, "unknown item type %q", args[0])
	}

	names := s.SupportedPropertyNames()
	sort.Strings(names)

	t := display.Table{Header: []string{"property", "type", "attributes"}}
	for _, name := range names {
		typ := "-"
		if vt, ok := s.PropertyType(name); ok {
			typ = vt.String()
		}
		t.Rows = append(t.Rows, []string{name, typ, s.PropertyAttributes(name).String()})
	}
	return t.Render(cmd.OutOrStdout(), display.Format(cmd))
}
