package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/query"
	"github.com/teranos/gallery/resultset"
	"github.com/teranos/gallery/schema"
)

// ItemCmd shows a single item.
var ItemCmd = &cobra.Command{
	Use:   "item <id>",
	Short: "Show the properties of an item",
	Long: `Show the properties of a single item.

Examples:
  gallery item artist::urn:artist:1 -p artist,trackCount
  gallery item audio::urn:track:7 -p title,duration --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runItem,
}

// EditCmd changes one property of an item.
var EditCmd = &cobra.Command{
	Use:   "edit <id> <property> <value>",
	Short: "Change a property of an item",
	Long: `Change a writable property of an item in the metadata store.

Values are parsed by the property type: integers, decimals, RFC 3339 times,
and comma separated lists.

Example:
  gallery edit audio::urn:track:7 title "So What"`,
	Args: cobra.ExactArgs(3),
	RunE: runEdit,
}

var itemProps []string

func init() {
	ItemCmd.Flags().StringSliceVarP(&itemProps, "props", "p", nil, "Properties to fetch")
	addFormatFlag(ItemCmd)
}

func runItem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	rs, err := execute(cfg, g, query.ItemRequest{ItemID: args[0], PropertyNames: itemProps})
	if err != nil {
		return err
	}
	defer rs.Close()

	if !rs.Fetch(0) {
		return errors.NewNotFoundError("item %s", args[0])
	}

	t := display.Table{
		Header: []string{"property", "value"},
		Rows: [][]string{
			{"id", rs.ItemID()},
			{"type", rs.ItemType()},
		},
	}
	if u := rs.ItemURL(); u != "" {
		t.Rows = append(t.Rows, []string{"url", u})
	}
	for _, p := range rs.PropertyNames() {
		t.Rows = append(t.Rows, []string{p, formatValue(rs.MetaData(rs.PropertyKey(p)))})
	}
	return t.Render(cmd.OutOrStdout(), display.Format(cmd))
}

func runEdit(cmd *cobra.Command, args []string) error {
	itemID, property, raw := args[0], args[1], args[2]

	s := schema.FromItemID(itemID)
	if !s.Valid() {
		return errors.Wrapf(errors.ErrItemID, "unknown item id %q", itemID)
	}
	typ, ok := s.PropertyType(property)
	if !ok {
		return errors.Wrapf(errors.ErrFilter, "%s has no property %q", s.ItemType(), property)
	}
	value, err := parseValue(typ, raw)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	rs, err := execute(cfg, g, query.ItemRequest{ItemID: itemID, PropertyNames: []string{property}})
	if err != nil {
		return err
	}

	var editErr error
	unsubscribe := rs.Subscribe(func(e resultset.Event) {
		if e.Kind == resultset.EventItemEdited && e.Err != nil {
			editErr = e.Err
		}
	})

	if !rs.Fetch(0) {
		unsubscribe()
		rs.Close()
		return errors.NewNotFoundError("item %s", itemID)
	}
	if !rs.SetMetaData(rs.PropertyKey(property), value) {
		unsubscribe()
		rs.Close()
		return errors.Newf("property %q of %s is not writable", property, itemID)
	}

	// Close commits the edit synchronously.
	closeErr := rs.Close()
	unsubscribe()
	if editErr != nil {
		return errors.Wrapf(editErr, "failed to edit %s", itemID)
	}
	if closeErr != nil {
		return closeErr
	}
	cmd.Printf("%s %s = %s\n", itemID, property, formatValue(value))
	return nil
}

// parseValue converts a command line value to the Go type of typ.
func parseValue(typ column.Type, raw string) (column.Value, error) {
	switch typ {
	case column.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not an integer", raw)
		}
		return n, nil
	case column.LongLong:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not an integer", raw)
		}
		return n, nil
	case column.Double:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not a number", raw)
		}
		return f, nil
	case column.DateTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not an RFC 3339 time", raw)
		}
		return t, nil
	case column.StringList:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return raw, nil
	}
}
