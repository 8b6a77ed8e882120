package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/gallery/am"
	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/gallery"
	"github.com/teranos/gallery/query"
)

// CountCmd counts the items of a type.
var CountCmd = &cobra.Command{
	Use:   "count <type>",
	Short: "Count the items of a type",
	Args:  cobra.ExactArgs(1),
	RunE:  runCount,
}

func init() {
	addFormatFlag(CountCmd)
}

type countResult struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

func runCount(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	n, err := countItems(cfg, g, query.TypeRequest{ItemType: args[0]})
	if err != nil {
		return err
	}
	return writeCount(cmd, countResult{Type: args[0], Count: n})
}

func countItems(cfg *am.Config, g *gallery.Gallery, req query.TypeRequest) (int, error) {
	rs, err := execute(cfg, g, req)
	if err != nil {
		return 0, err
	}
	defer rs.Close()

	if !rs.Fetch(0) {
		return 0, nil
	}
	n, _ := rs.MetaData(rs.PropertyKey("count")).(int)
	return n, nil
}

func writeCount(cmd *cobra.Command, c countResult) error {
	format := display.Format(cmd)
	if format == display.FormatTable {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), c.Count)
		return err
	}
	return display.Write(cmd.OutOrStdout(), format, c)
}
