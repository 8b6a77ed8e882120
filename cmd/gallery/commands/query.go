package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/gallery/display"
)

// QueryCmd lists the items of a type.
var QueryCmd = &cobra.Command{
	Use:   "query <type>",
	Short: "List the items of a type",
	Long: `List the items of a type matching the given filters.

Examples:
  gallery query Audio -p title,artist -s artist
  gallery query Audio -f "genre = Jazz" -f "duration > 300"
  gallery query Audio --root album::urn:album:1 -p title --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var queryFlags requestFlags

func init() {
	queryFlags.register(QueryCmd)
	addFormatFlag(QueryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := queryFlags.request(args[0], false)
	if err != nil {
		return err
	}

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	rs, err := execute(cfg, g, req)
	if err != nil {
		return err
	}
	defer rs.Close()

	return itemsTable(rs).Render(cmd.OutOrStdout(), display.Format(cmd))
}
