package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/gallery/cmd/gallery/commands"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/logger"
)

// traceErrors prints errors with their stack (-vvv).
var traceErrors bool

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Live queries over a semantic metadata store",
	Long: `gallery: live queries over a semantic metadata store.

gallery compiles item, type and filter requests into SPARQL, runs them
against the configured store and keeps the results synchronized as the
store changes.

Examples:
  gallery types                          # List item types
  gallery properties Audio               # List the properties of a type
  gallery query Audio -p title -s title  # List items
  gallery count Image                    # Count items
  gallery watch Audio -p title           # Follow a live query
  gallery saved list                     # List saved queries
  gallery am show                        # Show current configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		if verbosity, _ := cmd.Flags().GetCount("verbose"); verbosity > 0 {
			logger.SetLevel(logger.VerbosityToLevel(verbosity))
			traceErrors = logger.ShouldLogTrace(verbosity)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: the am.toml cascade)")

	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.ItemCmd)
	rootCmd.AddCommand(commands.EditCmd)
	rootCmd.AddCommand(commands.CountCmd)
	rootCmd.AddCommand(commands.TypesCmd)
	rootCmd.AddCommand(commands.PropertiesCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.SavedCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if traceErrors {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
