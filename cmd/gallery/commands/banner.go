package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/version"
)

// printWatchBanner prints what a watch is following before events start.
func printWatchBanner(w io.Writer, verbosity int, itemType, endpoint string, watchPaths []string) {
	info := version.Get()

	lines := []string{
		fmt.Sprintf("%s %s (commit %s)", pterm.Bold.Sprint("Version:  "), info.Version, info.Short()),
		fmt.Sprintf("%s %s", pterm.Bold.Sprint("Watching: "), pterm.LightCyan(itemType)),
		fmt.Sprintf("%s %s", pterm.Bold.Sprint("Store:    "), endpoint),
		fmt.Sprintf("%s %s", pterm.Bold.Sprint("Verbosity:"), logger.LevelName(verbosity)),
	}
	if len(watchPaths) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", pterm.Bold.Sprint("Files:    "), strings.Join(watchPaths, ", ")))
	}

	box := pterm.DefaultBox.WithTitle(pterm.Green("gallery watch")).Sprint(strings.Join(lines, "\n"))
	fmt.Fprintf(w, "\n%s\n\n", box)
	fmt.Fprintln(w, pterm.LightBlue("Press Ctrl+C to stop"))
}
