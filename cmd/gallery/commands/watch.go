package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/gallery/am"
	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/notify"
	"github.com/teranos/gallery/resultset"
)

// WatchCmd follows a live query.
var WatchCmd = &cobra.Command{
	Use:   "watch <type>",
	Short: "Follow the items of a type as the store changes",
	Long: `Run a live query and print item insertions, removals and changes as
they happen. Changes are picked up from files under notify.watch_paths.

Examples:
  gallery watch Audio -p title,artist
  gallery watch Image -f "width > 1920"`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchFlags requestFlags

func init() {
	watchFlags.register(WatchCmd)
}

// eventPrinter serializes observer output, which arrives from the
// result set's goroutines.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *eventPrinter) print(e resultset.Event) {
	var line string
	switch e.Kind {
	case resultset.EventItemsInserted:
		line = pterm.Green(fmt.Sprintf("+ %d items at %d", e.Count, e.Index))
	case resultset.EventItemsRemoved:
		line = pterm.Red(fmt.Sprintf("- %d items at %d", e.Count, e.Index))
	case resultset.EventMetaDataChanged:
		line = pterm.Yellow(fmt.Sprintf("~ %d items at %d changed %v", e.Count, e.Index, e.Keys))
	case resultset.EventItemEdited:
		if e.Err != nil {
			line = pterm.Red(fmt.Sprintf("! edit of item %d failed: %v", e.Index, e.Err))
		}
	case resultset.EventError:
		line = pterm.Red(fmt.Sprintf("! %v", e.Err))
	case resultset.EventFinished:
		line = pterm.Gray("up to date")
	}
	if line == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := watchFlags.request(args[0], true)
	if err != nil {
		return err
	}

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cw, err := am.NewConfigWatcher(path)
		if err != nil {
			return err
		}
		cw.SetLoader(func() (*am.Config, error) { return am.LoadFromFile(path) })
		cw.OnReload(ApplyLogLevel)
		am.SetGlobalWatcher(cw)
		cw.Start()
		defer func() {
			am.SetGlobalWatcher(nil)
			cw.Stop()
		}()
	}

	if len(cfg.Notify.WatchPaths) > 0 {
		fw, err := notify.NewFileWatcher(g.Hub(), cfg.Notify.WatchPaths, cfg.NotifyDebounce())
		if err != nil {
			return err
		}
		fw.Start()
		defer fw.Close()
	}

	out := cmd.OutOrStdout()
	verbosity, _ := cmd.Flags().GetCount("verbose")
	printWatchBanner(out, verbosity, args[0], cfg.Store.Endpoint, cfg.Notify.WatchPaths)

	rs, err := execute(cfg, g, req)
	if err != nil {
		return err
	}
	defer rs.Close()

	if err := itemsTable(rs).Render(out, display.FormatTable); err != nil {
		return err
	}

	printer := &eventPrinter{w: out}
	unsubscribe := rs.Subscribe(printer.print)
	defer unsubscribe()

	<-ctx.Done()
	logger.Debugw("watch stopped", logger.FieldResultSetID, rs.ID())
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
