package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/gallery/display"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/query"
	"github.com/teranos/gallery/storage"
)

// SavedCmd manages saved queries.
var SavedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved queries",
	Long: `Save queries under a name and run them later.

Saved queries live in the SQLite database at database.path.

Examples:
  gallery saved add jazz Audio -f "genre = Jazz" -p title,artist
  gallery saved add photos Image --count
  gallery saved list
  gallery saved run jazz
  gallery saved rm jazz`,
}

var savedAddCmd = &cobra.Command{
	Use:   "add <name> <type>",
	Short: "Save a query",
	Args:  cobra.ExactArgs(2),
	RunE:  runSavedAdd,
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved queries",
	Args:  cobra.NoArgs,
	RunE:  runSavedList,
}

var savedRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a saved query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedRun,
}

var savedRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a saved query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedRm,
}

var (
	savedFlags requestFlags
	savedCount bool
	savedLive  bool
)

func init() {
	savedFlags.register(savedAddCmd)
	savedAddCmd.Flags().BoolVar(&savedCount, "count", false, "Save a count of the type instead of a query")
	savedAddCmd.Flags().BoolVar(&savedLive, "live", false, "Keep the query live when run by watch-style consumers")
	addFormatFlag(savedListCmd)
	addFormatFlag(savedRunCmd)

	SavedCmd.AddCommand(savedAddCmd)
	SavedCmd.AddCommand(savedListCmd)
	SavedCmd.AddCommand(savedRunCmd)
	SavedCmd.AddCommand(savedRmCmd)
}

// openSavedQueries opens the saved query store for cmd. The returned func
// closes the database.
func openSavedQueries(cmd *cobra.Command) (*storage.SavedQueryStore, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewSavedQueryStore(database), func() { database.Close() }, nil
}

func runSavedAdd(cmd *cobra.Command, args []string) error {
	name, itemType := args[0], args[1]

	req, err := savedFlags.request(itemType, savedLive)
	if err != nil {
		return err
	}

	store, closeDB, err := openSavedQueries(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	q := &storage.SavedQuery{
		Name:       name,
		Kind:       storage.KindQuery,
		RootType:   itemType,
		AutoUpdate: savedLive,
	}
	if savedCount {
		q.Kind = storage.KindCount
	} else {
		q.RootItem = req.RootItem
		q.Scope = req.Scope
		q.Filter = req.Filter
		q.PropertyNames = req.PropertyNames
		q.SortPropertyNames = req.SortPropertyNames
		q.Offset = req.Offset
		q.Limit = req.Limit
	}

	if err := store.Create(cmdContext(cmd), q); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			return errors.WithHint(err, "remove it first with: gallery saved rm "+name)
		}
		return err
	}
	cmd.Printf("saved %s (%s)\n", q.Name, q.ID)
	return nil
}

func runSavedList(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSavedQueries(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	queries, err := store.List(cmdContext(cmd))
	if err != nil {
		return err
	}

	t := display.Table{Header: []string{"name", "kind", "type", "filter", "runs", "last_run"}}
	for _, q := range queries {
		filter := ""
		if q.Filter != nil {
			data, err := query.MarshalFilter(q.Filter)
			if err != nil {
				return err
			}
			filter = string(data)
		}
		lastRun := ""
		if q.LastRunAt != nil {
			lastRun = q.LastRunAt.Format(time.RFC3339)
		}
		t.Rows = append(t.Rows, []string{q.Name, q.Kind, q.RootType, filter, strconv.Itoa(q.RunCount), lastRun})
	}
	return t.Render(cmd.OutOrStdout(), display.Format(cmd))
}

func runSavedRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	store := storage.NewSavedQueryStore(database)

	ctx := cmdContext(cmd)
	q, err := store.GetByName(ctx, args[0])
	if err != nil {
		return err
	}

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	switch req := q.Request().(type) {
	case query.TypeRequest:
		n, err := countItems(cfg, g, req)
		if err != nil {
			return err
		}
		if err := writeCount(cmd, countResult{Type: req.ItemType, Count: n}); err != nil {
			return err
		}
	default:
		rs, err := execute(cfg, g, req)
		if err != nil {
			return err
		}
		t := itemsTable(rs)
		rs.Close()
		if err := t.Render(cmd.OutOrStdout(), display.Format(cmd)); err != nil {
			return err
		}
	}

	return store.RecordRun(ctx, q.ID, time.Now())
}

func runSavedRm(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSavedQueries(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmdContext(cmd)
	q, err := store.GetByName(ctx, args[0])
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, q.ID); err != nil {
		return err
	}
	cmd.Printf("removed %s\n", q.Name)
	return nil
}
