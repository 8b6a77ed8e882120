package commands

import (
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/gallery/am"
	"github.com/teranos/gallery/db"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/gallery"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/query"
	"github.com/teranos/gallery/resultset"
	"github.com/teranos/gallery/store"
	"github.com/teranos/gallery/store/sparql"
)

// connect opens the metadata store named by cfg.
var connect = func(cfg *am.Config) (store.Connection, error) {
	return sparql.New(sparql.Config{
		Endpoint:         cfg.Store.Endpoint,
		Timeout:          cfg.StoreTimeout(),
		QueriesPerSecond: cfg.Store.MaxQueriesPerSecond,
		Burst:            cfg.Store.Burst,

		BlockPrivateNetworks: cfg.Store.BlockPrivateNetworks,
	}, logger.Logger)
}

// loadConfig loads the file given with --config, or the configuration
// cascade when the flag is unset.
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *am.Config
		err error
	)
	if path != "" {
		cfg, err = am.LoadFromFile(path)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// ApplyLogLevel sets the global log level from cfg.Log.Level.
func ApplyLogLevel(cfg *am.Config) error {
	if cfg.Log.Level == "" {
		return nil
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", cfg.Log.Level)
	}
	logger.SetLevel(level)
	return nil
}

func openGallery(cfg *am.Config) (*gallery.Gallery, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to the metadata store")
	}
	return gallery.New(conn, gallery.Options{
		Debounce:    cfg.RefreshDebounce(),
		EventBuffer: cfg.Gallery.EventBuffer,
		EditWorkers: cfg.Gallery.EditWorkers,
		Logger:      logger.Logger,
	})
}

// openDatabase opens and migrates the saved query database.
func openDatabase(cfg *am.Config) (*sql.DB, error) {
	path := cfg.GetDatabasePath()
	database, err := db.OpenWithMigrations(path, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return database, nil
}

// execute creates the result set for req and waits for its first fetch.
// The caller closes the returned result set.
func execute(cfg *am.Config, g *gallery.Gallery, req query.Request) (*resultset.ResultSet, error) {
	rs, err := g.CreateResponse(req)
	if err != nil {
		return nil, err
	}
	if !rs.WaitForFinished(cfg.WaitTimeout()) {
		rs.Close()
		return nil, errors.WithHint(
			errors.Newf("query did not finish within %s", cfg.WaitTimeout()),
			"raise gallery.wait_timeout_ms")
	}
	if err := rs.Err(); err != nil {
		rs.Close()
		return nil, err
	}
	return rs, nil
}
