// Package gallery creates live result sets for item, type and query
// requests over one shared store connection.
package gallery

import (
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/notify"
	"github.com/teranos/gallery/query"
	"github.com/teranos/gallery/resultset"
	"github.com/teranos/gallery/schema"
	"github.com/teranos/gallery/store"
)

// DefaultEditWorkers bounds concurrent edit commits across result sets.
const DefaultEditWorkers = 4

// Options configure the result sets a Gallery creates.
type Options struct {
	Debounce    time.Duration
	EventBuffer int
	EditWorkers int
	Logger      *zap.SugaredLogger
}

// Gallery owns the store connection, the change notification hub and the
// edit commit pool shared by every result set it creates.
type Gallery struct {
	conn *store.Shared
	hub  *notify.Hub
	pool *ants.Pool
	opts Options
	log  *zap.SugaredLogger
}

// New returns a gallery over conn. A nil conn is allowed: every request then
// fails with a connection error.
func New(conn store.Connection, opts Options) (*Gallery, error) {
	if opts.EditWorkers <= 0 {
		opts.EditWorkers = DefaultEditWorkers
	}
	log := opts.Logger
	if log == nil {
		log = logger.Logger
	}
	log = log.Named("gallery")

	g := &Gallery{
		hub:  notify.NewHub(),
		opts: opts,
		log:  log,
	}
	if conn != nil {
		g.conn = store.NewShared(conn)
	}

	pool, err := ants.NewPool(opts.EditWorkers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			log.Errorw("edit commit panic", logger.FieldError, v)
		}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create edit pool")
	}
	g.pool = pool
	return g, nil
}

// Hub returns the hub live result sets subscribe to. Change sources such as
// notify.FileWatcher publish to it.
func (g *Gallery) Hub() *notify.Hub {
	return g.hub
}

// CreateResponse compiles req and starts a result set for it. Compilation
// errors are returned before anything is sent to the store.
func (g *Gallery) CreateResponse(req query.Request) (*resultset.ResultSet, error) {
	if g.conn == nil {
		return nil, errors.Wrap(errors.ErrConnection, "an instance of the metadata store is not available")
	}

	var (
		args *schema.Arguments
		err  error
	)
	switch r := req.(type) {
	case query.ItemRequest:
		args, err = schema.FromItemID(r.ItemID).PrepareItemResponse(r.ItemID, r.PropertyNames)
	case query.TypeRequest:
		args, err = schema.ForType(r.ItemType).PrepareTypeResponse()
		if err != nil {
			err = errors.Wrapf(err, "item type %q", r.ItemType)
		}
	case query.QueryRequest:
		args, err = schema.ForType(r.RootType).PrepareQueryResponse(r)
	default:
		return nil, errors.Newf("unsupported request %T", req)
	}
	if err != nil {
		g.log.Debugw("request rejected",
			logger.FieldError, err,
			logger.FieldErrorCode, errors.CodeOf(err).String())
		return nil, err
	}

	g.log.Debugw("creating result set",
		logger.FieldService, args.Service,
		logger.FieldQuery, args.Query)

	return resultset.New(g.conn, args, resultset.Options{
		Live:        req.Live(),
		Debounce:    g.opts.Debounce,
		EventBuffer: g.opts.EventBuffer,
		Pool:        g.pool,
		Hub:         g.hub,
		Logger:      g.log,
	})
}

// ItemTypes lists the item types requests may name.
func (g *Gallery) ItemTypes() []string {
	return schema.ItemTypes()
}

// ItemTypePropertyNames lists the properties of itemType.
func (g *Gallery) ItemTypePropertyNames(itemType string) []string {
	return schema.ForType(itemType).SupportedPropertyNames()
}

// PropertyAttributes returns the attributes of property on itemType.
func (g *Gallery) PropertyAttributes(property, itemType string) schema.Attributes {
	return schema.ForType(itemType).PropertyAttributes(property)
}

// PropertyType returns the value type of property on itemType.
func (g *Gallery) PropertyType(property, itemType string) (column.Type, bool) {
	return schema.ForType(itemType).PropertyType(property)
}

var poolReleaseTimeout = 3 * time.Second

// Close drops the gallery's connection reference and stops the edit pool.
// Result sets still open keep the connection alive until they are closed.
func (g *Gallery) Close() error {
	var err error
	if g.pool != nil {
		if perr := g.pool.ReleaseTimeout(poolReleaseTimeout); perr != nil {
			g.log.Warnw("edit pool did not stop in time", logger.FieldError, perr)
			err = errors.Wrap(perr, "failed to release edit pool")
		}
	}
	if g.conn != nil {
		err = errors.Join(err, g.conn.Release())
	}
	return err
}
