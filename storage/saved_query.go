// Package storage persists saved gallery requests in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/query"
)

// Kinds of saved request.
const (
	KindQuery = "query"
	KindCount = "count"
)

// ErrDuplicateName is returned when a saved query name is already taken.
var ErrDuplicateName = errors.New("saved query name already exists")

// SavedQuery is a named QueryRequest or TypeRequest.
type SavedQuery struct {
	ID                string
	Name              string
	Kind              string
	RootType          string
	RootItem          string
	Scope             query.Scope
	Filter            query.Filter
	PropertyNames     []string
	SortPropertyNames []string
	Offset            int
	Limit             int
	AutoUpdate        bool

	CreatedAt time.Time
	UpdatedAt time.Time
	LastRunAt *time.Time
	RunCount  int
}

// Request rebuilds the request the query was saved from.
func (q *SavedQuery) Request() query.Request {
	if q.Kind == KindCount {
		return query.TypeRequest{ItemType: q.RootType, AutoUpdate: q.AutoUpdate}
	}
	return query.QueryRequest{
		RootType:          q.RootType,
		RootItem:          q.RootItem,
		Scope:             q.Scope,
		Filter:            q.Filter,
		PropertyNames:     q.PropertyNames,
		SortPropertyNames: q.SortPropertyNames,
		Offset:            q.Offset,
		Limit:             q.Limit,
		AutoUpdate:        q.AutoUpdate,
	}
}

// SavedQueryStore reads and writes the saved_queries table.
type SavedQueryStore struct {
	db *sql.DB
}

// NewSavedQueryStore returns a store over a migrated database.
func NewSavedQueryStore(db *sql.DB) *SavedQueryStore {
	return &SavedQueryStore{db: db}
}

const savedQueryColumns = `id, name, kind, root_type, root_item, scope, filter, properties, sort_properties,
		query_offset, query_limit, auto_update, created_at, updated_at, last_run_at, run_count`

// Create assigns q an id and timestamps and inserts it.
func (s *SavedQueryStore) Create(ctx context.Context, q *SavedQuery) error {
	if err := validate(q); err != nil {
		return err
	}
	row, err := encode(q)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	q.ID = uuid.NewString()
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (`+savedQueryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Name, q.Kind, q.RootType, q.RootItem, row.scope, row.filter, row.properties, row.sort,
		q.Offset, q.Limit, q.AutoUpdate, q.CreatedAt, q.UpdatedAt, nil, 0)
	if err != nil {
		return wrapWrite(err, q.Name, "failed to create saved query %s")
	}
	return nil
}

// Get returns the saved query with id.
func (s *SavedQueryStore) Get(ctx context.Context, id string) (*SavedQuery, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+savedQueryColumns+` FROM saved_queries WHERE id = ?`, id)
	q, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("saved query %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get saved query %s", id)
	}
	return q, nil
}

// GetByName returns the saved query called name.
func (s *SavedQueryStore) GetByName(ctx context.Context, name string) (*SavedQuery, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+savedQueryColumns+` FROM saved_queries WHERE name = ?`, name)
	q, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("saved query %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get saved query %q", name)
	}
	return q, nil
}

// List returns every saved query ordered by name.
func (s *SavedQueryStore) List(ctx context.Context) ([]*SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+savedQueryColumns+` FROM saved_queries ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list saved queries")
	}
	defer rows.Close()

	var out []*SavedQuery
	for rows.Next() {
		q, err := scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan saved query")
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Update rewrites every request field of q and bumps UpdatedAt.
func (s *SavedQueryStore) Update(ctx context.Context, q *SavedQuery) error {
	if err := validate(q); err != nil {
		return err
	}
	row, err := encode(q)
	if err != nil {
		return err
	}
	updated := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE saved_queries
		SET name = ?, kind = ?, root_type = ?, root_item = ?, scope = ?, filter = ?, properties = ?,
		    sort_properties = ?, query_offset = ?, query_limit = ?, auto_update = ?, updated_at = ?
		WHERE id = ?`,
		q.Name, q.Kind, q.RootType, q.RootItem, row.scope, row.filter, row.properties,
		row.sort, q.Offset, q.Limit, q.AutoUpdate, updated, q.ID)
	if err != nil {
		return wrapWrite(err, q.Name, "failed to update saved query %s")
	}
	if err := expectOne(res, q.ID); err != nil {
		return err
	}
	q.UpdatedAt = updated
	return nil
}

// Delete removes the saved query with id.
func (s *SavedQueryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete saved query %s", id)
	}
	return expectOne(res, id)
}

// RecordRun counts one run of the saved query with id at at.
func (s *SavedQueryStore) RecordRun(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE saved_queries SET last_run_at = ?, run_count = run_count + 1 WHERE id = ?`,
		at.UTC(), id)
	if err != nil {
		return errors.Wrapf(err, "failed to record run of saved query %s", id)
	}
	return expectOne(res, id)
}

func validate(q *SavedQuery) error {
	switch {
	case strings.TrimSpace(q.Name) == "":
		return errors.New("saved query name cannot be empty")
	case q.RootType == "":
		return errors.Wrap(errors.ErrItemType, "saved query needs a root type")
	case q.Kind == "":
		q.Kind = KindQuery
	case q.Kind != KindQuery && q.Kind != KindCount:
		return errors.Newf("unknown saved query kind %q", q.Kind)
	}
	return nil
}

type encoded struct {
	scope      string
	filter     string
	properties string
	sort       string
}

func encode(q *SavedQuery) (encoded, error) {
	var e encoded
	e.scope = q.Scope.String()
	if q.Filter != nil {
		f, err := query.MarshalFilter(q.Filter)
		if err != nil {
			return e, errors.Wrapf(err, "failed to encode filter of %s", q.Name)
		}
		e.filter = string(f)
	}
	props, err := json.Marshal(nonNil(q.PropertyNames))
	if err != nil {
		return e, errors.Wrap(err, "failed to encode properties")
	}
	sort, err := json.Marshal(nonNil(q.SortPropertyNames))
	if err != nil {
		return e, errors.Wrap(err, "failed to encode sort properties")
	}
	e.properties, e.sort = string(props), string(sort)
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*SavedQuery, error) {
	var (
		q                          SavedQuery
		scope, filter, props, sort string
		lastRun                    sql.NullTime
	)
	if err := row.Scan(&q.ID, &q.Name, &q.Kind, &q.RootType, &q.RootItem, &scope, &filter, &props, &sort,
		&q.Offset, &q.Limit, &q.AutoUpdate, &q.CreatedAt, &q.UpdatedAt, &lastRun, &q.RunCount); err != nil {
		return nil, err
	}

	q.Scope = query.ParseScope(scope)
	if filter != "" {
		f, err := query.UnmarshalFilter([]byte(filter))
		if err != nil {
			return nil, errors.Wrapf(err, "saved query %s has a corrupt filter", q.Name)
		}
		q.Filter = f
	}
	if err := json.Unmarshal([]byte(props), &q.PropertyNames); err != nil {
		return nil, errors.Wrapf(err, "saved query %s has corrupt properties", q.Name)
	}
	if err := json.Unmarshal([]byte(sort), &q.SortPropertyNames); err != nil {
		return nil, errors.Wrapf(err, "saved query %s has corrupt sort properties", q.Name)
	}
	if lastRun.Valid {
		t := lastRun.Time
		q.LastRunAt = &t
	}
	return &q, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check affected rows")
	}
	if n == 0 {
		return errors.NewNotFoundError("saved query %s", id)
	}
	return nil
}

func wrapWrite(err error, name, format string) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return errors.Wrapf(ErrDuplicateName, "%q", name)
	}
	return errors.Wrapf(err, format, name)
}
