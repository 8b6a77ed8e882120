package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/gallery/errors"
	gallerytest "github.com/teranos/gallery/internal/testing"
	"github.com/teranos/gallery/query"
)

func sample(name string) *SavedQuery {
	return &SavedQuery{
		Name:     name,
		RootType: "Audio",
		RootItem: "folder::urn:music",
		Scope:    query.DirectDescendants,
		Filter: query.Intersect(
			query.MetaData("artist", query.Equals, "Nina Simone"),
			query.MetaData("duration", query.GreaterThan, 120.0).Negate()),
		PropertyNames:     []string{"title", "duration"},
		SortPropertyNames: []string{"-duration"},
		Limit:             50,
		AutoUpdate:        true,
	}
}

func TestSavedQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSavedQueryStore(gallerytest.CreateTestDB(t))

	q := sample("long nina")
	require.NoError(t, store.Create(ctx, q))
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, KindQuery, q.Kind)
	assert.False(t, q.CreatedAt.IsZero())

	got, err := store.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "long nina", got.Name)
	assert.Equal(t, query.DirectDescendants, got.Scope)
	assert.Equal(t, q.Filter, got.Filter)
	assert.Equal(t, []string{"title", "duration"}, got.PropertyNames)
	assert.Equal(t, []string{"-duration"}, got.SortPropertyNames)
	assert.Equal(t, 50, got.Limit)
	assert.True(t, got.AutoUpdate)
	assert.Nil(t, got.LastRunAt)
	assert.Equal(t, 0, got.RunCount)

	req, ok := got.Request().(query.QueryRequest)
	require.True(t, ok)
	assert.Equal(t, "folder::urn:music", req.RootItem)
	assert.True(t, req.Live())

	byName, err := store.GetByName(ctx, "long nina")
	require.NoError(t, err)
	assert.Equal(t, q.ID, byName.ID)
}

func TestSavedQueryWithoutFilter(t *testing.T) {
	ctx := context.Background()
	store := NewSavedQueryStore(gallerytest.CreateTestDB(t))

	q := &SavedQuery{Name: "audio count", Kind: KindCount, RootType: "Audio"}
	require.NoError(t, store.Create(ctx, q))

	got, err := store.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Filter)
	assert.Empty(t, got.PropertyNames)
	assert.Equal(t, query.TypeRequest{ItemType: "Audio"}, got.Request())
}

func TestSavedQueryValidation(t *testing.T) {
	ctx := context.Background()
	store := NewSavedQueryStore(gallerytest.CreateTestDB(t))

	assert.Error(t, store.Create(ctx, &SavedQuery{Name: " ", RootType: "Audio"}))

	err := store.Create(ctx, &SavedQuery{Name: "x"})
	assert.True(t, errors.Is(err, errors.ErrItemType))

	assert.Error(t, store.Create(ctx, &SavedQuery{Name: "x", RootType: "Audio", Kind: "graph"}))
}

func TestSavedQueryDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := NewSavedQueryStore(gallerytest.CreateTestDB(t))

	require.NoError(t, store.Create(ctx, sample("dup")))
	err := store.Create(ctx, sample("dup"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateName))
}

func TestSavedQueryListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSavedQueryStore(gallerytest.CreateTestDB(t))

	b := sample("b")
	a := sample("a")
	require.NoError(t, store.Create(ctx, b))
	require.NoError(t, store.Create(ctx, a))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)

	a.Name = "renamed"
	a.Filter = nil
	a.Limit = 0
	require.NoError(t, store.Update(ctx, a))
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Nil(t, got.Filter)
	assert.Equal(t, 0, got.Limit)

	require.NoError(t, store.Delete(ctx, b.ID))
	_, err = store.Get(ctx, b.ID)
	assert.True(t, errors.IsNotFoundError(err))

	assert.True(t, errors.IsNotFoundError(store.Delete(ctx, b.ID)))
	missing := sample("ghost")
	missing.ID = "nope"
	assert.True(t, errors.IsNotFoundError(store.Update(ctx, missing)))
	_, err = store.GetByName(ctx, "ghost")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	store := NewSavedQueryStore(gallerytest.CreateTestDB(t))

	q := sample("runs")
	require.NoError(t, store.Create(ctx, q))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, q.ID, at))
	require.NoError(t, store.RecordRun(ctx, q.ID, at.Add(time.Hour)))

	got, err := store.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RunCount)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, at.Add(time.Hour).Equal(*got.LastRunAt))

	assert.True(t, errors.IsNotFoundError(store.RecordRun(ctx, "nope", at)))
}

// sqlmock tests pin the SQL the store sends.

func TestCreate_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	q := &SavedQuery{Name: "count", Kind: KindCount, RootType: "Image"}
	mock.ExpectExec(`INSERT INTO saved_queries`).
		WithArgs(
			sqlmock.AnyArg(), // id
			"count", KindCount, "Image", "", "all", "", "[]", "[]",
			0, 0, false,
			sqlmock.AnyArg(), // created_at
			sqlmock.AnyArg(), // updated_at
			nil, 0,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewSavedQueryStore(db).Create(context.Background(), q))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestRecordRun_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE saved_queries SET last_run_at = \?, run_count = run_count \+ 1 WHERE id = \?`).
		WithArgs(at, "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSavedQueryStore(db).RecordRun(context.Background(), "id-1", at))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestList_SqlmockQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM saved_queries ORDER BY name`).
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewSavedQueryStore(db).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list saved queries")
	assert.NoError(t, mock.ExpectationsWereMet())
}
