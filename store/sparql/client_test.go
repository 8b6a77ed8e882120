package sparql

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/gallery/errors"
)

type recorder struct {
	mu      sync.Mutex
	forms   []url.Values
	accepts []string
}

func (r *recorder) record(req *http.Request) url.Values {
	body, _ := io.ReadAll(req.Body)
	form, _ := url.ParseQuery(string(body))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = append(r.forms, form)
	r.accepts = append(r.accepts, req.Header.Get("Accept"))
	return form
}

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{Endpoint: srv.URL + "/sparql", Timeout: 5 * time.Second}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return c
}

func TestQueryDecodesBindings(t *testing.T) {
	rec := &recorder{}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", resultsMediaType)
		_, _ = io.WriteString(w, `{
			"head": {"vars": ["p0", "p1"]},
			"results": {"bindings": [
				{"p0": {"type": "uri", "value": "urn:a"}, "p1": {"type": "literal", "value": "Blue"}},
				{"p0": {"type": "uri", "value": "urn:b"}}
			]}
		}`)
	})

	cur, err := c.Query(context.Background(), "SELECT ?p0 ?p1 WHERE {}")
	require.NoError(t, err)
	defer cur.Close()

	assert.Equal(t, 2, cur.ColumnCount())

	require.True(t, cur.Next())
	v, ok := cur.Value(1)
	assert.True(t, ok)
	assert.Equal(t, "Blue", v)

	require.True(t, cur.Next())
	v, ok = cur.Value(0)
	assert.True(t, ok)
	assert.Equal(t, "urn:b", v)
	_, ok = cur.Value(1)
	assert.False(t, ok, "missing binding is unbound")

	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())

	require.Len(t, rec.forms, 1)
	assert.Equal(t, "SELECT ?p0 ?p1 WHERE {}", rec.forms[0].Get("query"))
	assert.Equal(t, resultsMediaType, rec.accepts[0])
}

func TestUpdatePostsStatement(t *testing.T) {
	rec := &recorder{}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Update(context.Background(), "INSERT { <urn:a> nie:title 'x' }"))
	require.Len(t, rec.forms, 1)
	assert.Equal(t, "INSERT { <urn:a> nie:title 'x' }", rec.forms[0].Get("update"))
	assert.Empty(t, rec.forms[0].Get("query"))
}

func TestRejectedQueryIsExecutionError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Parse error at line 1", http.StatusBadRequest)
	})

	_, err := c.Query(context.Background(), "SELEKT")
	require.Error(t, err)
	assert.Equal(t, errors.QueryExecutionError, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "Parse error at line 1")
	assert.Contains(t, err.Error(), "400")
}

func TestMalformedResultsIsExecutionError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	})

	_, err := c.Query(context.Background(), "SELECT ?x WHERE {}")
	assert.Equal(t, errors.QueryExecutionError, errors.CodeOf(err))
}

func TestUnreachableEndpointIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c, err := New(Config{Endpoint: endpoint, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), "SELECT ?x WHERE {}")
	assert.Equal(t, errors.ConnectionError, errors.CodeOf(err))
}

func TestInvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "ftp://host/sparql", "localhost:8080"} {
		_, err := New(Config{Endpoint: endpoint}, nil)
		assert.Equal(t, errors.ConnectionError, errors.CodeOf(err), endpoint)
	}
}

func TestRateLimitRespectsContext(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
	})
	c.limiter.SetLimit(0.001)
	c.limiter.SetBurst(1)

	_, err := c.Query(context.Background(), "SELECT ?x WHERE {}")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Query(ctx, "SELECT ?x WHERE {}")
	assert.Error(t, err)
}
