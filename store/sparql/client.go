// Package sparql connects the gallery to a SPARQL 1.1 protocol endpoint.
package sparql

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/internal/httpclient"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/store"
)

const resultsMediaType = "application/sparql-results+json"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4096

// Config configures a Client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	// QueriesPerSecond limits outgoing requests; zero disables limiting.
	QueriesPerSecond float64
	Burst            int
	// BlockPrivateNetworks refuses endpoints resolving to private addresses.
	BlockPrivateNetworks bool
}

// Client is a store.Connection over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	log      *zap.SugaredLogger
}

var _ store.Connection = (*Client)(nil)

// New creates a client for cfg.Endpoint.
func New(cfg Config, log *zap.SugaredLogger) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("invalid endpoint %q", cfg.Endpoint), errors.ErrConnection),
			"store.endpoint must be an http(s) url such as http://localhost:8080/sparql",
		)
	}
	if log == nil {
		log = logger.ComponentLogger("store.sparql")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.QueriesPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), burst)
	}

	return &Client{
		endpoint: u.String(),
		http:     httpclient.New(httpclient.Options{Timeout: timeout, BlockPrivateNetworks: cfg.BlockPrivateNetworks}),
		limiter:  limiter,
		log:      log.With(logger.FieldComponent, "sparql", logger.FieldEndpoint, u.Host),
	}, nil
}

type results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

type binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Query runs a SELECT and returns its rows.
func (c *Client) Query(ctx context.Context, q string) (store.Cursor, error) {
	start := time.Now()
	body, err := c.post(ctx, "query", q, resultsMediaType)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var res results
	if err := json.NewDecoder(body).Decode(&res); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to decode query results"), errors.ErrQueryExecution)
	}

	rows := make([][]*string, len(res.Results.Bindings))
	for i, b := range res.Results.Bindings {
		row := make([]*string, len(res.Head.Vars))
		for j, v := range res.Head.Vars {
			if cell, ok := b[v]; ok {
				value := cell.Value
				row[j] = &value
			}
		}
		rows[i] = row
	}

	c.log.Debugw("query finished",
		logger.FieldRows, len(rows),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return &cursor{width: len(res.Head.Vars), rows: rows, index: -1}, nil
}

// Update runs a SPARQL update statement.
func (c *Client) Update(ctx context.Context, statement string) error {
	body, err := c.post(ctx, "update", statement, "")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

func (c *Client) post(ctx context.Context, param, text, accept string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait cancelled")
	}

	form := url.Values{param: {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	log := c.log.With(logger.FieldsFromContext(ctx)...)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "request cancelled")
		}
		log.Warnw("endpoint unreachable", logger.FieldError, err)
		return nil, errors.Mark(errors.Wrapf(err, "%s request failed", param), errors.ErrConnection)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		err := errors.Newf("endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		log.Debugw("request rejected", logger.FieldQuery, text, logger.FieldError, err)
		return nil, errors.WithDetail(errors.Mark(err, errors.ErrQueryExecution), text)
	}
	return resp.Body, nil
}

// cursor walks decoded rows; a nil cell is unbound.
type cursor struct {
	width int
	rows  [][]*string
	index int
}

func (c *cursor) Next() bool {
	if c.index+1 >= len(c.rows) {
		c.index = len(c.rows)
		return false
	}
	c.index++
	return true
}

func (c *cursor) ColumnCount() int { return c.width }

func (c *cursor) Value(i int) (string, bool) {
	if c.index < 0 || c.index >= len(c.rows) || i < 0 || i >= c.width {
		return "", false
	}
	v := c.rows[c.index][i]
	if v == nil {
		return "", false
	}
	return *v, true
}

func (c *cursor) Err() error   { return nil }
func (c *cursor) Close() error { return nil }
