// Package fetch provides the HTTP collaborator used for unauthenticated
// GET requests, backed by a process-wide pool of reusable clients keyed
// by endpoint.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultTimeout bounds a single fetch, including reading the body.
const DefaultTimeout = 30 * time.Second

// Response is the outcome of a fetch: the status line plus the full body.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Fetcher issues an unauthenticated GET for a URI. Transport failures are
// returned as-is; non-2xx responses are not errors at this layer.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Response, error)
}

// Pool hands out one reusable HTTP client per endpoint (scheme://host).
// Creation on first use is guarded by a mutex so concurrent calls for
// the same endpoint never build duplicate clients; reuse afterwards
// needs no synchronization beyond the client's own.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*http.Client
	timeout time.Duration
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithTimeout sets the per-request timeout for clients created by the pool.
func WithTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.timeout = d
	}
}

// NewPool creates an empty client pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		clients: make(map[string]*http.Client),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// client returns the pooled client for an endpoint, creating it lazily.
func (p *Pool) client(endpoint string) *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[endpoint]; ok {
		return c
	}
	c := &http.Client{Timeout: p.timeout}
	p.clients[endpoint] = c
	return c
}

// Do issues a GET for uri through the pooled client for its endpoint and
// returns the raw response. The caller owns the response body.
func (p *Pool) Do(ctx context.Context, uri string) (*http.Response, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse fetch uri: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	return p.client(u.Scheme + "://" + u.Host).Do(req)
}

// Fetch issues a GET for uri and buffers the response body.
func (p *Pool) Fetch(ctx context.Context, uri string) (*Response, error) {
	resp, err := p.Do(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}
