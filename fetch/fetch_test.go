package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	pool := NewPool()
	resp, err := pool.Fetch(context.Background(), server.URL+"/creds")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Status, "200")
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
}

func TestPoolFetchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	pool := NewPool()
	resp, err := pool.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, resp.Status, "403")
}

func TestPoolClientReuse(t *testing.T) {
	pool := NewPool()

	first := pool.client("http://169.254.169.254")
	second := pool.client("http://169.254.169.254")
	other := pool.client("http://localhost:8080")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Len(t, pool.clients, 2)
}

func TestPoolConcurrentFirstUse(t *testing.T) {
	pool := NewPool()

	const workers = 32
	clients := make([]*http.Client, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			clients[i] = pool.client("http://169.254.169.254")
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, clients[0], clients[i])
	}
	assert.Len(t, pool.clients, 1)
}

func TestPoolTimeoutOption(t *testing.T) {
	pool := NewPool(WithTimeout(5 * time.Second))
	c := pool.client("http://localhost")
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestPoolFetchBadURI(t *testing.T) {
	pool := NewPool()
	_, err := pool.Fetch(context.Background(), "http://\x00bad")
	assert.Error(t, err)
}
