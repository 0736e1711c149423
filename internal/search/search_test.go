package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/search", 5*time.Second, nil)
	require.NoError(t, err)
	return client, &calls
}

func TestSearchEmptyQuerySkipsNetwork(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	results, err := client.Search(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestSearchDecodesOrderedResults(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "cat", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["a","b","c"]`)) //nolint:errcheck
	})

	results, err := client.Search(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, results)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestSearchEncodesQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "q=fish+%26+chips%3F", r.URL.RawQuery)
		assert.Equal(t, "fish & chips?", r.URL.Query().Get("q"))
		w.Write([]byte(`[]`)) //nolint:errcheck
	})

	_, err := client.Search(context.Background(), "fish & chips?")
	require.NoError(t, err)
}

func TestSearchNullBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`)) //nolint:errcheck
	})

	results, err := client.Search(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, []string{}, results)
}

func TestSearchDecodeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":["a"]}`)) //nolint:errcheck
	})

	results, err := client.Search(context.Background(), "cat")
	assert.Nil(t, results)

	var searchErr *Error
	require.ErrorAs(t, err, &searchErr)
	assert.Equal(t, "cat", searchErr.Query)
	assert.Contains(t, searchErr.Reason(), "failed to decode response")
}

func TestSearchNon2xx(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), "cat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "500")
}

func TestSearchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/search"
	server.Close()

	client, err := NewClient(endpoint, time.Second, nil)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "cat")
	var searchErr *Error
	require.ErrorAs(t, err, &searchErr)
	assert.NotEmpty(t, searchErr.Reason())
}

func TestSearchCanceledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["a"]`)) //nolint:errcheck
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "cat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	_, err := NewClient("ftp://127.0.0.1/search", time.Second, nil)
	assert.Error(t, err)

	_, err = NewClient("://nope", time.Second, nil)
	assert.Error(t, err)
}
