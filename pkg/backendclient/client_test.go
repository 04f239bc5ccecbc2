package backendclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(writeURL, readURL string) *Client {
	return New(
		Config{URL: writeURL, User: "u", Password: "p", DBName: "karabo"},
		Config{URL: readURL, User: "u", Password: "p", DBName: "karabo"},
	)
}

func TestWriteBatchSendsJoinedLinesAndAuth(t *testing.T) {
	var gotBody string
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	err := c.WriteBatch(context.Background(), []string{"line1", "line2"})
	require.NoError(t, err)
	assert.Equal(t, "u", gotUser)
	assert.Equal(t, "p", gotPass)
	assert.Equal(t, "line1\nline2", gotBody)
}

func TestWriteBatchEmptyIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	err := c.WriteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestWriteBatchReturnsErrorOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	err := c.WriteBatch(context.Background(), []string{"line1"})
	assert.Error(t, err)
}

func TestQueryDBParsesJSONReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"columns":["time","value"],"values":[[1,2]]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	result, err := c.QueryDB(context.Background(), `SELECT value FROM "dev1"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "value"}, result.Columns)
	require.Len(t, result.Rows, 1)
}

func TestPingReturnsErrorWhenBackendUnreachable(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "http://127.0.0.1:1")
	err := c.Ping(context.Background())
	assert.Error(t, err)
}

func TestPingSucceedsOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	err := c.Ping(context.Background())
	assert.NoError(t, err)
}

func TestCircuitBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	require.False(t, c.Tripped())

	for i := 0; i < 3; i++ {
		_ = c.WriteBatch(context.Background(), []string{"line1"})
	}

	assert.True(t, c.Tripped())
}
