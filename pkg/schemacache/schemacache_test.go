package schemacache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemacache.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := openTestCache(t)
	_, ok := c.Get("nonexistent-digest")
	assert.False(t, ok)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("abc123", []byte(`{"fields":[]}`)))

	blob, ok := c.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, `{"fields":[]}`, string(blob))
}

func TestPutOverwritesExistingDigest(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("abc123", []byte("v1")))
	require.NoError(t, c.Put("abc123", []byte("v2")))

	blob, ok := c.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, "v2", string(blob))
}
