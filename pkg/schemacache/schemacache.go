// Package schemacache is a non-authoritative, rebuildable local cache
// of schema blobs keyed by content digest, held by the Log Reader. The
// reader still queries the backend for the schema on every lookup; when
// the reply's digest is cached, the cached bytes are returned instead
// of the reply's blob. Losing this cache (disk failure, fresh checkout)
// never affects correctness,
// consistent with the invariant that no state beyond the logger map
// and the backend itself is authoritative.
package schemacache

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("schemas")

// Cache wraps a bbolt database holding digest -> schema blob.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open schema cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema cache buckets: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached blob for digest, if present.
func (c *Cache) Get(digest string) ([]byte, bool) {
	var blob []byte
	_ = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get([]byte(digest))
		if v != nil {
			blob = append([]byte(nil), v...)
		}
		return nil
	})
	return blob, blob != nil
}

// Put caches blob under digest and returns any write error. The Log
// Reader discards that error without logging it, so a failed write
// just shows up as a miss next time.
func (c *Cache) Put(digest string, blob []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(digest), blob)
	})
}
