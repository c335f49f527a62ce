package httputil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live (TTL). The stale bytes are left on disk; callers
// should fetch fresh data and overwrite them with [Cache.Set].
var ErrExpired = errors.New("cache entry expired")

// Cache stores downloaded bodies as files named by the SHA-256 of their key.
//
// Writes are atomic (temp file plus rename), so concurrent readers in this or
// another process never observe a partially written entry. Entry age is the
// file modification time; a TTL of 0 means entries never expire.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// An empty dir selects ~/.cache/invitekit/. The directory is created if
// missing.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "invitekit")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live for cache entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached body for key.
//
//   - (data, true, nil): fresh hit.
//   - (nil, false, nil): miss.
//   - (nil, false, ErrExpired): present but stale.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores data under key, replacing any existing entry and refreshing its
// age.
func (c *Cache) Set(key string, data []byte) error {
	return atomic.WriteFile(c.keyPath(c.prefix+key), bytes.NewReader(data))
}

// Namespace returns a view of the cache whose keys are prefixed with prefix.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{dir: c.dir, ttl: c.ttl, prefix: c.prefix + prefix}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
