// Package ffmpeg integrates the external decoding and transcoding engine.
package ffmpeg

import (
	"fmt"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/where"
	"github.com/samber/mo"
)

// cacheData defines the structured format for persisting probe results to disk.
type cacheData[K comparable, T any] struct {
	Entries map[K]T `json:"entries"`
}

// cacher provides a generic, thread-safe wrapper for high-level caching operations.
type cacher[K comparable, T any] struct {
	internal *gache.Cache[*cacheData[K, T]]
	mu       sync.RWMutex
}

// Get retrieves a value from the cache associated with the specified key.
func (c *cacher[K, T]) Get(key K) mo.Option[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[T]()
	}

	if entry, ok := data.Entries[key]; ok {
		return mo.Some(entry)
	}
	return mo.None[T]()
}

// Set persists a key-value pair to the cache.
func (c *cacher[K, T]) Set(key K, t T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if !expired && data != nil {
		data.Entries[key] = t
		return c.internal.Set(data)
	}

	internal := &cacheData[K, T]{Entries: make(map[K]T)}
	internal.Entries[key] = t
	return c.internal.Set(internal)
}

// probeCacher persists probe results so repeated opens skip the ffprobe spawn.
var probeCacher = &cacher[string, media.Info]{
	internal: gache.New[*cacheData[string, media.Info]](
		&gache.Options{
			Path:       where.Probes(),
			Lifetime:   time.Hour * 24 * 30,
			FileSystem: &filesystem.GacheFs{},
		},
	),
}

// statKey builds a cache key that changes whenever the file's content does.
func statKey(path string, size, mtime int64) string {
	return fmt.Sprintf("%s|%d|%d", path, size, mtime)
}
