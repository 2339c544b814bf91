// Package history persists resume positions across playback sessions.
package history

import (
	"path/filepath"
	"time"

	"github.com/metafates/gache"
	"github.com/spf13/viper"

	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/util"
	"github.com/montage-cli/montage/where"
)

const defaultCompletion = 95.0

// cacher is the disk-backed registry of resume positions, keyed by the
// absolute path of the media file.
var cacher = gache.New[map[string]*SavedPosition](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every saved position keyed by absolute media path.
func Get() (map[string]*SavedPosition, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}

	if expired || cached == nil {
		return make(map[string]*SavedPosition), nil
	}

	return cached, nil
}

// For returns the saved position of path, if any.
func For(path string) (*SavedPosition, bool) {
	saved, err := Get()
	if err != nil {
		log.Warnf("reading history failed: %v", err)
		return nil, false
	}

	position, ok := saved[normalize(path)]
	return position, ok
}

// Save records position as the resume point of path. A position at or past
// the completion percentage clears the entry instead, so finished files
// restart from the top.
func Save(path string, position, duration float64) error {
	record := &SavedPosition{
		Path:      normalize(path),
		Name:      util.FileStem(path),
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}

	if record.Percent() >= completionPercentage() {
		return Remove(record.Path)
	}

	saved, err := Get()
	if err != nil {
		return err
	}

	saved[record.Path] = record
	return cacher.Set(saved)
}

// Remove deletes the resume point of path.
func Remove(path string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, normalize(path))
	return cacher.Set(saved)
}

// Clear drops every saved position.
func Clear() error {
	return cacher.Set(make(map[string]*SavedPosition))
}

func completionPercentage() float64 {
	percent := viper.GetFloat64(key.CompletionPercentage)
	if percent <= 0 || percent > 100 {
		return defaultCompletion
	}

	return percent
}

// normalize resolves path to its absolute form so the same file maps to
// one entry regardless of how it was named.
func normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}
