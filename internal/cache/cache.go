// Package cache stores derived artifacts on disk so expensive reductions
// survive restarts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/montage-cli/montage/filesystem"
)

// Store is a TTL-bounded directory of JSON-encoded entries.
type Store struct {
	dir string
	ttl time.Duration
}

// New opens a store rooted at dir. Entries older than ttl read as absent.
func New(dir string, ttl time.Duration) *Store {
	_ = filesystem.API().MkdirAll(dir, 0o755)
	return &Store{dir: dir, ttl: ttl}
}

// GenerateKey derives a deterministic cache identifier from the given parts.
func GenerateKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Read deserializes the entry under key into target. It reports false for
// missing, expired, or undecodable entries.
func (s *Store) Read(key string, target any) bool {
	path := filepath.Join(s.dir, key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > s.ttl {
		return false
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(target) == nil
}

// Write persists data under key with an atomic file swap, so readers never
// observe a partial entry.
func (s *Store) Write(key string, data any) error {
	path := filepath.Join(s.dir, key)
	tmp := path + ".tmp"

	f, err := filesystem.API().Create(tmp)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return filesystem.API().Rename(tmp, path)
}

// CollectGarbage prunes expired entries in the background.
func (s *Store) CollectGarbage() {
	go s.sweep()
}

func (s *Store) sweep() {
	entries, err := filesystem.API().ReadDir(s.dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if time.Since(entry.ModTime()) > s.ttl {
			_ = filesystem.API().Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
}
