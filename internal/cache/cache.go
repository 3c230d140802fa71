package cache

import (
	"fmt"
	"os"
	"sync"

	"dotstrings/internal/parser"
	"dotstrings/internal/textutil"

	"github.com/rs/zerolog/log"
)

type cachedFile struct {
	hash    string
	entries []parser.Entry
}

// ParseCache remembers the entries of each file by content hash so an
// unchanged file is not parsed again.
type ParseCache struct {
	mu     sync.RWMutex
	memory map[string]cachedFile // path → last parse
}

// NewParseCache creates an empty cache.
func NewParseCache() *ParseCache {
	return &ParseCache{memory: make(map[string]cachedFile)}
}

// Get returns the cached entries for path if data hashes the same as the
// content they were parsed from.
func (c *ParseCache) Get(path string, data []byte) ([]parser.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.memory[path]
	if !ok || cached.hash != textutil.HashBytes(data) {
		return nil, false
	}
	return cached.entries, true
}

// Set records the entries parsed from data.
func (c *ParseCache) Set(path string, data []byte, entries []parser.Entry) {
	c.mu.Lock()
	c.memory[path] = cachedFile{hash: textutil.HashBytes(data), entries: entries}
	c.mu.Unlock()
}

// Forget drops path, e.g. after the file was removed.
func (c *ParseCache) Forget(path string) {
	c.mu.Lock()
	delete(c.memory, path)
	c.mu.Unlock()
}

// Len returns the number of cached files.
func (c *ParseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}

// ParseFile reads path and parses it unless its content is unchanged since
// the last successful parse. changed is false when cached entries were returned.
// A failed parse leaves the previous entry in place.
func (c *ParseCache) ParseFile(path string) (entries []parser.Entry, changed bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read strings file: %w", err)
	}

	if entries, ok := c.Get(path, data); ok {
		log.Debug().Str("path", path).Msg("Content unchanged, using cached entries")
		return entries, false, nil
	}

	entries, err = parser.Parse(data, path)
	if err != nil {
		return nil, false, err
	}
	c.Set(path, data, entries)
	return entries, true, nil
}
