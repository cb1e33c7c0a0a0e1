package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const cacheVersion = "1.0"

// StatusCache persists validation outcomes between runs, keyed by descriptor.
// An entry only applies to the definition revision whose hash it recorded.
type StatusCache struct {
	path     string
	mu       sync.RWMutex
	version  string
	statuses map[string]CachedStatus
}

// NewStatusCache creates a StatusCache backed by path and loads it from disk.
// An empty path yields an in-memory cache that never saves.
func NewStatusCache(path string) (*StatusCache, error) {
	c := &StatusCache{
		path:     path,
		version:  cacheVersion,
		statuses: make(map[string]CachedStatus),
	}

	if path == "" {
		return c, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := c.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return c, nil
}

// Load reads the cache from disk
func (c *StatusCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	var file StatusCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse cache: %w", err)
	}

	// Outcomes recorded by another cache format cannot be trusted.
	if file.Version != cacheVersion {
		c.statuses = make(map[string]CachedStatus)
		return nil
	}

	c.version = file.Version
	c.statuses = file.Statuses
	if c.statuses == nil {
		c.statuses = make(map[string]CachedStatus)
	}

	return nil
}

// Save writes the cache to disk atomically
func (c *StatusCache) Save() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	file := StatusCacheFile{
		Version:  c.version,
		Statuses: c.statuses,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Get returns the cached outcome for descriptor if it was recorded for the
// definition revision identified by hash.
func (c *StatusCache) Get(descriptor, hash string) (CachedStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status, ok := c.statuses[descriptor]
	if !ok || status.Hash != hash {
		return CachedStatus{}, false
	}
	return status, true
}

// Set records the outcome for descriptor.
func (c *StatusCache) Set(descriptor string, status CachedStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statuses[descriptor] = status
}

// Invalidate removes the cached outcome for each descriptor.
func (c *StatusCache) Invalidate(descriptors ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, descriptor := range descriptors {
		delete(c.statuses, descriptor)
	}
}

// InvalidateAll removes all cached statuses
func (c *StatusCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statuses = make(map[string]CachedStatus)
}

// Len returns the number of cached outcomes.
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses)
}
