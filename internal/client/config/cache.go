package config

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 16

// Cache memoizes per-workspace configs so repeated save events do not
// re-read env files. Staleness is bounded by how promptly the caller
// invalidates on config-file change; that is best effort, not guaranteed.
type Cache struct {
	entries *lru.Cache[string, *Config]
	load    func(workspaceDir string) (*Config, error)
}

func NewCache() (*Cache, error) {
	return newCache(Load)
}

func newCache(load func(string) (*Config, error)) (*Cache, error) {
	entries, err := lru.New[string, *Config](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, load: load}, nil
}

// Get returns the cached config for workspaceDir, loading it on a miss.
func (c *Cache) Get(workspaceDir string) (*Config, error) {
	if cfg, ok := c.entries.Get(workspaceDir); ok {
		return cfg, nil
	}
	cfg, err := c.load(workspaceDir)
	if err != nil {
		return nil, err
	}
	c.entries.Add(workspaceDir, cfg)
	return cfg, nil
}

// Invalidate drops the cached entry for workspaceDir. The next Get reloads
// from disk.
func (c *Cache) Invalidate(workspaceDir string) {
	c.entries.Remove(workspaceDir)
}
