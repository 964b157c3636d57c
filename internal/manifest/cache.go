// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import "sync"

// Cache holds fetched manifests in process memory, keyed by base URL.
// A nil *Cache caches nothing.
type Cache struct {
	mu sync.RWMutex
	m  map[string]*Manifest
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{m: map[string]*Manifest{}}
}

// Get returns the cached manifest for baseURL, or nil if not cached.
func (c *Cache) Get(baseURL string) *Manifest {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m[baseURL]
}

// Set stores the manifest for baseURL.
func (c *Cache) Set(baseURL string, m *Manifest) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]*Manifest{}
	}
	c.m[baseURL] = m
}

// Clear drops every cached manifest.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = map[string]*Manifest{}
}
