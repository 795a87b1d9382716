package translation

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds each project's cache.
const DefaultCacheSize = 512

// Cache maps canonical source text to translated output, per project.
//
// Each project may pin one key (the canonical text of its live slot set).
// The pinned entry lives outside the LRU and is never evicted.
type Cache struct {
	mu       sync.Mutex
	size     int
	projects map[string]*projectCache
}

type projectCache struct {
	bounded *lru.Cache[string, string]
	all     map[string]string

	pinKey string
	pinned bool
	pinVal string
	pinHas bool
}

// NewCache returns a cache holding up to size entries per project.
// A size <= 0 disables eviction.
func NewCache(size int) *Cache {
	return &Cache{
		size:     size,
		projects: make(map[string]*projectCache),
	}
}

func (c *Cache) Get(projectID, source string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.projects[projectID]
	if !ok {
		return "", false
	}
	if pc.pinned && pc.pinKey == source {
		return pc.pinVal, pc.pinHas
	}
	return pc.get(source)
}

// Put stores output for source, overwriting any prior entry.
func (c *Cache) Put(projectID, source, output string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pc := c.projectLocked(projectID)
	if pc.pinned && pc.pinKey == source {
		pc.pinVal, pc.pinHas = output, true
		return
	}
	pc.add(source, output)
}

// Pin protects source from eviction, releasing the previous pin back
// into the LRU.
func (c *Cache) Pin(projectID, source string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pc := c.projectLocked(projectID)
	if pc.pinned && pc.pinKey == source {
		return
	}
	if pc.pinned && pc.pinHas {
		pc.add(pc.pinKey, pc.pinVal)
	}
	pc.pinKey, pc.pinned = source, true
	pc.pinVal, pc.pinHas = pc.take(source)
}

// Seed replaces the project's entries with a persisted map.
func (c *Cache) Seed(projectID string, entries map[string]string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pc := c.newProjectCache()
	for k, v := range entries {
		pc.add(k, v)
	}
	c.projects[projectID] = pc
}

// Snapshot returns every entry held for the project, pinned entry included.
func (c *Cache) Snapshot(projectID string) map[string]string {
	out := map[string]string{}
	if c == nil {
		return out
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.projects[projectID]
	if !ok {
		return out
	}
	if pc.bounded != nil {
		for _, k := range pc.bounded.Keys() {
			if v, ok := pc.bounded.Peek(k); ok {
				out[k] = v
			}
		}
	} else {
		for k, v := range pc.all {
			out[k] = v
		}
	}
	if pc.pinned && pc.pinHas {
		out[pc.pinKey] = pc.pinVal
	}
	return out
}

// Len reports the number of entries for the project.
func (c *Cache) Len(projectID string) int {
	return len(c.Snapshot(projectID))
}

func (c *Cache) Forget(projectID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projects, projectID)
}

func (c *Cache) projectLocked(projectID string) *projectCache {
	pc, ok := c.projects[projectID]
	if !ok {
		pc = c.newProjectCache()
		c.projects[projectID] = pc
	}
	return pc
}

func (c *Cache) newProjectCache() *projectCache {
	if c.size > 0 {
		// lru.New only fails for a non-positive size.
		bounded, _ := lru.New[string, string](c.size)
		return &projectCache{bounded: bounded}
	}
	return &projectCache{all: make(map[string]string)}
}

func (pc *projectCache) get(k string) (string, bool) {
	if pc.bounded != nil {
		return pc.bounded.Get(k)
	}
	v, ok := pc.all[k]
	return v, ok
}

func (pc *projectCache) add(k, v string) {
	if pc.bounded != nil {
		pc.bounded.Add(k, v)
		return
	}
	pc.all[k] = v
}

func (pc *projectCache) take(k string) (string, bool) {
	if pc.bounded != nil {
		v, ok := pc.bounded.Peek(k)
		if ok {
			pc.bounded.Remove(k)
		}
		return v, ok
	}
	v, ok := pc.all[k]
	delete(pc.all, k)
	return v, ok
}
