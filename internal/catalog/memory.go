package catalog

import (
    "context"
    "sort"
    "sync"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// MemoryCatalog is a mutex-guarded in-memory Catalog used by tests and the
// standalone mode.  Seed it with Put before serving traffic.
type MemoryCatalog struct {
    mu        sync.RWMutex
    resources map[string]model.Resource
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *MemoryCatalog {
    return &MemoryCatalog{resources: make(map[string]model.Resource)}
}

// Put adds or replaces a resource.  It exists for seeding; the engine
// itself never writes to the catalog.
func (c *MemoryCatalog) Put(res model.Resource) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.resources[res.ID] = res
}

func (c *MemoryCatalog) GetByID(_ context.Context, id string) (model.Resource, error) {
    c.mu.RLock()
    defer c.mu.RUnlock()
    res, ok := c.resources[id]
    if !ok {
        return model.Resource{}, ErrResourceNotFound
    }
    return res, nil
}

func (c *MemoryCatalog) List(_ context.Context, category string) ([]model.Resource, error) {
    c.mu.RLock()
    defer c.mu.RUnlock()
    out := make([]model.Resource, 0, len(c.resources))
    for _, res := range c.resources {
        if category != "" && res.Category != category {
            continue
        }
        out = append(out, res)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}
