package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Source is what the cache reads from; *Repository satisfies it.
type Source interface {
	ListActive(ctx context.Context) ([]Product, error)
}

// Cache holds the active catalog for one planning session. It never writes
// back to the source.
type Cache struct {
	source Source

	mu       sync.RWMutex
	products []Product
	index    Index
	loaded   bool
}

// NewCache creates an empty cache over source.
func NewCache(source Source) *Cache {
	return &Cache{source: source, index: Index{}}
}

// Load fetches the catalog once; later calls are no-ops.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}
	products, err := c.source.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	c.products = products
	c.index = NewIndex(products)
	c.loaded = true
	return nil
}

// Products returns the cached products in catalog order.
func (c *Cache) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product implements Lookup.
func (c *Cache) Product(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Product(id)
}
