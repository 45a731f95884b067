package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/entity"
)

// EntitySource is the read side of the reference store.
type EntitySource interface {
	ListEntities(ctx context.Context) ([]entity.ReferenceEntity, error)
}

// Entry is one cached registry entity with its precomputed tokens.
type Entry struct {
	ID     int64
	Name   string
	tokens []string
}

// Cache is an in-memory snapshot of the reference registry, rebuilt once per
// pipeline run. It is an explicit value passed into matcher and writer calls,
// never package state, so independent runs and tests stay isolated. Batch
// workers probe it concurrently while import-writer provisioning mutates it,
// so all access goes through the lock.
type Cache struct {
	mu      sync.RWMutex
	byID    map[int64]string
	byKey   map[string]int64
	entries []Entry
}

func NewCache() *Cache {
	return &Cache{
		byID:  make(map[int64]string),
		byKey: make(map[string]int64),
	}
}

// Load rebuilds the snapshot from the reference store.
func (c *Cache) Load(ctx context.Context, src EntitySource, logger *slog.Logger) error {
	ents, err := src.ListEntities(ctx)
	if err != nil {
		return common.WrapError(err, "list reference entities")
	}
	c.mu.Lock()
	c.byID = make(map[int64]string, len(ents))
	c.byKey = make(map[string]int64, len(ents))
	c.entries = c.entries[:0]
	for _, e := range ents {
		c.add(e.ID, e.CanonicalName())
	}
	n := len(c.entries)
	c.mu.Unlock()
	if logger != nil {
		logger.Info("registry cache loaded", "entities", n)
	}
	return nil
}

// Add inserts or replaces one entity in the snapshot. Used at load time and
// by import-writer provisioning so later records in the same run match the
// newly created entity instead of re-provisioning a duplicate.
func (c *Cache) Add(id int64, canonicalName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(id, canonicalName)
}

func (c *Cache) add(id int64, canonicalName string) {
	tokens := Tokens(canonicalName)
	c.byID[id] = canonicalName
	if len(tokens) > 0 {
		c.byKey[Key(tokens)] = id
	}
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries[i] = Entry{ID: id, Name: canonicalName, tokens: tokens}
			return
		}
	}
	c.entries = append(c.entries, Entry{ID: id, Name: canonicalName, tokens: tokens})
}

// Remove drops an entity from the snapshot. Used when a provisioning
// transaction rolls back so the cache never points at a row that was never
// committed.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.byID[id]
	if !ok {
		return
	}
	delete(c.byID, id)
	delete(c.byKey, Key(Tokens(name)))
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// CanonicalNameByID looks up the canonical name for an entity id.
func (c *Cache) CanonicalNameByID(id int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.byID[id]
	return name, ok
}

// IDByKey looks up an entity by order-invariant token key.
func (c *Cache) IDByKey(tokens []string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byKey[Key(tokens)]
	return id, ok
}

// HasID reports whether the id exists in the snapshot.
func (c *Cache) HasID(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of cached entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
