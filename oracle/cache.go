package oracle

import (
	"sync"
)

// Cache is the single-writer, many-reader store of the most recent oracle
// tick per pair. The websocket client is the only writer; matcher workers
// read concurrently.
type Cache struct {
	mtx   sync.RWMutex
	ticks map[string]Tick
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		ticks: map[string]Tick{},
	}
}

// Set records the latest tick for its pair, overwriting whatever was there.
// The cache does not reject ticks that arrive out of order; the most recent
// write always wins.
func (c *Cache) Set(t Tick) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.ticks[t.Pair] = t
}

// GetPrice returns the last known tick for pair and whether one has been
// observed yet.
func (c *Cache) GetPrice(pair string) (Tick, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	t, ok := c.ticks[pair]
	return t, ok
}

// Pairs returns every pair the cache currently holds a tick for.
func (c *Cache) Pairs() []string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	pairs := make([]string, 0, len(c.ticks))
	for pair := range c.ticks {
		pairs = append(pairs, pair)
	}
	return pairs
}
