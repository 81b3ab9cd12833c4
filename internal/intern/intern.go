// Package intern holds the lookup-or-create machinery shared by the global
// tables.
//
// Every table follows the same discipline: a read-locked probe first, then a
// write-locked re-probe before inserting. Two goroutines racing on the same
// key therefore observe the same index and only one entry is created.
package intern

import (
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"

	"maple/internal/ice"
)

// GetOrCreate runs lookup under a read lock and, on a miss, re-runs it under
// the write lock before calling create. create is called with mu held for
// writing.
func GetOrCreate[V any](mu *sync.RWMutex, lookup func() (V, bool), create func() V) V {
	mu.RLock()
	v, ok := lookup()
	mu.RUnlock()
	if ok {
		return v
	}
	mu.Lock()
	defer mu.Unlock()
	if v, ok := lookup(); ok {
		return v
	}
	return create()
}

// Cache is a concurrency-safe map with create-once semantics.
type Cache[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewCache returns an empty cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{m: make(map[K]V)}
}

// Lookup reports the cached value for k.
func (c *Cache[K, V]) Lookup(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[k]
	return v, ok
}

// GetOrInsert returns the cached value for k, calling create at most once per
// key to build it.
func (c *Cache[K, V]) GetOrInsert(k K, create func() V) V {
	return GetOrCreate(&c.mu,
		func() (V, bool) {
			v, ok := c.m[k]
			return v, ok
		},
		func() V {
			v := create()
			c.m[k] = v
			return v
		})
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Reset drops every entry.
func (c *Cache[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.m)
}

// Index is a bijection between keys and dense indices. Slot 0 is reserved
// for the zero key and is never handed out by Intern.
type Index[K comparable, I ~uint32] struct {
	mu    sync.RWMutex
	byIdx []K
	index map[K]I
}

// NewIndex returns an index holding only the reserved slot.
func NewIndex[K comparable, I ~uint32]() *Index[K, I] {
	var zero K
	return &Index[K, I]{
		byIdx: []K{zero},
		index: make(map[K]I, 64),
	}
}

// Intern returns the index of k, appending it on first sight. The zero key
// maps to index 0.
func (x *Index[K, I]) Intern(k K) I {
	var zero K
	if k == zero {
		return 0
	}
	return GetOrCreate(&x.mu,
		func() (I, bool) {
			i, ok := x.index[k]
			return i, ok
		},
		func() I {
			n, err := safecast.Conv[uint32](len(x.byIdx))
			if err != nil {
				panic(fmt.Errorf("intern: index overflow: %w", err))
			}
			i := I(n)
			x.byIdx = append(x.byIdx, k)
			x.index[k] = i
			return i
		})
}

// Lookup returns the index of k, or 0 when k was never interned.
func (x *Index[K, I]) Lookup(k K) I {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index[k]
}

// Value returns the key stored at i.
func (x *Index[K, I]) Value(i I) (K, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if int(i) >= len(x.byIdx) {
		var zero K
		return zero, false
	}
	return x.byIdx[i], true
}

// MustValue is Value that treats an out-of-range index as fatal.
func (x *Index[K, I]) MustValue(i I) K {
	k, ok := x.Value(i)
	if !ok {
		ice.Fatalf("intern: index %d out of range (len %d)", i, x.Len())
	}
	return k
}

// Len counts the reserved slot too, so it is never below 1.
func (x *Index[K, I]) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byIdx)
}

// Snapshot copies the keys in index order.
func (x *Index[K, I]) Snapshot() []K {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return slices.Clone(x.byIdx)
}

// Reset drops everything but the reserved slot.
func (x *Index[K, I]) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byIdx = x.byIdx[:1]
	clear(x.index)
}
