package internal

import csmap "github.com/mhmtszr/concurrent-swiss-map"

// A single key to value cache.
type Cache[K comparable, V any] struct {
	inner *csmap.CsMap[K, V]
	size  uint64
}

func NewCache[K comparable, V any](size uint64) Cache[K, V] {
	return Cache[K, V]{
		size: size,
	}
}

func (c *Cache[K, V]) Load(key K) (value V, ok bool) {
	if c.inner == nil {
		return
	}

	return c.inner.Load(key)
}

func (c *Cache[K, V]) Store(key K, value V) {
	if c.inner == nil {
		c.inner = csmap.Create(
			csmap.WithSize[K, V](c.size),
		)
	}

	c.inner.Store(key, value)
}

func (c *Cache[K, V]) Delete(key K) {
	if c.inner == nil {
		return
	}

	c.inner.Delete(key)
}

// Range If the callback function returns true iteration will stop.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	if c.inner == nil {
		return
	}

	c.inner.Range(fn)
}

func (c *Cache[K, V]) Count() int {
	if c.inner == nil {
		return 0
	}

	return c.inner.Count()
}

func (c *Cache[K, V]) Clear() {
	if c.inner == nil {
		return
	}

	c.inner.Clear()
}

// A 2 key to value cache.
type DoubleCache[KA comparable, KB comparable, V any] struct {
	inner     Cache[KA, *Cache[KB, V]]
	sizeInner uint64
}

func NewDoubleCache[KA comparable, KB comparable, V any](size, sizeInner uint64) DoubleCache[KA, KB, V] {
	return DoubleCache[KA, KB, V]{
		inner:     NewCache[KA, *Cache[KB, V]](size),
		sizeInner: sizeInner,
	}
}

func (c *DoubleCache[KA, KB, V]) Load(key KA, subKey KB) (value V, ok bool) {
	inner, ok := c.inner.Load(key)
	if !ok {
		return
	}

	return inner.Load(subKey)
}

func (c *DoubleCache[KA, KB, V]) Store(key KA, subKey KB, value V) {
	inner, ok := c.inner.Load(key)
	if !ok {
		cache := NewCache[KB, V](c.sizeInner)
		inner = &cache

		c.inner.Store(key, inner)
	}

	inner.Store(subKey, value)
}

func (c *DoubleCache[KA, KB, V]) Delete(key KA, subKey KB) {
	if inner, ok := c.inner.Load(key); ok {
		inner.Delete(subKey)
	}
}

// DeleteOuter removes every value stored under the outer key.
func (c *DoubleCache[KA, KB, V]) DeleteOuter(key KA) {
	c.inner.Delete(key)
}

// RangeInner iterates the values under one outer key. If the callback
// function returns true iteration will stop.
func (c *DoubleCache[KA, KB, V]) RangeInner(key KA, fn func(subKey KB, value V) bool) {
	if inner, ok := c.inner.Load(key); ok {
		inner.Range(fn)
	}
}

func (c *DoubleCache[KA, KB, V]) Count() int {
	count := 0

	c.inner.Range(func(_ KA, inner *Cache[KB, V]) bool {
		count += inner.Count()

		return false
	})

	return count
}
