package cache

import (
	"container/list"
	"sync"
)

// LRU is a bounded, mutex-guarded in-process cache. The capacity is fixed at
// construction; inserting beyond it evicts the least recently used entry.
//
// Writes to the same key are last-writer-wins. Callers that may race on a key
// must only do so with equivalent values.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List               // front = most recent
	items map[K]*list.Element      // key -> element
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// NewLRU returns a cache holding at most capacity entries. A non-positive
// capacity falls back to 64.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 64
	}
	return &LRU[K, V]{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[K]*list.Element, capacity),
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(entry[K, V]).val, true
	}
	var zero V
	return zero, false
}

func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value = entry[K, V]{key: key, val: val}
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(entry[K, V]{key: key, val: val})
	c.items[key] = el
	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(entry[K, V]).key)
			c.ll.Remove(oldest)
		}
	}
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
