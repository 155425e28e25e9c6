package muon

import (
	"container/list"
	"sync"
)

// cacheBuffer is one cached block's content, dirty flag, and id.
type cacheBuffer struct {
	blockID uint32
	buf     [BlockSize]byte
	dirty   bool
}

// LruCache is a reference Cache policy: a fixed-capacity, least-recently-
// used eviction cache. On a capacity miss WriteCache names the tail of
// the list (the least recently touched block) as the eviction victim
// rather than evicting it itself, per the Cache contract — eviction only
// happens through Evict, called back by the shim.
type LruCache struct {
	mu       sync.Mutex
	list     *list.List // front = most recently used
	index    map[uint32]*list.Element
	capacity int
}

// NewLruCache builds an LRU cache holding at most capacity blocks.
func NewLruCache(capacity int) *LruCache {
	return &LruCache{
		list:     list.New(),
		index:    make(map[uint32]*list.Element, capacity),
		capacity: capacity,
	}
}

func (c *LruCache) ReadCache(blockID uint32, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[blockID]
	if !ok {
		return ErrCacheMiss
	}
	entry := el.Value.(*cacheBuffer)
	copy(buf, entry.buf[:])
	c.list.MoveToFront(el)
	return nil
}

func (c *LruCache) WriteCache(blockID uint32, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[blockID]; ok {
		entry := el.Value.(*cacheBuffer)
		copy(entry.buf[:], buf)
		entry.dirty = true
		c.list.MoveToFront(el)
		return nil
	}

	if c.list.Len() >= c.capacity {
		victim := c.list.Back().Value.(*cacheBuffer)
		return &CacheEvictError{BlockID: victim.blockID}
	}

	entry := &cacheBuffer{blockID: blockID, dirty: true}
	copy(entry.buf[:], buf)
	el := c.list.PushFront(entry)
	c.index[blockID] = el
	return nil
}

// Flush writes every dirty cached block back to dev and clears their
// dirty flags, without removing them from the cache.
func (c *LruCache) Flush(dev BlockDevice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.list.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*cacheBuffer)
		if entry.dirty {
			if err := dev.WriteBlock(entry.blockID, entry.buf[:]); err != nil {
				return err
			}
			entry.dirty = false
		}
	}
	return nil
}

// Evict writes blockID back to dev if it's dirty and removes it from the
// cache, making room for the insert that triggered the eviction.
func (c *LruCache) Evict(dev BlockDevice, blockID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[blockID]
	if !ok {
		return ErrCacheMiss
	}
	entry := el.Value.(*cacheBuffer)
	if entry.dirty {
		if err := dev.WriteBlock(entry.blockID, entry.buf[:]); err != nil {
			return err
		}
	}
	c.list.Remove(el)
	delete(c.index, blockID)
	return nil
}

var _ Cache = (*LruCache)(nil)
