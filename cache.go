package muon

// Cache is the contract a pluggable cache policy must satisfy. The shim
// (Cached) treats it as an opaque write-back store: whether it implements
// LRU, LFU, or anything else is none of the shim's concern.
//
// ReadCache returns ErrCacheMiss if block_id isn't cached. WriteCache
// inserts or updates block_id's content; if the cache is full it must
// return *CacheEvictError naming a victim instead of silently dropping
// anything — the shim evicts that victim through Evict and retries.
// Flush pushes every dirty entry to dev. Evict writes block_id back to
// dev (if dirty) and removes it from the cache.
type Cache interface {
	ReadCache(blockID uint32, buf []byte) error
	WriteCache(blockID uint32, buf []byte) error
	Flush(dev BlockDevice) error
	Evict(dev BlockDevice, blockID uint32) error
}

// Cached wraps {device, cache} and presents itself as an ordinary
// BlockDevice. Reads try the cache first; on a miss they fall through to
// the device and populate the cache. Writes are write-back: they only
// ever touch the cache, handling eviction the same way reads do, and
// never call through to the device directly. The cache never silently
// drops a dirty block — eviction always funnels through Evict, which is
// responsible for writing dirtiness back.
type Cached struct {
	device BlockDevice
	cache  Cache
}

// NewCached builds a caching shim around device using cache as its
// backing policy.
func NewCached(device BlockDevice, cache Cache) *Cached {
	return &Cached{device: device, cache: cache}
}

func (c *Cached) NumBlocks() uint32 {
	return c.device.NumBlocks()
}

func (c *Cached) ReadBlock(id uint32, buf []byte) error {
	err := c.cache.ReadCache(id, buf)
	if err == nil {
		return nil
	}
	if err != ErrCacheMiss {
		return err
	}

	if err := c.device.ReadBlock(id, buf); err != nil {
		return err
	}
	return c.insert(id, buf)
}

func (c *Cached) WriteBlock(id uint32, buf []byte) error {
	if id >= c.device.NumBlocks() {
		return ErrInvalidBlockID
	}
	return c.insert(id, buf)
}

// insert writes buf into the cache under id, evicting a victim first if
// the cache reports it's full.
func (c *Cached) insert(id uint32, buf []byte) error {
	err := c.cache.WriteCache(id, buf)
	if err == nil {
		return nil
	}

	evictErr, ok := err.(*CacheEvictError)
	if !ok {
		return err
	}

	if err := c.cache.Evict(c.device, evictErr.BlockID); err != nil {
		return err
	}
	return c.cache.WriteCache(id, buf)
}

// Flush pushes every dirty cached block to the underlying device. It does
// not flush the device itself — call device.Flush() separately if needed.
func (c *Cached) Flush() error {
	return c.cache.Flush(c.device)
}

var _ BlockDevice = (*Cached)(nil)
