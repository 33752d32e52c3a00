package vfs

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruHandle is the LRU link embedded in a Dnode or Inode (§3): an opaque
// key into its owning zone's cache.
type lruHandle struct {
	key uint64
}

// lruZone is one of the two bounded pools of §4.C (dnodes, inodes), each
// wrapping a recency list and an associated "try evict" predicate that the
// caller supplies at eviction time. Built on hashicorp/golang-lru/v2:
// Keys() returns oldest-to-newest, which is exactly the scan order
// evict_half needs, and Get/Add double as the "touch" (MRU-promotion)
// operation required on every successful lookup, allocation, and lock
// acquire (§4.F).
type lruZone struct {
	mu       sync.Mutex
	seq      uint64
	capacity int
	cache    *lru.Cache[uint64, any]
}

// hardCeiling is the underlying library cache's own capacity: set far
// above any soft capacity so the library never silently auto-evicts an
// entry behind our back. Real eviction must always run through
// evictHalf's predicate (sync the inode, cascade-detach the dnode's
// children) rather than drop an entry blind, so this zone tracks its own
// soft "capacity" and calls evictHalf itself before the soft limit would
// be exceeded (§4.D).
const hardCeiling = 1 << 30

// newLruZone constructs a zone with the given soft capacity.
func newLruZone(capacity int) *lruZone {
	if capacity <= 0 {
		capacity = 1
	}
	c, err := lru.New[uint64, any](hardCeiling)
	if err != nil {
		panic(err)
	}
	return &lruZone{capacity: capacity, cache: c}
}

// atSoftCapacity reports whether the zone has reached (or passed) its
// soft capacity and an allocation should first try evictHalf.
func (z *lruZone) atSoftCapacity() bool {
	return z.len() >= z.capacity
}

// insert registers v (a *Dnode or *Inode) at the MRU end and returns its
// handle.
func (z *lruZone) insert(v any) *lruHandle {
	k := atomic.AddUint64(&z.seq, 1)
	z.mu.Lock()
	z.cache.Add(k, v)
	z.mu.Unlock()
	return &lruHandle{key: k}
}

// use moves the entry behind h to the MRU end.
func (z *lruZone) use(h *lruHandle) {
	if h == nil {
		return
	}
	z.mu.Lock()
	z.cache.Get(h.key)
	z.mu.Unlock()
}

// forget removes the entry behind h without running any predicate; used
// when an object is freed through a path other than evictHalf (e.g. an
// explicit close-and-free).
func (z *lruZone) forget(h *lruHandle) {
	if h == nil {
		return
	}
	z.mu.Lock()
	z.cache.Remove(h.key)
	z.mu.Unlock()
}

// len reports the zone's current population.
func (z *lruZone) len() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.cache.Len()
}

// evictHalf scans from the LRU end calling try on each entry until at
// least half of the zone's current length has been freed or the scan is
// exhausted (§4.C). try returns true iff the entry was truly free and has
// been disposed of by the caller; evictHalf then removes its handle from
// the zone. Returns the number of entries freed.
func (z *lruZone) evictHalf(try func(v any) bool) int {
	z.mu.Lock()
	length := z.cache.Len()
	keys := z.cache.Keys()
	z.mu.Unlock()

	target := (length + 1) / 2
	if target == 0 {
		return 0
	}

	freed := 0
	for _, k := range keys {
		if freed >= target {
			break
		}
		z.mu.Lock()
		v, ok := z.cache.Peek(k)
		z.mu.Unlock()
		if !ok {
			continue
		}
		if try(v) {
			z.mu.Lock()
			z.cache.Remove(k)
			z.mu.Unlock()
			freed++
		}
	}
	return freed
}
