package vfs

import (
	"reflect"
	"sync"
)

// DcacheHashBits sizes the global dcache bucket array to a fixed power of
// two (§4.A).
const DcacheHashBits = 14
const dcacheHashSize = 1 << DcacheHashBits
const dcacheHashMask = dcacheHashSize - 1

// Dcache is the hashed name cache of §4.A: lookup(parent, name), add,
// remove, rehash. One instance is shared by the whole VFS context, mixing
// the parent's identity into the bucket index so same-named siblings of
// different parents don't collide on the same chain.
type Dcache struct {
	mu      sync.Mutex
	buckets [dcacheHashSize][]*Dnode
}

// NewDcache constructs an empty dcache.
func NewDcache() *Dcache {
	return &Dcache{}
}

func parentAddr(p *Dnode) uint64 {
	if p == nil {
		return 0
	}
	return uint64(reflect.ValueOf(p).Pointer())
}

// mixBucket derives the bucket index from the name hash mixed with the
// parent's stable address: add the parent id, then XOR-fold the high bits
// into the low bits, then mask (§4.A).
func mixBucket(parent *Dnode, h uint32) uint32 {
	pa := parentAddr(parent)
	mixed := h + uint32(pa) + uint32(pa>>32)
	mixed ^= mixed >> 16
	return mixed & dcacheHashMask
}

// Lookup resolves name under parent. "." is identity, ".." is the parent
// (or self at root), and the empty name is identity (§4.A). Hash equality
// only is compared, not the byte string — the reference behavior's
// accepted collision risk (§9).
func (dc *Dcache) Lookup(parent *Dnode, name string) (*Dnode, bool) {
	switch name {
	case "", ".":
		return parent, true
	case "..":
		if parent == nil || parent.parent == nil {
			return parent, true
		}
		return parent.parent, true
	}
	h := nameHash(name)
	idx := mixBucket(parent, h)
	dc.mu.Lock()
	defer dc.mu.Unlock()
	for _, d := range dc.buckets[idx] {
		if d.parent == parent && d.nameHash == h {
			return d, true
		}
	}
	return nil, false
}

// Add requires a non-null parent: links d into parent's child list,
// registers it in the hash bucket, and bumps its ref_count by one,
// representing "cached by parent" (§4.A).
func (dc *Dcache) Add(parent *Dnode, d *Dnode) {
	if parent == nil {
		panic("vfs: dcache.Add requires a non-null parent")
	}
	d.parent = parent
	d.nameHash = nameHash(d.name)
	parent.addChild(d)

	idx := mixBucket(parent, d.nameHash)
	dc.mu.Lock()
	dc.buckets[idx] = append(dc.buckets[idx], d)
	dc.mu.Unlock()

	d.IncRef()
}

// Remove requires ref_count == 1 (only the cache holds it): unlinks from
// siblings and hash, zeroes the parent pointer, decrements the count to
// zero (§4.A).
func (dc *Dcache) Remove(d *Dnode) {
	if d.RefCount() != 1 {
		panic("vfs: dcache.Remove requires ref_count == 1")
	}
	dc.unhash(d, d.parent)
	if d.parent != nil {
		d.parent.removeChild(d)
		d.parent = nil
	}
	d.DecRef()
}

// unhash removes d from the bucket array only, without touching ref
// counts or the parent's child list; used both by Remove and by
// detachChildren's cascade (§4.D). parent is passed explicitly rather
// than read off d: callers that have already cleared d.parent (the
// cascade in detachChildren) would otherwise compute the bucket for a nil
// parent and unhash nothing, leaving a zombie entry behind.
func (dc *Dcache) unhash(d *Dnode, parent *Dnode) {
	idx := mixBucket(parent, d.nameHash)
	dc.mu.Lock()
	defer dc.mu.Unlock()
	chain := dc.buckets[idx]
	for i, c := range chain {
		if c == d {
			dc.buckets[idx] = append(chain[:i], chain[i+1:]...)
			return
		}
	}
}

// Rehash rehashes d under newParent with a (possibly unchanged) name:
// removes the old hash entry and re-adds under the new parent (§4.A,
// used by the walker's symlink-target rehash and by rename).
func (dc *Dcache) Rehash(newParent *Dnode, d *Dnode, newName string) {
	dc.unhash(d, d.parent)
	if d.parent != nil {
		d.parent.removeChild(d)
	}
	d.name = newName
	d.nameHash = nameHash(newName)
	d.parent = newParent
	newParent.addChild(d)
	idx := mixBucket(newParent, d.nameHash)
	dc.mu.Lock()
	dc.buckets[idx] = append(dc.buckets[idx], d)
	dc.mu.Unlock()
}
