package vfs

import (
	"sync"
	"sync/atomic"
)

// NameMaxLen bounds a single path component, including the trailing NUL a
// C implementation would reserve; §4.E rejects names of exactly this length.
const NameMaxLen = 256

// Dnode is a directory-node: one cached name binding in the tree (§3).
// Every dnode except the system root has a non-null Parent (invariant a);
// it is hashed under (Parent, Name) iff Parent is non-null (invariant b).
type Dnode struct {
	mu sync.Mutex

	name     string
	nameHash uint32

	parent   *Dnode
	children []*Dnode

	sb    *Superblock
	mount *Mount
	inode *Inode

	// refCount is atomic: "ref_count ≥ 1 for any dnode reachable as
	// parent/cwd/opened file/mount target/root" (invariant c).
	refCount int32

	lruHandle *lruHandle
}

// Lock and Unlock make *Dnode a sync.Locker, so the lock-ordering helpers
// in lock.go can treat dnodes and inodes uniformly.
func (d *Dnode) Lock()   { d.mu.Lock() }
func (d *Dnode) Unlock() { d.mu.Unlock() }

// Name returns the dnode's bound name. Safe to call without holding the
// dnode's lock only for read-mostly diagnostics; callers that need a
// consistent (name, parent) pair together must hold the lock.
func (d *Dnode) Name() string { return d.name }

// Parent returns the current parent, or nil for the system root.
func (d *Dnode) Parent() *Dnode { return d.parent }

// Inode returns the inode currently bound to this dnode.
func (d *Dnode) Inode() *Inode { return d.inode }

// Superblock returns the owning superblock.
func (d *Dnode) Superblock() *Superblock { return d.sb }

// IncRef bumps the reference count (atomic per §5).
func (d *Dnode) IncRef() int32 { return atomic.AddInt32(&d.refCount, 1) }

// DecRef drops the reference count and returns the new value.
func (d *Dnode) DecRef() int32 { return atomic.AddInt32(&d.refCount, -1) }

// RefCount reads the current reference count.
func (d *Dnode) RefCount() int32 { return atomic.LoadInt32(&d.refCount) }

// isRoot reports whether d has no parent, i.e. is a system or mount root.
func (d *Dnode) isRoot() bool { return d.parent == nil }

// addChild appends c to d's ordered child list. Caller holds d's lock.
func (d *Dnode) addChild(c *Dnode) {
	d.children = append(d.children, c)
}

// removeChild unlinks c from d's child list. Caller holds d's lock.
func (d *Dnode) removeChild(c *Dnode) {
	for i, ch := range d.children {
		if ch == c {
			d.children = append(d.children[:i], d.children[i+1:]...)
			return
		}
	}
}

// detachChildren clears d's child list, unparenting each child so that it
// will cascade-evict on its next LRU pass (§4.D: "freeing a dnode ...
// unhashes every child").
func (d *Dnode) detachChildren(dc *Dcache) []*Dnode {
	kids := d.children
	d.children = nil
	for _, c := range kids {
		c.mu.Lock()
		parent := c.parent
		c.parent = nil
		c.mu.Unlock()
		dc.unhash(c, parent)
	}
	return kids
}
