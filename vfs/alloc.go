package vfs

import "github.com/lunaixsky/vfscore/internal/logger"

// validComponentChars rejects any byte a driver could not accept in a path
// component; §4.E leaves the character set to the driver but mandates at
// least a NUL rejection.
func validComponentChars(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return false
		}
	}
	return true
}

// allocDnode implements §4.D's allocation rule for dnodes: try the slab
// (here, the zone's soft capacity); on failure call evictHalf and retry
// once; a second failure is ENOMEM. A freshly allocated dnode inherits its
// parent's superblock and mount and registers with the dnode LRU at MRU.
func (c *Context) allocDnode(parent *Dnode, name string) (*Dnode, error) {
	if len(name) > NameMaxLen-1 {
		return nil, ENAMETOOLONG
	}
	if !validComponentChars(name) {
		return nil, EINVAL
	}

	if c.dnodeZone.atSoftCapacity() {
		c.dnodeZone.evictHalf(c.tryEvictDnode)
		if c.dnodeZone.atSoftCapacity() {
			return nil, ENOMEM
		}
	}

	d := &Dnode{name: name, nameHash: nameHash(name)}
	if parent != nil {
		d.sb = parent.sb
		d.mount = parent.mount
	}
	d.lruHandle = c.dnodeZone.insert(d)
	return d, nil
}

// tryEvictDnode is the dnode zone's "try evict" predicate (§4.C): eligible
// only when, besides the dcache's own hold, nothing else references the
// dnode. Because dcache.Add always leaves a freshly cached dnode at
// ref_count == 1 and every further pin (cwd, open file, mount root) is an
// additional IncRef on top of that, ref_count == 1 unambiguously means
// "only the cache holds it" for any dnode that has ever been added to the
// cache (see DESIGN.md). The system root is never evictable.
func (c *Context) tryEvictDnode(v any) bool {
	d := v.(*Dnode)
	if d == c.root {
		return false
	}
	if d.RefCount() > 1 {
		return false
	}
	c.freeDnode(d)
	return true
}

// freeDnode implements §4.D's freeing rule: decrements the bound inode's
// link count, removes itself from the dcache, and unhashes/unparents every
// child so that an evicted subtree root eventually unroots the whole
// subtree (invariant 4, §8). Safe to call on a dnode that a parent's
// eviction has already detached and unhashed. Locks d itself; callers
// that already hold d's lock (Rename replacing an existing target under
// lockAll) must call freeDnodeLocked instead to avoid self-deadlock on
// d's non-reentrant mutex.
func (c *Context) freeDnode(d *Dnode) {
	d.Lock()
	c.freeDnodeLocked(d)
	d.Unlock()
}

// freeDnodeLocked is freeDnode's body for a caller that already holds d's
// lock.
func (c *Context) freeDnodeLocked(d *Dnode) {
	inode := d.inode
	d.inode = nil
	parent := d.parent
	kids := d.detachChildren(c.Dcache)
	_ = kids

	if inode != nil {
		inode.Lock()
		inode.decLinkCount()
		inode.Unlock()
	}

	c.Dcache.unhash(d, parent)
	if d.parent != nil {
		d.parent.removeChild(d)
		d.parent = nil
	}
	if d.RefCount() > 0 {
		d.DecRef()
	}
	c.dnodeZone.forget(d.lruHandle)
}

// getOrCreateInode implements §4.B/§4.D together: find(sb, id) first; on a
// miss, allocate (with the same evict-and-retry-once rule as dnodes),
// call the superblock's init_inode, stamp the three timestamps from the
// wall clock, and register with the inode LRU.
func (c *Context) getOrCreateInode(sb *Superblock, id InodeID, typ InodeType, ops InodeOps, fileOps FileOps) (*Inode, error) {
	if in := sb.findInode(id, c.inodeZone); in != nil {
		return in, nil
	}

	if c.inodeZone.atSoftCapacity() {
		c.inodeZone.evictHalf(c.tryEvictInode)
		if c.inodeZone.atSoftCapacity() {
			return nil, ENOMEM
		}
	}

	now := c.clock.Now()
	in := &Inode{id: id, typ: typ, sb: sb, ops: ops, fileOps: fileOps, ctime: now, atime: now, mtime: now}

	if sb.ops != nil {
		if err := sb.ops.InitInode(sb, in); err != nil {
			return nil, err
		}
	}

	in.lruHandle = c.inodeZone.insert(in)
	sb.addInodeHashed(in)
	return in, nil
}

// tryEvictInode is the inode zone's predicate (§4.C): evictable iff
// link_count == 0 && open_count == 0. On eviction it runs the driver's
// sync and then releases storage; a sync failure is logged and swallowed,
// never blocking destruction (§4.G "Failure semantics", §9).
func (c *Context) tryEvictInode(v any) bool {
	in := v.(*Inode)
	in.Lock()
	defer in.Unlock()
	if !in.evictable() {
		return false
	}
	if in.ops != nil {
		if err := in.ops.Sync(in); err != nil {
			logger.Warnf("vfs: driver sync failed evicting inode %d: %v", in.id, err)
		}
	}
	if in.pageCache != nil {
		if err := in.pageCache.Release(); err != nil {
			logger.Warnf("vfs: page cache release failed for inode %d: %v", in.id, err)
		}
		in.pageCache = nil
	}
	in.sb.removeInode(in)
	if in.sb.ops != nil {
		if err := in.sb.ops.ReleaseInode(in); err != nil {
			logger.Warnf("vfs: driver release_inode failed for inode %d: %v", in.id, err)
		}
	}
	return true
}

// assignInode implements vfs_assign_inode(dnode, inode) (§4.D): rebinds
// d's inode, decrementing the old inode's link count and incrementing the
// new one's. Caller holds d's lock.
func assignInode(d *Dnode, in *Inode) {
	old := d.inode
	if old == in {
		return
	}
	if old != nil {
		old.Lock()
		old.decLinkCount()
		old.Unlock()
	}
	in.Lock()
	in.incLinkCount()
	in.Unlock()
	d.inode = in
}
