package vfs

// Locking discipline (§4.F).
//
//   - Per-inode mutex: held across any driver call that mutates the inode
//     or its data (open, create, mkdir, unlink, rename, link, read,
//     write, sync, read_symlink, set_symlink). The operations and the
//     walker take it with a plain Inode.Lock, which does not touch the
//     LRU; only lockInode below promotes the inode, and no caller uses it.
//     Inodes are promoted on allocation and on an inode-cache hit.
//   - Per-dnode mutex: held while children lists or names are mutated,
//     and across the driver lookup that will populate a child.
//   - Order: parent dnode before child dnode; dnode before its inode.
//     rename needs two dnodes (current, target) and their two parents;
//     acquire in the fixed order current -> target -> old-parent ->
//     new-parent, skipping null parents.

// lockDnode acquires d's mutex and promotes it in the dnode LRU, the
// "touch on lock" interaction §4.F calls for.
func (c *Context) lockDnode(d *Dnode) {
	d.Lock()
	c.dnodeZone.use(d.lruHandle)
}

func (c *Context) unlockDnode(d *Dnode) {
	d.Unlock()
}

// lockInode acquires in's mutex and promotes it in the inode LRU.
func (c *Context) lockInode(in *Inode) {
	in.Lock()
	c.inodeZone.use(in.lruHandle)
}

func (c *Context) unlockInode(in *Inode) {
	in.Unlock()
}

// renameLockOrder returns the four participants of a rename in the fixed
// acquisition order current -> target -> old-parent -> new-parent,
// skipping nulls and de-duplicating repeats (e.g. rename within the same
// directory shares old-parent == new-parent).
func renameLockOrder(cur, target, oldParent, newParent *Dnode) []*Dnode {
	order := []*Dnode{cur, target, oldParent, newParent}
	out := make([]*Dnode, 0, 4)
	seen := make(map[*Dnode]bool, 4)
	for _, d := range order {
		if d == nil || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// lockAll locks every dnode in order and returns an unlock func that
// releases them in reverse order.
func (c *Context) lockAll(ds []*Dnode) func() {
	for _, d := range ds {
		c.lockDnode(d)
	}
	return func() {
		for i := len(ds) - 1; i >= 0; i-- {
			c.unlockDnode(ds[i])
		}
	}
}
