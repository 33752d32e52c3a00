package vfs

import "time"

// Rename implements rename(oldPath, newPath) (§4.G): a no-op if both paths
// already name the same inode; EBUSY if either the source or an existing
// target is referenced elsewhere (ref_count > 1); EXDEV across
// superblocks; ENOTEMPTY if the target is a non-empty directory. On
// success the driver's Rename runs first, then the source dnode is
// rehashed under the new parent/name and any replaced target is freed.
// Locks acquire in the fixed order current -> target -> old-parent ->
// new-parent (§4.F), via renameLockOrder/lockAll.
func (c *Context) Rename(t *Task, oldPath, newPath string) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("rename", start, err) }()

	oldParent, oldName, werr := c.Walk(t, t.Cwd(), oldPath, WalkParent)
	if werr != nil {
		return werr
	}
	newParent, newName, werr2 := c.Walk(t, t.Cwd(), newPath, WalkParent)
	if werr2 != nil {
		return werr2
	}
	if oldParent.Superblock() != newParent.Superblock() {
		return EXDEV
	}
	if oldParent.Superblock().ReadOnly() {
		return EROFS
	}

	cur, cerr := c.lookupOrResolve(oldParent, oldName)
	if cerr != nil {
		return cerr
	}

	target, hasTarget, terr := c.lookupOrResolveOptional(newParent, newName)
	if terr != nil {
		return terr
	}

	if hasTarget && target.Inode() != nil && cur.Inode() != nil &&
		target.Inode().ID() == cur.Inode().ID() {
		return nil
	}

	order := renameLockOrder(cur, target, oldParent, newParent)
	unlock := c.lockAll(order)
	defer unlock()

	if cur.RefCount() > 1 {
		return EBUSY
	}
	if hasTarget {
		if target.RefCount() > 1 {
			return EBUSY
		}
		if target.Inode() != nil && target.Inode().Type() == TypeDirectory && len(target.children) > 0 {
			return ENOTEMPTY
		}
	}

	oldParentInode := oldParent.Inode()
	newParentInode := newParent.Inode()
	if oldParentInode == nil || newParentInode == nil {
		return ENOTDIR
	}

	var involved []*Inode
	seen := map[*Inode]bool{}
	for _, in := range []*Inode{oldParentInode, newParentInode} {
		if in != nil && !seen[in] {
			seen[in] = true
			involved = append(involved, in)
		}
	}
	for _, in := range involved {
		in.Lock()
	}
	defer func() {
		for i := len(involved) - 1; i >= 0; i-- {
			involved[i].Unlock()
		}
	}()

	if rerr := oldParentInode.ops.Rename(oldParentInode, oldName, newParentInode, newName); rerr != nil {
		return rerr
	}

	c.Dcache.Rehash(newParent, cur, newName)
	if hasTarget {
		// target is already locked by lockAll above (released by the
		// deferred unlock()); freeDnode would re-lock it and deadlock on
		// its non-reentrant mutex, so use the already-locked variant.
		c.freeDnodeLocked(target)
	}
	return nil
}

// lookupOrResolve resolves a required name under parent, checking the
// dcache before falling back to the driver's dir_lookup.
func (c *Context) lookupOrResolve(parent *Dnode, name string) (*Dnode, error) {
	parent.Lock()
	if hit, ok := c.Dcache.Lookup(parent, name); ok {
		parent.Unlock()
		return hit, nil
	}
	parent.Unlock()
	return c.resolveComponent(parent, name, 0)
}

// lookupOrResolveOptional is lookupOrResolve but ENOENT is not an error:
// it reports hasTarget == false instead.
func (c *Context) lookupOrResolveOptional(parent *Dnode, name string) (d *Dnode, hasTarget bool, err error) {
	d, err = c.lookupOrResolve(parent, name)
	if err == nil {
		return d, true, nil
	}
	if err == ENOENT {
		return nil, false, nil
	}
	return nil, false, err
}
