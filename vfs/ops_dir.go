package vfs

import "time"

// Mkdir implements mkdir(path) (§4.G): walks to the parent, invokes the
// driver's optional Mkdirer, allocates the new dnode, and on success adds
// it to the dcache.
func (c *Context) Mkdir(t *Task, path string) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("mkdir", start, err) }()

	parent, last, werr := c.Walk(t, t.Cwd(), path, WalkParent)
	if werr != nil {
		return werr
	}
	// The nil-parent check runs before allocation, preserving the
	// reference's documented (if arguably backwards) ordering (§9): the
	// walker's parent is read here, ahead of the dnode allocation below.
	if parent == nil {
		return EINVAL
	}
	if parent.Superblock().ReadOnly() {
		return EROFS
	}

	parentInode := parent.Inode()
	if parentInode == nil {
		return ENOTDIR
	}

	parentInode.Lock()
	if parentInode.Type() != TypeDirectory {
		parentInode.Unlock()
		return ENOTDIR
	}
	mk, ok := parentInode.ops.(Mkdirer)
	if !ok {
		parentInode.Unlock()
		return ENOTSUP
	}
	id, typ, mkErr := mk.Mkdir(parentInode, last)
	ops := parentInode.ops
	fileOps := parentInode.fileOps
	parentInode.Unlock()
	if mkErr != nil {
		return mkErr
	}

	newD, aerr := c.allocDnode(parent, last)
	if aerr != nil {
		return aerr
	}
	childInode, ierr := c.getOrCreateInode(parent.Superblock(), id, typ, ops, fileOps)
	if ierr != nil {
		return ierr
	}
	childInode.Lock()
	childInode.incLinkCount()
	childInode.Unlock()
	newD.inode = childInode

	c.Dcache.Add(parent, newD)
	return nil
}

// Rmdir implements rmdir(path) (§4.G). ENOTEMPTY is checked before EBUSY
// when both conditions hold on a referenced, non-empty directory, per
// scenario 2's instruction to cite ENOTEMPTY (DESIGN.md).
func (c *Context) Rmdir(t *Task, path string) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("rmdir", start, err) }()

	d, _, werr := c.Walk(t, t.Cwd(), path, WalkNofollow)
	if werr != nil {
		return werr
	}
	if d.Superblock().ReadOnly() {
		return EROFS
	}
	in := d.Inode()
	if in == nil || in.Type() != TypeDirectory {
		return ENOTDIR
	}

	d.Lock()
	hasChildren := len(d.children) > 0
	ref := d.RefCount()
	d.Unlock()

	in.Lock()
	openCount := in.openCount
	in.Unlock()

	if hasChildren {
		return ENOTEMPTY
	}
	if ref > 1 || openCount > 0 {
		return EBUSY
	}

	parent := d.Parent()
	if parent == nil {
		return EINVAL
	}
	parentInode := parent.Inode()
	parentInode.Lock()
	rd, ok := parentInode.ops.(Rmdirer)
	var rerr error
	if !ok {
		rerr = ENOTSUP
	} else {
		rerr = rd.Rmdir(parentInode, d.Name())
	}
	parentInode.Unlock()
	if rerr != nil {
		return rerr
	}

	c.freeDnode(d)
	return nil
}

// Readdir implements readdir(fd, dirent) (§4.G): synthetic "." at offset
// 0 and ".." at offset 1, then driver-supplied entries at offsets >= 2.
// Each successful call advances the file's stored offset.
func (c *Context) Readdir(t *Task, fd int, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("readdir", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return 0, err
	}
	in := f.Inode()
	if in.Type() != TypeDirectory {
		return 0, ENOTDIR
	}

	f.Lock()
	offset := f.dirOffset
	f.Unlock()

	written := 0
	if offset == 0 {
		rec := WriteDirEnt(buf[written:], DirEnt{Name: ".", Ino: in.ID(), Off: 0, Type: TypeDirectory})
		if rec == 0 {
			return 0, ERANGE
		}
		written += rec
		offset = 1
	}
	if offset == 1 {
		parentIno := in.ID()
		if parent := f.Dnode().Parent(); parent != nil && parent.Inode() != nil {
			parentIno = parent.Inode().ID()
		}
		rec := WriteDirEnt(buf[written:], DirEnt{Name: "..", Ino: parentIno, Off: 1, Type: TypeDirectory})
		if rec == 0 {
			f.Lock()
			f.dirOffset = offset
			f.Unlock()
			if written == 0 {
				return 0, ERANGE
			}
			return written, nil
		}
		written += rec
		offset = 2
	}

	if rd, ok := in.ops.(Readdirer); ok {
		in.Lock()
		_, rerr := rd.Readdir(in, offset, func(name string, id InodeID, typ InodeType) bool {
			rec := WriteDirEnt(buf[written:], DirEnt{Name: name, Ino: id, Off: int64(offset + 1), Type: typ})
			if rec == 0 {
				return false
			}
			written += rec
			offset++
			return true
		})
		in.Unlock()
		if rerr != nil && written == 0 {
			return 0, rerr
		}
	}

	f.Lock()
	f.dirOffset = offset
	f.Unlock()
	return written, nil
}
