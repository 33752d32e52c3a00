package vfs

import "time"

// tryLocateFile implements __try_locate_file (§4.G): walk to the parent,
// check the dcache, and on a true miss ask the driver's dir_lookup; when
// create is true and the driver reports ENOENT, call Create instead.
func (c *Context) tryLocateFile(t *Task, path string, create bool) (*Dnode, error) {
	parent, last, err := c.Walk(t, t.Cwd(), path, WalkParent)
	if err != nil {
		return nil, err
	}

	parent.Lock()
	if hit, ok := c.Dcache.Lookup(parent, last); ok {
		parent.Unlock()
		return hit, nil
	}
	parentInode := parent.Inode()
	parent.Unlock()
	if parentInode == nil {
		return nil, ENOTDIR
	}

	parentInode.Lock()
	if parentInode.Type() != TypeDirectory {
		parentInode.Unlock()
		return nil, ENOTDIR
	}
	id, typ, lookErr := parentInode.ops.DirLookup(parentInode, last)
	if lookErr == ENOENT && create {
		if parent.Superblock().ReadOnly() {
			parentInode.Unlock()
			return nil, EROFS
		}
		// Create always mints a regular file (§4.G's open/FO_CREATE); it
		// has no "what kind of node" parameter the way Mkdir/Symlink do,
		// so unlike DirLookup it reports only the id.
		id, lookErr = parentInode.ops.Create(parentInode, last)
		typ = TypeRegular
	}
	ops := parentInode.ops
	fileOps := parentInode.fileOps
	parentInode.Unlock()
	if lookErr != nil {
		return nil, lookErr
	}

	newD, err := c.allocDnode(parent, last)
	if err != nil {
		return nil, err
	}
	childInode, err := c.getOrCreateInode(parent.Superblock(), id, typ, ops, fileOps)
	if err != nil {
		return nil, err
	}
	childInode.Lock()
	childInode.incLinkCount()
	childInode.Unlock()
	newD.inode = childInode

	c.Dcache.Add(parent, newD)
	return newD, nil
}

// Open implements open(path, options) (§4.G). FO_CREATE invokes
// tryLocateFile with create semantics; FO_APPEND sets the initial position
// to the current file size; FO_DIRECT is recorded on the file object so
// Read/Write bypass the page cache. On success it allocates a file
// object, bumps the dnode ref count and the inode's open count, marks the
// mount busy, and installs into a free fd slot.
func (c *Context) Open(t *Task, path string, flags int) (fd int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("open", start, err) }()

	var d *Dnode
	if flags&FO_CREATE != 0 {
		d, err = c.tryLocateFile(t, path, true)
	} else {
		d, _, err = c.Walk(t, t.Cwd(), path, 0)
	}
	if err != nil {
		return -1, err
	}

	in := d.Inode()
	if in == nil {
		return -1, ENOENT
	}

	var pos int64
	in.Lock()
	if flags&FO_APPEND != 0 {
		pos = in.Size()
	}
	if in.Type() == TypeRegular {
		if perr := c.ensurePageCache(in); perr != nil {
			in.Unlock()
			return -1, perr
		}
	}
	in.incOpenCount()
	in.Unlock()

	d.IncRef()
	mountOf(d).mkbusy()

	f := &File{dnode: d, inode: in, pos: pos, flags: flags, refCount: 1, ops: in.fileOps}

	fd, ferr := t.Fds.alloc(f)
	if ferr != nil {
		d.DecRef()
		in.Lock()
		in.decOpenCount()
		in.Unlock()
		mountOf(d).chillax()
		return -1, ferr
	}
	return fd, nil
}

// Close implements close(fd): decrements the file's ref-count; if it
// drops to zero, commits dirty page-cache pages, releases the file, drops
// the dnode ref and inode open count, and unmarks the mount.
func (c *Context) Close(t *Task, fd int) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("close", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return err
	}
	t.Fds.clear(fd)
	return c.releaseFile(f)
}

func (c *Context) releaseFile(f *File) error {
	if f.DecRef() > 0 {
		return nil
	}

	in := f.Inode()
	in.Lock()
	if in.pageCache != nil {
		_ = in.pageCache.CommitAll()
	}
	in.decOpenCount()
	in.Unlock()

	d := f.Dnode()
	d.DecRef()
	mountOf(d).chillax()

	if f.ops != nil {
		return f.ops.Close(f)
	}
	return nil
}
