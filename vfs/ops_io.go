package vfs

import "time"

// Seek whence values (§4.G).
const (
	SeekSet = iota
	SeekCur
	SeekEnd
)

// Read implements read(fd, buf, n) (§4.G): rejects directories, updates
// atime, and routes sequential-device or FO_DIRECT files straight to the
// driver while regular files go through the page cache. On success the
// file position advances by the returned count.
func (c *Context) Read(t *Task, fd int, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("read", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return 0, err
	}
	in := f.Inode()
	if in.Type() == TypeDirectory {
		return 0, EISDIR
	}

	f.Lock()
	pos := f.pos
	f.Unlock()

	in.Lock()
	in.touchAtime(c.clock)
	if in.Type() != TypeRegular || f.flags&FO_DIRECT != 0 || in.pageCache == nil {
		n, err = in.ops.Read(in, buf, pos)
	} else {
		n, err = in.pageCache.Read(buf, len(buf), pos)
	}
	in.Unlock()
	if err != nil {
		return n, err
	}

	f.Lock()
	f.pos += int64(n)
	f.Unlock()
	return n, nil
}

// Write implements write(fd, buf, n) (§4.G): rejects directories, updates
// mtime, grows the inode's tracked size, and advances the file position.
func (c *Context) Write(t *Task, fd int, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("write", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return 0, err
	}
	in := f.Inode()
	if in.Type() == TypeDirectory {
		return 0, EISDIR
	}

	f.Lock()
	pos := f.pos
	f.Unlock()

	in.Lock()
	in.touchMtime(c.clock)
	if in.Type() != TypeRegular || f.flags&FO_DIRECT != 0 || in.pageCache == nil {
		n, err = in.ops.Write(in, buf, pos)
	} else {
		n, err = in.pageCache.Write(buf, len(buf), pos)
	}
	if err == nil {
		if end := pos + int64(n); end > in.Size() {
			in.setSize(end)
		}
	}
	in.Unlock()
	if err != nil {
		return n, err
	}

	f.Lock()
	f.pos += int64(n)
	f.Unlock()
	return n, nil
}

// Lseek implements lseek(fd, off, whence) (§4.G): the driver's Seek
// validates the target offset; only on success does the file position
// update.
func (c *Context) Lseek(t *Task, fd int, offset int64, whence int) (newPos int64, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("lseek", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return 0, err
	}
	in := f.Inode()

	f.Lock()
	cur := f.pos
	f.Unlock()

	var target int64
	switch whence {
	case SeekSet:
		target = offset
	case SeekCur:
		target = cur + offset
	case SeekEnd:
		target = in.Size() + offset
	default:
		return 0, EINVAL
	}

	in.Lock()
	validated, err := in.ops.Seek(in, target)
	in.Unlock()
	if err != nil {
		return 0, err
	}

	f.Lock()
	f.pos = validated
	f.Unlock()
	return validated, nil
}

// Fsync implements fsync(fd): flushes page-cache pages and asks the
// driver to sync.
func (c *Context) Fsync(t *Task, fd int) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("fsync", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return err
	}
	in := f.Inode()

	in.Lock()
	defer in.Unlock()
	if in.pageCache != nil {
		if err := in.pageCache.CommitAll(); err != nil {
			return err
		}
	}
	return in.ops.Sync(in)
}
