package vfs

import "time"

// Dup implements dup(fd) (§4.G): allocates a new fd slot sharing the same
// file object, with an extra reference.
func (c *Context) Dup(t *Task, fd int) (newfd int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("dup", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return -1, err
	}
	f.IncRef()
	newfd, aerr := t.Fds.alloc(f)
	if aerr != nil {
		f.DecRef()
		return -1, aerr
	}
	return newfd, nil
}

// Dup2 implements dup2(oldfd, newfd) (§4.G): dup2(x, x) is a no-op
// returning x; otherwise newfd is closed first if already open, then
// installed to share oldfd's file object.
func (c *Context) Dup2(t *Task, oldfd, newfd int) (result int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("dup2", start, err) }()

	if oldfd == newfd {
		if _, gerr := t.Fds.getfd(oldfd); gerr != nil {
			return -1, gerr
		}
		return newfd, nil
	}

	f, err := t.Fds.getfd(oldfd)
	if err != nil {
		return -1, err
	}
	f.IncRef()
	old, ierr := t.Fds.install(newfd, f)
	if ierr != nil {
		f.DecRef()
		return -1, ierr
	}
	if old != nil {
		_ = c.releaseFile(old)
	}
	return newfd, nil
}

// Chdir implements chdir(path) (§4.G): resolves path (following a final
// symlink) and fails ENOTDIR unless it names a directory.
func (c *Context) Chdir(t *Task, path string) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("chdir", start, err) }()

	d, _, werr := c.Walk(t, t.Cwd(), path, 0)
	if werr != nil {
		return werr
	}
	in := d.Inode()
	if in == nil || in.Type() != TypeDirectory {
		return ENOTDIR
	}
	t.setCwd(d)
	return nil
}

// Fchdir implements fchdir(fd): same as Chdir but from an already-open
// file descriptor.
func (c *Context) Fchdir(t *Task, fd int) (err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("fchdir", start, err) }()

	f, err := t.Fds.getfd(fd)
	if err != nil {
		return err
	}
	in := f.Inode()
	if in == nil || in.Type() != TypeDirectory {
		return ENOTDIR
	}
	t.setCwd(f.Dnode())
	return nil
}

// dirFdStart resolves the dnode an "*at" syscall (unlinkat, readlinkat,
// realpathat) should walk relative to: the directory bound to dirfd.
// ENOTDIR if the fd does not name a directory.
func (c *Context) dirFdStart(t *Task, dirfd int) (*Dnode, error) {
	f, err := t.Fds.getfd(dirfd)
	if err != nil {
		return nil, err
	}
	in := f.Inode()
	if in == nil || in.Type() != TypeDirectory {
		return nil, ENOTDIR
	}
	return f.Dnode(), nil
}

// absolutePath reconstructs the absolute path of d by walking parent
// links, the shared core of Getcwd and Realpathat. ELOOP if more than
// getcwdMaxDepth ancestors are walked without reaching the root.
func absolutePath(d *Dnode) (string, error) {
	var names []string
	cur := d
	for depth := 0; cur != nil && cur.Parent() != nil; depth++ {
		if depth >= getcwdMaxDepth {
			return "", ELOOP
		}
		names = append(names, cur.Name())
		cur = cur.Parent()
	}
	if len(names) == 0 {
		return "/", nil
	}
	var out []byte
	for i := len(names) - 1; i >= 0; i-- {
		out = append(out, '/')
		out = append(out, names[i]...)
	}
	return string(out), nil
}

// getcwdMaxDepth bounds the number of parent hops Getcwd will walk before
// concluding the tree is cyclic (ELOOP); a genuine directory chain deeper
// than this also gets ELOOP.
const getcwdMaxDepth = 64

// Getcwd implements getcwd(buf) (§4.G): reconstructs the absolute path of
// the task's cwd by walking parent links, writing it into buf. ERANGE if
// buf is too small, ELOOP if more than getcwdMaxDepth ancestors are
// walked without reaching the root.
func (c *Context) Getcwd(t *Task, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("getcwd", start, err) }()

	path, perr := absolutePath(t.Cwd())
	if perr != nil {
		return 0, perr
	}
	if len(path) > len(buf) {
		return 0, ERANGE
	}
	copy(buf, path)
	return len(path), nil
}

// Realpathat implements realpathat(fd, buf, n) (§6): writes the absolute
// path of the directory bound to fd into buf. ERANGE if buf is too small,
// ELOOP on a cyclic ancestor chain.
func (c *Context) Realpathat(t *Task, fd int, buf []byte) (n int, err error) {
	start := time.Now()
	defer func() { c.Metrics.observe("realpathat", start, err) }()

	d, derr := c.dirFdStart(t, fd)
	if derr != nil {
		return 0, derr
	}
	path, perr := absolutePath(d)
	if perr != nil {
		return 0, perr
	}
	if len(path) > len(buf) {
		return 0, ERANGE
	}
	copy(buf, path)
	return len(path), nil
}
