package vfs

// Walk options (§4.E), a bitset any combination of which may be set.
type WalkOptions int

const (
	// WalkParent stops at the last component, returning its parent and
	// the component name itself rather than resolving it.
	WalkParent WalkOptions = 1 << iota
	// WalkMkparent creates missing directories along the way.
	WalkMkparent
	// WalkNofollow suppresses dereferencing a symlink as the *final*
	// component only; intermediate components are always followed.
	WalkNofollow
	// WalkFsRelative: when the path is absolute, start from the
	// current start dnode's own superblock root rather than the
	// system root.
	WalkFsRelative
)

// VfsSymlinkDepth bounds total symlink recursion (§4.E, §8 boundary
// behavior: 17 nested symlinks -> ENAMETOOLONG).
const VfsSymlinkDepth = 16

// Walk resolves path starting from start (interpreted as "."; nil means
// the system root) and returns the resulting dnode. If WalkParent is set,
// it instead returns the parent of the last component along with that
// component's name, unresolved, in last.
func (c *Context) Walk(t *Task, start *Dnode, path string, opts WalkOptions) (result *Dnode, last string, err error) {
	return c.walk(t, start, path, opts, 0)
}

func (c *Context) walk(t *Task, start *Dnode, path string, opts WalkOptions, depth int) (*Dnode, string, error) {
	if depth > VfsSymlinkDepth {
		return nil, "", ENAMETOOLONG
	}

	cur := start
	if cur == nil {
		cur = c.root
	}

	if len(path) > 0 && path[0] == '/' {
		if opts&WalkFsRelative != 0 && start != nil {
			cur = start.Superblock().Root()
		} else {
			cur = c.root
		}
	}
	cur = crossMount(cur)

	comps, err := splitComponents(path)
	if err != nil {
		return nil, "", err
	}
	if len(comps) == 0 {
		return cur, "", nil
	}

	for i, comp := range comps {
		isLast := i == len(comps)-1

		// Step 2: if current_level's inode is itself a symlink, follow
		// it before consulting it for the next component. This applies
		// to every intermediate base unconditionally; WalkNofollow only
		// governs the *final* dereference below.
		cur, err = c.derefIfSymlink(t, cur, depth)
		if err != nil {
			return nil, "", err
		}

		if opts&WalkParent != 0 && isLast {
			return cur, comp, nil
		}

		next, err := c.resolveComponent(cur, comp, opts)
		if err != nil {
			return nil, "", err
		}
		cur = crossMount(next)
	}

	if opts&WalkNofollow == 0 {
		cur, err = c.derefIfSymlink(t, cur, depth)
		if err != nil {
			return nil, "", err
		}
	}

	return cur, "", nil
}

// crossMount makes a mount point transparent to the walker: if d has a
// file system mounted on it, the walk continues from that mount's root
// instead of d itself (§4.E's "mount-point crossing"). A dnode whose mount
// belongs to its own superblock (every dnode inherits its parent's mount)
// is not a mount point and is returned unchanged.
func crossMount(d *Dnode) *Dnode {
	d.Lock()
	m := d.mount
	sb := d.sb
	d.Unlock()
	if m == nil || m.Superblock() == sb {
		return d
	}
	return m.Root()
}

// derefIfSymlink follows d, and any chain of symlinks it points to, until
// landing on a non-symlink dnode. Each hop recurses into the symlink's
// parent using the resolved target string (§4.E step 2), and the final
// resolved dnode is rehashed under that parent -- the behavior §9 flags as
// a known ambiguity (preserved verbatim, not "fixed").
func (c *Context) derefIfSymlink(t *Task, d *Dnode, depth int) (*Dnode, error) {
	inode := d.Inode()
	if inode == nil {
		return d, nil
	}
	inode.Lock()
	isSym := inode.Type() == TypeSymlink
	symOps, _ := inode.ops.(SymlinkOps)
	inode.Unlock()
	if !isSym {
		return d, nil
	}
	if symOps == nil {
		return nil, ENOTSUP
	}
	if depth+1 > VfsSymlinkDepth {
		return nil, ENAMETOOLONG
	}

	inode.Lock()
	target, err := symOps.ReadSymlink(inode)
	inode.Unlock()
	if err != nil {
		return nil, err
	}

	parent := d.Parent()
	resolved, _, err := c.walk(t, parent, target, 0, depth+1)
	if err != nil {
		return nil, err
	}

	if parent != nil && resolved.Parent() != nil {
		c.Dcache.Rehash(parent, resolved, resolved.Name())
	}
	return c.derefIfSymlink(t, resolved, depth+1)
}

// resolveComponent implements steps 3-5: a dcache hit advances directly;
// a miss allocates a new dnode, asks the driver, optionally mkdir's a
// missing directory under WalkMkparent, and inserts the result into the
// dcache.
func (c *Context) resolveComponent(cur *Dnode, comp string, opts WalkOptions) (*Dnode, error) {
	if hit, ok := c.Dcache.Lookup(cur, comp); ok {
		return hit, nil
	}

	curInode := cur.Inode()
	if curInode == nil {
		return nil, ENOTDIR
	}
	curInode.Lock()
	if curInode.Type() != TypeDirectory {
		curInode.Unlock()
		return nil, ENOTDIR
	}
	id, typ, lookErr := curInode.ops.DirLookup(curInode, comp)
	if lookErr == ENOENT && opts&WalkMkparent != 0 {
		if mk, ok := curInode.ops.(Mkdirer); ok {
			id, typ, lookErr = mk.Mkdir(curInode, comp)
		} else {
			lookErr = ENOTSUP
		}
	}
	ops := curInode.ops
	fileOps := curInode.fileOps
	curInode.Unlock()
	if lookErr != nil {
		return nil, lookErr
	}

	newD, err := c.allocDnode(cur, comp)
	if err != nil {
		return nil, err
	}

	childInode, err := c.getOrCreateInode(cur.Superblock(), id, typ, ops, fileOps)
	if err != nil {
		return nil, err
	}
	childInode.Lock()
	childInode.incLinkCount()
	childInode.Unlock()
	newD.inode = childInode

	c.Dcache.Add(cur, newD)
	return newD, nil
}

// splitComponents scans path character by character, collapsing repeated
// slashes and tolerating a trailing slash, assembling each component up
// to NameMaxLen-1 bytes (§4.E). A byte not in the minimal valid set (NUL)
// is EINVAL; an over-long component is ENAMETOOLONG.
func splitComponents(path string) ([]string, error) {
	var comps []string
	i := 0
	for i < len(path) {
		for i < len(path) && path[i] == '/' {
			i++
		}
		if i >= len(path) {
			break
		}
		start := i
		for i < len(path) && path[i] != '/' {
			if path[i] == 0 {
				return nil, EINVAL
			}
			i++
		}
		comp := path[start:i]
		if len(comp) > NameMaxLen-1 {
			return nil, ENAMETOOLONG
		}
		comps = append(comps, comp)
	}
	return comps, nil
}
