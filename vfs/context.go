package vfs

import (
	"sync"
)

// DefaultDnodeCapacity and DefaultInodeCapacity are the soft sizes of the
// two process-wide LRU zones (§4.C, §5: "the two LRU zones ... are
// process-wide").
const (
	DefaultDnodeCapacity = 4096
	DefaultInodeCapacity = 4096
)

// Context is the single VFS context created at init and passed explicitly
// (§9's "encapsulate as a single VFS context" choice over a process-wide
// singleton): the global root dnode, the dcache, the two LRU zones, and
// the global mount list.
type Context struct {
	Dcache *Dcache

	dnodeZone *lruZone
	inodeZone *lruZone

	clock Clock

	mu        sync.Mutex
	root      *Dnode
	rootMount *Mount
	mounts    []*Mount

	Metrics   *Metrics
	pcFactory PageCacheFactory
}

// ContextOptions configures NewContext; all fields are optional.
type ContextOptions struct {
	DnodeCapacity    int
	InodeCapacity    int
	Clock            Clock
	Metrics          *Metrics
	PageCacheFactory PageCacheFactory
}

// NewContext boots the VFS: mounts rootSB (whose root inode has already
// been minted by the driver) at "/" and creates the system root dnode
// with its reference count pre-incremented to 1 (§4.I).
func NewContext(rootSB *Superblock, rootInode *Inode, opts ContextOptions) *Context {
	if opts.DnodeCapacity <= 0 {
		opts.DnodeCapacity = DefaultDnodeCapacity
	}
	if opts.InodeCapacity <= 0 {
		opts.InodeCapacity = DefaultInodeCapacity
	}
	if opts.Clock == nil {
		opts.Clock = DefaultClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	c := &Context{
		Dcache:    NewDcache(),
		dnodeZone: newLruZone(opts.DnodeCapacity),
		inodeZone: newLruZone(opts.InodeCapacity),
		clock:     opts.Clock,
		Metrics:   opts.Metrics,
		pcFactory: opts.PageCacheFactory,
	}

	root := &Dnode{refCount: 1, name: "/"}
	root.sb = rootSB
	root.inode = rootInode
	rootSB.root = root
	rootMount := NewMount(rootSB)
	root.mount = rootMount

	rootInode.lruHandle = c.inodeZone.insert(rootInode)
	rootSB.addInodeHashed(rootInode)
	root.lruHandle = c.dnodeZone.insert(root)

	c.root = root
	c.rootMount = rootMount
	c.mounts = []*Mount{rootMount}
	return c
}

// Root returns the global system root dnode.
func (c *Context) Root() *Dnode { return c.root }

// Clock returns the context's injected wall clock.
func (c *Context) Clock() Clock { return c.clock }

// ensurePageCache lazily creates in's page cache the first time a file
// handle is opened for it (§3's inode invariant). Caller holds in's lock.
func (c *Context) ensurePageCache(in *Inode) error {
	if in.pageCache != nil || c.pcFactory == nil || in.typ != TypeRegular {
		return nil
	}
	pc, err := c.pcFactory(in)
	if err != nil {
		return err
	}
	in.pageCache = pc
	return nil
}

// Mount attaches sb at mountPoint (an existing, empty directory dnode),
// registering it on the global mount list. mountPoint gains a strong
// reference for as long as the mount is attached. If sb has no root dnode
// yet, Mount creates one and binds it as sb's root; that dnode has no
// parent and no inode bound, so a walk that crosses into the mount can
// name the mounted superblock but cannot resolve names below its root
// (ENOTDIR).
func (c *Context) Mount(mountPoint *Dnode, sb *Superblock) (*Mount, error) {
	mountPoint.Lock()
	defer mountPoint.Unlock()
	if mountPoint.inode == nil || mountPoint.inode.Type() != TypeDirectory {
		return nil, ENOTDIR
	}
	m := NewMount(sb)
	if m.root == nil {
		m.root = &Dnode{refCount: 1, name: mountPoint.name, sb: sb, mount: m}
		sb.root = m.root
	}
	mountPoint.mount = m
	mountPoint.IncRef()

	c.mu.Lock()
	c.mounts = append(c.mounts, m)
	c.mu.Unlock()
	return m, nil
}

// CheckInvariants walks the live dnode tree from the root through the
// children lists and checks three things: the tree has no cycle, every
// child's parent back-link points at the dnode that lists it, and no
// non-root dnode with ref_count == 0 still has children. It does not
// inspect the dcache hash buckets, so hash membership (the bucket half of
// invariant 2) and reachability of every hashed dnode (invariant 1) are
// not checked. It is an opt-in consistency check (never on the hot path),
// modeled on the teacher's fileSystem.checkInvariants: it panics on a
// violated check rather than returning an error, since these are internal
// bugs, not recoverable conditions (§7).
func (c *Context) CheckInvariants() {
	var walk func(d *Dnode)
	seen := make(map[*Dnode]bool)
	walk = func(d *Dnode) {
		if seen[d] {
			panic("vfs: CheckInvariants found a cycle in the dnode tree")
		}
		seen[d] = true
		for _, ch := range d.children {
			if ch.parent != d {
				panic("vfs: CheckInvariants: child's parent back-link does not match")
			}
			walk(ch)
		}
	}
	c.mu.Lock()
	root := c.root
	c.mu.Unlock()
	walk(root)

	for d := range seen {
		if d == root {
			continue
		}
		if d.RefCount() == 0 && len(d.children) != 0 {
			panic("vfs: CheckInvariants: ref_count == 0 but dnode has children")
		}
	}
}
