// Package memfs is an in-memory vfs.SuperblockOps/InodeOps/FileOps driver,
// standing in for a real on-disk or network file system (vfs's concrete
// drivers are an external collaborator, never implemented by vfs itself).
// It exists for tests and cmd/vfsdemo, the same role jacobsa/fuse's own
// samples/memfs plays for that project's FUSE server.
package memfs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lunaixsky/vfscore/vfs"
)

// dirEntry is one name binding inside a directory node.
type dirEntry struct {
	name string
	id   vfs.InodeID
	typ  vfs.InodeType
}

// node is the backing storage for one inode: directory entries, file
// contents, or a symlink target, depending on typ. generation is a fresh
// random UUID minted with each node, mirroring fuseops.GenerationNumber;
// memfs never reuses an id and does not read generation itself.
type node struct {
	id         vfs.InodeID
	typ        vfs.InodeType
	children   []dirEntry
	data       []byte
	target     string
	generation uuid.UUID
}

// Driver is a single in-memory file-system instance: one method table
// shared by every inode it owns, keyed by id, the Go rendition of a driver
// vtable serving many objects (§9's "ops struct of function pointers").
type Driver struct {
	mu     sync.Mutex
	nodes  map[vfs.InodeID]*node
	nextID uint64
	clock  vfs.Clock
}

// New constructs an empty in-memory file system and mints its root inode,
// returning the pieces a caller needs to boot a vfs.Context: the driver
// itself (for Mount), the superblock, and the root inode.
func New(clock vfs.Clock) (*Driver, *vfs.Superblock, *vfs.Inode) {
	return newDriver(clock, false)
}

// NewReadOnly is New, but the returned superblock reports ReadOnly() ==
// true, for exercising the EROFS paths of the syscall surface against a
// driver that would otherwise happily mutate.
func NewReadOnly(clock vfs.Clock) (*Driver, *vfs.Superblock, *vfs.Inode) {
	return newDriver(clock, true)
}

func newDriver(clock vfs.Clock, readOnly bool) (*Driver, *vfs.Superblock, *vfs.Inode) {
	if clock == nil {
		clock = vfs.DefaultClock()
	}
	d := &Driver{nodes: make(map[vfs.InodeID]*node), clock: clock}

	rootID := d.allocID()
	d.nodes[rootID] = &node{id: rootID, typ: vfs.TypeDirectory, generation: uuid.New()}

	sb := vfs.NewSuperblock("memfs", d, readOnly)
	root := vfs.NewInode(sb, rootID, vfs.TypeDirectory, d, d, clock.Now())
	return d, sb, root
}

func (d *Driver) allocID() vfs.InodeID {
	d.nextID++
	return vfs.InodeID(d.nextID)
}

func (d *Driver) lookupLocked(id vfs.InodeID) (*node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, vfs.EIO
	}
	return n, nil
}

// SuperblockOps.

func (d *Driver) InitInode(sb *vfs.Superblock, in *vfs.Inode) error { return nil }

// ReleaseInode is called by the inode LRU's evict predicate once the
// vfs.Inode has link_count == 0 and open_count == 0. link_count counts
// cached dnodes bound to the inode, so it also reaches zero when the dnode
// cache merely evicts a still-linked name; the backing node is therefore
// freed only when no directory entry refers to it any more.
func (d *Driver) ReleaseInode(in *vfs.Inode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.nodes {
		for _, e := range n.children {
			if e.id == in.ID() {
				return nil
			}
		}
	}
	delete(d.nodes, in.ID())
	return nil
}

func (d *Driver) WriteInode(in *vfs.Inode) error { return nil }

// InodeOps.

func (d *Driver) DirLookup(in *vfs.Inode, name string) (vfs.InodeID, vfs.InodeType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return 0, 0, err
	}
	for _, e := range n.children {
		if e.name == name {
			return e.id, e.typ, nil
		}
	}
	return 0, 0, vfs.ENOENT
}

func (d *Driver) Create(in *vfs.Inode, name string) (vfs.InodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return 0, err
	}
	for _, e := range n.children {
		if e.name == name {
			return 0, vfs.EEXIST
		}
	}
	id := d.allocID()
	d.nodes[id] = &node{id: id, typ: vfs.TypeRegular, generation: uuid.New()}
	n.children = append(n.children, dirEntry{name: name, id: id, typ: vfs.TypeRegular})
	return id, nil
}

func (d *Driver) Unlink(in *vfs.Inode, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return err
	}
	for i, e := range n.children {
		if e.name == name {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return nil
		}
	}
	return vfs.ENOENT
}

func (d *Driver) Rename(oldParent *vfs.Inode, oldName string, newParent *vfs.Inode, newName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, err := d.lookupLocked(oldParent.ID())
	if err != nil {
		return err
	}
	np, err := d.lookupLocked(newParent.ID())
	if err != nil {
		return err
	}

	idx := -1
	for i, e := range op.children {
		if e.name == oldName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return vfs.ENOENT
	}
	moved := op.children[idx]
	op.children = append(op.children[:idx], op.children[idx+1:]...)

	for i, e := range np.children {
		if e.name == newName {
			np.children = append(np.children[:i], np.children[i+1:]...)
			break
		}
	}
	moved.name = newName
	np.children = append(np.children, moved)
	return nil
}

func (d *Driver) Link(in *vfs.Inode, name string, target vfs.InodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return err
	}
	for _, e := range n.children {
		if e.name == name {
			return vfs.EEXIST
		}
	}
	tn, ok := d.nodes[target]
	if !ok {
		return vfs.ENOENT
	}
	n.children = append(n.children, dirEntry{name: name, id: target, typ: tn.typ})
	return nil
}

func (d *Driver) Read(in *vfs.Inode, buf []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return 0, err
	}
	if off >= int64(len(n.data)) {
		return 0, nil
	}
	return copy(buf, n.data[off:]), nil
}

func (d *Driver) Write(in *vfs.Inode, buf []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return 0, err
	}
	end := off + int64(len(buf))
	if end > int64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	return copy(n.data[off:end], buf), nil
}

func (d *Driver) Sync(in *vfs.Inode) error { return nil }

func (d *Driver) Seek(in *vfs.Inode, off int64) (int64, error) {
	if off < 0 {
		return 0, vfs.EINVAL
	}
	return off, nil
}

// Mkdirer.

func (d *Driver) Mkdir(parent *vfs.Inode, name string) (vfs.InodeID, vfs.InodeType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(parent.ID())
	if err != nil {
		return 0, 0, err
	}
	for _, e := range n.children {
		if e.name == name {
			return 0, 0, vfs.EEXIST
		}
	}
	id := d.allocID()
	d.nodes[id] = &node{id: id, typ: vfs.TypeDirectory, generation: uuid.New()}
	n.children = append(n.children, dirEntry{name: name, id: id, typ: vfs.TypeDirectory})
	return id, vfs.TypeDirectory, nil
}

// Rmdirer.

func (d *Driver) Rmdir(parent *vfs.Inode, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(parent.ID())
	if err != nil {
		return err
	}
	for i, e := range n.children {
		if e.name == name {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return nil
		}
	}
	return vfs.ENOENT
}

// SymlinkOps.

func (d *Driver) ReadSymlink(in *vfs.Inode) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		return "", err
	}
	return n.target, nil
}

func (d *Driver) SetSymlink(parent *vfs.Inode, name string, target string) (vfs.InodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.lookupLocked(parent.ID())
	if err != nil {
		return 0, err
	}
	for _, e := range n.children {
		if e.name == name {
			return 0, vfs.EEXIST
		}
	}
	id := d.allocID()
	d.nodes[id] = &node{id: id, typ: vfs.TypeSymlink, target: target, generation: uuid.New()}
	n.children = append(n.children, dirEntry{name: name, id: id, typ: vfs.TypeSymlink})
	return id, nil
}

// Readdirer. startOffset counts from 2: vfs.Readdir injects the synthetic
// "." and ".." entries at offsets 0 and 1 itself.
func (d *Driver) Readdir(in *vfs.Inode, startOffset int, cb vfs.DirentCallback) (int, error) {
	d.mu.Lock()
	n, err := d.lookupLocked(in.ID())
	if err != nil {
		d.mu.Unlock()
		return 0, err
	}
	entries := append([]dirEntry(nil), n.children...)
	d.mu.Unlock()

	idx := startOffset - 2
	if idx < 0 {
		idx = 0
	}
	count := 0
	for ; idx < len(entries); idx++ {
		e := entries[idx]
		if !cb(e.name, e.id, e.typ) {
			break
		}
		count++
	}
	return count, nil
}

// FileOps, shared by every open file: memfs keeps no per-file state beyond
// what vfs.File already tracks, so Close is a no-op.
func (d *Driver) Close(f *vfs.File) error { return nil }
