package vfs

// Superblock represents a mounted file-system instance (§3): a root
// dnode, a driver's method table, and a per-sb inode cache.
type Superblock struct {
	fsType string
	ops    SuperblockOps
	root   *Dnode

	inodes inodeCache

	readOnly bool

	next *Superblock // never set; the global mount list is Context.mounts
}

// NewSuperblock constructs a superblock for a driver identified by fsType.
// The root dnode is bound by the caller (normally vfs.Mount).
func NewSuperblock(fsType string, ops SuperblockOps, readOnly bool) *Superblock {
	return &Superblock{fsType: fsType, ops: ops, readOnly: readOnly}
}

func (sb *Superblock) Root() *Dnode   { return sb.root }
func (sb *Superblock) ReadOnly() bool { return sb.readOnly }
func (sb *Superblock) FsType() string { return sb.fsType }
