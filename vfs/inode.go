package vfs

import (
	"sync"
	"sync/atomic"
	"time"
)

// InodeType enumerates the kinds of file-system object an Inode may be.
type InodeType int

const (
	TypeRegular InodeType = iota
	TypeDirectory
	TypeSymlink
	TypeCharDevice
	TypeBlockDevice
)

// InodeID is an id unique within a superblock (§3); drivers are
// responsible for minting unique values.
type InodeID uint64

// DirentCallback is invoked once per directory entry by a driver's Readdir
// implementation; returning false stops the enumeration early.
type DirentCallback func(name string, id InodeID, typ InodeType) bool

// SuperblockOps is the per-superblock method table a driver supplies (§6):
// init_inode, release_inode, write_inode.
type SuperblockOps interface {
	// InitInode installs driver-private state into a freshly allocated
	// inode (called once, right after allocation, §4.D).
	InitInode(sb *Superblock, in *Inode) error
	// ReleaseInode tears down driver-private state when an inode is
	// finally freed by the LRU.
	ReleaseInode(in *Inode) error
	// WriteInode persists any dirty driver-private inode metadata.
	WriteInode(in *Inode) error
}

// InodeOps is the per-inode operation set a driver supplies (§6). A driver
// that does not support an operation simply doesn't implement the optional
// narrower interface below it (Mkdirer, SymlinkOps, ...); callers type-
// assert and fall back to ENOTSUP, the Go rendition of "ops struct of
// function pointers, missing entries are null" (§9).
type InodeOps interface {
	// DirLookup resolves name under the directory inode in, returning the
	// child's id and type, or ENOENT.
	DirLookup(in *Inode, name string) (InodeID, InodeType, error)
	// Create makes a new regular file named name under directory in.
	Create(in *Inode, name string) (InodeID, error)
	// Unlink removes the directory entry name under in.
	Unlink(in *Inode, name string) error
	// Rename moves entry oldName under oldParent to newName under in.
	Rename(oldParent *Inode, oldName string, in *Inode, newName string) error
	// Link binds an additional name to an existing inode id under in.
	Link(in *Inode, name string, target InodeID) error
	// Read reads from inode in at the given offset into buf.
	Read(in *Inode, buf []byte, off int64) (int, error)
	// Write writes buf into inode in at the given offset.
	Write(in *Inode, buf []byte, off int64) (int, error)
	// Sync flushes any driver-buffered state for in.
	Sync(in *Inode) error
	// Seek validates a seek to the given absolute offset, returning the
	// offset the file position takes (Lseek stores it as returned).
	Seek(in *Inode, off int64) (int64, error)
}

// Mkdirer is an optional narrower interface: drivers that support
// directory creation implement it. Absence means ENOTSUP (§4.E step 4).
type Mkdirer interface {
	Mkdir(parent *Inode, name string) (InodeID, InodeType, error)
}

// Rmdirer is an optional narrower interface for directory removal.
type Rmdirer interface {
	Rmdir(parent *Inode, name string) error
}

// SymlinkOps is an optional narrower interface: drivers that support
// symbolic links implement both halves together.
type SymlinkOps interface {
	ReadSymlink(in *Inode) (string, error)
	SetSymlink(parent *Inode, name string, target string) (InodeID, error)
}

// Readdirer is an optional narrower interface for directory enumeration;
// the context callback receives entries starting at offset 2 (§4.G).
type Readdirer interface {
	Readdir(in *Inode, startOffset int, cb DirentCallback) (int, error)
}

// Inode is the file-system-visible object behind a dnode (§3): a file,
// directory, symlink, or device, cached per superblock by id.
type Inode struct {
	mu sync.Mutex

	id   InodeID
	typ  InodeType
	size int64

	// linkCount and openCount are protected by mu (§5): "only touched
	// while that lock is held".
	linkCount uint64
	openCount uint64

	sb *Superblock

	ops      InodeOps
	fileOps  FileOps
	driverPriv any

	pageCache *pageCache

	ctime time.Time
	atime time.Time
	mtime time.Time

	lruHandle *lruHandle
}

// NewInode mints an inode outside the normal getOrCreateInode path, with
// link_count pre-set to 1. It exists solely for a driver to construct the
// system root inode before any Context (and therefore any inode LRU zone)
// exists; every other inode is minted through Context.getOrCreateInode.
func NewInode(sb *Superblock, id InodeID, typ InodeType, ops InodeOps, fileOps FileOps, now time.Time) *Inode {
	return &Inode{
		id: id, typ: typ, sb: sb, ops: ops, fileOps: fileOps,
		linkCount: 1,
		ctime:     now, atime: now, mtime: now,
	}
}

func (in *Inode) Lock()   { in.mu.Lock() }
func (in *Inode) Unlock() { in.mu.Unlock() }

func (in *Inode) ID() InodeID          { return in.id }
func (in *Inode) Type() InodeType      { return in.typ }
func (in *Inode) Superblock() *Superblock { return in.sb }

func (in *Inode) Size() int64 { return atomic.LoadInt64(&in.size) }
func (in *Inode) setSize(n int64) { atomic.StoreInt64(&in.size, n) }

// Times returns the creation, access, and modification timestamps. Caller
// should hold in's lock for a consistent snapshot.
func (in *Inode) Times() (ctime, atime, mtime time.Time) {
	return in.ctime, in.atime, in.mtime
}

func (in *Inode) touchAtime(c Clock) { in.atime = c.Now() }
func (in *Inode) touchMtime(c Clock) { in.mtime = c.Now() }

// evictable reports whether the inode may be freed by the LRU (§4.C):
// link_count == 0 && open_count == 0. Caller holds in's lock.
func (in *Inode) evictable() bool {
	return in.linkCount == 0 && in.openCount == 0
}

// incLinkCount/decLinkCount maintain link_count; caller holds in's lock.
func (in *Inode) incLinkCount() { in.linkCount++ }
func (in *Inode) decLinkCount() {
	if in.linkCount == 0 {
		panic("vfs: inode link_count underflow")
	}
	in.linkCount--
}

// incOpenCount/decOpenCount maintain open_count; caller holds in's lock.
func (in *Inode) incOpenCount() { in.openCount++ }
func (in *Inode) decOpenCount() {
	if in.openCount == 0 {
		panic("vfs: inode open_count underflow")
	}
	in.openCount--
}
