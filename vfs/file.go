package vfs

import (
	"sync"
	"sync/atomic"
)

// Open flags (§4.G).
const (
	FO_RDONLY = 0
	FO_WRONLY = 1 << iota
	FO_RDWR
	FO_CREATE
	FO_APPEND
	FO_DIRECT
	FO_TRUNC
)

// FileOps is the per-file-object operation set a driver supplies. It
// carries only Close, called when an open-file object is released; read,
// write, readdir, seek and sync always go to the inode-level operations
// and cannot be overridden per file.
type FileOps interface {
	Close(f *File) error
}

// File is an open-file object: one open() result (§3). It holds one
// reference on its dnode and one on its mount, and increments the inode's
// open_count for its lifetime.
type File struct {
	mu sync.Mutex

	dnode *Dnode
	inode *Inode

	pos   int64
	flags int

	refCount int32

	ops FileOps

	// dirOffset is the synthetic readdir cursor: 0 is ".", 1 is "..",
	// entries from the driver start at 2 (§4.G).
	dirOffset int
}

func (f *File) Lock()   { f.mu.Lock() }
func (f *File) Unlock() { f.mu.Unlock() }

func (f *File) Dnode() *Dnode { return f.dnode }
func (f *File) Inode() *Inode { return f.inode }

func (f *File) Pos() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *File) IncRef() int32 { return atomic.AddInt32(&f.refCount, 1) }
func (f *File) DecRef() int32 { return atomic.AddInt32(&f.refCount, -1) }
