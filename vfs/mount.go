package vfs

import "sync/atomic"

// Mount is consulted only through the two opaque busy-counter calls (§4.I,
// §6): mnt_mkbusy / mnt_chillax. Open files and cwd pin the mount.
type Mount struct {
	sb   *Superblock
	root *Dnode

	busy int32
}

// NewMount returns a Mount for sb whose root is sb's root dnode at the time
// of the call (nil if none is bound yet) and whose busy counter starts at
// zero.
func NewMount(sb *Superblock) *Mount {
	return &Mount{sb: sb, root: sb.root}
}

func (m *Mount) Superblock() *Superblock { return m.sb }
func (m *Mount) Root() *Dnode            { return m.root }

// mkbusy increments the mount's busy counter (mnt_mkbusy).
func (m *Mount) mkbusy() { atomic.AddInt32(&m.busy, 1) }

// chillax decrements the mount's busy counter (mnt_chillax).
func (m *Mount) chillax() { atomic.AddInt32(&m.busy, -1) }

// Busy reports the current busy count, used by tests and by an eventual
// unmount path to decide whether the mount is quiescent.
func (m *Mount) Busy() int32 { return atomic.LoadInt32(&m.busy) }
