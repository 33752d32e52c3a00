package vfs

import "sync"

// VfsMaxFd is the fixed size of a task's fd slot array (§4.H).
const VfsMaxFd = 256

// FdFlags are per-descriptor flags. No flag values are defined and no
// operation reads them; alloc and install (dup, dup2) always store zero.
type FdFlags int

// fdSlot is one entry in a task's fd table: a pointer to a file object
// plus per-descriptor flags.
type fdSlot struct {
	file  *File
	flags FdFlags
}

// FdTable is the opaque "current-task" fd array the VFS consumes (§4.H).
type FdTable struct {
	mu    sync.Mutex
	slots [VfsMaxFd]fdSlot
}

// NewFdTable returns an empty fd table.
func NewFdTable() *FdTable {
	return &FdTable{}
}

// getfd validates the fd range and non-nullness, returning EBADF
// otherwise (__vfs_getfd, §4.H).
func (t *FdTable) getfd(fd int) (*File, error) {
	if fd < 0 || fd >= VfsMaxFd {
		return nil, EBADF
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.slots[fd].file
	if f == nil {
		return nil, EBADF
	}
	return f, nil
}

// alloc scans for the first null slot and installs f, returning its index
// or EMFILE if the table is full.
func (t *FdTable) alloc(f *File) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.slots[i].file == nil {
			t.slots[i] = fdSlot{file: f}
			return i, nil
		}
	}
	return -1, EMFILE
}

// install places f directly into slot fd, evicting and returning whatever
// was there before (used by dup2).
func (t *FdTable) install(fd int, f *File) (*File, error) {
	if fd < 0 || fd >= VfsMaxFd {
		return nil, EBADF
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.slots[fd].file
	t.slots[fd] = fdSlot{file: f}
	return old, nil
}

// clear empties slot fd and returns whatever was there.
func (t *FdTable) clear(fd int) *File {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.slots[fd].file
	t.slots[fd] = fdSlot{}
	return old
}
