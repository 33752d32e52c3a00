package vfs

import "sync"

// Task is the opaque "current-task" handle the VFS consumes (§4.H, §4.I):
// a per-task cwd dnode and fd table. One Task exists per schedulable unit
// (process, goroutine, test case); it is not itself safe to share across
// concurrent callers without external synchronization beyond what it
// provides, mirroring a kernel's per-task struct.
type Task struct {
	ctx *Context

	mu  sync.Mutex
	cwd *Dnode

	Fds *FdTable
}

// NewTask creates a task whose cwd starts at the system root. The root
// dnode gains a reference and the root mount is marked busy, matching
// §4.I's "each task may hold a cwd reference ... changing it decrements
// the previous cwd's ref-count and mount-busy counter."
func (c *Context) NewTask() *Task {
	c.root.IncRef()
	c.rootMount.mkbusy()
	return &Task{ctx: c, cwd: c.root, Fds: NewFdTable()}
}

// Cwd returns the task's current working directory dnode.
func (t *Task) Cwd() *Dnode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cwd
}

// setCwd installs newCwd as the task's working directory, releasing the
// previous one's reference and mount-busy mark and acquiring both for
// newCwd.
func (t *Task) setCwd(newCwd *Dnode) {
	newCwd.IncRef()
	mountOf(newCwd).mkbusy()

	t.mu.Lock()
	old := t.cwd
	t.cwd = newCwd
	t.mu.Unlock()

	old.DecRef()
	mountOf(old).chillax()
}

// mountOf finds the effective mount for a dnode: its own mount if it is a
// mount point/root, otherwise its nearest ancestor's.
func mountOf(d *Dnode) *Mount {
	for n := d; n != nil; n = n.parent {
		if n.mount != nil {
			return n.mount
		}
	}
	return nil
}
