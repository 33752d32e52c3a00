// Package vfs implements the in-memory virtual file system core of a small
// kernel: the object model (dnode, inode, superblock, open-file object, fd
// slot) and its bounded LRU caches, the iterative path walker, and the
// syscall-level operations built on top of them.
//
// Concrete file-system drivers, the page cache, the slab allocator, the
// scheduler, and the clock are external collaborators; vfs consumes them
// through the interfaces in inode.go, file.go and pagecache.go and the
// Clock in clock.go.
package vfs
