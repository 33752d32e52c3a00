package vfs

// PageCache is the external per-inode byte-range cache contract (§6):
// pcache_init, pcache_read, pcache_write, pcache_commit_all, pcache_release.
// The VFS core never implements a page cache itself (§1's explicit
// out-of-scope list); it only consumes this interface, lazily creating one
// per regular-file inode the first time a file handle is opened for it
// (§3's inode invariant) and releasing it when the inode is freed.
type PageCache interface {
	Read(buf []byte, n int, pos int64) (int, error)
	Write(buf []byte, n int, pos int64) (int, error)
	CommitAll() error
	Release() error
}

// pageCache is the lazily-created per-inode handle; the concrete
// implementation is supplied by whoever constructs the Context (normally
// a thin adapter over the driver's own storage), never by this package.
type pageCache = PageCache

// PageCacheFactory mints a PageCache for a newly opened regular-file
// inode. Supplying nil disables the page-cache path entirely: reads and
// writes then always go straight to the driver, as if every file were
// opened FO_DIRECT.
type PageCacheFactory func(in *Inode) (PageCache, error)
