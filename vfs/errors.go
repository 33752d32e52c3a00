package vfs

import (
	"fmt"
	"syscall"
)

// Errno is a portable kernel error kind, backed by syscall.Errno the same
// way complyue/jdfs's pkg/vfs/errors.go renders FsError for cross-process
// transport: a small wrapper with a stable name (Repr) as well as the usual
// Error() string.
type Errno syscall.Errno

// The integer error kinds named by the syscall surface.
const (
	ENOMEM       = Errno(syscall.ENOMEM)
	ENOENT       = Errno(syscall.ENOENT)
	ENOTDIR      = Errno(syscall.ENOTDIR)
	EISDIR       = Errno(syscall.EISDIR)
	ENOTSUP      = Errno(syscall.ENOTSUP)
	EINVAL       = Errno(syscall.EINVAL)
	EBADF        = Errno(syscall.EBADF)
	EPERM        = Errno(syscall.EPERM)
	EEXIST       = Errno(syscall.EEXIST)
	EBUSY        = Errno(syscall.EBUSY)
	EXDEV        = Errno(syscall.EXDEV)
	ENOTEMPTY    = Errno(syscall.ENOTEMPTY)
	ENAMETOOLONG = Errno(syscall.ENAMETOOLONG)
	EROFS        = Errno(syscall.EROFS)
	EMFILE       = Errno(syscall.EMFILE)
	ELOOP        = Errno(syscall.ELOOP)
	ERANGE       = Errno(syscall.ERANGE)
	EIO          = Errno(syscall.EIO)
)

var names = map[Errno]string{
	ENOMEM:       "ENOMEM",
	ENOENT:       "ENOENT",
	ENOTDIR:      "ENOTDIR",
	EISDIR:       "EISDIR",
	ENOTSUP:      "ENOTSUP",
	EINVAL:       "EINVAL",
	EBADF:        "EBADF",
	EPERM:        "EPERM",
	EEXIST:       "EEXIST",
	EBUSY:        "EBUSY",
	EXDEV:        "EXDEV",
	ENOTEMPTY:    "ENOTEMPTY",
	ENAMETOOLONG: "ENAMETOOLONG",
	EROFS:        "EROFS",
	EMFILE:       "EMFILE",
	ELOOP:        "ELOOP",
	ERANGE:       "ERANGE",
	EIO:          "EIO",
}

func (e Errno) Error() string {
	return syscall.Errno(e).Error()
}

// Repr returns the symbolic constant name, e.g. "ENOENT", falling back to
// the numeric value for anything not in the named set above.
func (e Errno) Repr() string {
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("Errno(%d)", int(e))
}

// FsErr converts an arbitrary error into a portable Errno. Errors that are
// already an Errno (or a syscall.Errno) pass through unchanged; anything
// else falls back to EIO without being logged, mirroring pkg/vfs/errors.go's
// FsErr.
func FsErr(err error) Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(Errno); ok {
		return e
	}
	if e, ok := err.(syscall.Errno); ok {
		return Errno(e)
	}
	return EIO
}
