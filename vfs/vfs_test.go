package vfs_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lunaixsky/vfscore/internal/memfs"
	"github.com/lunaixsky/vfscore/vfs"
)

func newFixture(t *testing.T) (*vfs.Context, *vfs.Task) {
	t.Helper()
	_, sb, rootInode := memfs.New(nil)
	ctx := vfs.NewContext(sb, rootInode, vfs.ContextOptions{})
	return ctx, ctx.NewTask()
}

func mustWriteFile(t *testing.T, ctx *vfs.Context, task *vfs.Task, path string, content string) {
	t.Helper()
	fd, err := ctx.Open(task, path, vfs.FO_CREATE|vfs.FO_WRONLY)
	require.NoError(t, err)
	_, err = ctx.Write(task, fd, []byte(content))
	require.NoError(t, err)
	require.NoError(t, ctx.Close(task, fd))
}

func mustReadFile(t *testing.T, ctx *vfs.Context, task *vfs.Task, path string) string {
	t.Helper()
	fd, err := ctx.Open(task, path, vfs.FO_RDONLY)
	require.NoError(t, err)
	buf := make([]byte, 4096)
	n, err := ctx.Read(task, fd, buf)
	require.NoError(t, err)
	require.NoError(t, ctx.Close(task, fd))
	return string(buf[:n])
}

func TestOpenWriteReadClose(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/hello.txt", "hello, vfscore")
	assert.Equal(t, "hello, vfscore", mustReadFile(t, ctx, task, "/hello.txt"))
}

func TestOpenMissingFileIsENOENT(t *testing.T) {
	ctx, task := newFixture(t)
	_, err := ctx.Open(task, "/nope.txt", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENOENT, err)
}

func TestWriteGrowsSizeAndAppendSeeksToEnd(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/f", "0123456789")

	fd, err := ctx.Open(task, "/f", vfs.FO_WRONLY|vfs.FO_APPEND)
	require.NoError(t, err)
	_, err = ctx.Write(task, fd, []byte("ABC"))
	require.NoError(t, err)
	require.NoError(t, ctx.Close(task, fd))

	assert.Equal(t, "0123456789ABC", mustReadFile(t, ctx, task, "/f"))
}

func TestLseek(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/f", "0123456789")

	fd, err := ctx.Open(task, "/f", vfs.FO_RDONLY)
	require.NoError(t, err)

	pos, err := ctx.Lseek(task, fd, 3, vfs.SeekSet)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pos)

	buf := make([]byte, 4)
	n, err := ctx.Read(task, fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(buf[:n]))
	require.NoError(t, ctx.Close(task, fd))
}

func TestReadWriteDirectoryIsEISDIR(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))

	fd, err := ctx.Open(task, "/d", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, fd)

	buf := make([]byte, 16)
	_, err = ctx.Read(task, fd, buf)
	assert.Equal(t, vfs.EISDIR, err)
	_, err = ctx.Write(task, fd, buf)
	assert.Equal(t, vfs.EISDIR, err)
}

func TestMkdirRmdir(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))

	fd, err := ctx.Open(task, "/d", vfs.FO_RDONLY)
	require.NoError(t, err)
	require.NoError(t, ctx.Close(task, fd))

	require.NoError(t, ctx.Rmdir(task, "/d"))
	_, err = ctx.Open(task, "/d", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENOENT, err)
}

func TestRmdirNonEmptyIsENOTEMPTY(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))
	mustWriteFile(t, ctx, task, "/d/f", "x")

	err := ctx.Rmdir(task, "/d")
	assert.Equal(t, vfs.ENOTEMPTY, err)
}

func TestRmdirReferencedEmptyIsEBUSY(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))
	require.NoError(t, ctx.Chdir(task, "/d"))
	defer ctx.Chdir(task, "/")

	err := ctx.Rmdir(task, "/d")
	assert.Equal(t, vfs.EBUSY, err)
}

func TestReaddirIncludesDotAndDotDot(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))
	mustWriteFile(t, ctx, task, "/d/a", "a")
	mustWriteFile(t, ctx, task, "/d/b", "b")

	fd, err := ctx.Open(task, "/d", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, fd)

	buf := make([]byte, 4096)
	n, err := ctx.Readdir(task, fd, buf)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	// Each packed record is ino(8) off(8) namelen(2) type(1) name, padded
	// to 8 bytes; the first two records are the synthetic "." and "..".
	nameAt := func(off int) (string, int) {
		nl := int(buf[off+16]) | int(buf[off+17])<<8
		return string(buf[off+19 : off+19+nl]), (19 + nl + 7) &^ 7
	}
	first, reclen := nameAt(0)
	second, _ := nameAt(reclen)
	assert.Equal(t, ".", first)
	assert.Equal(t, "..", second)
}

func TestLinkUnlink(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/a", "shared")

	require.NoError(t, ctx.Link(task, "/a", "/b"))
	assert.Equal(t, "shared", mustReadFile(t, ctx, task, "/b"))

	require.NoError(t, ctx.Unlink(task, "/a"))
	assert.Equal(t, "shared", mustReadFile(t, ctx, task, "/b"), "the second name keeps the inode alive")

	require.NoError(t, ctx.Unlink(task, "/b"))
	_, err := ctx.Open(task, "/b", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENOENT, err)
}

func TestUnlinkDirectoryIsEISDIR(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))
	assert.Equal(t, vfs.EISDIR, ctx.Unlink(task, "/d"))
}

func TestUnlinkOpenFileIsEBUSY(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/a", "x")
	fd, err := ctx.Open(task, "/a", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, fd)

	assert.Equal(t, vfs.EBUSY, ctx.Unlink(task, "/a"))
}

func TestSymlinkReadlinkAndFollow(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/target", "payload")
	require.NoError(t, ctx.Symlink(task, "/target", "/link"))

	target, err := ctx.Readlink(task, "/link")
	require.NoError(t, err)
	assert.Equal(t, "/target", target)

	assert.Equal(t, "payload", mustReadFile(t, ctx, task, "/link"))
}

func TestUnlinkatResolvesRelativeToDirFd(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))
	mustWriteFile(t, ctx, task, "/d/f", "x")

	dirfd, err := ctx.Open(task, "/d", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, dirfd)

	require.NoError(t, ctx.Unlinkat(task, dirfd, "f"))
	_, err = ctx.Open(task, "/d/f", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENOENT, err)
}

func TestReadlinkatResolvesRelativeToDirFd(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/d"))
	mustWriteFile(t, ctx, task, "/d/target", "payload")
	require.NoError(t, ctx.Symlink(task, "target", "/d/link"))

	dirfd, err := ctx.Open(task, "/d", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, dirfd)

	buf := make([]byte, 64)
	n, err := ctx.Readlinkat(task, dirfd, "link", buf)
	require.NoError(t, err)
	assert.Equal(t, "target", string(buf[:n]))
}

func TestReadlinkatERANGE(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/target", "payload")
	require.NoError(t, ctx.Symlink(task, "/target", "/link"))

	rootfd, err := ctx.Open(task, "/", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, rootfd)

	buf := make([]byte, 1)
	_, err = ctx.Readlinkat(task, rootfd, "link", buf)
	assert.Equal(t, vfs.ERANGE, err)
}

func TestRealpathat(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/a"))
	require.NoError(t, ctx.Mkdir(task, "/a/b"))

	fd, err := ctx.Open(task, "/a/b", vfs.FO_RDONLY)
	require.NoError(t, err)
	defer ctx.Close(task, fd)

	buf := make([]byte, 64)
	n, err := ctx.Realpathat(task, fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", string(buf[:n]))
}

func newReadOnlyFixture(t *testing.T) (*vfs.Context, *vfs.Task) {
	t.Helper()
	_, sb, rootInode := memfs.NewReadOnly(nil)
	ctx := vfs.NewContext(sb, rootInode, vfs.ContextOptions{})
	return ctx, ctx.NewTask()
}

func TestMkdirOnReadOnlyIsEROFS(t *testing.T) {
	ctx, task := newReadOnlyFixture(t)
	assert.Equal(t, vfs.EROFS, ctx.Mkdir(task, "/d"))
}

func TestSymlinkOnReadOnlyIsEROFS(t *testing.T) {
	ctx, task := newReadOnlyFixture(t)
	assert.Equal(t, vfs.EROFS, ctx.Symlink(task, "/target", "/link"))
}

func TestOpenCreateOnReadOnlyIsEROFS(t *testing.T) {
	ctx, task := newReadOnlyFixture(t)
	_, err := ctx.Open(task, "/a", vfs.FO_CREATE|vfs.FO_WRONLY)
	assert.Equal(t, vfs.EROFS, err)
}

func TestUnlinkOnReadOnlyIsEROFS(t *testing.T) {
	d, sb, rootInode := memfs.NewReadOnly(nil)
	// Seed a file directly through the driver, bypassing the read-only
	// gate that lives in vfs's own Open/Create path, not the driver's.
	_, err := d.Create(rootInode, "a")
	require.NoError(t, err)
	ctx := vfs.NewContext(sb, rootInode, vfs.ContextOptions{})
	task := ctx.NewTask()

	assert.Equal(t, vfs.EROFS, ctx.Unlink(task, "/a"))
}

func TestRenameOnReadOnlyIsEROFS(t *testing.T) {
	d, sb, rootInode := memfs.NewReadOnly(nil)
	_, err := d.Create(rootInode, "a")
	require.NoError(t, err)
	ctx := vfs.NewContext(sb, rootInode, vfs.ContextOptions{})
	task := ctx.NewTask()

	assert.Equal(t, vfs.EROFS, ctx.Rename(task, "/a", "/b"))
}

func TestRenameWithinSameSuperblock(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/a", "content")

	require.NoError(t, ctx.Rename(task, "/a", "/b"))
	assert.Equal(t, "content", mustReadFile(t, ctx, task, "/b"))

	_, err := ctx.Open(task, "/a", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENOENT, err)
}

func TestRenameOntoExistingTarget(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/a", "new")
	mustWriteFile(t, ctx, task, "/b", "old")

	// Rename locks the replaced target as part of its fixed lock order and
	// then frees it; this must not re-lock target's already-held mutex.
	require.NoError(t, ctx.Rename(task, "/a", "/b"))
	assert.Equal(t, "new", mustReadFile(t, ctx, task, "/b"))

	_, err := ctx.Open(task, "/a", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENOENT, err)
}

func TestRenameAcrossSuperblocksIsEXDEV(t *testing.T) {
	ctx, task := newFixture(t)
	_, otherSB, otherRoot := memfs.New(nil)

	require.NoError(t, ctx.Mkdir(task, "/mnt"))
	mntPoint, _, err := ctx.Walk(task, ctx.Root(), "/mnt", 0)
	require.NoError(t, err)
	_, err = ctx.Mount(mntPoint, otherSB)
	require.NoError(t, err)
	_ = otherRoot

	mustWriteFile(t, ctx, task, "/a", "content")
	err = ctx.Rename(task, "/a", "/mnt/a")
	assert.Equal(t, vfs.EXDEV, err)
}

func TestDupAndDup2(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/a", "0123456789")

	fd, err := ctx.Open(task, "/a", vfs.FO_RDONLY)
	require.NoError(t, err)

	dupfd, err := ctx.Dup(task, fd)
	require.NoError(t, err)
	assert.NotEqual(t, fd, dupfd)

	// Advancing the original's position must be visible through the dup,
	// since they share one open-file object.
	buf := make([]byte, 4)
	_, err = ctx.Read(task, fd, buf)
	require.NoError(t, err)

	pos, err := ctx.Lseek(task, dupfd, 0, vfs.SeekCur)
	require.NoError(t, err)
	assert.EqualValues(t, 4, pos)

	same, err := ctx.Dup2(task, fd, fd)
	require.NoError(t, err)
	assert.Equal(t, fd, same)

	require.NoError(t, ctx.Close(task, fd))
	require.NoError(t, ctx.Close(task, dupfd))
}

func TestChdirAndGetcwd(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/a"))
	require.NoError(t, ctx.Mkdir(task, "/a/b"))
	require.NoError(t, ctx.Chdir(task, "/a/b"))

	buf := make([]byte, 64)
	n, err := ctx.Getcwd(task, buf)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", string(buf[:n]))
}

func TestGetcwdERANGE(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/a"))
	require.NoError(t, ctx.Chdir(task, "/a"))

	buf := make([]byte, 1)
	_, err := ctx.Getcwd(task, buf)
	assert.Equal(t, vfs.ERANGE, err)
}

func TestComponentNameBoundary(t *testing.T) {
	ctx, task := newFixture(t)

	okName := strings.Repeat("x", vfs.NameMaxLen-1)
	require.NoError(t, ctx.Mkdir(task, "/"+okName))

	longName := strings.Repeat("y", vfs.NameMaxLen)
	err := ctx.Mkdir(task, "/"+longName)
	assert.Equal(t, vfs.ENAMETOOLONG, err)
}

func TestSymlinkDepthBoundary(t *testing.T) {
	ctx, task := newFixture(t)
	mustWriteFile(t, ctx, task, "/real", "x")

	// Seventeen nested symlinks: link16 -> link15 -> ... -> link0 -> /real.
	require.NoError(t, ctx.Symlink(task, "/real", "/link0"))
	for i := 1; i <= 16; i++ {
		require.NoError(t, ctx.Symlink(task, fmt.Sprintf("/link%d", i-1), fmt.Sprintf("/link%d", i)))
	}

	_, err := ctx.Open(task, "/link16", vfs.FO_RDONLY)
	assert.Equal(t, vfs.ENAMETOOLONG, err)
}

func TestCheckInvariantsAfterMixedOps(t *testing.T) {
	ctx, task := newFixture(t)
	require.NoError(t, ctx.Mkdir(task, "/a"))
	mustWriteFile(t, ctx, task, "/a/f1", "1")
	mustWriteFile(t, ctx, task, "/a/f2", "2")
	require.NoError(t, ctx.Rename(task, "/a/f1", "/a/f3"))
	require.NoError(t, ctx.Unlink(task, "/a/f2"))

	assert.NotPanics(t, func() { ctx.CheckInvariants() })
}

func TestLRUStressForcesDnodeEviction(t *testing.T) {
	_, sb, rootInode := memfs.New(nil)
	ctx := vfs.NewContext(sb, rootInode, vfs.ContextOptions{DnodeCapacity: 32, InodeCapacity: 32})
	task := ctx.NewTask()

	require.NoError(t, ctx.Mkdir(task, "/stress"))

	const fileCount = 2000
	var g errgroup.Group
	for i := 0; i < fileCount; i++ {
		i := i
		g.Go(func() error {
			name := fmt.Sprintf("/stress/file-%05d", i)
			fd, err := ctx.Open(task, name, vfs.FO_CREATE|vfs.FO_WRONLY)
			if err != nil {
				return err
			}
			return ctx.Close(task, fd)
		})
	}
	require.NoError(t, g.Wait())

	// Every file must still be reachable by name even though the dnode
	// cache's soft capacity (32) was exceeded many times over, forcing
	// repeated eviction-and-reresolve through the driver.
	for i := 0; i < fileCount; i += 257 {
		name := fmt.Sprintf("/stress/file-%05d", i)
		fd, err := ctx.Open(task, name, vfs.FO_RDONLY)
		require.NoError(t, err)
		require.NoError(t, ctx.Close(task, fd))
	}

	assert.NotPanics(t, func() { ctx.CheckInvariants() })
}
