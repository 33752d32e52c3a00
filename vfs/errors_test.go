package vfs

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrnoRepr(t *testing.T) {
	assert.Equal(t, "ENOENT", ENOENT.Repr())
	assert.Equal(t, "EBUSY", EBUSY.Repr())
	assert.Contains(t, Errno(9999).Repr(), "Errno(")
}

func TestErrnoError(t *testing.T) {
	require.NotEmpty(t, ENOTDIR.Error())
}

func TestFsErr(t *testing.T) {
	assert.Equal(t, Errno(0), FsErr(nil))
	assert.Equal(t, ENOENT, FsErr(ENOENT))
	assert.Equal(t, ENOENT, FsErr(syscall.ENOENT))
	assert.Equal(t, EIO, FsErr(assert.AnError))
}
