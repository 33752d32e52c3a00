package vfs

import "encoding/binary"

// DirEnt is one directory entry as returned through readdir (§4.G).
type DirEnt struct {
	Name string
	Ino  InodeID
	Off  int64
	Type InodeType
}

// direntHeaderSize is the fixed portion of a packed entry: 8-byte ino,
// 8-byte offset, 2-byte name length, 1-byte type.
const direntHeaderSize = 8 + 8 + 2 + 1

// WriteDirEnt packs d into buf in a fixed binary layout (ino, off,
// namelen, type, name, zero padding to an 8-byte boundary), the same
// shape pkg/vfs/dirent.go packs a fuse_dirent in. Returns the number of
// bytes written, or 0 if buf is too small for the record.
func WriteDirEnt(buf []byte, d DirEnt) (n int) {
	reclen := direntHeaderSize + len(d.Name)
	reclen = (reclen + 7) &^ 7
	if reclen > len(buf) {
		return 0
	}
	binary.LittleEndian.PutUint64(buf[0:8], uint64(d.Ino))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(d.Off))
	binary.LittleEndian.PutUint16(buf[16:18], uint16(len(d.Name)))
	buf[18] = byte(d.Type)
	copy(buf[19:19+len(d.Name)], d.Name)
	for i := 19 + len(d.Name); i < reclen; i++ {
		buf[i] = 0
	}
	return reclen
}
