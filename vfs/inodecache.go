package vfs

import "sync"

// InodeHashBits sizes the per-superblock inode hash table to a fixed power
// of two (§3, §4.B).
const InodeHashBits = 10
const inodeHashSize = 1 << InodeHashBits
const inodeHashMask = inodeHashSize - 1

// inodeCache is the per-superblock id→inode map of §4.B, embedded inside
// Superblock.
type inodeCache struct {
	mu      sync.Mutex
	buckets [inodeHashSize][]*Inode
}

// find implements find(sb, id) → inode | miss: bucket is id & HASH_MASK,
// promoting the inode in the LRU on hit.
func (ic *inodeCache) find(id InodeID, lru *lruZone) *Inode {
	idx := uint64(id) & inodeHashMask
	ic.mu.Lock()
	defer ic.mu.Unlock()
	for _, in := range ic.buckets[idx] {
		if in.id == id {
			if lru != nil {
				lru.use(in.lruHandle)
			}
			return in
		}
	}
	return nil
}

// addHashed implements add_hashed: idempotent, remove-then-insert so a
// rehash-on-id-change is safe.
func (ic *inodeCache) addHashed(in *Inode) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.removeLocked(in)
	idx := uint64(in.id) & inodeHashMask
	ic.buckets[idx] = append(ic.buckets[idx], in)
}

func (ic *inodeCache) remove(in *Inode) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.removeLocked(in)
}

func (ic *inodeCache) removeLocked(in *Inode) {
	idx := uint64(in.id) & inodeHashMask
	chain := ic.buckets[idx]
	for i, c := range chain {
		if c == in {
			ic.buckets[idx] = append(chain[:i], chain[i+1:]...)
			return
		}
	}
}

// findInode and addInodeHashed expose the embedded cache on *Superblock so
// callers outside this file read naturally as "sb.findInode(id)".
func (sb *Superblock) findInode(id InodeID, lru *lruZone) *Inode {
	return sb.inodes.find(id, lru)
}

func (sb *Superblock) addInodeHashed(in *Inode) {
	sb.inodes.addHashed(in)
}

func (sb *Superblock) removeInode(in *Inode) {
	sb.inodes.remove(in)
}
