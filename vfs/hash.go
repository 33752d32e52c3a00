package vfs

// nameHash computes the 32-bit FNV-1a hash of a path component. The dcache
// and inode cache both bucket on this value per §4.A/§4.B; lookups compare
// the hash only, matching the reference behavior's accepted risk of a
// theoretical collision (§9).
func nameHash(name string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= prime32
	}
	return h
}
