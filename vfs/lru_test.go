package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLruZoneInsertUseForget(t *testing.T) {
	z := newLruZone(4)
	h1 := z.insert("a")
	h2 := z.insert("b")
	assert.Equal(t, 2, z.len())

	z.use(h1)
	z.forget(h2)
	assert.Equal(t, 1, z.len())
	z.forget(h1)
	assert.Equal(t, 0, z.len())
}

func TestLruZoneAtSoftCapacity(t *testing.T) {
	z := newLruZone(2)
	assert.False(t, z.atSoftCapacity())
	z.insert("a")
	assert.False(t, z.atSoftCapacity())
	z.insert("b")
	assert.True(t, z.atSoftCapacity())
}

func TestLruZoneEvictHalfOnlyRemovesWhatThePredicateAccepts(t *testing.T) {
	z := newLruZone(8)
	var handles []*lruHandle
	for i := 0; i < 4; i++ {
		handles = append(handles, z.insert(i))
	}
	require.Equal(t, 4, z.len())

	// Refuse to evict anything: evictHalf must not touch the zone.
	freed := z.evictHalf(func(v any) bool { return false })
	assert.Equal(t, 0, freed)
	assert.Equal(t, 4, z.len())

	// Accept every candidate: should free half (rounded up) of the zone.
	freed = z.evictHalf(func(v any) bool { return true })
	assert.Equal(t, 2, freed)
	assert.Equal(t, 2, z.len())
}

func TestLruZoneNeverAutoEvictsBehindOurBack(t *testing.T) {
	// The soft capacity is tiny, but the underlying library cache must
	// never silently drop an entry on insert -- every eviction has to go
	// through evictHalf's predicate.
	z := newLruZone(1)
	h1 := z.insert("a")
	z.insert("b")
	z.insert("c")
	assert.Equal(t, 3, z.len())

	// h1 must still be resolvable: the library's own capacity-based evictor
	// never ran.
	z.use(h1)
}
