package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDcacheLookupDotAndDotDot(t *testing.T) {
	dc := NewDcache()
	root := &Dnode{name: "/", refCount: 1}
	child := &Dnode{name: "a"}
	dc.Add(root, child)

	hit, ok := dc.Lookup(child, ".")
	require.True(t, ok)
	assert.Same(t, child, hit)

	hit, ok = dc.Lookup(child, "..")
	require.True(t, ok)
	assert.Same(t, root, hit)

	hit, ok = dc.Lookup(root, "..")
	require.True(t, ok)
	assert.Same(t, root, hit, "the root's \"..\" is itself")
}

func TestDcacheAddLookupRemove(t *testing.T) {
	dc := NewDcache()
	root := &Dnode{name: "/", refCount: 1}
	child := &Dnode{name: "child"}

	dc.Add(root, child)
	assert.EqualValues(t, 1, child.RefCount())

	hit, ok := dc.Lookup(root, "child")
	require.True(t, ok)
	assert.Same(t, child, hit)

	_, ok = dc.Lookup(root, "missing")
	assert.False(t, ok)

	dc.Remove(child)
	assert.EqualValues(t, 0, child.RefCount())
	_, ok = dc.Lookup(root, "child")
	assert.False(t, ok)
}

func TestDcacheRemoveRequiresSoleReference(t *testing.T) {
	dc := NewDcache()
	root := &Dnode{name: "/", refCount: 1}
	child := &Dnode{name: "child"}
	dc.Add(root, child)
	child.IncRef()

	assert.Panics(t, func() { dc.Remove(child) })
}

func TestDcacheRehash(t *testing.T) {
	dc := NewDcache()
	root := &Dnode{name: "/", refCount: 1}
	other := &Dnode{name: "other", refCount: 1}
	child := &Dnode{name: "child"}
	dc.Add(root, child)

	dc.Rehash(other, child, "renamed")

	_, ok := dc.Lookup(root, "child")
	assert.False(t, ok, "old (parent, name) binding must be gone")

	hit, ok := dc.Lookup(other, "renamed")
	require.True(t, ok)
	assert.Same(t, child, hit)
}

func TestDetachChildrenUnhashesUnderTheRealParent(t *testing.T) {
	dc := NewDcache()
	root := &Dnode{name: "/", refCount: 1}
	dir := &Dnode{name: "dir"}
	dc.Add(root, dir)
	leaf := &Dnode{name: "leaf"}
	dc.Add(dir, leaf)
	require.EqualValues(t, 1, leaf.RefCount())

	dir.Lock()
	kids := dir.detachChildren(dc)
	dir.Unlock()
	require.Len(t, kids, 1)
	assert.Same(t, leaf, kids[0])

	// detachChildren nils leaf's parent before unhashing; unhash must still
	// find and remove the entry under dir (leaf's *former* parent), not
	// silently no-op against a nil-parent bucket.
	_, ok := dc.Lookup(dir, "leaf")
	assert.False(t, ok, "detached child must not remain a zombie dcache entry")
	assert.Nil(t, leaf.Parent())
}

func TestDcacheSameNameDifferentParentsDontCollide(t *testing.T) {
	dc := NewDcache()
	p1 := &Dnode{name: "p1", refCount: 1}
	p2 := &Dnode{name: "p2", refCount: 1}
	c1 := &Dnode{name: "x"}
	c2 := &Dnode{name: "x"}
	dc.Add(p1, c1)
	dc.Add(p2, c2)

	hit, ok := dc.Lookup(p1, "x")
	require.True(t, ok)
	assert.Same(t, c1, hit)

	hit, ok = dc.Lookup(p2, "x")
	require.True(t, ok)
	assert.Same(t, c2, hit)
}
