package trie

import (
	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/internal/segarray"
)

// builderNode is a trie node during construction.
//
// Index 0 is the root. Since the root is never a child or sibling, 0 doubles
// as "none" for the child, sibling and out fields.
type builderNode struct {
	key     byte
	child   uint32 // first child; siblings are sorted by key
	sibling uint32
	out     uint32 // index into Builder.outs
}

// Builder accumulates keywords into a trie.
type Builder struct {
	nodes *segarray.Array[builderNode]
	outs  [][]*dict.Entry // outs[0] is unused
	keys  int
	built bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	b := &Builder{
		nodes: segarray.New[builderNode](),
		outs:  make([][]*dict.Entry, 1, 64),
	}
	b.nodes.Alloc() // root
	return b
}

// Insert adds e under key.
//
// Duplicate keys keep the entry inserted first: a whole-keyword entry is
// dropped when the key already carries one, and a fragment is dropped when
// the key already carries a fragment of the same origin. Entries with an
// Origin count as whole keywords when they have the Single property.
// Insert reports whether e was added.
func (b *Builder) Insert(key []byte, e *dict.Entry) (bool, error) {
	if b.built {
		return false, ErrBuilt
	}
	if len(key) == 0 {
		return false, ErrEmptyKeyword
	}

	cur := uint32(0)
	for _, c := range key {
		cur = b.child(cur, c)
	}

	n := b.nodes.At(cur)
	if n.out == 0 {
		b.outs = append(b.outs, nil)
		n.out = uint32(len(b.outs) - 1)
	}
	for _, have := range b.outs[n.out] {
		if sameSlot(have, e) {
			return false, nil
		}
	}
	b.outs[n.out] = append(b.outs[n.out], e)
	b.keys++
	return true, nil
}

// sameSlot reports whether have already occupies the slot e would take.
func sameSlot(have, e *dict.Entry) bool {
	if whole(e) {
		return whole(have)
	}
	return !whole(have) && have.Origin == e.Origin
}

// whole reports whether e stands for a complete keyword rather than a
// fragment of a gap pattern.
func whole(e *dict.Entry) bool {
	return e.Origin == nil || e.Prop.Has(dict.Single)
}

// child returns the child of parent on c, creating it if needed.
func (b *Builder) child(parent uint32, c byte) uint32 {
	p := b.nodes.At(parent)
	prev := uint32(0)
	next := p.child
	for next != 0 {
		n := b.nodes.At(next)
		if n.key == c {
			return next
		}
		if n.key > c {
			break
		}
		prev, next = next, n.sibling
	}

	idx := b.nodes.Append(builderNode{key: c, sibling: next})
	if prev == 0 {
		p.child = idx
	} else {
		b.nodes.At(prev).sibling = idx
	}
	return idx
}

// Len returns the number of trie nodes, including the root.
func (b *Builder) Len() int {
	return b.nodes.Len()
}

// Keys returns the number of entries inserted.
func (b *Builder) Keys() int {
	return b.keys
}
