package trie

import (
	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/internal/conv"
)

// Root is the start state of every automaton.
const Root uint32 = 0

// node is an automaton state. Children of a node occupy the contiguous range
// nodes[first : first+n], sorted by key.
type node struct {
	first uint32
	n     uint16 // at most 256 children
	key   byte
	fail  uint32
	dict  uint32 // nearest state on the fail chain with outputs, Root if none
	out   uint32 // index into outputs, 0 if none
}

// Automaton is an immutable Aho-Corasick automaton.
type Automaton struct {
	nodes   []node
	outputs [][]*dict.Entry // outputs[0] is unused
	root    [256]uint32
	keys    int
}

// Build converts the trie into an automaton and consumes the builder.
func (b *Builder) Build() (*Automaton, error) {
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true

	total := b.nodes.Len()

	// Breadth-first layout. order doubles as the work list: scanning it in
	// index order visits nodes by depth and appends their children, so each
	// node's children land next to each other, already sorted.
	order := make([]uint32, 1, total)
	nodes := make([]node, total)
	parent := make([]uint32, total) // automaton index -> automaton parent

	for i := 0; i < len(order); i++ {
		bn := b.nodes.At(order[i])
		nodes[i].key = bn.key
		nodes[i].out = bn.out
		nodes[i].first = conv.IntToUint32(len(order))
		for c := bn.child; c != 0; c = b.nodes.At(c).sibling {
			parent[len(order)] = uint32(i)
			order = append(order, c)
		}
		nodes[i].n = conv.IntToUint16(len(order) - int(nodes[i].first))
	}

	a := &Automaton{
		nodes:   nodes,
		outputs: b.outs,
		keys:    b.keys,
	}

	for i := uint32(0); i < uint32(nodes[Root].n); i++ {
		c := nodes[Root].first + i
		a.root[nodes[c].key] = c
	}

	// Failure and output links, in breadth-first order so that every fail
	// target is resolved before it is used.
	for v := 1; v < total; v++ {
		p := parent[v]
		nd := &nodes[v]
		if p == Root {
			nd.fail = Root
		} else {
			f := nodes[p].fail
			for {
				if next := a.child(f, nd.key); next != 0 {
					nd.fail = next
					break
				}
				if f == Root {
					nd.fail = Root
					break
				}
				f = nodes[f].fail
			}
		}
		if nodes[nd.fail].out != 0 {
			nd.dict = nd.fail
		} else {
			nd.dict = nodes[nd.fail].dict
		}
	}

	b.nodes.Reset()
	b.outs = nil
	return a, nil
}

// child returns the child of state s on c, or 0.
func (a *Automaton) child(s uint32, c byte) uint32 {
	if s == Root {
		return a.root[c]
	}
	nd := &a.nodes[s]
	lo, hi := nd.first, nd.first+uint32(nd.n)
	for lo < hi {
		mid := lo + (hi-lo)/2
		switch k := a.nodes[mid].key; {
		case k == c:
			return mid
		case k < c:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Step returns the state reached from s on byte c.
func (a *Automaton) Step(s uint32, c byte) uint32 {
	for {
		if next := a.child(s, c); next != 0 {
			return next
		}
		if s == Root {
			return Root
		}
		s = a.nodes[s].fail
	}
}

// Outputs returns the entries ending at state s, in insertion order.
func (a *Automaton) Outputs(s uint32) []*dict.Entry {
	return a.outputs[a.nodes[s].out]
}

// DictLink returns the nearest proper suffix state of s that has outputs, or
// Root when there is none.
func (a *Automaton) DictLink(s uint32) uint32 {
	return a.nodes[s].dict
}

// Len returns the number of states.
func (a *Automaton) Len() int {
	return len(a.nodes)
}

// Keys returns the number of entries stored in the automaton.
func (a *Automaton) Keys() int {
	return a.keys
}
