// Package sparse provides a sparse set over a dense universe of uint32 values.
//
// A sparse set supports O(1) insertion, deletion, membership testing and,
// most importantly for the matching engine, O(1) Clear. The history cache
// uses it to remember which pattern tags currently own a pending chain, so
// that rewinding a scan context never walks the whole tag table.
package sparse

// Set is a set of uint32 values in [0, capacity).
// It keeps a sparse array (value -> dense slot) and a dense array (the members
// in insertion order). A value is a member iff its sparse slot points at a
// dense entry holding that same value, so stale sparse slots are harmless.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// New creates an empty set able to hold values in [0, capacity).
func New(capacity int) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set and reports whether it was newly added.
// Values outside the universe are rejected.
func (s *Set) Insert(value uint32) bool {
	if int(value) >= len(s.sparse) || s.Contains(value) {
		return false
	}
	//nolint:gosec // G115: dense never grows past len(sparse), which fits uint32
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if int(value) >= len(s.sparse) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Remove deletes value from the set. Missing values are a no-op.
// The last member is moved into the vacated dense slot.
func (s *Set) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}
	idx := s.sparse[value]
	last := s.dense[len(s.dense)-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.dense = s.dense[:len(s.dense)-1]
}

// Clear empties the set in O(1).
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.dense)
}
