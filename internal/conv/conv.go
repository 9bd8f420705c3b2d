// Package conv provides checked integer conversion helpers for the matching engine.
//
// Node, slot and tag identifiers are stored as uint32 to keep arena records
// small. Narrowing an int into one of those fields must never wrap silently:
// a wrapped node index would corrupt the automaton. These helpers panic on
// overflow, which the engine treats as fatal resource exhaustion.
package conv

import "math"

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Compare as uint so 32-bit platforms never overflow the constant.
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// IntToUint16 safely converts an int to uint16.
// Panics if n < 0 or n > math.MaxUint16.
//
//go:inline
func IntToUint16(n int) uint16 {
	if n < 0 || n > math.MaxUint16 {
		panic("integer overflow: int value out of uint16 range")
	}
	return uint16(n)
}
