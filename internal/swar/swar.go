// Package swar provides word-at-a-time (SIMD Within A Register) byte scans used
// on the matching engine's hot paths.
//
// Both helpers process 8 bytes per iteration using uint64 bit tricks and fall
// back to a byte loop for the tail:
//   - IsASCII lets the UTF-8 position table skip lead-byte classification
//     entirely when a buffer is pure ASCII (byte offset == character offset).
//   - DigitRun measures the run of ASCII digits after a numeric-gap head.
package swar

import "encoding/binary"

const (
	hi8 = uint64(0x8080808080808080)
	lo8 = uint64(0x0101010101010101)
)

// IsASCII reports whether every byte in data is below 0x80.
//
// Algorithm:
//  1. Read 8 bytes as a little-endian uint64
//  2. AND with 0x8080808080808080 to extract the high bits
//  3. Any non-zero result means a non-ASCII byte is present
func IsASCII(data []byte) bool {
	n := len(data)
	idx := 0
	for idx+8 <= n {
		if binary.LittleEndian.Uint64(data[idx:])&hi8 != 0 {
			return false
		}
		idx += 8
	}
	for ; idx < n; idx++ {
		if data[idx] >= 0x80 {
			return false
		}
	}
	return true
}

// DigitRun returns the number of consecutive ASCII digits [0-9] at the start
// of data, stopping after max digits. A negative max means no limit.
//
// Whole words of digits are skipped 8 bytes at a time: a word is all digits
// when every byte is >= '0' and every byte is <= '9', which is tested by
// checking the high bit of (b - '0') and (b + 0x46) across the word.
func DigitRun(data []byte, max int) int {
	n := len(data)
	if max >= 0 && max < n {
		n = max
	}

	idx := 0
	for idx+8 <= n {
		w := binary.LittleEndian.Uint64(data[idx:])
		// Bytes >= 0x80 would fool the subtraction below.
		if w&hi8 != 0 || !allDigits(w) {
			break
		}
		idx += 8
	}
	for idx < n && data[idx]-'0' <= 9 {
		idx++
	}
	return idx
}

// allDigits reports whether all 8 ASCII bytes of w are in ['0', '9'].
// The caller guarantees every byte is below 0x80.
func allDigits(w uint64) bool {
	// b < '0'  <=> b - 0x30 borrows into the high bit.
	below := (w - lo8*'0') & hi8
	// b > '9'  <=> b + (0x7F - '9') sets the high bit.
	above := (w + lo8*(0x7F-'9')) & hi8
	return below|above == 0
}
