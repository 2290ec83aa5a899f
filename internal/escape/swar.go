package escape

import (
	"encoding/binary"
	"math/bits"
)

// WindowSize is the number of bytes tested per step.
const WindowSize = 8

const (
	lsb = 0x0101010101010101
	msb = 0x8080808080808080
)

// Load reads the first WindowSize bytes of s as a little-endian word.
func Load(s string) uint64 {
	_ = s[WindowSize-1]
	return uint64(s[0]) | uint64(s[1])<<8 | uint64(s[2])<<16 | uint64(s[3])<<24 |
		uint64(s[4])<<32 | uint64(s[5])<<40 | uint64(s[6])<<48 | uint64(s[7])<<56
}

// LoadBytes reads the first WindowSize bytes of p as a little-endian word.
func LoadBytes(p []byte) uint64 {
	return binary.LittleEndian.Uint64(p)
}

// hasByte sets the high bit of every byte of x equal to c. Bits above the
// first match may be false positives; the lowest set bit is always exact.
func hasByte(x uint64, c byte) uint64 {
	y := x ^ (lsb * uint64(c))
	return (y - lsb) & ^y & msb
}

// lessThan sets the high bit of every byte of x below n (n <= 128), with the
// same lowest-bit exactness as hasByte.
func lessThan(x uint64, n byte) uint64 {
	return (x - lsb*uint64(n)) & ^x & msb
}

// Mask flags bytes of x that need escaping: quote, backslash and control
// characters.
func Mask(x uint64) uint64 {
	return hasByte(x, '"') | hasByte(x, '\\') | lessThan(x, 0x20)
}

// First returns the offset of the lowest flagged byte in a non-zero mask.
func First(mask uint64) int {
	return bits.TrailingZeros64(mask) >> 3
}
