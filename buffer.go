package tojson

import (
	"strconv"
	"unicode/utf8"
)

// Pad is the number of spare bytes Ensure keeps past every reserved region.
// Windowed scanners may copy a full window beyond the logical end of their
// input as long as they stay within Pad.
const Pad = 16

const minBufferSize = 256

// Buffer is a growable output buffer with a separate write cursor.
//
// data[:ix] is the written content, data[ix:] is writable scratch. After
// Ensure(n) returns, at least n+Pad bytes are writable past the cursor, and
// Unchecked writes as well as direct Window writes are legal within that
// region only.
type Buffer struct {
	data []byte
	ix   int
}

// NewBuffer creates a buffer with at least capacity writable bytes.
func NewBuffer(capacity int) *Buffer {
	if capacity < minBufferSize {
		capacity = minBufferSize
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Wrap creates a buffer that appends after the content of dst.
func Wrap(dst []byte) *Buffer {
	ret := &Buffer{data: dst[:cap(dst)], ix: len(dst)}
	ret.Ensure(minBufferSize)
	return ret
}

// Ensure reserves n bytes plus Pad past the cursor, at least doubling the
// allocation when it has to grow.
func (b *Buffer) Ensure(n int) {
	need := b.ix + n + Pad
	if need <= len(b.data) {
		return
	}
	size := 2 * len(b.data)
	if size < need {
		size = need
	}
	if size < minBufferSize {
		size = minBufferSize
	}
	data := make([]byte, size)
	copy(data, b.data[:b.ix])
	b.data = data
}

// Spare returns the number of writable bytes past the cursor.
func (b *Buffer) Spare() int { return len(b.data) - b.ix }

// Len returns the written length.
func (b *Buffer) Len() int { return b.ix }

// Bytes returns the written content; it aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte { return b.data[:b.ix] }

// String returns a copy of the written content.
func (b *Buffer) String() string { return string(b.data[:b.ix]) }

// Reset discards written content and keeps the allocation.
func (b *Buffer) Reset() { b.ix = 0 }

// Truncate moves the cursor back to n.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.ix {
		panic("tojson: truncate out of range")
	}
	b.ix = n
}

// Window returns the writable region past the cursor. Callers write into it
// and commit with Advance.
func (b *Buffer) Window() []byte { return b.data[b.ix:] }

// Advance commits n bytes written through Window.
func (b *Buffer) Advance(n int) {
	if b.ix+n > len(b.data) {
		panic("tojson: advance past reserved region")
	}
	b.ix += n
}

func (b *Buffer) PutByte(c byte) {
	b.Ensure(1)
	b.data[b.ix] = c
	b.ix++
}

func (b *Buffer) PutString(s string) {
	b.Ensure(len(s))
	b.ix += copy(b.data[b.ix:], s)
}

func (b *Buffer) PutBytes(p []byte) {
	b.Ensure(len(p))
	b.ix += copy(b.data[b.ix:], p)
}

// PutByteUnchecked writes c without a capacity check.
func (b *Buffer) PutByteUnchecked(c byte) {
	b.data[b.ix] = c
	b.ix++
}

// PutStringUnchecked writes s without a capacity check.
func (b *Buffer) PutStringUnchecked(s string) {
	b.ix += copy(b.data[b.ix:], s)
}

// PutBytesUnchecked writes p without a capacity check.
func (b *Buffer) PutBytesUnchecked(p []byte) {
	b.ix += copy(b.data[b.ix:], p)
}

// PutRune writes the UTF-8 encoding of r.
func (b *Buffer) PutRune(r rune) {
	b.Ensure(utf8.UTFMax)
	b.ix += utf8.EncodeRune(b.data[b.ix:], r)
}

// PutRepeat writes c n times.
func (b *Buffer) PutRepeat(c byte, n int) {
	if n <= 0 {
		return
	}
	b.Ensure(n)
	w := b.data[b.ix : b.ix+n]
	for i := range w {
		w[i] = c
	}
	b.ix += n
}

func (b *Buffer) PutInt(v int64) {
	b.Ensure(20)
	b.ix = len(strconv.AppendInt(b.data[:b.ix], v, 10))
}

func (b *Buffer) PutUint(v uint64) {
	b.Ensure(20)
	b.ix = len(strconv.AppendUint(b.data[:b.ix], v, 10))
}

func (b *Buffer) PutFloat(v float64, bitSize int) {
	b.Ensure(32)
	b.ix = len(strconv.AppendFloat(b.data[:b.ix], v, 'g', -1, bitSize))
}

func (b *Buffer) PutBool(v bool) {
	if v {
		b.PutString("true")
		return
	}
	b.PutString("false")
}
