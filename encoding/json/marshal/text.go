package marshal

import (
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	"github.com/viant/tojson"
	"github.com/viant/tojson/internal/escape"
	"github.com/viant/xunsafe"
)

func newStringWriter(cfg Config) func(buf *tojson.Buffer, s string) {
	switch {
	case cfg.Raw:
		return func(buf *tojson.Buffer, s string) { buf.PutString(s) }
	case cfg.RawString:
		return writeRawString
	case cfg.DropNullBytes:
		return func(buf *tojson.Buffer, s string) { writeEscaped(buf, s, true) }
	}
	return func(buf *tojson.Buffer, s string) { writeEscaped(buf, s, false) }
}

// WriteString writes s as an escaped JSON string literal.
func WriteString(buf *tojson.Buffer, s string) {
	writeEscaped(buf, s, false)
}

// writeRawString quotes s without escaping.
func writeRawString(buf *tojson.Buffer, s string) {
	buf.Ensure(len(s) + 2)
	buf.PutByteUnchecked('"')
	buf.PutStringUnchecked(s)
	buf.PutByteUnchecked('"')
}

// writeEscaped reserves the worst case once, then copies s a window at a
// time, patching escapes over the copied bytes.
//
// Invariant at input offset i: at least 2*(len(s)-i) + 1 + WindowSize bytes
// are reserved past j, so a full window copy and the closing quote always
// fit. Only \u00XX escapes exceed two output bytes per input byte; they
// re-reserve before writing.
func writeEscaped(buf *tojson.Buffer, s string, dropNUL bool) {
	n := len(s)
	buf.Ensure(2*n + 2 + escape.WindowSize)
	w := buf.Window()
	w[0] = '"'
	j := 1
	i := 0
	for i+escape.WindowSize <= n {
		copy(w[j:j+escape.WindowSize], s[i:i+escape.WindowSize])
		mask := escape.Mask(escape.Load(s[i:]))
		if mask == 0 {
			i += escape.WindowSize
			j += escape.WindowSize
			continue
		}
		off := escape.First(mask)
		i += off
		j += off
		w, j = putEscape(buf, w, j, s, i, dropNUL)
		i++
	}
	for ; i < n; i++ {
		c := s[i]
		if !escape.NeedsEscape(c) {
			w[j] = c
			j++
			continue
		}
		w, j = putEscape(buf, w, j, s, i, dropNUL)
	}
	w[j] = '"'
	buf.Advance(j + 1)
}

func putEscape(buf *tojson.Buffer, w []byte, j int, s string, i int, dropNUL bool) ([]byte, int) {
	c := s[i]
	if escape.PutShort(w[j:], c) {
		return w, j + 2
	}
	if c == 0 && dropNUL {
		return w, j
	}
	buf.Advance(j)
	buf.Ensure(escape.UnicodeLen + 2*(len(s)-i-1) + 1 + escape.WindowSize)
	w = buf.Window()
	escape.PutUnicode(w, c)
	return w, escape.UnicodeLen
}

func (c *compiler) buildString(p *Plan) {
	write := c.e.writeString
	p.encode = func(s *session, ptr unsafe.Pointer) {
		write(s.buf, xunsafe.AsString(ptr))
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return xunsafe.AsString(ptr) == "" }
}

func (c *compiler) buildChar(p *Plan) {
	cfg := c.e.cfg
	write := c.e.writeString
	p.encode = func(s *session, ptr unsafe.Pointer) {
		r := *(*rune)(ptr)
		if cfg.Raw {
			s.buf.PutRune(r)
			return
		}
		if r >= utf8.RuneSelf || cfg.RawString {
			s.buf.Ensure(utf8.UTFMax + 2)
			s.buf.PutByteUnchecked('"')
			s.buf.PutRune(r)
			s.buf.PutByteUnchecked('"')
			return
		}
		var one [1]byte
		one[0] = byte(r)
		write(s.buf, unsafe.String(&one[0], 1))
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return *(*rune)(ptr) == 0 }
}

func (c *compiler) buildWideString(p *Plan) {
	write := c.e.writeString
	p.encode = func(s *session, ptr unsafe.Pointer) {
		units := *(*tojson.WideString)(ptr)
		write(s.buf, string(utf16.Decode(units)))
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return len(*(*tojson.WideString)(ptr)) == 0 }
}
