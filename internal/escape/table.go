// Package escape holds the JSON string escape table and the word-at-a-time
// scanning primitives used by string writers.
package escape

// Table maps a byte to its two-byte escape, low byte first. Zero means the
// byte has no short escape.
var Table = buildTable()

func buildTable() [256]uint16 {
	var t [256]uint16
	set := func(c byte, esc byte) {
		t[c] = uint16('\\') | uint16(esc)<<8
	}
	set('"', '"')
	set('\\', '\\')
	set('\b', 'b')
	set('\t', 't')
	set('\n', 'n')
	set('\f', 'f')
	set('\r', 'r')
	return t
}

const hex = "0123456789abcdef"

// NeedsEscape reports whether c must be escaped inside a JSON string.
func NeedsEscape(c byte) bool {
	return c < 0x20 || c == '"' || c == '\\'
}

// PutShort writes the two-byte escape for c into dst and reports whether c
// has one.
func PutShort(dst []byte, c byte) bool {
	e := Table[c]
	if e == 0 {
		return false
	}
	dst[0] = byte(e)
	dst[1] = byte(e >> 8)
	return true
}

// UnicodeLen is the length of a \u00XX escape.
const UnicodeLen = 6

// PutUnicode writes the \u00XX escape for a control byte into dst.
func PutUnicode(dst []byte, c byte) {
	dst[0] = '\\'
	dst[1] = 'u'
	dst[2] = '0'
	dst[3] = '0'
	dst[4] = hex[c>>4]
	dst[5] = hex[c&0xF]
}

// Needs reports whether any byte of s must be escaped.
func Needs(s string) bool {
	i := 0
	for ; i+WindowSize <= len(s); i += WindowSize {
		if Mask(Load(s[i:])) != 0 {
			return true
		}
	}
	for ; i < len(s); i++ {
		if NeedsEscape(s[i]) {
			return true
		}
	}
	return false
}
