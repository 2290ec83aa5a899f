package tojson

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// AppendBits appends one '0' or '1' digit per bit of b, highest index first.
func AppendBits(dst []byte, b *bitset.BitSet) []byte {
	for i := b.Len(); i > 0; i-- {
		if b.Test(i - 1) {
			dst = append(dst, '1')
			continue
		}
		dst = append(dst, '0')
	}
	return dst
}

// ParseBits reverses AppendBits; the set has one bit per digit.
func ParseBits(text string) (*bitset.BitSet, error) {
	n := uint(len(text))
	ret := bitset.New(n)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '1':
			ret.Set(n - 1 - uint(i))
		case '0':
		default:
			return nil, errors.Wrapf(ErrSyntax, "invalid bit digit %q at %d", text[i], i)
		}
	}
	return ret, nil
}
