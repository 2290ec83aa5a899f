package tagbin

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
)

// The low three bits of a tag byte hold the kind.
const (
	kindNull byte = iota
	kindNumber
	kindString
	kindObject
	kindArray
	kindExtension

	kindMask byte = 0x07
)

// Number and object key classes, stored in bits 3-4.
const (
	classFloat byte = iota
	classSigned
	classUnsigned

	// classString is the object key class of string keys.
	classString = classFloat
)

const (
	extVariant byte = 1
	extComplex byte = 2
)

// Fixed tag values.
const (
	TagNull       byte = kindNull
	TagFalse      byte = kindNull | 1<<3
	TagTrue       byte = kindNull | 1<<3 | 1<<4
	TagString     byte = kindString
	TagWideString byte = kindString | 1<<3
	TagArray      byte = kindArray
	TagVariant    byte = kindExtension | extVariant<<3
	TagComplex    byte = kindExtension | extComplex<<3
)

func numberTag(class byte, width int) byte {
	return kindNumber | class<<3 | byte(bits.TrailingZeros(uint(width)))<<5
}

func objectTag(keyClass byte, keyWidth int) byte {
	return kindObject | keyClass<<3 | byte(bits.TrailingZeros(uint(keyWidth)))<<5
}

func tagKind(tag byte) byte { return tag & kindMask }

func tagClass(tag byte) byte { return (tag >> 3) & 0x03 }

func tagWidth(tag byte) int { return 1 << (tag >> 5) }

// checkNumeric validates the class and width bits of a number tag or an
// object key descriptor.
func checkNumeric(tag byte, allowFloat bool) error {
	width := tag >> 5
	switch tagClass(tag) {
	case classFloat:
		if !allowFloat || width < 2 || width > 3 {
			return errors.Wrapf(tojson.ErrSyntax, "invalid float tag %#x", tag)
		}
	case classSigned, classUnsigned:
		if width > 3 {
			return errors.Wrapf(tojson.ErrSyntax, "invalid integer width in tag %#x", tag)
		}
	default:
		return errors.Wrapf(tojson.ErrSyntax, "invalid number class in tag %#x", tag)
	}
	return nil
}
