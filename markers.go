package tojson

import "unicode/utf16"

// Hidden marks a type that is never written as an object member. Writing it
// directly produces a diagnostic string.
type Hidden struct{}

// Skip marks a type ignored by writers. Writing it directly produces a
// diagnostic string.
type Skip struct{}

// Null always encodes as null.
type Null struct{}

// RawJSON is a pre-formatted JSON fragment written verbatim.
type RawJSON string

// Number is numeric text written verbatim, without quotes or escaping.
type Number string

// Char is a single character written as a one-character string.
type Char rune

// WideString is text stored as UTF-16 code units.
type WideString []uint16

// NewWideString converts s to UTF-16.
func NewWideString(s string) WideString {
	return utf16.Encode([]rune(s))
}

func (w WideString) String() string {
	return string(utf16.Decode(w))
}

// Pair encodes as a one-entry object {"Key":Value}.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// NewPair creates a pair.
func NewPair[K any, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{Key: key, Value: value}
}

func (Pair[K, V]) keyValue() {}

type pairMarker interface{ keyValue() }

// Optional holds a value that may be absent; an absent value is null-like.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some creates a present optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Valid: true} }

// None creates an absent optional.
func None[T any]() Optional[T] { return Optional[T]{} }

func (Optional[T]) optional() {}

type optionalMarker interface{ optional() }

// Merge writes the members of every part into a single object. Parts must be
// objects, maps or pairs (or pointers to them).
type Merge []any

// MergeOf creates a merge of parts.
func MergeOf(parts ...any) Merge { return Merge(parts) }

// Enum is implemented by integer types whose values are written by name.
// EnumNames is called once, on the zero value, when the type is compiled.
// Values missing from the table are written as numbers.
type Enum interface {
	EnumNames() map[int64]string
}

// Tuple, embedded in a struct, makes the struct encode as an array of its
// remaining fields in declaration order.
type Tuple struct{}

func (Tuple) tuple() {}

type tupleMarker interface{ tuple() }

// Flags, embedded in a struct, makes the struct encode as an array of the
// names of its bool fields that are set.
type Flags struct{}

func (Flags) flags() {}

type flagsMarker interface{ flags() }
