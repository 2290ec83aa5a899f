package tojson

import (
	"encoding"
	stdjson "encoding/json"
	"reflect"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Shape is the encoder category of a type. Every supported type belongs to
// exactly one shape.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeHidden
	ShapeAlwaysNull
	ShapeRaw
	ShapeRawNumber
	ShapeChar
	ShapeWideString
	ShapeTime
	ShapeMerge
	ShapePair
	ShapeOptional
	ShapeEnum
	ShapeTuple
	ShapeCustom
	ShapeBool
	ShapeNumeric
	ShapeComplex
	ShapeString
	ShapePointer
	ShapeVariant
	ShapeDynamic
	ShapeSequence
	ShapeFixedArray
	ShapeMap
	ShapeObject
	ShapeOpaque
	ShapeFlags
	ShapeBitset
)

var shapeNames = [...]string{
	ShapeInvalid:    "invalid",
	ShapeHidden:     "hidden",
	ShapeAlwaysNull: "null",
	ShapeRaw:        "raw",
	ShapeRawNumber:  "raw-number",
	ShapeChar:       "char",
	ShapeWideString: "wide-string",
	ShapeTime:       "time",
	ShapeMerge:      "merge",
	ShapePair:       "pair",
	ShapeOptional:   "optional",
	ShapeEnum:       "enum",
	ShapeTuple:      "tuple",
	ShapeCustom:     "custom",
	ShapeBool:       "bool",
	ShapeNumeric:    "numeric",
	ShapeComplex:    "complex",
	ShapeString:     "string",
	ShapePointer:    "pointer",
	ShapeVariant:    "variant",
	ShapeDynamic:    "dynamic",
	ShapeSequence:   "sequence",
	ShapeFixedArray: "fixed-array",
	ShapeMap:        "map",
	ShapeObject:     "object",
	ShapeOpaque:     "opaque",
	ShapeFlags:      "flags",
	ShapeBitset:     "bitset",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "invalid"
	}
	return shapeNames[s]
}

// IsObjectLike reports whether values of the shape encode as a JSON object
// whose members can be merged into another object.
func (s Shape) IsObjectLike() bool {
	switch s {
	case ShapeObject, ShapeMap, ShapePair, ShapeMerge:
		return true
	}
	return false
}

var (
	hiddenType     = reflect.TypeOf((*Hidden)(nil)).Elem()
	skipType       = reflect.TypeOf((*Skip)(nil)).Elem()
	nullType       = reflect.TypeOf((*Null)(nil)).Elem()
	rawJSONType    = reflect.TypeOf((*RawJSON)(nil)).Elem()
	rawMessageType = reflect.TypeOf((*stdjson.RawMessage)(nil)).Elem()
	numberType     = reflect.TypeOf((*Number)(nil)).Elem()
	charType       = reflect.TypeOf((*Char)(nil)).Elem()
	wideStringType = reflect.TypeOf((*WideString)(nil)).Elem()
	timeType       = reflect.TypeOf((*time.Time)(nil)).Elem()
	mergeType      = reflect.TypeOf((*Merge)(nil)).Elem()
	tupleType      = reflect.TypeOf((*Tuple)(nil)).Elem()
	flagsType      = reflect.TypeOf((*Flags)(nil)).Elem()
	bitsetType     = reflect.TypeOf((*bitset.BitSet)(nil)).Elem()

	pairMarkerType     = reflect.TypeOf((*pairMarker)(nil)).Elem()
	optionalMarkerType = reflect.TypeOf((*optionalMarker)(nil)).Elem()
	tupleMarkerType    = reflect.TypeOf((*tupleMarker)(nil)).Elem()
	flagsMarkerType    = reflect.TypeOf((*flagsMarker)(nil)).Elem()
	enumType           = reflect.TypeOf((*Enum)(nil)).Elem()
	jsonMarshalerType  = reflect.TypeOf((*stdjson.Marshaler)(nil)).Elem()
	textMarshalerType  = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// IsTupleMarker reports whether t is the embedded Tuple marker itself.
func IsTupleMarker(t reflect.Type) bool { return t == tupleType }

// IsFlagsMarker reports whether t is the embedded Flags marker itself.
func IsFlagsMarker(t reflect.Type) bool { return t == flagsType }

// IsJSONMarshaler reports whether t or *t implements encoding/json.Marshaler.
func IsJSONMarshaler(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(jsonMarshalerType))
}

// IsTextMarshaler reports whether t or *t implements encoding.TextMarshaler.
func IsTextMarshaler(t reflect.Type) bool {
	return t.Implements(textMarshalerType) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textMarshalerType))
}

// Classify resolves the shape of t. Checks run in a fixed order so marker
// types win over the kind they are built on.
func Classify(t reflect.Type) (Shape, error) {
	if t == nil {
		return ShapeInvalid, errors.Wrap(ErrUnsupportedType, "nil type")
	}
	switch t {
	case hiddenType, skipType:
		return ShapeHidden, nil
	case nullType:
		return ShapeAlwaysNull, nil
	case rawJSONType, rawMessageType:
		return ShapeRaw, nil
	case numberType:
		return ShapeRawNumber, nil
	case charType:
		return ShapeChar, nil
	case wideStringType:
		return ShapeWideString, nil
	case timeType:
		return ShapeTime, nil
	case mergeType:
		return ShapeMerge, nil
	case bitsetType:
		return ShapeBitset, nil
	}
	if t.Kind() == reflect.Pointer && t.Elem() == bitsetType {
		return ShapePointer, nil
	}
	switch t.Kind() {
	case reflect.Struct:
		if t.Implements(pairMarkerType) && isMarkerLayout(t, "Key", "Value") {
			return ShapePair, nil
		}
		if t.Implements(optionalMarkerType) && isMarkerLayout(t, "Value", "Valid") {
			return ShapeOptional, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.Implements(enumType) {
			return ShapeEnum, nil
		}
	}
	if t.Kind() == reflect.Struct && t.Implements(tupleMarkerType) {
		return ShapeTuple, nil
	}
	if t.Kind() == reflect.Struct && t.Implements(flagsMarkerType) {
		return ShapeFlags, nil
	}
	if t.Kind() != reflect.Interface && (IsJSONMarshaler(t) || IsTextMarshaler(t)) {
		return ShapeCustom, nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return ShapeBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return ShapeNumeric, nil
	case reflect.Complex64, reflect.Complex128:
		return ShapeComplex, nil
	case reflect.String:
		return ShapeString, nil
	case reflect.Pointer:
		return ShapePointer, nil
	case reflect.Interface:
		if _, ok := LookupVariant(t); ok {
			return ShapeVariant, nil
		}
		return ShapeDynamic, nil
	case reflect.Slice:
		return ShapeSequence, nil
	case reflect.Array:
		return ShapeFixedArray, nil
	case reflect.Map:
		if err := checkMapKey(t.Key()); err != nil {
			return ShapeInvalid, errors.Wrapf(err, "map %v", t)
		}
		return ShapeMap, nil
	case reflect.Struct:
		return ShapeObject, nil
	case reflect.Func, reflect.Chan:
		return ShapeOpaque, nil
	}
	return ShapeInvalid, errors.Wrapf(ErrUnsupportedType, "%v", t)
}

// isMarkerLayout excludes structs that only embed a marker type.
func isMarkerLayout(t reflect.Type, first, second string) bool {
	return t.NumField() == 2 && t.Field(0).Name == first && t.Field(1).Name == second
}

func checkMapKey(key reflect.Type) error {
	shape, err := Classify(key)
	if err != nil {
		return err
	}
	switch shape {
	case ShapeString, ShapeChar, ShapeEnum, ShapeNumeric, ShapeBool, ShapeRawNumber,
		ShapeCustom, ShapeTime, ShapeComplex, ShapeObject, ShapeTuple, ShapeFixedArray:
		return nil
	}
	return errors.Wrapf(ErrUnsupportedType, "key %v of shape %v", key, shape)
}
