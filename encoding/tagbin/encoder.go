package tagbin

import (
	"encoding"
	"encoding/binary"
	stdjson "encoding/json"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"github.com/viant/tojson"
)

type encodeFn func(w *writer, v reflect.Value)

// writer carries the output buffer and context of one encoding call.
type writer struct {
	ctx *tojson.Context
	buf *tojson.Buffer
}

func (w *writer) uvarint(v uint64) {
	w.buf.Ensure(binary.MaxVarintLen64)
	w.buf.Advance(binary.PutUvarint(w.buf.Window(), v))
}

// fixed writes the low width bytes of v little-endian.
func (w *writer) fixed(v uint64, width int) {
	w.buf.Ensure(8)
	win := w.buf.Window()
	switch width {
	case 1:
		win[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(win, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(win, uint32(v))
	default:
		binary.LittleEndian.PutUint64(win, v)
	}
	w.buf.Advance(width)
}

func (w *writer) text(s string) {
	w.uvarint(uint64(len(s)))
	w.buf.PutString(s)
}

func (w *writer) string(s string) {
	w.buf.PutByte(TagString)
	w.text(s)
}

func (w *writer) float(v float64, width int) {
	w.buf.PutByte(numberTag(classFloat, width))
	if width == 4 {
		w.fixed(uint64(math.Float32bits(float32(v))), 4)
		return
	}
	w.fixed(math.Float64bits(v), 8)
}

func (c *compiler) buildEncoder(t reflect.Type, shape tojson.Shape) (encodeFn, error) {
	switch shape {
	case tojson.ShapeHidden, tojson.ShapeAlwaysNull, tojson.ShapeOpaque:
		return func(w *writer, _ reflect.Value) { w.buf.PutByte(TagNull) }, nil
	case tojson.ShapeRaw:
		if t.Kind() == reflect.String {
			return func(w *writer, v reflect.Value) { w.string(v.String()) }, nil
		}
		return func(w *writer, v reflect.Value) {
			w.buf.PutByte(TagString)
			raw := v.Bytes()
			w.uvarint(uint64(len(raw)))
			w.buf.PutBytes(raw)
		}, nil
	case tojson.ShapeRawNumber, tojson.ShapeString:
		return func(w *writer, v reflect.Value) { w.string(v.String()) }, nil
	case tojson.ShapeChar:
		return func(w *writer, v reflect.Value) { w.string(string(rune(v.Int()))) }, nil
	case tojson.ShapeWideString:
		return func(w *writer, v reflect.Value) {
			if v.IsNil() {
				w.buf.PutByte(TagNull)
				return
			}
			units := v.Interface().(tojson.WideString)
			w.buf.PutByte(TagWideString)
			w.uvarint(uint64(len(units)))
			for _, u := range units {
				w.fixed(uint64(u), 2)
			}
		}, nil
	case tojson.ShapeTime:
		return func(w *writer, v reflect.Value) {
			w.string(v.Interface().(time.Time).Format(time.RFC3339Nano))
		}, nil
	case tojson.ShapeBool:
		return func(w *writer, v reflect.Value) {
			if v.Bool() {
				w.buf.PutByte(TagTrue)
				return
			}
			w.buf.PutByte(TagFalse)
		}, nil
	case tojson.ShapeEnum, tojson.ShapeNumeric:
		return numberEncoder(t), nil
	case tojson.ShapeComplex:
		width := int(t.Size() / 2)
		return func(w *writer, v reflect.Value) {
			x := v.Complex()
			w.buf.PutByte(TagComplex)
			w.float(real(x), width)
			w.float(imag(x), width)
		}, nil
	case tojson.ShapeCustom:
		return customEncoder(t), nil
	case tojson.ShapePointer:
		elem, err := c.encoder(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(w *writer, v reflect.Value) {
			if v.IsNil() {
				w.buf.PutByte(TagNull)
				return
			}
			elem(w, v.Elem())
		}, nil
	case tojson.ShapeOptional:
		return c.optionalEncoder(t)
	case tojson.ShapeVariant:
		return c.variantEncoder(t)
	case tojson.ShapeDynamic:
		return func(w *writer, v reflect.Value) {
			if v.IsNil() {
				w.buf.PutByte(TagNull)
				return
			}
			dynamic := v.Elem()
			fn, err := c.r.encoder(dynamic.Type())
			if err != nil {
				w.ctx.SetError(err)
				w.buf.PutByte(TagNull)
				return
			}
			fn(w, dynamic)
		}, nil
	case tojson.ShapeSequence, tojson.ShapeFixedArray:
		elem, err := c.encoder(t.Elem())
		if err != nil {
			return nil, err
		}
		isSlice := t.Kind() == reflect.Slice
		return func(w *writer, v reflect.Value) {
			if isSlice && v.IsNil() {
				w.buf.PutByte(TagNull)
				return
			}
			n := v.Len()
			w.buf.PutByte(TagArray)
			w.uvarint(uint64(n))
			for i := 0; i < n; i++ {
				elem(w, v.Index(i))
			}
		}, nil
	case tojson.ShapeTuple:
		return c.tupleEncoder(t)
	case tojson.ShapeMap:
		return c.mapEncoder(t)
	case tojson.ShapePair:
		return c.pairEncoder(t)
	case tojson.ShapeObject, tojson.ShapeFlags:
		return c.objectEncoder(t)
	case tojson.ShapeBitset:
		return func(w *writer, v reflect.Value) {
			bits := v.Interface().(bitset.BitSet)
			w.buf.PutByte(TagString)
			w.uvarint(uint64(bits.Len()))
			w.buf.Ensure(int(bits.Len()))
			w.buf.Advance(len(tojson.AppendBits(w.buf.Window()[:0], &bits)))
		}, nil
	}
	return nil, errors.Wrapf(tojson.ErrUnsupportedType, "%v has no binary encoding", shape)
}

func numberEncoder(t reflect.Type) encodeFn {
	width := int(t.Size())
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return func(w *writer, v reflect.Value) { w.float(v.Float(), width) }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		tag := numberTag(classSigned, width)
		return func(w *writer, v reflect.Value) {
			w.buf.PutByte(tag)
			w.fixed(uint64(v.Int()), width)
		}
	}
	tag := numberTag(classUnsigned, width)
	return func(w *writer, v reflect.Value) {
		w.buf.PutByte(tag)
		w.fixed(v.Uint(), width)
	}
}

// customEncoder writes the text form of a TextMarshaler, or else the JSON
// form of a json.Marshaler, as a string.
func customEncoder(t reflect.Type) encodeFn {
	text := tojson.IsTextMarshaler(t)
	return func(w *writer, v reflect.Value) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			w.buf.PutByte(TagNull)
			return
		}
		target := addressable(v)
		var data []byte
		var err error
		if text {
			data, err = target.Interface().(encoding.TextMarshaler).MarshalText()
		} else {
			data, err = target.Interface().(stdjson.Marshaler).MarshalJSON()
		}
		if err != nil {
			w.ctx.SetError(errors.Wrapf(err, "failed to marshal %v", t))
			w.buf.PutByte(TagNull)
			return
		}
		w.buf.PutByte(TagString)
		w.uvarint(uint64(len(data)))
		w.buf.PutBytes(data)
	}
}

// addressable returns a pointer to v when v is not itself a pointer, so
// methods with pointer receivers are reachable.
func addressable(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	tmp := reflect.New(v.Type())
	tmp.Elem().Set(v)
	return tmp
}

func (c *compiler) optionalEncoder(t reflect.Type) (encodeFn, error) {
	valueField, _ := t.FieldByName("Value")
	validField, _ := t.FieldByName("Valid")
	elem, err := c.encoder(valueField.Type)
	if err != nil {
		return nil, err
	}
	return func(w *writer, v reflect.Value) {
		if !v.FieldByIndex(validField.Index).Bool() {
			w.buf.PutByte(TagNull)
			return
		}
		elem(w, v.FieldByIndex(valueField.Index))
	}, nil
}

func (c *compiler) variantEncoder(t reflect.Type) (encodeFn, error) {
	variant, _ := tojson.LookupVariant(t)
	alternatives := make([]encodeFn, len(variant.Alternatives))
	for i, alt := range variant.Alternatives {
		fn, err := c.encoder(alt.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "alternative %v", alt.ID)
		}
		alternatives[i] = fn
	}
	return func(w *writer, v reflect.Value) {
		if v.IsNil() {
			w.buf.PutByte(TagNull)
			return
		}
		dynamic := v.Elem()
		idx := variant.Index(dynamic.Type())
		if idx < 0 {
			w.ctx.SetError(errors.Wrapf(tojson.ErrUnknownAlternative, "%v in %v", dynamic.Type(), t))
			w.buf.PutByte(TagNull)
			return
		}
		w.buf.PutByte(TagVariant)
		w.uvarint(uint64(idx))
		alternatives[idx](w, dynamic)
	}, nil
}

type fieldEncoder struct {
	name  string
	index []int
	fn    encodeFn
}

// exportedFields lists the exported fields of t that carry a value.
func exportedFields(t reflect.Type) []reflect.StructField {
	var ret []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || tojson.IsTupleMarker(field.Type) || tojson.IsFlagsMarker(field.Type) {
			continue
		}
		if shape, err := tojson.Classify(field.Type); err == nil && (shape == tojson.ShapeHidden || shape == tojson.ShapeOpaque) {
			continue
		}
		ret = append(ret, field)
	}
	return ret
}

func (c *compiler) fieldEncoders(t reflect.Type) ([]fieldEncoder, error) {
	fields := exportedFields(t)
	ret := make([]fieldEncoder, 0, len(fields))
	for _, field := range fields {
		fn, err := c.encoder(field.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %v", field.Name)
		}
		ret = append(ret, fieldEncoder{name: field.Name, index: field.Index, fn: fn})
	}
	return ret, nil
}

func (c *compiler) objectEncoder(t reflect.Type) (encodeFn, error) {
	fields, err := c.fieldEncoders(t)
	if err != nil {
		return nil, err
	}
	tag := objectTag(classString, 1)
	return func(w *writer, v reflect.Value) {
		w.buf.PutByte(tag)
		w.uvarint(uint64(len(fields)))
		for i := range fields {
			w.text(fields[i].name)
			fields[i].fn(w, v.FieldByIndex(fields[i].index))
		}
	}, nil
}

func (c *compiler) tupleEncoder(t reflect.Type) (encodeFn, error) {
	fields, err := c.fieldEncoders(t)
	if err != nil {
		return nil, err
	}
	return func(w *writer, v reflect.Value) {
		w.buf.PutByte(TagArray)
		w.uvarint(uint64(len(fields)))
		for i := range fields {
			fields[i].fn(w, v.FieldByIndex(fields[i].index))
		}
	}, nil
}

// keyEncoder returns the object tag for maps keyed by t and the writer of
// one untagged key.
func keyEncoder(t reflect.Type) (byte, func(w *writer, key reflect.Value), error) {
	width := int(t.Size())
	switch t.Kind() {
	case reflect.String:
		return objectTag(classString, 1), func(w *writer, key reflect.Value) { w.text(key.String()) }, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return objectTag(classSigned, width), func(w *writer, key reflect.Value) { w.fixed(uint64(key.Int()), width) }, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return objectTag(classUnsigned, width), func(w *writer, key reflect.Value) { w.fixed(key.Uint(), width) }, nil
	}
	return 0, nil, errors.Wrapf(tojson.ErrUnsupportedType, "binary object key %v", t)
}

func keyLess(kind reflect.Kind) func(a, b reflect.Value) bool {
	switch kind {
	case reflect.String:
		return func(a, b reflect.Value) bool { return a.String() < b.String() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) bool { return a.Int() < b.Int() }
	}
	return func(a, b reflect.Value) bool { return a.Uint() < b.Uint() }
}

func (c *compiler) mapEncoder(t reflect.Type) (encodeFn, error) {
	tag, writeKey, err := keyEncoder(t.Key())
	if err != nil {
		return nil, err
	}
	elem, err := c.encoder(t.Elem())
	if err != nil {
		return nil, err
	}
	less := keyLess(t.Key().Kind())
	return func(w *writer, v reflect.Value) {
		if v.IsNil() {
			w.buf.PutByte(TagNull)
			return
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
		w.buf.PutByte(tag)
		w.uvarint(uint64(len(keys)))
		for _, key := range keys {
			writeKey(w, key)
			elem(w, v.MapIndex(key))
		}
	}, nil
}

func (c *compiler) pairEncoder(t reflect.Type) (encodeFn, error) {
	tag, writeKey, err := keyEncoder(t.Field(0).Type)
	if err != nil {
		return nil, err
	}
	value, err := c.encoder(t.Field(1).Type)
	if err != nil {
		return nil, err
	}
	return func(w *writer, v reflect.Value) {
		w.buf.PutByte(tag)
		w.uvarint(1)
		writeKey(w, v.Field(0))
		value(w, v.Field(1))
	}, nil
}
