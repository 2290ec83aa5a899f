package tagbin

import (
	"encoding"
	stdjson "encoding/json"
	"math"
	"reflect"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dennwc/varint"
	"github.com/pkg/errors"
	"github.com/viant/tojson"
)

// maxDepth bounds value nesting; deeper input is a syntax error.
const maxDepth = 10000

// decodeFn decodes the value introduced by tag into the settable v.
type decodeFn func(d *decoder, tag byte, v reflect.Value)

// decoder reads one input; the first failure is kept in ctx and every later
// read returns immediately.
type decoder struct {
	ctx   *tojson.Context
	data  []byte
	pos   int
	depth int
}

func (d *decoder) enter() bool {
	if d.depth >= maxDepth {
		d.syntax("nesting deeper than %d at offset %d", maxDepth, d.pos)
		return false
	}
	d.depth++
	return true
}

func (d *decoder) leave() { d.depth-- }

// descend runs fn one nesting level down.
func (d *decoder) descend(fn decodeFn, tag byte, v reflect.Value) {
	if !d.enter() {
		return
	}
	fn(d, tag, v)
	d.leave()
}

func (d *decoder) fail(err error) {
	d.ctx.SetError(err)
}

func (d *decoder) syntax(format string, args ...interface{}) {
	d.fail(errors.Wrapf(tojson.ErrSyntax, format, args...))
}

func (d *decoder) truncated() {
	d.fail(errors.Wrapf(tojson.ErrUnexpectedEnd, "at offset %d", d.pos))
}

func (d *decoder) tag() (byte, bool) {
	if d.ctx.Failed() {
		return 0, false
	}
	if d.pos >= len(d.data) {
		d.truncated()
		return 0, false
	}
	ret := d.data[d.pos]
	d.pos++
	return ret, true
}

func (d *decoder) uvarint() (uint64, bool) {
	if d.ctx.Failed() {
		return 0, false
	}
	v, n := varint.Uvarint(d.data[d.pos:])
	switch {
	case n == 0:
		d.truncated()
		return 0, false
	case n < 0:
		d.syntax("varint overflow at offset %d", d.pos)
		return 0, false
	}
	d.pos += n
	return v, true
}

// count reads an element count; every element takes at least one byte.
func (d *decoder) count() (int, bool) {
	n, ok := d.uvarint()
	if !ok {
		return 0, false
	}
	if n > uint64(len(d.data)-d.pos) {
		d.truncated()
		return 0, false
	}
	return int(n), true
}

func (d *decoder) take(n uint64) ([]byte, bool) {
	if d.ctx.Failed() {
		return nil, false
	}
	if n > uint64(len(d.data)-d.pos) {
		d.truncated()
		return nil, false
	}
	ret := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return ret, true
}

func (d *decoder) fixed(width int) (uint64, bool) {
	raw, ok := d.take(uint64(width))
	if !ok {
		return 0, false
	}
	var ret uint64
	for i := width - 1; i >= 0; i-- {
		ret = ret<<8 | uint64(raw[i])
	}
	return ret, true
}

func (d *decoder) expectKind(tag, kind byte) bool {
	if tagKind(tag) != kind {
		d.syntax("unexpected tag %#x at offset %d", tag, d.pos-1)
		return false
	}
	return true
}

// number is a decoded numeric payload.
type number struct {
	class byte
	width int
	bits  uint64
}

func (n number) int64() int64 {
	switch n.class {
	case classSigned:
		shift := 64 - 8*n.width
		return int64(n.bits<<shift) >> shift
	case classUnsigned:
		return int64(n.bits)
	}
	return int64(n.float64())
}

func (n number) uint64() uint64 {
	switch n.class {
	case classSigned:
		return uint64(n.int64())
	case classUnsigned:
		return n.bits
	}
	return uint64(n.float64())
}

func (n number) float64() float64 {
	switch n.class {
	case classSigned:
		return float64(n.int64())
	case classUnsigned:
		return float64(n.bits)
	}
	if n.width == 4 {
		return float64(math.Float32frombits(uint32(n.bits)))
	}
	return math.Float64frombits(n.bits)
}

func (n number) value() interface{} {
	switch n.class {
	case classSigned:
		switch n.width {
		case 1:
			return int8(n.int64())
		case 2:
			return int16(n.int64())
		case 4:
			return int32(n.int64())
		}
		return n.int64()
	case classUnsigned:
		switch n.width {
		case 1:
			return uint8(n.bits)
		case 2:
			return uint16(n.bits)
		case 4:
			return uint32(n.bits)
		}
		return n.bits
	}
	if n.width == 4 {
		return float32(n.float64())
	}
	return n.float64()
}

func (d *decoder) number(tag byte) (number, bool) {
	if !d.expectKind(tag, kindNumber) {
		return number{}, false
	}
	if err := checkNumeric(tag, true); err != nil {
		d.fail(err)
		return number{}, false
	}
	ret := number{class: tagClass(tag), width: tagWidth(tag)}
	var ok bool
	ret.bits, ok = d.fixed(ret.width)
	return ret, ok
}

// string reads a narrow or wide string payload.
func (d *decoder) string(tag byte) (string, bool) {
	switch tag {
	case TagString:
		n, ok := d.uvarint()
		if !ok {
			return "", false
		}
		raw, ok := d.take(n)
		return string(raw), ok
	case TagWideString:
		units, ok := d.wide()
		if !ok {
			return "", false
		}
		return string(utf16.Decode(units)), true
	}
	d.syntax("unexpected tag %#x for string at offset %d", tag, d.pos-1)
	return "", false
}

func (d *decoder) wide() ([]uint16, bool) {
	n, ok := d.uvarint()
	if !ok {
		return nil, false
	}
	if n > uint64(len(d.data)-d.pos)/2 {
		d.truncated()
		return nil, false
	}
	units := make([]uint16, n)
	for i := range units {
		u, _ := d.fixed(2)
		units[i] = uint16(u)
	}
	return units, true
}

// key reads one untagged object key described by the object tag.
func (d *decoder) key(tag byte) (interface{}, bool) {
	if tagClass(tag) == classString {
		n, ok := d.uvarint()
		if !ok {
			return nil, false
		}
		raw, ok := d.take(n)
		return string(raw), ok
	}
	if err := checkNumeric(tag, false); err != nil {
		d.fail(err)
		return nil, false
	}
	n := number{class: tagClass(tag), width: tagWidth(tag)}
	var ok bool
	if n.bits, ok = d.fixed(n.width); !ok {
		return nil, false
	}
	if n.class == classSigned {
		return n.int64(), true
	}
	return n.bits, true
}

// generic decodes the value introduced by tag into its natural Go form.
func (d *decoder) generic(tag byte) interface{} {
	if !d.enter() {
		return nil
	}
	defer d.leave()
	switch tagKind(tag) {
	case kindNull:
		switch tag {
		case TagNull:
			return nil
		case TagFalse:
			return false
		case TagTrue:
			return true
		}
	case kindNumber:
		n, _ := d.number(tag)
		return n.value()
	case kindString:
		s, _ := d.string(tag)
		return s
	case kindObject:
		return d.genericObject(tag)
	case kindArray:
		if tag != TagArray {
			break
		}
		n, ok := d.count()
		if !ok {
			return nil
		}
		ret := make([]interface{}, 0, n)
		for i := 0; i < n; i++ {
			elemTag, ok := d.tag()
			if !ok {
				return nil
			}
			ret = append(ret, d.generic(elemTag))
		}
		return ret
	case kindExtension:
		switch tag {
		case TagVariant:
			if _, ok := d.uvarint(); !ok {
				return nil
			}
			inner, ok := d.tag()
			if !ok {
				return nil
			}
			return d.generic(inner)
		case TagComplex:
			re, im, _ := d.complex()
			return complex(re, im)
		}
	}
	d.syntax("unexpected tag %#x at offset %d", tag, d.pos-1)
	return nil
}

func (d *decoder) genericObject(tag byte) interface{} {
	n, ok := d.count()
	if !ok {
		return nil
	}
	switch tagClass(tag) {
	case classString:
		ret := make(map[string]interface{}, n)
		for i := 0; i < n && !d.ctx.Failed(); i++ {
			key, ok := d.key(tag)
			if !ok {
				break
			}
			if valueTag, ok := d.tag(); ok {
				ret[key.(string)] = d.generic(valueTag)
			}
		}
		return ret
	case classSigned:
		ret := make(map[int64]interface{}, n)
		for i := 0; i < n && !d.ctx.Failed(); i++ {
			key, ok := d.key(tag)
			if !ok {
				break
			}
			if valueTag, ok := d.tag(); ok {
				ret[key.(int64)] = d.generic(valueTag)
			}
		}
		return ret
	}
	ret := make(map[uint64]interface{}, n)
	for i := 0; i < n && !d.ctx.Failed(); i++ {
		key, ok := d.key(tag)
		if !ok {
			break
		}
		if valueTag, ok := d.tag(); ok {
			ret[key.(uint64)] = d.generic(valueTag)
		}
	}
	return ret
}

func (d *decoder) complex() (float64, float64, bool) {
	var parts [2]float64
	for i := range parts {
		tag, ok := d.tag()
		if !ok {
			return 0, 0, false
		}
		n, ok := d.number(tag)
		if !ok {
			return 0, 0, false
		}
		parts[i] = n.float64()
	}
	return parts[0], parts[1], true
}

func (d *decoder) skip(tag byte) {
	d.generic(tag)
}

// next reads a tag and decodes the following value with fn.
func (d *decoder) next(fn decodeFn, v reflect.Value) {
	if tag, ok := d.tag(); ok {
		d.descend(fn, tag, v)
	}
}

func (c *compiler) buildDecoder(t reflect.Type, shape tojson.Shape) (decodeFn, error) {
	switch shape {
	case tojson.ShapeHidden, tojson.ShapeAlwaysNull, tojson.ShapeOpaque:
		return func(d *decoder, tag byte, _ reflect.Value) { d.skip(tag) }, nil
	case tojson.ShapeBool:
		return func(d *decoder, tag byte, v reflect.Value) {
			switch tag {
			case TagNull:
				v.SetBool(false)
			case TagFalse:
				v.SetBool(false)
			case TagTrue:
				v.SetBool(true)
			default:
				d.syntax("unexpected tag %#x for bool at offset %d", tag, d.pos-1)
			}
		}, nil
	case tojson.ShapeEnum, tojson.ShapeNumeric:
		return numberDecoder(t), nil
	case tojson.ShapeComplex:
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetComplex(0)
				return
			}
			if tag != TagComplex {
				d.syntax("unexpected tag %#x for complex at offset %d", tag, d.pos-1)
				return
			}
			if re, im, ok := d.complex(); ok {
				v.SetComplex(complex(re, im))
			}
		}, nil
	case tojson.ShapeString, tojson.ShapeRawNumber:
		return stringDecoder(func(v reflect.Value, s string) { v.SetString(s) }), nil
	case tojson.ShapeRaw:
		if t.Kind() == reflect.String {
			return stringDecoder(func(v reflect.Value, s string) { v.SetString(s) }), nil
		}
		return stringDecoder(func(v reflect.Value, s string) { v.SetBytes([]byte(s)) }), nil
	case tojson.ShapeChar:
		return stringDecoder(func(v reflect.Value, s string) {
			r, _ := utf8.DecodeRuneInString(s)
			if s == "" {
				r = 0
			}
			v.SetInt(int64(r))
		}), nil
	case tojson.ShapeWideString:
		return func(d *decoder, tag byte, v reflect.Value) {
			switch tag {
			case TagNull:
				v.SetZero()
			case TagWideString:
				if units, ok := d.wide(); ok {
					v.Set(reflect.ValueOf(tojson.WideString(units)))
				}
			default:
				if s, ok := d.string(tag); ok {
					v.Set(reflect.ValueOf(tojson.NewWideString(s)))
				}
			}
		}, nil
	case tojson.ShapeTime:
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetZero()
				return
			}
			s, ok := d.string(tag)
			if !ok {
				return
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				d.fail(errors.Wrapf(tojson.ErrSyntax, "invalid time %q", s))
				return
			}
			v.Set(reflect.ValueOf(ts))
		}, nil
	case tojson.ShapeCustom:
		return customDecoder(t)
	case tojson.ShapePointer:
		elem, err := c.decoder(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetZero()
				return
			}
			if v.IsNil() {
				v.Set(reflect.New(t.Elem()))
			}
			d.descend(elem, tag, v.Elem())
		}, nil
	case tojson.ShapeOptional:
		valueField, _ := t.FieldByName("Value")
		validField, _ := t.FieldByName("Valid")
		elem, err := c.decoder(valueField.Type)
		if err != nil {
			return nil, err
		}
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetZero()
				return
			}
			elem(d, tag, v.FieldByIndex(valueField.Index))
			v.FieldByIndex(validField.Index).SetBool(true)
		}, nil
	case tojson.ShapeVariant:
		return c.variantDecoder(t)
	case tojson.ShapeDynamic:
		return func(d *decoder, tag byte, v reflect.Value) {
			value := d.generic(tag)
			if d.ctx.Failed() {
				return
			}
			if value == nil {
				v.SetZero()
				return
			}
			rv := reflect.ValueOf(value)
			if !rv.Type().AssignableTo(t) {
				d.syntax("%v is not assignable to %v", rv.Type(), t)
				return
			}
			v.Set(rv)
		}, nil
	case tojson.ShapeSequence:
		elem, err := c.decoder(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetZero()
				return
			}
			if !d.expectKind(tag, kindArray) {
				return
			}
			n, ok := d.count()
			if !ok {
				return
			}
			slice := reflect.MakeSlice(t, n, n)
			for i := 0; i < n && !d.ctx.Failed(); i++ {
				d.next(elem, slice.Index(i))
			}
			v.Set(slice)
		}, nil
	case tojson.ShapeFixedArray:
		elem, err := c.decoder(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetZero()
				return
			}
			if !d.expectKind(tag, kindArray) {
				return
			}
			n, ok := d.count()
			if !ok {
				return
			}
			for i := 0; i < n && !d.ctx.Failed(); i++ {
				if i < v.Len() {
					d.next(elem, v.Index(i))
					continue
				}
				if extra, ok := d.tag(); ok {
					d.skip(extra)
				}
			}
		}, nil
	case tojson.ShapeTuple:
		return c.tupleDecoder(t)
	case tojson.ShapeMap:
		return c.mapDecoder(t)
	case tojson.ShapePair:
		return c.pairDecoder(t)
	case tojson.ShapeObject, tojson.ShapeFlags:
		return c.objectDecoder(t)
	case tojson.ShapeBitset:
		return func(d *decoder, tag byte, v reflect.Value) {
			if tag == TagNull {
				v.SetZero()
				return
			}
			s, ok := d.string(tag)
			if !ok {
				return
			}
			bits, err := tojson.ParseBits(s)
			if err != nil {
				d.fail(err)
				return
			}
			v.Set(reflect.ValueOf(*bits))
		}, nil
	}
	return nil, errors.Wrapf(tojson.ErrUnsupportedType, "%v has no binary decoding", shape)
}

func numberDecoder(t reflect.Type) decodeFn {
	var set func(v reflect.Value, n number)
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		set = func(v reflect.Value, n number) { v.SetFloat(n.float64()) }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		set = func(v reflect.Value, n number) { v.SetInt(n.int64()) }
	default:
		set = func(v reflect.Value, n number) { v.SetUint(n.uint64()) }
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if tag == TagNull {
			v.SetZero()
			return
		}
		if n, ok := d.number(tag); ok {
			set(v, n)
		}
	}
}

func stringDecoder(set func(v reflect.Value, s string)) decodeFn {
	return func(d *decoder, tag byte, v reflect.Value) {
		if tag == TagNull {
			v.SetZero()
			return
		}
		if s, ok := d.string(tag); ok {
			set(v, s)
		}
	}
}

func customDecoder(t reflect.Type) (decodeFn, error) {
	textType := reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	jsonType := reflect.TypeOf((*stdjson.Unmarshaler)(nil)).Elem()
	target := t
	if t.Kind() != reflect.Pointer {
		target = reflect.PointerTo(t)
	}
	useText := tojson.IsTextMarshaler(t) && target.Implements(textType)
	if !useText && !target.Implements(jsonType) {
		return nil, errors.Wrapf(tojson.ErrUnsupportedType, "%v has no unmarshaler", t)
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if tag == TagNull {
			v.SetZero()
			return
		}
		s, ok := d.string(tag)
		if !ok {
			return
		}
		dest := v
		if t.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(t.Elem()))
			}
		} else {
			dest = v.Addr()
		}
		var err error
		if useText {
			err = dest.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
		} else {
			err = dest.Interface().(stdjson.Unmarshaler).UnmarshalJSON([]byte(s))
		}
		if err != nil {
			d.fail(errors.Wrapf(err, "failed to unmarshal %v", t))
		}
	}, nil
}

func (c *compiler) variantDecoder(t reflect.Type) (decodeFn, error) {
	variant, _ := tojson.LookupVariant(t)
	alternatives := make([]decodeFn, len(variant.Alternatives))
	for i, alt := range variant.Alternatives {
		fn, err := c.decoder(alt.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "alternative %v", alt.ID)
		}
		alternatives[i] = fn
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if tag == TagNull {
			v.SetZero()
			return
		}
		if tag != TagVariant {
			d.syntax("unexpected tag %#x for variant %v at offset %d", tag, t, d.pos-1)
			return
		}
		idx, ok := d.uvarint()
		if !ok {
			return
		}
		if idx >= uint64(len(alternatives)) {
			d.fail(errors.Wrapf(tojson.ErrUnknownAlternative, "index %d in %v", idx, t))
			return
		}
		alt := reflect.New(variant.Alternatives[idx].Type).Elem()
		d.next(alternatives[idx], alt)
		if !d.ctx.Failed() {
			v.Set(alt)
		}
	}, nil
}

type fieldDecoder struct {
	index []int
	fn    decodeFn
}

func (c *compiler) objectDecoder(t reflect.Type) (decodeFn, error) {
	fields := map[string]fieldDecoder{}
	for _, field := range exportedFields(t) {
		fn, err := c.decoder(field.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %v", field.Name)
		}
		fields[field.Name] = fieldDecoder{index: field.Index, fn: fn}
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if tag == TagNull {
			v.SetZero()
			return
		}
		if !d.expectKind(tag, kindObject) {
			return
		}
		if tagClass(tag) != classString {
			d.syntax("unexpected key class in tag %#x for %v", tag, t)
			return
		}
		n, ok := d.count()
		if !ok {
			return
		}
		for i := 0; i < n && !d.ctx.Failed(); i++ {
			key, ok := d.key(tag)
			if !ok {
				return
			}
			valueTag, ok := d.tag()
			if !ok {
				return
			}
			field, ok := fields[key.(string)]
			if !ok {
				d.skip(valueTag)
				continue
			}
			d.descend(field.fn, valueTag, v.FieldByIndex(field.index))
		}
	}, nil
}

func (c *compiler) tupleDecoder(t reflect.Type) (decodeFn, error) {
	var fields []fieldDecoder
	for _, field := range exportedFields(t) {
		fn, err := c.decoder(field.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %v", field.Name)
		}
		fields = append(fields, fieldDecoder{index: field.Index, fn: fn})
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if !d.expectKind(tag, kindArray) {
			return
		}
		n, ok := d.count()
		if !ok {
			return
		}
		for i := 0; i < n && !d.ctx.Failed(); i++ {
			if i < len(fields) {
				d.next(fields[i].fn, v.FieldByIndex(fields[i].index))
				continue
			}
			if extra, ok := d.tag(); ok {
				d.skip(extra)
			}
		}
	}, nil
}

// keySetter converts a decoded key into the map key type.
func keySetter(t reflect.Type) (func(key interface{}) (reflect.Value, bool), error) {
	switch t.Kind() {
	case reflect.String:
		return func(key interface{}) (reflect.Value, bool) {
			s, ok := key.(string)
			return reflect.ValueOf(s).Convert(t), ok
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(key interface{}) (reflect.Value, bool) {
			ret := reflect.New(t).Elem()
			switch actual := key.(type) {
			case int64:
				ret.SetInt(actual)
			case uint64:
				ret.SetInt(int64(actual))
			default:
				return ret, false
			}
			return ret, true
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(key interface{}) (reflect.Value, bool) {
			ret := reflect.New(t).Elem()
			switch actual := key.(type) {
			case uint64:
				ret.SetUint(actual)
			case int64:
				ret.SetUint(uint64(actual))
			default:
				return ret, false
			}
			return ret, true
		}, nil
	}
	return nil, errors.Wrapf(tojson.ErrUnsupportedType, "binary object key %v", t)
}

func (c *compiler) mapDecoder(t reflect.Type) (decodeFn, error) {
	toKey, err := keySetter(t.Key())
	if err != nil {
		return nil, err
	}
	elem, err := c.decoder(t.Elem())
	if err != nil {
		return nil, err
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if tag == TagNull {
			v.SetZero()
			return
		}
		if !d.expectKind(tag, kindObject) {
			return
		}
		n, ok := d.count()
		if !ok {
			return
		}
		m := reflect.MakeMapWithSize(t, n)
		for i := 0; i < n && !d.ctx.Failed(); i++ {
			raw, ok := d.key(tag)
			if !ok {
				return
			}
			key, ok := toKey(raw)
			if !ok {
				d.syntax("unexpected key class in tag %#x for %v", tag, t)
				return
			}
			value := reflect.New(t.Elem()).Elem()
			d.next(elem, value)
			m.SetMapIndex(key, value)
		}
		v.Set(m)
	}, nil
}

func (c *compiler) pairDecoder(t reflect.Type) (decodeFn, error) {
	toKey, err := keySetter(t.Field(0).Type)
	if err != nil {
		return nil, err
	}
	value, err := c.decoder(t.Field(1).Type)
	if err != nil {
		return nil, err
	}
	return func(d *decoder, tag byte, v reflect.Value) {
		if !d.expectKind(tag, kindObject) {
			return
		}
		n, ok := d.count()
		if !ok {
			return
		}
		for i := 0; i < n && !d.ctx.Failed(); i++ {
			raw, ok := d.key(tag)
			if !ok {
				return
			}
			valueTag, ok := d.tag()
			if !ok {
				return
			}
			if i > 0 {
				d.skip(valueTag)
				continue
			}
			key, ok := toKey(raw)
			if !ok {
				d.syntax("unexpected key class in tag %#x for %v", tag, t)
				return
			}
			v.Field(0).Set(key)
			d.descend(value, valueTag, v.Field(1))
		}
	}, nil
}
