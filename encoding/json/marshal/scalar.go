package marshal

import (
	"encoding"
	stdjson "encoding/json"
	"math"
	"reflect"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
	"github.com/viant/xunsafe"
	"go.uber.org/zap"
)

const (
	hiddenDiagnostic = `"hidden type should not have been written"`
	skipDiagnostic   = `"skip type should not have been written"`
)

var skipType = reflect.TypeOf(tojson.Skip{})

func (c *compiler) buildHidden(p *Plan) {
	literal := hiddenDiagnostic
	if p.typ == skipType {
		literal = skipDiagnostic
	}
	c.e.logger.Debug("marker type compiled as a value", zap.String("type", p.typ.String()))
	p.encode = func(s *session, _ unsafe.Pointer) { s.buf.PutString(literal) }
}

// buildOpaque writes the type name of func and chan values. They count as
// null so objects and maps drop them when skipping nulls.
func (c *compiler) buildOpaque(p *Plan) {
	name := p.typ.String()
	buf := tojson.NewBuffer(2*len(name) + 2)
	WriteString(buf, name)
	literal := append([]byte(nil), buf.Bytes()...)
	p.encode = func(s *session, _ unsafe.Pointer) { s.buf.PutBytes(literal) }
	p.isNull = func(unsafe.Pointer) bool { return true }
	p.isEmpty = p.isNull
}

func (c *compiler) buildNull(p *Plan) {
	p.encode = func(s *session, _ unsafe.Pointer) { s.null() }
	p.isNull = func(unsafe.Pointer) bool { return true }
	p.isEmpty = p.isNull
}

func (c *compiler) buildRaw(p *Plan) {
	if p.typ.Kind() == reflect.String {
		p.encode = func(s *session, ptr unsafe.Pointer) {
			if raw := xunsafe.AsString(ptr); raw != "" {
				s.buf.PutString(raw)
				return
			}
			s.null()
		}
		p.isEmpty = func(ptr unsafe.Pointer) bool { return xunsafe.AsString(ptr) == "" }
		return
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		if raw := *(*[]byte)(ptr); len(raw) > 0 {
			s.buf.PutBytes(raw)
			return
		}
		s.null()
	}
	p.isNull = func(ptr unsafe.Pointer) bool { return *(*[]byte)(ptr) == nil }
	p.isEmpty = func(ptr unsafe.Pointer) bool { return len(*(*[]byte)(ptr)) == 0 }
}

func (c *compiler) buildRawNumber(p *Plan) {
	quoted := c.e.cfg.QuotedNum
	p.encode = func(s *session, ptr unsafe.Pointer) {
		num := xunsafe.AsString(ptr)
		if num == "" {
			num = "0"
		}
		if quoted {
			writeRawString(s.buf, num)
			return
		}
		s.buf.PutString(num)
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return xunsafe.AsString(ptr) == "" }
}

func (c *compiler) buildBool(p *Plan, quoted bool) {
	if quoted {
		p.encode = func(s *session, ptr unsafe.Pointer) {
			if xunsafe.AsBool(ptr) {
				s.buf.PutString(`"true"`)
				return
			}
			s.buf.PutString(`"false"`)
		}
	} else {
		p.encode = func(s *session, ptr unsafe.Pointer) { s.buf.PutBool(xunsafe.AsBool(ptr)) }
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return !xunsafe.AsBool(ptr) }
}

// buildNumeric compiles an integer or float writer for the kind of p.typ.
func (c *compiler) buildNumeric(p *Plan, quoted bool) {
	write := numericWriter(p.typ.Kind())
	p.isEmpty = numericZero(p.typ.Kind())
	if !quoted {
		p.encode = write
		return
	}
	p.encode = quotedNumericWriter(p.typ.Kind(), write)
}

// quotedNumericWriter wraps write in quotes. Non-finite floats are handed to
// writeFloat unquoted so they still come out as a bare null.
func quotedNumericWriter(kind reflect.Kind, write encodeFn) encodeFn {
	quote := func(s *session, ptr unsafe.Pointer) {
		s.buf.PutByte('"')
		write(s, ptr)
		s.buf.PutByte('"')
	}
	switch kind {
	case reflect.Float32:
		return func(s *session, ptr unsafe.Pointer) {
			if v := float64(xunsafe.AsFloat32(ptr)); !finite(v) {
				writeFloat(s, v, 32)
				return
			}
			quote(s, ptr)
		}
	case reflect.Float64:
		return func(s *session, ptr unsafe.Pointer) {
			if v := xunsafe.AsFloat64(ptr); !finite(v) {
				writeFloat(s, v, 64)
				return
			}
			quote(s, ptr)
		}
	}
	return quote
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func numericWriter(kind reflect.Kind) encodeFn {
	switch kind {
	case reflect.Int:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutInt(int64(xunsafe.AsInt(ptr))) }
	case reflect.Int8:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutInt(int64(xunsafe.AsInt8(ptr))) }
	case reflect.Int16:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutInt(int64(xunsafe.AsInt16(ptr))) }
	case reflect.Int32:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutInt(int64(xunsafe.AsInt32(ptr))) }
	case reflect.Int64:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutInt(xunsafe.AsInt64(ptr)) }
	case reflect.Uint:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutUint(uint64(xunsafe.AsUint(ptr))) }
	case reflect.Uint8:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutUint(uint64(xunsafe.AsUint8(ptr))) }
	case reflect.Uint16:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutUint(uint64(xunsafe.AsUint16(ptr))) }
	case reflect.Uint32:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutUint(uint64(xunsafe.AsUint32(ptr))) }
	case reflect.Uint64:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutUint(xunsafe.AsUint64(ptr)) }
	case reflect.Uintptr:
		return func(s *session, ptr unsafe.Pointer) { s.buf.PutUint(uint64(*(*uintptr)(ptr))) }
	case reflect.Float32:
		return func(s *session, ptr unsafe.Pointer) { writeFloat(s, float64(xunsafe.AsFloat32(ptr)), 32) }
	case reflect.Float64:
		return func(s *session, ptr unsafe.Pointer) { writeFloat(s, xunsafe.AsFloat64(ptr), 64) }
	}
	return nil
}

func numericZero(kind reflect.Kind) func(unsafe.Pointer) bool {
	switch kind {
	case reflect.Int:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsInt(ptr) == 0 }
	case reflect.Uint:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsUint(ptr) == 0 }
	case reflect.Uintptr:
		return func(ptr unsafe.Pointer) bool { return *(*uintptr)(ptr) == 0 }
	case reflect.Int64, reflect.Uint64:
		return func(ptr unsafe.Pointer) bool { return *(*uint64)(ptr) == 0 }
	case reflect.Int32, reflect.Uint32:
		return func(ptr unsafe.Pointer) bool { return *(*uint32)(ptr) == 0 }
	case reflect.Int16, reflect.Uint16:
		return func(ptr unsafe.Pointer) bool { return *(*uint16)(ptr) == 0 }
	case reflect.Int8, reflect.Uint8:
		return func(ptr unsafe.Pointer) bool { return *(*uint8)(ptr) == 0 }
	case reflect.Float32:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsFloat32(ptr) == 0 }
	case reflect.Float64:
		return func(ptr unsafe.Pointer) bool { return xunsafe.AsFloat64(ptr) == 0 }
	}
	return nil
}

func writeFloat(s *session, v float64, bitSize int) {
	if !finite(v) {
		s.ctx.SetError(errors.Wrapf(tojson.ErrUnsupportedValue, "%v", v))
		s.null()
		return
	}
	s.buf.PutFloat(v, bitSize)
}

func (c *compiler) buildComplex(p *Plan) {
	if p.typ.Kind() == reflect.Complex64 {
		p.encode = func(s *session, ptr unsafe.Pointer) {
			v := *(*complex64)(ptr)
			s.buf.PutByte('[')
			writeFloat(s, float64(real(v)), 32)
			s.buf.PutByte(',')
			writeFloat(s, float64(imag(v)), 32)
			s.buf.PutByte(']')
		}
		p.isEmpty = func(ptr unsafe.Pointer) bool { return *(*complex64)(ptr) == 0 }
		return
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		v := *(*complex128)(ptr)
		s.buf.PutByte('[')
		writeFloat(s, real(v), 64)
		s.buf.PutByte(',')
		writeFloat(s, imag(v), 64)
		s.buf.PutByte(']')
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return *(*complex128)(ptr) == 0 }
}

func (c *compiler) buildTime(p *Plan, layout string) {
	p.encode = func(s *session, ptr unsafe.Pointer) {
		var scratch [64]byte
		out := append(scratch[:0], '"')
		out = xunsafe.AsTime(ptr).AppendFormat(out, layout)
		out = append(out, '"')
		s.buf.PutBytes(out)
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return xunsafe.AsTime(ptr).IsZero() }
}

func (c *compiler) timePlan(layout string) *Plan {
	return c.detached(reflect.TypeOf(time.Time{}), func(p *Plan) { c.buildTime(p, layout) })
}

// buildCustom compiles a writer delegating to MarshalJSON or MarshalText.
// Methods with pointer receivers are reached through the value's address.
func (c *compiler) buildCustom(p *Plan) {
	t := p.typ
	isPtr := t.Kind() == reflect.Pointer
	target := func(ptr unsafe.Pointer) (any, bool) {
		v := reflect.NewAt(t, ptr)
		if isPtr {
			if v.Elem().IsNil() {
				return nil, false
			}
			return v.Elem().Interface(), true
		}
		return v.Interface(), true
	}
	if isPtr {
		p.isNull = func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
		p.isEmpty = p.isNull
	}
	if tojson.IsJSONMarshaler(t) {
		p.encode = func(s *session, ptr unsafe.Pointer) {
			v, ok := target(ptr)
			if !ok {
				s.null()
				return
			}
			data, err := v.(stdjson.Marshaler).MarshalJSON()
			if err == nil && len(data) == 0 {
				err = tojson.ErrUnsupportedValue
			}
			if err != nil {
				s.ctx.SetError(errors.Wrapf(err, "failed to marshal %v", t))
				s.null()
				return
			}
			s.buf.PutBytes(data)
		}
		return
	}
	write := c.e.writeString
	p.encode = func(s *session, ptr unsafe.Pointer) {
		v, ok := target(ptr)
		if !ok {
			s.null()
			return
		}
		data, err := v.(encoding.TextMarshaler).MarshalText()
		if err != nil {
			s.ctx.SetError(errors.Wrapf(err, "failed to marshal %v", t))
			s.null()
			return
		}
		write(s.buf, string(data))
	}
}
