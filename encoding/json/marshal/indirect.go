package marshal

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
	"github.com/viant/xunsafe"
)

func (c *compiler) buildPointer(p *Plan) error {
	elem, err := c.compile(p.typ.Elem())
	if err != nil {
		return err
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		target := *(*unsafe.Pointer)(ptr)
		if target == nil {
			s.null()
			return
		}
		elem.encode(s, target)
	}
	p.isNull = func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	p.isEmpty = p.isNull
	if mergeable(p.typ.Elem()) {
		p.members = func(s *session, ptr unsafe.Pointer, started bool) bool {
			target := *(*unsafe.Pointer)(ptr)
			if target == nil {
				return started
			}
			return elem.members(s, target, started)
		}
	}
	return nil
}

func (c *compiler) buildOptional(p *Plan) error {
	valueField, _ := p.typ.FieldByName("Value")
	validField, _ := p.typ.FieldByName("Valid")
	elem, err := c.compile(valueField.Type)
	if err != nil {
		return err
	}
	value := xunsafe.NewField(valueField)
	valid := xunsafe.NewField(validField)
	p.encode = func(s *session, ptr unsafe.Pointer) {
		if !xunsafe.AsBool(valid.Pointer(ptr)) {
			s.null()
			return
		}
		elem.encode(s, value.Pointer(ptr))
	}
	p.isNull = func(ptr unsafe.Pointer) bool { return !xunsafe.AsBool(valid.Pointer(ptr)) }
	p.isEmpty = p.isNull
	if mergeable(valueField.Type) {
		p.members = func(s *session, ptr unsafe.Pointer, started bool) bool {
			if !xunsafe.AsBool(valid.Pointer(ptr)) {
				return started
			}
			return elem.members(s, value.Pointer(ptr), started)
		}
	}
	return nil
}

// buildVariant resolves the active alternative from the dynamic type held by
// the interface. With type info enabled, object alternatives get the tag
// member written first and their own members appended with the opening brace
// already handled. Array variants always write ["<id>", value].
func (c *compiler) buildVariant(p *Plan) error {
	t := p.typ
	variant, _ := tojson.LookupVariant(t)
	alternatives := make([]*Plan, len(variant.Alternatives))
	tags := make([][]byte, len(variant.Alternatives))
	var ids [][]byte
	if variant.Array {
		ids = make([][]byte, len(variant.Alternatives))
	}
	for i, alt := range variant.Alternatives {
		ap, err := c.compile(alt.Type)
		if err != nil {
			return errors.Wrapf(err, "alternative %v", alt.ID)
		}
		alternatives[i] = ap
		if ids != nil {
			buf := tojson.NewBuffer(2*len(alt.ID) + 2)
			WriteString(buf, alt.ID)
			ids[i] = append([]byte(nil), buf.Bytes()...)
			continue
		}
		if c.e.cfg.WriteTypeInfo && variant.Taggable() && mergeable(alt.Type) {
			tag := c.keyLiteral(variant.TagKey)
			buf := tojson.NewBuffer(2*len(alt.ID) + 8)
			WriteString(buf, alt.ID)
			tags[i] = append(tag, buf.Bytes()...)
		}
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		rv := reflect.NewAt(t, ptr).Elem()
		if rv.IsNil() {
			s.null()
			return
		}
		dynamic := rv.Elem()
		idx := variant.Index(dynamic.Type())
		if idx < 0 {
			s.ctx.SetError(errors.Wrapf(tojson.ErrUnknownAlternative, "%v in %v", dynamic.Type(), t))
			s.null()
			return
		}
		alt := alternatives[idx]
		valuePtr := valuePointer(dynamic)
		if ids != nil {
			s.open('[')
			s.entry(false)
			s.buf.PutBytes(ids[idx])
			s.entry(true)
			alt.encode(s, valuePtr)
			s.close(']', true)
			return
		}
		if tag := tags[idx]; tag != nil {
			s.open('{')
			s.entry(false)
			s.buf.PutBytes(tag)
			started := alt.members(s, valuePtr, true)
			s.close('}', started)
			return
		}
		alt.encode(s, valuePtr)
	}
	p.isNull = func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	p.isEmpty = p.isNull
	return nil
}

// buildDynamic compiles a writer for non-variant interfaces; the plan of the
// held value is looked up at write time.
func (c *compiler) buildDynamic(p *Plan) {
	t := p.typ
	resolve := func(s *session, ptr unsafe.Pointer) (*Plan, unsafe.Pointer, bool) {
		rv := reflect.NewAt(t, ptr).Elem()
		if rv.IsNil() {
			return nil, nil, false
		}
		dynamic := rv.Elem()
		if dynamic.Kind() == reflect.Pointer {
			if dynamic.IsNil() {
				return nil, nil, false
			}
			dp, err := s.e.Lookup(dynamic.Type().Elem())
			if err != nil {
				s.ctx.SetError(err)
				return nil, nil, false
			}
			return dp, dynamic.UnsafePointer(), true
		}
		dp, err := s.e.Lookup(dynamic.Type())
		if err != nil {
			s.ctx.SetError(err)
			return nil, nil, false
		}
		return dp, valuePointer(dynamic), true
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		dp, valuePtr, ok := resolve(s, ptr)
		if !ok {
			s.null()
			return
		}
		dp.encode(s, valuePtr)
	}
	p.members = func(s *session, ptr unsafe.Pointer, started bool) bool {
		dp, valuePtr, ok := resolve(s, ptr)
		if !ok {
			return started
		}
		if dp.members == nil {
			s.ctx.SetError(errors.Wrapf(tojson.ErrUnsupportedType, "%v is not an object", dp.typ))
			return started
		}
		return dp.members(s, valuePtr, started)
	}
	p.isNull = func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	p.isEmpty = p.isNull
}
