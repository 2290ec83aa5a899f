package marshal

import (
	"bytes"
	"reflect"
	"sort"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
)

// keyWriter writes a quoted object key for the key value at ptr.
type keyWriter func(s *session, ptr unsafe.Pointer)

// keyWriterFor returns a writer producing a valid JSON key for any supported
// key shape. String-like keys use their own encoder; numbers and booleans
// are quoted as is; anything else is encoded and then written as an escaped
// string.
func (c *compiler) keyWriterFor(t reflect.Type) (keyWriter, error) {
	kp, err := c.compile(t)
	if err != nil {
		return nil, err
	}
	direct := func(s *session, ptr unsafe.Pointer) { kp.encode(s, ptr) }
	switch kp.shape {
	case tojson.ShapeTime:
		return direct, nil
	case tojson.ShapeString, tojson.ShapeChar:
		if c.e.cfg.Raw {
			return c.quotedKey(kp), nil
		}
		return direct, nil
	case tojson.ShapeEnum:
		names := c.enumKeyNames(t)
		quoted := c.quotedKey(c.bareNumeric(t))
		return func(s *session, ptr unsafe.Pointer) {
			if lit := names(ptr); lit != nil {
				s.buf.PutBytes(lit)
				return
			}
			quoted(s, ptr)
		}, nil
	case tojson.ShapeNumeric:
		return c.quotedKey(c.bareNumeric(t)), nil
	case tojson.ShapeRawNumber, tojson.ShapeBool:
		if c.e.cfg.QuotedNum && kp.shape == tojson.ShapeRawNumber {
			return direct, nil
		}
		return c.quotedKey(kp), nil
	case tojson.ShapeCustom:
		if !tojson.IsJSONMarshaler(t) {
			if c.e.cfg.Raw {
				return c.quotedKey(kp), nil
			}
			return direct, nil
		}
	}
	return func(s *session, ptr unsafe.Pointer) {
		scratch := tojson.NewBuffer(64)
		sub := acquireSession(s.e, s.ctx, scratch)
		sub.pretty, sub.width = false, 0
		kp.encode(sub, ptr)
		releaseSession(sub)
		if raw := scratch.Bytes(); len(raw) > 1 && raw[0] == '"' && raw[len(raw)-1] == '"' {
			s.buf.PutBytes(raw)
			return
		}
		WriteString(s.buf, scratch.String())
	}, nil
}

// bareNumeric compiles an unquoted number writer for t whatever QuotedNum
// says, for keys that add their own quotes.
func (c *compiler) bareNumeric(t reflect.Type) *Plan {
	return c.detached(t, func(p *Plan) { c.buildNumeric(p, false) })
}

// quotedKey wraps the key encoder output in quotes without escaping.
func (c *compiler) quotedKey(kp *Plan) keyWriter {
	return func(s *session, ptr unsafe.Pointer) {
		s.buf.PutByte('"')
		kp.encode(s, ptr)
		s.buf.PutByte('"')
	}
}

type mapEntry struct {
	key   reflect.Value
	value reflect.Value
}

func (c *compiler) buildMap(p *Plan) error {
	t := p.typ
	keyType, elemType := t.Key(), t.Elem()
	writeKey, err := c.keyWriterFor(keyType)
	if err != nil {
		return err
	}
	elem, err := c.compile(elemType)
	if err != nil {
		return err
	}
	less := c.keyOrder(keyType)
	skipNull := c.e.cfg.SkipNullMembers
	colon := c.e.colon

	entries := func(ptr unsafe.Pointer) []mapEntry {
		m := reflect.NewAt(t, ptr).Elem()
		if m.Len() == 0 {
			return nil
		}
		ret := make([]mapEntry, 0, m.Len())
		iter := m.MapRange()
		for iter.Next() {
			ret = append(ret, mapEntry{key: iter.Key(), value: iter.Value()})
		}
		sort.Slice(ret, func(i, j int) bool { return less(ret[i].key, ret[j].key) })
		return ret
	}
	members := func(s *session, ptr unsafe.Pointer, started bool) bool {
		list := entries(ptr)
		if len(list) == 0 {
			return started
		}
		keyTmp := reflect.New(keyType)
		valueTmp := reflect.New(elemType)
		for _, entry := range list {
			valueTmp.Elem().Set(entry.value)
			valuePtr := valueTmp.UnsafePointer()
			if skipNull && elem.nullLike(valuePtr) {
				continue
			}
			keyTmp.Elem().Set(entry.key)
			s.entry(started)
			started = true
			writeKey(s, keyTmp.UnsafePointer())
			s.buf.PutString(colon)
			elem.encode(s, valuePtr)
		}
		return started
	}
	p.members = members
	p.isNull = func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	p.isEmpty = func(ptr unsafe.Pointer) bool { return reflect.NewAt(t, ptr).Elem().Len() == 0 }
	if c.e.cfg.Concatenate {
		p.encode = func(s *session, ptr unsafe.Pointer) {
			if p.isNull(ptr) {
				s.null()
				return
			}
			s.open('{')
			started := members(s, ptr, false)
			s.close('}', started)
		}
		return nil
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		if p.isNull(ptr) {
			s.null()
			return
		}
		list := entries(ptr)
		keyTmp := reflect.New(keyType)
		valueTmp := reflect.New(elemType)
		s.open('[')
		for i, entry := range list {
			s.entry(i > 0)
			keyTmp.Elem().Set(entry.key)
			valueTmp.Elem().Set(entry.value)
			valuePtr := valueTmp.UnsafePointer()
			s.open('{')
			if skipNull && elem.nullLike(valuePtr) {
				s.close('}', false)
				continue
			}
			s.entry(false)
			writeKey(s, keyTmp.UnsafePointer())
			s.buf.PutString(colon)
			elem.encode(s, valuePtr)
			s.close('}', true)
		}
		s.close(']', len(list) > 0)
	}
	return nil
}

// keyOrder returns the ordering used to emit map entries deterministically.
func (c *compiler) keyOrder(t reflect.Type) func(a, b reflect.Value) bool {
	switch t.Kind() {
	case reflect.String:
		return func(a, b reflect.Value) bool { return a.String() < b.String() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) bool { return a.Int() < b.Int() }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b reflect.Value) bool { return a.Uint() < b.Uint() }
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) bool { return a.Float() < b.Float() }
	case reflect.Bool:
		return func(a, b reflect.Value) bool { return !a.Bool() && b.Bool() }
	}
	e := c.e
	return func(a, b reflect.Value) bool {
		return bytes.Compare(encodeKeyForOrder(e, a), encodeKeyForOrder(e, b)) < 0
	}
}

func encodeKeyForOrder(e *Engine, v reflect.Value) []byte {
	buf := tojson.NewBuffer(64)
	ctx := tojson.NewContext()
	_ = e.WriteTyped(ctx, buf, v.Type(), valuePointer(v))
	return buf.Bytes()
}

func (c *compiler) buildPair(p *Plan) error {
	t := p.typ
	keyField, valueField := t.Field(0), t.Field(1)
	writeKey, err := c.keyWriterFor(keyField.Type)
	if err != nil {
		return err
	}
	value, err := c.compile(valueField.Type)
	if err != nil {
		return err
	}
	keyOffset, valueOffset := keyField.Offset, valueField.Offset
	skipNull := c.e.cfg.SkipNullMembers
	colon := c.e.colon
	members := func(s *session, ptr unsafe.Pointer, started bool) bool {
		valuePtr := unsafe.Add(ptr, valueOffset)
		if skipNull && value.nullLike(valuePtr) {
			return started
		}
		s.entry(started)
		writeKey(s, unsafe.Add(ptr, keyOffset))
		s.buf.PutString(colon)
		value.encode(s, valuePtr)
		return true
	}
	p.members = members
	p.encode = func(s *session, ptr unsafe.Pointer) {
		s.open('{')
		started := members(s, ptr, false)
		s.close('}', started)
	}
	return nil
}

// buildMerge writes the members of every part into one object. Parts resolve
// their plans from their dynamic types.
func (c *compiler) buildMerge(p *Plan) {
	members := func(s *session, ptr unsafe.Pointer, started bool) bool {
		for _, part := range *(*tojson.Merge)(ptr) {
			if part == nil {
				continue
			}
			rv := reflect.ValueOf(part)
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				continue
			}
			pp, err := s.e.Lookup(rv.Type())
			if err != nil {
				s.ctx.SetError(err)
				continue
			}
			if pp.members == nil {
				s.ctx.SetError(errors.Wrapf(tojson.ErrUnsupportedType, "merge part %v is not an object", rv.Type()))
				continue
			}
			started = pp.members(s, valuePointer(rv), started)
		}
		return started
	}
	p.members = members
	p.encode = func(s *session, ptr unsafe.Pointer) {
		s.open('{')
		started := members(s, ptr, false)
		s.close('}', started)
	}
}
