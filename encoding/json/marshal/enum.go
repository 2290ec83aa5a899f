package marshal

import (
	"reflect"
	"unsafe"

	"github.com/viant/tojson"
)

const denseEnumLimit = 256

// enumTable maps ordinals to pre-quoted names. Ordinals in [0,256) use a
// slice, anything else a map.
type enumTable struct {
	dense  [][]byte
	sparse map[int64][]byte
	read   func(unsafe.Pointer) int64
}

func (t *enumTable) lookup(ptr unsafe.Pointer) []byte {
	v := t.read(ptr)
	if v >= 0 && v < int64(len(t.dense)) {
		return t.dense[v]
	}
	return t.sparse[v]
}

func (c *compiler) enumTable(t reflect.Type) *enumTable {
	names := reflect.Zero(t).Interface().(tojson.Enum).EnumNames()
	ret := &enumTable{read: ordinalReader(t.Kind())}
	for ordinal, name := range names {
		buf := tojson.NewBuffer(2*len(name) + 2)
		WriteString(buf, name)
		lit := append([]byte(nil), buf.Bytes()...)
		if ordinal >= 0 && ordinal < denseEnumLimit {
			if int(ordinal) >= len(ret.dense) {
				dense := make([][]byte, ordinal+1)
				copy(dense, ret.dense)
				ret.dense = dense
			}
			ret.dense[ordinal] = lit
			continue
		}
		if ret.sparse == nil {
			ret.sparse = map[int64][]byte{}
		}
		ret.sparse[ordinal] = lit
	}
	return ret
}

// buildEnum writes the declared name of the value, or the underlying number
// when the value has none. The number is quoted under QuotedNum.
func (c *compiler) buildEnum(p *Plan) error {
	table := c.enumTable(p.typ)
	number := numericWriter(p.typ.Kind())
	if c.e.cfg.QuotedNum {
		number = quotedNumericWriter(p.typ.Kind(), number)
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		if lit := table.lookup(ptr); lit != nil {
			s.buf.PutBytes(lit)
			return
		}
		number(s, ptr)
	}
	p.isEmpty = numericZero(p.typ.Kind())
	return nil
}

func (c *compiler) enumKeyNames(t reflect.Type) func(unsafe.Pointer) []byte {
	return c.enumTable(t).lookup
}

func ordinalReader(kind reflect.Kind) func(unsafe.Pointer) int64 {
	switch kind {
	case reflect.Int:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*int)(ptr)) }
	case reflect.Int8:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*int8)(ptr)) }
	case reflect.Int16:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*int16)(ptr)) }
	case reflect.Int32:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*int32)(ptr)) }
	case reflect.Int64:
		return func(ptr unsafe.Pointer) int64 { return *(*int64)(ptr) }
	case reflect.Uint:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*uint)(ptr)) }
	case reflect.Uint8:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*uint8)(ptr)) }
	case reflect.Uint16:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*uint16)(ptr)) }
	case reflect.Uint32:
		return func(ptr unsafe.Pointer) int64 { return int64(*(*uint32)(ptr)) }
	}
	return func(ptr unsafe.Pointer) int64 { return int64(*(*uint64)(ptr)) }
}
