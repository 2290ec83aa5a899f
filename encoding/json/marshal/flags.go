package marshal

import (
	"reflect"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"github.com/viant/tojson"
	"github.com/viant/tojson/encoding/json/internal/tagutil"
	"github.com/viant/xunsafe"
)

type flagField struct {
	literal []byte
	xField  *xunsafe.Field
}

// buildFlags writes the names of the set bool fields of a struct embedding
// tojson.Flags as an array of strings.
func (c *compiler) buildFlags(p *Plan) error {
	var fields []flagField
	for i := 0; i < p.typ.NumField(); i++ {
		sf := p.typ.Field(i)
		if tojson.IsFlagsMarker(sf.Type) || !sf.IsExported() {
			continue
		}
		tag := tagutil.Resolve(sf, c.e.cfg.CaseFormat)
		if tag.Ignore {
			continue
		}
		if sf.Type.Kind() != reflect.Bool {
			return errors.Wrapf(tojson.ErrUnsupportedType, "flag %v is %v, not bool", sf.Name, sf.Type)
		}
		buf := tojson.NewBuffer(2*len(tag.Name) + 2)
		WriteString(buf, tag.Name)
		fields = append(fields, flagField{literal: append([]byte(nil), buf.Bytes()...), xField: xunsafe.NewField(sf)})
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		s.open('[')
		started := false
		for i := range fields {
			if !xunsafe.AsBool(fields[i].xField.Pointer(ptr)) {
				continue
			}
			s.entry(started)
			started = true
			s.buf.PutBytes(fields[i].literal)
		}
		s.close(']', started)
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool {
		for i := range fields {
			if xunsafe.AsBool(fields[i].xField.Pointer(ptr)) {
				return false
			}
		}
		return true
	}
	return nil
}

// buildBitset writes a bit set as a string of digits, highest bit first.
func (c *compiler) buildBitset(p *Plan) {
	p.encode = func(s *session, ptr unsafe.Pointer) {
		bits := (*bitset.BitSet)(ptr)
		n := int(bits.Len())
		s.buf.Ensure(n + 2)
		w := s.buf.Window()
		w[0] = '"'
		tojson.AppendBits(w[1:1], bits)
		w[n+1] = '"'
		s.buf.Advance(n + 2)
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return (*bitset.BitSet)(ptr).Len() == 0 }
}
