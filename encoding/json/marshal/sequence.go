package marshal

import (
	"unsafe"

	"github.com/viant/tojson"
	"github.com/viant/xunsafe"
)

type sliceHeader struct {
	data unsafe.Pointer
	len  int
	cap  int
}

func (c *compiler) buildSequence(p *Plan) error {
	elemType := p.typ.Elem()
	elem, err := c.compile(elemType)
	if err != nil {
		return err
	}
	size := elemType.Size()
	nilNull := c.e.cfg.NilSliceNull
	p.encode = func(s *session, ptr unsafe.Pointer) {
		h := (*sliceHeader)(ptr)
		if h.data == nil && nilNull {
			s.null()
			return
		}
		s.open('[')
		for i := 0; i < h.len; i++ {
			s.entry(i > 0)
			elem.encode(s, unsafe.Add(h.data, uintptr(i)*size))
		}
		s.close(']', h.len > 0)
	}
	if nilNull {
		p.isNull = func(ptr unsafe.Pointer) bool { return (*sliceHeader)(ptr).data == nil }
	}
	p.isEmpty = func(ptr unsafe.Pointer) bool { return (*sliceHeader)(ptr).len == 0 }
	return nil
}

func (c *compiler) buildFixedArray(p *Plan) error {
	elemType := p.typ.Elem()
	elem, err := c.compile(elemType)
	if err != nil {
		return err
	}
	size := elemType.Size()
	n := p.typ.Len()
	p.encode = func(s *session, ptr unsafe.Pointer) {
		s.open('[')
		for i := 0; i < n; i++ {
			s.entry(i > 0)
			elem.encode(s, unsafe.Add(ptr, uintptr(i)*size))
		}
		s.close(']', n > 0)
	}
	if n == 0 {
		p.isEmpty = func(unsafe.Pointer) bool { return true }
	}
	return nil
}

type tupleElement struct {
	xField *xunsafe.Field
	plan   *Plan
}

// buildTuple writes the exported fields of a struct embedding tojson.Tuple
// as array elements in declaration order.
func (c *compiler) buildTuple(p *Plan) error {
	var elements []tupleElement
	for i := 0; i < p.typ.NumField(); i++ {
		field := p.typ.Field(i)
		if tojson.IsTupleMarker(field.Type) || !field.IsExported() {
			continue
		}
		fp, err := c.compile(field.Type)
		if err != nil {
			return err
		}
		if fp.shape == tojson.ShapeOpaque {
			continue
		}
		elements = append(elements, tupleElement{xField: xunsafe.NewField(field), plan: fp})
	}
	p.encode = func(s *session, ptr unsafe.Pointer) {
		s.open('[')
		for i := range elements {
			el := &elements[i]
			s.entry(i > 0)
			el.plan.encode(s, el.xField.Pointer(ptr))
		}
		s.close(']', len(elements) > 0)
	}
	return nil
}
