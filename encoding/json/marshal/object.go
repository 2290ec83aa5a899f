package marshal

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
	"github.com/viant/tojson/encoding/json/internal/tagutil"
	"github.com/viant/xunsafe"
)

// fieldOp writes one struct field; key holds the quoted name and colon.
type fieldOp struct {
	name      string
	key       []byte
	xField    *xunsafe.Field
	plan      *Plan
	omitEmpty bool
	inline    bool
	comment   []byte
}

func (c *compiler) buildObject(p *Plan) error {
	ops, unknown, err := c.objectFields(p.typ)
	if err != nil {
		return err
	}
	skipNull := c.e.cfg.SkipNullMembers
	if !c.e.cfg.WriteUnknown {
		unknown = nil
	}
	members := func(s *session, ptr unsafe.Pointer, started bool) bool {
		for i := range ops {
			op := &ops[i]
			fieldPtr := op.xField.Pointer(ptr)
			if op.inline {
				started = op.plan.members(s, fieldPtr, started)
				continue
			}
			if skipNull && op.plan.nullLike(fieldPtr) {
				continue
			}
			if op.omitEmpty && op.plan.empty(fieldPtr) {
				continue
			}
			s.entry(started)
			started = true
			s.buf.PutBytes(op.key)
			op.plan.encode(s, fieldPtr)
			if op.comment != nil {
				s.buf.PutBytes(op.comment)
			}
		}
		if unknown != nil {
			started = unknown.plan.members(s, unknown.xField.Pointer(ptr), started)
		}
		return started
	}
	p.members = members
	p.encode = func(s *session, ptr unsafe.Pointer) {
		s.open('{')
		started := members(s, ptr, false)
		s.close('}', started)
	}
	return nil
}

// objectFields resolves the schema descriptor of t in declaration order. The
// field tagged jsonx:"unknown" is returned separately.
func (c *compiler) objectFields(t reflect.Type) ([]fieldOp, *fieldOp, error) {
	cfg := c.e.cfg
	var ops []fieldOp
	var unknown *fieldOp
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := tagutil.Resolve(sf, cfg.CaseFormat)
		if tag.Ignore {
			continue
		}
		if !sf.IsExported() && !(sf.Anonymous && mergeable(sf.Type)) {
			continue
		}
		fp, err := c.compile(sf.Type)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "field %v", sf.Name)
		}
		switch fp.shape {
		case tojson.ShapeHidden, tojson.ShapeOpaque:
			continue
		}
		op := fieldOp{
			name:      tag.Name,
			xField:    xunsafe.NewField(sf),
			plan:      fp,
			omitEmpty: tag.OmitEmpty,
		}
		if tag.Unknown {
			if !mergeable(sf.Type) {
				return nil, nil, errors.Wrapf(tojson.ErrUnsupportedType, "unknown fields holder %v must be a map or struct", sf.Name)
			}
			unknown = &op
			continue
		}
		if tag.Inline && mergeable(sf.Type) {
			op.inline = true
			ops = append(ops, op)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		switch {
		case tag.Quoted && fp.shape == tojson.ShapeNumeric:
			op.plan = c.detached(sf.Type, func(p *Plan) { c.buildNumeric(p, true) })
		case tag.Quoted && fp.shape == tojson.ShapeBool:
			op.plan = c.detached(sf.Type, func(p *Plan) { c.buildBool(p, true) })
		case tag.TimeLayout != "" && fp.shape == tojson.ShapeTime:
			op.plan = c.timePlan(tag.TimeLayout)
		}
		op.key = c.keyLiteral(tag.Name)
		if cfg.Comments && tag.Comment != "" {
			op.comment = c.commentLiteral(tag.Comment)
		}
		ops = append(ops, op)
	}
	return ops, unknown, nil
}

// mergeable reports whether values of t write their members into an
// enclosing object.
func mergeable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	shape, err := tojson.Classify(t)
	if err != nil {
		return false
	}
	return shape.IsObjectLike()
}

// keyLiteral pre-escapes and quotes name, followed by the separator colon.
func (c *compiler) keyLiteral(name string) []byte {
	buf := tojson.NewBuffer(2*len(name) + 8)
	WriteString(buf, name)
	buf.PutString(c.e.colon)
	return append([]byte(nil), buf.Bytes()...)
}

func (c *compiler) commentLiteral(comment string) []byte {
	var ret []byte
	if c.e.cfg.Prettify {
		ret = append(ret, ' ')
	}
	ret = append(ret, "/*"...)
	ret = append(ret, comment...)
	return append(ret, "*/"...)
}
