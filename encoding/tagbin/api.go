// Package tagbin encodes Go values in a compact self-describing binary form:
// every value starts with a tag byte naming its kind, followed by a fixed
// width or uvarint-counted payload.
package tagbin

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
)

// Marshal returns the binary encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	buf := tojson.NewBuffer(0)
	if err := Write(tojson.NewContext(), buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes v into buf. Recoverable conditions are recorded in ctx; the
// returned error is a compile error or ctx.Err().
func Write(ctx *tojson.Context, buf *tojson.Buffer, v interface{}) error {
	if v == nil {
		buf.PutByte(TagNull)
		return ctx.Err()
	}
	rv := reflect.ValueOf(v)
	fn, err := codecs.encoder(rv.Type())
	if err != nil {
		return err
	}
	fn(&writer{ctx: ctx, buf: buf}, rv)
	return ctx.Err()
}

// Unmarshal decodes data into the value dest points to. Trailing input is a
// syntax error.
func Unmarshal(data []byte, dest interface{}) error {
	ctx := tojson.NewContext()
	n := Decode(ctx, data, dest)
	if err := ctx.Err(); err != nil {
		return err
	}
	if n != len(data) {
		return errors.Wrapf(tojson.ErrSyntax, "%d trailing bytes", len(data)-n)
	}
	return nil
}

// Decode decodes one value from data into the value dest points to and
// returns the number of bytes consumed. Errors are recorded in ctx.
func Decode(ctx *tojson.Context, data []byte, dest interface{}) int {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		ctx.SetError(errors.Wrapf(tojson.ErrUnsupportedType, "destination %T is not a non-nil pointer", dest))
		return 0
	}
	fn, err := codecs.decoder(rv.Type().Elem())
	if err != nil {
		ctx.SetError(err)
		return 0
	}
	d := &decoder{ctx: ctx, data: data}
	d.next(fn, rv.Elem())
	return d.pos
}
