package json

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/viant/tojson"
	"github.com/viant/tojson/encoding/json/marshal"
)

// Writer encodes values of one static type with a plan compiled up front.
type Writer[T any] struct {
	engine *marshal.Engine
	plan   *marshal.Plan
}

// For compiles the plan for T, failing when T or anything it contains has
// no encoder.
func For[T any](opts ...Option) (*Writer[T], error) {
	engine := engineFor(opts)
	plan, err := engine.Lookup(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return &Writer[T]{engine: engine, plan: plan}, nil
}

// MustFor is like For but panics on unsupported types; use it in package
// initialisation.
func MustFor[T any](opts ...Option) *Writer[T] {
	w, err := For[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("tojson: %v", err))
	}
	return w
}

// Write encodes *value into buf.
func (w *Writer[T]) Write(ctx *tojson.Context, buf *tojson.Buffer, value *T) error {
	if value == nil {
		buf.PutString("null")
		return ctx.Err()
	}
	w.engine.Run(w.plan, ctx, buf, unsafe.Pointer(value))
	return ctx.Err()
}

// Marshal returns the JSON encoding of value.
func (w *Writer[T]) Marshal(value T) ([]byte, error) {
	buf := acquireBuffer()
	defer releaseBuffer(buf)
	if err := w.Write(tojson.NewContext(), buf, &value); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// AppendTo appends the JSON encoding of *value to dst.
func (w *Writer[T]) AppendTo(dst []byte, value *T) ([]byte, error) {
	buf := tojson.Wrap(dst)
	if err := w.Write(tojson.NewContext(), buf, value); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}
