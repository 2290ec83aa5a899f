package json

import (
	"github.com/viant/tojson"
	"github.com/viant/tojson/encoding/json/internal/lru"
	"github.com/viant/tojson/encoding/json/marshal"
)

const engineCacheSize = 64

var engines = lru.New[marshal.Config, *marshal.Engine](engineCacheSize)

// engineFor returns the engine compiled for the resolved options.
func engineFor(opts []Option) *marshal.Engine {
	cfg := resolveOptions(opts).config()
	engine, _ := engines.GetOrCreate(cfg, func() (*marshal.Engine, error) {
		return marshal.New(cfg, Logger()), nil
	})
	return engine
}

// Marshal returns the JSON encoding of value.
func Marshal(value interface{}, opts ...Option) ([]byte, error) {
	buf := acquireBuffer()
	defer releaseBuffer(buf)
	if err := engineFor(opts).Write(tojson.NewContext(), buf, value); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// MarshalTo appends the JSON encoding of value to dst.
func MarshalTo(dst []byte, value interface{}, opts ...Option) ([]byte, error) {
	buf := tojson.Wrap(dst)
	if err := engineFor(opts).Write(tojson.NewContext(), buf, value); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

// MarshalJSONC returns the JSON encoding of value with field comments.
func MarshalJSONC(value interface{}, opts ...Option) ([]byte, error) {
	return Marshal(value, append(opts, WithComments(true))...)
}

// Write encodes value into buf. Recoverable conditions are recorded in ctx,
// which keeps the first one; the returned error is a compile error or
// ctx.Err().
func Write(ctx *tojson.Context, buf *tojson.Buffer, value interface{}, opts ...Option) error {
	return engineFor(opts).Write(ctx, buf, value)
}
