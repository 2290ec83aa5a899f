package tagbin

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"github.com/viant/tojson"
)

// registry caches one encoder and one decoder per Go type.
type registry struct {
	mu       sync.RWMutex
	encoders map[reflect.Type]encodeFn
	decoders map[reflect.Type]decodeFn
}

var codecs = &registry{
	encoders: map[reflect.Type]encodeFn{},
	decoders: map[reflect.Type]decodeFn{},
}

func (r *registry) encoder(t reflect.Type) (encodeFn, error) {
	r.mu.RLock()
	fn, ok := r.encoders[t]
	r.mu.RUnlock()
	if ok {
		return fn, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &compiler{r: r}
	fn, err := c.encoder(t)
	if err != nil {
		c.rollback()
		return nil, err
	}
	return fn, nil
}

func (r *registry) decoder(t reflect.Type) (decodeFn, error) {
	r.mu.RLock()
	fn, ok := r.decoders[t]
	r.mu.RUnlock()
	if ok {
		return fn, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &compiler{r: r}
	fn, err := c.decoder(t)
	if err != nil {
		c.rollback()
		return nil, err
	}
	return fn, nil
}

// compiler builds codecs under the registry write lock. A forwarding entry
// is registered before children compile so recursive types resolve.
type compiler struct {
	r            *registry
	addedEncoder []reflect.Type
	addedDecoder []reflect.Type
}

func (c *compiler) rollback() {
	for _, t := range c.addedEncoder {
		delete(c.r.encoders, t)
	}
	for _, t := range c.addedDecoder {
		delete(c.r.decoders, t)
	}
}

func (c *compiler) encoder(t reflect.Type) (encodeFn, error) {
	if fn, ok := c.r.encoders[t]; ok {
		return fn, nil
	}
	shape, err := tojson.Classify(t)
	if err != nil {
		return nil, err
	}
	var target encodeFn
	c.r.encoders[t] = func(w *writer, v reflect.Value) { target(w, v) }
	c.addedEncoder = append(c.addedEncoder, t)
	if target, err = c.buildEncoder(t, shape); err != nil {
		return nil, errors.Wrapf(err, "%v", t)
	}
	c.r.encoders[t] = target
	return target, nil
}

func (c *compiler) decoder(t reflect.Type) (decodeFn, error) {
	if fn, ok := c.r.decoders[t]; ok {
		return fn, nil
	}
	shape, err := tojson.Classify(t)
	if err != nil {
		return nil, err
	}
	var target decodeFn
	c.r.decoders[t] = func(d *decoder, tag byte, v reflect.Value) { target(d, tag, v) }
	c.addedDecoder = append(c.addedDecoder, t)
	if target, err = c.buildDecoder(t, shape); err != nil {
		return nil, errors.Wrapf(err, "%v", t)
	}
	c.r.decoders[t] = target
	return target, nil
}
