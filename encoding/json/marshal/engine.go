package marshal

import (
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/tagly/format/text"
	"github.com/viant/tojson"
	"go.uber.org/zap"
)

// Config is the option set an Engine compiles its plans for.
type Config struct {
	Prettify        bool
	IndentChar      byte
	IndentWidth     int
	QuotedNum       bool
	SkipNullMembers bool
	Raw             bool
	RawString       bool
	WriteUnknown    bool
	WriteTypeInfo   bool
	Comments        bool
	Concatenate     bool
	DropNullBytes   bool
	NilSliceNull    bool
	CaseFormat      text.CaseFormat
	TimeLayout      string
}

// Engine compiles and caches one plan per Go type; every option branch is
// taken while compiling, never per value.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	writeString func(buf *tojson.Buffer, s string)
	colon       string

	planMu sync.RWMutex
	plans  map[reflect.Type]*Plan
}

// Plan is the compiled encoder of one type.
type Plan struct {
	typ   reflect.Type
	shape tojson.Shape
	// encode writes the value at p.
	encode encodeFn
	// members writes only the entries of an object-like value, with the
	// braces handled by the caller. started reports whether an entry has
	// already been written into the enclosing object; the result reports the
	// same after this call.
	members membersFn
	isNull  func(p unsafe.Pointer) bool
	isEmpty func(p unsafe.Pointer) bool
}

type encodeFn func(s *session, p unsafe.Pointer)

type membersFn func(s *session, p unsafe.Pointer, started bool) bool

// Shape returns the category the plan was compiled for.
func (p *Plan) Shape() tojson.Shape { return p.shape }

// Type returns the planned type.
func (p *Plan) Type() reflect.Type { return p.typ }

func (p *Plan) nullLike(ptr unsafe.Pointer) bool {
	return p.isNull != nil && p.isNull(ptr)
}

func (p *Plan) empty(ptr unsafe.Pointer) bool {
	return p.isEmpty != nil && p.isEmpty(ptr)
}

// New creates an engine for cfg. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Engine {
	if cfg.IndentChar == 0 {
		cfg.IndentChar = ' '
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = time.RFC3339
	}
	if !cfg.Prettify {
		cfg.IndentWidth = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ret := &Engine{
		cfg:    cfg,
		logger: logger,
		plans:  map[reflect.Type]*Plan{},
		colon:  ":",
	}
	if cfg.Prettify {
		ret.colon = ": "
	}
	ret.writeString = newStringWriter(cfg)
	return ret
}

// Config returns the options the engine was built for.
func (e *Engine) Config() Config { return e.cfg }

// Lookup returns the compiled plan for t, compiling it on first use.
func (e *Engine) Lookup(t reflect.Type) (*Plan, error) {
	e.planMu.RLock()
	p, ok := e.plans[t]
	e.planMu.RUnlock()
	if ok {
		return p, nil
	}
	e.planMu.Lock()
	defer e.planMu.Unlock()
	c := &compiler{e: e}
	p, err := c.compile(t)
	if err != nil {
		for _, added := range c.added {
			delete(e.plans, added)
		}
		e.logger.Debug("plan compile failed", zap.String("type", t.String()), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// Compile checks that t is supported, compiling its plan.
func (e *Engine) Compile(t reflect.Type) error {
	_, err := e.Lookup(t)
	return err
}

// Write encodes value into buf. Recoverable runtime conditions are recorded
// in ctx; the returned error is the compile error or ctx.Err().
func (e *Engine) Write(ctx *tojson.Context, buf *tojson.Buffer, value any) error {
	if value == nil {
		buf.PutString("null")
		return ctx.Err()
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			buf.PutString("null")
			return ctx.Err()
		}
		return e.WriteTyped(ctx, buf, rv.Type().Elem(), rv.UnsafePointer())
	}
	return e.WriteTyped(ctx, buf, rv.Type(), valuePointer(rv))
}

// WriteTyped encodes the value of type t stored at ptr.
func (e *Engine) WriteTyped(ctx *tojson.Context, buf *tojson.Buffer, t reflect.Type, ptr unsafe.Pointer) error {
	p, err := e.Lookup(t)
	if err != nil {
		return err
	}
	e.Run(p, ctx, buf, ptr)
	return ctx.Err()
}

// Run executes a plan previously returned by Lookup.
func (e *Engine) Run(p *Plan, ctx *tojson.Context, buf *tojson.Buffer, ptr unsafe.Pointer) {
	s := acquireSession(e, ctx, buf)
	p.encode(s, ptr)
	releaseSession(s)
}

// Marshal encodes value into a new slice.
func (e *Engine) Marshal(value any) ([]byte, error) {
	buf := tojson.NewBuffer(0)
	ctx := tojson.NewContext()
	if err := e.Write(ctx, buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTo appends the encoding of value to dst.
func (e *Engine) MarshalTo(dst []byte, value any) ([]byte, error) {
	buf := tojson.Wrap(dst)
	if err := e.Write(tojson.NewContext(), buf, value); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

// compiler builds plans under the engine's write lock. Plans are registered
// before their children compile so recursive types resolve to themselves.
type compiler struct {
	e     *Engine
	added []reflect.Type
}

func (c *compiler) compile(t reflect.Type) (*Plan, error) {
	if p, ok := c.e.plans[t]; ok {
		return p, nil
	}
	shape, err := tojson.Classify(t)
	if err != nil {
		return nil, err
	}
	p := &Plan{typ: t, shape: shape}
	c.e.plans[t] = p
	c.added = append(c.added, t)
	if err = c.build(p); err != nil {
		return nil, errors.Wrapf(err, "%v", t)
	}
	return p, nil
}

func (c *compiler) build(p *Plan) error {
	t := p.typ
	switch p.shape {
	case tojson.ShapeHidden:
		c.buildHidden(p)
	case tojson.ShapeAlwaysNull:
		c.buildNull(p)
	case tojson.ShapeRaw:
		c.buildRaw(p)
	case tojson.ShapeRawNumber:
		c.buildRawNumber(p)
	case tojson.ShapeChar:
		c.buildChar(p)
	case tojson.ShapeWideString:
		c.buildWideString(p)
	case tojson.ShapeTime:
		c.buildTime(p, c.e.cfg.TimeLayout)
	case tojson.ShapeMerge:
		c.buildMerge(p)
	case tojson.ShapePair:
		return c.buildPair(p)
	case tojson.ShapeOptional:
		return c.buildOptional(p)
	case tojson.ShapeEnum:
		return c.buildEnum(p)
	case tojson.ShapeTuple:
		return c.buildTuple(p)
	case tojson.ShapeCustom:
		c.buildCustom(p)
	case tojson.ShapeBool:
		c.buildBool(p, false)
	case tojson.ShapeNumeric:
		c.buildNumeric(p, c.e.cfg.QuotedNum)
	case tojson.ShapeComplex:
		c.buildComplex(p)
	case tojson.ShapeString:
		c.buildString(p)
	case tojson.ShapePointer:
		return c.buildPointer(p)
	case tojson.ShapeVariant:
		return c.buildVariant(p)
	case tojson.ShapeDynamic:
		c.buildDynamic(p)
	case tojson.ShapeSequence:
		return c.buildSequence(p)
	case tojson.ShapeFixedArray:
		return c.buildFixedArray(p)
	case tojson.ShapeMap:
		return c.buildMap(p)
	case tojson.ShapeObject:
		return c.buildObject(p)
	case tojson.ShapeOpaque:
		c.buildOpaque(p)
	case tojson.ShapeFlags:
		return c.buildFlags(p)
	case tojson.ShapeBitset:
		c.buildBitset(p)
	default:
		return errors.Wrapf(tojson.ErrUnsupportedType, "%v", t)
	}
	return nil
}

// detached compiles a plan variant that is not cached by type, such as a
// quoted field or a field with its own time layout.
func (c *compiler) detached(t reflect.Type, build func(p *Plan)) *Plan {
	p := &Plan{typ: t}
	p.shape, _ = tojson.Classify(t)
	build(p)
	return p
}

// valuePointer returns a pointer to v's data, copying v when it is not
// addressable.
func valuePointer(v reflect.Value) unsafe.Pointer {
	if v.CanAddr() {
		return v.Addr().UnsafePointer()
	}
	tmp := reflect.New(v.Type())
	tmp.Elem().Set(v)
	return tmp.UnsafePointer()
}
