package marshal

import (
	"sync"

	"github.com/viant/tojson"
)

// session threads the context and buffer of one call through the plans.
type session struct {
	e      *Engine
	ctx    *tojson.Context
	buf    *tojson.Buffer
	pretty bool
	width  int
	char   byte
}

var sessionPool = sync.Pool{New: func() interface{} { return &session{} }}

func acquireSession(e *Engine, ctx *tojson.Context, buf *tojson.Buffer) *session {
	s := sessionPool.Get().(*session)
	s.e = e
	s.ctx = ctx
	s.buf = buf
	s.pretty = e.cfg.Prettify
	s.width = e.cfg.IndentWidth
	s.char = e.cfg.IndentChar
	return s
}

func releaseSession(s *session) {
	s.e = nil
	s.ctx = nil
	s.buf = nil
	sessionPool.Put(s)
}

// open writes an opening bracket and enters one indentation level.
func (s *session) open(c byte) {
	s.buf.PutByte(c)
	s.ctx.Indentation += s.width
}

// entry writes the separator placed before an entry: a comma unless it is
// the first one, then, when pretty, a newline and the current indentation.
func (s *session) entry(started bool) {
	if !s.pretty {
		if started {
			s.buf.PutByte(',')
		}
		return
	}
	n := s.ctx.Indentation
	s.buf.Ensure(n + 2)
	if started {
		s.buf.PutByteUnchecked(',')
	}
	s.buf.PutByteUnchecked('\n')
	s.indent(n)
}

// close leaves the indentation level and writes the closing bracket. Empty
// containers get no interior whitespace.
func (s *session) close(c byte, started bool) {
	s.ctx.Indentation -= s.width
	if s.pretty && started {
		n := s.ctx.Indentation
		s.buf.Ensure(n + 2)
		s.buf.PutByteUnchecked('\n')
		s.indent(n)
		s.buf.PutByteUnchecked(c)
		return
	}
	s.buf.PutByte(c)
}

// indent writes n indentation characters; capacity must already be ensured.
func (s *session) indent(n int) {
	if n <= 0 {
		return
	}
	w := s.buf.Window()[:n]
	for i := range w {
		w[i] = s.char
	}
	s.buf.Advance(n)
}

func (s *session) null() {
	s.buf.PutString("null")
}
