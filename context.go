package tojson

// Context carries per-call state shared by every encoder of one call tree.
type Context struct {
	// Indentation is the current pretty-print indentation in characters.
	Indentation int
	err         error
}

// NewContext creates an empty context.
func NewContext() *Context { return &Context{} }

// SetError records err unless an error is already recorded.
func (c *Context) SetError(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

// Err returns the first recorded error.
func (c *Context) Err() error { return c.err }

// Failed reports whether an error has been recorded.
func (c *Context) Failed() bool { return c.err != nil }

// Reset clears indentation and the error slot.
func (c *Context) Reset() {
	c.Indentation = 0
	c.err = nil
}
