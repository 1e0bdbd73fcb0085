package minipy

import "io"

// Context carries the output sink that print statements and stringification
// write to during evaluation.
type Context struct {
	Out io.Writer
}

// NewContext builds a Context writing to w.
func NewContext(w io.Writer) *Context {
	return &Context{Out: w}
}
