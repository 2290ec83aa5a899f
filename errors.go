package tojson

import "github.com/pkg/errors"

var (
	// ErrUnsupportedType reports a shape that matches no encoder category.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrUnsupportedValue reports a value that has no representation, such as NaN.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrUnknownAlternative reports a variant holding an undeclared alternative.
	ErrUnknownAlternative = errors.New("unknown variant alternative")
	// ErrSyntax reports an unexpected tag byte in binary input.
	ErrSyntax = errors.New("syntax error")
	// ErrUnexpectedEnd reports truncated binary input.
	ErrUnexpectedEnd = errors.New("unexpected end of input")
)
