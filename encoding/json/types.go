package json

import "github.com/viant/tagly/format/text"

// Option configures how values are written.
type Option interface {
	apply(*Options)
}

// Options is the resolved option record. Values are comparable; one engine is
// compiled and cached per distinct record.
type Options struct {
	Prettify         bool
	IndentationChar  byte
	IndentationWidth int
	QuotedNum        bool
	SkipNullMembers  bool
	Raw              bool
	RawString        bool
	WriteUnknown     bool
	WriteTypeInfo    bool
	Comments         bool
	Concatenate      bool
	DropNullBytes    bool
	NilSlicePolicy   NilSlicePolicy
	CaseFormat       text.CaseFormat
	TimeLayout       string
}

// NilSlicePolicy controls output for nil slices.
type NilSlicePolicy int

const (
	NilSliceAsEmptyArray NilSlicePolicy = iota
	NilSliceAsNull
)
