package json

import (
	"time"

	"github.com/viant/tagly/format/text"
	"github.com/viant/tojson/encoding/json/marshal"
)

type optionFn func(*Options)

func (o optionFn) apply(opts *Options) { o(opts) }

// WithPrettify enables newlines and indentation.
func WithPrettify(enabled bool) Option {
	return optionFn(func(o *Options) { o.Prettify = enabled })
}

// WithIndentation sets the pretty-print indentation character and width.
func WithIndentation(char byte, width int) Option {
	return optionFn(func(o *Options) {
		o.IndentationChar = char
		o.IndentationWidth = width
	})
}

// WithQuotedNum writes numbers as quoted strings.
func WithQuotedNum(enabled bool) Option {
	return optionFn(func(o *Options) { o.QuotedNum = enabled })
}

// WithSkipNullMembers omits null-like object and map entries.
func WithSkipNullMembers(enabled bool) Option {
	return optionFn(func(o *Options) { o.SkipNullMembers = enabled })
}

// WithRaw writes strings and characters without quotes or escaping.
func WithRaw(enabled bool) Option {
	return optionFn(func(o *Options) { o.Raw = enabled })
}

// WithRawString quotes strings without escaping them.
func WithRawString(enabled bool) Option {
	return optionFn(func(o *Options) { o.RawString = enabled })
}

// WithWriteUnknown merges fields tagged jsonx:"unknown" into their object.
func WithWriteUnknown(enabled bool) Option {
	return optionFn(func(o *Options) { o.WriteUnknown = enabled })
}

// WithWriteTypeInfo writes the tag member of tagged variants.
func WithWriteTypeInfo(enabled bool) Option {
	return optionFn(func(o *Options) { o.WriteTypeInfo = enabled })
}

// WithComments writes comment:"..." tags as /*...*/ after their field.
func WithComments(enabled bool) Option {
	return optionFn(func(o *Options) { o.Comments = enabled })
}

// WithConcatenate writes maps as objects; disabled, maps are written as
// arrays of one-entry objects.
func WithConcatenate(enabled bool) Option {
	return optionFn(func(o *Options) { o.Concatenate = enabled })
}

// WithDropNullBytes drops NUL bytes from strings instead of writing \u0000.
func WithDropNullBytes(enabled bool) Option {
	return optionFn(func(o *Options) { o.DropNullBytes = enabled })
}

func WithNilSlicePolicy(policy NilSlicePolicy) Option {
	return optionFn(func(o *Options) { o.NilSlicePolicy = policy })
}

func WithCaseFormat(caseFormat text.CaseFormat) Option {
	return optionFn(func(o *Options) { o.CaseFormat = caseFormat })
}

func WithTimeLayout(layout string) Option {
	return optionFn(func(o *Options) { o.TimeLayout = layout })
}

func defaultOptions() Options {
	return Options{
		IndentationChar:  ' ',
		IndentationWidth: 3,
		SkipNullMembers:  true,
		WriteUnknown:     true,
		WriteTypeInfo:    true,
		Concatenate:      true,
		NilSlicePolicy:   NilSliceAsEmptyArray,
		CaseFormat:       text.CaseFormatUndefined,
		TimeLayout:       time.RFC3339,
	}
}

func resolveOptions(opts []Option) Options {
	result := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(&result)
	}
	if result.IndentationChar == 0 {
		result.IndentationChar = ' '
	}
	if result.IndentationWidth < 0 {
		result.IndentationWidth = 0
	}
	if result.TimeLayout == "" {
		result.TimeLayout = time.RFC3339
	}
	return result
}

func (o Options) config() marshal.Config {
	return marshal.Config{
		Prettify:        o.Prettify,
		IndentChar:      o.IndentationChar,
		IndentWidth:     o.IndentationWidth,
		QuotedNum:       o.QuotedNum,
		SkipNullMembers: o.SkipNullMembers,
		Raw:             o.Raw,
		RawString:       o.RawString,
		WriteUnknown:    o.WriteUnknown,
		WriteTypeInfo:   o.WriteTypeInfo,
		Comments:        o.Comments,
		Concatenate:     o.Concatenate,
		DropNullBytes:   o.DropNullBytes,
		NilSliceNull:    o.NilSlicePolicy == NilSliceAsNull,
		CaseFormat:      o.CaseFormat,
		TimeLayout:      o.TimeLayout,
	}
}
