package tagutil

import (
	"reflect"
	"sync"

	"github.com/viant/tagly/format"
	"github.com/viant/tagly/format/text"
	ftime "github.com/viant/tagly/format/time"
)

// Field is the schema descriptor entry resolved for one struct field.
type Field struct {
	Name       string
	Explicit   bool
	OmitEmpty  bool
	Quoted     bool
	Ignore     bool
	Inline     bool
	Unknown    bool
	Comment    string
	TimeLayout string
}

type formatTag struct {
	name       string
	caseFormat string
	omitEmpty  bool
	ignore     bool
	inline     bool
	timeLayout string
}

var formatTagCache sync.Map // map[string]formatTag

// Resolve builds the descriptor for sf. Precedence:
// 1) an explicit json name wins over a format name or case;
// 2) inline comes from embedding, jsonx:"inline" or format inline;
// 3) ignore comes from json:"-", internal:"true" or format ignore;
// 4) omitempty comes from json or format.
// When the name is not explicit, caseFormat (if defined) rewrites it.
func Resolve(sf reflect.StructField, caseFormat text.CaseFormat) Field {
	jTag := ParseJSONTag(sf.Name, sf.Tag.Get("json"))
	fTag := loadFormatTag(string(sf.Tag))
	inline, unknown := ParseJSONXTag(sf.Tag.Get("jsonx"))

	ret := Field{
		Name:      jTag.Name,
		Explicit:  jTag.Explicit,
		OmitEmpty: jTag.OmitEmpty || fTag.omitEmpty,
		Quoted:    jTag.Quoted,
		Ignore:    jTag.Transient || sf.Tag.Get("internal") == "true" || fTag.ignore,
		Inline:    (sf.Anonymous && !jTag.Named) || inline || fTag.inline,
		Unknown:   unknown,
		Comment:   sf.Tag.Get("comment"),
	}
	if !ret.Explicit && (fTag.name != "" || fTag.caseFormat != "") {
		tag := &format.Tag{Name: fTag.name, CaseFormat: fTag.caseFormat}
		if tag.Name == "" {
			tag.Name = ret.Name
		}
		if name := tag.CaseFormatName(""); name != "" {
			ret.Name = name
			ret.Explicit = true
		}
	}
	if !ret.Explicit {
		ret.Name = FormatName(ret.Name, caseFormat)
	}
	ret.TimeLayout = fTag.timeLayout
	return ret
}

func loadFormatTag(rawTag string) formatTag {
	if v, ok := formatTagCache.Load(rawTag); ok {
		return v.(formatTag)
	}
	tag, err := format.Parse(reflect.StructTag(rawTag))
	if err != nil || tag == nil {
		formatTagCache.Store(rawTag, formatTag{})
		return formatTag{}
	}
	ret := formatTag{
		name:       tag.Name,
		caseFormat: tag.CaseFormat,
		omitEmpty:  tag.Omitempty,
		ignore:     tag.Ignore,
		inline:     tag.Inline,
		timeLayout: tag.TimeLayout,
	}
	if ret.timeLayout == "" && tag.DateFormat != "" {
		ret.timeLayout = ftime.DateFormatToTimeLayout(tag.DateFormat)
	}
	formatTagCache.Store(rawTag, ret)
	return ret
}

// FormatName rewrites a Go field name into caseFormat.
func FormatName(name string, caseFormat text.CaseFormat) string {
	if caseFormat == text.CaseFormatUndefined {
		return name
	}
	if name == "ID" {
		switch caseFormat {
		case text.CaseFormatLower, text.CaseFormatLowerCamel, text.CaseFormatLowerUnderscore:
			return "id"
		}
	}
	src := text.DetectCaseFormat(name)
	if !src.IsDefined() {
		src = text.CaseFormatUpperCamel
	}
	return src.Format(name, caseFormat)
}
