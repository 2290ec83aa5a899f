package tagutil

import "strings"

// JSONTag is the parsed `json` struct tag.
type JSONTag struct {
	Name      string
	OmitEmpty bool
	Quoted    bool
	Explicit  bool
	Named     bool
	Transient bool
}

// ParseJSONTag parses raw, falling back to defaultName when no name is given.
func ParseJSONTag(defaultName string, raw string) JSONTag {
	if raw == "" {
		return JSONTag{Name: defaultName}
	}
	name, opts, _ := strings.Cut(raw, ",")
	if name == "-" && opts == "" {
		return JSONTag{Name: name, Explicit: true, Named: true, Transient: true}
	}
	tag := JSONTag{Name: name, Explicit: true, Named: name != ""}
	if name == "" {
		tag.Name = defaultName
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		switch opt {
		case "omitempty":
			tag.OmitEmpty = true
		case "string":
			tag.Quoted = true
		}
	}
	return tag
}

// ParseJSONXTag parses the `jsonx` tag into its flags.
func ParseJSONXTag(raw string) (inline, unknown bool) {
	for raw != "" {
		var opt string
		opt, raw, _ = strings.Cut(raw, ",")
		switch strings.TrimSpace(opt) {
		case "inline":
			inline = true
		case "unknown":
			unknown = true
		}
	}
	return inline, unknown
}
