package main

import (
	"strconv"

	"github.com/francoispqt/gojay"
)

type nestedObject struct {
	V3s [][3]float64 `json:"v3s"`
	ID  string       `json:"id"`
}

type anotherObject struct {
	String        string       `json:"string"`
	AnotherString string       `json:"another_string"`
	EscapedText   string       `json:"escaped_text"`
	Boolean       bool         `json:"boolean"`
	NestedObject  nestedObject `json:"nested_object"`
}

type perfObject struct {
	Qmap map[int]anotherObject `json:"qmap"`
}

func newNested() nestedObject {
	return nestedObject{
		V3s: [][3]float64{
			{0.12345, 0.23456, 0.001345},
			{0.3894675, 97.39827, 297.92387},
			{18.18, 87.289, 2988.298},
		},
		ID: "298728949872",
	}
}

// newPerfObject fills the map with n entries of each of the two variants.
func newPerfObject(n int) *perfObject {
	ret := &perfObject{Qmap: make(map[int]anotherObject, 2*n)}
	for i := 0; i < n; i++ {
		ret.Qmap[i] = anotherObject{
			String:        "qweqwe",
			AnotherString: "qweqweqwe",
			EscapedText:   "{\"some key\":\"some string value\"}",
			NestedObject:  newNested(),
		}
		ret.Qmap[n+i] = anotherObject{
			String:        "asdasd",
			AnotherString: "asdasdasd",
			EscapedText:   "line\nbreak\tand \"quotes\"",
			Boolean:       true,
			NestedObject:  newNested(),
		}
	}
	return ret
}

func (o *perfObject) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ObjectKey("qmap", qmapObject(o.Qmap))
}

func (o *perfObject) IsNil() bool { return o == nil }

func (o *perfObject) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	if key != "qmap" {
		return nil
	}
	if o.Qmap == nil {
		o.Qmap = map[int]anotherObject{}
	}
	return dec.Object(qmapObject(o.Qmap))
}

func (o *perfObject) NKeys() int { return 1 }

type qmapObject map[int]anotherObject

func (m qmapObject) MarshalJSONObject(enc *gojay.Encoder) {
	for k, v := range m {
		value := v
		enc.ObjectKey(strconv.Itoa(k), &value)
	}
}

func (m qmapObject) IsNil() bool { return m == nil }

func (m qmapObject) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	k, err := strconv.Atoi(key)
	if err != nil {
		return err
	}
	var value anotherObject
	if err = dec.Object(&value); err != nil {
		return err
	}
	m[k] = value
	return nil
}

func (m qmapObject) NKeys() int { return 0 }

func (o *anotherObject) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("string", o.String)
	enc.StringKey("another_string", o.AnotherString)
	enc.StringKey("escaped_text", o.EscapedText)
	enc.BoolKey("boolean", o.Boolean)
	enc.ObjectKey("nested_object", &o.NestedObject)
}

func (o *anotherObject) IsNil() bool { return o == nil }

func (o *anotherObject) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "string":
		return dec.String(&o.String)
	case "another_string":
		return dec.String(&o.AnotherString)
	case "escaped_text":
		return dec.String(&o.EscapedText)
	case "boolean":
		return dec.Bool(&o.Boolean)
	case "nested_object":
		return dec.Object(&o.NestedObject)
	}
	return nil
}

func (o *anotherObject) NKeys() int { return 5 }

func (o *nestedObject) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("v3s", v3sArray(o.V3s))
	enc.StringKey("id", o.ID)
}

func (o *nestedObject) IsNil() bool { return o == nil }

func (o *nestedObject) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "v3s":
		arr := v3sArray(o.V3s[:0])
		if err := dec.Array(&arr); err != nil {
			return err
		}
		o.V3s = arr
	case "id":
		return dec.String(&o.ID)
	}
	return nil
}

func (o *nestedObject) NKeys() int { return 2 }

type v3sArray [][3]float64

func (a v3sArray) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range a {
		enc.Array(vec3(a[i]))
	}
}

func (a v3sArray) IsNil() bool { return a == nil }

func (a *v3sArray) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var v vec3Decoder
	if err := dec.Array(&v); err != nil {
		return err
	}
	*a = append(*a, v.value)
	return nil
}

type vec3 [3]float64

func (v vec3) MarshalJSONArray(enc *gojay.Encoder) {
	for _, x := range v {
		enc.Float64(x)
	}
}

func (v vec3) IsNil() bool { return false }

type vec3Decoder struct {
	value [3]float64
	n     int
}

func (v *vec3Decoder) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var x float64
	if err := dec.Float64(&x); err != nil {
		return err
	}
	if v.n < len(v.value) {
		v.value[v.n] = x
	}
	v.n++
	return nil
}
