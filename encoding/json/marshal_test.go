package json

import (
	"math"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"
	"github.com/viant/tagly/format/text"
	"github.com/viant/tojson"
)

func TestMarshal_Scenario(t *testing.T) {
	in := anotherObject{
		String:        "hi",
		AnotherString: "there",
		EscapedText:   `a"b`,
		Boolean:       true,
		NestedObject:  nestedObject{V3s: [][3]float64{{1, 2, 3}}, ID: "x"},
	}
	data, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"string":"hi","another_string":"there","escaped_text":"a\"b","boolean":true,"nested_object":{"v3s":[[1,2,3]],"id":"x"}}`, string(data))
}

func TestMarshal_SkipNullMembers(t *testing.T) {
	type sample struct {
		F1 *int `json:"f1"`
		F2 int  `json:"f2"`
		F3 *int `json:"f3"`
		F4 int  `json:"f4"`
	}
	in := sample{F2: 5, F4: 7}
	data, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"f2":5,"f4":7}`, string(data))

	data, err = Marshal(in, WithSkipNullMembers(false))
	require.NoError(t, err)
	require.Equal(t, `{"f1":null,"f2":5,"f3":null,"f4":7}`, string(data))

	data, err = Marshal(sample{})
	require.NoError(t, err)
	require.Equal(t, `{"f2":0,"f4":0}`, string(data))

	type allNull struct {
		A *int `json:"a"`
		B *int `json:"b"`
	}
	data, err = Marshal(allNull{}, WithPrettify(true))
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))
}

func TestMarshal_Enum(t *testing.T) {
	data, err := Marshal(color(2))
	require.NoError(t, err)
	require.Equal(t, `2`, string(data))

	data, err = Marshal(green)
	require.NoError(t, err)
	require.Equal(t, `"Green"`, string(data))

	data, err = Marshal([]color{red, green, 7})
	require.NoError(t, err)
	require.Equal(t, `["Red","Green",7]`, string(data))
}

func TestMarshal_Variant(t *testing.T) {
	w, err := For[shape]()
	require.NoError(t, err)

	data, err := w.Marshal(circle{})
	require.NoError(t, err)
	require.Equal(t, `{"type":"Circle"}`, string(data))

	data, err = w.Marshal(square{Side: 2})
	require.NoError(t, err)
	require.Equal(t, `{"type":"Square","side":2}`, string(data))

	data, err = w.Marshal(nil)
	require.NoError(t, err)
	require.Equal(t, `null`, string(data))

	data, err = Marshal(drawing{Shapes: []shape{circle{}, square{Side: 3}}})
	require.NoError(t, err)
	require.Equal(t, `{"shapes":[{"type":"Circle"},{"type":"Square","side":3}]}`, string(data))
}

func TestMarshal_VariantWithoutTypeInfo(t *testing.T) {
	w := MustFor[shape](WithWriteTypeInfo(false))
	data, err := w.Marshal(circle{})
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))

	data, err = w.Marshal(square{Side: 2})
	require.NoError(t, err)
	require.Equal(t, `{"side":2}`, string(data))
}

func TestMarshal_VariantPretty(t *testing.T) {
	w := MustFor[shape](WithPrettify(true))
	data, err := w.Marshal(square{Side: 2})
	require.NoError(t, err)
	require.Equal(t, "{\n   \"type\": \"Square\",\n   \"side\": 2\n}", string(data))
}

func TestMarshal_VariantUnknownAlternative(t *testing.T) {
	w := MustFor[shape]()
	_, err := w.Marshal(triangle{})
	require.ErrorIs(t, err, tojson.ErrUnknownAlternative)
}

func TestMarshal_Maps(t *testing.T) {
	var testCases = []struct {
		description string
		value       interface{}
		options     []Option
		expect      string
	}{
		{description: "sorted string keys", value: map[string]int{"b": 2, "a": 1, "c": 3}, expect: `{"a":1,"b":2,"c":3}`},
		{description: "numeric keys", value: map[int]string{10: "x", 2: "y", -1: "z"}, expect: `{"-1":"z","2":"y","10":"x"}`},
		{description: "bool keys", value: map[bool]int{true: 1, false: 0}, expect: `{"false":0,"true":1}`},
		{description: "enum keys", value: map[color]int{red: 1, color(5): 2}, expect: `{"Red":1,"5":2}`},
		{description: "text marshaler keys", value: map[level]int{2: 1}, expect: `{"L2":1}`},
		{description: "escaped keys", value: map[string]int{`a"b`: 1}, expect: `{"a\"b":1}`},
		{description: "null values skipped", value: map[string]*int{"a": nil, "b": intPtr(1)}, expect: `{"b":1}`},
		{description: "null values kept", value: map[string]*int{"a": nil}, options: []Option{WithSkipNullMembers(false)}, expect: `{"a":null}`},
		{description: "empty", value: map[string]int{}, expect: `{}`},
		{description: "nil", value: map[string]int(nil), expect: `null`},
		{description: "as pairs", value: map[string]int{"b": 2, "a": 1}, options: []Option{WithConcatenate(false)}, expect: `[{"a":1},{"b":2}]`},
		{description: "as pairs empty", value: map[string]int{}, options: []Option{WithConcatenate(false)}, expect: `[]`},
		{description: "quoted numeric keys", value: map[int]int{1: 2}, options: []Option{WithQuotedNum(true)}, expect: `{"1":"2"}`},
		{description: "quoted enum keys", value: map[color]int{7: 1, 1: 2}, options: []Option{WithQuotedNum(true)}, expect: `{"Green":"2","7":"1"}`},
	}
	for _, testCase := range testCases {
		data, err := Marshal(testCase.value, testCase.options...)
		require.NoError(t, err, testCase.description)
		require.Equal(t, testCase.expect, string(data), testCase.description)
	}
}

func TestMarshal_PairMergeTuple(t *testing.T) {
	data, err := Marshal(tojson.NewPair("k", 1))
	require.NoError(t, err)
	require.Equal(t, `{"k":1}`, string(data))

	data, err = Marshal(tojson.NewPair[string, *int]("k", nil))
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))

	data, err = Marshal(tojson.NewPair(color(1), true))
	require.NoError(t, err)
	require.Equal(t, `{"Green":true}`, string(data))

	type b struct {
		B int `json:"b"`
	}
	data, err = Marshal(tojson.MergeOf(map[string]int{"a": 1}, b{B: 2}))
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2}`, string(data))

	data, err = Marshal(tojson.MergeOf(map[string]int{}, nil, &b{B: 2}, tojson.NewPair("c", 3)))
	require.NoError(t, err)
	require.Equal(t, `{"b":2,"c":3}`, string(data))

	_, err = Marshal(tojson.MergeOf(1))
	require.ErrorIs(t, err, tojson.ErrUnsupportedType)

	data, err = Marshal(point{X: 1, Y: 2})
	require.NoError(t, err)
	require.Equal(t, `[1,2]`, string(data))
}

func TestMarshal_Comments(t *testing.T) {
	type sample struct {
		Delay int `json:"delay" comment:"ms"`
	}
	data, err := MarshalJSONC(sample{Delay: 10})
	require.NoError(t, err)
	require.Equal(t, `{"delay":10/*ms*/}`, string(data))

	data, err = MarshalJSONC(sample{Delay: 10}, WithPrettify(true))
	require.NoError(t, err)
	require.Equal(t, "{\n   \"delay\": 10 /*ms*/\n}", string(data))

	data, err = Marshal(sample{Delay: 10})
	require.NoError(t, err)
	require.Equal(t, `{"delay":10}`, string(data))
}

func TestMarshal_UnknownFields(t *testing.T) {
	type sample struct {
		Name  string         `json:"name"`
		Extra map[string]int `jsonx:"unknown"`
	}
	in := sample{Name: "x", Extra: map[string]int{"b": 2, "a": 1}}
	data, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"name":"x","a":1,"b":2}`, string(data))

	data, err = Marshal(in, WithWriteUnknown(false))
	require.NoError(t, err)
	require.Equal(t, `{"name":"x"}`, string(data))

	data, err = Marshal(sample{Extra: map[string]int{"a": 1}}, WithSkipNullMembers(false))
	require.NoError(t, err)
	require.Equal(t, `{"name":"","a":1}`, string(data))
}

func TestMarshal_RawValues(t *testing.T) {
	type sample struct {
		N tojson.Number  `json:"n"`
		R tojson.RawJSON `json:"r"`
	}
	data, err := Marshal(sample{N: "12.50", R: `{"x":[1]}`})
	require.NoError(t, err)
	require.Equal(t, `{"n":12.50,"r":{"x":[1]}}`, string(data))

	data, err = Marshal(sample{})
	require.NoError(t, err)
	require.Equal(t, `{"n":0,"r":null}`, string(data))

	data, err = Marshal(sample{N: "3"}, WithQuotedNum(true))
	require.NoError(t, err)
	require.Equal(t, `{"n":"3","r":null}`, string(data))
}

func TestMarshal_QuotedNum(t *testing.T) {
	type sample struct {
		A int
		B float64
		C bool
	}
	data, err := Marshal(sample{A: 1, B: 2.5, C: true}, WithQuotedNum(true))
	require.NoError(t, err)
	require.Equal(t, `{"A":"1","B":"2.5","C":true}`, string(data))

	type tagged struct {
		A int  `json:"a,string"`
		B bool `json:"b,string"`
	}
	data, err = Marshal(tagged{A: 1, B: true})
	require.NoError(t, err)
	require.Equal(t, `{"a":"1","b":"true"}`, string(data))

	ctx := tojson.NewContext()
	buf := tojson.NewBuffer(0)
	err = Write(ctx, buf, []interface{}{math.NaN(), float32(1.5), color(7), color(1)}, WithQuotedNum(true))
	require.ErrorIs(t, err, tojson.ErrUnsupportedValue)
	require.Equal(t, `[null,"1.5","7","Green"]`, buf.String())
}

func TestMarshal_Scalars(t *testing.T) {
	var testCases = []struct {
		description string
		value       interface{}
		expect      string
	}{
		{description: "nil", value: nil, expect: `null`},
		{description: "null marker", value: tojson.Null{}, expect: `null`},
		{description: "hidden diagnostic", value: tojson.Hidden{}, expect: `"hidden type should not have been written"`},
		{description: "skip diagnostic", value: tojson.Skip{}, expect: `"skip type should not have been written"`},
		{description: "char", value: tojson.Char('x'), expect: `"x"`},
		{description: "escaped char", value: tojson.Char('"'), expect: `"\""`},
		{description: "wide char", value: tojson.Char('ł'), expect: `"ł"`},
		{description: "wide string", value: tojson.NewWideString("hi ✓"), expect: `"hi ✓"`},
		{description: "complex", value: complex(1, -2), expect: `[1,-2]`},
		{description: "complex64", value: complex64(complex(0.5, 0)), expect: `[0.5,0]`},
		{description: "bytes as numbers", value: []byte{1, 2}, expect: `[1,2]`},
		{description: "int8", value: int8(-8), expect: `-8`},
		{description: "uint64", value: uint64(math.MaxUint64), expect: `18446744073709551615`},
		{description: "float32", value: float32(0.1), expect: `0.1`},
		{description: "float64", value: 1e21, expect: `1e+21`},
		{description: "fixed array", value: [2]string{"a", "b"}, expect: `["a","b"]`},
		{description: "empty array", value: [0]int{}, expect: `[]`},
		{description: "json marshaler", value: money{cents: 250}, expect: `{"usd":2}`},
		{description: "text marshaler", value: level(3), expect: `"L3"`},
		{description: "some", value: tojson.Some(5), expect: `5`},
		{description: "none", value: tojson.None[int](), expect: `null`},
		{description: "dynamic", value: []interface{}{1, "a", nil, map[string]interface{}{"k": true}, &square{Side: 1}}, expect: `[1,"a",null,{"k":true},{"side":1}]`},
		{description: "pointer", value: intPtr(4), expect: `4`},
		{description: "time", value: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), expect: `"2024-01-02T03:04:05Z"`},
		{description: "func in slice", value: []interface{}{1, func() {}}, expect: `[1,"func()"]`},
		{description: "nil funcs", value: []func(){nil, nil}, expect: `["func()","func()"]`},
		{description: "chan behind interface", value: map[string]interface{}{"a": make(chan int)}, expect: `{"a":"chan int"}`},
		{description: "func map values skipped", value: map[string]func(){"x": nil}, expect: `{}`},
	}
	for _, testCase := range testCases {
		data, err := Marshal(testCase.value)
		require.NoError(t, err, testCase.description)
		require.Equal(t, testCase.expect, string(data), testCase.description)
		require.True(t, gojson.Valid(data), testCase.description)
	}
}

func TestMarshal_OptionalAndCustomFields(t *testing.T) {
	type sample struct {
		A tojson.Optional[int] `json:"a"`
		B tojson.Optional[int] `json:"b"`
		M *money               `json:"m"`
		L level                `json:"l"`
		H tojson.Hidden        `json:"h"`
	}
	in := sample{A: tojson.Some(1), B: tojson.None[int](), L: 2}
	data, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"l":"L2"}`, string(data))

	data, err = Marshal(in, WithSkipNullMembers(false))
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":null,"m":null,"l":"L2"}`, string(data))
}

func TestMarshal_TimeLayouts(t *testing.T) {
	at := time.Date(2026, 2, 24, 10, 11, 12, 0, time.UTC)
	data, err := Marshal(event{Name: "e", At: at}, WithTimeLayout("2006-01-02"))
	require.NoError(t, err)
	require.Equal(t, `{"name":"e","at":"2026-02-24"}`, string(data))

	type payload struct {
		UserName  string    `format:"caseFormat=lowerUnderscore"`
		CreatedAt time.Time `format:"dateFormat=yyyy-MM-dd"`
		Secret    string    `format:"ignore=true"`
		Note      string    `format:"omitempty=true"`
		Meta      struct {
			TraceID string `json:"traceId"`
		} `format:"inline=true"`
	}
	in := payload{UserName: "alice", CreatedAt: at, Secret: "hidden"}
	in.Meta.TraceID = "abc"
	data, err = Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"user_name":"alice","CreatedAt":"2026-02-24","traceId":"abc"}`, string(data))
}

func TestMarshal_TagPrecedence(t *testing.T) {
	type inner struct {
		City string `json:"city"`
	}
	type sample struct {
		inner
		UserName   string `json:"userName" format:"caseFormat=lowerUnderscore"`
		FirstName  string
		ID         int
		Secret     string `internal:"true"`
		Skipped    string `json:"-"`
		Empty      string `json:",omitempty"`
		unexported int
	}
	in := sample{inner: inner{City: "Paris"}, UserName: "a", FirstName: "b", ID: 3, Secret: "s", Skipped: "x"}
	data, err := Marshal(in, WithCaseFormat(text.CaseFormatLowerUnderscore))
	require.NoError(t, err)
	require.Equal(t, `{"city":"Paris","userName":"a","first_name":"b","id":3}`, string(data))
}

func TestMarshal_NilSlicePolicy(t *testing.T) {
	type sample struct {
		Items []int
	}
	data, err := Marshal(sample{})
	require.NoError(t, err)
	require.Equal(t, `{"Items":[]}`, string(data))

	data, err = Marshal(sample{}, WithNilSlicePolicy(NilSliceAsNull))
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))

	data, err = Marshal(sample{}, WithNilSlicePolicy(NilSliceAsNull), WithSkipNullMembers(false))
	require.NoError(t, err)
	require.Equal(t, `{"Items":null}`, string(data))

	data, err = Marshal(sample{Items: []int{}}, WithNilSlicePolicy(NilSliceAsNull))
	require.NoError(t, err)
	require.Equal(t, `{"Items":[]}`, string(data))

	var top []int
	data, err = Marshal(top)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(data))

	data, err = Marshal(top, WithNilSlicePolicy(NilSliceAsNull))
	require.NoError(t, err)
	require.Equal(t, `null`, string(data))
}

func TestMarshal_Recursive(t *testing.T) {
	root := &node{Name: "root", Children: []*node{{Name: "a"}, {Name: "b", Children: []*node{{Name: "c"}}}}}
	data, err := Marshal(root)
	require.NoError(t, err)
	require.Equal(t, `{"name":"root","children":[{"name":"a"},{"name":"b","children":[{"name":"c"}]}]}`, string(data))
}

func TestMarshal_Errors(t *testing.T) {
	_, err := Marshal(math.NaN())
	require.ErrorIs(t, err, tojson.ErrUnsupportedValue)

	_, err = Marshal(struct{ V float64 }{V: math.Inf(1)})
	require.ErrorIs(t, err, tojson.ErrUnsupportedValue)

	_, err = For[map[chan int]int]()
	require.ErrorIs(t, err, tojson.ErrUnsupportedType)

	require.Panics(t, func() { MustFor[struct{ M map[*int]int }]() })
}

func TestMarshalTo(t *testing.T) {
	dst := []byte("data=")
	out, err := MarshalTo(dst, map[string]int{"a": 1})
	require.NoError(t, err)
	require.Equal(t, `data={"a":1}`, string(out))

	out, err = MarshalTo(dst, math.NaN())
	require.Error(t, err)
	require.Equal(t, "data=", string(out))
}

func TestWriter_AppendTo(t *testing.T) {
	w := MustFor[event]()
	in := event{Name: "n", At: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)}
	out, err := w.AppendTo([]byte("["), &in)
	require.NoError(t, err)
	out, err = w.AppendTo(append(out, ','), nil)
	require.NoError(t, err)
	require.Equal(t, `[{"name":"n","at":"2024-05-06T00:00:00Z"},null`, string(out))
}

func TestWrite_ContextKeepsFirstError(t *testing.T) {
	ctx := tojson.NewContext()
	buf := tojson.NewBuffer(0)
	err := Write(ctx, buf, []interface{}{math.NaN(), triangleHolder{S: triangle{}}})
	require.ErrorIs(t, err, tojson.ErrUnsupportedValue)
	require.Equal(t, `[null,{"s":null}]`, buf.String())
}

type triangleHolder struct {
	S shape `json:"s"`
}

func intPtr(v int) *int { return &v }

func TestMarshal_ArrayVariant(t *testing.T) {
	commands := []command{move{X: 1, Y: 2}, stop{}, nil}
	data, err := Marshal(commands)
	require.NoError(t, err)
	require.Equal(t, `[["move",{"X":1,"Y":2}],["stop",{}],null]`, string(data))

	data, err = Marshal(commands[1:2], WithWriteTypeInfo(false))
	require.NoError(t, err)
	require.Equal(t, `[["stop",{}]]`, string(data))

	data, err = Marshal(commands[1:2], WithPrettify(true))
	require.NoError(t, err)
	require.Equal(t, "[\n   [\n      \"stop\",\n      {}\n   ]\n]", string(data))
}

func TestMarshal_Flags(t *testing.T) {
	type holder struct {
		P permissions `json:"p,omitempty"`
		Q permissions `json:"q"`
	}
	var testCases = []struct {
		description string
		value       interface{}
		options     []Option
		expect      string
	}{
		{description: "set names", value: permissions{Read: true, Execute: true, Admin: true}, expect: `["read","Execute"]`},
		{description: "none set", value: permissions{}, expect: `[]`},
		{description: "omit empty", value: holder{Q: permissions{Write: true}}, expect: `{"q":["write"]}`},
		{description: "case format", value: permissions{Execute: true}, options: []Option{WithCaseFormat(text.CaseFormatLowerUnderscore)}, expect: `["execute"]`},
		{description: "pretty", value: permissions{Read: true, Write: true}, options: []Option{WithPrettify(true)}, expect: "[\n   \"read\",\n   \"write\"\n]"},
	}
	for _, testCase := range testCases {
		data, err := Marshal(testCase.value, testCase.options...)
		require.NoError(t, err, testCase.description)
		require.Equal(t, testCase.expect, string(data), testCase.description)
	}

	type badFlags struct {
		tojson.Flags
		N int
	}
	_, err := Marshal(badFlags{})
	require.ErrorIs(t, err, tojson.ErrUnsupportedType)
}

func TestMarshal_Bitset(t *testing.T) {
	type sample struct {
		Bits  bitset.BitSet
		Empty bitset.BitSet
		Ptr   *bitset.BitSet
		Nil   *bitset.BitSet
	}
	in := sample{Bits: *bitset.New(4).Set(0).Set(2), Ptr: bitset.New(3).Set(2)}
	data, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"Bits":"0101","Empty":"","Ptr":"100"}`, string(data))

	data, err = Marshal([]*bitset.BitSet{bitset.New(1), nil})
	require.NoError(t, err)
	require.Equal(t, `["0",null]`, string(data))
}
