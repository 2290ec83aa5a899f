package marshal

import (
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"unsafe"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/viant/tojson"
)

type prettySample struct {
	A int
	B []int
	C []int
	D map[string]int
}

type treeNode struct {
	Name     string
	Children []*treeNode
	Parent   *treeNode `json:",omitempty"`
}

func TestEngine_Prettify(t *testing.T) {
	e := New(Config{Prettify: true, IndentWidth: 3, Concatenate: true}, nil)
	out, err := e.Marshal(prettySample{A: 1, B: []int{1, 2}, C: []int{}, D: map[string]int{}})
	require.NoError(t, err)
	expect := "{\n   \"A\": 1,\n   \"B\": [\n      1,\n      2\n   ],\n   \"C\": [],\n   \"D\": {}\n}"
	require.Equal(t, expect, string(out))
}

func TestEngine_PrettifyTabs(t *testing.T) {
	e := New(Config{Prettify: true, IndentChar: '\t', IndentWidth: 1, Concatenate: true}, nil)
	out, err := e.Marshal(map[string][]int{"x": {1}})
	require.NoError(t, err)
	require.Equal(t, "{\n\t\"x\": [\n\t\t1\n\t]\n}", string(out))
}

func TestEngine_IndentationRestored(t *testing.T) {
	e := New(Config{Prettify: true, IndentWidth: 2}, nil)
	ctx := tojson.NewContext()
	buf := tojson.NewBuffer(0)
	require.NoError(t, e.Write(ctx, buf, prettySample{B: []int{1}}))
	require.Equal(t, 0, ctx.Indentation)
}

func TestEngine_RecursiveType(t *testing.T) {
	e := New(Config{SkipNullMembers: true}, nil)
	root := &treeNode{Name: "root"}
	root.Children = []*treeNode{{Name: "a"}, {Name: "b", Children: []*treeNode{{Name: "c"}}}}
	out, err := e.Marshal(root)
	require.NoError(t, err)
	require.Equal(t, `{"Name":"root","Children":[{"Name":"a","Children":[]},{"Name":"b","Children":[{"Name":"c","Children":[]}]}]}`, string(out))
}

func TestEngine_FailedCompileLeavesNoPlans(t *testing.T) {
	type bad struct {
		OK  int
		Bad map[chan int]int
	}
	e := New(Config{}, nil)
	_, err := e.Lookup(reflect.TypeOf(bad{}))
	require.Error(t, err)
	require.ErrorIs(t, err, tojson.ErrUnsupportedType)
	e.planMu.RLock()
	defer e.planMu.RUnlock()
	_, ok := e.plans[reflect.TypeOf(bad{})]
	require.False(t, ok)
}

func TestEngine_UnsafePointerUnsupported(t *testing.T) {
	e := New(Config{}, nil)
	_, err := e.Lookup(reflect.TypeOf(unsafe.Pointer(nil)))
	require.ErrorIs(t, err, tojson.ErrUnsupportedType)
}

func TestEngine_NonFiniteFloat(t *testing.T) {
	e := New(Config{}, nil)
	ctx := tojson.NewContext()
	buf := tojson.NewBuffer(0)
	err := e.Write(ctx, buf, []float64{1, math.NaN(), math.Inf(-1)})
	require.ErrorIs(t, err, tojson.ErrUnsupportedValue)
	require.Equal(t, "[1,null,null]", buf.String())
}

func TestEngine_OpaqueFieldsSkipped(t *testing.T) {
	type withFunc struct {
		Fn   func()
		Ch   chan int
		Name string
	}
	e := New(Config{}, nil)
	out, err := e.Marshal(withFunc{Name: "x"})
	require.NoError(t, err)
	require.Equal(t, `{"Name":"x"}`, string(out))
}

func TestEngine_OpaqueValues(t *testing.T) {
	var testCases = []struct {
		description string
		config      Config
		value       interface{}
		expect      string
	}{
		{description: "array of funcs", value: [2]func(){}, expect: `["func()","func()"]`},
		{description: "map values kept", config: Config{Concatenate: true}, value: map[string]func(){"x": nil}, expect: `{"x":"func()"}`},
		{description: "map values skipped", config: Config{Concatenate: true, SkipNullMembers: true}, value: map[string]chan int{"x": nil}, expect: `{}`},
		{description: "pairs of maps", value: map[string]func(){"x": nil}, expect: `[{"x":"func()"}]`},
		{description: "pair value", config: Config{SkipNullMembers: true}, value: tojson.NewPair("k", func() {}), expect: `{}`},
	}
	for _, testCase := range testCases {
		out, err := New(testCase.config, nil).Marshal(testCase.value)
		require.NoError(t, err, testCase.description)
		require.Equal(t, testCase.expect, string(out), testCase.description)
		require.True(t, gojson.Valid(out), testCase.description)
	}
}

func TestEngine_QuotedNonFinite(t *testing.T) {
	e := New(Config{QuotedNum: true}, nil)
	ctx := tojson.NewContext()
	buf := tojson.NewBuffer(0)
	err := e.Write(ctx, buf, []float64{1, math.Inf(1)})
	require.ErrorIs(t, err, tojson.ErrUnsupportedValue)
	require.Equal(t, `["1",null]`, buf.String())
}

func TestWriteString_Escapes(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
		expect      string
	}{
		{description: "empty", input: "", expect: `""`},
		{description: "plain", input: "hello", expect: `"hello"`},
		{description: "quote and backslash", input: `a"b\c`, expect: `"a\"b\\c"`},
		{description: "short escapes", input: "\b\f\n\r\t", expect: `"\b\f\n\r\t"`},
		{description: "control", input: "\x01\x1f", expect: `"\u0001\u001f"`},
		{description: "nul", input: "a\x00b", expect: `"a\u0000b"`},
		{description: "utf8 untouched", input: "zażółć ✓", expect: `"zażółć ✓"`},
		{description: "html untouched", input: "<a&b>", expect: `"<a&b>"`},
		{description: "window boundary", input: "12345678\"", expect: `"12345678\""`},
	}
	for _, testCase := range testCases {
		buf := tojson.NewBuffer(0)
		WriteString(buf, testCase.input)
		require.Equal(t, testCase.expect, buf.String(), testCase.description)
	}
}

func TestWriteString_EveryOffset(t *testing.T) {
	specials := []byte{'"', '\\', '\n', '\t', 0x00, 0x01, 0x1f}
	for _, c := range specials {
		for offset := 0; offset < 20; offset++ {
			for tail := 0; tail < 10; tail++ {
				input := strings.Repeat("x", offset) + string([]byte{c}) + strings.Repeat("y", tail)
				buf := tojson.NewBuffer(0)
				WriteString(buf, input)
				var decoded string
				require.NoError(t, gojson.Unmarshal(buf.Bytes(), &decoded), "%q", buf.String())
				require.Equal(t, input, decoded)
			}
		}
	}
}

func TestWriteString_AllControlRun(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 0x20; i++ {
		sb.WriteByte(byte(i))
	}
	input := strings.Repeat(sb.String(), 5)
	buf := tojson.NewBuffer(0)
	WriteString(buf, input)
	var decoded string
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, input, decoded)
}

func TestStringWriter_DropNullBytes(t *testing.T) {
	e := New(Config{DropNullBytes: true}, nil)
	out, err := e.Marshal("a\x00b\x00\x00c")
	require.NoError(t, err)
	require.Equal(t, `"abc"`, string(out))
}

func TestStringWriter_RawModes(t *testing.T) {
	raw, err := New(Config{Raw: true, Concatenate: true}, nil).Marshal(map[string]string{"k": `a"b`})
	require.NoError(t, err)
	require.Equal(t, `{"k":a"b}`, string(raw))

	rawString, err := New(Config{RawString: true, Concatenate: true}, nil).Marshal(map[string]string{"k": `a"b`})
	require.NoError(t, err)
	require.Equal(t, `{"k":"a"b"}`, string(rawString))
}

func TestEngine_ConcurrentLookup(t *testing.T) {
	e := New(Config{}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				out, err := e.Marshal(prettySample{A: j})
				if err != nil || !gojson.Valid(out) {
					t.Errorf("unexpected output %s: %v", out, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
