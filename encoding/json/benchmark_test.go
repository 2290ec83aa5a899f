package json

import (
	stdjson "encoding/json"
	"testing"

	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
)

type compareBasic struct {
	ID   int
	Name string
	Flag bool
}

type compareAdvanced struct {
	ID      int
	Name    string
	Score   float64
	Tags    []string
	Payload map[string]string
	Child   *compareBasic
}

var (
	basicIn    = compareBasic{ID: 7, Name: "alpha", Flag: true}
	advancedIn = compareAdvanced{
		ID:      11,
		Name:    "beta",
		Score:   99.1,
		Tags:    []string{"x", "y", "z"},
		Payload: map[string]string{"k1": "1", "k2": "v2"},
		Child:   &compareBasic{ID: 1, Name: "child", Flag: true},
	}
)

func benchmarkMarshal(b *testing.B, marshal func(v interface{}) ([]byte, error), v interface{}) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func marshalDefault(v interface{}) ([]byte, error) { return Marshal(v) }

func BenchmarkCompare_Marshal_Basic_Tojson(b *testing.B) {
	benchmarkMarshal(b, marshalDefault, basicIn)
}

func BenchmarkCompare_Marshal_Basic_Stdlib(b *testing.B) {
	benchmarkMarshal(b, stdjson.Marshal, basicIn)
}

func BenchmarkCompare_Marshal_Basic_Goccy(b *testing.B) {
	benchmarkMarshal(b, gojson.Marshal, basicIn)
}

func BenchmarkCompare_Marshal_Basic_Jsoniter(b *testing.B) {
	benchmarkMarshal(b, jsoniter.ConfigCompatibleWithStandardLibrary.Marshal, basicIn)
}

func BenchmarkCompare_Marshal_Advanced_Tojson(b *testing.B) {
	benchmarkMarshal(b, marshalDefault, advancedIn)
}

func BenchmarkCompare_Marshal_Advanced_Stdlib(b *testing.B) {
	benchmarkMarshal(b, stdjson.Marshal, advancedIn)
}

func BenchmarkCompare_Marshal_Advanced_Goccy(b *testing.B) {
	benchmarkMarshal(b, gojson.Marshal, advancedIn)
}

func BenchmarkCompare_Marshal_Advanced_Jsoniter(b *testing.B) {
	benchmarkMarshal(b, jsoniter.ConfigCompatibleWithStandardLibrary.Marshal, advancedIn)
}

func BenchmarkWriter_AppendTo_Advanced(b *testing.B) {
	w := MustFor[compareAdvanced]()
	buf := make([]byte, 0, 512)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		out, err := w.AppendTo(buf[:0], &advancedIn)
		if err != nil {
			b.Fatal(err)
		}
		buf = out
	}
}
