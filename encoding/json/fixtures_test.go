package json

import (
	"time"

	"github.com/viant/tojson"
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

type color int

const (
	red color = iota
	green
)

func (color) EnumNames() map[int64]string {
	return map[int64]string{0: "Red", 1: "Green"}
}

type shape interface {
	area() float64
}

type circle struct{}

func (circle) area() float64 { return 0 }

type square struct {
	Side int `json:"side"`
}

func (s square) area() float64 { return float64(s.Side * s.Side) }

type triangle struct{}

func (triangle) area() float64 { return 0 }

var _ = tojson.DeclareVariant[shape]("type", tojson.Alt[circle]("Circle"), tojson.Alt[square]("Square"))

type command interface{ run() }

type move struct{ X, Y int }

func (move) run() {}

type stop struct{}

func (stop) run() {}

var _ = tojson.DeclareArrayVariant[command](tojson.Alt[move]("move"), tojson.Alt[stop]("stop"))

type permissions struct {
	tojson.Flags
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Execute bool
	Admin   bool `json:"-"`
}

type drawing struct {
	Shapes []shape `json:"shapes"`
}

type point struct {
	tojson.Tuple
	X int
	Y int
}

type money struct {
	cents int
}

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(`{"usd":` + itoa(m.cents/100) + `}`), nil
}

type level int

func (l level) MarshalText() ([]byte, error) {
	return []byte("L" + itoa(int(l))), nil
}

type node struct {
	Name     string  `json:"name"`
	Children []*node `json:"children,omitempty"`
}

type event struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

func itoa(i int) string {
	buf := tojson.NewBuffer(0)
	buf.PutInt(int64(i))
	return buf.String()
}
