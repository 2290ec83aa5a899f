package tojson

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type animal interface{ sound() string }

type dog struct{}

func (dog) sound() string { return "woof" }

type cat struct{ Lives int }

func (cat) sound() string { return "meow" }

type bird struct{}

func (bird) sound() string { return "tweet" }

func TestDeclareVariant(t *testing.T) {
	v := DeclareVariant[animal]("kind", Alt[dog]("Dog"), Alt[cat]("Cat"))
	require.True(t, v.Taggable())
	require.Equal(t, 0, v.Index(reflect.TypeOf((*dog)(nil)).Elem()))
	require.Equal(t, 1, v.Index(reflect.TypeOf((*cat)(nil)).Elem()))
	require.Equal(t, -1, v.Index(reflect.TypeOf((*bird)(nil)).Elem()))

	found, ok := LookupVariant(reflect.TypeOf((*animal)(nil)).Elem())
	require.True(t, ok)
	require.Same(t, v, found)

	shape, err := Classify(reflect.TypeOf((*animal)(nil)).Elem())
	require.NoError(t, err)
	require.Equal(t, ShapeVariant, shape)
}

func TestDeclareVariant_Panics(t *testing.T) {
	type notAnimal struct{}
	require.Panics(t, func() { DeclareVariant[dog]("kind") })
	require.Panics(t, func() { DeclareVariant[animal]("kind", Alt[notAnimal]("X")) })
	require.Panics(t, func() { DeclareVariant[animal]("kind", Alt[dog]("A"), Alt[cat]("A")) })
	require.Panics(t, func() { DeclareVariant[animal]("kind", Alt[dog]("A"), Alt[dog]("B")) })
}

type vehicle interface{ wheels() int }

type bike struct{}

func (bike) wheels() int { return 2 }

func TestDeclareArrayVariant(t *testing.T) {
	v := DeclareArrayVariant[vehicle](Alt[bike]("bike"))
	require.True(t, v.Array)
	require.False(t, v.Taggable())
	require.Equal(t, 0, v.Index(reflect.TypeOf((*bike)(nil)).Elem()))
	require.Panics(t, func() { DeclareArrayVariant[vehicle](Alt[dog]("dog")) })
}
