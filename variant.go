package tojson

import (
	"fmt"
	"reflect"
	"sync"
)

// Alternative is one declared member of a variant.
type Alternative struct {
	ID   string
	Type reflect.Type
}

// Alt declares T as a variant alternative identified by id.
func Alt[T any](id string) Alternative {
	return Alternative{ID: id, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// Variant describes an interface type whose dynamic values are restricted to
// a closed, ordered set of alternatives.
type Variant struct {
	Type   reflect.Type
	TagKey string
	// Array writes values as a two-element array of the alternative id and
	// the value instead of tagging objects.
	Array        bool
	Alternatives []Alternative
	index        map[reflect.Type]int
}

// Index returns the position of the alternative with dynamic type t, or -1.
func (v *Variant) Index(t reflect.Type) int {
	if idx, ok := v.index[t]; ok {
		return idx
	}
	return -1
}

// Taggable reports whether writers may emit a type tag for this variant.
func (v *Variant) Taggable() bool { return v.TagKey != "" && !v.Array }

var variants sync.Map // map[reflect.Type]*Variant

// DeclareVariant registers interface type I as a variant. tagKey names the
// synthetic member holding the alternative id; empty disables tagging.
// It panics when I is not an interface, when an alternative does not
// implement I, or when ids or types repeat.
func DeclareVariant[I any](tagKey string, alternatives ...Alternative) *Variant {
	return declareVariant(reflect.TypeOf((*I)(nil)).Elem(), tagKey, false, alternatives)
}

// DeclareArrayVariant registers interface type I as a variant whose values
// are written as ["<id>", value]. It panics in the same cases as
// DeclareVariant.
func DeclareArrayVariant[I any](alternatives ...Alternative) *Variant {
	return declareVariant(reflect.TypeOf((*I)(nil)).Elem(), "", true, alternatives)
}

func declareVariant(iType reflect.Type, tagKey string, array bool, alternatives []Alternative) *Variant {
	if iType.Kind() != reflect.Interface {
		panic(fmt.Sprintf("tojson: variant %v is not an interface", iType))
	}
	ret := &Variant{
		Type:         iType,
		TagKey:       tagKey,
		Array:        array,
		Alternatives: append([]Alternative(nil), alternatives...),
		index:        make(map[reflect.Type]int, len(alternatives)),
	}
	ids := make(map[string]bool, len(alternatives))
	for i, alt := range alternatives {
		if !alt.Type.Implements(iType) {
			panic(fmt.Sprintf("tojson: alternative %v does not implement %v", alt.Type, iType))
		}
		if _, ok := ret.index[alt.Type]; ok {
			panic(fmt.Sprintf("tojson: duplicate alternative %v in %v", alt.Type, iType))
		}
		if ids[alt.ID] {
			panic(fmt.Sprintf("tojson: duplicate alternative id %q in %v", alt.ID, iType))
		}
		ids[alt.ID] = true
		ret.index[alt.Type] = i
	}
	variants.Store(iType, ret)
	return ret
}

// LookupVariant returns the variant declared for interface type t.
func LookupVariant(t reflect.Type) (*Variant, bool) {
	v, ok := variants.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*Variant), true
}
