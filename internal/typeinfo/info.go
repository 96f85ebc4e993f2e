// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
)

// Field represents a single field from a record struct type.
type Field struct {
	Type reflect.Type

	// Name is the placeholder and column name of the field.
	Name string

	// GoName is the name of the struct field.
	GoName string

	// Index of this field in the structure.
	Index int

	Kind Kind

	// Nullable is true when the field can represent NULL.
	Nullable bool

	// ElemType is the normalized element type of an Array field.
	ElemType string
}

// Info represents reflected information about a record struct type.
type Info struct {
	Type reflect.Type

	// Fields in declaration order.
	Fields []*Field

	byName map[string]*Field
}

// Field returns the field with the given placeholder or column name.
func (info *Info) Field(name string) (*Field, bool) {
	f, ok := info.byName[name]
	return f, ok
}

// Value returns the value of field f in the struct value v.
func (f *Field) Value(v reflect.Value) reflect.Value {
	return v.Field(f.Index)
}
