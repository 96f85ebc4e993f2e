// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Handler binds parameters and decodes results for one template. A handler is
// either generated ahead of time by sqlnormgen and registered with
// [Register], or built by reflection when the template is prepared.
type Handler[P, R any] interface {
	// SafeSQL returns the statement with positional placeholders only.
	SafeSQL() string
	// Bind sets one value per positional placeholder of SafeSQL.
	Bind(params *P, binds *Binds) error
	// Decode sets the fields of record that have a column in the current
	// row of the cursor. The record is allocated by the caller.
	Decode(cursor *Cursor, record *R) error
}

// HandlerKind tells how the handler of a template was obtained.
type HandlerKind int

const (
	Reflective HandlerKind = iota
	Generated
)

func (k HandlerKind) String() string {
	if k == Generated {
		return "generated"
	}
	return "reflective"
}

// NoResult is the result record type of templates that return no rows.
type NoResult struct{}

// NoParams is the parameter record type of templates without placeholders.
type NoParams struct{}

// HandlerKey returns the key under which the handler of a template is
// registered. site is the import path of the package declaring the template
// and style the placeholder style it is prepared with.
func HandlerKey[P, R any](site string, style Style, sql string) string {
	return handlerKey(site, reflect.TypeFor[P](), reflect.TypeFor[R](), style, sql)
}

func handlerKey(site string, pt, rt reflect.Type, style Style, sql string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%016x", site, pt.String(), rt.String(), style, xxhash.Sum64String(sql))
}
