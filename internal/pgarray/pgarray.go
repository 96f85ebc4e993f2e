// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package pgarray converts Go slices to and from the PostgreSQL array text
// format, which is how array parameters and columns travel through
// database/sql.
package pgarray

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// elemTypes maps the element type names accepted in tags to the PostgreSQL
// base type names known to pgtype.
var elemTypes = map[string]string{
	"integer":                  "int4",
	"int":                      "int4",
	"int4":                     "int4",
	"bigint":                   "int8",
	"int8":                     "int8",
	"smallint":                 "int2",
	"int2":                     "int2",
	"real":                     "float4",
	"float4":                   "float4",
	"double precision":         "float8",
	"double":                   "float8",
	"float8":                   "float8",
	"numeric":                  "numeric",
	"decimal":                  "numeric",
	"text":                     "text",
	"varchar":                  "text",
	"character varying":        "text",
	"boolean":                  "bool",
	"bool":                     "bool",
	"date":                     "date",
	"time":                     "time",
	"timestamp":                "timestamp",
	"timestamptz":              "timestamptz",
	"timestamp with time zone": "timestamptz",
	"uuid":                     "uuid",
	"bytea":                    "bytea",
}

// Normalize returns the canonical name of an element type as written in a
// tag. Case and repeated blanks are ignored.
func Normalize(elemType string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(elemType), " "))
	if name, ok := elemTypes[key]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown element type %q", elemType)
}

var (
	decimalType   = reflect.TypeOf(decimal.Decimal{})
	dateType      = reflect.TypeOf(civil.Date{})
	timeOfDayType = reflect.TypeOf(civil.Time{})
	timestampType = reflect.TypeOf(time.Time{})
	urlType       = reflect.TypeOf(url.URL{})
	bytesType     = reflect.TypeOf([]byte(nil))
)

// CheckElem returns an error if slices of t cannot be converted.
func CheckElem(t reflect.Type) error {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if textual(base) {
		return nil
	}
	switch base {
	case timestampType, bytesType:
		return nil
	}
	switch base.Kind() {
	case reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return nil
	}
	return fmt.Errorf("unsupported array element type %s", t)
}

// textual reports whether elements of type t are sent as their text form
// because pgtype does not know about t.
func textual(t reflect.Type) bool {
	switch t {
	case decimalType, dateType, timeOfDayType, urlType:
		return true
	}
	return false
}

// maps holds *pgtype.Map values. A Map is not safe for concurrent use.
var maps = sync.Pool{
	New: func() any { return pgtype.NewMap() },
}

func arrayOID(m *pgtype.Map, elemType string) (uint32, error) {
	t, ok := m.TypeForName("_" + elemType)
	if !ok {
		return 0, fmt.Errorf("unknown element type %q", elemType)
	}
	return t.OID, nil
}

// Encode returns the array literal for the slice v, whose elements have the
// normalized element type elemType. A nil slice encodes as nil.
func Encode(elemType string, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("cannot encode %T as array", v)
	}
	if rv.IsNil() {
		return nil, nil
	}

	pgType := elemType
	elem := rv.Type().Elem()
	if textual(derefType(elem)) {
		v = toStrings(rv)
		pgType = "text"
	}

	m := maps.Get().(*pgtype.Map)
	defer maps.Put(m)
	oid, err := arrayOID(m, pgType)
	if err != nil {
		return nil, err
	}
	buf, err := m.Encode(oid, pgtype.TextFormatCode, v, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %s array: %w", elemType, err)
	}
	return string(buf), nil
}

// Decode parses the array literal src into dst, which must be a pointer to a
// slice. A nil src sets the slice to nil.
func Decode(elemType string, src any, dst any) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.IsNil() || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("need pointer to slice, got %T", dst)
	}
	slice := dv.Elem()

	var data []byte
	switch src := src.(type) {
	case nil:
		slice.Set(reflect.Zero(slice.Type()))
		return nil
	case string:
		data = []byte(src)
	case []byte:
		data = src
	default:
		return fmt.Errorf("cannot decode %T as %s array", src, elemType)
	}

	m := maps.Get().(*pgtype.Map)
	defer maps.Put(m)

	elem := slice.Type().Elem()
	if textual(derefType(elem)) {
		oid, err := arrayOID(m, "text")
		if err != nil {
			return err
		}
		var strs []*string
		if err := m.Scan(oid, pgtype.TextFormatCode, data, &strs); err != nil {
			return fmt.Errorf("cannot decode %s array: %w", elemType, err)
		}
		out, err := fromStrings(strs, elem)
		if err != nil {
			return fmt.Errorf("cannot decode %s array: %w", elemType, err)
		}
		slice.Set(out)
		return nil
	}

	oid, err := arrayOID(m, elemType)
	if err != nil {
		return err
	}
	if err := m.Scan(oid, pgtype.TextFormatCode, data, dst); err != nil {
		return fmt.Errorf("cannot decode %s array: %w", elemType, err)
	}
	return nil
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// toStrings converts a slice of textual elements to []*string, keeping nil
// pointer elements as NULL.
func toStrings(rv reflect.Value) []*string {
	out := make([]*string, rv.Len())
	for i := range out {
		e := rv.Index(i)
		if e.Kind() == reflect.Pointer {
			if e.IsNil() {
				continue
			}
			e = e.Elem()
		}
		s := formatText(e)
		out[i] = &s
	}
	return out
}

func formatText(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case decimal.Decimal:
		return x.String()
	case civil.Date:
		return x.String()
	case civil.Time:
		return x.String()
	case url.URL:
		return x.String()
	}
	return fmt.Sprint(v.Interface())
}

// fromStrings builds a slice of type []elem from decoded text elements.
func fromStrings(strs []*string, elem reflect.Type) (reflect.Value, error) {
	base := derefType(elem)
	out := reflect.MakeSlice(reflect.SliceOf(elem), len(strs), len(strs))
	for i, s := range strs {
		if s == nil {
			if elem.Kind() != reflect.Pointer {
				return reflect.Value{}, fmt.Errorf("element %d is NULL", i+1)
			}
			continue
		}
		v, err := parseText(base, *s)
		if err != nil {
			return reflect.Value{}, err
		}
		if elem.Kind() == reflect.Pointer {
			p := reflect.New(base)
			p.Elem().Set(v)
			v = p
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func parseText(t reflect.Type, s string) (reflect.Value, error) {
	var v any
	var err error
	switch t {
	case decimalType:
		v, err = decimal.NewFromString(s)
	case dateType:
		v, err = civil.ParseDate(s)
	case timeOfDayType:
		v, err = civil.ParseTime(s)
	case urlType:
		var u *url.URL
		if u, err = url.Parse(s); err == nil {
			v = *u
		}
	default:
		return reflect.Value{}, fmt.Errorf("unsupported array element type %s", t)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}
