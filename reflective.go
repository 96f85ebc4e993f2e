// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/canonical/sqlnorm/internal/typeinfo"
)

// plan is the result of rewriting a template and binding it to its record
// types. It is shared by every template prepared with the same text and
// types.
type plan struct {
	// sql is the statement with positional placeholders.
	sql string
	// slots holds the parameter field bound at each position. A field
	// appears once per occurrence of its placeholder.
	slots []*typeinfo.Field
	// params describes the parameter record.
	params *typeinfo.Info
	// result describes the result record. It is nil for NoResult.
	result *typeinfo.Info
	// unused holds the names of the parameter fields no placeholder
	// refers to.
	unused []string
	diags  Diagnostics
}

// reflective is the handler used when no generated handler is registered. It
// reads and writes record fields through reflection following a plan.
type reflective[P, R any] struct {
	plan *plan
}

func (h *reflective[P, R]) SafeSQL() string {
	return h.plan.sql
}

func (h *reflective[P, R]) slotCount() int {
	return len(h.plan.slots)
}

// Bind sets every position from the field referenced by its placeholder.
// The field is read again for each occurrence.
func (h *reflective[P, R]) Bind(params *P, binds *Binds) error {
	pv := reflect.ValueOf(params).Elem()
	for i, f := range h.plan.slots {
		if err := bindField(binds, i+1, f, f.Value(pv)); err != nil {
			return fmt.Errorf("cannot bind field %s to position %d: %w", f.GoName, i+1, err)
		}
	}
	return nil
}

// Decode reads every field of the result record from the column of the
// same name. It leaves NoResult records untouched.
func (h *reflective[P, R]) Decode(c *Cursor, r *R) error {
	if h.plan.result == nil {
		return nil
	}
	rv := reflect.ValueOf(r).Elem()
	for _, f := range h.plan.result.Fields {
		if err := decodeField(c, f, f.Value(rv)); err != nil {
			return fmt.Errorf("cannot decode field %s: %w", f.GoName, err)
		}
	}
	return nil
}

func bindField(b *Binds, pos int, f *typeinfo.Field, v reflect.Value) error {
	if f.Nullable {
		switch v.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Interface:
			if v.IsNil() {
				return b.SetNull(pos)
			}
		}
		if nd, ok := v.Interface().(decimal.NullDecimal); ok {
			if !nd.Valid {
				return b.SetNull(pos)
			}
			return b.SetDecimal(pos, nd.Decimal)
		}
		if f.Kind != typeinfo.Opaque && v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
	}

	switch f.Kind {
	case typeinfo.Integer:
		return b.SetInt32(pos, int32(v.Int()))
	case typeinfo.Long:
		return b.SetInt64(pos, v.Int())
	case typeinfo.Short:
		return b.SetInt16(pos, int16(v.Int()))
	case typeinfo.Float:
		return b.SetFloat32(pos, float32(v.Float()))
	case typeinfo.Double:
		return b.SetFloat64(pos, v.Float())
	case typeinfo.Decimal:
		return b.SetDecimal(pos, v.Interface().(decimal.Decimal))
	case typeinfo.String:
		return b.SetString(pos, v.String())
	case typeinfo.Boolean:
		return b.SetBool(pos, v.Bool())
	case typeinfo.Date:
		return b.SetDate(pos, v.Interface().(civil.Date))
	case typeinfo.Time:
		return b.SetTime(pos, v.Interface().(civil.Time))
	case typeinfo.Timestamp:
		return b.SetTimestamp(pos, v.Interface().(time.Time))
	case typeinfo.Locator:
		u := v.Interface().(url.URL)
		return b.SetURL(pos, &u)
	case typeinfo.Array:
		return b.SetArray(pos, f.ElemType, v.Interface())
	case typeinfo.Opaque:
		return b.SetObject(pos, v.Interface())
	}
	return fmt.Errorf("%w %s", ErrUnsupportedType, f.Type)
}

var nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})

func decodeField(c *Cursor, f *typeinfo.Field, v reflect.Value) error {
	col := f.Name
	switch f.Kind {
	case typeinfo.Integer:
		return decodeInto(v, c.GetNullInt32, col)
	case typeinfo.Long:
		return decodeInto(v, c.GetNullInt64, col)
	case typeinfo.Short:
		return decodeInto(v, c.GetNullInt16, col)
	case typeinfo.Float:
		return decodeInto(v, c.GetNullFloat32, col)
	case typeinfo.Double:
		return decodeInto(v, c.GetNullFloat64, col)
	case typeinfo.Decimal:
		if f.Type == nullDecimalType {
			d, err := c.GetNullDecimal(col)
			if err != nil {
				return err
			}
			nd := decimal.NullDecimal{Valid: d != nil}
			if d != nil {
				nd.Decimal = *d
			}
			v.Set(reflect.ValueOf(nd))
			return nil
		}
		return decodeInto(v, c.GetNullDecimal, col)
	case typeinfo.String:
		return decodeInto(v, c.GetNullString, col)
	case typeinfo.Boolean:
		return decodeInto(v, c.GetNullBool, col)
	case typeinfo.Date:
		return decodeInto(v, c.GetNullDate, col)
	case typeinfo.Time:
		return decodeInto(v, c.GetNullTime, col)
	case typeinfo.Timestamp:
		return decodeInto(v, c.GetNullTimestamp, col)
	case typeinfo.Locator:
		return decodeInto(v, c.GetURL, col)
	case typeinfo.Array:
		dst := reflect.New(f.Type)
		if err := c.GetArray(col, f.ElemType, dst.Interface()); err != nil {
			return err
		}
		v.Set(dst.Elem())
		return nil
	case typeinfo.Opaque:
		return c.ScanObject(col, v.Addr().Interface())
	}
	return fmt.Errorf("%w %s", ErrUnsupportedType, f.Type)
}

// decodeInto stores the value returned by get in v, which may be a T, a *T,
// or a type convertible from T. NULL stores the zero value.
func decodeInto[T any](v reflect.Value, get func(string) (*T, error), col string) error {
	p, err := get(col)
	if err != nil {
		return err
	}
	if p == nil {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	x := reflect.ValueOf(*p)
	if v.Kind() == reflect.Pointer {
		ptr := reflect.New(v.Type().Elem())
		ptr.Elem().Set(x.Convert(v.Type().Elem()))
		v.Set(ptr)
		return nil
	}
	v.Set(x.Convert(v.Type()))
	return nil
}
