// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"bytes"
	"database/sql"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/canonical/sqlnorm/internal/pgarray"
)

// Cursor gives access to the current row of a result set by column name.
// Columns are matched exactly first and then case-insensitively.
type Cursor struct {
	rows    *sql.Rows
	columns []string
	exact   map[string]int
	folded  map[string]int
	values  []any
	ptrs    []any
}

func newCursor(rows *sql.Rows) (*Cursor, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	c := &Cursor{
		rows:    rows,
		columns: cols,
		exact:   make(map[string]int, len(cols)),
		folded:  make(map[string]int, len(cols)),
		values:  make([]any, len(cols)),
		ptrs:    make([]any, len(cols)),
	}
	for i, col := range cols {
		if _, ok := c.exact[col]; !ok {
			c.exact[col] = i
		}
		lower := strings.ToLower(col)
		if _, ok := c.folded[lower]; !ok {
			c.folded[lower] = i
		}
		c.ptrs[i] = &c.values[i]
	}
	return c, nil
}

// next advances to the next row and reads all of its columns.
func (c *Cursor) next() (bool, error) {
	if !c.rows.Next() {
		return false, c.rows.Err()
	}
	for i := range c.values {
		c.values[i] = nil
	}
	if err := c.rows.Scan(c.ptrs...); err != nil {
		return false, err
	}
	return true, nil
}

// Columns returns the column names of the result set.
func (c *Cursor) Columns() []string {
	return c.columns
}

func (c *Cursor) value(col string) (any, error) {
	i, ok := c.exact[col]
	if !ok {
		i, ok = c.folded[strings.ToLower(col)]
	}
	if !ok {
		return nil, fmt.Errorf("unknown column %q", col)
	}
	return c.values[i], nil
}

// getNull converts the value of col to T using the database/sql conversion
// rules. NULL yields a nil pointer.
func getNull[T any](c *Cursor, col string) (*T, error) {
	src, err := c.value(col)
	if err != nil || src == nil {
		return nil, err
	}
	var n sql.Null[T]
	if err := n.Scan(src); err != nil {
		return nil, fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return &n.V, nil
}

// get is getNull with NULL decoded as the zero value.
func get[T any](c *Cursor, col string) (T, error) {
	p, err := getNull[T](c, col)
	if err != nil || p == nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

func (c *Cursor) GetInt32(col string) (int32, error) { return get[int32](c, col) }

func (c *Cursor) GetNullInt32(col string) (*int32, error) { return getNull[int32](c, col) }

func (c *Cursor) GetInt64(col string) (int64, error) { return get[int64](c, col) }

func (c *Cursor) GetNullInt64(col string) (*int64, error) { return getNull[int64](c, col) }

func (c *Cursor) GetInt16(col string) (int16, error) { return get[int16](c, col) }

func (c *Cursor) GetNullInt16(col string) (*int16, error) { return getNull[int16](c, col) }

func (c *Cursor) GetFloat32(col string) (float32, error) { return get[float32](c, col) }

func (c *Cursor) GetNullFloat32(col string) (*float32, error) { return getNull[float32](c, col) }

func (c *Cursor) GetFloat64(col string) (float64, error) { return get[float64](c, col) }

func (c *Cursor) GetNullFloat64(col string) (*float64, error) { return getNull[float64](c, col) }

func (c *Cursor) GetString(col string) (string, error) { return get[string](c, col) }

func (c *Cursor) GetNullString(col string) (*string, error) { return getNull[string](c, col) }

func (c *Cursor) GetBool(col string) (bool, error) { return get[bool](c, col) }

func (c *Cursor) GetNullBool(col string) (*bool, error) { return getNull[bool](c, col) }

// GetNullDecimal decodes numbers and decimal text.
func (c *Cursor) GetNullDecimal(col string) (*decimal.Decimal, error) {
	src, err := c.value(col)
	if err != nil || src == nil {
		return nil, err
	}
	var d decimal.NullDecimal
	if err := d.Scan(src); err != nil {
		return nil, fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return &d.Decimal, nil
}

func (c *Cursor) GetDecimal(col string) (decimal.Decimal, error) {
	return deref(c.GetNullDecimal(col))
}

// GetNullDate decodes YYYY-MM-DD text and the date part of timestamps.
func (c *Cursor) GetNullDate(col string) (*civil.Date, error) {
	src, err := c.value(col)
	if err != nil || src == nil {
		return nil, err
	}
	var d civil.Date
	switch src := src.(type) {
	case time.Time:
		d = civil.DateOf(src)
	case string:
		d, err = civil.ParseDate(src)
	case []byte:
		d, err = civil.ParseDate(string(src))
	default:
		err = fmt.Errorf("unsupported source type %T", src)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return &d, nil
}

func (c *Cursor) GetDate(col string) (civil.Date, error) {
	return deref(c.GetNullDate(col))
}

// GetNullTime decodes HH:MM:SS text and the time part of timestamps.
func (c *Cursor) GetNullTime(col string) (*civil.Time, error) {
	src, err := c.value(col)
	if err != nil || src == nil {
		return nil, err
	}
	var t civil.Time
	switch src := src.(type) {
	case time.Time:
		t = civil.TimeOf(src)
	case string:
		t, err = civil.ParseTime(src)
	case []byte:
		t, err = civil.ParseTime(string(src))
	default:
		err = fmt.Errorf("unsupported source type %T", src)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return &t, nil
}

func (c *Cursor) GetTime(col string) (civil.Time, error) {
	return deref(c.GetNullTime(col))
}

// timestampLayouts are tried in order when a driver returns a timestamp as
// text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (c *Cursor) GetNullTimestamp(col string) (*time.Time, error) {
	src, err := c.value(col)
	if err != nil || src == nil {
		return nil, err
	}
	var text string
	switch src := src.(type) {
	case time.Time:
		return &src, nil
	case string:
		text = src
	case []byte:
		text = string(src)
	default:
		return nil, fmt.Errorf("cannot decode column %q: unsupported source type %T", col, src)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("cannot decode column %q: invalid timestamp %q", col, text)
}

func (c *Cursor) GetTimestamp(col string) (time.Time, error) {
	return deref(c.GetNullTimestamp(col))
}

// GetURL parses the column as a URL. NULL yields nil.
func (c *Cursor) GetURL(col string) (*url.URL, error) {
	s, err := c.GetNullString(col)
	if err != nil || s == nil {
		return nil, err
	}
	u, err := url.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return u, nil
}

// GetArray decodes an array literal into dst, a pointer to a slice whose
// elements have the given SQL type. NULL sets the slice to nil.
func (c *Cursor) GetArray(col string, elemType string, dst any) error {
	src, err := c.value(col)
	if err != nil {
		return err
	}
	name, err := pgarray.Normalize(elemType)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingElementType, err)
	}
	if err := pgarray.Decode(name, src, dst); err != nil {
		return fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return nil
}

// GetObject returns the value of the column as the driver returned it.
func (c *Cursor) GetObject(col string) (any, error) {
	return c.value(col)
}

// ScanObject stores the value of the column in dst, which must be a
// sql.Scanner, a *[]byte, a *any, or a pointer to a pointer to one of those.
func (c *Cursor) ScanObject(col string, dst any) error {
	src, err := c.value(col)
	if err != nil {
		return err
	}
	if err := scanValue(src, dst); err != nil {
		return fmt.Errorf("cannot decode column %q: %w", col, err)
	}
	return nil
}

func scanValue(src any, dst any) error {
	switch d := dst.(type) {
	case sql.Scanner:
		return d.Scan(src)
	case *any:
		*d = src
		return nil
	case *[]byte:
		switch s := src.(type) {
		case nil:
			*d = nil
		case []byte:
			*d = bytes.Clone(s)
		case string:
			*d = []byte(s)
		default:
			return fmt.Errorf("cannot store %T into %T", src, dst)
		}
		return nil
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() == reflect.Pointer && !dv.IsNil() && dv.Elem().Kind() == reflect.Pointer {
		if src == nil {
			dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
			return nil
		}
		nv := reflect.New(dv.Elem().Type().Elem())
		if err := scanValue(src, nv.Interface()); err != nil {
			return err
		}
		dv.Elem().Set(nv)
		return nil
	}
	return fmt.Errorf("%w %T", ErrUnsupportedType, dst)
}

func deref[T any](p *T, err error) (T, error) {
	if err != nil || p == nil {
		var zero T
		return zero, err
	}
	return *p, nil
}
