// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/canonical/sqlnorm/internal/pgarray"
)

// Binds collects the values bound to the positional placeholders of a
// statement. Positions start at 1.
type Binds struct {
	values []any
	set    []bool
	// fixed is true when the number of positions is known in advance.
	fixed bool
}

// newBinds returns Binds for n positions. With n < 0 the number of
// positions grows as values are set.
func newBinds(n int) *Binds {
	if n < 0 {
		return &Binds{}
	}
	return &Binds{
		values: make([]any, n),
		set:    make([]bool, n),
		fixed:  true,
	}
}

func (b *Binds) put(pos int, v any) error {
	if pos < 1 || (b.fixed && pos > len(b.values)) {
		return fmt.Errorf("bind position %d out of range [1, %d]", pos, len(b.values))
	}
	for len(b.values) < pos {
		b.values = append(b.values, nil)
		b.set = append(b.set, false)
	}
	b.values[pos-1] = v
	b.set[pos-1] = true
	return nil
}

// Len returns the number of positions.
func (b *Binds) Len() int {
	return len(b.values)
}

// Args returns the bound values in position order. It fails if a position
// was never set.
func (b *Binds) Args() ([]any, error) {
	for i, ok := range b.set {
		if !ok {
			return nil, fmt.Errorf("position %d not bound", i+1)
		}
	}
	return b.values, nil
}

func (b *Binds) SetInt32(pos int, v int32) error {
	return b.put(pos, int64(v))
}

func (b *Binds) SetInt64(pos int, v int64) error {
	return b.put(pos, v)
}

func (b *Binds) SetInt16(pos int, v int16) error {
	return b.put(pos, int64(v))
}

func (b *Binds) SetFloat32(pos int, v float32) error {
	return b.put(pos, float64(v))
}

func (b *Binds) SetFloat64(pos int, v float64) error {
	return b.put(pos, v)
}

// SetDecimal binds the exact decimal text of v.
func (b *Binds) SetDecimal(pos int, v decimal.Decimal) error {
	return b.put(pos, v.String())
}

func (b *Binds) SetString(pos int, v string) error {
	return b.put(pos, v)
}

func (b *Binds) SetBool(pos int, v bool) error {
	return b.put(pos, v)
}

// SetDate binds v as YYYY-MM-DD.
func (b *Binds) SetDate(pos int, v civil.Date) error {
	return b.put(pos, v.String())
}

// SetTime binds v as HH:MM:SS with optional fractional seconds.
func (b *Binds) SetTime(pos int, v civil.Time) error {
	return b.put(pos, v.String())
}

func (b *Binds) SetTimestamp(pos int, v time.Time) error {
	return b.put(pos, v)
}

// SetURL binds the text of v, or NULL if v is nil.
func (b *Binds) SetURL(pos int, v *url.URL) error {
	if v == nil {
		return b.SetNull(pos)
	}
	return b.put(pos, v.String())
}

// SetArray binds the slice v as an array literal whose elements have the
// given SQL type, such as "integer" or "text". A nil slice binds NULL.
func (b *Binds) SetArray(pos int, elemType string, v any) error {
	name, err := pgarray.Normalize(elemType)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingElementType, err)
	}
	arg, err := pgarray.Encode(name, v)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, err)
	}
	return b.put(pos, arg)
}

// SetObject binds v after converting it with the default driver conversion.
// Values the conversion rejects fail with ErrUnsupportedType.
func (b *Binds) SetObject(pos int, v any) error {
	arg, err := driver.DefaultParameterConverter.ConvertValue(v)
	if err != nil {
		return fmt.Errorf("%w %T: %s", ErrUnsupportedType, v, err)
	}
	return b.put(pos, arg)
}

func (b *Binds) SetNull(pos int) error {
	return b.put(pos, nil)
}
