// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm_test

import (
	"errors"
	"net/url"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlnorm"
)

type BindsSuite struct{}

var _ = Suite(&BindsSuite{})

func (s *BindsSuite) TestSetters(c *C) {
	at := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	u, err := url.Parse("http://example.com/x")
	c.Assert(err, IsNil)

	b := sqlnorm.NewBinds(14)
	c.Assert(b.SetInt32(1, 1), IsNil)
	c.Assert(b.SetInt64(2, 2), IsNil)
	c.Assert(b.SetInt16(3, 3), IsNil)
	c.Assert(b.SetFloat32(4, 0.25), IsNil)
	c.Assert(b.SetFloat64(5, 0.5), IsNil)
	c.Assert(b.SetDecimal(6, decimal.RequireFromString("1.10")), IsNil)
	c.Assert(b.SetString(7, "s"), IsNil)
	c.Assert(b.SetBool(8, true), IsNil)
	c.Assert(b.SetDate(9, civil.Date{Year: 2020, Month: time.January, Day: 2}), IsNil)
	c.Assert(b.SetTime(10, civil.Time{Hour: 3, Minute: 4, Second: 5}), IsNil)
	c.Assert(b.SetTimestamp(11, at), IsNil)
	c.Assert(b.SetURL(12, u), IsNil)
	c.Assert(b.SetArray(13, "Integer", []int32{1, 2}), IsNil)
	c.Assert(b.SetNull(14), IsNil)

	args, err := b.Args()
	c.Assert(err, IsNil)
	c.Check(args, DeepEquals, []any{
		int64(1), int64(2), int64(3), 0.25, 0.5, "1.1", "s", true,
		"2020-01-02", "03:04:05", at, "http://example.com/x", "{1,2}", nil,
	})
}

func (s *BindsSuite) TestPositions(c *C) {
	b := sqlnorm.NewBinds(2)
	c.Check(b.Len(), Equals, 2)
	c.Check(b.SetString(0, "x"), ErrorMatches, `bind position 0 out of range \[1, 2\]`)
	c.Check(b.SetString(3, "x"), ErrorMatches, `bind position 3 out of range \[1, 2\]`)

	c.Assert(b.SetString(1, "x"), IsNil)
	_, err := b.Args()
	c.Check(err, ErrorMatches, `position 2 not bound`)

	grow := sqlnorm.NewBinds(-1)
	c.Assert(grow.SetInt64(3, 3), IsNil)
	c.Check(grow.Len(), Equals, 3)
	_, err = grow.Args()
	c.Check(err, ErrorMatches, `position 1 not bound`)
}

func (s *BindsSuite) TestSetURLNil(c *C) {
	b := sqlnorm.NewBinds(1)
	c.Assert(b.SetURL(1, nil), IsNil)
	args, err := b.Args()
	c.Assert(err, IsNil)
	c.Check(args, DeepEquals, []any{nil})
}

func (s *BindsSuite) TestSetArrayErrors(c *C) {
	b := sqlnorm.NewBinds(1)
	err := b.SetArray(1, "blob", []int32{1})
	c.Check(errors.Is(err, sqlnorm.ErrMissingElementType), Equals, true)
	err = b.SetArray(1, "integer", 5)
	c.Check(errors.Is(err, sqlnorm.ErrUnsupportedType), Equals, true)
}

func (s *BindsSuite) TestSetObject(c *C) {
	b := sqlnorm.NewBinds(2)
	c.Assert(b.SetObject(1, []byte("x")), IsNil)
	err := b.SetObject(2, map[string]int{})
	c.Check(errors.Is(err, sqlnorm.ErrUnsupportedType), Equals, true)
	c.Check(err, ErrorMatches, `unsupported type map\[string\]int: .*`)
}
