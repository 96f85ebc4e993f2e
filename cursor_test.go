// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	. "gopkg.in/check.v1"
)

type CursorSuite struct {
	closers []func()
}

var _ = Suite(&CursorSuite{})

func (s *CursorSuite) TearDownTest(c *C) {
	for _, f := range s.closers {
		f()
	}
	s.closers = nil
}

// cursorOn returns a cursor positioned on a single row holding values.
func (s *CursorSuite) cursorOn(c *C, cols []string, values ...driver.Value) *Cursor {
	db, mock, err := sqlmock.New()
	c.Assert(err, IsNil)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(cols).AddRow(values...))

	rows, err := db.Query("SELECT")
	c.Assert(err, IsNil)
	s.closers = append(s.closers, func() {
		rows.Close()
		db.Close()
	})
	cursor, err := newCursor(rows)
	c.Assert(err, IsNil)
	ok, err := cursor.next()
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
	return cursor
}

func (s *CursorSuite) TestColumnLookup(c *C) {
	cursor := s.cursorOn(c, []string{"Name", "name", "AGE"}, "upper", "lower", int64(3))
	c.Check(cursor.Columns(), DeepEquals, []string{"Name", "name", "AGE"})

	v, err := cursor.GetString("name")
	c.Assert(err, IsNil)
	c.Check(v, Equals, "lower")
	v, err = cursor.GetString("Name")
	c.Assert(err, IsNil)
	c.Check(v, Equals, "upper")
	v, err = cursor.GetString("NAME")
	c.Assert(err, IsNil)
	c.Check(v, Equals, "upper")

	age, err := cursor.GetInt32("age")
	c.Assert(err, IsNil)
	c.Check(age, Equals, int32(3))

	_, err = cursor.GetString("missing")
	c.Check(err, ErrorMatches, `unknown column "missing"`)
}

func (s *CursorSuite) TestNumbers(c *C) {
	cursor := s.cursorOn(c, []string{"i", "f", "s", "big"}, int64(42), 2.5, "17", int64(1<<40))

	i32, err := cursor.GetInt32("i")
	c.Assert(err, IsNil)
	c.Check(i32, Equals, int32(42))
	i16, err := cursor.GetInt16("s")
	c.Assert(err, IsNil)
	c.Check(i16, Equals, int16(17))
	i64, err := cursor.GetInt64("big")
	c.Assert(err, IsNil)
	c.Check(i64, Equals, int64(1<<40))
	f32, err := cursor.GetFloat32("f")
	c.Assert(err, IsNil)
	c.Check(f32, Equals, float32(2.5))
	f64, err := cursor.GetFloat64("i")
	c.Assert(err, IsNil)
	c.Check(f64, Equals, 42.0)

	_, err = cursor.GetInt16("big")
	c.Check(err, ErrorMatches, `cannot decode column "big": .*`)
}

func (s *CursorSuite) TestNull(c *C) {
	cursor := s.cursorOn(c, []string{"n"}, nil)

	i, err := cursor.GetInt64("n")
	c.Assert(err, IsNil)
	c.Check(i, Equals, int64(0))
	ip, err := cursor.GetNullInt64("n")
	c.Assert(err, IsNil)
	c.Check(ip, IsNil)

	str, err := cursor.GetString("n")
	c.Assert(err, IsNil)
	c.Check(str, Equals, "")
	b, err := cursor.GetNullBool("n")
	c.Assert(err, IsNil)
	c.Check(b, IsNil)

	d, err := cursor.GetDecimal("n")
	c.Assert(err, IsNil)
	c.Check(d.IsZero(), Equals, true)
	date, err := cursor.GetNullDate("n")
	c.Assert(err, IsNil)
	c.Check(date, IsNil)
	ts, err := cursor.GetTimestamp("n")
	c.Assert(err, IsNil)
	c.Check(ts.IsZero(), Equals, true)
	u, err := cursor.GetURL("n")
	c.Assert(err, IsNil)
	c.Check(u, IsNil)

	var arr []int32
	c.Assert(cursor.GetArray("n", "integer", &arr), IsNil)
	c.Check(arr, IsNil)

	obj, err := cursor.GetObject("n")
	c.Assert(err, IsNil)
	c.Check(obj, IsNil)
}

func (s *CursorSuite) TestTemporal(c *C) {
	at := time.Date(2024, time.February, 29, 23, 59, 58, 0, time.UTC)
	cursor := s.cursorOn(c, []string{"d", "t", "ts", "dtext", "ttext", "tstext"},
		at, at, at, "2021-06-01", "08:15:00.5", "2021-06-01 08:15:00")

	d, err := cursor.GetDate("d")
	c.Assert(err, IsNil)
	c.Check(d, Equals, civil.Date{Year: 2024, Month: time.February, Day: 29})
	t, err := cursor.GetTime("t")
	c.Assert(err, IsNil)
	c.Check(t, Equals, civil.Time{Hour: 23, Minute: 59, Second: 58})
	ts, err := cursor.GetTimestamp("ts")
	c.Assert(err, IsNil)
	c.Check(ts.Equal(at), Equals, true)

	d, err = cursor.GetDate("dtext")
	c.Assert(err, IsNil)
	c.Check(d, Equals, civil.Date{Year: 2021, Month: time.June, Day: 1})
	t, err = cursor.GetTime("ttext")
	c.Assert(err, IsNil)
	c.Check(t, Equals, civil.Time{Hour: 8, Minute: 15, Nanosecond: 500000000})
	ts, err = cursor.GetTimestamp("tstext")
	c.Assert(err, IsNil)
	c.Check(ts.Equal(time.Date(2021, time.June, 1, 8, 15, 0, 0, time.UTC)), Equals, true)

	_, err = cursor.GetDate("ttext")
	c.Check(err, ErrorMatches, `cannot decode column "ttext": .*`)
	_, err = cursor.GetTimestamp("ttext")
	c.Check(err, ErrorMatches, `cannot decode column "ttext": invalid timestamp "08:15:00.5"`)
}

func (s *CursorSuite) TestDecimalURLAndArray(c *C) {
	cursor := s.cursorOn(c, []string{"price", "ratio", "link", "ids", "bad"},
		"12.340", 0.5, "https://example.com/a?b=c", "{1,2,3}", int64(3))

	price, err := cursor.GetDecimal("price")
	c.Assert(err, IsNil)
	c.Check(price.Equal(decimal.RequireFromString("12.34")), Equals, true)
	ratio, err := cursor.GetNullDecimal("ratio")
	c.Assert(err, IsNil)
	c.Check(ratio.String(), Equals, "0.5")

	u, err := cursor.GetURL("link")
	c.Assert(err, IsNil)
	c.Check(u.Host, Equals, "example.com")
	c.Check(u.Query().Get("b"), Equals, "c")

	var ids []int64
	c.Assert(cursor.GetArray("ids", "BIGINT", &ids), IsNil)
	c.Check(ids, DeepEquals, []int64{1, 2, 3})

	err = cursor.GetArray("ids", "blob", &ids)
	c.Check(errors.Is(err, ErrMissingElementType), Equals, true)
	err = cursor.GetArray("bad", "integer", &ids)
	c.Check(err, ErrorMatches, `cannot decode column "bad": cannot decode int64 as int4 array`)
}

func (s *CursorSuite) TestScanObject(c *C) {
	cursor := s.cursorOn(c, []string{"n", "s", "b", "null"}, int64(5), "text", []byte("raw"), nil)

	var ni sql.NullInt64
	c.Assert(cursor.ScanObject("n", &ni), IsNil)
	c.Check(ni, Equals, sql.NullInt64{Int64: 5, Valid: true})

	var raw []byte
	c.Assert(cursor.ScanObject("b", &raw), IsNil)
	c.Check(raw, DeepEquals, []byte("raw"))
	c.Assert(cursor.ScanObject("s", &raw), IsNil)
	c.Check(raw, DeepEquals, []byte("text"))

	var anything any
	c.Assert(cursor.ScanObject("n", &anything), IsNil)
	c.Check(anything, Equals, int64(5))

	ns := &sql.NullString{}
	c.Assert(cursor.ScanObject("s", &ns), IsNil)
	c.Check(ns.String, Equals, "text")
	c.Assert(cursor.ScanObject("null", &ns), IsNil)
	c.Check(ns, IsNil)

	var i int
	err := cursor.ScanObject("n", &i)
	c.Check(errors.Is(err, ErrUnsupportedType), Equals, true)
}
