// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm_test

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlnorm"
)

// MockSuite checks what is sent to the driver, and how driver failures are
// reported, using a mocked database.
type MockSuite struct {
	db   *sql.DB
	mock sqlmock.Sqlmock
}

var _ = Suite(&MockSuite{})

func (s *MockSuite) SetUpTest(c *C) {
	var err error
	s.db, s.mock, err = sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	c.Assert(err, IsNil)
}

func (s *MockSuite) TearDownTest(c *C) {
	c.Check(s.mock.ExpectationsWereMet(), IsNil)
	s.db.Close()
}

type update struct {
	A  int64
	B  string
	C  float64
	On bool `db:"-"`
}

var errBoom = errors.New("boom")

func (s *MockSuite) TestBindOrder(c *C) {
	t := sqlnorm.MustPrepare[update, sqlnorm.NoResult](`UPDATE t SET a = :a, b = :b WHERE c = :c AND d = :a`)
	c.Assert(t.SQL(), Equals, `UPDATE t SET a = ?, b = ? WHERE c = ? AND d = ?`)

	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectExec().
		WithArgs(int64(1), "two", 3.5, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := t.Exec(context.Background(), s.db, &update{A: 1, B: "two", C: 3.5})
	c.Assert(err, IsNil)
	c.Check(n, Equals, int64(2))
}

func (s *MockSuite) TestDollarDialect(c *C) {
	t := sqlnorm.MustPrepare[update, sqlnorm.NoResult](
		`UPDATE t SET a = :a WHERE b = :b AND c = :c`, sqlnorm.WithDialect(sqlnorm.Dollar))
	c.Assert(t.SQL(), Equals, `UPDATE t SET a = $1 WHERE b = $2 AND c = $3`)

	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectExec().
		WithArgs(int64(5), "x", 0.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := t.Exec(context.Background(), s.db, &update{A: 5, B: "x"})
	c.Assert(err, IsNil)
}

func (s *MockSuite) TestNilParamsUseFactory(c *C) {
	t := sqlnorm.MustPrepare[update, sqlnorm.NoResult](`DELETE FROM t WHERE a = :a AND b = :b AND c = :c`,
		sqlnorm.WithParamsFactory(func() *update { return &update{A: 7, B: "seven", C: 7.7} }))

	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectExec().
		WithArgs(int64(7), "seven", 7.7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := t.Exec(context.Background(), s.db, nil)
	c.Assert(err, IsNil)
}

func (s *MockSuite) TestPrepareFails(c *C) {
	t := sqlnorm.MustPrepare[update, sqlnorm.NoResult](`DELETE FROM t WHERE a = :a AND b = :b AND c = :c`)
	s.mock.ExpectPrepare(t.SQL()).WillReturnError(errBoom)

	n, err := t.Exec(context.Background(), s.db, &update{})
	c.Check(n, Equals, int64(-1))
	c.Check(errors.Is(err, errBoom), Equals, true)
	var execErr *sqlnorm.ExecError
	c.Assert(errors.As(err, &execErr), Equals, true)
	c.Check(execErr.Op, Equals, "prepare")
	c.Check(err, ErrorMatches, `cannot prepare statement "DELETE FROM t WHERE a = \? AND b = \? AND c = \?": boom`)
}

func (s *MockSuite) TestExecuteFails(c *C) {
	t := sqlnorm.MustPrepare[update, sqlnorm.NoResult](`DELETE FROM t WHERE a = :a AND b = :b AND c = :c`)
	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectExec().
		WillReturnError(errBoom)

	n, err := t.Exec(context.Background(), s.db, &update{})
	c.Check(n, Equals, int64(-1))
	c.Check(errors.Is(err, errBoom), Equals, true)
	var execErr *sqlnorm.ExecError
	c.Assert(errors.As(err, &execErr), Equals, true)
	c.Check(execErr.Op, Equals, "execute")
}

func (s *MockSuite) TestRowsAffectedUnavailable(c *C) {
	t := sqlnorm.MustPrepare[update, sqlnorm.NoResult](`DELETE FROM t WHERE a = :a AND b = :b AND c = :c`)
	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectExec().
		WillReturnResult(sqlmock.NewErrorResult(errBoom))

	n, err := t.Exec(context.Background(), s.db, &update{})
	c.Assert(err, IsNil)
	c.Check(n, Equals, int64(-1))
}

type holder struct {
	V any
}

func (s *MockSuite) TestBindUnsupportedValue(c *C) {
	t := sqlnorm.MustPrepare[holder, sqlnorm.NoResult](`DELETE FROM t WHERE v = :v`)

	// Nothing reaches the driver.
	_, err := t.Exec(context.Background(), s.db, &holder{V: struct{}{}})
	c.Check(errors.Is(err, sqlnorm.ErrUnsupportedType), Equals, true)
	var execErr *sqlnorm.ExecError
	c.Assert(errors.As(err, &execErr), Equals, true)
	c.Check(execErr.Op, Equals, "bind")
}

func (s *MockSuite) TestBindNilInterface(c *C) {
	t := sqlnorm.MustPrepare[holder, sqlnorm.NoResult](`DELETE FROM t WHERE v = :v OR v = :v`)
	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectExec().
		WithArgs(nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := t.Exec(context.Background(), s.db, &holder{})
	c.Assert(err, IsNil)
}

type pair struct {
	Key   string
	Value *int64
}

func (s *MockSuite) TestQueryDecodes(c *C) {
	t := sqlnorm.MustPrepare[update, pair](`SELECT key, value FROM t WHERE a = :a AND b = :b AND c = :c`)
	rows := sqlmock.NewRows([]string{"KEY", "Value"}).
		AddRow("one", int64(1)).
		AddRow("none", nil)
	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectQuery().
		WithArgs(int64(1), "b", 2.5).
		WillReturnRows(rows).
		RowsWillBeClosed()

	pairs, err := t.Collect(context.Background(), s.db, &update{A: 1, B: "b", C: 2.5})
	c.Assert(err, IsNil)
	c.Assert(pairs, HasLen, 2)
	c.Check(pairs[0].Key, Equals, "one")
	c.Check(*pairs[0].Value, Equals, int64(1))
	c.Check(pairs[1].Key, Equals, "none")
	c.Check(pairs[1].Value, IsNil)
}

func (s *MockSuite) TestDecodeFailsOnMissingColumn(c *C) {
	t := sqlnorm.MustPrepare[update, pair](`SELECT key FROM t WHERE a = :a AND b = :b AND c = :c`)
	rows := sqlmock.NewRows([]string{"key"}).AddRow("one").AddRow("two")
	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectQuery().
		WillReturnRows(rows).
		RowsWillBeClosed()

	r, err := t.Query(context.Background(), s.db, &update{})
	c.Assert(err, IsNil)
	c.Check(r.Next(), Equals, false)
	var execErr *sqlnorm.ExecError
	c.Assert(errors.As(r.Err(), &execErr), Equals, true)
	c.Check(execErr.Op, Equals, "decode")
	c.Check(r.Err(), ErrorMatches, `cannot decode statement ".*": cannot decode field Value: unknown column "value"`)
	c.Check(r.Close(), Equals, r.Err())
}

func (s *MockSuite) TestIterateFails(c *C) {
	t := sqlnorm.MustPrepare[update, pair](`SELECT key, value FROM t WHERE a = :a AND b = :b AND c = :c`)
	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("one", int64(1)).
		AddRow("two", int64(2)).
		RowError(1, errBoom)
	s.mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectQuery().
		WillReturnRows(rows).
		RowsWillBeClosed()

	var keys []string
	err := t.ForEach(context.Background(), s.db, &update{}, func(p *pair) error {
		keys = append(keys, p.Key)
		return nil
	})
	c.Check(keys, DeepEquals, []string{"one"})
	c.Check(errors.Is(err, errBoom), Equals, true)
	var execErr *sqlnorm.ExecError
	c.Assert(errors.As(err, &execErr), Equals, true)
	c.Check(execErr.Op, Equals, "iterate")
}
