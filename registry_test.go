// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm_test

import (
	"context"
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlnorm"
)

type RegistrySuite struct{}

var _ = Suite(&RegistrySuite{})

const registrySite = "example.com/registry"

// bazHandler is written the way sqlnormgen writes handlers.
type bazHandler struct {
	binds   int
	decodes int
}

func (h *bazHandler) SafeSQL() string {
	return `SELECT foo FROM bar WHERE bar.baz = $1`
}

func (h *bazHandler) Bind(p *bazParams, b *sqlnorm.Binds) error {
	h.binds++
	return b.SetInt64(1, p.Baz)
}

func (h *bazHandler) Decode(c *sqlnorm.Cursor, r *fooResult) error {
	h.decodes++
	v, err := c.GetInt64("foo")
	if err != nil {
		return err
	}
	r.Foo = v
	return nil
}

type taggedResult struct {
	Foo int64  `db:"foo"`
	Tag string `db:"-"`
}

type taggedHandler struct{}

func (taggedHandler) SafeSQL() string {
	return `SELECT foo FROM bar WHERE bar.baz = ?`
}

func (taggedHandler) Bind(p *bazParams, b *sqlnorm.Binds) error {
	return b.SetInt64(1, p.Baz)
}

func (taggedHandler) Decode(c *sqlnorm.Cursor, r *taggedResult) error {
	v, err := c.GetInt64("foo")
	if err != nil {
		return err
	}
	r.Foo = v
	return nil
}

func (s *RegistrySuite) TestGeneratedHandlerIsUsed(c *C) {
	const sql = `SELECT foo FROM bar WHERE bar.baz = :baz`
	key := sqlnorm.HandlerKey[bazParams, fooResult](registrySite, sqlnorm.Dollar, sql)
	h := &bazHandler{}
	sqlnorm.Register[bazParams, fooResult](key, h)
	defer sqlnorm.Unregister(key)

	t, err := sqlnorm.Prepare[bazParams, fooResult](sql, sqlnorm.WithSite(registrySite), sqlnorm.WithDialect(sqlnorm.Dollar), sqlnorm.RequireGenerated())
	c.Assert(err, IsNil)
	c.Check(t.Kind(), Equals, sqlnorm.Generated)
	c.Check(t.Kind().String(), Equals, "generated")
	c.Check(t.SQL(), Equals, `SELECT foo FROM bar WHERE bar.baz = $1`)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	c.Assert(err, IsNil)
	defer db.Close()
	mock.ExpectPrepare(t.SQL()).WillBeClosed().
		ExpectQuery().
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"foo"}).AddRow(int64(1)).AddRow(int64(2)))

	results, err := t.Collect(context.Background(), db, &bazParams{Baz: 100})
	c.Assert(err, IsNil)
	c.Assert(results, HasLen, 2)
	c.Check(results[1].Foo, Equals, int64(2))
	c.Check(h.binds, Equals, 1)
	c.Check(h.decodes, Equals, 2)
	c.Check(mock.ExpectationsWereMet(), IsNil)
}

func (s *RegistrySuite) TestOtherSiteIsReflective(c *C) {
	const sql = `SELECT foo FROM bar WHERE bar.baz = :baz`
	key := sqlnorm.HandlerKey[bazParams, fooResult](registrySite, sqlnorm.Dollar, sql)
	sqlnorm.Register[bazParams, fooResult](key, &bazHandler{})
	defer sqlnorm.Unregister(key)

	t, err := sqlnorm.Prepare[bazParams, fooResult](sql)
	c.Assert(err, IsNil)
	c.Check(t.Kind(), Equals, sqlnorm.Reflective)
	c.Check(t.Kind().String(), Equals, "reflective")
	c.Check(t.SQL(), Equals, `SELECT foo FROM bar WHERE bar.baz = ?`)
}

func (s *RegistrySuite) TestOtherDialectIsReflective(c *C) {
	const sql = `SELECT foo FROM bar WHERE bar.baz = :baz`
	key := sqlnorm.HandlerKey[bazParams, fooResult](registrySite, sqlnorm.Dollar, sql)
	sqlnorm.Register[bazParams, fooResult](key, &bazHandler{})
	defer sqlnorm.Unregister(key)

	for _, opts := range [][]sqlnorm.Option{
		{sqlnorm.WithSite(registrySite)},
		{sqlnorm.WithSite(registrySite), sqlnorm.WithDialect(sqlnorm.Question)},
	} {
		t, err := sqlnorm.Prepare[bazParams, fooResult](sql, opts...)
		c.Assert(err, IsNil)
		c.Check(t.Kind(), Equals, sqlnorm.Reflective)
		c.Check(t.SQL(), Equals, `SELECT foo FROM bar WHERE bar.baz = ?`)
	}

	_, err := sqlnorm.Prepare[bazParams, fooResult](sql, sqlnorm.WithSite(registrySite), sqlnorm.WithDialect(sqlnorm.AtP), sqlnorm.RequireGenerated())
	c.Check(errors.Is(err, sqlnorm.ErrGenerationRequired), Equals, true)
}

func (s *RegistrySuite) TestResultFactory(c *C) {
	const sql = `SELECT foo FROM bar WHERE bar.baz = :baz`
	factory := sqlnorm.WithResultFactory(func() *taggedResult { return &taggedResult{Tag: "factory"} })

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	c.Assert(err, IsNil)
	defer db.Close()

	reflective, err := sqlnorm.Prepare[bazParams, taggedResult](sql, sqlnorm.WithSite(registrySite), factory)
	c.Assert(err, IsNil)
	c.Check(reflective.Kind(), Equals, sqlnorm.Reflective)

	key := sqlnorm.HandlerKey[bazParams, taggedResult](registrySite, sqlnorm.Question, sql)
	sqlnorm.Register[bazParams, taggedResult](key, taggedHandler{})
	defer sqlnorm.Unregister(key)
	generated, err := sqlnorm.Prepare[bazParams, taggedResult](sql, sqlnorm.WithSite(registrySite), factory)
	c.Assert(err, IsNil)
	c.Check(generated.Kind(), Equals, sqlnorm.Generated)

	for _, t := range []*sqlnorm.Template[bazParams, taggedResult]{reflective, generated} {
		mock.ExpectPrepare(t.SQL()).WillBeClosed().
			ExpectQuery().
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"foo"}).AddRow(int64(30)))
		r, err := t.QueryOne(context.Background(), db, &bazParams{Baz: 3})
		c.Assert(err, IsNil)
		c.Check(*r, Equals, taggedResult{Foo: 30, Tag: "factory"}, Commentf("%s handler", t.Kind()))
	}
	c.Check(mock.ExpectationsWereMet(), IsNil)
}

func (s *RegistrySuite) TestGenerationRequired(c *C) {
	_, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`,
		sqlnorm.WithSite(registrySite), sqlnorm.RequireGenerated())
	c.Check(errors.Is(err, sqlnorm.ErrGenerationRequired), Equals, true)
	c.Check(err, ErrorMatches, `cannot prepare statement: no generated handler registered under "example.com/registry:.*", run sqlnormgen`)
}

func (s *RegistrySuite) TestHandlerMismatch(c *C) {
	const sql = `SELECT foo FROM bar WHERE bar.baz = :baz`
	key := sqlnorm.HandlerKey[barParams, fooResult](registrySite, sqlnorm.Question, sql)
	sqlnorm.Register[bazParams, fooResult](key, &bazHandler{})
	defer sqlnorm.Unregister(key)

	_, err := sqlnorm.Prepare[barParams, fooResult](sql, sqlnorm.WithSite(registrySite))
	c.Check(errors.Is(err, sqlnorm.ErrHandlerMismatch), Equals, true)
	c.Check(err, ErrorMatches, `cannot prepare statement: registered handler has different record types: key ".*" holds \*sqlnorm_test.bazHandler`)
}

func (s *RegistrySuite) TestRegisterTwicePanics(c *C) {
	key := sqlnorm.HandlerKey[bazParams, fooResult](registrySite, sqlnorm.Question, `SELECT 1`)
	sqlnorm.Register[bazParams, fooResult](key, &bazHandler{})
	defer sqlnorm.Unregister(key)

	c.Check(func() {
		sqlnorm.Register[bazParams, fooResult](key, &bazHandler{})
	}, PanicMatches, `sqlnorm: handler ".*" registered twice`)
}
