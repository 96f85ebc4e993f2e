// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm_test

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-logr/logr/funcr"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlnorm"
)

type PrepareSuite struct{}

var _ = Suite(&PrepareSuite{})

type bazParams struct {
	Baz int64
}

type fooResult struct {
	Foo int64
}

type barParams struct {
	Bar    int64
	NewBaz int64
}

func (s *PrepareSuite) TestRewrite(c *C) {
	a, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`)
	c.Assert(err, IsNil)
	c.Check(a.SQL(), Equals, `SELECT foo FROM bar WHERE bar.baz = ?`)
	c.Check(a.Raw(), Equals, `SELECT foo FROM bar WHERE bar.baz = :baz`)
	c.Check(a.Diagnostics(), HasLen, 0)

	b, err := sqlnorm.Prepare[barParams, sqlnorm.NoResult](`UPDATE foo SET bar = :newBaz WHERE foo.bar = :bar`)
	c.Assert(err, IsNil)
	c.Check(b.SQL(), Equals, `UPDATE foo SET bar = ? WHERE foo.bar = ?`)

	colon, err := sqlnorm.Prepare[barParams, sqlnorm.NoResult](`UPDATE foo SET bar = :newBaz WHERE foo.bar = :bar`, sqlnorm.WithDialect(sqlnorm.Colon))
	c.Assert(err, IsNil)
	c.Check(colon.SQL(), Equals, `UPDATE foo SET bar = :1 WHERE foo.bar = :2`)

	atp, err := sqlnorm.Prepare[barParams, sqlnorm.NoResult](`UPDATE foo SET bar = :newBaz WHERE foo.bar = :bar`, sqlnorm.WithDialect(sqlnorm.AtP))
	c.Assert(err, IsNil)
	c.Check(atp.SQL(), Equals, `UPDATE foo SET bar = @p1 WHERE foo.bar = @p2`)
}

func (s *PrepareSuite) TestSyntaxError(c *C) {
	_, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE baz = 'x`)
	c.Check(errors.Is(err, sqlnorm.ErrSyntax), Equals, true)
	c.Check(err, ErrorMatches, `cannot prepare statement: cannot parse statement: column 33: missing closing quote in string literal`)

	var prepErr *sqlnorm.PrepareError
	c.Assert(errors.As(err, &prepErr), Equals, true)
	c.Check(prepErr.SQL, Equals, `SELECT foo FROM bar WHERE baz = 'x`)
	c.Assert(prepErr.Diagnostics, HasLen, 1)
	c.Check(prepErr.Diagnostics[0].Severity, Equals, sqlnorm.Error)
	c.Check(prepErr.Diagnostics[0].Code, Equals, sqlnorm.CodeSyntax)
}

func (s *PrepareSuite) TestUnknownParameters(c *C) {
	_, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE a = :zz AND b = :baz AND c = :yy AND d = :zz`)
	c.Check(errors.Is(err, sqlnorm.ErrUnknownParameter), Equals, true)
	c.Check(errors.Is(err, sqlnorm.ErrSyntax), Equals, false)
	c.Check(err, ErrorMatches, `cannot prepare statement: type sqlnorm_test.bazParams has no field for :zz, :yy`)
}

func (s *PrepareSuite) TestUnusedParameterWarning(c *C) {
	var logged []map[string]any
	logger := funcr.NewJSON(func(obj string) {
		var m map[string]any
		if err := json.Unmarshal([]byte(obj), &m); err == nil {
			logged = append(logged, m)
		}
	}, funcr.Options{})

	t, err := sqlnorm.Prepare[barParams, sqlnorm.NoResult](`DELETE FROM foo WHERE bar = :bar`, sqlnorm.WithLogger(logger))
	c.Assert(err, IsNil)

	warnings := t.Diagnostics().Warnings()
	c.Assert(warnings, HasLen, 1)
	c.Check(warnings[0].Code, Equals, sqlnorm.CodeUnusedParameter)
	c.Check(warnings[0].Message, Equals, "field barParams.NewBaz is not used by the statement")
	c.Check(t.Diagnostics().HasErrors(), Equals, false)
	c.Check(warnings.String(), Equals, "warning unused-parameter: field barParams.NewBaz is not used by the statement")

	// Templates sharing a plan do not share their diagnostics.
	other, err := sqlnorm.Prepare[barParams, sqlnorm.NoResult](`DELETE FROM foo WHERE bar = :bar`, sqlnorm.WithLogger(logger))
	c.Assert(err, IsNil)
	diags := t.Diagnostics()
	diags[0].Message = "changed"
	c.Check(t.Diagnostics()[0].Message, Equals, "field barParams.NewBaz is not used by the statement")
	c.Check(other.Diagnostics()[0].Message, Equals, "field barParams.NewBaz is not used by the statement")

	c.Assert(logged, HasLen, 2)
	c.Check(logged[0]["msg"], Equals, "parameter field not used by template")
	c.Check(logged[0]["field"], Equals, "newBaz")
	c.Check(logged[0]["template"], Equals, `DELETE FROM foo WHERE bar = :bar`)
}

type badRecord struct {
	IDs      []int32
	Kinds    []string `sqltype:"blob"`
	Unsigned uint
}

func (s *PrepareSuite) TestRecordErrors(c *C) {
	_, err := sqlnorm.Prepare[badRecord, sqlnorm.NoResult](`DELETE FROM t WHERE a = :unsigned`)
	c.Check(errors.Is(err, sqlnorm.ErrMissingElementType), Equals, true)
	c.Check(errors.Is(err, sqlnorm.ErrUnsupportedType), Equals, true)

	var prepErr *sqlnorm.PrepareError
	c.Assert(errors.As(err, &prepErr), Equals, true)
	var codes []sqlnorm.Code
	for _, d := range prepErr.Diagnostics {
		codes = append(codes, d.Code)
	}
	c.Check(codes, DeepEquals, []sqlnorm.Code{
		sqlnorm.CodeMissingElementType,
		sqlnorm.CodeMissingElementType,
		sqlnorm.CodeUnsupportedType,
	})

	// Result records are checked too, whether or not a column refers to
	// the field.
	_, err = sqlnorm.Prepare[sqlnorm.NoParams, badRecord](`SELECT 1`)
	c.Check(errors.Is(err, sqlnorm.ErrMissingElementType), Equals, true)

	_, err = sqlnorm.Prepare[int, sqlnorm.NoResult](`SELECT 1`)
	c.Check(errors.Is(err, sqlnorm.ErrInvalidRecord), Equals, true)
	c.Check(err, ErrorMatches, `cannot prepare statement: invalid record type: can only reflect struct type, got int`)
}

type scanOnly struct {
	Value *onlyScanner
}

type onlyScanner struct{}

func (*onlyScanner) Scan(any) error { return nil }

func (s *PrepareSuite) TestOpaqueDirection(c *C) {
	_, err := sqlnorm.Prepare[scanOnly, sqlnorm.NoResult](`DELETE FROM t WHERE v = :value`)
	c.Check(errors.Is(err, sqlnorm.ErrUnsupportedType), Equals, true)
	c.Check(err, ErrorMatches, `.*it does not implement driver.Valuer`)

	_, err = sqlnorm.Prepare[sqlnorm.NoParams, scanOnly](`SELECT v AS value FROM t`)
	c.Check(err, IsNil)
}

func (s *PrepareSuite) TestMustPreparePanics(c *C) {
	c.Check(func() {
		sqlnorm.MustPrepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :nope`)
	}, PanicMatches, `cannot prepare statement: type sqlnorm_test.bazParams has no field for :nope`)
}

func (s *PrepareSuite) TestFactoryMismatch(c *C) {
	_, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`,
		sqlnorm.WithParamsFactory(func() *barParams { return nil }))
	c.Check(err, ErrorMatches, `cannot prepare statement: params factory func\(\) \*sqlnorm_test.barParams does not return \*sqlnorm_test.bazParams`)

	_, err = sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`,
		sqlnorm.WithResultFactory(func() *fooResult { return &fooResult{Foo: 1} }))
	c.Check(err, IsNil)
}

func (s *PrepareSuite) TestHandlerKey(c *C) {
	t := sqlnorm.MustPrepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`)
	c.Check(t.Key(), Equals, sqlnorm.HandlerKey[bazParams, fooResult]("github.com/canonical/sqlnorm_test", sqlnorm.Question, `SELECT foo FROM bar WHERE bar.baz = :baz`))
	c.Check(strings.HasPrefix(t.Key(), "github.com/canonical/sqlnorm_test:sqlnorm_test.bazParams:sqlnorm_test.fooResult:question:"), Equals, true)

	dollar := sqlnorm.MustPrepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`, sqlnorm.WithDialect(sqlnorm.Dollar))
	c.Check(dollar.Key(), Equals, sqlnorm.HandlerKey[bazParams, fooResult]("github.com/canonical/sqlnorm_test", sqlnorm.Dollar, `SELECT foo FROM bar WHERE bar.baz = :baz`))
	c.Check(dollar.Key(), Not(Equals), t.Key())

	other := sqlnorm.MustPrepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`, sqlnorm.WithSite("example.com/store"))
	c.Check(strings.HasPrefix(other.Key(), "example.com/store:"), Equals, true)
}

func (s *PrepareSuite) TestFuncPackage(c *C) {
	tests := []struct {
		name, pkg string
	}{
		{"main.main", "main"},
		{"github.com/canonical/sqlnorm_test.init", "github.com/canonical/sqlnorm_test"},
		{"example.com/store.(*DB).Find.func1", "example.com/store"},
		{"example.com/a/b.init.0", "example.com/a/b"},
		{"example.com/a/b.Find[...]", "example.com/a/b"},
		{"example.com/store%2ev2.Find", "example.com/store.v2"},
		{"example.com/v.2/store%2ev2.(*DB).Find.func1", "example.com/v.2/store.v2"},
		{"gopkg.in/yaml%2ev3.Unmarshal", "gopkg.in/yaml.v3"},
	}
	for _, t := range tests {
		c.Check(sqlnorm.FuncPackage(t.name), Equals, t.pkg, Commentf("name: %s", t.name))
	}
}

func (s *PrepareSuite) TestPlanCache(c *C) {
	sqlnorm.PurgePlanCache()
	for i := 0; i < 3; i++ {
		_, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`)
		c.Assert(err, IsNil)
	}
	c.Check(sqlnorm.PlanCacheLen(), Equals, 1)

	_, err := sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :baz`, sqlnorm.WithDialect(sqlnorm.Dollar))
	c.Assert(err, IsNil)
	c.Check(sqlnorm.PlanCacheLen(), Equals, 2)

	// Failures are not cached.
	_, err = sqlnorm.Prepare[bazParams, fooResult](`SELECT foo FROM bar WHERE bar.baz = :nope`)
	c.Assert(err, NotNil)
	c.Check(sqlnorm.PlanCacheLen(), Equals, 2)

	c.Check(sqlnorm.SetPlanCacheSize(0), ErrorMatches, `invalid plan cache size 0`)
	c.Assert(sqlnorm.SetPlanCacheSize(1), IsNil)
	c.Check(sqlnorm.PlanCacheLen(), Equals, 1)
	c.Assert(sqlnorm.SetPlanCacheSize(512), IsNil)
}

func (s *PrepareSuite) TestParseStyle(c *C) {
	style, err := sqlnorm.ParseStyle("Dollar")
	c.Assert(err, IsNil)
	c.Check(style, Equals, sqlnorm.Dollar)
	_, err = sqlnorm.ParseStyle("named")
	c.Check(err, ErrorMatches, `unknown placeholder style "named"`)
}
