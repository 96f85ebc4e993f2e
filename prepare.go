// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/canonical/sqlnorm/internal/expr"
)

// Style is the positional placeholder syntax of the statements sent to the
// driver.
type Style = expr.Style

const (
	// Question writes "?" (SQLite, MySQL). It is the default.
	Question = expr.Question
	// Dollar writes "$1", "$2", ... (PostgreSQL).
	Dollar = expr.Dollar
	// AtP writes "@p1", "@p2", ... (SQL Server).
	AtP = expr.AtP
	// Colon writes ":1", ":2", ... (Oracle).
	Colon = expr.Colon
)

// ParseStyle returns the style named "question", "dollar", "atp" or "colon".
func ParseStyle(name string) (Style, error) {
	return expr.ParseStyle(name)
}

var loggerMutex sync.RWMutex
var defaultLogger = stdr.New(log.New(os.Stderr, "sqlnorm: ", log.LstdFlags))

// SetLogger sets the logger used by templates prepared without [WithLogger].
func SetLogger(l logr.Logger) {
	loggerMutex.Lock()
	defaultLogger = l
	loggerMutex.Unlock()
}

func getLogger() logr.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return defaultLogger
}

type options struct {
	style            Style
	logger           *logr.Logger
	requireGenerated bool
	site             string
	paramsFactory    any
	resultFactory    any
}

// Option configures the preparation of a template.
type Option func(*options)

// WithDialect sets the placeholder style of the prepared statement.
func WithDialect(style Style) Option {
	return func(o *options) { o.style = style }
}

// WithLogger sets the logger of the template.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// RequireGenerated makes Prepare fail when no generated handler is
// registered for the template.
func RequireGenerated() Option {
	return func(o *options) { o.requireGenerated = true }
}

// WithSite sets the import path used to compute the handler key. It defaults
// to the package of the function calling Prepare.
func WithSite(site string) Option {
	return func(o *options) { o.site = site }
}

// WithParamsFactory sets the function producing the parameter record used
// when a template is run with nil parameters.
func WithParamsFactory[P any](f func() *P) Option {
	return func(o *options) { o.paramsFactory = f }
}

// WithResultFactory sets the function producing a new result record for
// every row. Decoding only sets the fields that have a column.
func WithResultFactory[R any](f func() *R) Option {
	return func(o *options) { o.resultFactory = f }
}

// Template is a prepared SQL template with parameter record type P and result
// record type R. R is [NoResult] for statements that return no rows.
// A Template is immutable and can be used concurrently.
type Template[P, R any] struct {
	raw       string
	key       string
	kind      HandlerKind
	handler   Handler[P, R]
	diags     Diagnostics
	newParams func() *P
	newResult func() *R
	logger    logr.Logger
}

// Prepare parses sql, a statement with ":name" placeholders, and binds it to
// the fields of P and R. A generated handler registered for the template is
// used when there is one. Otherwise the handler works by reflection.
func Prepare[P, R any](sql string, opts ...Option) (*Template[P, R], error) {
	return prepare[P, R](sql, callerSite(2), opts)
}

// MustPrepare is the same as [Prepare] except that it panics on error.
func MustPrepare[P, R any](sql string, opts ...Option) *Template[P, R] {
	t, err := prepare[P, R](sql, callerSite(2), opts)
	if err != nil {
		panic(err)
	}
	return t
}

// callerSite returns the import path of the package of the function skip
// frames up the stack.
func callerSite(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return funcPackage(fn.Name())
}

// funcPackage returns the package path of a qualified function name such as
// "example.com/store.(*DB).init.0". The runtime escapes the dots and a few
// other characters of the last path element, as in "example.com/store%2ev2".
func funcPackage(name string) string {
	slash := strings.LastIndex(name, "/")
	pkg := name
	if dot := strings.Index(name[slash+1:], "."); dot >= 0 {
		pkg = name[:slash+1+dot]
	}
	if unescaped, err := url.PathUnescape(pkg[slash+1:]); err == nil {
		pkg = pkg[:slash+1] + unescaped
	}
	return pkg
}

func prepare[P, R any](sql string, site string, opts []Option) (*Template[P, R], error) {
	o := options{style: Question, site: site}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Template[P, R]{
		raw:       sql,
		newParams: func() *P { return new(P) },
		newResult: func() *R { return new(R) },
		logger:    getLogger(),
	}
	if o.logger != nil {
		t.logger = *o.logger
	}
	if o.paramsFactory != nil {
		f, ok := o.paramsFactory.(func() *P)
		if !ok {
			return nil, fmt.Errorf("cannot prepare statement: params factory %T does not return *%s", o.paramsFactory, reflect.TypeFor[P]())
		}
		t.newParams = f
	}
	if o.resultFactory != nil {
		f, ok := o.resultFactory.(func() *R)
		if !ok {
			return nil, fmt.Errorf("cannot prepare statement: result factory %T does not return *%s", o.resultFactory, reflect.TypeFor[R]())
		}
		t.newResult = f
	}

	pt, rt := reflect.TypeFor[P](), reflect.TypeFor[R]()
	t.key = handlerKey(o.site, pt, rt, o.style, sql)

	h, found, err := lookupHandler[P, R](t.key)
	if err != nil {
		var diags Diagnostics
		diags.add(Error, CodeHandlerMismatch, err.Error())
		return nil, &PrepareError{SQL: sql, Diagnostics: diags}
	}
	if found {
		t.kind = Generated
		t.handler = h
		return t, nil
	}
	if o.requireGenerated {
		var diags Diagnostics
		diags.add(Error, CodeGenerationRequired, fmt.Sprintf("no generated handler registered under %q, run sqlnormgen", t.key))
		return nil, &PrepareError{SQL: sql, Diagnostics: diags}
	}

	p, err := cachedPlan(sql, o.style, pt, rt)
	if err != nil {
		return nil, err
	}
	for _, name := range p.unused {
		t.logger.Info("parameter field not used by template", "template", sql, "field", name)
	}
	t.kind = Reflective
	t.diags = p.diags
	t.handler = &reflective[P, R]{plan: p}
	return t, nil
}

// SQL returns the statement sent to the driver.
func (t *Template[P, R]) SQL() string {
	return t.handler.SafeSQL()
}

// Raw returns the template text given to Prepare.
func (t *Template[P, R]) Raw() string {
	return t.raw
}

// Key returns the key under which a generated handler for the template is
// looked up.
func (t *Template[P, R]) Key() string {
	return t.key
}

// Kind reports whether the template uses a generated handler.
func (t *Template[P, R]) Kind() HandlerKind {
	return t.kind
}

// Diagnostics returns the warnings found while preparing the template.
func (t *Template[P, R]) Diagnostics() Diagnostics {
	return slices.Clone(t.diags)
}
