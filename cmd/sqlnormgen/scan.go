// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/canonical/sqlnorm/internal/expr"
)

const normPath = "github.com/canonical/sqlnorm"

// typeDecl is a type declared in the package.
type typeDecl struct {
	expr  ast.Expr
	alias bool
	// imports maps the import names of the declaring file to import paths.
	imports map[string]string
}

// pkg is the parsed source of the package handlers are generated for.
type pkg struct {
	fset  *token.FileSet
	dir   string
	name  string
	files []*ast.File

	types map[string]*typeDecl
	// methods holds the method names of each receiver type, as written in
	// the receiver ("T" or "*T").
	methods map[string]map[string]bool
	consts  map[string]ast.Expr

	// importer loads the packages of imported field types on demand.
	importer types.ImporterFrom
}

// loadPackage parses the non-test Go files in dir, except the file named
// skip.
func loadPackage(dir string, skip string) (*pkg, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}
	p := &pkg{
		fset:    token.NewFileSet(),
		dir:     abs,
		types:   map[string]*typeDecl{},
		methods: map[string]map[string]bool{},
		consts:  map[string]ast.Expr{},
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == skip {
			continue
		}
		f, err := parser.ParseFile(p.fset, filepath.Join(dir, name), nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		if p.name == "" {
			p.name = f.Name.Name
		} else if p.name != f.Name.Name {
			return nil, fmt.Errorf("found packages %s and %s in %s", p.name, f.Name.Name, dir)
		}
		p.files = append(p.files, f)
		p.collect(f)
	}
	if len(p.files) == 0 {
		return nil, fmt.Errorf("no Go files in %s", dir)
	}
	return p, nil
}

func fileImports(f *ast.File) map[string]string {
	imports := map[string]string{}
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		if spec.Name != nil {
			name = spec.Name.Name
		}
		imports[name] = path
	}
	return imports
}

// collect records the top level declarations of f.
func (p *pkg) collect(f *ast.File) {
	imports := fileImports(f)
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.TypeParams != nil {
						continue
					}
					p.types[s.Name.Name] = &typeDecl{expr: s.Type, alias: s.Assign.IsValid(), imports: imports}
				case *ast.ValueSpec:
					if d.Tok != token.CONST {
						continue
					}
					for i, n := range s.Names {
						if i < len(s.Values) {
							p.consts[n.Name] = s.Values[i]
						}
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) != 1 {
				continue
			}
			recv := receiverName(d.Recv.List[0].Type)
			if p.methods[recv] == nil {
				p.methods[recv] = map[string]bool{}
			}
			p.methods[recv][d.Name.Name] = true
		}
	}
}

func receiverName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StarExpr:
		return "*" + receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.ParenExpr:
		return receiverName(t.X)
	}
	return ""
}

// templateCall is a call to Prepare or MustPrepare found in the package.
type templateCall struct {
	pos token.Position
	// varName is the variable the template is assigned to, if any.
	varName string
	raw     string
	params  ast.Expr
	result  ast.Expr
	style   expr.Style
	// site is set when the call passes WithSite.
	site string
	// pkgLevel is true for templates prepared in package level variable
	// declarations.
	pkgLevel bool
	// normName is the name sqlnorm is imported as in the declaring file.
	normName string
}

// posError is a problem found at a position of the source.
type posError struct {
	pos token.Position
	msg string
}

func (e *posError) Error() string {
	return e.pos.String() + ": " + e.msg
}

// problems lists every problem found in a package.
type problems []error

func (ps problems) Error() string {
	msgs := make([]string, len(ps))
	for i, e := range ps {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// templates returns the templates prepared in the package.
func (p *pkg) templates() ([]*templateCall, problems) {
	var found []*templateCall
	var errs problems
	for _, f := range p.files {
		imports := fileImports(f)
		normName := ""
		for name, path := range imports {
			if path == normPath && name != "_" && name != "." {
				normName = name
			}
		}
		if normName == "" {
			continue
		}

		names := map[*ast.CallExpr]string{}
		pkgLevel := map[*ast.CallExpr]bool{}
		for _, decl := range f.Decls {
			if d, ok := decl.(*ast.GenDecl); ok && d.Tok == token.VAR {
				ast.Inspect(d, func(n ast.Node) bool {
					if call, ok := n.(*ast.CallExpr); ok {
						pkgLevel[call] = true
					}
					return true
				})
			}
		}
		ast.Inspect(f, func(n ast.Node) bool {
			switch s := n.(type) {
			case *ast.AssignStmt:
				assignNames(names, s.Lhs, s.Rhs)
			case *ast.ValueSpec:
				lhs := make([]ast.Expr, len(s.Names))
				for i, id := range s.Names {
					lhs[i] = id
				}
				assignNames(names, lhs, s.Values)
			}
			return true
		})

		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			params, result, ok := prepareCall(call, normName)
			if !ok {
				return true
			}
			t := &templateCall{
				pos:      p.fset.Position(call.Pos()),
				varName:  names[call],
				params:   params,
				result:   result,
				style:    expr.Question,
				pkgLevel: pkgLevel[call],
				normName: normName,
			}
			if err := p.parseCall(t, call); err != nil {
				errs = append(errs, err)
				return true
			}
			found = append(found, t)
			return true
		})
	}
	return found, errs
}

// assignNames records the variable each call on the right hand side of an
// assignment is assigned to.
func assignNames(names map[*ast.CallExpr]string, lhs, rhs []ast.Expr) {
	for i, e := range rhs {
		call, ok := e.(*ast.CallExpr)
		if !ok || i >= len(lhs) {
			continue
		}
		if id, ok := lhs[i].(*ast.Ident); ok && id.Name != "_" {
			names[call] = id.Name
		}
	}
}

// prepareCall reports whether call is sqlnorm.Prepare[P, R] or
// sqlnorm.MustPrepare[P, R], and returns P and R.
func prepareCall(call *ast.CallExpr, normName string) (params, result ast.Expr, ok bool) {
	idx, ok := call.Fun.(*ast.IndexListExpr)
	if !ok || len(idx.Indices) != 2 {
		return nil, nil, false
	}
	name, ok := selectorOf(idx.X, normName)
	if !ok || (name != "Prepare" && name != "MustPrepare") {
		return nil, nil, false
	}
	return idx.Indices[0], idx.Indices[1], true
}

// selectorOf returns Sel when e is pkgName.Sel.
func selectorOf(e ast.Expr, pkgName string) (string, bool) {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok || x.Name != pkgName {
		return "", false
	}
	return sel.Sel.Name, true
}

// parseCall reads the statement and the options of a template call.
func (p *pkg) parseCall(t *templateCall, call *ast.CallExpr) error {
	if len(call.Args) == 0 {
		return &posError{t.pos, "missing statement"}
	}
	raw, ok := p.stringConst(call.Args[0], 0)
	if !ok {
		return &posError{p.fset.Position(call.Args[0].Pos()), "statement is not a constant string"}
	}
	t.raw = raw
	if call.Ellipsis.IsValid() {
		return &posError{t.pos, "cannot read options passed with ..."}
	}

	for _, arg := range call.Args[1:] {
		pos := p.fset.Position(arg.Pos())
		opt, ok := arg.(*ast.CallExpr)
		if !ok {
			return &posError{pos, "option is not a call, its effect on the statement is unknown"}
		}
		name, ok := selectorOf(opt.Fun, t.normName)
		if !ok {
			continue
		}
		switch name {
		case "WithDialect":
			style, ok := "", len(opt.Args) == 1
			if ok {
				style, ok = selectorOf(opt.Args[0], t.normName)
			}
			if !ok {
				return &posError{pos, "dialect must be one of sqlnorm.Question, sqlnorm.Dollar, sqlnorm.AtP or sqlnorm.Colon"}
			}
			s, err := expr.ParseStyle(style)
			if err != nil {
				return &posError{pos, err.Error()}
			}
			t.style = s
		case "WithSite":
			site, ok := "", len(opt.Args) == 1
			if ok {
				site, ok = p.stringConst(opt.Args[0], 0)
			}
			if !ok {
				return &posError{pos, "site is not a constant string"}
			}
			t.site = site
		}
	}
	return nil
}

// stringConst evaluates e when it is a constant string made of literals,
// constants of the package and concatenations.
func (p *pkg) stringConst(e ast.Expr, depth int) (string, bool) {
	switch e := e.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(e.Value)
		return s, err == nil
	case *ast.ParenExpr:
		return p.stringConst(e.X, depth)
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return "", false
		}
		x, ok := p.stringConst(e.X, depth)
		if !ok {
			return "", false
		}
		y, ok := p.stringConst(e.Y, depth)
		return x + y, ok
	case *ast.Ident:
		v, ok := p.consts[e.Name]
		if !ok || depth > 16 {
			return "", false
		}
		return p.stringConst(v, depth+1)
	}
	return "", false
}
