// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/types"
	"reflect"
	"strconv"

	"github.com/canonical/sqlnorm/internal/pgarray"
	"github.com/canonical/sqlnorm/internal/typeinfo"
)

// record is a parameter or result record type.
type record struct {
	// Expr is the type as written in the generated file.
	Expr   string
	Fields []*field
	// NoResult is true for sqlnorm.NoResult.
	NoResult bool

	byName map[string]*field
}

// field is a record field along with what is needed to bind and decode it.
type field struct {
	GoName string
	Name   string
	Kind   typeinfo.Kind
	// Type is the type of the field, without the pointer for Pointer
	// fields.
	Type    string
	Pointer bool
	// Nilable is true for slice and interface fields passed to the driver
	// as they are.
	Nilable bool
	// NullDecimal is true for decimal.NullDecimal fields.
	NullDecimal bool
	ElemType    string

	// named is set for fields of a named type with methods or declared in
	// another package.
	named *named
}

// named is a named type along with what decides how it is bound and
// decoded.
type named struct {
	// path and qualifier are empty for types declared in the package.
	path, qualifier string
	name            string
	kind            typeinfo.Kind
	// valuer and ptrValuer report whether T and *T have a Value method,
	// scanner whether *T has a Scan method.
	valuer, ptrValuer, scanner bool
}

func (n *named) String() string {
	if n.qualifier == "" {
		return n.name
	}
	return n.qualifier + "." + n.name
}

var builtinKinds = map[string]typeinfo.Kind{
	"int32":   typeinfo.Integer,
	"int64":   typeinfo.Long,
	"int":     typeinfo.Long,
	"int16":   typeinfo.Short,
	"float32": typeinfo.Float,
	"float64": typeinfo.Double,
	"string":  typeinfo.String,
	"bool":    typeinfo.Boolean,
}

var importedKinds = map[string]typeinfo.Kind{
	"github.com/shopspring/decimal.Decimal": typeinfo.Decimal,
	"github.com/golang-sql/civil.Date":      typeinfo.Date,
	"github.com/golang-sql/civil.Time":      typeinfo.Time,
	"time.Time":                             typeinfo.Timestamp,
	"net/url.URL":                           typeinfo.Locator,
}

// record resolves the record type e of template t. Result records must be
// decodable, other records bindable.
func (p *pkg) record(t *templateCall, e ast.Expr, result bool) (*record, error) {
	if name, ok := selectorOf(e, t.normName); ok {
		switch name {
		case "NoResult":
			return &record{Expr: "sqlnorm.NoResult", NoResult: true}, nil
		case "NoParams":
			return &record{Expr: "sqlnorm.NoParams"}, nil
		}
	}
	id, ok := e.(*ast.Ident)
	var decl *typeDecl
	if ok {
		decl = p.types[id.Name]
	}
	if decl == nil {
		return nil, &posError{p.fset.Position(e.Pos()), fmt.Sprintf("record type %s is not a struct declared in package %s", types.ExprString(e), p.name)}
	}
	st, ok := decl.expr.(*ast.StructType)
	if !ok {
		return nil, &posError{p.fset.Position(e.Pos()), fmt.Sprintf("record type %s is not a struct", id.Name)}
	}

	r := &record{Expr: id.Name, byName: map[string]*field{}}
	var errs problems
	for _, fl := range st.Fields.List {
		var tag reflect.StructTag
		if fl.Tag != nil {
			s, err := strconv.Unquote(fl.Tag.Value)
			if err != nil {
				errs = append(errs, &posError{p.fset.Position(fl.Tag.Pos()), "invalid tag"})
				continue
			}
			tag = reflect.StructTag(s)
		}
		if len(fl.Names) == 0 {
			if ast.IsExported(types.ExprString(fl.Type)) {
				errs = append(errs, &posError{p.fset.Position(fl.Pos()), fmt.Sprintf("field %s.%s: embedded fields are not supported", id.Name, types.ExprString(fl.Type))})
			}
			continue
		}
		for _, n := range fl.Names {
			if !n.IsExported() {
				continue
			}
			pos := p.fset.Position(n.Pos())
			name, ok, err := typeinfo.ColumnName(n.Name, tag)
			if err != nil {
				errs = append(errs, &posError{pos, fmt.Sprintf("field %s.%s: %v", id.Name, n.Name, err)})
				continue
			}
			if !ok {
				continue
			}
			if other, dup := r.byName[name]; dup {
				errs = append(errs, &posError{pos, fmt.Sprintf("field %s.%s: name %q already used by field %s", id.Name, n.Name, name, other.GoName)})
				continue
			}
			f := &field{GoName: n.Name, Name: name}
			if err := p.fieldKind(f, fl.Type, decl.imports); err != nil {
				errs = append(errs, &posError{pos, fmt.Sprintf("field %s.%s: %v", id.Name, n.Name, err)})
				continue
			}
			if err := f.checkOpaque(result); err != nil {
				errs = append(errs, &posError{pos, fmt.Sprintf("field %s.%s: %v", id.Name, n.Name, err)})
				continue
			}
			if f.Kind == typeinfo.Array {
				elemType, err := pgarray.Normalize(tag.Get("sqltype"))
				if err != nil {
					errs = append(errs, &posError{pos, fmt.Sprintf("field %s.%s: %v, add a sqltype tag", id.Name, n.Name, typeinfo.ErrMissingElementType)})
					continue
				}
				f.ElemType = elemType
			}
			r.Fields = append(r.Fields, f)
			r.byName[name] = f
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return r, nil
}

// fieldKind sets the kind of f from its type expression e.
func (p *pkg) fieldKind(f *field, e ast.Expr, imports map[string]string) error {
	f.Type = types.ExprString(e)
	unsupported := fmt.Errorf("%w %s", typeinfo.ErrUnsupportedType, f.Type)
	switch t := e.(type) {
	case *ast.StarExpr:
		k, n, err := p.baseKind(t.X, imports, 0)
		if err != nil {
			return err
		}
		if k == typeinfo.Invalid {
			return unsupported
		}
		f.Kind, f.Pointer, f.Type, f.named = k, true, types.ExprString(t.X), n
		return nil
	case *ast.ArrayType:
		if t.Len != nil {
			return unsupported
		}
		if id, ok := t.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
			f.Kind, f.Nilable = typeinfo.Opaque, true
			return nil
		}
		elem := t.Elt
		if star, ok := elem.(*ast.StarExpr); ok {
			elem = star.X
		}
		k, _, err := p.baseKind(elem, imports, 0)
		if err != nil {
			return err
		}
		if k == typeinfo.Invalid || k == typeinfo.Opaque {
			return unsupported
		}
		f.Kind = typeinfo.Array
		return nil
	case *ast.InterfaceType:
		f.Kind, f.Nilable = typeinfo.Opaque, true
		return nil
	case *ast.Ident:
		if t.Name == "any" {
			f.Kind, f.Nilable = typeinfo.Opaque, true
			return nil
		}
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok && imports[x.Name] == "github.com/shopspring/decimal" && t.Sel.Name == "NullDecimal" {
			f.Kind, f.NullDecimal = typeinfo.Decimal, true
			return nil
		}
	}
	k, n, err := p.baseKind(e, imports, 0)
	if err != nil {
		return err
	}
	if k == typeinfo.Invalid {
		return unsupported
	}
	f.Kind, f.named = k, n
	return nil
}

// checkOpaque checks that an Opaque field of a named type can be passed to
// the driver, or scanned from it for result fields.
func (f *field) checkOpaque(result bool) error {
	n := f.named
	if f.Kind != typeinfo.Opaque || n == nil {
		return nil
	}
	typ := n.String()
	if f.Pointer {
		typ = "*" + typ
	}
	if result && !n.scanner {
		return fmt.Errorf("%w %s, it does not implement sql.Scanner", typeinfo.ErrUnsupportedType, typ)
	}
	if !result && !(n.valuer || (f.Pointer && n.ptrValuer)) {
		return fmt.Errorf("%w %s, it does not implement driver.Valuer", typeinfo.ErrUnsupportedType, typ)
	}
	return nil
}

// baseKind returns the kind of the non-pointer type e, and the named type
// it resolves to when that type has methods or comes from another package.
func (p *pkg) baseKind(e ast.Expr, imports map[string]string, depth int) (typeinfo.Kind, *named, error) {
	switch t := e.(type) {
	case *ast.Ident:
		if k, ok := builtinKinds[t.Name]; ok {
			return k, nil, nil
		}
		decl, ok := p.types[t.Name]
		if !ok || depth > 16 {
			return typeinfo.Invalid, nil, nil
		}
		if decl.alias {
			return p.baseKind(decl.expr, decl.imports, depth+1)
		}
		// Named types that know how to talk to a driver are left to the
		// driver.
		n := &named{
			name:      t.Name,
			kind:      typeinfo.Opaque,
			valuer:    p.methods[t.Name]["Value"],
			ptrValuer: p.methods[t.Name]["Value"] || p.methods["*"+t.Name]["Value"],
			scanner:   p.methods[t.Name]["Scan"] || p.methods["*"+t.Name]["Scan"],
		}
		if n.valuer || n.scanner {
			return typeinfo.Opaque, n, nil
		}
		// Only the underlying builtin kinds survive a type definition.
		if under, ok := decl.expr.(*ast.Ident); ok {
			if k, ok := builtinKinds[under.Name]; ok {
				return k, nil, nil
			}
			return p.baseKind(under, decl.imports, depth+1)
		}
		return typeinfo.Invalid, nil, nil
	case *ast.SelectorExpr:
		x, ok := t.X.(*ast.Ident)
		if !ok {
			return typeinfo.Invalid, nil, nil
		}
		path, ok := imports[x.Name]
		if !ok {
			return typeinfo.Invalid, nil, nil
		}
		if k, ok := importedKinds[path+"."+t.Sel.Name]; ok {
			return k, nil, nil
		}
		n, err := p.importedType(path, x.Name, t.Sel.Name)
		if err != nil {
			return typeinfo.Invalid, nil, err
		}
		return n.kind, n, nil
	case *ast.ParenExpr:
		return p.baseKind(t.X, imports, depth)
	}
	return typeinfo.Invalid, nil, nil
}

// importedType type-checks the package at path from source and describes
// its type called name.
func (p *pkg) importedType(path, qualifier, name string) (*named, error) {
	if p.importer == nil {
		p.importer = importer.ForCompiler(p.fset, "source", nil).(types.ImporterFrom)
	}
	tp, err := p.importer.ImportFrom(path, p.dir, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot load package %s: %w", path, err)
	}
	tn, ok := tp.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a type", qualifier, name)
	}
	t := tn.Type()
	ptr := types.NewPointer(t)
	n := &named{
		path:      path,
		qualifier: qualifier,
		name:      name,
		valuer:    hasMethod(t, "Value", 0, 2),
		ptrValuer: hasMethod(ptr, "Value", 0, 2),
		scanner:   hasMethod(ptr, "Scan", 1, 1),
	}
	if n.valuer || n.scanner {
		n.kind = typeinfo.Opaque
	} else if basic, ok := t.Underlying().(*types.Basic); ok {
		n.kind = builtinKinds[basic.Name()]
	}
	return n, nil
}

// hasMethod reports whether the method set of t has a method with the given
// name and numbers of parameters and results.
func hasMethod(t types.Type, name string, params, results int) bool {
	sel := types.NewMethodSet(t).Lookup(nil, name)
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	return ok && sig.Params().Len() == params && sig.Results().Len() == results
}
