// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/canonical/sqlnorm/internal/expr"
	"github.com/canonical/sqlnorm/internal/typeinfo"
)

// handler is a handler to generate for a template.
type handler struct {
	TypeName string
	// Pos is the file and line of the template.
	Pos     string
	Raw     string
	SafeSQL string
	Site    string
	Style   expr.Style
	Params  *record
	Result  *record
	Slots   []slot
}

// StyleName returns the name of the sqlnorm constant for the style of h.
func (h *handler) StyleName() string {
	return styleNames[h.Style]
}

var styleNames = map[expr.Style]string{
	expr.Question: "Question",
	expr.Dollar:   "Dollar",
	expr.AtP:      "AtP",
	expr.Colon:    "Colon",
}

// slot is a positional placeholder of a handler statement.
type slot struct {
	Position int
	Field    *field
}

// output is the result of a generator run.
type output struct {
	Path     string
	Source   []byte
	Handlers int
}

// generate returns the handlers file of the package in dir. A nil output is
// returned when the package prepares no templates.
func generate(dir string, cfg *config, log logrus.FieldLogger) (*output, error) {
	outName := cfg.Output
	if outName == "" {
		outName = defaultOutput
	}

	p, err := loadPackage(dir, filepath.Base(outName))
	if err != nil {
		return nil, fmt.Errorf("cannot load package: %w", err)
	}
	if cfg.Package != "" && cfg.Package != p.name {
		return nil, fmt.Errorf("package %s in %s does not match configured package %s", p.name, dir, cfg.Package)
	}
	site := cfg.ImportPath
	if site == "" {
		if p.name == "main" {
			site = "main"
		} else if site, err = importPath(dir); err != nil {
			return nil, err
		}
	}

	templates, errs := p.templates()
	var handlers []*handler
	byKey := map[string]*handler{}
	typeNames := map[string]bool{}
	for i, t := range templates {
		h, err := p.handler(t, site, log)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := strings.Join([]string{h.Site, h.Params.Expr, h.Result.Expr, h.Style.String(), h.Raw}, "\x00")
		if other, ok := byKey[key]; ok {
			log.WithField("template", h.Pos).Debugf("sharing handler %s", other.TypeName)
			continue
		}
		byKey[key] = h
		h.TypeName = typeName(t.varName, i, typeNames)
		if t.pkgLevel {
			log.WithField("template", h.Pos).Warn("template is prepared during package initialization, before generated handlers are registered")
		}
		log.WithFields(logrus.Fields{"template": h.Pos, "handler": h.TypeName}).Debug("generating handler")
		handlers = append(handlers, h)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if len(handlers) == 0 {
		return nil, nil
	}

	imports, err := handlerImports(handlers)
	if err != nil {
		return nil, err
	}
	source, err := render(p.name, imports, handlers)
	if err != nil {
		return nil, err
	}
	return &output{Path: filepath.Join(dir, outName), Source: source, Handlers: len(handlers)}, nil
}

// handler rewrites the statement of t and binds it to its records the way
// Prepare does.
func (p *pkg) handler(t *templateCall, site string, log logrus.FieldLogger) (*handler, error) {
	h := &handler{
		Pos:   fmt.Sprintf("%s:%d", filepath.Base(t.pos.Filename), t.pos.Line),
		Raw:   t.raw,
		Site:  site,
		Style: t.style,
	}
	if t.site != "" {
		h.Site = t.site
	}

	var errs problems
	rewritten, err := expr.Rewrite(t.raw, t.style)
	if err != nil {
		errs = append(errs, &posError{t.pos, err.Error()})
	}
	if h.Params, err = p.record(t, t.params, false); err != nil {
		errs = append(errs, err)
	}
	if h.Result, err = p.record(t, t.result, true); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	h.SafeSQL = rewritten.SQL
	var unknown []string
	for _, name := range rewritten.Discovered {
		if _, ok := h.Params.byName[name]; !ok {
			unknown = append(unknown, ":"+name)
		}
	}
	if len(unknown) > 0 {
		return nil, &posError{t.pos, fmt.Sprintf("type %s has no field for %s", h.Params.Expr, strings.Join(unknown, ", "))}
	}
	used := map[string]bool{}
	for i, name := range rewritten.Slots {
		h.Slots = append(h.Slots, slot{Position: i + 1, Field: h.Params.byName[name]})
		used[name] = true
	}
	for _, f := range h.Params.Fields {
		if !used[f.Name] {
			log.WithFields(logrus.Fields{"template": h.Pos, "field": f.Name}).Warn("parameter field not used by template")
		}
	}
	return h, nil
}

var title = cases.Title(language.Und, cases.NoLower)

// typeName returns an unused name for the handler of the template assigned
// to varName.
func typeName(varName string, index int, used map[string]bool) string {
	base := fmt.Sprintf("normTemplate%d", index)
	if varName != "" {
		base = "norm" + title.String(varName)
	}
	name := base + "Handler"
	for n := 2; used[name]; n++ {
		name = base + strconv.Itoa(n) + "Handler"
	}
	used[name] = true
	return name
}

var fileTemplate = template.Must(template.New("handlers").Funcs(template.FuncMap{
	"quote":  strconv.Quote,
	"bind":   bindCode,
	"decode": decodeCode,
}).Parse(`// Code generated by sqlnormgen. DO NOT EDIT.

package {{.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	{{.}}
{{- end}}
)
{{else}}
import "github.com/canonical/sqlnorm"
{{end}}
{{- range .Handlers}}
// {{.TypeName}} handles the template at {{.Pos}}.
type {{.TypeName}} struct{}

func ({{.TypeName}}) SafeSQL() string {
	return {{quote .SafeSQL}}
}

func ({{.TypeName}}) Bind(p *{{.Params.Expr}}, b *sqlnorm.Binds) error {
{{- range .Slots}}
	{{bind .}}
{{- end}}
	return nil
}

func ({{.TypeName}}) Decode(c *sqlnorm.Cursor, r *{{.Result.Expr}}) error {
{{- $result := .Result}}
{{- range .Result.Fields}}
	{{decode $result.Expr .}}
{{- end}}
	return nil
}
{{end}}
func init() {
{{- range .Handlers}}
	sqlnorm.Register[{{.Params.Expr}}, {{.Result.Expr}}](sqlnorm.HandlerKey[{{.Params.Expr}}, {{.Result.Expr}}]({{quote .Site}}, sqlnorm.{{.StyleName}}, {{quote .Raw}}), {{.TypeName}}{})
{{- end}}
}
`))

// handlerImports returns the import lines of the handlers file, sorted by path.
// Only conversions to types of other packages need more than sqlnorm, so
// nil is returned when sqlnorm is the only import.
func handlerImports(handlers []*handler) ([]string, error) {
	paths := map[string]string{"sqlnorm": normPath}
	for _, h := range handlers {
		for _, f := range h.Result.Fields {
			n := f.named
			if n == nil || n.path == "" || n.kind == typeinfo.Opaque {
				continue
			}
			if other, ok := paths[n.qualifier]; ok && other != n.path {
				return nil, fmt.Errorf("cannot import %s as %s in the generated file, the name is taken by %s", n.path, n.qualifier, other)
			}
			paths[n.qualifier] = n.path
		}
	}
	if len(paths) == 1 {
		return nil, nil
	}
	var lines []string
	for name, path := range paths {
		line := strconv.Quote(path)
		if name != path[strings.LastIndex(path, "/")+1:] {
			line = name + " " + line
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return importPathOf(lines[i]) < importPathOf(lines[j])
	})
	return lines, nil
}

func importPathOf(line string) string {
	return line[strings.Index(line, `"`):]
}

// render writes the handlers file and formats it.
func render(pkgName string, imports []string, handlers []*handler) ([]byte, error) {
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].TypeName < handlers[j].TypeName
	})
	var buf bytes.Buffer
	err := fileTemplate.Execute(&buf, struct {
		Package  string
		Imports  []string
		Handlers []*handler
	}{pkgName, imports, handlers})
	if err != nil {
		return nil, err
	}
	source, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cannot format generated code: %w", err)
	}
	return source, nil
}

// scalars holds the Binds and Cursor method suffix of each kind with a
// dedicated setter, and the Go type the methods use when it is builtin.
var scalars = map[typeinfo.Kind]struct{ method, goType string }{
	typeinfo.Integer:   {"Int32", "int32"},
	typeinfo.Long:      {"Int64", "int64"},
	typeinfo.Short:     {"Int16", "int16"},
	typeinfo.Float:     {"Float32", "float32"},
	typeinfo.Double:    {"Float64", "float64"},
	typeinfo.String:    {"String", "string"},
	typeinfo.Boolean:   {"Bool", "bool"},
	typeinfo.Decimal:   {"Decimal", ""},
	typeinfo.Date:      {"Date", ""},
	typeinfo.Time:      {"Time", ""},
	typeinfo.Timestamp: {"Timestamp", ""},
}

func convert(goType string, f *field, v string) string {
	if goType == "" || goType == f.Type {
		return v
	}
	return goType + "(" + v + ")"
}

func checkedBind(call string) string {
	return "if err := b." + call + "; err != nil {\nreturn err\n}"
}

// bindCode returns the statements binding the field of s.
func bindCode(s slot) string {
	f := s.Field
	v := "p." + f.GoName
	pos := strconv.Itoa(s.Position)
	setNull := checkedBind("SetNull(" + pos + ")")

	if f.NullDecimal {
		return "if " + v + ".Valid {\n" + checkedBind("SetDecimal("+pos+", "+v+".Decimal)") + "\n} else {\n" + setNull + "\n}"
	}
	switch f.Kind {
	case typeinfo.Locator:
		if f.Pointer {
			return checkedBind("SetURL(" + pos + ", " + v + ")")
		}
		return checkedBind("SetURL(" + pos + ", &" + v + ")")
	case typeinfo.Array:
		return checkedBind("SetArray(" + pos + ", " + strconv.Quote(f.ElemType) + ", " + v + ")")
	case typeinfo.Opaque:
		if f.Pointer || f.Nilable {
			return "if " + v + " == nil {\n" + setNull + "\n} else {\n" + checkedBind("SetObject("+pos+", "+v+")") + "\n}"
		}
		return checkedBind("SetObject(" + pos + ", " + v + ")")
	}

	sc := scalars[f.Kind]
	if f.Pointer {
		set := checkedBind("Set" + sc.method + "(" + pos + ", " + convert(sc.goType, f, "*"+v) + ")")
		return "if " + v + " == nil {\n" + setNull + "\n} else {\n" + set + "\n}"
	}
	return checkedBind("Set" + sc.method + "(" + pos + ", " + convert(sc.goType, f, v) + ")")
}

// decodeCode returns the statements decoding the field f of the result
// record r, of type rec. Every field is set, NULL setting the zero value.
func decodeCode(rec string, f *field) string {
	dst := "r." + f.GoName
	zero := rec + "{}." + f.GoName
	col := strconv.Quote(f.Name)
	get := func(call string, assign string) string {
		return "{\nv, err := c." + call + "\nif err != nil {\nreturn err\n}\n" + assign + "\n}"
	}
	orZero := func(set string) string {
		return "if v != nil {\n" + set + "\n} else {\n" + dst + " = " + zero + "\n}"
	}

	if f.NullDecimal {
		return get("GetNullDecimal("+col+")", orZero(dst+".Decimal, "+dst+".Valid = *v, true"))
	}
	switch f.Kind {
	case typeinfo.Locator:
		if f.Pointer {
			return get("GetURL("+col+")", dst+" = v")
		}
		return get("GetURL("+col+")", orZero(dst+" = *v"))
	case typeinfo.Array:
		return "if err := c.GetArray(" + col + ", " + strconv.Quote(f.ElemType) + ", &" + dst + "); err != nil {\nreturn err\n}"
	case typeinfo.Opaque:
		return "if err := c.ScanObject(" + col + ", &" + dst + "); err != nil {\nreturn err\n}"
	}

	sc := scalars[f.Kind]
	if f.Pointer {
		call := "GetNull" + sc.method + "(" + col + ")"
		if sc.goType == "" || sc.goType == f.Type {
			return get(call, dst+" = v")
		}
		return get(call, "if v != nil {\nx := "+f.Type+"(*v)\n"+dst+" = &x\n} else {\n"+dst+" = nil\n}")
	}
	call := "Get" + sc.method + "(" + col + ")"
	if sc.goType == "" || sc.goType == f.Type {
		return get(call, dst+" = v")
	}
	return get(call, dst+" = "+f.Type+"(v)")
}
