// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/canonical/sqlnorm/internal/expr"
	"github.com/canonical/sqlnorm/internal/typeinfo"
)

const defaultPlanCacheSize = 512

// planKey identifies a plan. The fingerprint is the hash of the template
// text; the text itself is compared on lookup.
type planKey struct {
	params, result reflect.Type
	style          Style
	fingerprint    uint64
}

type planEntry struct {
	raw  string
	plan *plan
}

// plans caches the plans of successfully prepared templates.
var plans = mustNewPlanCache(defaultPlanCacheSize)

func mustNewPlanCache(size int) *lru.Cache[planKey, planEntry] {
	c, err := lru.New[planKey, planEntry](size)
	if err != nil {
		panic(err)
	}
	return c
}

// SetPlanCacheSize sets the number of plans kept for reuse by templates
// prepared later.
func SetPlanCacheSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid plan cache size %d", size)
	}
	plans.Resize(size)
	return nil
}

var noResultType = reflect.TypeOf(NoResult{})

// cachedPlan returns the plan for the template text and record types,
// building it when it is not cached.
func cachedPlan(raw string, style Style, pt, rt reflect.Type) (*plan, error) {
	key := planKey{params: pt, result: rt, style: style, fingerprint: xxhash.Sum64String(raw)}
	if e, ok := plans.Get(key); ok && e.raw == raw {
		return e.plan, nil
	}
	p, err := buildPlan(raw, style, pt, rt)
	if err != nil {
		return nil, err
	}
	plans.Add(key, planEntry{raw: raw, plan: p})
	return p, nil
}

// buildPlan rewrites the template and binds its placeholders to the fields
// of the parameter record. Every problem found is reported in the returned
// PrepareError.
func buildPlan(raw string, style Style, pt, rt reflect.Type) (*plan, error) {
	var diags Diagnostics
	rw, err := expr.Rewrite(raw, style)
	if err != nil {
		diags.add(Error, CodeSyntax, err.Error())
		return nil, &PrepareError{SQL: raw, Diagnostics: diags}
	}

	p := &plan{sql: rw.SQL}
	p.params = recordInfo(&diags, pt, typeinfo.ValidateParams)
	if rt != noResultType {
		p.result = recordInfo(&diags, rt, typeinfo.ValidateResult)
	}

	if p.params != nil {
		var unknown []string
		for _, name := range rw.Discovered {
			if _, ok := p.params.Field(name); !ok {
				unknown = append(unknown, ":"+name)
			}
		}
		if len(unknown) > 0 {
			diags.add(Error, CodeUnknownParameter, fmt.Sprintf("type %s has no field for %s", pt, strings.Join(unknown, ", ")))
		}

		used := make(map[string]bool, len(rw.Slots))
		for _, name := range rw.Slots {
			used[name] = true
		}
		for _, f := range p.params.Fields {
			if !used[f.Name] {
				p.unused = append(p.unused, f.Name)
				diags.add(Warning, CodeUnusedParameter, fmt.Sprintf("field %s.%s is not used by the statement", pt.Name(), f.GoName))
			}
		}
	}

	if diags.HasErrors() {
		return nil, &PrepareError{SQL: raw, Diagnostics: diags}
	}

	p.slots = make([]*typeinfo.Field, len(rw.Slots))
	for i, name := range rw.Slots {
		p.slots[i], _ = p.params.Field(name)
	}
	p.diags = diags
	return p, nil
}

// recordInfo reflects a record type and validates it, adding a diagnostic for
// every problem found.
func recordInfo(diags *Diagnostics, t reflect.Type, validate func(*typeinfo.Info) []error) *typeinfo.Info {
	info, err := typeinfo.GetRecordInfo(t)
	if err != nil {
		addTypeErrors(diags, splitErrors(err))
		return nil
	}
	if errs := validate(info); len(errs) > 0 {
		addTypeErrors(diags, errs)
		return nil
	}
	return info
}

func addTypeErrors(diags *Diagnostics, errs []error) {
	for _, err := range errs {
		code := CodeInvalidRecord
		switch {
		case errors.Is(err, ErrMissingElementType):
			code = CodeMissingElementType
		case errors.Is(err, ErrUnsupportedType):
			code = CodeUnsupportedType
		}
		diags.add(Error, code, err.Error())
	}
}

func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
