// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"strings"
)

// Severity tells whether a diagnostic prevents a template from being used.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Code identifies the kind of problem a diagnostic reports.
type Code string

const (
	CodeSyntax             Code = "syntax"
	CodeUnknownParameter   Code = "unknown-parameter"
	CodeUnusedParameter    Code = "unused-parameter"
	CodeMissingElementType Code = "missing-element-type"
	CodeUnsupportedType    Code = "unsupported-type"
	CodeInvalidRecord      Code = "invalid-record"
	CodeGenerationRequired Code = "generation-required"
	CodeHandlerMismatch    Code = "handler-mismatch"
)

// codeErrors maps the codes of fatal diagnostics to the sentinel errors that
// a PrepareError matches.
var codeErrors = map[Code]error{
	CodeSyntax:             ErrSyntax,
	CodeUnknownParameter:   ErrUnknownParameter,
	CodeMissingElementType: ErrMissingElementType,
	CodeUnsupportedType:    ErrUnsupportedType,
	CodeInvalidRecord:      ErrInvalidRecord,
	CodeGenerationRequired: ErrGenerationRequired,
	CodeHandlerMismatch:    ErrHandlerMismatch,
}

// Diagnostic is a problem found while preparing a template.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
}

func (d Diagnostic) String() string {
	return d.Severity.String() + " " + string(d.Code) + ": " + d.Message
}

// Diagnostics is the list of problems found while preparing a template.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has Error severity.
func (ds Diagnostics) HasErrors() bool {
	return len(ds.Errors()) > 0
}

// Errors returns the diagnostics with Error severity.
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(Error)
}

// Warnings returns the diagnostics with Warning severity.
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(Warning)
}

func (ds Diagnostics) filter(s Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) String() string {
	msgs := make([]string, len(ds))
	for i, d := range ds {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "; ")
}

func (ds *Diagnostics) add(s Severity, code Code, msg string) {
	*ds = append(*ds, Diagnostic{Severity: s, Code: code, Message: msg})
}
