// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/sqlnorm/internal/typeinfo"
)

var (
	// ErrSyntax is matched by a PrepareError when the statement cannot be
	// parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownParameter is matched by a PrepareError when the statement
	// references a placeholder that is not a field of the parameter record.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrMissingElementType is matched when a slice field has no valid
	// sqltype tag.
	ErrMissingElementType = typeinfo.ErrMissingElementType
	// ErrUnsupportedType is matched when a field or a bound value has no
	// semantic type.
	ErrUnsupportedType = typeinfo.ErrUnsupportedType
	// ErrInvalidRecord is matched when a record type cannot be reflected.
	ErrInvalidRecord = typeinfo.ErrInvalidRecord
	// ErrGenerationRequired is matched when RequireGenerated was given and
	// no generated handler is registered for the template.
	ErrGenerationRequired = errors.New("generated handler required")
	// ErrHandlerMismatch is matched when the handler registered for a
	// template has different record types.
	ErrHandlerMismatch = errors.New("registered handler has different record types")

	ErrRowsClosed   = errors.New("rows closed")
	ErrRowsConsumed = errors.New("rows already consumed")

	ErrNoRows = sql.ErrNoRows
)

// PrepareError is returned by Prepare when a template has fatal problems. It
// matches, with errors.Is, the sentinel error of every fatal diagnostic.
type PrepareError struct {
	SQL         string
	Diagnostics Diagnostics
}

func (e *PrepareError) Error() string {
	errs := e.Diagnostics.Errors()
	msgs := make([]string, len(errs))
	for i, d := range errs {
		msgs[i] = d.Message
	}
	return "cannot prepare statement: " + strings.Join(msgs, "; ")
}

func (e *PrepareError) Is(target error) bool {
	for _, d := range e.Diagnostics.Errors() {
		if codeErrors[d.Code] == target {
			return true
		}
	}
	return false
}

// ExecError is returned when running a template fails. Op is one of "bind",
// "prepare", "execute", "iterate", "decode" or "close".
type ExecError struct {
	Op  string
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("cannot %s statement %q: %v", e.Op, e.SQL, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
