// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
)

// ValidateParams checks that every field of a parameter record can be bound
// to a statement. It returns one error per field that cannot.
func ValidateParams(info *Info) []error {
	var errs []error
	for _, f := range info.Fields {
		if f.Kind == Opaque && !CanBind(f.Type) {
			errs = append(errs, fmt.Errorf("field %s.%s: %w %s, it does not implement driver.Valuer", info.Type.Name(), f.GoName, ErrUnsupportedType, f.Type))
		}
	}
	return errs
}

// ValidateResult checks that every field of a result record can be decoded
// from a column. It returns one error per field that cannot.
func ValidateResult(info *Info) []error {
	var errs []error
	for _, f := range info.Fields {
		if f.Kind == Opaque && !CanScan(f.Type) {
			errs = append(errs, fmt.Errorf("field %s.%s: %w %s, it does not implement sql.Scanner", info.Type.Name(), f.GoName, ErrUnsupportedType, f.Type))
		}
	}
	return errs
}
