// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql"
	"database/sql/driver"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/canonical/sqlnorm/internal/pgarray"
)

// Kind is the semantic type of a record field. It decides which binder and
// decoder operations are used for the field.
type Kind int

const (
	Invalid Kind = iota
	Integer
	Long
	Short
	Float
	Double
	Decimal
	String
	Boolean
	Date
	Time
	Timestamp
	Locator
	Array
	// Opaque fields are handed to the driver, or scanned from it, as they
	// are.
	Opaque
)

var kindNames = [...]string{
	Invalid:   "invalid",
	Integer:   "integer",
	Long:      "long",
	Short:     "short",
	Float:     "float",
	Double:    "double",
	Decimal:   "decimal",
	String:    "string",
	Boolean:   "boolean",
	Date:      "date",
	Time:      "time",
	Timestamp: "timestamp",
	Locator:   "locator",
	Array:     "array",
	Opaque:    "opaque",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
	dateType        = reflect.TypeOf(civil.Date{})
	timeOfDayType   = reflect.TypeOf(civil.Time{})
	timestampType   = reflect.TypeOf(time.Time{})
	urlType         = reflect.TypeOf(url.URL{})
	bytesType       = reflect.TypeOf([]byte(nil))
	valuerType      = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	scannerType     = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// KindOf returns the kind of values of type t and whether they can hold
// NULL. Invalid is returned for types outside the supported set.
func KindOf(t reflect.Type) (kind Kind, nullable bool) {
	switch t {
	case nullDecimalType:
		return Decimal, true
	case bytesType:
		return Opaque, true
	}
	switch t.Kind() {
	case reflect.Pointer:
		k := baseKind(t.Elem())
		return k, k != Invalid
	case reflect.Slice:
		if pgarray.CheckElem(t.Elem()) != nil {
			return Invalid, false
		}
		return Array, true
	case reflect.Interface:
		if t.NumMethod() == 0 || t.Implements(valuerType) || t.Implements(scannerType) {
			return Opaque, true
		}
		return Invalid, false
	}
	return baseKind(t), false
}

// baseKind returns the kind of a non-pointer type.
func baseKind(t reflect.Type) Kind {
	switch t {
	case decimalType:
		return Decimal
	case dateType:
		return Date
	case timeOfDayType:
		return Time
	case timestampType:
		return Timestamp
	case urlType:
		return Locator
	}
	// Named types that know how to talk to a driver are left to the driver.
	if t.PkgPath() != "" && (t.Implements(valuerType) || reflect.PointerTo(t).Implements(scannerType)) {
		return Opaque
	}
	switch t.Kind() {
	case reflect.Int32:
		return Integer
	case reflect.Int64, reflect.Int:
		return Long
	case reflect.Int16:
		return Short
	case reflect.Float32:
		return Float
	case reflect.Float64:
		return Double
	case reflect.String:
		return String
	case reflect.Bool:
		return Boolean
	}
	return Invalid
}

// CanBind reports whether values of an Opaque type t can be passed to a
// driver.
func CanBind(t reflect.Type) bool {
	return t == bytesType || t.Kind() == reflect.Interface || t.Implements(valuerType)
}

// CanScan reports whether values of an Opaque type t can be scanned from a
// driver.
func CanScan(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		return t.Implements(scannerType) || CanScan(t.Elem())
	}
	return t == bytesType || (t.Kind() == reflect.Interface && t.NumMethod() == 0) || reflect.PointerTo(t).Implements(scannerType)
}
