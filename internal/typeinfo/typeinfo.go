// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/canonical/sqlnorm/internal/pgarray"
)

var (
	// ErrInvalidRecord is returned for record types that cannot be
	// reflected, for example because of a malformed tag.
	ErrInvalidRecord = errors.New("invalid record type")
	// ErrUnsupportedType is returned for fields whose type has no semantic
	// kind.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrMissingElementType is returned for array fields without a valid
	// element type tag.
	ErrMissingElementType = errors.New("missing element type")
)

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// GetRecordInfo returns the Info of the struct type t, generating and caching
// it as required. When t has several problems the returned error joins one
// error per problem.
func GetRecordInfo(t reflect.Type) (*Info, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: cannot reflect nil type", ErrInvalidRecord)
	}

	cacheMutex.RLock()
	info, found := cache[t]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(t)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[t] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces reflection information for the struct type t.
func generate(t reflect.Type) (*Info, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: can only reflect struct type, got %s", ErrInvalidRecord, t)
	}

	info := &Info{
		Type:   t,
		byName: make(map[string]*Field),
	}
	typeName := t.Name()
	if typeName == "" {
		typeName = t.String()
	}

	var errs []error
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, ok, err := ColumnName(sf.Name, sf.Tag)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s.%s: %w: %s", typeName, sf.Name, ErrInvalidRecord, err))
			continue
		}
		if !ok {
			continue
		}
		if other, dup := info.byName[name]; dup {
			errs = append(errs, fmt.Errorf("field %s.%s: %w: name %q already used by field %s", typeName, sf.Name, ErrInvalidRecord, name, other.GoName))
			continue
		}

		f := &Field{
			Type:   sf.Type,
			Name:   name,
			GoName: sf.Name,
			Index:  i,
		}
		f.Kind, f.Nullable = KindOf(sf.Type)
		switch f.Kind {
		case Invalid:
			errs = append(errs, fmt.Errorf("field %s.%s: %w %s", typeName, sf.Name, ErrUnsupportedType, sf.Type))
			continue
		case Array:
			tag, ok := sf.Tag.Lookup("sqltype")
			if !ok || tag == "" {
				errs = append(errs, fmt.Errorf("field %s.%s: %w, add a sqltype tag", typeName, sf.Name, ErrMissingElementType))
				continue
			}
			elemType, err := pgarray.Normalize(tag)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s.%s: %w: %s", typeName, sf.Name, ErrMissingElementType, err))
				continue
			}
			f.ElemType = elemType
		}
		info.Fields = append(info.Fields, f)
		info.byName[name] = f
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return info, nil
}

// This expression should be aligned with the characters accepted in column
// names by the parser.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// ColumnName returns the placeholder and column name of the struct field
// goName with the given tag. It is the name given in the "db" tag or, without
// a tag, the field name with its first letter lowered. ok is false for fields
// tagged with "-".
func ColumnName(goName string, structTag reflect.StructTag) (name string, ok bool, err error) {
	tag, tagged := structTag.Lookup("db")
	if !tagged {
		return lowerFirst(goName), true, nil
	}
	if tag == "-" {
		return "", false, nil
	}
	if strings.Contains(tag, ",") {
		return "", false, fmt.Errorf("unexpected options in 'db' tag %q", tag)
	}
	if tag == "" {
		return "", false, fmt.Errorf("empty db tag")
	}
	if !validColNameRx.MatchString(tag) {
		return "", false, fmt.Errorf("invalid column name %q in 'db' tag", tag)
	}
	return tag, true, nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
