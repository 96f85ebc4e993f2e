// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Style is the positional placeholder syntax understood by a driver.
type Style int

const (
	// Question writes every placeholder as "?" (SQLite, MySQL).
	Question Style = iota
	// Dollar writes "$1", "$2", ... (PostgreSQL).
	Dollar
	// AtP writes "@p1", "@p2", ... (SQL Server).
	AtP
	// Colon writes ":1", ":2", ... (Oracle).
	Colon
)

var styleNames = map[Style]string{
	Question: "question",
	Dollar:   "dollar",
	AtP:      "atp",
	Colon:    "colon",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return "Style(" + strconv.Itoa(int(s)) + ")"
}

// Placeholder returns the placeholder for the 1-based position n.
func (s Style) Placeholder(n int) string {
	switch s {
	case Dollar:
		return "$" + strconv.Itoa(n)
	case AtP:
		return "@p" + strconv.Itoa(n)
	case Colon:
		return ":" + strconv.Itoa(n)
	}
	return "?"
}

// ParseStyle returns the style with the given name as reported by String.
// The match is case insensitive.
func ParseStyle(name string) (Style, error) {
	for s, n := range styleNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown placeholder style %q", name)
}
