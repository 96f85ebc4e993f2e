// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/canonical/sqlnorm/internal/parse"
)

// Rewritten is a statement whose named placeholders have been replaced by
// positional ones.
type Rewritten struct {
	// SQL is the statement to send to the database.
	SQL string
	// Slots holds the placeholder name bound at each position, in textual
	// order. A name appears once per occurrence.
	Slots []string
	// Discovered holds each distinct placeholder name in the order the tree
	// walk found it.
	Discovered []string
}

// Rewrite parses sql and replaces its named placeholders with positional
// placeholders of the given style. No partial result is returned on error.
func Rewrite(sql string, style Style) (*Rewritten, error) {
	return rewrite(sql, style, newMarkerPrefix())
}

// newMarkerPrefix returns a prefix that will not occur in any statement.
func newMarkerPrefix() string {
	return "norm" + strings.ReplaceAll(uuid.NewString(), "-", "") + "_"
}

func rewrite(sql string, style Style, prefix string) (*Rewritten, error) {
	stmt, err := parse.Parse(sql)
	if err != nil {
		return nil, err
	}

	// names[i] is the original name of the placeholder renamed to marker i.
	var names []string
	var discovered []string
	seen := map[string]bool{}
	err = parse.Walk(stmt, func(p *parse.Param) error {
		if !seen[p.Name] {
			seen[p.Name] = true
			discovered = append(discovered, p.Name)
		}
		names = append(names, p.Name)
		p.Name = markerName(prefix, len(names)-1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Rewritten{Discovered: discovered}
	out.SQL, out.Slots = substitute(stmt.String(), ":"+prefix, names, style)
	return out, nil
}

func markerName(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// substitute replaces the markers in text with positional placeholders,
// returning the new text and the original name bound at each position.
func substitute(text string, marker string, names []string, style Style) (string, []string) {
	var b strings.Builder
	slots := make([]string, 0, len(names))
	for {
		i := strings.Index(text, marker)
		if i < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:i])
		text = text[i+len(marker):]
		// A placeholder name is never directly followed by a digit, so all
		// the digits after the prefix belong to the marker.
		j := 0
		for j < len(text) && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		n, err := strconv.Atoi(text[:j])
		if err != nil || n >= len(names) {
			// Not one of ours, leave it untouched.
			b.WriteString(marker)
			continue
		}
		text = text[j:]
		slots = append(slots, names[n])
		b.WriteString(style.Placeholder(len(slots)))
	}
	return b.String(), slots
}
