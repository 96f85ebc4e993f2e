// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package parse

import "strings"

// Node is an element of a parsed statement.
type Node interface {
	write(b *strings.Builder)
}

// Statement is the root of a parsed SQL statement.
type Statement struct {
	Nodes []Node
}

// Text is SQL copied verbatim to the output.
type Text struct {
	Kind TokenKind
	Raw  string
}

// Param is a named placeholder. Name can be changed before the statement is
// serialized again.
type Param struct {
	Name   string
	Line   int
	Column int
}

// Group is a parenthesised sequence of nodes.
type Group struct {
	Nodes []Node
}

// Limit is a LIMIT clause. Nodes holds the entire clause in textual order;
// RowCount and Offset share their nodes with it.
type Limit struct {
	Nodes    []Node
	RowCount []Node
	Offset   []Node
}

// String serializes the statement. Everything but placeholders is written
// exactly as it was parsed, placeholders are written as ":" + Name.
func (s *Statement) String() string {
	var b strings.Builder
	writeNodes(&b, s.Nodes)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		n.write(b)
	}
}

func (t *Text) write(b *strings.Builder) {
	b.WriteString(t.Raw)
}

func (p *Param) write(b *strings.Builder) {
	b.WriteByte(':')
	b.WriteString(p.Name)
}

func (g *Group) write(b *strings.Builder) {
	b.WriteByte('(')
	writeNodes(b, g.Nodes)
	b.WriteByte(')')
}

func (l *Limit) write(b *strings.Builder) {
	writeNodes(b, l.Nodes)
}

// Walk calls fn for every placeholder in stmt. Placeholders are visited in
// tree order, except that within a LIMIT clause the offset operand is visited
// before the row count. Walk stops at the first error returned by fn.
func Walk(stmt *Statement, fn func(*Param) error) error {
	return walkNodes(stmt.Nodes, fn)
}

func walkNodes(nodes []Node, fn func(*Param) error) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case *Param:
			err = fn(n)
		case *Group:
			err = walkNodes(n.Nodes, fn)
		case *Limit:
			if err = walkNodes(n.Offset, fn); err == nil {
				err = walkNodes(n.RowCount, fn)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
