// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package parse turns a SQL statement containing named placeholders into a
// tree that can be walked, modified and serialized back to SQL.
//
// The parser only understands as much SQL as it needs: literals, quoted
// identifiers and comments are opaque, parentheses nest, and LIMIT clauses
// are split into their row count and offset operands.
package parse

import (
	"errors"
	"fmt"
	"strings"
)

// statementKeywords are the words a statement may start with.
var statementKeywords = map[string]bool{
	"ALTER": true, "ANALYZE": true, "BEGIN": true, "CALL": true,
	"COMMENT": true, "COMMIT": true, "COPY": true, "CREATE": true,
	"DECLARE": true, "DELETE": true, "DO": true, "DROP": true,
	"EXEC": true, "EXECUTE": true, "EXPLAIN": true, "GRANT": true,
	"INSERT": true, "LOCK": true, "MERGE": true, "PRAGMA": true,
	"REPLACE": true, "REVOKE": true, "ROLLBACK": true, "SELECT": true,
	"SET": true, "SHOW": true, "TABLE": true, "TRUNCATE": true,
	"UPDATE": true, "UPSERT": true, "VACUUM": true, "VALUES": true,
	"WITH": true,
}

// limitStopWords end an operand of a LIMIT clause.
var limitStopWords = map[string]bool{
	"EXCEPT": true, "FETCH": true, "FOR": true, "INTERSECT": true,
	"INTO": true, "LOCK": true, "OFFSET": true, "RETURNING": true,
	"UNION": true,
}

type parser struct {
	input string
	toks  []token
	pos   int
}

// Parse parses a single SQL statement. A trailing semicolon is accepted and
// dropped from the tree.
func Parse(input string) (stmt *Statement, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot parse statement: %w", err)
		}
	}()

	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	if err := p.checkStart(); err != nil {
		return nil, err
	}
	nodes, err := p.parseSeq(nil)
	if err != nil {
		return nil, err
	}
	return &Statement{Nodes: nodes}, nil
}

// checkStart ensures the first significant token starts a statement.
func (p *parser) checkStart() error {
	for _, t := range p.toks {
		switch {
		case t.kind == Blank || t.kind == Comment:
			continue
		case t.kind == Punct && t.raw == "(":
			continue
		case t.kind == Punct && t.raw == ";":
			return p.errorAt(t, "empty statement")
		case t.kind == Word && statementKeywords[strings.ToUpper(t.raw)]:
			return nil
		}
		return p.errorAt(t, fmt.Sprintf("expected statement keyword, found %q", t.raw))
	}
	return errors.New("empty statement")
}

// parseSeq parses nodes until the closing parenthesis matching open, or
// until the end of the statement if open is nil.
func (p *parser) parseSeq(open *token) ([]Node, error) {
	var nodes []Node
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		switch {
		case t.kind == Punct && t.raw == "(":
			p.pos++
			inner, err := p.parseSeq(&t)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Group{Nodes: inner})
		case t.kind == Punct && t.raw == ")":
			if open == nil {
				return nil, p.errorAt(t, "unexpected closing parenthesis")
			}
			p.pos++
			return nodes, nil
		case t.kind == Punct && t.raw == ";":
			if open != nil {
				return nil, p.errorAt(*open, "missing closing parenthesis")
			}
			if err := p.terminate(); err != nil {
				return nil, err
			}
			return trimBlanks(nodes), nil
		case t.kind == Word && strings.EqualFold(t.raw, "LIMIT"):
			limit, err := p.parseLimit()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, limit)
		default:
			nodes = append(nodes, leaf(t))
			p.pos++
		}
	}
	if open != nil {
		return nil, p.errorAt(*open, "missing closing parenthesis")
	}
	return nodes, nil
}

// terminate consumes a statement terminator. Only blanks and comments may
// follow it.
func (p *parser) terminate() error {
	for p.pos++; p.pos < len(p.toks); p.pos++ {
		t := p.toks[p.pos]
		if t.kind != Blank && t.kind != Comment {
			return p.errorAt(t, "multiple statements are not supported")
		}
	}
	return nil
}

// parseLimit parses a LIMIT clause starting at the LIMIT keyword. The
// supported forms are "LIMIT n", "LIMIT n OFFSET m" and "LIMIT m, n".
func (p *parser) parseLimit() (*Limit, error) {
	limit := &Limit{Nodes: []Node{leaf(p.toks[p.pos])}}
	p.pos++
	first, stop, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	limit.Nodes = append(limit.Nodes, first...)
	if stop == "" {
		limit.RowCount = first
		return limit, nil
	}

	limit.Nodes = append(limit.Nodes, leaf(p.toks[p.pos]))
	p.pos++
	second, _, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	limit.Nodes = append(limit.Nodes, second...)
	if stop == "," {
		limit.Offset, limit.RowCount = first, second
	} else {
		limit.RowCount, limit.Offset = first, second
	}
	return limit, nil
}

// parseOperand parses a LIMIT operand. It returns "," or "OFFSET" when the
// operand is followed by a second one, leaving that token unconsumed.
func (p *parser) parseOperand() ([]Node, string, error) {
	var nodes []Node
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		switch {
		case t.kind == Punct && t.raw == ",":
			return nodes, ",", nil
		case t.kind == Punct && (t.raw == ")" || t.raw == ";"):
			return nodes, "", nil
		case t.kind == Word && limitStopWords[strings.ToUpper(t.raw)]:
			if strings.EqualFold(t.raw, "OFFSET") {
				return nodes, "OFFSET", nil
			}
			return nodes, "", nil
		case t.kind == Punct && t.raw == "(":
			p.pos++
			inner, err := p.parseSeq(&t)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, &Group{Nodes: inner})
		default:
			nodes = append(nodes, leaf(t))
			p.pos++
		}
	}
	return nodes, "", nil
}

func (p *parser) errorAt(t token, msg string) error {
	return errorAt(errors.New(msg), t.line, t.col, p.input)
}

func leaf(t token) Node {
	if t.kind == paramToken {
		return &Param{Name: t.name, Line: t.line, Column: t.col}
	}
	return &Text{Kind: t.kind, Raw: t.raw}
}

// trimBlanks drops the blanks between the end of a statement and its
// terminator.
func trimBlanks(nodes []Node) []Node {
	for len(nodes) > 0 {
		t, ok := nodes[len(nodes)-1].(*Text)
		if !ok || t.Kind != Blank {
			break
		}
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}
