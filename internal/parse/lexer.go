// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies the verbatim text kept in a Text node.
type TokenKind int

const (
	Blank TokenKind = iota
	Comment
	Word
	QuotedIdent
	StringLiteral
	Number
	Operator
	Punct

	// paramToken never reaches the tree, placeholders become Param nodes.
	paramToken
)

var kindNames = [...]string{
	Blank:         "blank",
	Comment:       "comment",
	Word:          "word",
	QuotedIdent:   "quoted identifier",
	StringLiteral: "string literal",
	Number:        "number",
	Operator:      "operator",
	Punct:         "punctuation",
	paramToken:    "placeholder",
}

func (k TokenKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

type token struct {
	kind TokenKind
	raw  string
	// name is the placeholder name of a paramToken, without the colon.
	name string
	line int
	col  int
}

// lexer splits a statement into tokens. Every byte of the input belongs to
// exactly one token so that the tokens concatenate back to the input.
type lexer struct {
	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char rune
	// lineNum is the number of the current line of the input.
	lineNum int
	// lineStart is the position of the first char of the current line in the
	// input.
	lineStart int
}

func lex(input string) ([]token, error) {
	l := &lexer{input: input, lineNum: 1}
	l.advanceChar()
	var toks []token
	for !l.done() {
		line, col, start := l.lineNum, l.colNum(), l.pos
		kind, name, err := l.scan()
		if err != nil {
			return nil, errorAt(err, line, col, input)
		}
		toks = append(toks, token{
			kind: kind,
			raw:  input[start:l.pos],
			name: name,
			line: line,
			col:  col,
		})
	}
	return toks, nil
}

func (l *lexer) done() bool {
	return l.pos >= len(l.input)
}

// colNum calculates the current column number taking into account line breaks.
func (l *lexer) colNum() int {
	return l.pos - l.lineStart + 1
}

// advanceChar moves the lexer to the next character in the input, updating
// the line number when it steps over a line break.
func (l *lexer) advanceChar() bool {
	if l.nextPos >= len(l.input) {
		l.char = 0
		l.pos = l.nextPos
		return false
	}
	if l.char == '\n' {
		l.lineStart = l.nextPos
		l.lineNum++
	}
	var size int
	l.char, size = utf8.DecodeRuneInString(l.input[l.nextPos:])
	l.pos = l.nextPos
	l.nextPos += size
	return true
}

// peekNext reports whether the char after the current one is c.
func (l *lexer) peekNext(c rune) bool {
	if l.nextPos >= len(l.input) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.nextPos:])
	return r == c
}

// scan consumes one token starting at the current char.
func (l *lexer) scan() (TokenKind, string, error) {
	c := l.char
	switch {
	case isBlank(c):
		for !l.done() && isBlank(l.char) {
			l.advanceChar()
		}
		return Blank, "", nil
	case c == '-' && l.peekNext('-'):
		// The newline is not part of the comment.
		for !l.done() && l.char != '\n' {
			l.advanceChar()
		}
		return Comment, "", nil
	case c == '/' && l.peekNext('*'):
		return Comment, "", l.skipBlockComment()
	case c == '\'':
		return StringLiteral, "", l.skipQuoted('\'', "missing closing quote in string literal")
	case (c == 'E' || c == 'e') && l.peekNext('\''):
		l.advanceChar()
		return StringLiteral, "", l.skipEscapedString()
	case c == '"':
		return QuotedIdent, "", l.skipQuoted('"', "missing closing quote in quoted identifier")
	case c == '`':
		return QuotedIdent, "", l.skipQuoted('`', "missing closing backtick in quoted identifier")
	case c == '[' && l.startsIdentifier():
		return QuotedIdent, "", l.skipQuoted(']', "missing closing bracket in quoted identifier")
	case c == '$':
		if ok, err := l.skipDollarQuoted(); ok || err != nil {
			return StringLiteral, "", err
		}
		l.advanceChar()
		if isDigit(l.char) {
			return 0, "", errors.New(`positional placeholder "$" not allowed, use named placeholders`)
		}
		return Operator, "", nil
	case c == '?':
		return 0, "", errors.New(`positional placeholder "?" not allowed, use named placeholders`)
	case c == ':':
		return l.scanColon()
	case isDigit(c) || (c == '.' && l.nextPos < len(l.input) && isDigit(rune(l.input[l.nextPos]))):
		l.skipNumber()
		return Number, "", nil
	case isNameChar(c):
		for !l.done() && (isNameChar(l.char) || l.char == '$') {
			l.advanceChar()
		}
		return Word, "", nil
	case c == '(' || c == ')' || c == ',' || c == ';':
		l.advanceChar()
		return Punct, "", nil
	}
	l.advanceChar()
	return Operator, "", nil
}

// scanColon consumes a placeholder, a cast operator or a lone colon.
func (l *lexer) scanColon() (TokenKind, string, error) {
	l.advanceChar()
	if l.char == ':' {
		for !l.done() && l.char == ':' {
			l.advanceChar()
		}
		return Operator, "", nil
	}
	if l.done() || !isASCIILetter(l.char) {
		return Operator, "", nil
	}
	start := l.pos
	for !l.done() && (isASCIILetter(l.char) || isDigit(l.char)) {
		l.advanceChar()
	}
	name := l.input[start:l.pos]
	if !l.done() && isNameChar(l.char) {
		return 0, "", fmt.Errorf("invalid placeholder name %q, only letters and digits are allowed", ":"+name+string(l.char))
	}
	return paramToken, name, nil
}

// skipQuoted jumps over a quoted section that starts at the current char and
// ends with closer. A doubled closer is an escaped one.
func (l *lexer) skipQuoted(closer rune, missing string) error {
	l.advanceChar()
	for !l.done() {
		if l.char == closer {
			l.advanceChar()
			if !l.done() && l.char == closer {
				l.advanceChar()
				continue
			}
			return nil
		}
		l.advanceChar()
	}
	return errors.New(missing)
}

// skipEscapedString jumps over a Postgres E'...' literal, where backslash
// escapes the following char.
func (l *lexer) skipEscapedString() error {
	l.advanceChar()
	for !l.done() {
		switch l.char {
		case '\\':
			l.advanceChar()
		case '\'':
			l.advanceChar()
			if !l.done() && l.char == '\'' {
				l.advanceChar()
				continue
			}
			return nil
		}
		l.advanceChar()
	}
	return errors.New("missing closing quote in string literal")
}

func (l *lexer) skipBlockComment() error {
	l.advanceChar()
	l.advanceChar()
	for !l.done() {
		if l.char == '*' && l.peekNext('/') {
			l.advanceChar()
			l.advanceChar()
			return nil
		}
		l.advanceChar()
	}
	return errors.New("missing end of block comment")
}

// skipDollarQuoted jumps over a $tag$...$tag$ string. It returns false and
// leaves the lexer unchanged if the current char does not open one.
func (l *lexer) skipDollarQuoted() (bool, error) {
	rest := l.input[l.pos+1:]
	n := 0
	for n < len(rest) && (isASCIILetter(rune(rest[n])) || rest[n] == '_' || (n > 0 && isDigit(rune(rest[n])))) {
		n++
	}
	if n >= len(rest) || rest[n] != '$' {
		return false, nil
	}
	delim := l.input[l.pos : l.pos+n+2]
	body := l.pos + len(delim)
	end := strings.Index(l.input[body:], delim)
	if end < 0 {
		return true, fmt.Errorf("missing closing %s in dollar-quoted string", delim)
	}
	stop := body + end + len(delim)
	for l.pos < stop {
		l.advanceChar()
	}
	return true, nil
}

func (l *lexer) skipNumber() {
	for !l.done() && (isNameChar(l.char) || l.char == '.') {
		prev := l.char
		l.advanceChar()
		if (prev == 'e' || prev == 'E') && (l.char == '+' || l.char == '-') {
			l.advanceChar()
		}
	}
}

// startsIdentifier reports whether a '[' at the current position opens a
// bracketed identifier rather than an array subscript.
func (l *lexer) startsIdentifier() bool {
	if l.pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(l.input[:l.pos])
	return !(isNameChar(r) || r == ')' || r == ']' || r == '"')
}

// errorAt wraps an error with line and column information.
func errorAt(err error, line int, column int, input string) error {
	if strings.ContainsRune(input, '\n') {
		return fmt.Errorf("line %d, column %d: %w", line, column, err)
	}
	return fmt.Errorf("column %d: %w", column, err)
}

func isBlank(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isASCIILetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c rune) bool {
	return c == '_' || isASCIILetter(c) || isDigit(c) || (c > unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)))
}
