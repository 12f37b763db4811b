// SPDX-License-Identifier: MPL-2.0

package logic

import (
	"errors"
	"fmt"
)

// ErrParse is the sentinel error wrapped by ParseError.
var ErrParse = errors.New("parse error")

// ParseError is a position-tagged syntax error. The position points at the
// first byte that could not be consumed.
type ParseError struct {
	Position Position
	Msg      string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Position.Line, e.Position.Column, e.Msg)
}

// Unwrap returns ErrParse so callers can use errors.Is for detection.
func (e *ParseError) Unwrap() error { return ErrParse }

// Parse turns program source text into a Program. Clauses keep source
// order. The returned error, if any, is a *ParseError.
func Parse(src string) (*Program, error) {
	p := &parser{src: src, line: 1, col: 1}
	prog := &Program{}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		prog.Clauses = append(prog.Clauses, clause)
	}
	return prog, nil
}

// ParseQuery parses a single query literal such as `app` or `app("prod", X)`.
// A trailing period is accepted. The whole input must be consumed.
func ParseQuery(src string) (Literal, error) {
	p := &parser{src: src, line: 1, col: 1}
	p.skipSpace()
	lit, err := p.parseLiteral()
	if err != nil {
		return Literal{}, err
	}
	p.skipSpace()
	if p.peek() == '.' {
		p.advance()
		p.skipSpace()
	}
	if !p.eof() {
		return Literal{}, p.errHere("unexpected input after query")
	}
	return lit, nil
}

// parser is a hand-rolled scanner with 1-token lookahead over raw bytes.
// The grammar is simple enough that no separate lexer pays its way.
type parser struct {
	src  string
	off  int
	line int
	col  int

	anon int // counter for fresh anonymous-variable names
}

func (p *parser) pos() Position {
	return Position{Line: p.line, Column: p.col, Offset: p.off}
}

func (p *parser) eof() bool { return p.off >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.off]
}

func (p *parser) peekAt(n int) byte {
	if p.off+n >= len(p.src) {
		return 0
	}
	return p.src[p.off+n]
}

func (p *parser) advance() byte {
	c := p.src[p.off]
	p.off++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) errHere(format string, args ...any) *ParseError {
	return &ParseError{Position: p.pos(), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) errAt(pos Position, format string, args ...any) *ParseError {
	return &ParseError{Position: pos, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace consumes whitespace and `#` line comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.advance()
		case c == '#':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func (p *parser) parseIdent() (string, Position, error) {
	start := p.pos()
	if p.eof() || !isIdentStart(p.peek()) {
		return "", start, p.errHere("expected identifier")
	}
	for !p.eof() && isIdentPart(p.peek()) {
		p.advance()
	}
	return p.src[start.Offset:p.off], start, nil
}

// parseStringBody consumes a double-quoted string literal. Backslash escape
// pairs are kept verbatim in the returned value: the parser only uses the
// backslash to skip the next byte, so `\"` does not terminate the literal
// and `\n` stays as two characters for the eventual shell command to
// interpret.
func (p *parser) parseStringBody() (string, Position, error) {
	start := p.pos()
	if p.peek() != '"' {
		return "", start, p.errHere("expected string literal")
	}
	p.advance()
	from := p.off
	for {
		if p.eof() {
			return "", start, p.errAt(start, "unterminated string literal")
		}
		c := p.advance()
		if c == '"' {
			return p.src[from : p.off-1], start, nil
		}
		if c == '\\' {
			if p.eof() {
				return "", start, p.errAt(start, "unterminated string literal")
			}
			p.advance()
		}
	}
}

// parseTerm parses one argument: a string constant or a variable name.
// A bare `_` becomes a fresh anonymous variable.
func (p *parser) parseTerm() (Term, error) {
	p.skipSpace()
	if p.peek() == '"' {
		val, pos, err := p.parseStringBody()
		if err != nil {
			return Term{}, err
		}
		return Term{Kind: TermConstant, Value: val, Pos: pos}, nil
	}
	name, pos, err := p.parseIdent()
	if err != nil {
		return Term{}, p.errHere("expected string literal or variable")
	}
	if name == "_" {
		p.anon++
		name = fmt.Sprintf("_anon%d", p.anon)
	}
	return Term{Kind: TermVariable, Value: name, Pos: pos}, nil
}

// parseLiteral parses NAME or NAME(arg, ...).
func (p *parser) parseLiteral() (Literal, error) {
	name, pos, err := p.parseIdent()
	if err != nil {
		return Literal{}, err
	}
	lit := Literal{Predicate: name, Pos: pos}
	p.skipSpace()
	if p.peek() != '(' {
		return lit, nil
	}
	p.advance()
	for {
		arg, err := p.parseTerm()
		if err != nil {
			return Literal{}, err
		}
		lit.Args = append(lit.Args, arg)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.advance()
		case ')':
			p.advance()
			return lit, nil
		default:
			return Literal{}, p.errHere("expected ',' or ')' in argument list")
		}
	}
}

// parseClause parses `head.` or `head :- body.`.
func (p *parser) parseClause() (*Clause, error) {
	head, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == '.' {
		p.advance()
		return &Clause{Head: head}, nil
	}
	if p.peek() != ':' || p.peekAt(1) != '-' {
		return nil, p.errHere("expected '.' or ':-' after clause head %s", head.Predicate)
	}
	p.advance()
	p.advance()
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != '.' {
		return nil, p.errHere("expected '.' at end of clause %s", head.Predicate)
	}
	p.advance()
	return &Clause{Head: head, Body: body}, nil
}

// parseBody parses a `;`-separated list of conjunctions. Conjunction binds
// tighter than disjunction.
func (p *parser) parseBody() (Expr, error) {
	left, err := p.parseConjunction()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != ';' {
			return left, nil
		}
		p.advance()
		right, err := p.parseConjunction()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}
}

func (p *parser) parseConjunction() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != ',' {
			return left, nil
		}
		p.advance()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
}

// parseOperand parses a goal, a parenthesized group, or a `=` unification,
// followed by any chain of `::` operator applications. `::` binds to the
// immediately preceding goal or group and chains left-associatively.
func (p *parser) parseOperand() (Expr, error) {
	p.skipSpace()
	var expr Expr
	switch {
	case p.peek() == '(':
		lparen := p.pos()
		p.advance()
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errAt(lparen, "unbalanced parenthesis")
		}
		p.advance()
		expr = &GroupExpr{Body: body, LParen: lparen}
	case p.peek() == '"':
		// A goal can only start with a string literal in the `=` sugar.
		lit, err := p.parseUnification()
		if err != nil {
			return nil, err
		}
		expr = &LiteralExpr{Lit: lit}
	default:
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() == '=' {
			// `X = "v"` sugar: the identifier was a term, not a call.
			if len(lit.Args) > 0 {
				return nil, p.errHere("'=' cannot follow a call")
			}
			p.advance()
			rhs, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			lhs := Term{Kind: TermVariable, Value: lit.Predicate, Pos: lit.Pos}
			lit = Literal{Predicate: BuiltinStringEq, Args: []Term{lhs, rhs}, Pos: lit.Pos}
		}
		expr = &LiteralExpr{Lit: lit}
	}

	for {
		p.skipSpace()
		if p.peek() != ':' || p.peekAt(1) != ':' {
			return expr, nil
		}
		p.advance()
		p.advance()
		p.skipSpace()
		op, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		expr = &OpExpr{Operand: expr, Op: op}
	}
}

// parseUnification parses `"const" = term` into a string_eq literal.
func (p *parser) parseUnification() (Literal, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return Literal{}, err
	}
	p.skipSpace()
	if p.peek() != '=' {
		return Literal{}, p.errHere("expected '=' after string term")
	}
	p.advance()
	rhs, err := p.parseTerm()
	if err != nil {
		return Literal{}, err
	}
	return Literal{Predicate: BuiltinStringEq, Args: []Term{lhs, rhs}, Pos: lhs.Pos}, nil
}
