// SPDX-License-Identifier: MPL-2.0

// Package logic defines the clause language for imago build programs and
// its parser. A program is an ordered collection of clauses; each clause
// has a head literal and an optional body expression built from literals,
// conjunction, disjunction, grouping, and postfix scoping operators.
package logic

import (
	"fmt"
	"strings"
)

const (
	// TermConstant is a ground string value. Escape sequences from the
	// source literal are preserved verbatim in Value.
	TermConstant TermKind = iota
	// TermVariable is a logic variable, bound during resolution.
	TermVariable
)

type (
	// TermKind discriminates the two kinds of Term.
	TermKind int

	// Position locates a syntax element in the program source.
	// Line and Column are 1-based; Offset is a 0-based byte offset.
	Position struct {
		Line   int
		Column int
		Offset int
	}

	// Term is a flat argument value: a ground string constant or a logic
	// variable. Compound terms are not part of the language.
	Term struct {
		Kind  TermKind
		Value string
		Pos   Position
	}

	// Literal is a predicate applied to zero or more terms. It is used for
	// clause heads, goals, and the operator part of scoping applications.
	Literal struct {
		Predicate string
		Args      []Term
		Pos       Position
	}

	// Clause is one fact or rule. Body is nil for facts.
	Clause struct {
		Head Literal
		Body Expr
	}

	// Program is an ordered collection of clauses, in source order.
	// Source order is significant: resolution tries clauses first to last.
	Program struct {
		Clauses []*Clause
	}

	// Expr is a goal expression. The variant set is closed: LiteralExpr,
	// AndExpr, OrExpr, GroupExpr, and OpExpr.
	Expr interface {
		exprNode()
		Pos() Position
		String() string
	}

	// LiteralExpr is a single goal: a predicate call or builtin call.
	LiteralExpr struct {
		Lit Literal
	}

	// AndExpr is the conjunction of two goals, resolved left to right.
	AndExpr struct {
		Left  Expr
		Right Expr
	}

	// OrExpr is the disjunction of two goals; each branch yields its own
	// derivations.
	OrExpr struct {
		Left  Expr
		Right Expr
	}

	// GroupExpr is a parenthesized body. It exists so scoping operators
	// can be applied to a whole sub-body.
	GroupExpr struct {
		Body   Expr
		LParen Position
	}

	// OpExpr applies a scoping operator (e.g. in_workdir, set_workdir,
	// copy) to the goal or group immediately preceding the `::` token.
	OpExpr struct {
		Operand Expr
		Op      Literal
	}
)

// Constant creates a ground term with the given (escape-preserving) value.
func Constant(value string) Term {
	return Term{Kind: TermConstant, Value: value}
}

// Variable creates a variable term with the given name.
func Variable(name string) Term {
	return Term{Kind: TermVariable, Value: name}
}

// IsConstant reports whether the term is ground.
func (t Term) IsConstant() bool { return t.Kind == TermConstant }

// String renders the term in source syntax.
func (t Term) String() string {
	if t.Kind == TermConstant {
		return `"` + t.Value + `"`
	}
	return t.Value
}

// Arity returns the number of arguments.
func (l Literal) Arity() int { return len(l.Args) }

// Signature returns the name/arity pair, e.g. "from/1".
func (l Literal) Signature() string {
	return fmt.Sprintf("%s/%d", l.Predicate, len(l.Args))
}

// String renders the literal in source syntax.
func (l Literal) String() string {
	if len(l.Args) == 0 {
		return l.Predicate
	}
	parts := make([]string, len(l.Args))
	for i, a := range l.Args {
		parts[i] = a.String()
	}
	return l.Predicate + "(" + strings.Join(parts, ", ") + ")"
}

// IsGround reports whether all arguments are constants.
func (l Literal) IsGround() bool {
	for _, a := range l.Args {
		if !a.IsConstant() {
			return false
		}
	}
	return true
}

// String renders the clause in source syntax, including the final period.
func (c *Clause) String() string {
	if c.Body == nil {
		return c.Head.String() + "."
	}
	return c.Head.String() + " :- " + c.Body.String() + "."
}

// ClausesFor returns the clauses whose head matches the given predicate
// name and arity, in source order.
func (p *Program) ClausesFor(name string, arity int) []*Clause {
	var out []*Clause
	for _, c := range p.Clauses {
		if c.Head.Predicate == name && c.Head.Arity() == arity {
			out = append(out, c)
		}
	}
	return out
}

// Predicates returns the distinct head predicate names defined by the
// program, in first-appearance order.
func (p *Program) Predicates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range p.Clauses {
		if !seen[c.Head.Predicate] {
			seen[c.Head.Predicate] = true
			out = append(out, c.Head.Predicate)
		}
	}
	return out
}

func (e *LiteralExpr) exprNode() {}
func (e *AndExpr) exprNode()     {}
func (e *OrExpr) exprNode()      {}
func (e *GroupExpr) exprNode()   {}
func (e *OpExpr) exprNode()      {}

// Pos returns the source position of the literal.
func (e *LiteralExpr) Pos() Position { return e.Lit.Pos }

// Pos returns the source position of the left operand.
func (e *AndExpr) Pos() Position { return e.Left.Pos() }

// Pos returns the source position of the left branch.
func (e *OrExpr) Pos() Position { return e.Left.Pos() }

// Pos returns the position of the opening parenthesis.
func (e *GroupExpr) Pos() Position { return e.LParen }

// Pos returns the source position of the operand.
func (e *OpExpr) Pos() Position { return e.Operand.Pos() }

func (e *LiteralExpr) String() string { return e.Lit.String() }

func (e *AndExpr) String() string {
	return e.Left.String() + ", " + e.Right.String()
}

func (e *OrExpr) String() string {
	return e.Left.String() + "; " + e.Right.String()
}

func (e *GroupExpr) String() string { return "(" + e.Body.String() + ")" }

func (e *OpExpr) String() string {
	return e.Operand.String() + "::" + e.Op.String()
}
