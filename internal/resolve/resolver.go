// SPDX-License-Identifier: MPL-2.0

// Package resolve answers queries against a logic program. It performs
// depth-first resolution with unification over flat terms and records a
// derivation tree for every solution it finds.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/imago-dev/imago/internal/logic"
)

// branch is one open line of resolution: the bindings accumulated so far
// and the derivation steps produced along the way.
type branch struct {
	s     Substitution
	steps []Derivation
}

type resolver struct {
	index map[string][]*logic.Clause
	fresh int

	// active tracks goal patterns on the current resolution path. A goal
	// that depends on itself fails that path instead of looping; cycle
	// remembers the first such cut so a query with no other derivation
	// can report the recursion rather than a bare no-solution.
	active map[string]bool
	stack  []string
	cycle  *CyclicDependencyError
}

// Resolve finds every solution of the query within the program. Clauses
// are tried in source order and solutions keep that order. When two
// solutions ground the query to the same literal, the first one wins and
// the rest are dropped.
func Resolve(prog *logic.Program, query logic.Literal) ([]*Solution, error) {
	r := &resolver{
		index:  indexClauses(prog),
		active: make(map[string]bool),
	}
	branches, err := r.solveLiteral(query, Substitution{})
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		if r.cycle != nil {
			return nil, r.cycle
		}
		return nil, &NoDerivationError{Query: query}
	}

	var solutions []*Solution
	seen := make(map[string]bool)
	for _, b := range branches {
		grounded := b.s.Apply(query)
		if !grounded.IsGround() {
			return nil, &UngroundQueryError{Query: grounded}
		}
		if seen[grounded.String()] {
			continue
		}
		seen[grounded.String()] = true
		steps := substituteAll(b.steps, b.s)
		for _, step := range steps {
			if err := checkGround(step); err != nil {
				return nil, err
			}
		}
		solutions = append(solutions, &Solution{Query: grounded, Steps: steps})
	}
	return solutions, nil
}

func indexClauses(prog *logic.Program) map[string][]*logic.Clause {
	index := make(map[string][]*logic.Clause)
	for _, c := range prog.Clauses {
		sig := c.Head.Signature()
		index[sig] = append(index[sig], c)
	}
	return index
}

func (r *resolver) solveExpr(e logic.Expr, s Substitution) ([]branch, error) {
	switch n := e.(type) {
	case *logic.LiteralExpr:
		return r.solveLiteral(n.Lit, s)
	case *logic.AndExpr:
		lefts, err := r.solveExpr(n.Left, s)
		if err != nil {
			return nil, err
		}
		var out []branch
		for _, lb := range lefts {
			rights, err := r.solveExpr(n.Right, lb.s)
			if err != nil {
				return nil, err
			}
			for _, rb := range rights {
				steps := make([]Derivation, 0, len(lb.steps)+len(rb.steps))
				steps = append(steps, lb.steps...)
				steps = append(steps, rb.steps...)
				out = append(out, branch{s: rb.s, steps: steps})
			}
		}
		return out, nil
	case *logic.OrExpr:
		lefts, err := r.solveExpr(n.Left, s)
		if err != nil {
			return nil, err
		}
		rights, err := r.solveExpr(n.Right, s)
		if err != nil {
			return nil, err
		}
		return append(lefts, rights...), nil
	case *logic.GroupExpr:
		return r.solveExpr(n.Body, s)
	case *logic.OpExpr:
		if !logic.IsOperator(n.Op.Predicate, n.Op.Arity()) {
			return nil, &UnknownOperatorError{Op: n.Op}
		}
		inner, err := r.solveExpr(n.Operand, s)
		if err != nil {
			return nil, err
		}
		out := make([]branch, 0, len(inner))
		for _, b := range inner {
			scope := &Scope{Op: n.Op, Body: b.steps}
			out = append(out, branch{s: b.s, steps: []Derivation{scope}})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported expression node %T", e)
	}
}

func (r *resolver) solveLiteral(lit logic.Literal, s Substitution) ([]branch, error) {
	goal := s.Apply(lit)

	if goal.Predicate == logic.BuiltinStringEq && goal.Arity() == 2 {
		s2 := s.Clone()
		if !unifyTerms(goal.Args[0], goal.Args[1], s2) {
			return nil, nil
		}
		return []branch{{s: s2}}, nil
	}
	if goal.Predicate == logic.BuiltinStringConcat && goal.Arity() == 3 {
		return solveStringConcat(goal, s)
	}
	if (goal.Predicate == logic.BuiltinNumberGt || goal.Predicate == logic.BuiltinNumberGeq) && goal.Arity() == 2 {
		return solveNumberCompare(goal, s)
	}
	if logic.IsBuiltin(goal.Predicate, goal.Arity()) {
		step := &BuiltinStep{Lit: lit}
		return []branch{{s: s, steps: []Derivation{step}}}, nil
	}

	clauses := r.index[goal.Signature()]
	if len(clauses) == 0 {
		return nil, &UndefinedPredicateError{Lit: goal}
	}

	key := goalKey(goal)
	if r.active[key] {
		if r.cycle == nil {
			chain := append(append([]string{}, r.stack...), key)
			r.cycle = &CyclicDependencyError{Chain: chain}
		}
		return nil, nil
	}
	r.active[key] = true
	r.stack = append(r.stack, key)
	defer func() {
		delete(r.active, key)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	var out []branch
	for _, c := range clauses {
		rc := r.rename(c)
		s2 := s.Clone()
		if !unifyLiterals(rc.Head, goal, s2) {
			continue
		}
		if rc.Body == nil {
			exp := &Expansion{Head: rc.Head}
			out = append(out, branch{s: s2, steps: []Derivation{exp}})
			continue
		}
		bodies, err := r.solveExpr(rc.Body, s2)
		if err != nil {
			return nil, err
		}
		for _, bb := range bodies {
			exp := &Expansion{Head: rc.Head, Steps: bb.steps}
			out = append(out, branch{s: bb.s, steps: []Derivation{exp}})
		}
	}
	return out, nil
}

// solveStringConcat constrains string_concat(a, b, c) to a + b = c. At
// most one argument may be unbound; it is solved from the other two. A
// bound triple that does not concatenate fails the branch.
func solveStringConcat(goal logic.Literal, s Substitution) ([]branch, error) {
	a, b, c := goal.Args[0], goal.Args[1], goal.Args[2]
	s2 := s.Clone()
	switch {
	case a.IsConstant() && b.IsConstant():
		if !unifyTerms(c, logic.Constant(a.Value+b.Value), s2) {
			return nil, nil
		}
	case b.IsConstant() && c.IsConstant():
		prefix, found := strings.CutSuffix(c.Value, b.Value)
		if !found || !unifyTerms(a, logic.Constant(prefix), s2) {
			return nil, nil
		}
	case a.IsConstant() && c.IsConstant():
		suffix, found := strings.CutPrefix(c.Value, a.Value)
		if !found || !unifyTerms(b, logic.Constant(suffix), s2) {
			return nil, nil
		}
	default:
		return nil, &UngroundArgumentError{Lit: goal}
	}
	return []branch{{s: s2}}, nil
}

// solveNumberCompare constrains number_gt and number_geq. Both arguments
// must be bound; a value that does not parse as a number fails the
// branch rather than erroring, matching a failed comparison.
func solveNumberCompare(goal logic.Literal, s Substitution) ([]branch, error) {
	if !goal.Args[0].IsConstant() || !goal.Args[1].IsConstant() {
		return nil, &UngroundArgumentError{Lit: goal}
	}
	a, errA := strconv.ParseFloat(goal.Args[0].Value, 64)
	b, errB := strconv.ParseFloat(goal.Args[1].Value, 64)
	if errA != nil || errB != nil {
		return nil, nil
	}
	ok := a > b
	if goal.Predicate == logic.BuiltinNumberGeq {
		ok = a >= b
	}
	if !ok {
		return nil, nil
	}
	return []branch{{s: s}}, nil
}

// goalKey normalizes a goal into a cycle-detection pattern. Distinct
// variables become positional placeholders so two recursive calls that
// differ only in fresh variable names map to the same pattern.
func goalKey(goal logic.Literal) string {
	var sb strings.Builder
	sb.WriteString(goal.Predicate)
	if len(goal.Args) == 0 {
		return sb.String()
	}
	vars := make(map[string]int)
	sb.WriteByte('(')
	for i, a := range goal.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		if a.Kind == logic.TermConstant {
			fmt.Fprintf(&sb, "%q", a.Value)
			continue
		}
		id, ok := vars[a.Value]
		if !ok {
			id = len(vars)
			vars[a.Value] = id
		}
		fmt.Fprintf(&sb, "$%d", id)
	}
	sb.WriteByte(')')
	return sb.String()
}

// rename deep-copies a clause with every variable given a fresh suffix.
// The parser never produces '#' in a variable name, so renamed variables
// cannot collide with source variables or with each other.
func (r *resolver) rename(c *logic.Clause) *logic.Clause {
	r.fresh++
	suffix := fmt.Sprintf("#%d", r.fresh)
	return &logic.Clause{
		Head: renameLiteral(c.Head, suffix),
		Body: renameExpr(c.Body, suffix),
	}
}

func renameLiteral(l logic.Literal, suffix string) logic.Literal {
	if len(l.Args) == 0 {
		return l
	}
	out := l
	out.Args = make([]logic.Term, len(l.Args))
	for i, a := range l.Args {
		if a.Kind == logic.TermVariable {
			a.Value += suffix
		}
		out.Args[i] = a
	}
	return out
}

func renameExpr(e logic.Expr, suffix string) logic.Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *logic.LiteralExpr:
		return &logic.LiteralExpr{Lit: renameLiteral(n.Lit, suffix)}
	case *logic.AndExpr:
		return &logic.AndExpr{Left: renameExpr(n.Left, suffix), Right: renameExpr(n.Right, suffix)}
	case *logic.OrExpr:
		return &logic.OrExpr{Left: renameExpr(n.Left, suffix), Right: renameExpr(n.Right, suffix)}
	case *logic.GroupExpr:
		return &logic.GroupExpr{Body: renameExpr(n.Body, suffix), LParen: n.LParen}
	case *logic.OpExpr:
		return &logic.OpExpr{Operand: renameExpr(n.Operand, suffix), Op: renameLiteral(n.Op, suffix)}
	default:
		return e
	}
}
