// SPDX-License-Identifier: MPL-2.0

package resolve

import "github.com/imago-dev/imago/internal/logic"

type (
	// Derivation is one node of a derivation tree: the recorded trace of
	// how a query goal was satisfied. The variant set is closed:
	// BuiltinStep, Scope, and Expansion.
	Derivation interface {
		derivationNode()
	}

	// BuiltinStep records one grounded builtin goal (from, run, copy).
	// Unification goals leave no trace; they only constrain bindings.
	BuiltinStep struct {
		Lit logic.Literal
	}

	// Scope wraps the steps produced by an operand under one scoping
	// operator application.
	Scope struct {
		Op   logic.Literal
		Body []Derivation
	}

	// Expansion records a user predicate goal satisfied by one clause.
	// Head is the goal after final substitution; grounded heads are the
	// unit of derivation sharing downstream.
	Expansion struct {
		Head  logic.Literal
		Steps []Derivation
	}

	// Solution is one complete derivation of the query, with every
	// binding applied.
	Solution struct {
		Query logic.Literal
		Steps []Derivation
	}
)

func (*BuiltinStep) derivationNode() {}
func (*Scope) derivationNode()       {}
func (*Expansion) derivationNode()   {}

// substitute rebuilds the tree with every literal resolved through s.
// It runs once per solution, after the query's substitution is complete.
func substitute(d Derivation, s Substitution) Derivation {
	switch n := d.(type) {
	case *BuiltinStep:
		return &BuiltinStep{Lit: s.Apply(n.Lit)}
	case *Scope:
		return &Scope{Op: s.Apply(n.Op), Body: substituteAll(n.Body, s)}
	case *Expansion:
		return &Expansion{Head: s.Apply(n.Head), Steps: substituteAll(n.Steps, s)}
	default:
		return d
	}
}

func substituteAll(ds []Derivation, s Substitution) []Derivation {
	out := make([]Derivation, len(ds))
	for i, d := range ds {
		out[i] = substitute(d, s)
	}
	return out
}

// checkGround walks a finished tree and rejects any builtin or operator
// literal that still carries an unbound variable. Such a variable can only
// come from a clause that never constrains it.
func checkGround(d Derivation) error {
	switch n := d.(type) {
	case *BuiltinStep:
		if !n.Lit.IsGround() {
			return &UngroundArgumentError{Lit: n.Lit}
		}
	case *Scope:
		if !n.Op.IsGround() {
			return &UngroundArgumentError{Lit: n.Op}
		}
		for _, c := range n.Body {
			if err := checkGround(c); err != nil {
				return err
			}
		}
	case *Expansion:
		for _, c := range n.Steps {
			if err := checkGround(c); err != nil {
				return err
			}
		}
	}
	return nil
}
