// SPDX-License-Identifier: MPL-2.0

package resolve

import "github.com/imago-dev/imago/internal/logic"

// unifyTerms makes a and b equal under s, extending s in place. It reports
// whether unification succeeded. Terms are flat, so there is no occurs
// check to perform.
func unifyTerms(a, b logic.Term, s Substitution) bool {
	a = s.Walk(a)
	b = s.Walk(b)
	switch {
	case a.Kind == logic.TermConstant && b.Kind == logic.TermConstant:
		return a.Value == b.Value
	case a.Kind == logic.TermVariable:
		if b.Kind == logic.TermVariable && a.Value == b.Value {
			return true
		}
		s[a.Value] = b
		return true
	default: // b is a variable, a is a constant
		s[b.Value] = a
		return true
	}
}

// unifyLiterals unifies two literals argument by argument. Predicates and
// arities must already match; callers dispatch on signature first.
func unifyLiterals(a, b logic.Literal, s Substitution) bool {
	if a.Predicate != b.Predicate || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !unifyTerms(a.Args[i], b.Args[i], s) {
			return false
		}
	}
	return true
}
