// SPDX-License-Identifier: MPL-2.0

package resolve

import "github.com/imago-dev/imago/internal/logic"

// Substitution maps variable names to terms. A bound term may itself be a
// variable; Walk follows such chains to the representative term.
type Substitution map[string]logic.Term

// Clone returns an independent copy. Resolution clones at branch points so
// sibling branches cannot see each other's bindings.
func (s Substitution) Clone() Substitution {
	out := make(Substitution, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Walk resolves a term through the binding chains. The result is either a
// constant or an unbound variable.
func (s Substitution) Walk(t logic.Term) logic.Term {
	for t.Kind == logic.TermVariable {
		bound, ok := s[t.Value]
		if !ok {
			return t
		}
		t = bound
	}
	return t
}

// Apply substitutes every argument of the literal.
func (s Substitution) Apply(l logic.Literal) logic.Literal {
	if len(l.Args) == 0 {
		return l
	}
	out := l
	out.Args = make([]logic.Term, len(l.Args))
	for i, a := range l.Args {
		out.Args[i] = s.Walk(a)
	}
	return out
}
