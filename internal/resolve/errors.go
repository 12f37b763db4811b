// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"strings"

	"github.com/imago-dev/imago/internal/logic"
)

type (
	// UndefinedPredicateError is returned when a goal names a predicate
	// with no matching clause and no builtin meaning.
	UndefinedPredicateError struct {
		Lit logic.Literal
	}

	// UnknownOperatorError is returned when a `::` application names an
	// operator outside the supported set, or with the wrong arity.
	UnknownOperatorError struct {
		Op logic.Literal
	}

	// CyclicDependencyError is returned when resolving a goal requires
	// resolving the same goal again. Chain lists the goal patterns on
	// the cycle, outermost first.
	CyclicDependencyError struct {
		Chain []string
	}

	// NoDerivationError is returned when the query is well formed but no
	// clause combination satisfies it.
	NoDerivationError struct {
		Query logic.Literal
	}

	// UngroundArgumentError is returned when a builtin or operator
	// argument is still a variable after resolution completes.
	UngroundArgumentError struct {
		Lit logic.Literal
	}

	// UngroundQueryError is returned when a solution leaves a query
	// argument unbound, so there is no concrete target to name.
	UngroundQueryError struct {
		Query logic.Literal
	}
)

func (e *UndefinedPredicateError) Error() string {
	return fmt.Sprintf("line %d, column %d: undefined predicate %s",
		e.Lit.Pos.Line, e.Lit.Pos.Column, e.Lit.Signature())
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("line %d, column %d: unknown operator %s",
		e.Op.Pos.Line, e.Op.Pos.Column, e.Op.Signature())
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Chain, " -> "))
}

func (e *NoDerivationError) Error() string {
	return fmt.Sprintf("no derivation found for %s", e.Query.String())
}

func (e *UngroundArgumentError) Error() string {
	return fmt.Sprintf("line %d, column %d: argument of %s is not ground",
		e.Lit.Pos.Line, e.Lit.Pos.Column, e.Lit.String())
}

func (e *UngroundQueryError) Error() string {
	return fmt.Sprintf("query %s has unbound arguments in a solution", e.Query.String())
}
