// SPDX-License-Identifier: MPL-2.0

package logic

import "fmt"

// BuiltinRedefinedError is returned when a clause head reuses a name
// reserved for a builtin goal.
type BuiltinRedefinedError struct {
	Head Literal
}

func (e *BuiltinRedefinedError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s is a reserved builtin and cannot head a clause",
		e.Head.Pos.Line, e.Head.Pos.Column, e.Head.Predicate)
}

// Validate performs the static checks that do not need a query: no clause
// may redefine a builtin predicate name, regardless of arity.
func Validate(prog *Program) error {
	for _, c := range prog.Clauses {
		if IsBuiltinName(c.Head.Predicate) {
			return &BuiltinRedefinedError{Head: c.Head}
		}
	}
	return nil
}
