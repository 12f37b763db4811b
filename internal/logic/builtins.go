// SPDX-License-Identifier: MPL-2.0

package logic

// Builtin goal predicates attach one build instruction to a derivation.
// Their structural success is decided at resolution time; their runtime
// success is an execution concern.
const (
	// BuiltinFrom selects the base image of a branch: from(ref).
	BuiltinFrom = "from"
	// BuiltinRun executes a shell command on the current layer: run(cmd).
	BuiltinRun = "run"
	// BuiltinCopy copies from the local build context: copy(src, dst).
	BuiltinCopy = "copy"
	// BuiltinStringEq constrains two terms to unify: the `=` sugar.
	BuiltinStringEq = "string_eq"
	// BuiltinStringConcat relates two strings to their concatenation:
	// string_concat(a, b, c) holds when a + b = c. Any one argument may
	// be a variable; resolution binds it from the other two.
	BuiltinStringConcat = "string_concat"
	// BuiltinNumberGt holds when both arguments parse as numbers and the
	// first is strictly greater.
	BuiltinNumberGt = "number_gt"
	// BuiltinNumberGeq holds when both arguments parse as numbers and the
	// first is greater or equal.
	BuiltinNumberGeq = "number_geq"
)

// Scoping operators are applied postfix with `::` and transform the build
// context of their operand.
const (
	// OpCopy copies from the image built by the operand: ::copy(src, dst).
	OpCopy = "copy"
	// OpSetWorkdir replaces the working directory for the operand.
	OpSetWorkdir = "set_workdir"
	// OpInWorkdir joins a path onto the working directory for the operand.
	OpInWorkdir = "in_workdir"
	// OpInEnv adds an environment variable while compiling the operand.
	OpInEnv = "in_env"
	// OpSetEnv sets an environment variable on the operand's image.
	OpSetEnv = "set_env"
	// OpSetEntrypoint sets the entrypoint of the operand's image.
	OpSetEntrypoint = "set_entrypoint"
	// OpSetCmd sets the default command of the operand's image.
	OpSetCmd = "set_cmd"
	// OpSetLabel sets a label on the operand's image.
	OpSetLabel = "set_label"
	// OpSetUser sets the default user of the operand's image.
	OpSetUser = "set_user"
	// OpAppendPath appends a directory to PATH in the operand's image.
	OpAppendPath = "append_path"
)

var builtinArities = map[string]int{
	BuiltinFrom:         1,
	BuiltinRun:          1,
	BuiltinCopy:         2,
	BuiltinStringEq:     2,
	BuiltinStringConcat: 3,
	BuiltinNumberGt:     2,
	BuiltinNumberGeq:    2,
}

var operatorArities = map[string]int{
	OpCopy:          2,
	OpSetWorkdir:    1,
	OpInWorkdir:     1,
	OpInEnv:         2,
	OpSetEnv:        2,
	OpSetEntrypoint: 1,
	OpSetCmd:        1,
	OpSetLabel:      2,
	OpSetUser:       1,
	OpAppendPath:    1,
}

// IsBuiltin reports whether a goal literal names a builtin operation with
// the correct arity.
func IsBuiltin(name string, arity int) bool {
	want, ok := builtinArities[name]
	return ok && want == arity
}

// IsBuiltinName reports whether a predicate name is reserved for a builtin,
// regardless of arity. User clauses may not redefine these names.
func IsBuiltinName(name string) bool {
	_, ok := builtinArities[name]
	return ok
}

// IsOperator reports whether an operator literal names a known scoping
// operator with the correct arity.
func IsOperator(name string, arity int) bool {
	want, ok := operatorArities[name]
	return ok && want == arity
}
