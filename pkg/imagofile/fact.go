// SPDX-License-Identifier: MPL-2.0

package imagofile

import (
	"fmt"
	"strings"
)

type (
	// Fact is one concrete grounding of a predicate: a name plus an ordered
	// sequence of constant arguments. Facts are the external keys that
	// identify queryable build targets; two Facts with the same name and
	// argument values identify the same target.
	Fact struct {
		Predicate string
		Args      []string
	}

	// Image is the handle for one successfully built target: the Fact it
	// realizes, the tag the backend assigned, and the content fingerprint
	// of the build node that produced it.
	Image struct {
		Fact        Fact
		Tag         string
		Fingerprint string
	}
)

// NewFact creates a Fact from a predicate name and argument values.
// The argument slice is copied so later mutation of the input cannot
// change the Fact's identity.
func NewFact(predicate string, args ...string) Fact {
	f := Fact{Predicate: predicate}
	if len(args) > 0 {
		f.Args = make([]string, len(args))
		copy(f.Args, args)
	}
	return f
}

// Key returns a canonical string form usable as a map key. Argument values
// are length-prefixed so that no choice of argument content can collide
// with a different argument split.
func (f Fact) Key() string {
	var sb strings.Builder
	sb.WriteString(f.Predicate)
	for _, a := range f.Args {
		fmt.Fprintf(&sb, "/%d:%s", len(a), a)
	}
	return sb.String()
}

// String renders the Fact in source syntax, e.g. `app("prod")`.
func (f Fact) String() string {
	if len(f.Args) == 0 {
		return f.Predicate
	}
	quoted := make([]string, len(f.Args))
	for i, a := range f.Args {
		quoted[i] = `"` + a + `"`
	}
	return f.Predicate + "(" + strings.Join(quoted, ", ") + ")"
}

// Equal reports whether two Facts identify the same target.
func (f Fact) Equal(other Fact) bool {
	if f.Predicate != other.Predicate || len(f.Args) != len(other.Args) {
		return false
	}
	for i := range f.Args {
		if f.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}
