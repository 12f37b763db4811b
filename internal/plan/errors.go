// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"fmt"

	"github.com/imago-dev/imago/internal/logic"
)

type (
	// MissingBaseError is returned when a command, copy, or config
	// operation appears before any base image is established.
	MissingBaseError struct {
		Lit logic.Literal
	}

	// BaseRedefinedError is returned when a derivation introduces a
	// second base image into a chain that already has one.
	BaseRedefinedError struct {
		Lit logic.Literal
	}

	// NoImageError is returned when a derivation never establishes an
	// image, so there is nothing to build for it.
	NoImageError struct {
		Lit logic.Literal
	}

	// AbsoluteCopySourceError is returned when a local copy names an
	// absolute source path instead of a context-relative one.
	AbsoluteCopySourceError struct {
		Lit logic.Literal
	}
)

func (e *MissingBaseError) Error() string {
	return fmt.Sprintf("%s requires a base image: no from() precedes it", e.Lit.String())
}

func (e *BaseRedefinedError) Error() string {
	return fmt.Sprintf("%s conflicts with an earlier base image in the same chain", e.Lit.String())
}

func (e *NoImageError) Error() string {
	return fmt.Sprintf("derivation of %s produces no image", e.Lit.String())
}

func (e *AbsoluteCopySourceError) Error() string {
	return fmt.Sprintf("%s: the source of a local copy can not be an absolute path", e.Lit.String())
}
