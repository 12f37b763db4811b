// SPDX-License-Identifier: MPL-2.0

// Package imagofile provides the file model for imago build programs: the
// conventions for locating an Imagofile inside a build context, plus the
// Fact and Image types that identify build targets and their results.
package imagofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultName is the file name searched for in a build context directory
// when no explicit program file is given.
const DefaultName = "Imagofile"

// ErrNotFound is the sentinel error wrapped by NotFoundError.
var ErrNotFound = errors.New("imagofile not found")

// NotFoundError is returned when no Imagofile could be located.
type NotFoundError struct {
	// Searched lists the paths that were checked, in order.
	Searched []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no Imagofile found (searched: %v)", e.Searched)
}

// Unwrap returns ErrNotFound so callers can use errors.Is for detection.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Locate resolves the program file for a build. If explicit is non-empty it
// is used as-is (and must exist); otherwise the context directory is
// searched for DefaultName.
func Locate(contextDir, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", &NotFoundError{Searched: []string{explicit}}
		}
		return explicit, nil
	}
	candidate := filepath.Join(contextDir, DefaultName)
	if _, err := os.Stat(candidate); err != nil {
		return "", &NotFoundError{Searched: []string{candidate}}
	}
	return candidate, nil
}

// Read loads the program source for a build context, using Locate rules.
func Read(contextDir, explicit string) (source string, path string, err error) {
	path, err = Locate(contextDir, explicit)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), path, nil
}
